package player

import (
	"github.com/godbus/dbus/v5"
)

// Bus is the slice of the session bus the player service needs.
//
//go:generate mockgen -destination=mocks/bus_mock.go -package=mocks karolbroda.com/duet/internal/player Bus
type Bus interface {
	// Signal registers ch to receive matched signals
	Signal(ch chan<- *dbus.Signal)

	// AddMatchSignal subscribes to signals matching options
	AddMatchSignal(options ...dbus.MatchOption) error

	// ListNames returns every name on the bus
	ListNames() ([]string, error)

	// GetProperty reads prop from the object at path owned by service
	GetProperty(service, path, prop string) (dbus.Variant, error)

	Close() error
}

type sessionBus struct {
	conn *dbus.Conn
}

// SessionBus connects to the user's session bus.
func SessionBus() (Bus, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, err
	}
	return &sessionBus{conn: conn}, nil
}

// WrapConn adapts an existing connection.
func WrapConn(conn *dbus.Conn) Bus {
	return &sessionBus{conn: conn}
}

func (b *sessionBus) Signal(ch chan<- *dbus.Signal) {
	b.conn.Signal(ch)
}

func (b *sessionBus) AddMatchSignal(options ...dbus.MatchOption) error {
	return b.conn.AddMatchSignal(options...)
}

func (b *sessionBus) ListNames() ([]string, error) {
	var names []string
	err := b.conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names)
	return names, err
}

func (b *sessionBus) GetProperty(service, path, prop string) (dbus.Variant, error) {
	return b.conn.Object(service, dbus.ObjectPath(path)).GetProperty(prop)
}

func (b *sessionBus) Close() error {
	return b.conn.Close()
}

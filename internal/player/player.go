package player

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"

	"karolbroda.com/duet/internal/track"
)

const (
	mprisPath        = "/org/mpris/MediaPlayer2"
	mprisPlayerIface = "org.mpris.MediaPlayer2.Player"
	mprisPrefix      = "org.mpris.MediaPlayer2."
	propsIface       = "org.freedesktop.DBus.Properties"

	// a position further than this from where playback should be is a seek
	seekThresholdSecs = 3.0
)

var ErrNoTrack = errors.New("player reports no track")

type Event int

const (
	EventTrackChanged Event = iota
	EventSeeked
	EventPlaybackStateChanged
)

func (e Event) String() string {
	switch e {
	case EventTrackChanged:
		return "track_changed"
	case EventSeeked:
		return "seeked"
	case EventPlaybackStateChanged:
		return "playback_state_changed"
	default:
		return "unknown"
	}
}

type EventData struct {
	Type     Event
	Track    *track.Info
	Position float64
	Playing  bool
}

type State struct {
	Track    *track.Info
	Position float64
	Playing  bool

	lastUpdate   time.Time
	lastPosition float64
}

// DetectSeek reports whether pos is too far from where playback should be
// given the time since the last update.
func (s *State) DetectSeek(pos float64, now time.Time) bool {
	if s.lastUpdate.IsZero() {
		return false
	}

	expected := s.lastPosition
	if s.Playing {
		expected += now.Sub(s.lastUpdate).Seconds()
	}

	diff := pos - expected
	if diff < 0 {
		diff = -diff
	}
	return diff > seekThresholdSecs
}

func (s *State) UpdatePosition(pos float64, now time.Time) {
	s.Position = pos
	s.lastPosition = pos
	s.lastUpdate = now
}

type Service struct {
	bus     Bus
	service string
	log     *zap.Logger
	now     func() time.Time

	signalChan chan *dbus.Signal
	stopChan   chan struct{}
	stopOnce   sync.Once
	eventChan  chan EventData

	mu    sync.RWMutex
	state *State
}

func NewService(bus Bus, mprisService string, log *zap.Logger) (*Service, error) {
	if bus == nil {
		return nil, errors.New("nil dbus connection")
	}
	if mprisService == "" {
		return nil, errors.New("empty mpris service name")
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		bus:       bus,
		service:   mprisService,
		log:       log,
		now:       time.Now,
		eventChan: make(chan EventData, 16),
		state:     &State{},
	}, nil
}

func (s *Service) Name() string {
	return s.service
}

func (s *Service) Start() error {
	s.signalChan = make(chan *dbus.Signal, 10)
	s.stopChan = make(chan struct{})
	s.bus.Signal(s.signalChan)

	err := s.bus.AddMatchSignal(
		dbus.WithMatchSender(s.service),
		dbus.WithMatchObjectPath(mprisPath),
		dbus.WithMatchInterface(propsIface),
		dbus.WithMatchMember("PropertiesChanged"),
	)
	if err != nil {
		return fmt.Errorf("failed to add properties match: %w", err)
	}

	err = s.bus.AddMatchSignal(
		dbus.WithMatchSender(s.service),
		dbus.WithMatchObjectPath(mprisPath),
		dbus.WithMatchInterface(mprisPlayerIface),
		dbus.WithMatchMember("Seeked"),
	)
	if err != nil {
		return fmt.Errorf("failed to add seeked match: %w", err)
	}

	go s.signalLoop()
	s.log.Info("following player", zap.String("service", s.service))
	return nil
}

func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		if s.stopChan != nil {
			close(s.stopChan)
		}
	})
}

func (s *Service) Events() <-chan EventData {
	return s.eventChan
}

func (s *Service) metadata() (map[string]dbus.Variant, error) {
	prop, err := s.bus.GetProperty(s.service, mprisPath, mprisPlayerIface+".Metadata")
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata property: %w", err)
	}

	metadata, ok := prop.Value().(map[string]dbus.Variant)
	if !ok {
		return nil, fmt.Errorf("unexpected metadata type %T", prop.Value())
	}
	return metadata, nil
}

func (s *Service) GetCurrentTrack() (*track.Info, error) {
	metadata, err := s.metadata()
	if err != nil {
		return nil, err
	}

	info := trackFromMetadata(metadata)
	if !info.IsValid() {
		return nil, fmt.Errorf("%w (title=%q, artist=%q)", ErrNoTrack, info.Title, info.Artist)
	}
	return info, nil
}

func (s *Service) GetCurrentPosition() (float64, error) {
	prop, err := s.bus.GetProperty(s.service, mprisPath, mprisPlayerIface+".Position")
	if err != nil {
		return 0, fmt.Errorf("failed to get position property: %w", err)
	}

	micros, ok := prop.Value().(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected position type %T", prop.Value())
	}
	return microsToSeconds(micros), nil
}

func (s *Service) GetPlaying() (bool, error) {
	prop, err := s.bus.GetProperty(s.service, mprisPath, mprisPlayerIface+".PlaybackStatus")
	if err != nil {
		return false, fmt.Errorf("failed to get playback status: %w", err)
	}
	status, ok := prop.Value().(string)
	if !ok {
		return false, fmt.Errorf("unexpected playback status type %T", prop.Value())
	}
	return status == "Playing", nil
}

// Poll reads track and position and emits the events a change implies.
func (s *Service) Poll() error {
	trk, err := s.GetCurrentTrack()
	if err != nil {
		return err
	}

	pos, err := s.GetCurrentPosition()
	if err != nil {
		return err
	}

	now := s.now()

	s.mu.Lock()
	current := s.state.Track
	seeked := s.state.DetectSeek(pos, now)
	s.state.UpdatePosition(pos, now)

	if !trk.IsSameTrack(current) {
		s.state.Track = trk
		s.mu.Unlock()
		s.emitEvent(EventData{Type: EventTrackChanged, Track: trk, Position: pos})
		return nil
	}
	s.mu.Unlock()

	if seeked {
		s.emitEvent(EventData{Type: EventSeeked, Position: pos})
	}
	return nil
}

func (s *Service) signalLoop() {
	for {
		select {
		case sig, ok := <-s.signalChan:
			if !ok {
				return
			}
			s.handleSignal(sig)
		case <-s.stopChan:
			return
		}
	}
}

func (s *Service) handleSignal(sig *dbus.Signal) {
	if sig == nil {
		return
	}

	switch sig.Name {
	case propsIface + ".PropertiesChanged":
		s.handlePropertiesChanged(sig)
	case mprisPlayerIface + ".Seeked":
		s.handleSeeked(sig)
	}
}

func (s *Service) handlePropertiesChanged(sig *dbus.Signal) {
	if len(sig.Body) < 2 {
		return
	}

	iface, ok := sig.Body[0].(string)
	if !ok || iface != mprisPlayerIface {
		return
	}

	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return
	}

	if v, exists := changed["Metadata"]; exists {
		if metadata, ok := v.Value().(map[string]dbus.Variant); ok {
			info := trackFromMetadata(metadata)
			if info.IsValid() {
				s.mu.Lock()
				s.state.Track = info
				s.state.UpdatePosition(0, s.now())
				s.mu.Unlock()

				s.log.Debug("track changed", zap.String("track", info.String()))
				s.emitEvent(EventData{Type: EventTrackChanged, Track: info})
			}
		}
	}

	if v, exists := changed["PlaybackStatus"]; exists {
		if status, ok := v.Value().(string); ok {
			playing := status == "Playing"
			s.mu.Lock()
			s.state.Playing = playing
			s.state.lastUpdate = s.now()
			s.mu.Unlock()

			s.emitEvent(EventData{Type: EventPlaybackStateChanged, Playing: playing})
		}
	}
}

func (s *Service) handleSeeked(sig *dbus.Signal) {
	if len(sig.Body) < 1 {
		return
	}

	micros, ok := sig.Body[0].(int64)
	if !ok {
		return
	}
	pos := microsToSeconds(micros)

	s.mu.Lock()
	s.state.UpdatePosition(pos, s.now())
	s.mu.Unlock()

	s.emitEvent(EventData{Type: EventSeeked, Position: pos})
}

// emitEvent drops the event when nobody keeps up
func (s *Service) emitEvent(event EventData) {
	select {
	case s.eventChan <- event:
	default:
		s.log.Debug("dropped player event", zap.Stringer("type", event.Type))
	}
}

func (s *Service) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := State{
		Position: s.state.Position,
		Playing:  s.state.Playing,
	}
	if s.state.Track != nil {
		t := *s.state.Track
		state.Track = &t
	}
	return state
}

func ListPlayers(bus Bus) ([]string, error) {
	names, err := bus.ListNames()
	if err != nil {
		return nil, fmt.Errorf("failed to list bus names: %w", err)
	}

	var players []string
	for _, name := range names {
		if strings.HasPrefix(name, mprisPrefix) {
			players = append(players, name)
		}
	}
	sort.Strings(players)
	return players, nil
}

// ShortName strips the mpris prefix, "org.mpris.MediaPlayer2.spotify" -> "spotify".
func ShortName(service string) string {
	return strings.TrimPrefix(service, mprisPrefix)
}

func ServiceName(name string) string {
	if name == "" || strings.HasPrefix(name, mprisPrefix) {
		return name
	}
	return mprisPrefix + name
}

func microsToSeconds(micros int64) float64 {
	if micros <= 0 {
		return 0
	}
	return float64(micros) / 1_000_000
}

func trackFromMetadata(metadata map[string]dbus.Variant) *track.Info {
	return &track.Info{
		Title:        extractString(metadata, "xesam:title"),
		Artist:       extractArtist(metadata, "xesam:artist"),
		Album:        extractString(metadata, "xesam:album"),
		ArtworkURL:   extractString(metadata, "mpris:artUrl"),
		TrackID:      extractTrackID(metadata),
		URL:          extractString(metadata, "xesam:url"),
		DurationSecs: extractDuration(metadata, "mpris:length"),
	}
}

func extractString(metadata map[string]dbus.Variant, key string) string {
	variant, exists := metadata[key]
	if !exists {
		return ""
	}
	text, _ := variant.Value().(string)
	return text
}

// extractTrackID handles players that send the id as an object path
func extractTrackID(metadata map[string]dbus.Variant) string {
	variant, exists := metadata["mpris:trackid"]
	if !exists {
		return ""
	}
	switch typed := variant.Value().(type) {
	case dbus.ObjectPath:
		return string(typed)
	case string:
		return typed
	default:
		return ""
	}
}

func extractArtist(metadata map[string]dbus.Variant, key string) string {
	variant, exists := metadata[key]
	if !exists {
		return ""
	}

	switch typed := variant.Value().(type) {
	case []string:
		if len(typed) > 0 {
			return typed[0]
		}
		return ""
	case string:
		return typed
	default:
		return ""
	}
}

func extractDuration(metadata map[string]dbus.Variant, key string) float64 {
	variant, exists := metadata[key]
	if !exists {
		return 0
	}

	switch typed := variant.Value().(type) {
	case int64:
		return microsToSeconds(typed)
	case uint64:
		return float64(typed) / 1_000_000
	case int32:
		return microsToSeconds(int64(typed))
	default:
		return 0
	}
}

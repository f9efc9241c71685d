package session

// Keys the viewer keeps in the settings store.
const (
	KeyMode              = "lyrics_mode"
	KeyBoldOriginal      = "bold_original"
	KeyBoldTranslation   = "bold_translation"
	KeyItalicOriginal    = "italic_original"
	KeyItalicTranslation = "italic_translation"
)

// Store persists opaque string preferences. Get returns an error wrapping
// settings.ErrNotFound for unknown keys.
//
//go:generate mockgen -destination=mocks/store_mock.go -package=mocks karolbroda.com/duet/internal/session Store
type Store interface {
	Get(key string) (string, error)
	Set(key string, value string) error
}

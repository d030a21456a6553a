package driven

// ConfigStore is a flat key/value view over the TOML config file.
// Keys are dotted paths such as "chat.max_documents".
type ConfigStore interface {
	// Get returns the raw value and whether the key is set.
	Get(key string) (any, bool)

	// Typed getters return the zero value for a missing or mistyped key.
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetStringSlice(key string) []string

	// Set updates a key and persists the file.
	Set(key string, value any) error

	Save() error

	// Load re-reads the file, picking up edits made outside the process.
	Load() error

	Path() string
}

package driven

// ConfigStore holds flat dot-notation settings such as "api.base_url".
// Typed getters return the zero value for a missing key or a value of
// another type.
type ConfigStore interface {
	// Get returns the raw value and whether the key is set.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int
	GetStringSlice(key string) []string

	// Set stores value under key. It is persisted before Set returns.
	Set(key string, value any) error

	// Unset removes key. Removing a key that is not set is not an error.
	Unset(key string) error

	// Path returns where the configuration lives, for display.
	Path() string
}

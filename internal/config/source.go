package config

import "os"

// Source is a read-only key/value lookup consulted on every probe request.
// Implementations must be safe for concurrent use.
type Source interface {
	// Lookup returns the value for key and whether it was present.
	Lookup(key string) (string, bool)
}

// EnvSource reads from the process environment.
type EnvSource struct{}

func (EnvSource) Lookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// MapSource serves a fixed set of values. It must not be mutated after
// it is handed to a probe.
type MapSource map[string]string

func (m MapSource) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// Chain consults each source in order and returns the first non-empty value.
type Chain []Source

func (c Chain) Lookup(key string) (string, bool) {
	for _, s := range c {
		if v, ok := s.Lookup(key); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// NewSource returns the standard chain: environment first, then the static
// settings from the config file.
func NewSource(settings map[string]string) Source {
	return Chain{EnvSource{}, MapSource(settings)}
}

// Package env reads process environment variables with fallbacks.
package env

import "os"

// Get looks up key in the environment. An unset or blank variable yields
// fallback.
func Get(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

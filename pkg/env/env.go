// Package env holds the bare variable lookups needed before the structured
// config in pkg/config has been loaded.
package env

import "os"

// Get reads an environment variable, falling back when unset or blank.
func Get(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

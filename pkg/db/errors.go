package db

import "strings"

// IsUniqueViolation reports whether err is a unique-constraint failure,
// optionally scoped to one named constraint. Matches both the Postgres and
// the sqlite (test driver) phrasings.
func IsUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()

	duplicate := strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
	if !duplicate {
		return false
	}
	if constraint == "" {
		return true
	}
	return strings.Contains(msg, constraint)
}

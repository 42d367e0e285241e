package utils

import "github.com/google/uuid"

const maxIDLen = 128

// IsUUID reports whether s is a canonical UUID. The Postgres store only
// holds UUID keys, so anything else can never match a row there.
func IsUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// IsResourceID reports whether a path id is worth looking up. Demo data files
// may carry ids like t_1715342400000_9f2c, so this accepts any short token of
// letters, digits, '-' and '_'.
func IsResourceID(s string) bool {
	if s == "" || len(s) > maxIDLen {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

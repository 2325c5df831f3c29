package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Substrings emitted by postgres (SQLSTATE 23505) and sqlite (error 2067)
// for unique index violations. Gorm only translates these when the dialect
// has TranslateError enabled, so the raw messages are matched as a fallback.
var duplicateKeyMarkers = []string{
	"duplicate key value violates unique constraint",
	"UNIQUE constraint failed",
}

// IsDuplicateKeyErr reports whether err is a unique-constraint violation.
func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	for _, marker := range duplicateKeyMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

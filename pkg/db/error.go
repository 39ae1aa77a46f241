package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Unique-violation markers per driver. gorm only translates these when the
// dialector has error translation enabled, so the raw messages are matched
// as a fallback.
var duplicateKeyMarkers = []string{
	"duplicate key value violates unique constraint", // postgres 23505
	"Error 1062",                                     // mysql
	"UNIQUE constraint failed",                       // sqlite 2067
}

// IsDuplicateKeyErr reports whether err is a unique-constraint violation.
// Callers use it to recover from insert races by re-reading the winner's row.
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

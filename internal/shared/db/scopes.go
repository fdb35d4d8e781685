// Package db provides database utilities including transaction management and query scopes.
package db

import (
	"gorm.io/gorm"
)

// StatusIn is a GORM scope that filters rows by a set of status values.
// An empty set applies no filter so callers can pass optional status
// arguments straight through.
//
// Example usage:
//
//	tx.Model(&Model{}).Scopes(db.StatusIn("active", "expired")).Find(&rows)
func StatusIn(values ...string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if len(values) == 0 {
			return db
		}
		return db.Where("status IN ?", values)
	}
}

// ExpiredBefore is a GORM scope that matches rows whose expiration column
// holds a millisecond timestamp strictly before the given cutoff. Rows with
// a NULL expiration never match.
func ExpiredBefore(cutoffMilli int64) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("expiration IS NOT NULL AND expiration < ?", cutoffMilli)
	}
}

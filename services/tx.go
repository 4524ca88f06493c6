package services

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// inTx runs fn in one transaction bound to ctx
func inTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return db.WithContext(ctx).Transaction(fn)
}

// forUpdate adds SELECT ... FOR UPDATE; dialects without row locks ignore it
func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// trimOptional trims an optional text field and maps blanks to nil
func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// countWhere counts rows of model matching the condition
func countWhere(tx *gorm.DB, model interface{}, query string, args ...interface{}) (int64, error) {
	var n int64
	err := tx.Model(model).Where(query, args...).Count(&n).Error
	return n, err
}

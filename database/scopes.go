package database

import (
	"strings"

	"gorm.io/gorm"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Scope is a composable query fragment applied through gorm's Scopes.
type Scope = func(*gorm.DB) *gorm.DB

// Paginate clamps page/limit to sane values and applies offset and limit.
func Paginate(page, limit int) Scope {
	page, limit = NormalizePage(page, limit)
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset((page - 1) * limit).Limit(limit)
	}
}

// NormalizePage returns the page and limit Paginate will actually use.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// WhereEq filters column = value, or does nothing when value is the zero value.
func WhereEq[T comparable](column string, value T) Scope {
	var zero T
	return func(db *gorm.DB) *gorm.DB {
		if value == zero {
			return db
		}
		return db.Where(column+" = ?", value)
	}
}

// Search matches term case-insensitively against any of the columns.
func Search(term string, columns ...string) Scope {
	term = strings.TrimSpace(term)
	return func(db *gorm.DB) *gorm.DB {
		if term == "" || len(columns) == 0 {
			return db
		}
		like := "%" + strings.ToLower(term) + "%"
		clauses := make([]string, len(columns))
		args := make([]interface{}, len(columns))
		for i, col := range columns {
			clauses[i] = "LOWER(" + col + ") LIKE ?"
			args[i] = like
		}
		return db.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}
}

// NotDeleted excludes rows flagged with is_deleted on the given table.
func NotDeleted(table string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(table+".is_deleted = ?", false)
	}
}

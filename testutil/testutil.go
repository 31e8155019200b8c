// Package testutil opens throwaway SQLite databases and seeds fixtures for tests.
package testutil

import (
	"fmt"
	"testing"

	"lms/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// DB returns a migrated in-memory SQLite database private to the test.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := database.Open("sqlite", dsn, gormLogger.Silent)
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("test db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}
	return db
}

// UseGlobalDB points database.Database at db for the duration of the test.
func UseGlobalDB(tb testing.TB, db *gorm.DB) {
	tb.Helper()
	prev := database.Database
	database.Database = database.DbInstance{Db: db}
	tb.Cleanup(func() { database.Database = prev })
}

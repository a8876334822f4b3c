package repo

import (
	"fmt"
	"path/filepath"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/domain"
)

// newRepoDB opens a throwaway in-memory database with the full schema.
// Shared across the repo tests in this package.
func newRepoDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestOpenSQLite_CreatesFileAndAppliesPragmas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "core.db")
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	var fk int
	if err := db.Raw("PRAGMA foreign_keys;").Scan(&fk).Error; err != nil {
		t.Fatalf("read pragma: %v", err)
	}
	if fk != 1 {
		t.Fatalf("foreign_keys pragma = %d", fk)
	}

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("automigrate on opened db: %v", err)
	}
	if !db.Migrator().HasTable(&domain.Conversation{}) {
		t.Fatalf("conversations table missing after migrate")
	}
}

func TestOpenSQLite_MissingParentDir_Fails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist", "core.db")
	if _, err := OpenSQLite(path); err == nil {
		t.Fatalf("expected error for missing parent directory")
	}
}

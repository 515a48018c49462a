package vikasyatra

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// kvEntry is one row of the local key/value table.
type kvEntry struct {
	Key       string `gorm:"primaryKey;column:key"`
	Value     []byte `gorm:"not null"`
	UpdatedAt time.Time
}

func (kvEntry) TableName() string { return "kv_entries" }

// SQLiteBackend stores entries in a single SQLite table through GORM.
type SQLiteBackend struct {
	db *gorm.DB
}

// NewSQLiteBackend opens (and migrates) the database at path.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(DELETE)&_pragma=busy_timeout(5000)", path)
	db, err := openGorm(sqlite.Open(dsn))
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&kvEntry{}); err != nil {
		return nil, closeOnError(db, fmt.Errorf("migrate: %w", err))
	}
	return &SQLiteBackend{db: db}, nil
}

// closeOnError releases db's connections and returns err unchanged.
func closeOnError(db *gorm.DB, err error) error {
	if sqlDB, dbErr := db.DB(); dbErr == nil {
		_ = sqlDB.Close()
	}
	return err
}

func openGorm(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

func (s *SQLiteBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var e kvEntry
	err := s.db.WithContext(ctx).First(&e, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e.Value, nil
}

func (s *SQLiteBackend) Set(ctx context.Context, key string, value []byte) error {
	e := kvEntry{Key: key, Value: value}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
}

func (s *SQLiteBackend) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Delete(&kvEntry{}, "key = ?", key).Error
}

func (s *SQLiteBackend) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	q := s.db.WithContext(ctx).Model(&kvEntry{}).Order("key")
	if prefix != "" {
		q = q.Where(`key LIKE ? ESCAPE '\'`, likeEscape(prefix)+"%")
	}
	if err := q.Pluck("key", &keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *SQLiteBackend) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func likeEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

package vikasyatra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// VideoRecord is one finished visual-generation result.
type VideoRecord struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SourceType  JobMode        `gorm:"not null" json:"sourceType"`
	InputSample string         `json:"inputSample"`
	VideoURL    string         `gorm:"not null" json:"videoUrl"`
	UserID      string         `gorm:"index" json:"userId"`
	Email       string         `json:"email"`
	Metadata    datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"createdAt"`
}

func (VideoRecord) TableName() string { return "visual_videos" }

func (r *VideoRecord) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// HistoryStore keeps the per-user list of generated videos.
type HistoryStore interface {
	Save(ctx context.Context, rec *VideoRecord) error
	List(ctx context.Context, userID string, limit int) ([]VideoRecord, error)
}

// GormHistoryStore is a HistoryStore over PostgreSQL or SQLite.
type GormHistoryStore struct {
	db *gorm.DB
}

// OpenHistoryStore connects to PostgreSQL for postgres:// DSNs and treats
// anything else as a SQLite file path.
func OpenHistoryStore(dsn string) (*GormHistoryStore, error) {
	var (
		db  *gorm.DB
		err error
	)
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		db, err = openGorm(postgres.Open(dsn))
	} else {
		var b *SQLiteBackend
		b, err = NewSQLiteBackend(dsn)
		if b != nil {
			db = b.db
		}
	}
	if err != nil {
		return nil, err
	}
	h, err := NewGormHistoryStore(db)
	if err != nil {
		return nil, closeOnError(db, err)
	}
	return h, nil
}

// NewGormHistoryStore migrates the visual_videos table on db. The caller
// keeps ownership of db, also on error.
func NewGormHistoryStore(db *gorm.DB) (*GormHistoryStore, error) {
	if err := db.AutoMigrate(&VideoRecord{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &GormHistoryStore{db: db}, nil
}

func (h *GormHistoryStore) Save(ctx context.Context, rec *VideoRecord) error {
	if rec.VideoURL == "" {
		return fmt.Errorf("video url is required")
	}
	return h.db.WithContext(ctx).Create(rec).Error
}

// List returns the user's records, newest first. limit <= 0 means all.
func (h *GormHistoryStore) List(ctx context.Context, userID string, limit int) ([]VideoRecord, error) {
	var out []VideoRecord
	q := h.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (h *GormHistoryStore) Close() error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

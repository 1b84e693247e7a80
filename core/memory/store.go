package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned by Store.Get when no record exists for a key.
var ErrNotFound = errors.New("memory record not found")

// Key identifies one memory record. The (kind, user, session, file) quadruple
// is unique in the store.
type Key struct {
	Kind      Kind
	UserID    string
	SessionID string
	FileName  string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", k.Kind, k.UserID, k.SessionID, k.FileName)
}

// Store is the durable persistence surface. Store failures are fatal to the
// request; the cache in front of it is only an optimization.
type Store interface {
	Get(ctx context.Context, key Key) ([]byte, error)
	// Create persists an initial payload. It must be safe under a
	// create-if-absent race: the losing writer's insert is a no-op.
	Create(ctx context.Context, key Key, payload []byte) error
	Update(ctx context.Context, key Key, payload []byte) error
}

type memoryRow struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Kind      string         `gorm:"size:32;not null;uniqueIndex:idx_memory_key"`
	UserID    string         `gorm:"size:64;not null;uniqueIndex:idx_memory_key"`
	SessionID string         `gorm:"size:64;not null;uniqueIndex:idx_memory_key"`
	FileName  string         `gorm:"size:255;not null;uniqueIndex:idx_memory_key"`
	Payload   datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (memoryRow) TableName() string { return "memory" }

func (r *memoryRow) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// GormStore persists memory records in Postgres.
type GormStore struct {
	db *gorm.DB
}

func Connect(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connecting to memory store: %w", err)
	}
	if err := db.AutoMigrate(&memoryRow{}, &chatHistoryRow{}); err != nil {
		return nil, fmt.Errorf("migrating memory store: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Get(ctx context.Context, key Key) ([]byte, error) {
	var row memoryRow
	err := s.db.WithContext(ctx).
		Where("kind = ? AND user_id = ? AND session_id = ? AND file_name = ?",
			string(key.Kind), key.UserID, key.SessionID, key.FileName).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(row.Payload), nil
}

func (s *GormStore) Create(ctx context.Context, key Key, payload []byte) error {
	row := memoryRow{
		Kind:      string(key.Kind),
		UserID:    key.UserID,
		SessionID: key.SessionID,
		FileName:  key.FileName,
		Payload:   datatypes.JSON(payload),
	}
	// Concurrent first-access races resolve at the unique index: the losing
	// writer inserts nothing and re-reads.
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
}

func (s *GormStore) Update(ctx context.Context, key Key, payload []byte) error {
	res := s.db.WithContext(ctx).
		Model(&memoryRow{}).
		Where("kind = ? AND user_id = ? AND session_id = ? AND file_name = ?",
			string(key.Kind), key.UserID, key.SessionID, key.FileName).
		Update("payload", datatypes.JSON(payload))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteOlderThan removes memory rows untouched since the cutoff. Used by the
// retention sweep, never by the request path.
func (s *GormStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("updated_at < ?", cutoff).
		Delete(&memoryRow{})
	return res.RowsAffected, res.Error
}

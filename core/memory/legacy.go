package memory

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/insightify-ai/insightify/core/types"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// chatHistoryRow is the schema of an earlier variant of the memory path that
// kept solutions, code and variables as three blobs per session. The four-kind
// memory model is authoritative; this table is only consulted to seed the
// initial payloads for sessions that predate it.
type chatHistoryRow struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserID    string         `gorm:"size:64;not null;index:idx_chat_history_session"`
	SessionID string         `gorm:"size:64;not null;index:idx_chat_history_session"`
	Solutions datatypes.JSON `gorm:"not null"`
	Code      string         `gorm:"type:text"`
	Variables datatypes.JSON
	CreatedAt time.Time
}

func (chatHistoryRow) TableName() string { return "chat_history" }

// LegacyRecord is the converted form of a chat history row.
type LegacyRecord struct {
	Solutions []types.QAPair
	Code      string
}

// LegacySource resolves a pre-migration chat history for a session.
// Returns ErrNotFound when the session has none.
type LegacySource interface {
	Lookup(ctx context.Context, userID, sessionID string) (*LegacyRecord, error)
}

func (s *GormStore) Lookup(ctx context.Context, userID, sessionID string) (*LegacyRecord, error) {
	var row chatHistoryRow
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rec := &LegacyRecord{Code: row.Code}
	if len(row.Solutions) > 0 {
		if err := json.Unmarshal(row.Solutions, &rec.Solutions); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

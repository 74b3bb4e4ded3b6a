package storage

import (
	"context"
	"errors"

	"github.com/openmahjong/parlor/internal/model"
)

// ErrRecordNotFound is returned when a record ID does not exist
var ErrRecordNotFound = errors.New("game record not found")

// Storage defines the interface for persisting completed game records.
// Live room state never touches storage; it lives in the registry's
// single-process memory for the duration of play.
type Storage interface {
	// SaveGameRecord inserts a completed game record. Records are
	// insert-only; there is no update path.
	SaveGameRecord(ctx context.Context, record *model.GameRecord) error

	// GetGameRecord retrieves a single record by ID
	GetGameRecord(ctx context.Context, id string) (*model.GameRecord, error)

	// ListGameRecords returns up to limit records, most recent first
	ListGameRecords(ctx context.Context, limit int) ([]*model.GameRecord, error)
}

package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bodyshop-platform/api/internal/store"
)

type Logger struct {
	store store.RecordStore
	table string
}

func NewLogger(st store.RecordStore, table string) *Logger {
	return &Logger{store: st, table: table}
}

type Entry struct {
	UserID     string
	Action     string
	EntityType string
	EntityID   string
	RequestID  string
	Metadata   map[string]any
}

func (l *Logger) Log(ctx context.Context, entry Entry) error {
	metadata := []byte("{}")
	if len(entry.Metadata) > 0 {
		encoded, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		metadata = encoded
	}

	row := store.Row{
		"id":          uuid.NewString(),
		"action":      entry.Action,
		"entity_type": entry.EntityType,
		"metadata":    metadata,
		"created_at":  time.Now().UTC().Format(time.RFC3339),
	}
	if entry.UserID != "" {
		row["user_id"] = entry.UserID
	}
	if entry.EntityID != "" {
		row["entity_id"] = entry.EntityID
	}
	if entry.RequestID != "" {
		row["request_id"] = entry.RequestID
	}

	if _, err := l.store.Insert(ctx, l.table, []store.Row{row}); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

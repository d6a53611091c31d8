package store

import (
	"context"
	"fmt"
)

// Stub is the degraded record store installed when the backing database is
// not configured. Every call fails with the configuration reason instead of
// the process crashing at startup, so health and auth endpoints stay usable.
type Stub struct {
	Reason string
}

func NewStub(reason string) *Stub {
	if reason == "" {
		reason = "record store is not configured"
	}
	return &Stub{Reason: reason}
}

func (s *Stub) err() error {
	return fmt.Errorf("record store unavailable: %s", s.Reason)
}

func (s *Stub) Select(ctx context.Context, table string, filter map[string]any) ([]Row, error) {
	return nil, s.err()
}

func (s *Stub) Insert(ctx context.Context, table string, rows []Row) (WriteResult, error) {
	return WriteResult{}, s.err()
}

func (s *Stub) Upsert(ctx context.Context, table string, rows []Row, onConflict string) (WriteResult, error) {
	return WriteResult{}, s.err()
}

func (s *Stub) Update(ctx context.Context, table string, patch Row, filter map[string]any) error {
	return s.err()
}

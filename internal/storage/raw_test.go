package storage

import (
	"context"
	"fmt"
)

// Raw returns the persisted key/value rows as stored.
func (s *SQLStore) Raw(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows(ctx, s.db)
}

// PutRaw writes one key verbatim, bypassing encoding, to simulate a corrupted record.
func (s *SQLStore) PutRaw(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		REPLACE INTO schedule_state (namespace, state_key, state_value, updated_at)
		VALUES (?, ?, ?, ?)
	`, Namespace, key, value, s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

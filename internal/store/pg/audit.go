package pg

import (
	"context"

	"starterkit.dev/internal/audit"
)

// Append inserts one audit entry. There is no corresponding update or delete:
// the audit trail is append-only by construction.
func (s *Store) Append(ctx context.Context, entry *audit.Entry) error {
	_, err := s.db.NewInsert().Model(entry).Exec(ctx)
	return err
}

// List returns the most recent audit entries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]audit.Entry, error) {
	var entries []audit.Entry
	err := s.db.NewSelect().
		Model(&entries).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

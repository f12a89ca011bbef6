package pg

import (
	"context"

	"starterkit.dev/internal/files"
)

func (s *Store) CreateFile(ctx context.Context, f *files.File) error {
	_, err := s.db.NewInsert().Model(f).Exec(ctx)
	return err
}

func (s *Store) FilesByUser(ctx context.Context, userID string, limit int) ([]files.File, error) {
	var result []files.File
	err := s.db.NewSelect().
		Model(&result).
		Where("f.uploaded_by = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return result, nil
}

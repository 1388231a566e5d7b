package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Description returns the label of one magic.
func (s *Store) Description(ctx context.Context, account string, magic int64) (string, error) {
	var desc string
	err := s.db.QueryRowContext(ctx, `
		SELECT description FROM magic_descriptions
		WHERE account = ? AND magic = ?`, account, magic).Scan(&desc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("description: %w: %q/%d", ErrNotFound, account, magic)
		}
		return "", fmt.Errorf("description: %w", err)
	}
	return desc, nil
}

// SetDescription inserts or replaces the label of one magic.
func (s *Store) SetDescription(ctx context.Context, account string, magic int64, desc string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO magic_descriptions (account, magic, description)
		VALUES (?, ?, ?)`, account, magic, desc)
	if err != nil {
		return fmt.Errorf("set description: %w", err)
	}
	s.log.Debug("description set",
		zap.String("account", account),
		zap.Int64("magic", magic),
	)
	return nil
}

// Descriptions returns every label of the account keyed by magic.
func (s *Store) Descriptions(ctx context.Context, account string) (map[int64]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT magic, description FROM magic_descriptions
		WHERE account = ?
		ORDER BY magic ASC`, account)
	if err != nil {
		return nil, fmt.Errorf("descriptions: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]string)
	for rows.Next() {
		var (
			magic int64
			desc  string
		)
		if err := rows.Scan(&magic, &desc); err != nil {
			return nil, fmt.Errorf("descriptions: %w", err)
		}
		out[magic] = desc
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("descriptions: %w", err)
	}
	return out, nil
}

func (s *Store) DeleteDescription(ctx context.Context, account string, magic int64) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM magic_descriptions WHERE account = ? AND magic = ?`, account, magic)
	if err != nil {
		return fmt.Errorf("delete description: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete description: %w: %q/%d", ErrNotFound, account, magic)
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/rustyeddy/dealbook/ledger"
)

// CreateGroup adds an empty group and returns its ID.
func (s *Store) CreateGroup(ctx context.Context, account, name string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO magic_groups (account_id, name) VALUES (?, ?)`, account, name)
	if err != nil {
		return 0, fmt.Errorf("create group: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create group: %w", err)
	}
	s.log.Info("group created",
		zap.String("account", account),
		zap.Int64("group", id),
		zap.String("name", name),
	)
	return id, nil
}

func (s *Store) RenameGroup(ctx context.Context, account string, id int64, name string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE magic_groups SET name = ? WHERE account_id = ? AND id = ?`, name, account, id)
	if err != nil {
		return fmt.Errorf("rename group: %w", err)
	}
	return requireRow(res, "rename group", account, id)
}

// DeleteGroup removes the group and its assignments in one transaction.
func (s *Store) DeleteGroup(ctx context.Context, account string, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM magic_group_assignments WHERE account_id = ? AND group_id = ?`, account, id); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	res, err := tx.ExecContext(ctx, `
		DELETE FROM magic_groups WHERE account_id = ? AND id = ?`, account, id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if err := requireRow(res, "delete group", account, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}

	s.log.Info("group deleted", zap.String("account", account), zap.Int64("group", id))
	return nil
}

// AddToGroup assigns magic to the group. A magic may sit in several groups;
// aggregation then counts it in each of them.
func (s *Store) AddToGroup(ctx context.Context, account string, id, magic int64) error {
	if err := s.groupExists(ctx, account, id); err != nil {
		return fmt.Errorf("add to group: %w", err)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO magic_group_assignments (account_id, group_id, magic)
		VALUES (?, ?, ?)`, account, id, magic)
	if err != nil {
		return fmt.Errorf("add to group: %w", err)
	}
	return nil
}

func (s *Store) RemoveFromGroup(ctx context.Context, account string, id, magic int64) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM magic_group_assignments
		WHERE account_id = ? AND group_id = ? AND magic = ?`, account, id, magic)
	if err != nil {
		return fmt.Errorf("remove from group: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("remove from group: %w: magic %d in group %d", ErrNotFound, magic, id)
	}
	return nil
}

// Groups returns every group of the account with its members, including
// groups that have no magics yet.
func (s *Store) Groups(ctx context.Context, account string) (ledger.Groups, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT g.id, g.name, a.magic
		FROM magic_groups g
		LEFT JOIN magic_group_assignments a
			ON a.account_id = g.account_id AND a.group_id = g.id
		WHERE g.account_id = ?
		ORDER BY g.id ASC, a.magic ASC`, account)
	if err != nil {
		return nil, fmt.Errorf("groups: %w", err)
	}
	defer rows.Close()

	out := make(ledger.Groups)
	for rows.Next() {
		var (
			id    int64
			name  string
			magic sql.NullInt64
		)
		if err := rows.Scan(&id, &name, &magic); err != nil {
			return nil, fmt.Errorf("groups: %w", err)
		}
		g := out[id]
		g.ID, g.Name = id, name
		if magic.Valid {
			g.Magics = append(g.Magics, magic.Int64)
		}
		out[id] = g
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("groups: %w", err)
	}
	return out, nil
}

// MagicGroups returns the groups ready for aggregation: empty groups are
// dropped so they do not appear as zero rows.
func (s *Store) MagicGroups(ctx context.Context, account string) (ledger.Groups, error) {
	all, err := s.Groups(ctx, account)
	if err != nil {
		return nil, err
	}
	for id, g := range all {
		if len(g.Magics) == 0 {
			delete(all, id)
		}
	}
	return all, nil
}

// GroupsByMagic maps each assigned magic to the groups it belongs to.
func (s *Store) GroupsByMagic(ctx context.Context, account string) (map[int64][]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT magic, group_id FROM magic_group_assignments
		WHERE account_id = ?
		ORDER BY magic ASC, group_id ASC`, account)
	if err != nil {
		return nil, fmt.Errorf("groups by magic: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]int64)
	for rows.Next() {
		var magic, group int64
		if err := rows.Scan(&magic, &group); err != nil {
			return nil, fmt.Errorf("groups by magic: %w", err)
		}
		out[magic] = append(out[magic], group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("groups by magic: %w", err)
	}
	return out, nil
}

func (s *Store) groupExists(ctx context.Context, account string, id int64) error {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM magic_groups WHERE account_id = ? AND id = ?`, account, id).Scan(&n)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: group %d of %q", ErrNotFound, id, account)
	}
	return nil
}

func requireRow(res sql.Result, op, account string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w: group %d of %q", op, ErrNotFound, id, account)
	}
	return nil
}

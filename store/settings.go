package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// AccountSettings are the user-editable account attributes. Zero values mean
// "not set".
type AccountSettings struct {
	Title    string `json:"title,omitempty"`
	Leverage int    `json:"leverage,omitempty"`
	Server   string `json:"server,omitempty"`
}

// AccountUpdate is a partial update; nil fields keep their stored value.
type AccountUpdate struct {
	Title    *string
	Leverage *int
	Server   *string
}

func (s *Store) AccountSettings(ctx context.Context, account string) (AccountSettings, error) {
	var (
		title    sql.NullString
		leverage sql.NullInt64
		server   sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT account_title, leverage, server FROM account_settings
		WHERE account_id = ?`, account).Scan(&title, &leverage, &server)
	if errors.Is(err, sql.ErrNoRows) {
		return AccountSettings{}, nil
	}
	if err != nil {
		return AccountSettings{}, fmt.Errorf("account settings: %w", err)
	}
	return AccountSettings{
		Title:    title.String,
		Leverage: int(leverage.Int64),
		Server:   server.String,
	}, nil
}

// UpdateAccountSettings merges u into the stored settings.
func (s *Store) UpdateAccountSettings(ctx context.Context, account string, u AccountUpdate) error {
	cur, err := s.AccountSettings(ctx, account)
	if err != nil {
		return err
	}
	if u.Title != nil {
		cur.Title = *u.Title
	}
	if u.Leverage != nil {
		cur.Leverage = *u.Leverage
	}
	if u.Server != nil {
		cur.Server = *u.Server
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO account_settings (account_id, account_title, leverage, server)
		VALUES (?, ?, ?, ?)`,
		account, nullString(cur.Title), nullInt(cur.Leverage), nullString(cur.Server))
	if err != nil {
		return fmt.Errorf("update account settings: %w", err)
	}
	return nil
}

type ViewMode string

const (
	Individual ViewMode = "individual"
	Grouped    ViewMode = "grouped"
)

func ParseViewMode(s string) (ViewMode, error) {
	switch ViewMode(s) {
	case Individual, Grouped:
		return ViewMode(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidViewMode, s)
}

// ViewMode returns the account's view mode, Individual when unset.
func (s *Store) ViewMode(ctx context.Context, account string) (ViewMode, error) {
	var mode string
	err := s.db.QueryRowContext(ctx, `
		SELECT view_mode FROM view_settings WHERE account_id = ?`, account).Scan(&mode)
	if errors.Is(err, sql.ErrNoRows) {
		return Individual, nil
	}
	if err != nil {
		return "", fmt.Errorf("view mode: %w", err)
	}
	return ViewMode(mode), nil
}

func (s *Store) SetViewMode(ctx context.Context, account string, mode ViewMode) error {
	if _, err := ParseViewMode(string(mode)); err != nil {
		return fmt.Errorf("set view mode: %w", err)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO view_settings (account_id, view_mode) VALUES (?, ?)`,
		account, string(mode))
	if err != nil {
		return fmt.Errorf("set view mode: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n != 0}
}

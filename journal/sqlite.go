package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/rustyeddy/dealbook/deal"
	"github.com/rustyeddy/dealbook/ledger"
)

// SQLiteJournal caches imported deals so reports do not need the terminal.
// Times are stored as terminal Unix seconds.
type SQLiteJournal struct {
	db  *sql.DB
	log *zap.Logger
}

var _ Journal = (*SQLiteJournal)(nil)

func NewSQLite(path string, log *zap.Logger) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	if log == nil {
		log = zap.NewNop()
	}
	return &SQLiteJournal{db: db, log: log.Named("journal")}, nil
}

// RecordDeals upserts deals by deal ID in one transaction.
func (j *SQLiteJournal) RecordDeals(ctx context.Context, deals []deal.Deal) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO deals
		(deal_id, position_id, time, type, entry, symbol, magic, volume, price, profit, commission, swap)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, d := range deals {
		if _, err := stmt.ExecContext(ctx,
			d.ID, d.PositionID, d.Time.Unix(), int(d.Type), int(d.Entry), d.Symbol,
			d.Magic, d.Volume, d.Price, d.Profit, d.Commission, d.Swap,
		); err != nil {
			return fmt.Errorf("record deal %d: %w", d.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	j.log.Debug("deals recorded", zap.Int("count", len(deals)))
	return nil
}

const dealColumns = `deal_id, position_id, time, type, entry, symbol, magic, volume, price, profit, commission, swap`

type scanner interface {
	Scan(dest ...any) error
}

func scanDeal(s scanner) (deal.Deal, error) {
	var (
		d          deal.Deal
		sec        int64
		typ, entry int
	)
	err := s.Scan(&d.ID, &d.PositionID, &sec, &typ, &entry, &d.Symbol,
		&d.Magic, &d.Volume, &d.Price, &d.Profit, &d.Commission, &d.Swap)
	if err != nil {
		return deal.Deal{}, err
	}
	d.Time = deal.Unix(sec)
	d.Type = deal.Type(typ)
	d.Entry = deal.Entry(entry)
	return d, nil
}

// GetDeal returns a single deal by ID.
func (j *SQLiteJournal) GetDeal(ctx context.Context, id int64) (deal.Deal, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+dealColumns+` FROM deals WHERE deal_id = ?`, id)
	d, err := scanDeal(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return deal.Deal{}, fmt.Errorf("get deal: %w: %d", ErrDealNotFound, id)
		}
		return deal.Deal{}, err
	}
	return d, nil
}

// ListDealsBetween returns deals with time in [from, to), ordered by time
// then deal ID. Zero bounds are open.
func (j *SQLiteJournal) ListDealsBetween(ctx context.Context, from, to time.Time) ([]deal.Deal, error) {
	if err := checkWindow(from, to); err != nil {
		return nil, err
	}

	lo, hi := int64(math.MinInt64), int64(math.MaxInt64)
	if !from.IsZero() {
		lo = from.Unix()
	}
	if !to.IsZero() {
		hi = to.Unix()
		if to.Nanosecond() > 0 {
			hi++
		}
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT `+dealColumns+`
		FROM deals
		WHERE time >= ? AND time < ?
		ORDER BY time ASC, deal_id ASC`, lo, hi)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []deal.Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchDeals implements Source. Storage errors surface as ErrFetchFailure.
func (j *SQLiteJournal) FetchDeals(ctx context.Context, from, to time.Time) ([]deal.Deal, error) {
	deals, err := j.ListDealsBetween(ctx, from, to)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidRange) {
			return nil, err
		}
		return nil, fetchFailure("sqlite fetch", err)
	}
	return deals, nil
}

// ReplacePositions swaps the stored open-position snapshot for positions.
func (j *SQLiteJournal) ReplacePositions(ctx context.Context, positions []deal.OpenPosition) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM open_positions`); err != nil {
		return err
	}
	for _, p := range positions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO open_positions
			(ticket, symbol, type, magic, volume, price_open, profit, swap)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.Ticket, p.Symbol, int(p.Type), p.Magic, p.Volume, p.PriceOpen, p.Profit, p.Swap,
		); err != nil {
			return fmt.Errorf("record position %d: %w", p.Ticket, err)
		}
	}
	return tx.Commit()
}

// FetchPositions implements PositionSource.
func (j *SQLiteJournal) FetchPositions(ctx context.Context) ([]deal.OpenPosition, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT ticket, symbol, type, magic, volume, price_open, profit, swap
		FROM open_positions
		ORDER BY ticket ASC`)
	if err != nil {
		return nil, fetchFailure("sqlite positions", err)
	}
	defer rows.Close()

	var out []deal.OpenPosition
	for rows.Next() {
		var (
			p   deal.OpenPosition
			typ int
		)
		if err := rows.Scan(&p.Ticket, &p.Symbol, &typ, &p.Magic,
			&p.Volume, &p.PriceOpen, &p.Profit, &p.Swap); err != nil {
			return nil, fetchFailure("sqlite positions", err)
		}
		p.Type = deal.Type(typ)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fetchFailure("sqlite positions", err)
	}
	return out, nil
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

package cli

import (
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/rustyeddy/dealbook/internal/service"
	"github.com/rustyeddy/dealbook/journal"
	"github.com/rustyeddy/dealbook/ledger"
	"github.com/rustyeddy/dealbook/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// source is a deal source that may need closing.
type source interface {
	journal.Source
	journal.PositionSource
}

func (a *app) openSource() (source, func(), error) {
	switch a.cfg.Source.Type {
	case "csv":
		return &journal.CSVSource{
			DealsPath:     a.cfg.Source.DealsFile,
			PositionsPath: a.cfg.Source.PositionsFile,
		}, func() {}, nil
	case "sqlite":
		j, err := journal.NewSQLite(a.cfg.Source.DBPath, a.log)
		if err != nil {
			return nil, nil, fmt.Errorf("open journal: %w", err)
		}
		return j, func() { _ = j.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown source type %q", a.cfg.Source.Type)
}

func (a *app) openStore() (*store.Store, error) {
	st, err := store.Open(a.cfg.Store.DBPath, a.log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// reports wires a deal source, the label store and a calculator. The
// returned func releases both.
func (a *app) reports(rec ledger.Recorder) (*service.Reports, func(), error) {
	src, closeSrc, err := a.openSource()
	if err != nil {
		return nil, nil, err
	}
	st, err := a.openStore()
	if err != nil {
		closeSrc()
		return nil, nil, err
	}

	calc := ledger.New(
		ledger.WithOffset(a.cfg.Time.Offset()),
		ledger.WithLogger(a.log),
		ledger.WithRecorder(rec),
	)
	r := service.New(a.cfg, src,
		service.WithPositions(src),
		service.WithLabels(st),
		service.WithCalculator(calc),
		service.WithLogger(a.log),
	)
	return r, func() {
		_ = st.Close()
		closeSrc()
	}, nil
}

func (a *app) clock() ledger.Clock {
	return ledger.Clock{Offset: a.cfg.Time.Offset()}
}

func (a *app) account() string {
	return a.cfg.Account.ID
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

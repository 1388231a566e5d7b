package journal

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/dealbook/deal"
)

var DealHeader = []string{
	"ticket", "position_id", "time", "type", "entry", "symbol",
	"magic", "volume", "price", "profit", "commission", "swap",
}

var PositionHeader = []string{
	"ticket", "symbol", "type", "magic", "volume", "price_open", "profit", "swap",
}

// Column aliases seen in terminal exports.
var aliases = map[string]string{
	"deal":     "ticket",
	"deal_id":  "ticket",
	"position": "position_id",
}

// CSVSource reads deals and positions from terminal CSV exports. Files are
// re-read on every fetch.
type CSVSource struct {
	DealsPath     string
	PositionsPath string
}

var (
	_ Source         = (*CSVSource)(nil)
	_ PositionSource = (*CSVSource)(nil)
)

func (s *CSVSource) FetchDeals(ctx context.Context, from, to time.Time) ([]deal.Deal, error) {
	if err := checkWindow(from, to); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.DealsPath)
	if err != nil {
		return nil, fetchFailure("csv fetch", err)
	}
	defer f.Close()

	all, err := ReadDeals(f)
	if err != nil {
		return nil, fetchFailure("csv fetch "+s.DealsPath, err)
	}

	out := all[:0]
	for _, d := range all {
		if inWindow(d.Time, from, to) {
			out = append(out, d)
		}
	}
	return out, nil
}

// FetchPositions returns no positions when PositionsPath is unset.
func (s *CSVSource) FetchPositions(ctx context.Context) ([]deal.OpenPosition, error) {
	if s.PositionsPath == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.PositionsPath)
	if err != nil {
		return nil, fetchFailure("csv positions", err)
	}
	defer f.Close()

	ps, err := ReadPositions(f)
	if err != nil {
		return nil, fetchFailure("csv positions "+s.PositionsPath, err)
	}
	return ps, nil
}

// ReadDeals parses a deal export with a header row. Column order is free;
// unknown columns are ignored.
func ReadDeals(r io.Reader) ([]deal.Deal, error) {
	rows, cols, err := readTable(r, []string{"ticket", "time", "type"})
	if err != nil {
		return nil, err
	}

	out := make([]deal.Deal, 0, len(rows))
	for i, rec := range rows {
		line := i + 2
		get := func(name string) string { return field(rec, cols, name) }

		var d deal.Deal
		p := &rowParser{}
		d.ID = p.parseInt(get("ticket"), "ticket")
		d.PositionID = p.parseInt(get("position_id"), "position_id")
		d.Time = p.parseTime(get("time"))
		d.Magic = p.parseInt(get("magic"), "magic")
		d.Volume = p.parseFloat(get("volume"), "volume")
		d.Price = p.parseFloat(get("price"), "price")
		d.Profit = p.parseFloat(get("profit"), "profit")
		d.Commission = p.parseFloat(get("commission"), "commission")
		d.Swap = p.parseFloat(get("swap"), "swap")
		d.Symbol = get("symbol")
		if p.err == nil {
			d.Type, p.err = deal.ParseType(get("type"))
		}
		if p.err == nil {
			d.Entry, p.err = deal.ParseEntry(get("entry"))
		}
		if p.err != nil {
			return nil, fmt.Errorf("line %d: %w", line, p.err)
		}
		out = append(out, d)
	}
	return out, nil
}

// ReadPositions parses an open-positions export with a header row.
func ReadPositions(r io.Reader) ([]deal.OpenPosition, error) {
	rows, cols, err := readTable(r, []string{"ticket", "type"})
	if err != nil {
		return nil, err
	}

	out := make([]deal.OpenPosition, 0, len(rows))
	for i, rec := range rows {
		line := i + 2
		get := func(name string) string { return field(rec, cols, name) }

		var pos deal.OpenPosition
		p := &rowParser{}
		pos.Ticket = p.parseInt(get("ticket"), "ticket")
		pos.Magic = p.parseInt(get("magic"), "magic")
		pos.Volume = p.parseFloat(get("volume"), "volume")
		pos.PriceOpen = p.parseFloat(get("price_open"), "price_open")
		pos.Profit = p.parseFloat(get("profit"), "profit")
		pos.Swap = p.parseFloat(get("swap"), "swap")
		pos.Symbol = get("symbol")
		if p.err == nil {
			pos.Type, p.err = deal.ParseType(get("type"))
		}
		if p.err != nil {
			return nil, fmt.Errorf("line %d: %w", line, p.err)
		}
		out = append(out, pos)
	}
	return out, nil
}

// WriteDeals writes deals in the layout ReadDeals accepts.
func WriteDeals(w io.Writer, deals []deal.Deal) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(DealHeader); err != nil {
		return err
	}
	for _, d := range deals {
		if err := cw.Write([]string{
			strconv.FormatInt(d.ID, 10),
			strconv.FormatInt(d.PositionID, 10),
			strconv.FormatInt(d.Time.Unix(), 10),
			strconv.Itoa(int(d.Type)),
			strconv.Itoa(int(d.Entry)),
			d.Symbol,
			strconv.FormatInt(d.Magic, 10),
			f(d.Volume),
			f(d.Price),
			f(d.Profit),
			f(d.Commission),
			f(d.Swap),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func readTable(r io.Reader, required []string) ([][]string, map[string]int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, errors.New("missing header row")
		}
		return nil, nil, err
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if a, ok := aliases[name]; ok {
			name = a
		}
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, nil, fmt.Errorf("missing column %q", name)
		}
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	return rows, cols, nil
}

func field(rec []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// rowParser keeps the first conversion error of a row.
type rowParser struct {
	err error
}

func (p *rowParser) parseInt(s, name string) int64 {
	if p.err != nil || s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", name, err)
	}
	return n
}

func (p *rowParser) parseFloat(s, name string) float64 {
	if p.err != nil || s == "" {
		return 0
	}
	x, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", name, err)
	}
	return x
}

var timeLayouts = []string{
	"2006.01.02 15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// parseTime accepts Unix seconds or one of the terminal's text layouts, all read
// as terminal time.
func (p *rowParser) parseTime(s string) time.Time {
	if p.err != nil {
		return time.Time{}
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return deal.Unix(sec)
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC()
		}
	}
	p.err = fmt.Errorf("time: unrecognized value %q", s)
	return time.Time{}
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

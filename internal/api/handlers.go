package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/rustyeddy/dealbook/deal"
	"github.com/rustyeddy/dealbook/internal/service"
	"github.com/rustyeddy/dealbook/ledger"
	"github.com/rustyeddy/dealbook/report"
	"github.com/rustyeddy/dealbook/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) profitQuery(r *http.Request) (service.ProfitQuery, error) {
	q := r.URL.Query()
	pq := service.ProfitQuery{
		Account: mux.Vars(r)["account"],
		Symbol:  q.Get("symbol"),
	}

	var err error
	if pq.Window, err = s.window(q, "today"); err != nil {
		return pq, err
	}
	if v := q.Get("view"); v != "" {
		if pq.View, err = store.ParseViewMode(v); err != nil {
			return pq, fmt.Errorf("%w: %v", errBadParam, err)
		}
	}
	if pq.Sort, err = report.ParseSortOption(q.Get("sort")); err != nil {
		return pq, fmt.Errorf("%w: %v", errBadParam, err)
	}
	return pq, nil
}

// GET /api/{account}/profits?preset=|from=&to=&symbol=&view=&sort=
func (s *Server) profits(w http.ResponseWriter, r *http.Request) {
	pq, err := s.profitQuery(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rep, err := s.deps.Reports.Profits(r.Context(), pq)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		report.Summary
		View store.ViewMode `json:"view"`
	}{rep.Summary, rep.View})
}

// GET /api/{account}/profits/{kind}/{id}/symbols
func (s *Server) symbols(w http.ResponseWriter, r *http.Request) {
	pq, err := s.profitQuery(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: id %q", errBadParam, vars["id"]))
		return
	}
	key := ledger.MagicKey(id)
	if vars["kind"] == "group" {
		key = ledger.GroupKey(id)
	}

	rows, err := s.deps.Reports.Symbols(r.Context(), pq, key)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"key": key.String(), "symbols": rows})
}

type positionView struct {
	PositionID int64          `json:"position_id"`
	Symbol     string         `json:"symbol"`
	Type       deal.Direction `json:"type"`
	Magic      int64          `json:"magic"`
	Volume     float64        `json:"volume"`
	PriceOpen  float64        `json:"price_open"`
	OpenedAt   time.Time      `json:"opened_at"`
}

type periodView struct {
	TimeIn    time.Time      `json:"time_in"`
	TimeOut   time.Time      `json:"time_out"`
	Balance   float64        `json:"balance"`
	Positions []positionView `json:"positions"`
}

func periodViews(periods []ledger.Period) []periodView {
	out := make([]periodView, 0, len(periods))
	for _, p := range periods {
		pv := periodView{
			TimeIn:    p.TimeIn,
			TimeOut:   p.TimeOut,
			Balance:   report.Cents(p.Balance),
			Positions: make([]positionView, 0, len(p.Positions)),
		}
		for _, pos := range p.Positions {
			pv.Positions = append(pv.Positions, positionView{
				PositionID: pos.PositionID,
				Symbol:     pos.Symbol,
				Type:       pos.Direction,
				Magic:      pos.Magic,
				Volume:     pos.Volume,
				PriceOpen:  pos.PriceOpen,
				OpenedAt:   pos.OpenedAt,
			})
		}
		out = append(out, pv)
	}
	return out
}

// GET /api/{account}/timeline?preset=|from=&to=&magics=1,2
func (s *Server) timeline(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	window, err := s.window(q, "today")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if window.From.IsZero() || window.To.IsZero() {
		s.fail(w, r, fmt.Errorf("%w: timeline needs both from and to", errBadParam))
		return
	}
	magics, err := int64List(q.Get("magics"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	periods, err := s.deps.Reports.Timeline(r.Context(), window, magics)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"from":    window.From,
		"to":      window.To,
		"periods": periodViews(periods),
	})
}

// GET /api/{account}/balance?at=&mode=start_of_day|end_of_day|exact
func (s *Server) balance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	at := s.deps.Reports.Now()
	if v := q.Get("at"); v != "" {
		var err error
		if at, err = parseLocal(v); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	mode := ledger.Exact
	if v := q.Get("mode"); v != "" {
		var err error
		if mode, err = ledger.ParseBoundary(v); err != nil {
			s.fail(w, r, fmt.Errorf("%w: %v", errBadParam, err))
			return
		}
	}

	bal, err := s.deps.Reports.Balance(r.Context(), at, mode)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"at":      at,
		"mode":    mode.String(),
		"balance": report.Cents(bal),
	})
}

// GET /api/{account}/hours?preset=|from=&to=
func (s *Server) hours(w http.ResponseWriter, r *http.Request) {
	window, err := s.window(r.URL.Query(), "")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	counts, err := s.deps.Reports.Hours(r.Context(), window)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hours": counts})
}

// GET /api/{account}/floating?sort=&magic=
func (s *Server) floating(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sort, err := report.ParseSortOption(q.Get("sort"))
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: %v", errBadParam, err))
		return
	}
	var magic *int64
	if v := q.Get("magic"); v != "" {
		m, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			s.fail(w, r, fmt.Errorf("%w: magic %q", errBadParam, v))
			return
		}
		magic = &m
	}

	rep, err := s.deps.Reports.Floating(r.Context(), mux.Vars(r)["account"], sort, magic)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

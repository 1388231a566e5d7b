package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/dealbook/config"
	"github.com/rustyeddy/dealbook/journal"
	"github.com/rustyeddy/dealbook/ledger"
)

var errBadParam = errors.New("bad request parameter")

func parseLocal(s string) (time.Time, error) {
	t, err := config.ParseTime(s)
	if err != nil {
		return t, fmt.Errorf("%w: %v", errBadParam, err)
	}
	return t, nil
}

// window resolves preset, from and to. Without any of them it uses def.
func (s *Server) window(q url.Values, def string) (config.Range, error) {
	rng, err := config.Window(q.Get("preset"), q.Get("from"), q.Get("to"), def, s.deps.Reports.Now())
	if err != nil {
		return rng, fmt.Errorf("%w: %v", errBadParam, err)
	}
	return rng, nil
}

// int64List parses "1,2,3".
func int64List(v string) ([]int64, error) {
	if v == "" {
		return nil, nil
	}
	var out []int64
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a magic number", errBadParam, part)
		}
		out = append(out, n)
	}
	return out, nil
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errBadParam), errors.Is(err, ledger.ErrInvalidRange):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, journal.ErrFetchFailure):
		return http.StatusBadGateway, "fetch_failed"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

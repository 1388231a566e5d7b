// Package api serves ledger reports as read-only JSON for a dashboard.
//
// Routes:
//
//	GET /healthz
//	GET /metrics
//	GET /api/{account}/profits
//	GET /api/{account}/profits/{kind}/{id}/symbols
//	GET /api/{account}/timeline
//	GET /api/{account}/balance
//	GET /api/{account}/hours
//	GET /api/{account}/floating
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rustyeddy/dealbook/config"
	"github.com/rustyeddy/dealbook/internal/metrics"
	"github.com/rustyeddy/dealbook/internal/service"
)

// Deps wires the server. Metrics and Gatherer are optional.
type Deps struct {
	Config   *config.Config
	Reports  *service.Reports
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Log      *zap.Logger
}

type Server struct {
	deps   Deps
	log    *zap.Logger
	router *mux.Router
}

var ErrNoReports = errors.New("api: reports service is required")

func NewServer(d Deps) (*Server, error) {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Config == nil {
		d.Config = config.Default()
	}
	if d.Reports == nil {
		return nil, ErrNoReports
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{deps: d, log: d.Log.Named("api")}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.observe)
	r.Use(s.recovery)

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := r.PathPrefix("/api/{account}").Subrouter()
	api.Use(s.refreshHint)
	api.HandleFunc("/profits", s.profits).Methods(http.MethodGet)
	api.HandleFunc("/profits/{kind:magic|group}/{id:[0-9]+}/symbols", s.symbols).Methods(http.MethodGet)
	api.HandleFunc("/timeline", s.timeline).Methods(http.MethodGet)
	api.HandleFunc("/balance", s.balance).Methods(http.MethodGet)
	api.HandleFunc("/hours", s.hours).Methods(http.MethodGet)
	api.HandleFunc("/floating", s.floating).Methods(http.MethodGet)
	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on the configured address until ctx is cancelled,
// then drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.deps.Config.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("server stopped")
	return nil
}

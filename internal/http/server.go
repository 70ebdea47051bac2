// Package http serves the aura ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aura/internal/core"
	"aura/internal/idempotency"
	"aura/internal/log"
	"aura/internal/middleware/ratelimit"
	"aura/internal/middleware/security"
	"aura/internal/middleware/trace"
)

// Ledger is the part of the engine the API needs.
type Ledger interface {
	GetOverview(ctx context.Context, start, end *time.Time) (core.Overview, error)
	GetTimeline(ctx context.Context, start, end time.Time) (core.Timeline, error)
	ListMembersWithStats(ctx context.Context) ([]core.MemberStats, error)
	CreateMember(ctx context.Context, in core.CreateMemberInput) (core.MemberStats, error)
	UpdateMember(ctx context.Context, id uuid.UUID, in core.UpdateMemberInput) (core.MemberStats, error)
	DeleteMember(ctx context.Context, id uuid.UUID) error
	RecordEvent(ctx context.Context, in core.RecordEventInput) (core.EventItem, error)
	Location() *time.Location
	Now() time.Time
	OverviewDays() int
}

// Checker is a dependency probed by /readyz.
type Checker interface {
	Ping(ctx context.Context) error
}

// Options configures NewServer. Ledger is required.
type Options struct {
	Addr               string
	Ledger             Ledger
	Checks             map[string]Checker
	Idempotency        *idempotency.Store
	RateLimitPerMinute int
	TrustedProxies     []string
	Registry           *prometheus.Registry
	Logger             *log.Logger
}

type Server struct {
	http.Server
	ledger   Ledger
	checks   map[string]Checker
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	detector := security.NewDetector(reg)
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}

	s := &Server{
		ledger:   opts.Ledger,
		checks:   opts.Checks,
		logger:   logger,
		detector: detector,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		started:  time.Now(),
	}
	reg.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "aura",
			Subsystem: "rate_limit",
			Name:      "rejected_total",
			Help:      "Mutating requests refused by the rate limiter.",
		}, func() float64 { return float64(s.limiter.Rejected()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "aura",
			Subsystem: "rate_limit",
			Name:      "active_clients",
			Help:      "Clients currently tracked by the rate limiter.",
		}, func() float64 { return float64(s.limiter.ActiveClients()) }),
	)

	tracer := trace.NewMiddleware(detector.ExtractClientIP, trace.NewMetrics(reg), logger)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(log.Middleware(logger))
	r.Use(log.RequestIDMiddleware(func(r *http.Request) string {
		return chimw.GetReqID(r.Context())
	}))
	r.Use(tracer.Handler)
	r.Use(detector.Middleware(logger))
	r.Use(headers.Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewJSONResponse().Status(http.StatusNotFound).
			Body(errorPayload{Error: "Route not found.", Kind: "not_found"}).
			Send(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewJSONResponse().Status(http.StatusMethodNotAllowed).
			Body(errorPayload{Error: "Method not allowed.", Kind: "validation"}).
			Send(w)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware(detector.ExtractClientIP, s.handleRateLimited,
			http.MethodPost, http.MethodPatch, http.MethodDelete))
		if opts.Idempotency != nil {
			r.Use(idempotency.Middleware(opts.Idempotency, logger))
		}

		r.Get("/aura/overview", s.handleOverview)
		r.Get("/aura/timeline", s.handleTimeline)
		r.Post("/aura/events", s.handleRecordEvent)

		r.Route("/members", func(r chi.Router) {
			r.Get("/", s.handleListMembers)
			r.Post("/", s.handleCreateMember)
			r.Patch("/{id}", s.handleUpdateMember)
			r.Delete("/{id}", s.handleDeleteMember)
		})
	})

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// Shutdown stops background goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

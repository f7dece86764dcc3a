package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	applog "spendbook/internal/log"
	"spendbook/internal/middleware/ratelimit"
	"spendbook/internal/middleware/security"
	"spendbook/internal/middleware/trace"
	"spendbook/internal/notify"
	"spendbook/internal/services"
)

// Server serves the expense API over one repository and its list controller.
type Server struct {
	http.Server

	repo       *services.ExpenseRepository
	controller *services.ListController
	feed       *notify.Feed
	notifier   notify.Notifier
	now        func() time.Time
	loc        *time.Location
	logger     *applog.Logger

	limitConfig ratelimit.Config
	limiter     *ratelimit.Limiter
	detector    *security.Detector
	tracer      *trace.Middleware

	shutdownOnce sync.Once
}

type Option func(*Server)

// WithClock sets the clock used for default dates and the analysis window.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the time zone dates and windows are evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(s *Server) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithLogger(logger *applog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger.WithComponent(applog.ComponentHTTP)
		}
	}
}

// WithFeed exposes the notification feed at /notifications.
func WithFeed(feed *notify.Feed) Option {
	return func(s *Server) { s.feed = feed }
}

// WithNotifier receives validation failures.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Server) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithRateLimit(cfg ratelimit.Config) Option {
	return func(s *Server) { s.limitConfig = cfg }
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, repo *services.ExpenseRepository, controller *services.ListController, opts ...Option) *Server {
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		repo:        repo,
		controller:  controller,
		notifier:    notify.Nop,
		now:         time.Now,
		loc:         time.Local,
		logger:      applog.Default(applog.ComponentHTTP),
		limitConfig: ratelimit.DefaultConfig(),
		detector:    security.NewDetector(),
		tracer:      trace.NewMiddleware(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.limiter = ratelimit.NewLimiter(s.limitConfig)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /expenses", s.handleListExpenses)
	mux.HandleFunc("POST /expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("PATCH /expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /expenses/{id}", s.handleDeleteExpense)
	mux.HandleFunc("POST /expenses/{id}/swipe", s.handleSwipe)

	mux.HandleFunc("GET /undo", s.handleUndoState)
	mux.HandleFunc("POST /undo", s.handleUndo)

	mux.HandleFunc("GET /analysis", s.handleAnalysis)

	mux.HandleFunc("GET /notifications", s.handleNotifications)
	mux.HandleFunc("DELETE /notifications/{id}", s.handleDismissNotification)

	s.Handler = s.middleware(mux)
	return s
}

// middleware wraps h, outermost first: request id, request logger, access
// log, security headers, probe detection, rate limiting.
func (s *Server) middleware(h http.Handler) http.Handler {
	chain := []func(http.Handler) http.Handler{
		s.tracer.Middleware,
		applog.Middleware(s.logger),
		applog.RequestIDMiddleware(trace.FromRequest),
		applog.AccessLogMiddleware(s.detector.ExtractClientIP),
		security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware,
		s.detector.Middleware,
		s.limiter.Middleware(s.limitConfig, s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
			writeError(w, r, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
		}),
	}
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	return h
}

// Shutdown drains the HTTP server and stops the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil || s.controller == nil {
		writeError(w, r, http.StatusServiceUnavailable, "not ready")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) clock() time.Time {
	return s.now().In(s.loc)
}

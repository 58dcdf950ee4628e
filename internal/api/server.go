package api

import (
	"context"
	"errors"
	"iter"
	"log"
	"net/http"
	"time"

	"pkg.jsn.cam/foodjournal/internal/store"
	"pkg.jsn.cam/foodjournal/pkg/journal"
)

// Store is the storage surface the HTTP layer needs.
type Store interface {
	GetUser(ctx context.Context, userID string) (journal.User, error)
	PutUser(ctx context.Context, userID string, user journal.User) error
	ListUsers(ctx context.Context) iter.Seq2[journal.UserRecord, error]
	AppendJournalEntry(ctx context.Context, userID string, entry journal.JournalEntry) (string, error)
	ListJournalEntries(ctx context.Context, userID string) iter.Seq2[journal.EntryRecord, error]
	AdvanceDay(ctx context.Context, userID string) (string, error)
	Stats(ctx context.Context) (store.Stats, error)
}

// Config configures the HTTP server.
type Config struct {
	UserHeader     string
	RequestTimeout time.Duration
	Now            func() time.Time // defaults to time.Now
}

// Server wraps the store and HTTP mux.
type Server struct {
	store      Store
	mux        *http.ServeMux
	handler    http.Handler
	userHeader string
	now        func() time.Time
}

// NewServer creates a new journal server
func NewServer(st Store, cfg Config) *Server {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	s := &Server{
		store:      st,
		mux:        http.NewServeMux(),
		userHeader: cfg.UserHeader,
		now:        now,
	}
	s.setupRoutes()
	s.handler = withRequestScope(s.mux, timeout)
	return s
}

func (s *Server) setupRoutes() {
	// Users
	s.mux.HandleFunc("GET /v1/users", wrap(s.handleListUsers))
	s.mux.HandleFunc("POST /v1/register", wrap(s.handleRegister))
	s.mux.HandleFunc("POST /v1/end-day", wrap(s.handleEndDay))

	// Journal
	s.mux.HandleFunc("GET /v1/journal", wrap(s.handleGetJournal))
	s.mux.HandleFunc("POST /v1/journal", wrap(s.handlePostJournal))

	// Management
	s.mux.HandleFunc("GET /v1/stats", wrap(s.handleStats))
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

// Handler returns the root handler, including request scoping.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[API] Starting journal server on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Printf("[API] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

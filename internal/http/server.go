// Package http exposes the JSON API.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"finanzas/internal/auth"
	"finanzas/internal/cache"
	"finanzas/internal/categories"
	applog "finanzas/internal/log"
	"finanzas/internal/services"
)

// Options bundles the tunables NewServer needs beyond its collaborators.
type Options struct {
	Addr               string
	RateLimitPerMinute int
	SummaryCacheSize   int
	SummaryCacheTTL    time.Duration
	Logger             *applog.Logger
}

type Server struct {
	http.Server

	auth        *auth.Service
	ledger      *services.LedgerService
	processor   *services.RecurrenceProcessor
	incomeCats  *categories.Registry
	expenseCats *categories.Registry

	rateLimiter *rateLimiter

	// Per-user summary views, invalidated on every mutation.
	summaryCache *cache.LRUCache[services.SummaryView]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

func NewServer(opts Options, authSvc *auth.Service, ledger *services.LedgerService, processor *services.RecurrenceProcessor, incomeCats, expenseCats *categories.Registry) *Server {
	mux := http.NewServeMux()

	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	httpLogger := logger.WithComponent(applog.ComponentHTTP)

	s := &Server{
		Server: http.Server{
			Addr:    opts.Addr,
			Handler: applog.Middleware(httpLogger)(mux),
		},
		auth:         authSvc,
		ledger:       ledger,
		processor:    processor,
		incomeCats:   incomeCats,
		expenseCats:  expenseCats,
		rateLimiter:  newRateLimiter(opts.RateLimitPerMinute),
		summaryCache: cache.NewLRUCache[services.SummaryView](opts.SummaryCacheSize, opts.SummaryCacheTTL),
		cacheManager: cache.NewManager(),
	}
	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/auth/register", s.withMiddleware(s.handleRegister))
	mux.HandleFunc("POST /api/auth/login", s.withMiddleware(s.handleLogin))
	mux.HandleFunc("POST /api/auth/logout", s.withMiddleware(s.requireAuth(s.handleLogout)))

	mux.HandleFunc("GET /api/incomes", s.withMiddleware(s.requireAuth(s.handleListTransactions)))
	mux.HandleFunc("POST /api/incomes", s.withMiddleware(s.requireAuth(s.handleCreateTransaction)))
	mux.HandleFunc("DELETE /api/incomes/{id}", s.withMiddleware(s.requireAuth(s.handleDeleteTransaction)))
	mux.HandleFunc("GET /api/expenses", s.withMiddleware(s.requireAuth(s.handleListTransactions)))
	mux.HandleFunc("POST /api/expenses", s.withMiddleware(s.requireAuth(s.handleCreateTransaction)))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.withMiddleware(s.requireAuth(s.handleDeleteTransaction)))

	mux.HandleFunc("GET /api/recurring/incomes", s.withMiddleware(s.requireAuth(s.handleListTemplates)))
	mux.HandleFunc("POST /api/recurring/incomes", s.withMiddleware(s.requireAuth(s.handleCreateTemplate)))
	mux.HandleFunc("DELETE /api/recurring/incomes/{id}", s.withMiddleware(s.requireAuth(s.handleDeleteTemplate)))
	mux.HandleFunc("GET /api/recurring/expenses", s.withMiddleware(s.requireAuth(s.handleListTemplates)))
	mux.HandleFunc("POST /api/recurring/expenses", s.withMiddleware(s.requireAuth(s.handleCreateTemplate)))
	mux.HandleFunc("DELETE /api/recurring/expenses/{id}", s.withMiddleware(s.requireAuth(s.handleDeleteTemplate)))
	mux.HandleFunc("POST /api/recurring/materialize", s.withMiddleware(s.requireAuth(s.handleMaterialize)))

	mux.HandleFunc("GET /api/categories", s.withMiddleware(s.requireAuth(s.handleListCategories)))
	mux.HandleFunc("POST /api/categories", s.withMiddleware(s.requireAuth(s.handleCreateCategory)))
	mux.HandleFunc("DELETE /api/categories/{value}", s.withMiddleware(s.requireAuth(s.handleDeleteCategory)))

	mux.HandleFunc("GET /api/budgets", s.withMiddleware(s.requireAuth(s.handleGetBudgets)))
	mux.HandleFunc("PUT /api/budgets/{category}", s.withMiddleware(s.requireAuth(s.handleSetBudget)))

	mux.HandleFunc("GET /api/summary", s.withMiddleware(s.requireAuth(s.handleSummary)))

	return s
}

// Shutdown stops the HTTP server and the background cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// invalidateSummary drops the cached summary after any write that could
// change it.
func (s *Server) invalidateSummary(userID string) {
	s.summaryCache.Delete(userID)
}

// withMiddleware adds security headers, rate limiting and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDContextKey, requestID)
		r = r.WithContext(ctx)
		logger := applog.FromContext(ctx)

		// Rate limit mutating requests only.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			logger.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		logger.InfoContext(ctx, "Request completed",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds(),
			applog.FieldClientIP, clientIP)
	}
}

type contextKey string

const (
	requestIDContextKey contextKey = "request_id"
	principalContextKey contextKey = "principal"
)

// requireAuth resolves the bearer token and injects the principal into the
// request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.auth.Authenticate(r.Context(), bearerToken(r))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		ctx := context.WithValue(r.Context(), principalContextKey, p)
		next(w, r.WithContext(ctx))
	}
}

func principalFrom(r *http.Request) auth.Principal {
	p, _ := r.Context().Value(principalContextKey).(auth.Principal)
	return p
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

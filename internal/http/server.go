// Package http is the JSON API of the organizer. Handlers stay thin:
// parse, delegate to a service, translate the error, encode.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"hogar/internal/cache"
	"hogar/internal/core"
	applog "hogar/internal/log"
	"hogar/internal/recognition"
	"hogar/internal/services"
)

// Service interfaces consumed by the handlers. The concrete services in
// internal/services satisfy them; tests plug in stubs.
type (
	FinanceAPI interface {
		CreateRecord(ctx context.Context, rec core.Record) (core.Record, error)
		MonthSummary(ctx context.Context, household string, w core.MonthWindow) (core.MonthSummary, error)
		PurchaseHistory(ctx context.Context, household string, today core.Date) (services.HistoryTotals, error)
		SetMonthlyBudget(ctx context.Context, household string, w core.MonthWindow, budget core.Amount) error
		MonthlyBudget(ctx context.Context, household string, w core.MonthWindow) (core.Amount, error)
	}

	CatalogAPI interface {
		RecordUsage(ctx context.Context, household, name, category string, lastAmount *core.Amount) (core.FrequencyEntry, error)
		TopEntries(ctx context.Context, household string, limit int) ([]core.FrequencyEntry, error)
	}

	ShoppingAPI interface {
		AddItem(ctx context.Context, item core.ShoppingItem) (core.ShoppingItem, error)
		ListItems(ctx context.Context, household string) ([]core.ShoppingItem, error)
		MarkComprado(ctx context.Context, id int64, price *core.Amount, day core.Date) (core.ShoppingItem, error)
	}
)

type Server struct {
	http.Server
	finance    FinanceAPI
	catalog    CatalogAPI
	shopping   ShoppingAPI
	extractor  recognition.PriceExtractor
	thresholds core.BudgetThresholds

	rateLimiter *rateLimiter

	// Fresh summaries are cheap to re-serve between writes; the stale
	// tier keeps the last good view around so a storage hiccup degrades
	// to slightly old numbers instead of an error page.
	summaryCache *cache.LRUCache[core.MonthSummary]
	summaryStale *cache.LRUCache[core.MonthSummary]

	shutdownOnce sync.Once
}

// Options carries the tunables NewServer needs beyond the services.
type Options struct {
	Addr       string
	Thresholds core.BudgetThresholds
	// Extractor may be nil; /api/recognize then always answers not found.
	Extractor recognition.PriceExtractor
}

func NewServer(opts Options, finance FinanceAPI, catalog CatalogAPI, shopping ShoppingAPI) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    opts.Addr,
			Handler: mux,
		},
		finance:      finance,
		catalog:      catalog,
		shopping:     shopping,
		extractor:    opts.Extractor,
		thresholds:   opts.Thresholds,
		rateLimiter:  newRateLimiter(),
		summaryCache: cache.NewLRUCache[core.MonthSummary](100, 5*time.Minute),
		summaryStale: cache.NewLRUCache[core.MonthSummary](100, 24*time.Hour),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/api/records", s.withMiddleware(s.handleRecords))
	mux.HandleFunc("/api/summary", s.withMiddleware(s.handleSummary))
	mux.HandleFunc("/api/history", s.withMiddleware(s.handleHistory))
	mux.HandleFunc("/api/catalog", s.withMiddleware(s.handleCatalog))
	mux.HandleFunc("/api/catalog/quick", s.withMiddleware(s.handleCatalogQuick))
	mux.HandleFunc("/api/catalog/usage", s.withMiddleware(s.handleCatalogUsage))
	mux.HandleFunc("/api/shopping", s.withMiddleware(s.handleShopping))
	mux.HandleFunc("/api/shopping/comprado", s.withMiddleware(s.handleShoppingComprado))
	mux.HandleFunc("/api/budget", s.withMiddleware(s.handleBudget))
	mux.HandleFunc("/api/recognize", s.withMiddleware(s.handleRecognize))

	return s
}

// Shutdown stops the server and the rate limiter cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds request logging, security headers and a per-IP
// rate limit on mutating methods.
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

		requestID := uuid.NewString()
		logger := applog.FromContext(r.Context()).With(applog.FieldRequestID, requestID)
		ctx := context.WithValue(r.Context(), applog.LoggerContextKey, logger)
		r = r.WithContext(ctx)
		w.Header().Set("X-Request-ID", requestID)

		logger.InfoContext(ctx, "Request started",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP)

		if (r.Method == http.MethodPost || r.Method == http.MethodPut) && !s.rateLimiter.allow(clientIP) {
			logger.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		logger.InfoContext(ctx, "Request completed",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds(),
			applog.FieldClientIP, clientIP)
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Simple in-memory rate limiter
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{lastRequest: now, requests: 1}
		return true
	}

	// Counter resets after a minute of quiet.
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	client.requests++
	client.lastRequest = now

	return client.requests <= 60
}

func (s *Server) summaryKey(household string, w core.MonthWindow) string {
	return household + ":" + w.String()
}

// invalidateSummaries drops every cached window of one household after a
// write.
func (s *Server) invalidateSummaries(household string) {
	s.summaryCache.DeletePrefix(household + ":")
}

// cachedSummary serves from the fresh tier, recomputes on miss and falls
// back to the stale tier when the recompute fails.
func (s *Server) cachedSummary(ctx context.Context, household string, w core.MonthWindow) (core.MonthSummary, error) {
	key := s.summaryKey(household, w)

	if summary, ok := s.summaryCache.Get(key); ok {
		return summary, nil
	}

	summary, err := s.finance.MonthSummary(ctx, household, w)
	if err != nil {
		if stale, ok := s.summaryStale.Get(key); ok {
			slog.WarnContext(ctx, "Serving stale month summary",
				applog.FieldHousehold, household,
				applog.FieldWindow, w.String(),
				applog.FieldError, err.Error())
			return stale, nil
		}
		return core.MonthSummary{}, err
	}

	s.summaryCache.Set(key, summary)
	s.summaryStale.Set(key, summary)
	return summary, nil
}

package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"bilancio/internal/cache"
	"bilancio/internal/core"
	applog "bilancio/internal/log"
	"bilancio/internal/middleware/ratelimit"
	"bilancio/internal/middleware/security"
	"bilancio/internal/middleware/trace"
	"bilancio/internal/services"
	appweb "bilancio/web"
)

// Ledger is the behaviour the handlers need from the ledger service.
type Ledger interface {
	Now() time.Time
	List(ctx context.Context, q string) (core.Collection, error)
	Summary(ctx context.Context, q string) (core.Summary, error)
	Trend(ctx context.Context) (core.Series, error)
	Add(ctx context.Context, desc, amount, date string) (core.Transaction, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	Import(ctx context.Context, filename string, content []byte, policy core.ImportPolicy) (services.ImportResult, error)
	Export(ctx context.Context, format services.ExportFormat) (services.ExportFile, error)
	Ping(ctx context.Context) error
	Version(ctx context.Context) (string, error)
}

// Config tunes the server's middleware.
type Config struct {
	Addr         string
	RateLimitRPM int
	CacheTTL     time.Duration
	CacheSize    int
}

// appMetrics tracks application-specific counters
type appMetrics struct {
	mutations int64
	imports   int64
	exports   int64
	uptime    time.Time
}

type Server struct {
	http.Server
	templates *template.Template
	ledger    Ledger
	logger    *applog.Logger

	// Derived views keyed by generation and stored version, so neither a
	// load racing a mutation nor a write from another process is served stale.
	generation   atomic.Int64
	summaryCache *cache.LRUCache[core.Summary]
	trendCache   *cache.LRUCache[core.Series]
	cacheManager *cache.Manager

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(cfg Config, ledger Ledger, logger *applog.Logger) *Server {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 100
	}
	rlConfig := ratelimit.DefaultConfig()
	if cfg.RateLimitRPM > 0 {
		rlConfig.RequestsPerMinute = cfg.RateLimitRPM
		rlConfig.Burst = 0
	}

	s := &Server{
		ledger:           ledger,
		logger:           logger.WithComponent(applog.ComponentHTTP),
		summaryCache:     cache.NewLRUCache[core.Summary](cfg.CacheSize, cfg.CacheTTL),
		trendCache:       cache.NewLRUCache[core.Series](8, cfg.CacheTTL),
		cacheManager:     cache.NewManager(),
		rateLimiter:      ratelimit.NewLimiter(rlConfig),
		securityDetector: security.NewDetector(),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}
	s.traceMiddleware = trace.NewMiddleware(logger, s.securityDetector.ExtractClientIP)

	s.cacheManager.Register("summary", s.summaryCache)
	s.cacheManager.Register("trend", s.trendCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", applog.FieldError, err)
	} else {
		s.templates = t
	}

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/ui/transactions", s.handleTransactionsPartial)
	mux.HandleFunc("/api/trend", s.handleTrend)
	mux.HandleFunc("/transactions", s.handleAddTransaction)
	mux.HandleFunc("/transactions/clear", s.handleClear)
	mux.HandleFunc("/transactions/", s.handleDeleteTransaction)
	mux.HandleFunc("/import", s.handleImport)
	mux.Handle("/export/", security.NoStore(http.HandlerFunc(s.handleExport)))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
	})

	var handler http.Handler = mux
	handler = limit(handler)
	handler = s.securityDetector.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = applog.RequestIDMiddleware(trace.RequestIDFromRequest)(handler)
	handler = applog.Middleware(logger)(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops background routines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// invalidate drops every derived view after a mutation.
func (s *Server) invalidate() {
	s.generation.Add(1)
	s.summaryCache.Purge()
	s.trendCache.Purge()
	atomic.AddInt64(&s.appMetrics.mutations, 1)
}

// cacheKey prefixes parts with the local generation and the stored
// collection's version, so writes made by another process through the
// same store also miss.
func (s *Server) cacheKey(ctx context.Context, parts ...string) (string, error) {
	gen := itoa(s.generation.Load())
	version, err := s.ledger.Version(ctx)
	if err != nil {
		return "", err
	}
	return strings.Join(append([]string{gen, version}, parts...), "|"), nil
}

func (s *Server) getSummary(ctx context.Context, q string) (core.Summary, error) {
	key, err := s.cacheKey(ctx, "summary", strings.ToLower(strings.TrimSpace(q)))
	if err != nil {
		return core.Summary{}, err
	}
	return s.summaryCache.GetOrLoad(key, func() (core.Summary, error) {
		return s.ledger.Summary(ctx, q)
	})
}

// getTrend caches per calendar day, since the window moves with the clock.
func (s *Server) getTrend(ctx context.Context) (core.Series, error) {
	key, err := s.cacheKey(ctx, "trend", core.Today(s.ledger.Now()))
	if err != nil {
		return core.Series{}, err
	}
	return s.trendCache.GetOrLoad(key, func() (core.Series, error) {
		return s.ledger.Trend(ctx)
	})
}

package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"finapp/internal/core"
	"finapp/internal/log"
	"finapp/internal/metrics"
	"finapp/internal/middleware/ratelimit"
	"finapp/internal/middleware/security"
	"finapp/internal/middleware/trace"
	"finapp/internal/ports"
	"finapp/internal/services"
)

const readyTimeout = 2 * time.Second

// Deps are the services the API exposes.
type Deps struct {
	Ledger    *services.LedgerService
	Reports   *services.ReportService
	Budgets   *services.BudgetService
	Portfolio *services.PortfolioService
	Taxonomy  ports.TaxonomyReader
	Metrics   *metrics.Metrics
	Logger    *log.Logger

	// ResetNotice is reported once, on the first wallet listing, when the
	// store was recreated at startup.
	ResetNotice bool
	// RequestsPerMinute per client on /api routes. Zero means the limiter default.
	RequestsPerMinute int
	// Location interprets dates without a zone. Defaults to time.Local.
	Location *time.Location
}

type Server struct {
	http.Server
	deps     Deps
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	resetNotice  atomic.Bool
	started      time.Time
	now          func() time.Time
	shutdownOnce sync.Once
}

func NewServer(addr string, d Deps) *Server {
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	if d.Logger == nil {
		d.Logger = log.Discard()
	}
	if d.Location == nil {
		d.Location = time.Local
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		deps:     d,
		logger:   d.Logger.WithComponent(log.ComponentHTTP),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: d.RequestsPerMinute}),
		detector: security.NewDetector(d.Logger),
		started:  time.Now(),
		now:      time.Now,
	}
	s.resetNotice.Store(d.ResetNotice)
	s.tracer = trace.NewMiddleware(d.Logger, s.detector.ExtractClientIP, d.Metrics.ObserveHTTP)
	s.Handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.deps.Metrics.Handler())

	mux.HandleFunc("GET /api/wallets", s.handleListWallets)
	mux.HandleFunc("POST /api/wallets", s.handleAddWallet)
	mux.HandleFunc("PATCH /api/wallets/{id}", s.handleUpdateWallet)
	mux.HandleFunc("DELETE /api/wallets/{id}", s.handleDeleteWallet)
	mux.HandleFunc("GET /api/wallets/{id}/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/wallets/{id}/transactions", s.handleRecordTransaction)
	mux.HandleFunc("PUT /api/wallets/{id}/transactions/{txID}", s.handleEditTransaction)
	mux.HandleFunc("DELETE /api/wallets/{id}/transactions/{txID}", s.handleDeleteTransaction)
	mux.HandleFunc("GET /api/categories", s.handleCategories)

	mux.HandleFunc("GET /api/reports/overview", s.handleOverview)
	mux.HandleFunc("GET /api/reports/trend", s.handleTrend)
	mux.HandleFunc("GET /api/reports/month", s.handleMonth)
	mux.HandleFunc("GET /api/reports/dashboard", s.handleDashboard)

	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("POST /api/budgets", s.handleAddBudget)
	mux.HandleFunc("DELETE /api/budgets/{id}", s.handleDeleteBudget)
	mux.HandleFunc("GET /api/budgets/report", s.handleBudgetReport)
	mux.HandleFunc("GET /api/saving-goal", s.handleGetSavingGoal)
	mux.HandleFunc("PUT /api/saving-goal", s.handleSetSavingGoal)

	mux.HandleFunc("GET /api/portfolio", s.handlePortfolio)
	mux.HandleFunc("GET /api/portfolio/crypto", s.handleListCrypto)
	mux.HandleFunc("POST /api/portfolio/crypto", s.handleAddCrypto)
	mux.HandleFunc("DELETE /api/portfolio/crypto/{id}", s.handleDeleteCrypto)
	mux.HandleFunc("GET /api/portfolio/stocks", s.handleListStocks)
	mux.HandleFunc("POST /api/portfolio/stocks", s.handleAddStock)
	mux.HandleFunc("DELETE /api/portfolio/stocks/{id}", s.handleDeleteStock)

	// Probes and metrics are never rate limited.
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, _ *http.Request) {
		TooManyRequestsError().Write(w)
	})(mux)
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			limited.ServeHTTP(w, r)
			return
		}
		mux.ServeHTTP(w, r)
	})

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	return s.tracer.Middleware(s.detector.Middleware(headers.Middleware(api)))
}

// Shutdown stops background work and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// ListenAndServe treats a graceful shutdown as a clean exit.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server listening", "addr", s.Addr)
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]interface{}{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady checks the store answers and the ledger is loaded.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := "ready"
	code := http.StatusOK
	checks := make(map[string]interface{})

	if s.deps.Taxonomy == nil {
		checks["store"] = "not_configured"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else if _, err := s.deps.Taxonomy.Categories(ctx, core.Expense); err != nil {
		checks["store"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	if s.deps.Ledger == nil || !s.deps.Ledger.Loaded() {
		checks["ledger"] = "not_loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["ledger"] = "ok"
	}

	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.limiter.ActiveClients(),
		"rejected":       s.limiter.Rejected(),
	}

	NewResponse().Status(code).JSON(map[string]interface{}{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// Package http serves the spendly JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"spendly/internal/auth"
	"spendly/internal/cache"
	"spendly/internal/log"
	"spendly/internal/middleware/ratelimit"
	"spendly/internal/middleware/security"
	"spendly/internal/middleware/trace"
	"spendly/internal/services"
	"spendly/internal/summary"
)

// Pinger is a dependency readiness can be checked against.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services behind the handlers. Broker and Dashboards may be nil.
type Deps struct {
	Users      *auth.Service
	Records    *services.RecordService
	Budgets    *services.BudgetService
	Store      Pinger
	Broker     Pinger
	Dashboards *cache.LRUCache[summary.Dashboard]
}

type Options struct {
	Logger             *log.Logger
	AllowedOrigins     []string
	RateLimitPerMinute int
	// BlockSuspicious rejects requests the detector flags instead of only logging them.
	BlockSuspicious bool
}

type Server struct {
	http.Server

	logger  *log.Logger
	users   *auth.Service
	records *services.RecordService
	budgets *services.BudgetService
	store   Pinger
	broker  Pinger

	dashboards   *cache.LRUCache[summary.Dashboard]
	cacheManager *cache.Manager

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

type appMetrics struct {
	recordsCreated int64
	usersCreated   int64
	uptime         time.Time
}

// NewServer wires the router and middleware and returns a server ready for
// ListenAndServe.
func NewServer(addr string, deps Deps, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger:           logger,
		users:            deps.Users,
		records:          deps.Records,
		budgets:          deps.Budgets,
		store:            deps.Store,
		broker:           deps.Broker,
		dashboards:       deps.Dashboards,
		cacheManager:     cache.NewManager(),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		securityDetector: security.NewDetector(),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP, log.NewStructuredLogger(logger))

	if s.dashboards != nil {
		s.cacheManager.Register(s.dashboards)
		s.cacheManager.StartCleanup(time.Minute)
	}

	s.Handler = s.routes(opts)
	return s
}

func (s *Server) routes(opts Options) http.Handler {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(s.traceMiddleware.Middleware)
	r.Use(log.Middleware(s.logger))
	r.Use(log.RequestIDMiddleware(trace.RequestIDFromRequest))
	r.Use(middleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", trace.HeaderRequestID},
		ExposedHeaders: []string{trace.HeaderRequestID, "Retry-After"},
		MaxAge:         300,
	}))
	r.Use(s.securityDetector.Middleware(opts.BlockSuspicious))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	r.Route("/api/user", func(r chi.Router) {
		r.Use(s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.handleRateLimited))

		r.Post("/registerUser", s.handleRegister)
		r.Post("/loginUser", s.handleLogin)
		r.Get("/getUsers", s.handleGetUsers)

		r.Get("/categories", s.handleCategories)
		r.Get("/getRecords/{email}", s.handleGetRecords)
		r.Post("/addRecord", s.handleAddRecord)
		r.Put("/updateRecord/{id}", s.handleUpdateRecord)
		// notes may be empty, which leaves a trailing slash or drops the segment
		r.Delete("/deleteRecord/{email}/{date}/{category}/{amount}/{notes}", s.handleDeleteRecord)
		r.Delete("/deleteRecord/{email}/{date}/{category}/{amount}/", s.handleDeleteRecord)
		r.Delete("/deleteRecord/{email}/{date}/{category}/{amount}", s.handleDeleteRecord)
		r.Get("/records/{email}", s.handleFilteredRecords)
		r.Delete("/records/{email}/{id}", s.handleDeleteRecordByID)
		r.Get("/dashboard/{email}", s.handleDashboard)

		r.Post("/setBudget", s.handleSetBudget)
		r.Put("/updateBudget", s.handleUpdateBudget)
		r.Get("/getBudget/{email}", s.handleGetBudget)
		r.Get("/budgetStatus/{email}", s.handleBudgetStatus)
	})

	return r
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeMessage(w, http.StatusTooManyRequests, msgRateLimited)
}

// Shutdown stops background routines and drains the HTTP server. Only the
// first call has an effect.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

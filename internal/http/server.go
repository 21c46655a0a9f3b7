package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	"mindful/internal/log"
	"mindful/internal/middleware/ratelimit"
	"mindful/internal/middleware/security"
	"mindful/internal/middleware/trace"
	"mindful/internal/services"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Sizer reports the number of entries held by a cache.
type Sizer interface {
	Size() int
}

// Dependencies are the services the API is built on.
type Dependencies struct {
	Periods      *services.PeriodService
	Spends       *services.SpendService
	Recurring    *services.RecurringService
	Health       Pinger
	SummaryCache Sizer
	Logger       *log.Logger
}

// Options tunes the HTTP surface.
type Options struct {
	RateLimitPerMinute int
}

// Server is the JSON API over the spending services.
type Server struct {
	http.Server
	periods   *services.PeriodService
	spends    *services.SpendService
	recurring *services.RecurringService
	health    Pinger
	summaries Sizer
	limiter   *ratelimit.Limiter
	tracer    *trace.Middleware
	detector  *security.Detector
	startedAt time.Time
	now       func() time.Time
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Dependencies, opts Options) *Server {
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		periods:   deps.Periods,
		spends:    deps.Spends,
		recurring: deps.Recurring,
		health:    deps.Health,
		summaries: deps.SummaryCache,
		detector:  security.NewDetector(),
		startedAt: time.Now(),
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		tracer:    trace.NewMiddleware(deps.Logger),
		now:       time.Now,
	}
	s.Handler = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	if err := r.SetTrustedProxies(security.TrustedProxies); err != nil {
		slog.Warn("Failed to set trusted proxies", log.FieldComponent, log.ComponentHTTP, log.FieldError, err)
	}

	r.Use(
		gin.Recovery(),
		requestid.New(),
		s.tracer.Handler(),
		security.Headers(security.DefaultHeadersConfig()),
		s.detector.Middleware(),
	)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorResponse{Errors: []string{"route not found"}})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, errorResponse{Errors: []string{"method not allowed"}})
	})

	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", s.handleMetrics)

	v1 := r.Group("/api/v1", s.limiter.Middleware())
	{
		v1.POST("/accounts/:accountID/periods", s.handleCreatePeriod)
		v1.GET("/accounts/:accountID/periods", s.handleListPeriods)
		v1.POST("/accounts/:accountID/recurring-spends", s.handleCreateRecurringSpend)
		v1.GET("/accounts/:accountID/recurring-spends", s.handleListRecurringSpends)

		v1.GET("/periods/:id", s.handleGetPeriod)
		v1.PATCH("/periods/:id", s.handleUpdatePeriod)
		v1.POST("/periods/:id/close", s.handleClosePeriod)
		v1.GET("/periods/:id/wallets", s.handleListWallets)
		v1.GET("/periods/:id/summary", s.handlePeriodSummary)
		v1.GET("/periods/:id/spends", s.handleListSpends)
		v1.POST("/periods/:id/spends", s.handleRecordSpend)

		v1.POST("/wallet-setups/validate", s.handleValidateWalletSetup)

		v1.GET("/recurring-spends/:id", s.handleGetRecurringSpend)
		v1.PUT("/recurring-spends/:id/active", s.handleSetRecurringSpendActive)
		v1.GET("/recurring-spends/:id/occurrences", s.handleRecurringOccurrences)
	}

	return r
}

// Shutdown stops accepting requests and releases the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.health != nil {
		if err := s.health.Ping(c.Request.Context()); err != nil {
			slog.ErrorContext(c.Request.Context(), "Health check failed",
				log.FieldComponent, log.ComponentHTTP,
				log.FieldError, err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

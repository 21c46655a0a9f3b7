package trace

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	"mindful/internal/log"
)

// Middleware handles request tracing and logging
type Middleware struct {
	logger  *log.Logger
	metrics *Metrics
}

// Metrics tracks request metrics
type Metrics struct {
	TotalRequests    int64
	LastResponseTime int64 // in microseconds
}

// NewMiddleware creates a trace middleware logging through logger, or the default logger when nil.
func NewMiddleware(logger *log.Logger) *Middleware {
	if logger == nil {
		logger = log.New(log.Config{Handler: slog.Default().Handler()})
	}
	return &Middleware{
		logger:  logger.WithComponent(log.ComponentHTTP),
		metrics: &Metrics{},
	}
}

// Handler logs each request with the id assigned by requestid.New, which must run first.
// The request context carries the id, method and path, so any record logged with it
// through a handler built by log.New includes them.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		ctx := log.WithAttrs(c.Request.Context(),
			log.FieldRequestID, requestid.Get(c),
			log.FieldMethod, c.Request.Method,
			log.FieldPath, c.Request.URL.Path)
		c.Request = c.Request.WithContext(log.IntoContext(ctx, m.logger))

		atomic.AddInt64(&m.metrics.TotalRequests, 1)

		c.Next()

		duration := time.Since(start)
		atomic.StoreInt64(&m.metrics.LastResponseTime, duration.Microseconds())

		status := c.Writer.Status()
		level := slog.LevelInfo
		if status >= 400 && status < 500 {
			level = slog.LevelWarn
		} else if status >= 500 {
			level = slog.LevelError
		}

		fields := log.NewFields().
			WithHTTPResponse(status, duration.Milliseconds())
		fields[log.FieldClientIP] = c.ClientIP()
		fields[log.FieldUserAgent] = c.Request.UserAgent()
		if len(c.Errors) > 0 {
			fields.WithError(c.Errors.Last().Err)
		}

		m.logger.Log(c.Request.Context(), level, "HTTP request completed", fields.ToSlice()...)
	}
}

// GetMetrics returns current metrics
func (m *Middleware) GetMetrics() Metrics {
	return Metrics{
		TotalRequests:    atomic.LoadInt64(&m.metrics.TotalRequests),
		LastResponseTime: atomic.LoadInt64(&m.metrics.LastResponseTime),
	}
}

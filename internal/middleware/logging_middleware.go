package middleware

import (
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"valcoin-api/internal/monitoring"
)

type LoggingMiddleware struct {
	config *LoggingConfig
}

type LoggingConfig struct {
	ExcludePaths         []string
	SlowRequestThreshold time.Duration
}

func NewLoggingMiddleware(config *LoggingConfig) *LoggingMiddleware {
	if config == nil {
		config = &LoggingConfig{
			ExcludePaths:         []string{"/health", "/ready", "/metrics"},
			SlowRequestThreshold: 2 * time.Second,
		}
	}
	return &LoggingMiddleware{config: config}
}

// RequestLogger emits one structured log line per request, tagged with the
// request id set by the requestid middleware.
func (l *LoggingMiddleware) RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.shouldExcludePath(c.Request.URL.Path) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		entry := logrus.WithFields(logrus.Fields{
			"request_id":    requestid.Get(c),
			"method":        c.Request.Method,
			"path":          c.Request.URL.Path,
			"status_code":   c.Writer.Status(),
			"latency_ms":    latency.Milliseconds(),
			"client_ip":     c.ClientIP(),
			"response_size": c.Writer.Size(),
		})

		if userID, exists := c.Get("user_id"); exists {
			entry = entry.WithField("user_id", userID)
		}

		if latency > l.config.SlowRequestThreshold {
			entry.WithField("slow_request", true).Warn("Slow request detected")
			return
		}

		switch {
		case c.Writer.Status() >= 500:
			entry.Error("Server error")
		case c.Writer.Status() >= 400:
			entry.Warn("Client error")
		default:
			entry.Info("Request handled")
		}
	}
}

// MetricsRecorder feeds request counters and latency into Prometheus.
func (l *LoggingMiddleware) MetricsRecorder(metrics *monitoring.SettlementMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil || l.shouldExcludePath(c.Request.URL.Path) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		// FullPath keeps the route template so label cardinality stays bounded.
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, endpoint, c.Writer.Status(), time.Since(start))
	}
}

func (l *LoggingMiddleware) shouldExcludePath(path string) bool {
	for _, excluded := range l.config.ExcludePaths {
		if path == excluded {
			return true
		}
	}
	return false
}

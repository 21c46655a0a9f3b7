package security

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"mindful/internal/log"
)

// TrustedProxies are the networks whose forwarding headers gin may honour.
var TrustedProxies = []string{
	"127.0.0.0/8",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
}

var suspiciousPatterns = []string{
	"../", "..\\", ".env", "wp-admin", "phpmyadmin",
	"admin.php", "config.php", ".git", ".ssh",
	"eval(", "javascript:", "<script", "union select",
	"etc/passwd", "cmd.exe",
}

var suspiciousAgents = []string{
	"sqlmap", "nmap", "nikto", "gobuster", "dirb", "scanner",
}

const maxURLLength = 2048

// Detector flags requests that look like attacks or scans
type Detector struct {
	suspicious atomic.Int64
}

func NewDetector() *Detector {
	return &Detector{}
}

// IsSuspicious reports whether r matches a known attack pattern
func (d *Detector) IsSuspicious(r *http.Request) bool {
	if len(r.URL.String()) > maxURLLength {
		return true
	}
	if r.Method == "TRACE" || r.Method == "TRACK" || r.Method == "DEBUG" {
		return true
	}

	path := strings.ToLower(r.URL.Path)
	query := r.URL.RawQuery
	if unescaped, err := url.QueryUnescape(query); err == nil {
		query = unescaped
	}
	query = strings.ToLower(query)
	for _, p := range suspiciousPatterns {
		if strings.Contains(path, p) || strings.Contains(query, p) {
			return true
		}
	}

	agent := strings.ToLower(r.UserAgent())
	for _, a := range suspiciousAgents {
		if strings.Contains(agent, a) {
			return true
		}
	}
	return false
}

// Middleware rejects suspicious requests with 400 and logs them.
func (d *Detector) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !d.IsSuspicious(c.Request) {
			c.Next()
			return
		}

		d.suspicious.Add(1)
		slog.WarnContext(c.Request.Context(), "Suspicious request blocked",
			log.FieldComponent, log.ComponentHTTP,
			log.FieldClientIP, c.ClientIP(),
			log.FieldMethod, c.Request.Method,
			log.FieldPath, c.Request.URL.Path,
			log.FieldUserAgent, c.Request.UserAgent())

		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": []string{"Bad request"}})
	}
}

// SuspiciousRequests returns the number of blocked requests
func (d *Detector) SuspiciousRequests() int64 {
	return d.suspicious.Load()
}

package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

const ctxRealIP = "real_ip"

// RealIP sets the real client IP into Gin context (key: "real_ip").
// Priority:
// 1) CF-Connecting-IP (Cloudflare)
// 2) X-Forwarded-For (left-most)
// 3) X-Real-IP
// 4) c.ClientIP()
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxRealIP, resolveIP(c))
		c.Next()
	}
}

func resolveIP(c *gin.Context) string {
	if ip := parseIP(c.GetHeader("CF-Connecting-IP")); ip != "" {
		return ip
	}
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := parseIP(first); ip != "" {
			return ip
		}
	}
	if ip := parseIP(c.GetHeader("X-Real-IP")); ip != "" {
		return ip
	}
	return c.ClientIP()
}

func parseIP(s string) string {
	if ip := net.ParseIP(strings.TrimSpace(s)); ip != nil {
		return ip.String()
	}
	return ""
}

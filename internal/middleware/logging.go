// internal/middleware/logging.go
package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/repository"
)

// maxAuditBody caps how much of a JSON body is kept on the audit row.
const maxAuditBody = 64 << 10

// RequestLogger logs one line per request through logrus.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).Milliseconds(),
			"ip":       c.ClientIP(),
		}
		if userID, ok := c.Get("user_id"); ok {
			fields["user_id"] = userID
		}

		entry := logrus.WithFields(fields)
		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("Request failed")
		case status >= 400:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request processed")
		}
	}
}

// AuditLogMiddleware records every mutating request. Rows are written
// after the response so a slow audit table never delays the caller.
func AuditLogMiddleware(audit repository.AuditRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == "GET" || c.Request.Method == "OPTIONS" || c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		// Read request body
		var requestData map[string]interface{}
		if c.Request.Body != nil && strings.HasPrefix(c.ContentType(), "application/json") {
			body, _ := io.ReadAll(io.LimitReader(c.Request.Body, maxAuditBody))
			c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), c.Request.Body))
			if len(body) > 0 {
				_ = json.Unmarshal(body, &requestData)
			}
		}

		c.Next()

		auditLog := &models.AuditLog{
			Action:       c.Request.Method + " " + c.FullPath(),
			ResourceType: extractResourceType(c.Request.URL.Path),
			StatusCode:   c.Writer.Status(),
			IPAddress:    c.ClientIP(),
			UserAgent:    c.Request.UserAgent(),
			NewValues:    models.JSONB(requestData),
		}
		if actor, ok := CurrentActor(c); ok {
			auditLog.UserID = &actor.ID
		}
		if id, ok := extractResourceID(c.Request.URL.Path); ok {
			auditLog.ResourceID = &id
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := audit.Create(ctx, auditLog); err != nil {
				logrus.WithError(err).WithField("action", auditLog.Action).Warn("Failed to create audit log")
			}
		}()
	}
}

func extractResourceType(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 2 && parts[0] == "v1" {
		return parts[1]
	}
	if len(parts) >= 1 && parts[0] != "" {
		return parts[0]
	}
	return "unknown"
}

func extractResourceID(path string) (uuid.UUID, bool) {
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if id, err := uuid.Parse(part); err == nil {
			return id, true
		}
	}
	return uuid.Nil, false
}

package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"aira-backend/internal/auth"
	"aira-backend/internal/rbac"
	"aira-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Handlers groups process-level HTTP handlers: health and dev token issuance.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth  *auth.Manager
	DB    *sql.DB
	Redis *redis.Client
}

// --- Health ---

// Health pings whichever backing stores are configured.
func (h Handlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	healthy := true
	if h.DB != nil {
		checks["postgres"] = "ok"
		if err := utils.HealthCheck(ctx, h.DB, 2*time.Second); err != nil {
			checks["postgres"] = err.Error()
			healthy = false
		}
	}
	if h.Redis != nil {
		checks["redis"] = "ok"
		if err := h.Redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		}
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "checks": checks})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": checks})
}

// --- Auth ---

type tokenRequest struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// IssueToken mints an access token for any user id.
//
// NOTE: development only. It performs no credential check and must not be
// mounted in production.
func (h Handlers) IssueToken(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "userId required"})
		return
	}
	if req.Role == "" {
		req.Role = rbac.RoleUser
	}
	if req.Role != rbac.RoleUser && req.Role != rbac.RoleAdmin {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "role must be user or admin"})
		return
	}
	tok, exp, err := h.Auth.IssueAccess(time.Now(), req.UserID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessToken": tok, "expiresAt": exp})
}

// Me echoes the identity attached by the auth middleware.
func (h Handlers) Me(c *gin.Context) {
	uid, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no identity"})
		return
	}
	role, _ := auth.Role(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"userId": uid, "role": role})
}

package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"aira-backend/internal/auth"

	"github.com/gin-gonic/gin"
)

func serveWithRole(role string, allowed ...string) int {
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		if role != "" {
			c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), "u", role))
		}
		c.Next()
	}, RequireAnyRole(allowed...), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	return w.Code
}

func TestRequireAnyRole_AdminBypasses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	if code := serveWithRole(RoleAdmin, "operator"); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireAnyRole_DeniesOtherRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	if code := serveWithRole(RoleUser, RoleAdmin); code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", code)
	}
}

func TestRequireAnyRole_RequiresIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	if code := serveWithRole("", RoleUser); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}

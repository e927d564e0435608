package reporting

import (
	"errors"
	"net/http"
	"time"

	"aira-backend/internal/calls"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Service *Service
}

// Summary serves GET /history/:userId/summary?from=RFC3339&to=RFC3339.
func (h Handlers) Summary(c *gin.Context) {
	req := SummaryRequest{UserID: c.Param("userId")}
	var err error
	if req.Range.From, err = parseBound(c.Query("from")); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid from", "kind": "validation"})
		return
	}
	if req.Range.To, err = parseBound(c.Query("to")); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid to", "kind": "validation"})
		return
	}

	out, err := h.Service.UserSummary(c.Request.Context(), req)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, out)
	case errors.Is(err, ErrInvalidRequest):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "validation"})
	default:
		code := calls.StatusCode(err)
		msg := err.Error()
		if code >= http.StatusInternalServerError {
			_ = c.Error(err)
			msg = "internal error"
		}
		c.AbortWithStatusJSON(code, gin.H{"error": msg, "kind": calls.Kind(err)})
	}
}

func parseBound(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, v)
}

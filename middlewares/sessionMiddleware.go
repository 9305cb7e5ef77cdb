package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mmdatafocus/books_valuation/utils"
)

const (
	HeaderBusinessId    = "X-Business-Id"
	HeaderUserName      = "X-User-Name"
	HeaderCorrelationId = "X-Correlation-Id"
)

// SessionMiddleware puts the calling business, user and a correlation id on the request context.
// Requests without a business id are rejected.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId := strings.TrimSpace(c.GetHeader(HeaderBusinessId))
		if businessId == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "business id is required"})
			return
		}
		correlationId := strings.TrimSpace(c.GetHeader(HeaderCorrelationId))
		if correlationId == "" {
			correlationId = uuid.NewString()
		}

		ctx := utils.SetBusinessIdInContext(c.Request.Context(), businessId)
		ctx = utils.SetCorrelationIdInContext(ctx, correlationId)
		if userName := strings.TrimSpace(c.GetHeader(HeaderUserName)); userName != "" {
			ctx = utils.SetUserNameInContext(ctx, userName)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Header(HeaderCorrelationId, correlationId)
		c.Next()
	}
}

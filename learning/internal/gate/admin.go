package gate

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/XaviFP/manabi/common/config"
)

// RequireAdmin guards authoring and grading routes behind the admin header.
// When the header is not configured every request is refused.
func RequireAdmin(cfg config.AdminConfig) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !cfg.IsConfigured() {
			slog.ErrorContext(ctx, "admin route hit but admin auth is not configured", "path", ctx.Request.URL.Path)
			ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "admin auth not configured"})
			return
		}

		headerValue := ctx.GetHeader(cfg.HeaderName)
		if headerValue == "" {
			slog.WarnContext(ctx, "missing admin header",
				"path", ctx.Request.URL.Path,
				"method", ctx.Request.Method,
				"remote_addr", ctx.ClientIP(),
			)
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}

		if subtle.ConstantTimeCompare([]byte(headerValue), []byte(cfg.HeaderSecret)) != 1 {
			slog.WarnContext(ctx, "invalid admin header",
				"path", ctx.Request.URL.Path,
				"method", ctx.Request.Method,
				"remote_addr", ctx.ClientIP(),
			)
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid admin credentials"})
			return
		}

		ctx.Next()
	}
}

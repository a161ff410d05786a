package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-watermark/internal/models"
)

// RequireJSON rejects request bodies that are not application/json.
func RequireJSON() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		contentType := ctx.GetHeader("Content-Type")
		if !strings.HasPrefix(strings.ToLower(contentType), "application/json") {
			ctx.AbortWithStatusJSON(http.StatusUnsupportedMediaType, models.APIResponse{
				Success: false,
				Error:   "Content-Type must be application/json",
			})
			return
		}
		ctx.Next()
	}
}

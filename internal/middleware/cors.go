package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/travellanka/listings-backend/internal/config"
)

// CORS builds the cross-origin policy from configuration. Credentials are
// only allowed when origins are listed explicitly.
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowOrigins:  cfg.AllowedOrigins,
		AllowMethods:  cfg.AllowedMethods,
		AllowHeaders:  append(append([]string{}, cfg.AllowedHeaders...), "If-Match"),
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", "ETag", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}

	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowAllOrigins = true
			return cors.New(corsConfig)
		}
	}

	corsConfig.AllowCredentials = true
	return cors.New(corsConfig)
}

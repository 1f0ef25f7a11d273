package middleware

import (
	"net/http"

	"github.com/rs/cors"

	"sari-backend/internal/config"
)

func NewCORS(cfg *config.Config) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CorsAllowedOrigins,
		AllowedMethods:   cfg.Server.CorsAllowedMethods,
		AllowedHeaders:   cfg.Server.CorsAllowedHeaders,
		ExposedHeaders:   []string{"Content-Disposition"}, // statement downloads
		AllowCredentials: true,
		MaxAge:           300,
	})

	return c.Handler
}

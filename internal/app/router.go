package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"eventfin.io/eventfin/internal/api/contract"
	"eventfin.io/eventfin/internal/api/handlers"
	"eventfin.io/eventfin/internal/api/middleware"
	"eventfin.io/eventfin/internal/config"
	"eventfin.io/eventfin/internal/domain"
	"eventfin.io/eventfin/internal/infrastructure"
	"eventfin.io/eventfin/internal/metrics"
)

const apiBasePath = "/api/v1"

// defaultAllowedOrigins are the local dashboard origins used when none are configured.
var defaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

func newRouter(ctx context.Context, cfg *config.Config, server *handlers.Server, db *infrastructure.DatabaseClients) (*gin.Engine, error) {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Metrics(),
		cors.New(buildCORSConfig(cfg)),
		middleware.ErrorHandler(),
	)

	router.GET("/metrics", func(c *gin.Context) {
		if db != nil && db.Pool != nil {
			metrics.UpdateDatabaseConnections(db.Pool)
		}
		metrics.Handler().ServeHTTP(c.Writer, c.Request)
	})

	v1 := router.Group(apiBasePath)
	server.RegisterPublicRoutes(v1)

	authed := v1.Group("")
	authed.Use(middleware.JWTAuth(jwtConfig(cfg)))
	if cfg.API.ValidateRequests {
		doc, err := contract.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load api contract: %w", err)
		}
		validator, err := middleware.NewOpenAPIValidator(doc, middleware.ValidatorOptions{
			BasePath:          apiBasePath,
			ValidateResponses: cfg.API.ValidateResponses,
		})
		if err != nil {
			return nil, fmt.Errorf("build api validator: %w", err)
		}
		authed.Use(validator)
	}
	server.RegisterRoutes(authed, middleware.RequireRole(domain.FinanceRoles...))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, middleware.ErrorResponse{Code: "NOT_FOUND", Message: "route not found"})
	})
	return router, nil
}

// buildCORSConfig drops wildcard origins unless explicitly allowed. A
// wildcard never travels with credentials.
func buildCORSConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: cfg.Server.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}

	if cfg.Server.UnsafeAllowAllOrigins {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
		return corsCfg
	}

	origins := make([]string, 0, len(cfg.Server.AllowedOrigins))
	for _, origin := range cfg.Server.AllowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "" || origin == "*" {
			continue
		}
		origins = append(origins, origin)
	}
	if len(origins) == 0 {
		origins = append(origins, defaultAllowedOrigins...)
	}
	corsCfg.AllowOrigins = origins
	return corsCfg
}

package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/erp/ledgercore/internal/domain/tenancy"
	"github.com/erp/ledgercore/internal/infrastructure/auth"
	"github.com/erp/ledgercore/internal/infrastructure/logger"
	"github.com/erp/ledgercore/internal/infrastructure/telemetry"
	"github.com/erp/ledgercore/internal/interfaces/http/middleware"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Config holds router dependencies
type Config struct {
	Logger     *zap.Logger
	Tokens     *auth.TokenService
	Directory  tenancy.BranchDirectory
	Registrars []RouteRegistrar
}

// Setup builds the HTTP engine: request logging and panic recovery on every
// route, health endpoint outside the tenant boundary, and the versioned API
// group behind the tenant middleware.
func Setup(cfg Config) *gin.Engine {
	engine := gin.New()
	engine.Use(
		otelgin.Middleware(telemetry.TracerName),
		logger.GinMiddleware(cfg.Logger),
		logger.Recovery(cfg.Logger),
	)

	engine.GET("/health", healthCheck)

	api := engine.Group("/api/v1")
	api.Use(middleware.TenantMiddleware(cfg.Tokens, cfg.Directory))
	api.GET("/health", healthCheck)

	for _, registrar := range cfg.Registrars {
		registrar.RegisterRoutes(api)
	}

	return engine
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vsinha/sampledist/pkg/interfaces/http/middleware"
)

// ReadinessCheck reports whether a backing dependency is usable
type ReadinessCheck func(ctx context.Context) error

// RouterConfig holds everything the router needs
type RouterConfig struct {
	Dashboard      DashboardService
	Logger         *zap.Logger
	RequestTimeout time.Duration
	Version        string
	BuildTime      string
	// Ready checks run on /health/ready, keyed by dependency name
	Ready map[string]ReadinessCheck
}

// NewRouter builds the gin engine with middlewares and every route
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS())

	registerHealth(router, cfg)

	h := NewDashboardHandler(cfg.Dashboard, logger)
	v1 := router.Group("/api/v1")
	v1.Use(middleware.Timeout(cfg.RequestTimeout))
	{
		imports := v1.Group("/imports/:importId")
		imports.GET("/coverage-dashboard", h.CoverageDashboard)
		imports.GET("/material-detail", h.MaterialDetail)
		imports.GET("/general-distribution", h.GeneralDistribution)
		imports.PUT("/materials/:code/stock-manual", h.UpdateStockManual)
		imports.DELETE("", h.DeleteImport)
	}

	return router
}

func registerHealth(r *gin.Engine, cfg RouterConfig) {
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		failed := gin.H{}
		for name, check := range cfg.Ready {
			if err := check(c.Request.Context()); err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": failed})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    cfg.Version,
			"build_time": cfg.BuildTime,
		})
	})
}

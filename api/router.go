package api

import (
	"net/http"

	"marketplace/api/admin"
	"marketplace/api/health"
	"marketplace/api/middleware"
	"marketplace/api/order"
	"marketplace/config"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router Route configuration
type Router struct {
	engine           *gin.Engine
	config           *config.Config
	gatherer         prometheus.Gatherer
	healthController *health.Controller
	orderController  *order.Controller
	adminController  *admin.Controller
}

// NewRouter metrics 与 gatherer 应指向同一个 registry
func NewRouter(
	cfg *config.Config,
	metrics *middleware.HTTPMetrics,
	gatherer prometheus.Gatherer,
	healthController *health.Controller,
	orderController *order.Controller,
	adminController *admin.Controller,
) *Router {
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// 顺序有意义
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(middleware.RecoveryMiddleware())
	engine.Use(middleware.LoggingMiddleware())
	engine.Use(metrics.Handler())
	engine.Use(middleware.GzipMiddleware())
	engine.Use(middleware.CORSMiddleware(&cfg.CORS))
	engine.Use(middleware.RateLimitMiddleware(&cfg.Server.RateLimit))

	return &Router{
		engine:           engine,
		config:           cfg,
		gatherer:         gatherer,
		healthController: healthController,
		orderController:  orderController,
		adminController:  adminController,
	}
}

// SetupRoutes Set up all routes
func (r *Router) SetupRoutes() {
	apiGroup := r.engine.Group("/api/v1")
	r.healthController.RegisterRoutes(apiGroup)

	authed := apiGroup.Group("", middleware.Auth(&r.config.Auth))
	r.orderController.RegisterRoutes(authed)
	r.adminController.RegisterRoutes(authed.Group("", middleware.RequireAdmin()))

	r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))

	r.engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":    r.config.App.Name,
			"version": r.config.App.Version,
			"env":     r.config.App.Env,
			"health":  "/api/v1/health",
			"metrics": "/metrics",
		})
	})
}

// GetEngine Get Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

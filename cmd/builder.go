package cmd

import (
	"context"
	"fmt"
	"net/http"

	"marketplace/api"
	"marketplace/api/admin"
	"marketplace/api/health"
	"marketplace/api/middleware"
	apiorder "marketplace/api/order"
	"marketplace/config"
	"marketplace/infrastructure/persistence/mysql"
	"marketplace/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AppBuilder builds an App with customizable components
type AppBuilder struct {
	cfg *config.Config
	db  *gorm.DB
}

// NewBuilder creates a new AppBuilder
func NewBuilder(cfg *config.Config) *AppBuilder {
	return &AppBuilder{cfg: cfg}
}

// WithDB 使用已有连接，不再自行连接 MySQL（测试用 SQLite）
func (b *AppBuilder) WithDB(db *gorm.DB) *AppBuilder {
	b.db = db
	return b
}

// Build creates the App instance. 日志需已初始化
func (b *AppBuilder) Build() (*App, error) {
	logger.Info("Starting application",
		zap.String("app", b.cfg.App.Name),
		zap.String("version", b.cfg.App.Version),
		zap.String("env", b.cfg.App.Env))

	db := b.db
	if db == nil {
		var err error
		if db, err = ConnectDatabase(b.cfg); err != nil {
			return nil, err
		}
	}

	components, err := NewComponents(b.cfg, db)
	if err != nil {
		return nil, err
	}

	app := &App{
		config:     b.cfg,
		components: components,
	}

	if b.cfg.Reconciler.Enabled {
		if app.reconciler, err = components.NewReconciler(b.cfg); err != nil {
			return nil, fmt.Errorf("failed to create reconciler: %w", err)
		}
	}

	healthController := health.NewController(b.cfg, map[string]health.Pinger{
		"database": func(ctx context.Context) error { return mysql.Ping(ctx, db) },
	})

	router := api.NewRouter(
		b.cfg,
		middleware.NewHTTPMetrics(components.Registry),
		components.Registry,
		healthController,
		apiorder.NewController(components.OrderService),
		admin.NewController(components.OrderService),
	)
	router.SetupRoutes()

	app.router = router
	app.server = &http.Server{
		Addr:         ":" + b.cfg.Server.Port,
		Handler:      router.GetEngine(),
		ReadTimeout:  b.cfg.Server.ReadTimeout,
		WriteTimeout: b.cfg.Server.WriteTimeout,
	}
	return app, nil
}

package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"marketplace/api"
	"marketplace/application/reconciler"
	"marketplace/config"
	"marketplace/pkg/logger"

	"go.uber.org/zap"
)

// App 应用程序
type App struct {
	config     *config.Config
	router     *api.Router
	server     *http.Server
	components *Components
	reconciler *reconciler.TimeoutReconciler
}

// Run 启动 HTTP 服务与进程内对账，收到 SIGINT/SIGTERM 后优雅退出
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return a.Serve(ctx)
}

// Serve 运行直到 ctx 取消或服务异常退出
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if a.reconciler != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.reconciler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Timeout reconciler exited", zap.Error(err))
			}
		}()
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutting down server")
	case runErr = <-serverErr:
		logger.Error("HTTP server failed", zap.Error(runErr))
	}
	cancel()

	a.shutdown()
	wg.Wait()
	return runErr
}

func (a *App) shutdown() {
	timeout := a.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := a.components.AuditSink.Close(ctx); err != nil {
		logger.Warn("Audit sink did not drain", zap.Error(err))
	}
	if sqlDB, err := a.components.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("Server stopped")
}

// Handler 供测试直接驱动路由
func (a *App) Handler() http.Handler {
	return a.router.GetEngine()
}

// Components 装配结果
func (a *App) Components() *Components {
	return a.components
}

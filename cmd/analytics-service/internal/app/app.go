package app

import (
	"context"

	"velora/cmd/analytics-service/internal/server"
	"velora/cmd/analytics-service/internal/service"

	"go.uber.org/zap"
)

// App 应用程序
type App struct {
	Logger     *zap.Logger
	HTTPServer *server.HTTPServer
	Service    *service.AnalyticsService
}

// NewApp 创建应用程序
func NewApp(
	logger *zap.Logger,
	httpServer *server.HTTPServer,
	svc *service.AnalyticsService,
) *App {
	return &App{
		Logger:     logger,
		HTTPServer: httpServer,
		Service:    svc,
	}
}

// Start 加载事件日志并启动后台任务
func (a *App) Start(ctx context.Context) error {
	a.Service.Start(ctx)
	a.Logger.Info("Application started successfully")
	return nil
}

// Stop 停止后台任务，刷新外部转发
func (a *App) Stop(ctx context.Context) {
	a.Logger.Info("Stopping application...")
	a.Service.Stop(ctx)
}

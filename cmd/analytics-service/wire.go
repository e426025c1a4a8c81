//go:build wireinject
// +build wireinject

package main

import (
	"velora/cmd/analytics-service/internal/app"
	"velora/cmd/analytics-service/internal/biz"
	"velora/cmd/analytics-service/internal/conf"
	"velora/cmd/analytics-service/internal/data"
	"velora/cmd/analytics-service/internal/domain"
	"velora/cmd/analytics-service/internal/infra"
	"velora/cmd/analytics-service/internal/server"
	"velora/cmd/analytics-service/internal/service"

	"github.com/google/wire"
	"go.uber.org/zap"
)

// initApp 初始化应用
func initApp(config *conf.Config, logger *zap.Logger) (*app.App, func(), error) {
	panic(wire.Build(
		// Data 层
		data.NewStore,
		data.NewRateCounter,

		// Infra 层
		infra.NewPostHogSink,
		wire.Bind(new(domain.EventSink), new(*infra.PostHogSink)),

		// Biz 层
		biz.NewAggregator,
		biz.NewPresence,
		biz.NewSessionManager,
		biz.NewDashboardBuilder,

		// Service 层
		service.NewAnalyticsService,

		// Server 层
		server.NewHTTPServer,

		app.NewApp,
	))
}

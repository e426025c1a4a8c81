//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"velora/cmd/assistant-service/internal/biz"
	"velora/cmd/assistant-service/internal/conf"
	"velora/cmd/assistant-service/internal/data"
	"velora/cmd/assistant-service/internal/domain"
	"velora/cmd/assistant-service/internal/infra"
	"velora/cmd/assistant-service/internal/server"
	"velora/cmd/assistant-service/internal/service"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// wireApp init kratos application.
func wireApp(*conf.Bootstrap, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(
		// Data layer
		data.NewConversationRepo,
		wire.Bind(new(domain.ConversationRepository), new(*data.ConversationRepo)),

		// Infra layer
		infra.NewGeminiClient,
		wire.Bind(new(domain.TextGenerator), new(*infra.GeminiClient)),

		// Business logic layer
		biz.NewRandomSource,
		biz.NewResponseEngine,
		biz.NewConversationUsecase,
		biz.NewPricingCalculator,

		// Service layer
		service.NewAssistantService,

		// Server layer
		server.NewRouter,
		server.NewHTTPServer,

		// App
		newApp,
	))
}

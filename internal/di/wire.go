//go:build wireinject
// +build wireinject

package di

import (
	"FinBot/pkg/config"
	"FinBot/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation in wire_gen.go.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedisClient,
		ProvideCacheStore,
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideAuditStore,
		ProvideEventPublisher,
		ProvideYahoo,
		ProvideFinnhub,
		ProvideHistory,
		ProvideNews,
		ProvideStream,

		// Use cases
		ProvideCommands,
		ProvideMovers,
		ProvideAlertSink,
		ProvideAlertHandler,

		// Discord and dispatch
		ProvideSession,
		ProvideMessenger,
		ProvideRouter,
		ProvideProcessor,
		ProvideLimiter,
		ProvidePipeline,
		ProvideQueue,
		ProvideDispatcher,
		ProvideHandler,

		ProvideHTTPServer,

		// Application server
		wire.Struct(new(server.Deps), "*"),
		server.New,
	)
	return &server.App{}, nil
}

//go:build wireinject
// +build wireinject

package di

import (
	"COEAnalytics/pkg/config"
	"COEAnalytics/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideCache,
		ProvideKafkaConsumer,
		ProvideSourceOpener,

		// Repositories
		ProvideRecordStore,

		// Use cases
		ProvideDefaults,
		ProvideIngestUseCase,
		ProvideQueryUseCase,
		ProvideKafkaBidsHandler,

		// Transport
		ProvideBidsHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}

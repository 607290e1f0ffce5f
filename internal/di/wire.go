//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"CreditScore/internal/usecase"
	"CreditScore/pkg/config"
	"CreditScore/pkg/server"
)

var predictorSet = wire.NewSet(
	ProvideMetrics,
	ProvideRedisCache,
	ProvideCache,
	ProvideCatalog,
	ProvideAssembler,
	ProvideArtifactSource,
	ProvideLoader,
	ProvideCreditPredictor,
)

// InitializeApp wires up all dependencies and returns the application.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		ProvideLogger,
		predictorSet,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Dataset
		ProvideDatasetRepository,
		ProvideSummarizer,
		ProvideDatasetExplorer,

		// Ingestion
		ProvideRecordStorage,
		ProvideKafkaRecordsHandler,

		// HTTP
		ProvideRateLimiter,
		ProvideHealthChecks,
		ProvideHandlers,
		ProvideHTTPServer,

		ProvideApp,
	)
	return nil, nil, nil
}

// InitializePredictor wires the scoring use case for offline predictions.
func InitializePredictor(cfg *config.Config) (*usecase.CreditPredictor, func(), error) {
	wire.Build(ProvideLogger, predictorSet)
	return nil, nil, nil
}

// InitializeImporter wires the record import use case.
func InitializeImporter(cfg *config.Config) (*usecase.RecordImporter, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideImportClickHouseClient,
		ProvideImportProducer,
		ProvideRecordPublisher,
		ProvideRecordStorage,
		ProvideRecordImporter,
	)
	return nil, nil, nil
}

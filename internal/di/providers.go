package di

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"CreditScore/internal/domain/repository"
	"CreditScore/internal/handler/api"
	mid "CreditScore/internal/middleware"
	internalrepo "CreditScore/internal/repository"
	"CreditScore/internal/service/cache"
	svcmetrics "CreditScore/internal/service/metrics"
	"CreditScore/internal/service/ratelimit"
	"CreditScore/internal/services/dashboard"
	"CreditScore/internal/services/features"
	"CreditScore/internal/services/inference"
	"CreditScore/internal/usecase"
	pkgch "CreditScore/pkg/clickhouse"
	"CreditScore/pkg/config"
	xhttp "CreditScore/pkg/http"
	pkgkafka "CreditScore/pkg/kafka"
	applogger "CreditScore/pkg/logger"
	"CreditScore/pkg/metrics"
	"CreditScore/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: "creditscore",
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	svcmetrics.Register()
	return metrics.New()
}

// ProvideRedisCache connects Redis when enabled; nil otherwise.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, func(), error) {
	if !cfg.Redis.Enabled {
		return nil, func() {}, nil
	}
	rc := cache.NewRedisCache(cache.RedisConfig{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		_ = rc.Close()
		return nil, nil, err
	}
	return rc, func() { _ = rc.Close() }, nil
}

// ProvideCache selects Redis when connected, else an in-process TTL cache.
func ProvideCache(cfg *config.Config, rc *cache.RedisCache) cache.BytesCache {
	if rc != nil {
		return cache.WithPrefix(rc, cfg.Redis.Prefix)
	}
	return cache.NewTTLCache()
}

// ProvideCatalog loads the category catalog, falling back to the embedded one.
func ProvideCatalog(cfg *config.Config) (*features.Catalog, error) {
	c, err := features.LoadCatalog(cfg.Models.Catalog)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return c, nil
}

// ProvideAssembler creates the feature assembler.
func ProvideAssembler(catalog *features.Catalog) *features.Assembler {
	return features.NewAssembler(catalog)
}

// ProvideArtifactSource reads artifacts from the models directory, through
// the cache when models.cache_ttl is set.
func ProvideArtifactSource(cfg *config.Config, c cache.BytesCache, l *applogger.Logger) repository.ArtifactSource {
	fs := internalrepo.NewFSArtifactSource(cfg.Models.Dir)
	if cfg.Models.CacheTTL <= 0 {
		return fs
	}
	cached := internalrepo.NewCachedArtifactSource(fs, c, cfg.Models.CacheTTL)
	cached.SetLogger(l)
	return cached
}

// ProvideLoader creates the artifact loader.
func ProvideLoader(cfg *config.Config, src repository.ArtifactSource, catalog *features.Catalog) *inference.Loader {
	names := inference.ArtifactNames{
		SupervisedScaler:      cfg.Models.Supervised.Scaler,
		SupervisedClassifier:  cfg.Models.Supervised.Classifier,
		PseudoLabelScaler:     cfg.Models.PseudoLabel.Scaler,
		PseudoLabelProjector:  cfg.Models.PseudoLabel.Projector,
		PseudoLabelClassifier: cfg.Models.PseudoLabel.Classifier,
	}
	var opts []inference.LoaderOption
	if cfg.Models.Classifier.Backend == "http" {
		opts = append(opts, inference.WithRemoteClassifier(inference.NewHTTPServiceBase(cfg)))
	}
	return inference.NewLoader(src, catalog, names, opts...)
}

// ProvideCreditPredictor creates the scoring use case.
func ProvideCreditPredictor(
	loader *inference.Loader,
	assembler *features.Assembler,
	metrics repository.Metrics,
	l *applogger.Logger,
) *usecase.CreditPredictor {
	p := usecase.NewCreditPredictor(loader, assembler, metrics)
	p.SetLogger(l)
	return p
}

// ProvideClickHouseClient connects ClickHouse and ensures the records
// schema when the server reads from or ingests into it; nil otherwise.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	if !cfg.ClickHouseUsed() {
		return nil, func() {}, nil
	}
	return connectClickHouse(cfg)
}

// ProvideImportClickHouseClient connects ClickHouse for direct imports only.
func ProvideImportClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	if cfg.Import.Backend != usecase.BackendClickHouse {
		return nil, func() {}, nil
	}
	return connectClickHouse(cfg)
}

func connectClickHouse(cfg *config.Config) (*pkgch.Client, func(), error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.RecordsSchema(cfg.ClickHouse.Database, cfg.Dataset.Table)); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideDatasetRepository selects the dataset source.
func ProvideDatasetRepository(cfg *config.Config, ch *pkgch.Client, catalog *features.Catalog, l *applogger.Logger) (repository.DatasetRepository, error) {
	switch cfg.Dataset.Source {
	case "clickhouse":
		if ch == nil {
			return nil, fmt.Errorf("dataset source clickhouse requires a clickhouse connection")
		}
		ds := internalrepo.NewClickHouseDataset(ch, cfg.Dataset.Table)
		ds.SetLogger(l)
		return ds, nil
	default:
		return internalrepo.NewCSVDataset(cfg.Dataset.CSVPath, catalog.LoanTypes), nil
	}
}

// ProvideSummarizer creates the dashboard aggregator.
func ProvideSummarizer(catalog *features.Catalog) *dashboard.Summarizer {
	return dashboard.NewSummarizer(catalog.LoanTypes)
}

// ProvideDatasetExplorer creates the dataset use case.
func ProvideDatasetExplorer(
	cfg *config.Config,
	repo repository.DatasetRepository,
	summarizer *dashboard.Summarizer,
	c cache.BytesCache,
	l *applogger.Logger,
) *usecase.DatasetExplorer {
	e := usecase.NewDatasetExplorer(repo, summarizer, c, cfg.Dataset.SummaryTTL, cfg.Dataset.Source)
	e.SetLogger(l)
	return e
}

// ProvideKafkaProducer creates a Kafka producer when the server needs one
// and attaches the error log collector to it.
func ProvideKafkaProducer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Producer, func(), error) {
	if !cfg.KafkaUsed() {
		return nil, func() {}, nil
	}
	producer, err := newProducer(cfg)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Log.Collect.Enabled {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Log.Collect.FlushInterval,
			CountThreshold: cfg.Log.Collect.CountThreshold,
			Topic:          cfg.Log.Collect.Topic,
			Publisher:      producer,
		})
	}
	return producer, func() {
		l.RemoveCollector()
		_ = producer.Close()
	}, nil
}

// ProvideImportProducer creates a Kafka producer for the kafka import backend.
func ProvideImportProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if cfg.Import.Backend != usecase.BackendKafka {
		return nil, func() {}, nil
	}
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil, fmt.Errorf("kafka.brokers cannot be empty for the kafka import backend")
	}
	producer, err := newProducer(cfg)
	if err != nil {
		return nil, nil, err
	}
	return producer, func() { _ = producer.Close() }, nil
}

func newProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideRecordPublisher wraps the producer; nil without one.
func ProvideRecordPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.RecordPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideRecordStorage creates ClickHouse storage; nil without a connection.
func ProvideRecordStorage(ch *pkgch.Client, cfg *config.Config) repository.RecordStorage {
	if ch == nil {
		return nil
	}
	return internalrepo.NewClickHouseStorage(ch.DB(), cfg.ClickHouse.Database+"."+cfg.Dataset.Table)
}

// ProvideRecordImporter creates the import use case.
func ProvideRecordImporter(
	pub repository.RecordPublisher,
	store repository.RecordStorage,
	metrics repository.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.RecordImporter {
	p := usecase.NewRecordImporter(pub, store, metrics, cfg.Import.Backend, cfg.Import.BatchSize, cfg.Import.BatchTimeout)
	p.SetLogger(l)
	return p
}

// ProvideKafkaConsumer creates a Kafka consumer when ingestion is enabled.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaRecordsHandler stores consumed records; nil without storage.
func ProvideKafkaRecordsHandler(store repository.RecordStorage, metrics repository.Metrics, cfg *config.Config) pkgkafka.MessageHandler {
	if store == nil || !cfg.Kafka.Enabled {
		return nil
	}
	return usecase.NewKafkaRecordsHandler(cfg.Kafka.Topic, store, metrics)
}

// ProvideRateLimiter creates the per-client limiter; nil disables limiting.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if cfg.RateLimit.RequestsPerSecond <= 0 {
		return nil
	}
	burst := cfg.RateLimit.Burst
	if burst <= 0 {
		burst = int(cfg.RateLimit.RequestsPerSecond)
	}
	return ratelimit.New(burst, cfg.RateLimit.RequestsPerSecond)
}

// ProvideHealthChecks collects readiness probes of connected dependencies.
func ProvideHealthChecks(ch *pkgch.Client, rc *cache.RedisCache) map[string]api.Check {
	checks := map[string]api.Check{}
	if ch != nil {
		checks["clickhouse"] = ch.Health
	}
	if rc != nil {
		checks["redis"] = rc.Ping
	}
	return checks
}

// ProvideHandlers builds every HTTP handler in registration order.
func ProvideHandlers(
	l *applogger.Logger,
	predictor *usecase.CreditPredictor,
	explorer *usecase.DatasetExplorer,
	limiter *ratelimit.Limiter,
	metrics repository.Metrics,
	checks map[string]api.Check,
) []xhttp.Handler {
	ph := api.NewPredictHandler(l, predictor)
	if limiter != nil {
		ph.WithRateLimit(mid.RateLimit(limiter, metrics, l))
	}
	return []xhttp.Handler{
		api.NewHealthHandler(checks),
		ph,
		api.NewDatasetHandler(l, explorer),
	}
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, handlers []xhttp.Handler) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORSOrigins(cfg.Server.CORSOrigins),
		xhttp.WithLogger(l),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path))
	}
	return xhttp.NewServer(handlers, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	metrics repository.Metrics,
	limiter *ratelimit.Limiter,
	_ *pkgkafka.Producer,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.HookFuncs{
			Err: func(_ context.Context, _ string, _ kafka.Message, err error) {
				if pkgkafka.IsPermanent(err) {
					metrics.RecordError("consumer_rejected")
					return
				}
				metrics.RecordError("consumer_exhausted")
			},
		})
	}
	var background []func(context.Context)
	if limiter != nil {
		background = append(background, func(ctx context.Context) {
			limiter.Run(ctx, cfg.RateLimit.SweepInterval, cfg.RateLimit.IdleTTL)
		})
	}
	return server.New(cfg, l, srv, consumer, kh, background...)
}

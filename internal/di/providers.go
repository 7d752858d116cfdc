package di

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"BarPulse/internal/agent"
	"BarPulse/internal/domain/models"
	"BarPulse/internal/domain/repository"
	"BarPulse/internal/handler/api"
	"BarPulse/internal/indicator"
	"BarPulse/internal/portfolio"
	internalrepo "BarPulse/internal/repository"
	"BarPulse/internal/service/cache"
	"BarPulse/internal/source/balanz"
	"BarPulse/internal/store"
	"BarPulse/internal/strategy"
	pkgch "BarPulse/pkg/clickhouse"
	"BarPulse/pkg/config"
	pkgkafka "BarPulse/pkg/kafka"
	applogger "BarPulse/pkg/logger"
	"BarPulse/pkg/metrics"
	"BarPulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideQuotes selects the quote cache backend. Redis when enabled,
// otherwise the in-process TTL cache.
func ProvideQuotes(cfg *config.Config) cache.Quotes {
	if cfg.Cache.Redis.Enabled {
		return cache.NewRedisQuotes(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			TTL:      cfg.Cache.TTL,
		})
	}
	return cache.NewTTLQuotes(cfg.Cache.TTL)
}

// ProvideFillRecorder selects the fill sink from configuration.
func ProvideFillRecorder(cfg *config.Config) (repository.FillRecorder, error) {
	switch cfg.Fills.Backend {
	case "kafka":
		producer, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(cfg.Fills.Kafka.Brokers),
			pkgkafka.WithCompression(cfg.Fills.Kafka.Compression),
			pkgkafka.WithRequiredAcks(cfg.Fills.Kafka.RequiredAcks),
			pkgkafka.WithBatchSize(cfg.Fills.Kafka.BatchSize),
			pkgkafka.WithBatchBytes(cfg.Fills.Kafka.BatchBytes),
			pkgkafka.WithBatchTimeout(cfg.Fills.Kafka.Linger),
			pkgkafka.WithTimeouts(cfg.Fills.Kafka.WriteTimeout, cfg.Fills.Kafka.ReadTimeout),
			pkgkafka.WithMaxAttempts(cfg.Fills.Kafka.MaxAttempts),
			pkgkafka.WithAsync(cfg.Fills.Kafka.Async),
			pkgkafka.WithHashByKey(true),
		)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		return internalrepo.NewKafkaFillPublisher(producer, cfg.Fills.Kafka.Topic), nil
	case "sqlite":
		return internalrepo.NewSQLiteFillRecorder(cfg.Fills.SQLite.Path)
	default:
		return internalrepo.NoopFillRecorder{}, nil
	}
}

// ProvideClickHouseClient creates the archive client, or nil when the
// snapshot archive is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.Archive.Enabled {
		return nil, nil
	}

	ch := cfg.Archive.ClickHouse
	client, err := pkgch.NewClient(
		pkgch.WithHost(ch.Host),
		pkgch.WithPort(ch.Port),
		pkgch.WithDatabase(ch.Database),
		pkgch.WithCredentials(ch.User, ch.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(ch.UseHTTP),
		pkgch.WithAsyncInsert(ch.AsyncInsert, ch.WaitForAsync),
		pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout, ch.WriteTimeout),
		pkgch.WithMaxExecutionTime(ch.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.Schema(ch.Database, ch.Table)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideExecution creates the Balanz order client.
func ProvideExecution(cfg *config.Config, log *applogger.Logger) repository.ExecutionClient {
	return balanz.NewExecution(cfg.Balanz.APIURL, cfg.Balanz.Token, log)
}

// ProvidePortfolio creates the configured portfolio.
func ProvidePortfolio(
	cfg *config.Config,
	exec repository.ExecutionClient,
	fills repository.FillRecorder,
	log *applogger.Logger,
) (*portfolio.Portfolio, error) {
	return portfolio.New(cfg.Portfolio.Name, cfg.Portfolio.Liquid, exec, fills, log)
}

// ProvideStrategies builds the strategy set from configuration. A single
// SMA cross strategy over one asset for now.
func ProvideStrategies(
	cfg *config.Config,
	pf *portfolio.Portfolio,
	log *applogger.Logger,
) ([]*strategy.Strategy, error) {
	asset := models.Asset{
		Ticker:     cfg.Strategy.Asset.Ticker,
		Identifier: cfg.Strategy.Asset.Identifier,
		Source:     models.SourceBalanzWebsocket,
		Alias:      cfg.Strategy.Asset.Alias,
	}

	def, err := indicator.NewDefinition(indicator.SMA{}, []models.Asset{asset}, []indicator.Config{{
		Timeframe: cfg.Strategy.Timeframe,
		MinLength: cfg.Strategy.MinLength,
		Params:    map[string]string{"sma_length": strconv.Itoa(cfg.Strategy.SMALength)},
	}})
	if err != nil {
		return nil, fmt.Errorf("sma definition: %w", err)
	}

	eval := &strategy.SMACross{
		Asset:     asset,
		Timeframe: cfg.Strategy.Timeframe,
		SMALength: cfg.Strategy.SMALength,
		Quantity:  cfg.Strategy.Quantity,
		Portfolio: pf,
		Log:       log,
	}

	st, err := strategy.New(eval, []*indicator.Definition{def}, pf)
	if err != nil {
		return nil, fmt.Errorf("sma strategy: %w", err)
	}
	return []*strategy.Strategy{st}, nil
}

// ProvideNotifyChannel creates the ingestion notification channel.
func ProvideNotifyChannel() chan string {
	return make(chan string, 1024)
}

// ProvideRawSeries creates the raw tick store.
func ProvideRawSeries(cfg *config.Config) *store.Series[models.Tick] {
	return store.NewSeries[models.Tick](cfg.Pipeline.RetentionRows)
}

// ProvideBarSeries creates the bar store.
func ProvideBarSeries(cfg *config.Config) *store.Series[models.Bar] {
	return store.NewSeries[models.Bar](cfg.Pipeline.RetentionRows)
}

// ProvideIndicatorSeries creates the indicator store.
func ProvideIndicatorSeries(cfg *config.Config) *store.Series[models.IndicatorRow] {
	return store.NewSeries[models.IndicatorRow](cfg.Pipeline.RetentionRows)
}

// ProvideInputStore creates the ingestion stage with the Balanz stream
// registered for the assets the strategies declare.
func ProvideInputStore(
	cfg *config.Config,
	strategies []*strategy.Strategy,
	raw *store.Series[models.Tick],
	notify chan string,
	quotes cache.Quotes,
	m repository.Metrics,
	log *applogger.Logger,
) (*store.InputStore, error) {
	streams := map[models.SourceKind]repository.TickStream{
		models.SourceBalanzWebsocket: balanz.NewStream(cfg.Balanz.WebsocketURL, cfg.Balanz.Token, log),
	}
	return store.NewInputStore(
		strategy.Assets(strategies),
		streams,
		raw,
		notify,
		quotes,
		m,
		log,
		cfg.Pipeline.ReconnectDelay,
	)
}

// ProvideDataStore creates the aggregation stage.
func ProvideDataStore(
	strategies []*strategy.Strategy,
	raw *store.Series[models.Tick],
	bars *store.Series[models.Bar],
	indicators *store.Series[models.IndicatorRow],
	m repository.Metrics,
	log *applogger.Logger,
) (*store.DataStore, error) {
	return store.NewDataStore(strategy.Indicators(strategies), raw, bars, indicators, m, log)
}

// ProvideAgent creates the evaluation stage.
func ProvideAgent(
	strategies []*strategy.Strategy,
	raw *store.Series[models.Tick],
	bars *store.Series[models.Bar],
	indicators *store.Series[models.IndicatorRow],
	notify chan string,
	m repository.Metrics,
	log *applogger.Logger,
) *agent.Agent {
	return agent.New(strategies, raw, bars, indicators, notify, m, log)
}

// ProvideHistoryClient creates the intraday snapshot archiver, or nil
// when the archive is disabled.
func ProvideHistoryClient(
	cfg *config.Config,
	ch *pkgch.Client,
	m repository.Metrics,
	log *applogger.Logger,
) (*balanz.HistoryClient, error) {
	if !cfg.Archive.Enabled || ch == nil {
		return nil, nil
	}
	table := cfg.Archive.ClickHouse.Database + "." + cfg.Archive.ClickHouse.Table
	archive := internalrepo.NewClickHouseArchive(ch.DB(), table)
	return balanz.NewHistoryClient(cfg.Balanz.APIURL, cfg.Balanz.Token, archive, m, log)
}

// ProvideApp creates the application server with its HTTP surface.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	input *store.InputStore,
	data *store.DataStore,
	ag *agent.Agent,
	hist *balanz.HistoryClient,
	ch *pkgch.Client,
	fills repository.FillRecorder,
	quotes cache.Quotes,
	pf *portfolio.Portfolio,
) *server.App {
	closer, _ := quotes.(io.Closer)
	app := server.New(cfg, log, input, data, ag, hist, ch, fills, closer)
	app.SetHTTPHandler(api.NewPipelineHandler(log, data, quotes, []*portfolio.Portfolio{pf}))
	return app
}

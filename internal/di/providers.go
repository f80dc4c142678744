package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"FinBot/internal/domain/repository"
	"FinBot/internal/handler/api"
	"FinBot/internal/handler/discord"
	mid "FinBot/internal/middleware"
	internalrepo "FinBot/internal/repository"
	"FinBot/internal/service/alpaca"
	icache "FinBot/internal/service/cache"
	"FinBot/internal/service/finnhub"
	"FinBot/internal/service/finviz"
	"FinBot/internal/service/nasdaq"
	"FinBot/internal/service/ratelimit"
	"FinBot/internal/service/universe"
	"FinBot/internal/service/yahoo"
	"FinBot/internal/services/chart"
	"FinBot/internal/services/forecast"
	"FinBot/internal/services/montecarlo"
	"FinBot/internal/services/sentiment"
	"FinBot/internal/usecase"
	"FinBot/pkg/cache"
	pkgch "FinBot/pkg/clickhouse"
	"FinBot/pkg/config"
	xhttp "FinBot/pkg/http"
	pkgkafka "FinBot/pkg/kafka"
	applogger "FinBot/pkg/logger"
	"FinBot/pkg/metrics"
	"FinBot/pkg/queue"

	"github.com/bwmarrin/discordgo"
	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: "finbot",
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRedisClient connects to Redis when enabled. The client is shared by
// the history cache and the command queue.
func ProvideRedisClient(cfg *config.Config) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return rc.Client(), nil
}

// ProvideCacheStore returns a memory cache, layered over Redis when available.
func ProvideCacheStore(cfg *config.Config, rc *redis.Client) cache.Service {
	if rc != nil {
		return cache.NewLayeredCache(cache.NewRedisCacheFromClient(rc, cfg.Redis.Prefix), cfg.Cache.MemorySize, time.Minute)
	}
	return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MemorySize))
}

// ProvideClickHouseClient creates a ClickHouse client when enabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer when enabled and forwards
// aggregated error logs to the logs topic.
func ProvideKafkaProducer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	if cfg.Kafka.LogsTopic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogsTopic,
			Publisher:      producer,
		})
	}
	return producer, nil
}

// ProvideKafkaConsumer creates the mover alert consumer when Kafka is enabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || !cfg.Movers.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers, cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.AlertsTopic+".dlq"),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideAuditStore returns the ClickHouse audit store or a no-op.
func ProvideAuditStore(ch *pkgch.Client, l *applogger.Logger) repository.AuditStore {
	if ch == nil {
		return internalrepo.NopAuditStore{}
	}
	return internalrepo.NewClickHouseAuditStore(ch, l)
}

// ProvideEventPublisher returns the Kafka event publisher or a no-op.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.EventPublisher {
	if producer == nil {
		return internalrepo.NopEventPublisher{}
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.EventsTopic, cfg.Kafka.AlertsTopic)
}

// ProvideYahoo creates the Yahoo chart and quote client.
func ProvideYahoo(cfg *config.Config) *yahoo.Client {
	return yahoo.New(cfg.Market.YahooBaseURL, cfg.Market.Timeout, yahoo.WithBatchSize(cfg.Movers.BatchSize))
}

// ProvideFinnhub creates the Finnhub REST client.
func ProvideFinnhub(cfg *config.Config) *finnhub.Client {
	return finnhub.New(cfg.Finnhub.APIKey, cfg.Finnhub.BaseURL, cfg.Market.Timeout)
}

// ProvideHistory selects the bar provider and caches it when enabled.
func ProvideHistory(cfg *config.Config, y *yahoo.Client, store cache.Service, l *applogger.Logger) repository.HistoryProvider {
	var hp repository.HistoryProvider = y
	if cfg.Market.HistoryProvider == "alpaca" {
		hp = alpaca.New(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret)
	}
	if !cfg.Cache.Enabled {
		return hp
	}
	return icache.NewCachedHistory(hp, store, cfg.Cache.HistoryTTL, l)
}

// ProvideNews selects the news provider.
func ProvideNews(cfg *config.Config, fh *finnhub.Client) repository.NewsProvider {
	if cfg.Market.NewsProvider == "alpaca" {
		return alpaca.New(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret)
	}
	return fh
}

// ProvideCommands builds the command usecases and their compute services.
func ProvideCommands(
	cfg *config.Config,
	history repository.HistoryProvider,
	y *yahoo.Client,
	fh *finnhub.Client,
	news repository.NewsProvider,
	audit repository.AuditStore,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Commands {
	return usecase.NewCommands(usecase.Deps{
		History:       history,
		Actions:       y,
		Fundamentals:  fh,
		News:          news,
		Headlines:     finviz.New(cfg.Market.FinvizBaseURL, cfg.Market.Timeout),
		Universe:      universe.NewFile(cfg.Market.TickersFile),
		Forecasters:   forecast.NewFactory(cfg.Forecast.SeasonLength),
		Simulator:     montecarlo.New(montecarlo.WithSimulations(cfg.Forecast.Simulations)),
		FastSimulator: montecarlo.New(montecarlo.WithSimulations(cfg.Forecast.FastSims)),
		Sentiment:     sentiment.New(),
		Charts:        chart.New(),
		Audit:         audit,
		Metrics:       m,
		Log:           l,
	},
		usecase.WithLevel(cfg.Forecast.Level),
		usecase.WithHeadlineCount(cfg.Market.Headlines),
	)
}

// ProvideSession creates the Discord gateway session.
func ProvideSession(cfg *config.Config) (*discordgo.Session, error) {
	return discord.NewSession(cfg.Discord.Token)
}

func ProvideMessenger(s *discordgo.Session) discord.Messenger {
	return discord.NewSessionMessenger(s)
}

func ProvideRouter(cmds *usecase.Commands) *discord.Router {
	return discord.NewRouter(cmds)
}

// ProvideProcessor runs routed commands and DMs the results.
func ProvideProcessor(
	router *discord.Router,
	messenger discord.Messenger,
	audit repository.AuditStore,
	events repository.EventPublisher,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.CommandProcessor {
	return usecase.NewCommandProcessor(router, discord.NewReplier(messenger), audit, events, m, l, cfg.Discord.CommandTimeout)
}

func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Dispatch.RateLimit.Capacity, cfg.Dispatch.RateLimit.RefillPerSec)
}

// ProvidePipeline creates the in-process worker pool for inline dispatch.
func ProvidePipeline(
	cfg *config.Config,
	proc *usecase.CommandProcessor,
	limiter *ratelimit.Limiter,
	m repository.Metrics,
	l *applogger.Logger,
) *mid.CommandPipeline {
	if cfg.Dispatch.Mode != "inline" {
		return nil
	}
	return mid.NewCommandPipeline(proc, m, l,
		mid.WithWorkers(cfg.Dispatch.Workers),
		mid.WithBufferSize(cfg.Dispatch.BufferSize),
		mid.WithLimiter(limiter),
	)
}

// ProvideQueue creates the Redis job queue for redis dispatch.
func ProvideQueue(
	cfg *config.Config,
	rc *redis.Client,
	proc *usecase.CommandProcessor,
	l *applogger.Logger,
) *queue.RedisQueue {
	if cfg.Dispatch.Mode != "redis" || rc == nil {
		return nil
	}
	q := queue.NewRedisQueue(l, &queue.Config{
		Workers:    cfg.Dispatch.Workers,
		RetryLimit: cfg.Dispatch.RetryLimit,
		RetryDelay: cfg.Dispatch.RetryDelay,
		JobTimeout: cfg.Discord.CommandTimeout,
	}, rc, queue.WithKeyPrefix(cfg.Redis.Prefix+":commands"))
	q.RegisterJob(usecase.NewCommandJob(proc))
	return q
}

// ProvideDispatcher picks the queue when one is configured.
func ProvideDispatcher(
	pipe *mid.CommandPipeline,
	q *queue.RedisQueue,
	proc *usecase.CommandProcessor,
	limiter *ratelimit.Limiter,
	m repository.Metrics,
) discord.Dispatcher {
	if q != nil {
		return mid.NewQueueDispatcher(q, proc, limiter, m)
	}
	return pipe
}

func ProvideHandler(
	router *discord.Router,
	messenger discord.Messenger,
	dispatcher discord.Dispatcher,
	l *applogger.Logger,
	cfg *config.Config,
) *discord.Handler {
	return discord.NewHandler(router, messenger, dispatcher, l, cfg.Discord.Prefix)
}

// ProvideStream creates the Finnhub trade stream for the finnhub mover source.
func ProvideStream(cfg *config.Config, l *applogger.Logger) *finnhub.Stream {
	if !cfg.Movers.Enabled || cfg.Movers.Source != "finnhub" {
		return nil
	}
	return finnhub.NewStream(l,
		cfg.Finnhub.APIKey,
		cfg.Finnhub.WebSocketURL,
		cfg.Movers.Symbols,
		cfg.Finnhub.ReconnectDelay,
		cfg.Finnhub.PingInterval,
	)
}

// ProvideAlertSink posts alerts to the channel, or to Kafka when enabled so
// that a single consumer group posts them.
func ProvideAlertSink(cfg *config.Config, messenger discord.Messenger, events repository.EventPublisher) repository.AlertSink {
	if cfg.Kafka.Enabled {
		return internalrepo.NewKafkaAlertSink(events)
	}
	return discord.NewChannelSink(messenger, cfg.Movers.ChannelID)
}

// ProvideMovers creates the mover watcher when enabled.
func ProvideMovers(
	cfg *config.Config,
	y *yahoo.Client,
	stream *finnhub.Stream,
	sink repository.AlertSink,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Movers {
	if !cfg.Movers.Enabled {
		return nil
	}
	var (
		symbols repository.SymbolDirectory
		quotes  repository.QuoteSource
	)
	if stream != nil {
		symbols, quotes = stream, stream
	} else {
		symbols, quotes = nasdaq.New(cfg.Market.NasdaqURL, cfg.Market.Timeout), y
	}
	return usecase.NewMovers(symbols, quotes, sink, m, l, cfg.Movers.ChannelID, cfg.Movers.Threshold, cfg.Movers.Interval)
}

// ProvideAlertHandler posts alerts read from Kafka to the movers channel.
func ProvideAlertHandler(cfg *config.Config, consumer *pkgkafka.Consumer, messenger discord.Messenger) *usecase.AlertHandler {
	if consumer == nil {
		return nil
	}
	return usecase.NewAlertHandler(cfg.Kafka.AlertsTopic, discord.NewChannelSink(messenger, cfg.Movers.ChannelID))
}

// ProvideHTTPServer serves metrics, probes and the forecast API when enabled.
func ProvideHTTPServer(
	cfg *config.Config,
	l *applogger.Logger,
	s *discordgo.Session,
	rc *redis.Client,
	audit repository.AuditStore,
	stream *finnhub.Stream,
	cmds *usecase.Commands,
) *xhttp.Server {
	if !cfg.Server.Enabled {
		return nil
	}
	handlers := []xhttp.Handler{
		api.NewHealthHandler(l, readinessChecks(s, rc, audit, stream)),
		api.NewForecastEchoHandler(l, cmds),
	}
	return xhttp.NewServer(l, handlers,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
	)
}

func readinessChecks(s *discordgo.Session, rc *redis.Client, audit repository.AuditStore, stream *finnhub.Stream) map[string]api.Check {
	checks := map[string]api.Check{
		"discord": func(context.Context) error {
			if !s.DataReady {
				return errors.New("gateway not ready")
			}
			return nil
		},
		"audit": audit.Health,
	}
	if rc != nil {
		checks["redis"] = func(ctx context.Context) error { return rc.Ping(ctx).Err() }
	}
	if stream != nil {
		checks["finnhub_stream"] = stream.Health
	}
	return checks
}

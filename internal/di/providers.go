package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"bandarscan/internal/domain/repository"
	"bandarscan/internal/handler/api"
	internalrepo "bandarscan/internal/repository"
	"bandarscan/internal/scancache"
	"bandarscan/internal/service/idx"
	"bandarscan/internal/session"
	"bandarscan/internal/signal"
	"bandarscan/internal/usecase"
	pkgcache "bandarscan/pkg/cache"
	pkgch "bandarscan/pkg/clickhouse"
	"bandarscan/pkg/config"
	pkgkafka "bandarscan/pkg/kafka"
	applogger "bandarscan/pkg/logger"
	"bandarscan/pkg/metrics"
	"bandarscan/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	lc := &applogger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	}
	if lc.Level == "" {
		lc.Level = "info"
	}
	if lc.Format == "" {
		lc.Format = "console"
	}
	if lc.Output == "" {
		lc.Output = "stdout"
	}
	return applogger.New(lc)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClock creates the exchange session clock.
func ProvideClock() *session.Clock {
	return session.NewClock()
}

// ProvideFeed creates the upstream exchange feed client.
func ProvideFeed(cfg *config.Config, l *applogger.Logger, m repository.Metrics) repository.Feed {
	opts := []idx.Option{idx.WithMetrics(m)}
	if cfg.Upstream.Timeout > 0 {
		opts = append(opts, idx.WithTimeout(cfg.Upstream.Timeout))
	}
	if cfg.Upstream.Retries > 0 {
		backoff := cfg.Upstream.Backoff
		if backoff <= 0 {
			backoff = 2 * time.Second
		}
		opts = append(opts, idx.WithRetries(cfg.Upstream.Retries, backoff))
	}
	return idx.New(cfg.Upstream.URL, l, opts...)
}

// ProvideComposer creates the signal composer.
func ProvideComposer() *signal.Composer {
	return signal.New(signal.Config{})
}

// ProvideScanner creates the scan pipeline.
func ProvideScanner(cfg *config.Config, feed repository.Feed, composer *signal.Composer, clock *session.Clock, l *applogger.Logger, m repository.Metrics) *usecase.Scanner {
	sc := usecase.DefaultScannerConfig()
	if cfg.Scanner.MinPrice > 0 {
		sc.MinPrice = cfg.Scanner.MinPrice
	}
	if cfg.Scanner.MaxPrice > 0 {
		sc.MaxPrice = cfg.Scanner.MaxPrice
	}
	if cfg.Scanner.MinVolume > 0 {
		sc.MinVolume = cfg.Scanner.MinVolume
	}
	return usecase.NewScanner(sc, feed, composer, clock, l, m)
}

// ProvideScanCache creates the session-aware result cache, with a Redis tier
// when one is configured.
func ProvideScanCache(cfg *config.Config, clock *session.Clock, l *applogger.Logger) (*scancache.Manager, error) {
	cc := scancache.DefaultConfig()
	if cfg.Cache.MaxEntries > 0 {
		cc.MaxEntries = cfg.Cache.MaxEntries
	}
	if cfg.Cache.MinInstruments > 0 {
		cc.MinInstruments = cfg.Cache.MinInstruments
	}
	if len(cfg.Cache.AnchorSymbols) > 0 {
		cc.AnchorSymbols = cfg.Cache.AnchorSymbols
	}

	opts := []scancache.Option{scancache.WithClock(clock)}
	if cfg.Cache.Redis.Enabled {
		host, portStr, err := net.SplitHostPort(cfg.Cache.Redis.Addr)
		if err != nil {
			return nil, fmt.Errorf("cache.redis.addr: %w", err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("cache.redis.addr port: %w", err)
		}
		redisCache, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisHost(host),
			pkgcache.WithRedisPort(port),
			pkgcache.WithRedisPassword(cfg.Cache.Redis.Password),
			pkgcache.WithRedisDB(cfg.Cache.Redis.DB),
			pkgcache.WithRedisPrefix("bandarscan"),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		opts = append(opts, scancache.WithL2(pkgcache.NewLayeredCache(redisCache)))
	}
	return scancache.New(cc, l, opts...), nil
}

// ProvideArchive creates the ClickHouse archive store when the sink needs it.
// A nil Archive means archiving to ClickHouse is disabled.
func ProvideArchive(cfg *config.Config, l *applogger.Logger) (repository.Archive, error) {
	if cfg.Archive.Sink != usecase.SinkClickHouse && cfg.Archive.Sink != usecase.SinkBoth {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	store := internalrepo.NewCHArchive(client)
	store.SetLogger(l)
	return store, nil
}

// ProvidePublisher creates the Kafka result publisher when the sink needs it.
// A nil Publisher means publishing is disabled.
func ProvidePublisher(cfg *config.Config, l *applogger.Logger) (repository.Publisher, error) {
	if cfg.Archive.Sink != usecase.SinkKafka && cfg.Archive.Sink != usecase.SinkBoth {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	pub := internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
	pub.SetLogger(l)

	// Ship aggregated warn/error logs alongside the scan topic.
	l.AddCollector(&applogger.CollectionConfig{
		TimeInterval:   30 * time.Second,
		CountThreshold: 100,
		Topic:          cfg.Kafka.Topic + ".logs",
		Publisher:      &logPublisher{producer: producer},
	})
	return pub, nil
}

type logPublisher struct {
	producer *pkgkafka.Producer
}

func (p *logPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

// ProvideArchiver creates the archive usecase.
func ProvideArchiver(cfg *config.Config, archive repository.Archive, publisher repository.Publisher, m repository.Metrics, l *applogger.Logger) *usecase.Archiver {
	sink := cfg.Archive.Sink
	if sink == "" {
		sink = "none"
	}
	a := usecase.NewArchiver(sink, archive, publisher, m, l)
	a.SetKeepDays(cfg.Archive.KeepDays)
	return a
}

// ProvideStreamHub creates the websocket fan-out hub.
func ProvideStreamHub(l *applogger.Logger) *api.StreamHub {
	return api.NewStreamHub(l)
}

// ProvideScanHandler creates the HTTP handler.
func ProvideScanHandler(l *applogger.Logger, scanner *usecase.Scanner, cache *scancache.Manager, archiver *usecase.Archiver, hub *api.StreamHub, m repository.Metrics) *api.ScanHandler {
	h := api.NewScanHandler(l, scanner, cache, archiver, hub)
	h.SetMetrics(m)
	return h
}

// ProvideApp assembles the application.
func ProvideApp(cfg *config.Config, l *applogger.Logger, handler *api.ScanHandler, cache *scancache.Manager, archive repository.Archive, publisher repository.Publisher, m repository.Metrics) *server.App {
	return server.New(cfg, l, handler, cache, archive, publisher, m)
}

package di

import (
	"context"
	"errors"
	"testing"
	"time"

	"FinBot/internal/handler/discord"
	mid "FinBot/internal/middleware"
	internalrepo "FinBot/internal/repository"
	"FinBot/internal/service/finnhub"
	"FinBot/internal/usecase"
	"FinBot/pkg/cache"
	"FinBot/pkg/config"
	"FinBot/pkg/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte("discord:\n  token: t\nfinnhub:\n  api_key: k\n"))
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	return cfg
}

func TestOptionalInfrastructureDisabled(t *testing.T) {
	cfg := testConfig(t)

	if rc, err := ProvideRedisClient(cfg); rc != nil || err != nil {
		t.Fatalf("redis should be disabled: %v %v", rc, err)
	}
	if ch, err := ProvideClickHouseClient(cfg); ch != nil || err != nil {
		t.Fatalf("clickhouse should be disabled: %v %v", ch, err)
	}
	if _, ok := ProvideAuditStore(nil, nil).(internalrepo.NopAuditStore); !ok {
		t.Fatalf("expected no-op audit store")
	}
	if _, ok := ProvideEventPublisher(nil, cfg).(internalrepo.NopEventPublisher); !ok {
		t.Fatalf("expected no-op event publisher")
	}
	if _, ok := ProvideCacheStore(cfg, nil).(*cache.MemoryCache); !ok {
		t.Fatalf("expected memory cache without redis")
	}
	if ProvideStream(cfg, nil) != nil || ProvideHTTPServer(cfg, nil, nil, nil, nil, nil, nil) != nil {
		t.Fatalf("stream and http server should be disabled")
	}
}

func TestDispatchSelection(t *testing.T) {
	cfg := testConfig(t)
	proc := usecase.NewCommandProcessor(nil, nil, nil, nil, nil, nil, 0)
	limiter := ProvideLimiter(cfg)

	pipe := ProvidePipeline(cfg, proc, limiter, nil, nil)
	if pipe == nil {
		t.Fatalf("inline mode should build a pipeline")
	}
	if q := ProvideQueue(cfg, nil, proc, nil); q != nil {
		t.Fatalf("inline mode should not build a queue")
	}
	if d, ok := ProvideDispatcher(pipe, nil, proc, limiter, nil).(*mid.CommandPipeline); !ok || d != pipe {
		t.Fatalf("expected pipeline dispatcher")
	}
}

func TestAlertSinkSelection(t *testing.T) {
	cfg := testConfig(t)
	cfg.Movers.ChannelID = "movers"

	if _, ok := ProvideAlertSink(cfg, nil, nil).(*discord.ChannelSink); !ok {
		t.Fatalf("expected channel sink without kafka")
	}
	cfg.Kafka.Enabled = true
	if _, ok := ProvideAlertSink(cfg, nil, internalrepo.NopEventPublisher{}).(*internalrepo.KafkaAlertSink); !ok {
		t.Fatalf("expected kafka sink")
	}
}

func TestReadinessChecks(t *testing.T) {
	checks := readinessChecks(nil, nil, internalrepo.NopAuditStore{}, nil)
	if _, ok := checks["discord"]; !ok {
		t.Fatalf("discord check missing: %v", checks)
	}
	if _, ok := checks["finnhub_stream"]; ok {
		t.Fatalf("stream check registered without a stream")
	}

	stream := finnhub.NewStream(logger.NewNop(), "k", "ws://127.0.0.1:1", []string{"AAPL"}, time.Second, time.Second)
	checks = readinessChecks(nil, nil, internalrepo.NopAuditStore{}, stream)
	check, ok := checks["finnhub_stream"]
	if !ok {
		t.Fatalf("stream check missing: %v", checks)
	}
	if err := check(context.Background()); !errors.Is(err, finnhub.ErrStreamDisconnected) {
		t.Fatalf("stream check = %v", err)
	}
}

package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	drepo "FinBot/internal/domain/repository"
	"FinBot/internal/handler/discord"
	"FinBot/internal/middleware"
	"FinBot/internal/service/finnhub"
	"FinBot/internal/usecase"
	pkgch "FinBot/pkg/clickhouse"
	"FinBot/pkg/config"
	xhttp "FinBot/pkg/http"
	pkgkafka "FinBot/pkg/kafka"
	applogger "FinBot/pkg/logger"
	"FinBot/pkg/queue"

	"github.com/bwmarrin/discordgo"
	"github.com/redis/go-redis/v9"
)

// Deps lists everything the application starts or closes. Optional parts are
// nil when disabled in config.
type Deps struct {
	Config   *config.Config
	Logger   *applogger.Logger
	Session  *discordgo.Session
	Handler  *discord.Handler
	Pipeline *middleware.CommandPipeline
	Queue    *queue.RedisQueue
	Movers   *usecase.Movers
	Stream   *finnhub.Stream
	Consumer *pkgkafka.Consumer
	Alerts   *usecase.AlertHandler
	HTTP     *xhttp.Server
	Audit    drepo.AuditStore
	Events   drepo.EventPublisher
	CH       *pkgch.Client
	Redis    *redis.Client
}

// App encapsulates the entire application lifecycle.
type App struct {
	d   Deps
	l   *applogger.Logger
	bg  context.CancelFunc
	bgc context.Context
}

func New(d Deps) *App {
	l := d.Logger
	if l == nil {
		l = applogger.NewNop()
	}
	return &App{d: d, l: l}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	if err := a.start(); err != nil {
		_ = a.shutdown()
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh

	a.l.Info("shutdown signal received", applogger.String("signal", sig.String()))
	return a.shutdown()
}

func (a *App) start() error {
	a.bgc, a.bg = context.WithCancel(context.Background())

	if a.d.Audit != nil {
		ctx, cancel := context.WithTimeout(a.bgc, 10*time.Second)
		err := a.d.Audit.Init(ctx)
		cancel()
		if err != nil {
			a.l.Warn("audit schema init failed", applogger.Error(err))
		}
	}

	if a.d.HTTP != nil {
		if err := a.d.HTTP.Start(); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	switch {
	case a.d.Queue != nil:
		if err := a.d.Queue.Start(); err != nil {
			return fmt.Errorf("command queue: %w", err)
		}
	case a.d.Pipeline != nil:
		a.d.Pipeline.Start(context.Background())
	default:
		return fmt.Errorf("no command dispatcher configured")
	}

	a.d.Session.AddHandler(a.d.Handler.OnMessageCreate)
	if err := a.d.Session.Open(); err != nil {
		return fmt.Errorf("discord session: %w", err)
	}
	a.l.Info("discord session open", applogger.String("prefix", a.d.Config.Discord.Prefix))

	if a.d.Consumer != nil && a.d.Alerts != nil {
		a.d.Consumer.RegisterHandler(a.d.Alerts)
		if err := a.d.Consumer.Start(); err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
		a.l.Info("kafka consumer started", applogger.String("topic", a.d.Alerts.Topic()))
	}

	if a.d.Stream != nil {
		go a.d.Stream.Run(a.bgc)
	}
	if a.d.Movers != nil {
		go func() {
			if err := a.d.Movers.Run(a.bgc); err != nil && a.bgc.Err() == nil {
				a.l.Error("movers stopped", applogger.Error(err))
			}
		}()
		a.l.Info("movers started",
			applogger.String("source", a.d.Config.Movers.Source),
			applogger.Duration("interval", a.d.Config.Movers.Interval),
		)
	}
	return nil
}

// shutdown stops components in the reverse order of start.
func (a *App) shutdown() error {
	a.l.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), a.d.Config.Server.ShutdownTimeout)
	defer cancel()

	if a.bg != nil {
		a.bg()
	}
	if a.d.Stream != nil {
		_ = a.d.Stream.Close()
	}
	if a.d.Consumer != nil {
		if err := a.d.Consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	if err := a.d.Session.Close(); err != nil {
		a.l.Warn("discord session close error", applogger.Error(err))
	}
	if a.d.Queue != nil {
		if err := a.d.Queue.Stop(ctx); err != nil {
			a.l.Warn("command queue stop error", applogger.Error(err))
		}
	}
	if a.d.Pipeline != nil {
		a.d.Pipeline.Stop()
	}
	if a.d.HTTP != nil {
		if err := a.d.HTTP.Stop(ctx); err != nil {
			a.l.Error("http shutdown error", applogger.Error(err))
		}
	}

	if a.d.Events != nil {
		if err := a.d.Events.Close(); err != nil {
			a.l.Warn("event publisher close error", applogger.Error(err))
		}
	}
	if a.d.Audit != nil {
		_ = a.d.Audit.Close()
	}
	if a.d.CH != nil {
		if err := a.d.CH.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.d.Redis != nil {
		if err := a.d.Redis.Close(); err != nil {
			a.l.Warn("redis close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	a.l.RemoveCollector()
	return nil
}

package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"CreditScore/pkg/config"
	xhttp "CreditScore/pkg/http"
	pkgkafka "CreditScore/pkg/kafka"
	applogger "CreditScore/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler

	background []func(context.Context)
	bgWG       sync.WaitGroup
}

// New creates a new App instance with all dependencies. consumer and kh
// may be nil when Kafka ingestion is disabled. Each background task runs
// until the app shuts down and must return once its context is done.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	background ...func(context.Context),
) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{
		cfg:        cfg,
		l:          l,
		httpServer: httpServer,
		consumer:   consumer,
		kh:         kh,
		background: background,
	}
}

// Run starts the application and blocks until interrupted or ctx ends.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.consumer != nil && a.kh != nil {
		a.consumer.SetLogger(a.l)
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(); err != nil {
			a.l.Error("kafka consumer start error", applogger.Error(err))
			return fmt.Errorf("start consumer: %w", err)
		}
		a.l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	bgCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()
	for _, task := range a.background {
		a.bgWG.Add(1)
		go func(task func(context.Context)) {
			defer a.bgWG.Done()
			task(bgCtx)
		}(task)
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		stopBackground()
		a.bgWG.Wait()
		return err
	}
	a.l.Info("creditscore started",
		applogger.String("env", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("dataset", a.cfg.Dataset.Source),
	)

	var runErr error
	select {
	case <-ctx.Done():
		a.l.Info("shutdown signal received")
	case err := <-a.httpServer.Errors():
		a.l.Error("http server failed", applogger.Error(err))
		runErr = err
	}

	if err := a.shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	stopBackground()
	a.bgWG.Wait()
	return runErr
}

// shutdown stops inbound traffic first, then ingestion. Infrastructure
// clients are released by the injector cleanup.
func (a *App) shutdown() error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a.l.Info("shutting down...")
	var firstErr error

	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
		firstErr = err
	}

	if a.consumer != nil && a.kh != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	a.l.Info("shutdown complete")
	return firstErr
}

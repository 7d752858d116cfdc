package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"BarPulse/internal/agent"
	"BarPulse/internal/domain/repository"
	"BarPulse/internal/source/balanz"
	"BarPulse/internal/store"
	pkgch "BarPulse/pkg/clickhouse"
	"BarPulse/pkg/config"
	xhttp "BarPulse/pkg/http"
	applogger "BarPulse/pkg/logger"
)

// App owns the pipeline lifecycle: ingestion, aggregation, evaluation and
// the HTTP surface, started together and torn down in reverse order.
type App struct {
	cfg    *config.Config
	log    *applogger.Logger
	input  *store.InputStore
	data   *store.DataStore
	agent  *agent.Agent
	hist   *balanz.HistoryClient
	ch     *pkgch.Client
	fills  repository.FillRecorder
	quotes io.Closer

	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
}

// New assembles the app. hist, ch and quotes may be nil when the archive
// or the Redis cache are disabled.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	input *store.InputStore,
	data *store.DataStore,
	ag *agent.Agent,
	hist *balanz.HistoryClient,
	ch *pkgch.Client,
	fills repository.FillRecorder,
	quotes io.Closer,
) *App {
	return &App{
		cfg:    cfg,
		log:    log,
		input:  input,
		data:   data,
		agent:  ag,
		hist:   hist,
		ch:     ch,
		fills:  fills,
		quotes: quotes,
	}
}

// SetHTTPHandler lets DI inject the HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts every stage and blocks until an interrupt arrives.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.input.Start(ctx)
	a.log.Info("input store started")

	if err := a.data.Start(ctx); err != nil {
		a.log.Error("data store start error", applogger.Error(err))
		return err
	}
	a.log.Info("data store started", applogger.Any("timeframes", a.data.Timeframes()))

	a.agent.Start(ctx)
	a.log.Info("agent started")

	if a.hist != nil {
		go a.hist.Run(ctx,
			a.cfg.Archive.Underlying,
			a.cfg.Archive.OptionPrefix,
			a.cfg.Balanz.Plazo,
			a.cfg.Balanz.PollInterval,
		)
		a.log.Info("snapshot archiver started",
			applogger.String("underlying", a.cfg.Archive.Underlying))
	}

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// shutdown stops the HTTP server, then closes the sinks the pipeline
// writes to. The stages themselves stop via context cancellation.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.fills != nil {
		if err := a.fills.Close(); err != nil {
			a.log.Warn("fill recorder close error", applogger.Error(err))
		}
	}

	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	if a.quotes != nil {
		if err := a.quotes.Close(); err != nil {
			a.log.Warn("quote cache close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}

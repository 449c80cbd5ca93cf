package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/risk-monitor/internal/alerts"
	"github.com/dgnsrekt/risk-monitor/internal/broker"
	"github.com/dgnsrekt/risk-monitor/internal/config"
	"github.com/dgnsrekt/risk-monitor/internal/greeks"
	"github.com/dgnsrekt/risk-monitor/internal/monitor"
	"github.com/dgnsrekt/risk-monitor/internal/portfolio"
	"github.com/dgnsrekt/risk-monitor/internal/position"
	"github.com/dgnsrekt/risk-monitor/internal/risk"
	"github.com/dgnsrekt/risk-monitor/internal/server"
	"github.com/dgnsrekt/risk-monitor/internal/ws"
)

func runDaemon(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("configuration loaded",
		zap.Int("checkIntervalSec", cfg.Monitor.CheckIntervalSec),
		zap.Int("workers", cfg.Monitor.Workers),
		zap.Bool("serverEnabled", cfg.Server.Enabled),
	)

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	client := broker.NewClient(
		cfg.Broker.BaseURL,
		cfg.Broker.APIKey,
		cfg.Broker.RatePerSecond,
		time.Duration(cfg.Broker.TimeoutSec)*time.Second,
		time.Duration(cfg.Broker.RetryDelaySec)*time.Second,
		cfg.Broker.RetryCount,
		logger.Named("broker"),
	)

	cache := greeks.NewCache(
		client,
		time.Duration(cfg.Greeks.TTLSec)*time.Second,
		time.Duration(cfg.Greeks.FetchTimeoutSec)*time.Second,
		greeks.EstimatorParams{
			Volatility:   cfg.Greeks.Volatility,
			RiskFreeRate: cfg.Greeks.RiskFreeRate,
		},
		logger.Named("greeks"),
	)

	store := position.NewStore(logger.Named("positions"))
	dispatcher := alerts.NewDispatcher(logger.Named("alerts"))
	defer dispatcher.Close()

	aggregator := portfolio.NewAggregator(portfolio.Limits{
		DeltaNeutralRange: cfg.Portfolio.DeltaNeutralRange,
		GammaRiskLimit:    cfg.Portfolio.GammaRiskLimit,
		ThetaDecayAlert:   cfg.Portfolio.ThetaDecayAlert,
		VegaExposureLimit: cfg.Portfolio.VegaExposureLimit,
	}, logger.Named("portfolio"))

	engine := monitor.NewEngine(
		store,
		cache,
		aggregator,
		dispatcher,
		client,
		risk.Thresholds{
			EarlyAssignmentDelta: cfg.Risk.EarlyAssignmentDelta,
			PinRiskRange:         cfg.Risk.PinRiskRange,
			DividendRiskDays:     cfg.Risk.DividendRiskDays,
			CriticalDTE:          cfg.Risk.CriticalDTE,
			WarningDTE:           cfg.Risk.WarningDTE,
		},
		monitor.Options{
			Interval:  time.Duration(cfg.Monitor.CheckIntervalSec) * time.Second,
			Workers:   cfg.Monitor.Workers,
			AutoHedge: cfg.Monitor.AutoHedge,
		},
		logger.Named("monitor"),
	)

	// Wire alert sinks.
	if cfg.Alerts.Journal.Enabled {
		journal, err := alerts.NewJournal(cfg.Alerts.Journal.Path, logger.Named("journal"))
		if err != nil {
			return err
		}
		defer journal.Close()
		unsubscribe := dispatcher.SubscribeAll(journal.Record)
		defer unsubscribe()
	}

	notifier := alerts.NewNotifier(alerts.WebhookConfig{
		Enabled:  cfg.Alerts.Webhook.Enabled,
		Server:   cfg.Alerts.Webhook.Server,
		Topic:    cfg.Alerts.Webhook.Topic,
		Token:    cfg.Alerts.Webhook.Token,
		Priority: cfg.Alerts.Webhook.Priority,
		Tags:     cfg.Alerts.Webhook.Tags,
	}, logger.Named("webhook"))
	for _, kind := range []alerts.EventKind{alerts.EventPortfolioLimit, alerts.EventAutoClose, alerts.EventAutoHedge} {
		unsubscribe := dispatcher.Subscribe(kind, func(ev alerts.Event) {
			notifyCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			_ = notifier.Notify(notifyCtx, ev)
		})
		defer unsubscribe()
	}

	var hub *ws.Hub
	if cfg.Server.Enabled && cfg.Server.WSEnabled {
		hub = ws.NewHub(logger.Named("ws"))
		unsubscribe := hub.Attach(dispatcher)
		defer unsubscribe()
		go hub.Run(ctx)
	}

	var httpServer *http.Server
	if cfg.Server.Enabled {
		srv := server.New(engine, hub,
			time.Duration(cfg.Server.StreamIntervalSec)*time.Second,
			logger.Named("http"),
		)
		httpServer = &http.Server{
			Addr:    ":" + cfg.Server.Port,
			Handler: server.NewRouter(srv),
		}
		go func() {
			logger.Info("http server listening", zap.String("port", cfg.Server.Port))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server failed", zap.Error(err))
			}
		}()
	}

	cal := NewMarketCalendar("America/New_York")
	if cal.IsTradingDay(time.Now()) {
		engine.Start()
	} else {
		logger.Info("not a trading day, monitoring idle until the next session")
	}

	// Main loop: keep the engine aligned with the trading calendar.
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", zap.String("signal", sig.String()))
			shutdown(engine, httpServer, logger)
			return nil

		case <-ticker.C:
			trading := cal.IsTradingDay(time.Now())
			if trading && !engine.IsRunning() {
				logger.Info("trading day open, resuming monitoring")
				engine.Start()
			} else if !trading && engine.IsRunning() {
				logger.Info("non-trading day, pausing monitoring")
				engine.Stop()
			}

		case <-ctx.Done():
			shutdown(engine, httpServer, logger)
			return nil
		}
	}
}

func shutdown(engine *monitor.Engine, httpServer *http.Server, logger *zap.Logger) {
	engine.Stop()
	engine.Wait()

	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown failed", zap.Error(err))
		}
	}

	logger.Info("daemon stopped")
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"signal-enginev1/config"
	"signal-enginev1/internal/events"
	"signal-enginev1/internal/journal"
	"signal-enginev1/internal/logger"
	"signal-enginev1/internal/marketdata"
	"signal-enginev1/internal/metrics"
	"signal-enginev1/internal/model"
	"signal-enginev1/internal/notification"
	"signal-enginev1/internal/position"
	"signal-enginev1/internal/scheduler"
	signalpkg "signal-enginev1/internal/signal"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[engine] starting...")

	// ---- Load config from env ----
	cfg := config.Load()
	logger.Init("signal-engine", logger.ParseLevel(cfg.LogLevel))

	symbols := cfg.ParseSymbols()
	timeframes := cfg.ParseTimeframes()
	if len(symbols) == 0 || len(timeframes) == 0 {
		log.Fatalf("[engine] no symbols or timeframes configured")
	}
	zoneTF, ok := model.TimeframeByLabel(cfg.ZoneTimeframe)
	if !ok {
		log.Fatalf("[engine] unknown zone timeframe %q", cfg.ZoneTimeframe)
	}
	log.Printf("[engine] %d symbols, timeframes=%v, zones on %s", len(symbols), cfg.Timeframes, zoneTF.Label)

	// ---- Metrics & health ----
	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// ---- Context for graceful shutdown ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// ---- Trade journal (SQLite) ----
	os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755)
	jrnl, err := journal.Open(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[engine] journal init failed: %v", err)
	}
	defer jrnl.Close()
	log.Println("[engine] trade journal ready")

	// ---- Event publisher (Redis, optional) ----
	var pub *events.Publisher
	if cfg.RedisAddr != "" {
		health.SetRedisEnabled(true)
		pub, err = events.New(events.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			log.Printf("[engine] WARNING: redis init failed: %v (continuing without events)", err)
		}
	}

	// ---- Periodic liveness checks ----
	if pub != nil {
		health.StartLivenessChecker(ctx, pub.Client(), jrnl.DB(), 10*time.Second)
	} else {
		health.StartLivenessChecker(ctx, nil, jrnl.DB(), 10*time.Second)
	}

	// ---- Notifier (Telegram, or log fallback) ----
	var notifier notification.Notifier = notification.NewLogNotifier()
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		notifier = notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
		log.Println("[engine] telegram notifier ready")
	}

	// ---- Position manager ----
	payouts := position.DefaultPayouts()
	for label, frac := range cfg.ParsePayouts() {
		payouts[label] = frac
	}
	mgr := position.NewManager(position.Config{
		StartingBalance: model.Cents(cfg.StartingBalance),
		RiskFraction:    cfg.RiskFraction,
		MinStake:        model.Cents(cfg.MinStake),
		CooldownMinutes: cfg.CooldownMinutes,
		MaxTradesPerDay: cfg.MaxTradesPerDay,
		Payouts:         payouts,
	})
	prom.BalanceCents.Set(float64(mgr.Balance()))
	if maxID, err := jrnl.MaxTradeID(); err == nil {
		mgr.SeedNextID(maxID)
	}
	if n, err := jrnl.AbandonOpenTrades(time.Now()); err != nil {
		log.Printf("[engine] journal sweep: %v", err)
	} else if n > 0 {
		log.Printf("[engine] marked %d stale open trades abandoned", n)
	}

	mgr.OnOpen = func(t model.OpenTrade) {
		if err := jrnl.RecordOpen(t); err != nil {
			log.Printf("[engine] journal open: %v", err)
			prom.JournalErrors.Inc()
		}
		if pub != nil {
			pub.PublishOpen(ctx, t)
		}
		if err := notifier.TradeOpened(ctx, t); err != nil {
			log.Printf("[engine] notify open: %v", err)
		}
	}
	mgr.OnSettle = func(r model.TradeRecord) {
		if err := jrnl.RecordSettle(r); err != nil {
			log.Printf("[engine] journal settle: %v", err)
			prom.JournalErrors.Inc()
		}
		if pub != nil {
			pub.PublishSettle(ctx, r)
		}
		if err := notifier.TradeSettled(ctx, r); err != nil {
			log.Printf("[engine] notify settle: %v", err)
		}
	}
	mgr.OnDayRoll = func(s position.DaySummary) {
		if pub != nil {
			pub.PublishDaySummary(ctx, s)
		}
		if err := notifier.DaySummary(ctx, s); err != nil {
			log.Printf("[engine] notify summary: %v", err)
		}
	}

	// ---- Scorer ----
	scorerCfg := signalpkg.DefaultConfig()
	scorerCfg.RSIPeriod = cfg.RSIPeriod
	scorerCfg.RSIOverbought = cfg.RSIOverbought
	scorerCfg.RSIOversold = cfg.RSIOversold
	scorerCfg.ATRPeriod = cfg.ATRPeriod
	scorerCfg.ProximityMult = cfg.ProximityMult
	scorerCfg.MinConfluence = cfg.MinConfluence
	scorerCfg.EnableRSI = cfg.EnableRSI
	scorerCfg.EnableVolume = cfg.EnableVolume
	scorerCfg.EnablePattern = cfg.EnablePattern
	scorer := signalpkg.NewScorer(scorerCfg)

	// ---- Scheduler ----
	sched := scheduler.New(scheduler.Config{
		Symbols:         symbols,
		Timeframes:      timeframes,
		ZoneTimeframe:   zoneTF,
		LookbackMinutes: cfg.LookbackMins,
		PollInterval:    time.Duration(cfg.PollIntervalSec) * time.Second,
		PivotLeft:       cfg.PivotLeft,
		PivotRight:      cfg.PivotRight,
	}, marketdata.NewBinanceSource(), scorer, mgr)
	sched.SetMetrics(prom)
	sched.OnSignal = func(s *signalpkg.Signal) {
		if pub != nil {
			pub.PublishSignal(ctx, s)
		}
	}
	sched.OnTick = health.SetLastTickTime

	go sched.Run(ctx)
	log.Println("[engine] scheduler running")

	// ---- Wait for shutdown signal ----
	<-sigCh
	log.Println("[engine] shutdown signal received, cleaning up...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Stop(shutdownCtx)

	if pub != nil {
		pub.Close()
	}

	log.Println("[engine] shutdown complete.")
}

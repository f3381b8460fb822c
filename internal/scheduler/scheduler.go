// Package scheduler drives the engine: it polls candle history for every
// symbol, settles expired trades, and evaluates fresh signals. One tick is
// one full pass; within a tick all due settlements commit before any new
// trade opens, so freed balance and daily headroom are visible to the
// opens of the same tick.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"signal-enginev1/internal/marketdata"
	"signal-enginev1/internal/metrics"
	"signal-enginev1/internal/model"
	"signal-enginev1/internal/position"
	"signal-enginev1/internal/resample"
	"signal-enginev1/internal/signal"
	"signal-enginev1/internal/zone"
)

// Config holds the scheduler parameters.
type Config struct {
	Symbols         []string
	Timeframes      []model.Timeframe
	ZoneTimeframe   model.Timeframe
	LookbackMinutes int
	PollInterval    time.Duration
	PivotLeft       int
	PivotRight      int
}

// Scheduler polls, settles, and evaluates on a fixed interval.
type Scheduler struct {
	cfg      Config
	source   marketdata.Source
	scorer   *signal.Scorer
	manager  *position.Manager
	detector *zone.Detector
	metrics  *metrics.Metrics // may be nil in tests

	// OnSignal fires for the winning signal of an evaluation, before the
	// trade open is attempted. Runs on the tick goroutine.
	OnSignal func(*signal.Signal)

	// OnTick fires after each completed tick. Runs on the tick goroutine.
	OnTick func(time.Time)
}

// New creates a Scheduler.
func New(cfg Config, source marketdata.Source, scorer *signal.Scorer, manager *position.Manager) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		source:   source,
		scorer:   scorer,
		manager:  manager,
		detector: zone.New(cfg.PivotLeft, cfg.PivotRight),
	}
}

// SetMetrics attaches Prometheus metrics to the tick path.
func (s *Scheduler) SetMetrics(m *metrics.Metrics) { s.metrics = m }

// Run ticks once immediately, then on every PollInterval until ctx is
// cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	log.Printf("[scheduler] starting: %d symbols, %d timeframes, poll every %s",
		len(s.cfg.Symbols), len(s.cfg.Timeframes), s.cfg.PollInterval)

	s.Tick(ctx)

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Printf("[scheduler] stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick executes one full pass: fetch all symbols concurrently, settle
// every due trade, then evaluate and open.
func (s *Scheduler) Tick(ctx context.Context) {
	start := time.Now()

	series := s.fetchAll(ctx)

	// Settle phase commits before any evaluation so a freed slot or
	// credited balance is usable by this tick's opens.
	for i, sym := range s.cfg.Symbols {
		if len(series[i]) == 0 {
			continue
		}
		s.settleDue(sym, series[i])
	}
	for i, sym := range s.cfg.Symbols {
		if len(series[i]) == 0 {
			continue
		}
		s.evaluateSymbol(sym, series[i])
	}

	if s.metrics != nil {
		s.metrics.TicksTotal.Inc()
		s.metrics.TickDur.Observe(time.Since(start).Seconds())
		s.metrics.BalanceCents.Set(float64(s.manager.Balance()))
		s.metrics.OpenTrades.Set(float64(s.manager.OpenCount()))
	}
	if s.OnTick != nil {
		s.OnTick(time.Now())
	}
}

// fetchAll fetches every symbol's 1m history concurrently. A failed fetch
// degrades to an empty series; the symbol is skipped for this tick.
func (s *Scheduler) fetchAll(ctx context.Context) [][]model.Candle {
	series := make([][]model.Candle, len(s.cfg.Symbols))

	var wg sync.WaitGroup
	for i, sym := range s.cfg.Symbols {
		wg.Add(1)
		go func(i int, sym string) {
			defer wg.Done()
			candles, err := s.source.Candles(ctx, sym, s.cfg.LookbackMinutes)
			if err != nil {
				log.Printf("[scheduler] fetch %s: %v", sym, err)
				if s.metrics != nil {
					s.metrics.FetchErrors.WithLabelValues(sym).Inc()
				}
				return
			}
			series[i] = candles
		}(i, sym)
	}
	wg.Wait()
	return series
}

// settleDue settles every expired trade on the symbol. Exit price is the
// close of the first candle of the trade's timeframe at or after expiry,
// falling back to the latest close when expiry is beyond the series.
func (s *Scheduler) settleDue(symbol string, candles []model.Candle) {
	for _, tf := range s.cfg.Timeframes {
		due := s.manager.DueTrades(symbol, tf.Label)
		if len(due) == 0 {
			continue
		}
		series := resample.Aggregate(candles, tf)
		if len(series) == 0 {
			continue
		}
		for _, t := range due {
			exit := exitPrice(series, t.ExpireTime)
			rec, ok := s.manager.Settle(t.ID, exit)
			if !ok {
				continue
			}
			if s.metrics != nil {
				s.metrics.TradesSettled.WithLabelValues(string(rec.Outcome)).Inc()
			}
		}
	}
}

// exitPrice returns the close of the first candle whose open time is at
// or after expire, or the latest close when none is.
func exitPrice(candles []model.Candle, expire time.Time) float64 {
	expireMs := expire.UnixMilli()
	for _, c := range candles {
		if c.Time >= expireMs {
			return c.Close
		}
	}
	return candles[len(candles)-1].Close
}

// evaluateSymbol detects zones once per symbol, then scores both
// directions on each timeframe and opens the winning signal's trade.
func (s *Scheduler) evaluateSymbol(symbol string, candles []model.Candle) {
	zones := s.detector.Detect(resample.Aggregate(candles, s.cfg.ZoneTimeframe))

	for _, tf := range s.cfg.Timeframes {
		if !s.manager.CanTrade(symbol, tf.Label) {
			continue
		}

		series := resample.Aggregate(candles, tf)
		up := s.scorer.Evaluate(symbol, tf, series, zones, model.DirectionUp)
		down := s.scorer.Evaluate(symbol, tf, series, zones, model.DirectionDown)
		if s.metrics != nil {
			s.metrics.SignalsEvaluated.Add(2)
		}

		pick := signal.Pick(up, down)
		if pick == nil {
			continue
		}
		if s.metrics != nil {
			s.metrics.SignalsAccepted.WithLabelValues(string(pick.Direction)).Inc()
		}
		log.Printf("[scheduler] signal %s %s %s score=%d", pick.Symbol, pick.Timeframe, pick.Direction, pick.Score)
		if s.OnSignal != nil {
			s.OnSignal(pick)
		}

		if _, err := s.manager.Open(symbol, tf, pick.Direction, pick.Price); err != nil {
			log.Printf("[scheduler] open %s %s: %v", symbol, tf.Label, err)
			continue
		}
		if s.metrics != nil {
			s.metrics.TradesOpened.WithLabelValues(symbol, tf.Label).Inc()
		}
	}
}

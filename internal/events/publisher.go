// Package events publishes engine events to Redis pub/sub for dashboards
// and downstream consumers. Publishing is fire-and-forget: errors are
// logged, never propagated, and never affect trading state.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"signal-enginev1/internal/model"
	"signal-enginev1/internal/position"
	"signal-enginev1/internal/signal"
)

// Config configures the Redis publisher.
type Config struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// Publisher writes signals and trade events to Redis pub/sub channels.
type Publisher struct {
	client *goredis.Client
}

// Client returns the underlying Redis client for health checks.
func (p *Publisher) Client() *goredis.Client { return p.client }

// New creates a Publisher and pings the server.
func New(cfg Config) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[events] connected to %s", cfg.Addr)
	return &Publisher{client: client}, nil
}

// PublishSignal publishes an accepted signal to pub:signal:<symbol>:<tf>.
func (p *Publisher) PublishSignal(ctx context.Context, s *signal.Signal) {
	ch := "pub:signal:" + s.Symbol + ":" + s.Timeframe
	p.publish(ctx, ch, s)
}

// PublishOpen publishes a trade open to pub:trade:open.
func (p *Publisher) PublishOpen(ctx context.Context, t model.OpenTrade) {
	p.publish(ctx, "pub:trade:open", t)
}

// PublishSettle publishes a settled trade to pub:trade:settle.
func (p *Publisher) PublishSettle(ctx context.Context, r model.TradeRecord) {
	p.publish(ctx, "pub:trade:settle", r)
}

// PublishDaySummary publishes the end-of-day summary to pub:day:summary.
func (p *Publisher) PublishDaySummary(ctx context.Context, s position.DaySummary) {
	p.publish(ctx, "pub:day:summary", s)
}

func (p *Publisher) publish(ctx context.Context, channel string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("[events] marshal for %s: %v", channel, err)
		return
	}
	if err := p.client.Publish(ctx, channel, string(data)).Err(); err != nil {
		log.Printf("[events] publish %s: %v", channel, err)
	}
}

// Close closes the Redis client.
func (p *Publisher) Close() error {
	return p.client.Close()
}

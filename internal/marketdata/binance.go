package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"

	"signal-enginev1/internal/model"
)

// pageLimit is Binance's maximum klines per request.
const pageLimit = 1000

// BinanceSource fetches 1-minute klines from the Binance REST API.
// Public market data needs no credentials.
type BinanceSource struct {
	client *binance.Client
}

// NewBinanceSource creates a BinanceSource.
func NewBinanceSource() *BinanceSource {
	return &BinanceSource{client: binance.NewClient("", "")}
}

// Candles fetches the trailing lookbackMinutes of 1m klines, paging in
// pageLimit chunks for lookbacks past one request.
func (b *BinanceSource) Candles(ctx context.Context, symbol string, lookbackMinutes int) ([]model.Candle, error) {
	start := time.Now().Add(-time.Duration(lookbackMinutes) * time.Minute).UnixMilli()

	out := make([]model.Candle, 0, lookbackMinutes)
	for {
		klines, err := b.client.NewKlinesService().
			Symbol(symbol).
			Interval("1m").
			StartTime(start).
			Limit(pageLimit).
			Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("binance klines %s: %w", symbol, err)
		}
		if len(klines) == 0 {
			break
		}

		for _, k := range klines {
			c, err := toCandle(k)
			if err != nil {
				return nil, fmt.Errorf("binance klines %s: %w", symbol, err)
			}
			out = append(out, c)
		}

		if len(klines) < pageLimit {
			break
		}
		start = klines[len(klines)-1].OpenTime + 60_000
	}
	return out, nil
}

// toCandle parses the string-typed kline fields into a model.Candle.
func toCandle(k *binance.Kline) (model.Candle, error) {
	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return model.Candle{}, fmt.Errorf("parse open %q: %w", k.Open, err)
	}
	high, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return model.Candle{}, fmt.Errorf("parse high %q: %w", k.High, err)
	}
	low, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return model.Candle{}, fmt.Errorf("parse low %q: %w", k.Low, err)
	}
	close_, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return model.Candle{}, fmt.Errorf("parse close %q: %w", k.Close, err)
	}
	volume, err := strconv.ParseFloat(k.Volume, 64)
	if err != nil {
		return model.Candle{}, fmt.Errorf("parse volume %q: %w", k.Volume, err)
	}
	return model.Candle{
		Time:   k.OpenTime,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close_,
		Volume: volume,
	}, nil
}

// Package marketdata supplies 1-minute candle history for the engine.
package marketdata

import (
	"context"

	"signal-enginev1/internal/model"
)

// Source supplies ascending 1-minute candles for a symbol. Implementations
// return an error instead of partial data; the scheduler degrades an
// errored fetch to an empty series and skips the symbol for that tick.
type Source interface {
	Candles(ctx context.Context, symbol string, lookbackMinutes int) ([]model.Candle, error)
}

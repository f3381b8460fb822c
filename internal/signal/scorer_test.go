package signal

import (
	"testing"

	"signal-enginev1/internal/model"
	"signal-enginev1/internal/zone"
)

var tf5m, _ = model.TimeframeByLabel("5m")

// bearishSetup builds a steadily rising series that ends in a high-volume
// shooting star at a resistance level: all four Down checks satisfied.
func bearishSetup() ([]model.Candle, []zone.Zone) {
	var candles []model.Candle
	for i := 0; i < 29; i++ {
		close_ := 100 + float64(i)
		candles = append(candles, model.Candle{
			Time:   int64(i) * 300_000,
			Open:   close_ - 0.5,
			High:   close_ + 0.5,
			Low:    close_ - 1,
			Close:  close_,
			Volume: 10,
		})
	}
	// Shooting star: small bearish body, long upper wick, volume spike.
	candles = append(candles, model.Candle{
		Time:   29 * 300_000,
		Open:   128.4,
		High:   131,
		Low:    128.1,
		Close:  128.2,
		Volume: 50,
	})
	zones := []zone.Zone{{Kind: zone.Resistance, Price: 131}}
	return candles, zones
}

func TestEvaluate_FullConfluenceDown(t *testing.T) {
	s := NewScorer(DefaultConfig())
	candles, zones := bearishSetup()

	sig := s.Evaluate("BTCUSDT", tf5m, candles, zones, model.DirectionDown)
	if sig == nil {
		t.Fatal("expected a signal, got nil")
	}
	if sig.Score != 4 {
		t.Errorf("expected score 4, got %d (%+v)", sig.Score, sig.Checks)
	}
	if !sig.Accepted {
		t.Error("expected signal accepted")
	}
	if sig.Price != 128.2 {
		t.Errorf("expected price 128.2, got %v", sig.Price)
	}
}

func TestEvaluate_OppositeDirectionRejected(t *testing.T) {
	s := NewScorer(DefaultConfig())
	candles, zones := bearishSetup()

	up := s.Evaluate("BTCUSDT", tf5m, candles, zones, model.DirectionUp)
	if up == nil {
		t.Fatal("expected a signal, got nil")
	}
	// Only the direction-agnostic volume anomaly holds for Up.
	if up.Score != 1 {
		t.Errorf("expected score 1, got %d (%+v)", up.Score, up.Checks)
	}
	if up.Accepted {
		t.Error("did not expect Up accepted")
	}
}

func TestEvaluate_InsufficientHistory(t *testing.T) {
	s := NewScorer(DefaultConfig())
	candles, zones := bearishSetup()

	if sig := s.Evaluate("BTCUSDT", tf5m, candles[:20], zones, model.DirectionDown); sig != nil {
		t.Errorf("expected nil for 20 candles, got %+v", sig)
	}
}

func TestEvaluate_DisabledChecksCountAsSatisfied(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableRSI = false
	cfg.EnableVolume = false
	cfg.EnablePattern = false
	s := NewScorer(cfg)

	candles, _ := bearishSetup()

	// No zones: proximity fails, but the three disabled checks pass.
	sig := s.Evaluate("BTCUSDT", tf5m, candles, nil, model.DirectionDown)
	if sig == nil {
		t.Fatal("expected a signal, got nil")
	}
	if sig.Score != 3 {
		t.Errorf("expected score 3 from disabled checks, got %d", sig.Score)
	}
	if !sig.Accepted {
		t.Error("expected accepted at min confluence 3")
	}
	for _, c := range sig.Checks {
		if !c.Enabled && !c.Satisfied {
			t.Errorf("disabled check %s should be satisfied", c.Name)
		}
	}
}

func TestEvaluate_ChecksAreDiagnosed(t *testing.T) {
	s := NewScorer(DefaultConfig())
	candles, zones := bearishSetup()

	sig := s.Evaluate("BTCUSDT", tf5m, candles, zones, model.DirectionDown)
	if sig == nil {
		t.Fatal("expected a signal")
	}
	want := []string{"zone_proximity", "rsi_extreme", "volume_anomaly", "reversal_pattern"}
	if len(sig.Checks) != len(want) {
		t.Fatalf("expected %d checks, got %d", len(want), len(sig.Checks))
	}
	for i, name := range want {
		if sig.Checks[i].Name != name {
			t.Errorf("check %d: expected %s, got %s", i, name, sig.Checks[i].Name)
		}
	}
}

func TestPick(t *testing.T) {
	up := &Signal{Direction: model.DirectionUp, Score: 4, Accepted: true}
	down := &Signal{Direction: model.DirectionDown, Score: 3, Accepted: true}

	if got := Pick(up, down); got != up {
		t.Errorf("expected higher score to win, got %+v", got)
	}
	if got := Pick(nil, down); got != down {
		t.Errorf("expected sole accepted signal, got %+v", got)
	}
	if got := Pick(up, nil); got != up {
		t.Errorf("expected sole accepted signal, got %+v", got)
	}

	rejected := &Signal{Direction: model.DirectionDown, Score: 2, Accepted: false}
	if got := Pick(nil, rejected); got != nil {
		t.Errorf("expected nil for rejected signal, got %+v", got)
	}

	// Exact tie between accepted opposites: stand aside.
	tied := &Signal{Direction: model.DirectionDown, Score: 4, Accepted: true}
	if got := Pick(up, tied); got != nil {
		t.Errorf("expected nil on exact tie, got %+v", got)
	}
}

package store

import (
	"context"
	"testing"
	"time"

	"BarPulse/internal/domain/keys"
	"BarPulse/internal/domain/models"
	"BarPulse/internal/indicator"
	"BarPulse/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordTick(string)                 {}
func (nopMetrics) RecordBar(int)                     {}
func (nopMetrics) RecordIndicatorRow(string)         {}
func (nopMetrics) RecordStrategyEval(string, string) {}
func (nopMetrics) RecordError(string)                {}
func (nopMetrics) RecordLastPrice(string, float64)   {}
func (nopMetrics) RecordLatency(string, float64)     {}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

var dsAsset = models.Asset{Ticker: "GGAL", Identifier: "GGAL", Source: models.SourceBalanzWebsocket}

func newTestDataStore(t *testing.T, cfg indicator.Config) *DataStore {
	t.Helper()
	def, err := indicator.NewDefinition(indicator.SMA{}, []models.Asset{dsAsset}, []indicator.Config{cfg})
	if err != nil {
		t.Fatalf("definition: %v", err)
	}
	ds, err := NewDataStore(
		[]*indicator.Definition{def},
		NewSeries[models.Tick](0),
		NewSeries[models.Bar](0),
		NewSeries[models.IndicatorRow](0),
		nopMetrics{},
		testLogger(t),
	)
	if err != nil {
		t.Fatalf("data store: %v", err)
	}
	return ds
}

func smaConfig(tf, minLength int) indicator.Config {
	return indicator.Config{
		Timeframe: tf,
		MinLength: minLength,
		Params:    map[string]string{"sma_length": "2"},
	}
}

func TestRunCycleBuildsOHLCVBar(t *testing.T) {
	ds := newTestDataStore(t, smaConfig(60, 5))
	now := time.Now()
	rawKey := keys.Raw(dsAsset)
	ds.raw.Append(rawKey,
		models.Tick{Time: now.Add(-30 * time.Second), LastPrice: 10, Volume: 1},
		models.Tick{Time: now.Add(-20 * time.Second), LastPrice: 11, Volume: 2},
		models.Tick{Time: now.Add(-10 * time.Second), LastPrice: 9, Volume: 3},
	)

	ds.runCycle(context.Background(), 60)

	barKey := keys.Bar(60, dsAsset)
	bar, ok := ds.bars.Last(barKey)
	if !ok {
		t.Fatal("no bar after cycle")
	}
	if bar.Open != 10 || bar.High != 11 || bar.Low != 9 || bar.Close != 9 {
		t.Errorf("OHLC = %v/%v/%v/%v, want 10/11/9/9", bar.Open, bar.High, bar.Low, bar.Close)
	}
	if bar.Volume != 6 {
		t.Errorf("Volume = %v, want 6", bar.Volume)
	}
	if bar.Low > bar.Open || bar.Open > bar.High || bar.Low > bar.Close || bar.Close > bar.High {
		t.Errorf("bar bounds violated: %+v", bar)
	}
}

func TestRunCycleExcludesTicksOutsideWindow(t *testing.T) {
	ds := newTestDataStore(t, smaConfig(60, 5))
	now := time.Now()
	rawKey := keys.Raw(dsAsset)
	ds.raw.Append(rawKey,
		models.Tick{Time: now.Add(-5 * time.Minute), LastPrice: 100, Volume: 50},
		models.Tick{Time: now.Add(-10 * time.Second), LastPrice: 9, Volume: 3},
	)

	ds.runCycle(context.Background(), 60)

	bar, ok := ds.bars.Last(keys.Bar(60, dsAsset))
	if !ok {
		t.Fatal("no bar after cycle")
	}
	if bar.Open != 9 || bar.High != 9 || bar.Volume != 3 {
		t.Errorf("stale tick leaked into window: %+v", bar)
	}
}

func TestRunCycleEmptyWindowNoPriorBarEmitsNothing(t *testing.T) {
	ds := newTestDataStore(t, smaConfig(60, 5))
	ds.raw.Append(keys.Raw(dsAsset),
		models.Tick{Time: time.Now().Add(-time.Hour), LastPrice: 10, Volume: 1})

	ds.runCycle(context.Background(), 60)

	barKey := keys.Bar(60, dsAsset)
	if !ds.bars.Has(barKey) {
		t.Fatal("bar key not registered")
	}
	if got := ds.bars.Len(barKey); got != 0 {
		t.Errorf("bar rows = %d, want 0", got)
	}
}

func TestRunCycleEmptyWindowCarriesLastBarForward(t *testing.T) {
	ds := newTestDataStore(t, smaConfig(60, 5))
	now := time.Now()
	rawKey := keys.Raw(dsAsset)
	ds.raw.Append(rawKey, models.Tick{Time: now.Add(-10 * time.Second), LastPrice: 10, Volume: 1})

	ds.runCycle(context.Background(), 60)

	// Age the only tick out of the window and fire again.
	barKey := keys.Bar(60, dsAsset)
	first, _ := ds.bars.Last(barKey)
	ds.raw = NewSeries[models.Tick](0)
	ds.raw.Append(rawKey, models.Tick{Time: now.Add(-time.Hour), LastPrice: 99, Volume: 9})

	ds.runCycle(context.Background(), 60)

	if got := ds.bars.Len(barKey); got != 2 {
		t.Fatalf("bar rows = %d, want 2", got)
	}
	second, _ := ds.bars.Last(barKey)
	if second != first {
		t.Errorf("carried bar changed: %+v vs %+v", second, first)
	}
}

func TestIndicatorSkippedUntilMinLength(t *testing.T) {
	cfg := smaConfig(60, 3)
	ds := newTestDataStore(t, cfg)
	rawKey := keys.Raw(dsAsset)
	indKey := keys.Indicator(60, dsAsset, "SMA", cfg.Signature())

	// Two firings with fresh ticks: 2 bars < MinLength 3, no indicator rows.
	for i := 0; i < 2; i++ {
		ds.raw.Append(rawKey, models.Tick{Time: time.Now(), LastPrice: float64(10 + i), Volume: 1})
		ds.runCycle(context.Background(), 60)
	}
	if !ds.indicators.Has(indKey) {
		t.Fatal("indicator key not registered")
	}
	if got := ds.indicators.Len(indKey); got != 0 {
		t.Fatalf("indicator rows before min_length = %d, want 0", got)
	}

	// Third firing reaches MinLength; one row appears.
	ds.raw.Append(rawKey, models.Tick{Time: time.Now(), LastPrice: 12, Volume: 1})
	ds.runCycle(context.Background(), 60)
	if got := ds.indicators.Len(indKey); got != 1 {
		t.Fatalf("indicator rows at min_length = %d, want 1", got)
	}

	row, _ := ds.indicators.Last(indKey)
	if _, ok := row.Values["SMA_2"]; !ok {
		t.Errorf("row missing SMA_2 column: %v", row.Values)
	}
}

func TestPlanDeduplicatesSharedBarJobs(t *testing.T) {
	cfg := smaConfig(60, 5)
	defA, err := indicator.NewDefinition(indicator.SMA{}, []models.Asset{dsAsset}, []indicator.Config{cfg})
	if err != nil {
		t.Fatalf("definition: %v", err)
	}
	defB, err := indicator.NewDefinition(stubIndicator{}, []models.Asset{dsAsset}, []indicator.Config{cfg})
	if err != nil {
		t.Fatalf("definition: %v", err)
	}

	ds, err := NewDataStore(
		[]*indicator.Definition{defA, defB},
		NewSeries[models.Tick](0),
		NewSeries[models.Bar](0),
		NewSeries[models.IndicatorRow](0),
		nopMetrics{},
		testLogger(t),
	)
	if err != nil {
		t.Fatalf("data store: %v", err)
	}

	p := ds.plan[60]
	if got := len(p.bars); got != 1 {
		t.Errorf("bar jobs = %d, want 1 (shared asset, shared timeframe)", got)
	}
	if got := len(p.indicators); got != 2 {
		t.Errorf("indicator jobs = %d, want 2", got)
	}
}

type stubIndicator struct{}

func (stubIndicator) Kind() string { return "STUB" }

func (stubIndicator) Compute(window []models.Bar, cfg indicator.Config) (models.IndicatorRow, error) {
	return models.IndicatorRow{
		Time:   window[len(window)-1].Time,
		Values: map[string]float64{"STUB": window[len(window)-1].Close},
	}, nil
}

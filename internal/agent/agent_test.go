package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BarPulse/internal/domain/keys"
	"BarPulse/internal/domain/models"
	"BarPulse/internal/indicator"
	"BarPulse/internal/portfolio"
	"BarPulse/internal/store"
	"BarPulse/internal/strategy"
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

type nopExec struct{}

func (nopExec) Buy(ctx context.Context, identifier string, price float64, quantity int64) error {
	return nil
}

func (nopExec) Sell(ctx context.Context, identifier string, price float64, quantity int64) error {
	return nil
}

type recordingEvaluator struct {
	name  string
	calls int
	last  struct {
		raw            map[string][]models.Tick
		bars           map[string][]models.Bar
		indicators     map[string][]models.IndicatorRow
		timeframeNames map[int][]string
	}
	panicOn bool
}

func (e *recordingEvaluator) Name() string { return e.name }

func (e *recordingEvaluator) Evaluate(ctx context.Context,
	raw map[string][]models.Tick,
	bars map[string][]models.Bar,
	indicators map[string][]models.IndicatorRow,
	timeframeNames map[int][]string) error {
	e.calls++
	e.last.raw = raw
	e.last.bars = bars
	e.last.indicators = indicators
	e.last.timeframeNames = timeframeNames
	if e.panicOn {
		panic("defective strategy")
	}
	return nil
}

var (
	testAsset = models.Asset{Ticker: "GGAL", Identifier: "GGAL", Source: models.SourceBalanzWebsocket, Alias: "bank"}
	testCfg   = indicator.Config{Timeframe: 60, MinLength: 3, Params: map[string]string{"sma_length": "2"}}
)

type fixture struct {
	agent      *Agent
	eval       *recordingEvaluator
	raw        *store.Series[models.Tick]
	bars       *store.Series[models.Bar]
	indicators *store.Series[models.IndicatorRow]
}

func newFixture(t *testing.T, panicOn bool) *fixture {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stderr"})
	require.NoError(t, err)

	def, err := indicator.NewDefinition(indicator.SMA{}, []models.Asset{testAsset}, []indicator.Config{testCfg})
	require.NoError(t, err)

	pf, err := portfolio.New("test", 1000, nopExec{}, nil, log)
	require.NoError(t, err)

	eval := &recordingEvaluator{name: "rec", panicOn: panicOn}
	st, err := strategy.New(eval, []*indicator.Definition{def}, pf)
	require.NoError(t, err)

	raw := store.NewSeries[models.Tick](0)
	bars := store.NewSeries[models.Bar](0)
	indicators := store.NewSeries[models.IndicatorRow](0)

	a := New([]*strategy.Strategy{st}, raw, bars, indicators, make(chan string), nopMetrics{}, log)
	return &fixture{agent: a, eval: eval, raw: raw, bars: bars, indicators: indicators}
}

func (f *fixture) fill() {
	now := time.Now()
	f.raw.Append(keys.Raw(testAsset), models.Tick{Time: now, LastPrice: 10, Volume: 1})
	f.bars.Append(keys.Bar(60, testAsset), models.Bar{Time: now, Open: 10, High: 10, Low: 10, Close: 10, Volume: 1})
	f.indicators.Append(keys.Indicator(60, testAsset, "SMA", testCfg.Signature()),
		models.IndicatorRow{Time: now, Values: map[string]float64{"SMA_2": 10}})
}

func TestEvaluateSkippedWhileKeysMissing(t *testing.T) {
	f := newFixture(t, false)
	key := keys.Notify(testAsset)

	// Nothing exists yet.
	f.agent.evaluate(context.Background(), f.agent.strategies[key][0], key)
	assert.Equal(t, 0, f.eval.calls)

	// Raw and bars alone are not enough.
	f.raw.Append(keys.Raw(testAsset), models.Tick{Time: time.Now(), LastPrice: 10})
	f.bars.Ensure(keys.Bar(60, testAsset))
	f.agent.evaluate(context.Background(), f.agent.strategies[key][0], key)
	assert.Equal(t, 0, f.eval.calls)

	// All three keys present: evaluation resumes.
	f.indicators.Ensure(keys.Indicator(60, testAsset, "SMA", testCfg.Signature()))
	f.agent.evaluate(context.Background(), f.agent.strategies[key][0], key)
	assert.Equal(t, 1, f.eval.calls)
}

func TestEvaluateJoinsUnderAliasPrefix(t *testing.T) {
	f := newFixture(t, false)
	f.fill()
	key := keys.Notify(testAsset)

	f.agent.evaluate(context.Background(), f.agent.strategies[key][0], key)

	require.Equal(t, 1, f.eval.calls)
	assert.Contains(t, f.eval.last.raw, "bank")
	assert.Contains(t, f.eval.last.bars, "60#bank")
	assert.Contains(t, f.eval.last.indicators, "60#bank#SMA")
	assert.Equal(t, []string{"bank"}, f.eval.last.timeframeNames[60])
}

func TestEvaluateBoundsRawWindow(t *testing.T) {
	f := newFixture(t, false)
	f.fill()
	for i := 0; i < 10; i++ {
		f.raw.Append(keys.Raw(testAsset), models.Tick{Time: time.Now(), LastPrice: float64(i)})
	}
	key := keys.Notify(testAsset)

	f.agent.evaluate(context.Background(), f.agent.strategies[key][0], key)

	require.Equal(t, 1, f.eval.calls)
	assert.Len(t, f.eval.last.raw["bank"], rawWindow)
}

func TestEvaluateContainsStrategyPanic(t *testing.T) {
	f := newFixture(t, true)
	f.fill()
	key := keys.Notify(testAsset)

	assert.NotPanics(t, func() {
		f.agent.evaluate(context.Background(), f.agent.strategies[key][0], key)
	})
	assert.Equal(t, 1, f.eval.calls)
}

func TestListenStopsOnContextCancel(t *testing.T) {
	f := newFixture(t, false)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		f.agent.listen(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listen did not stop on cancel")
	}
}

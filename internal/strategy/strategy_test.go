package strategy

import (
	"context"
	"errors"
	"testing"

	"BarPulse/internal/domain/models"
	"BarPulse/internal/indicator"
	"BarPulse/internal/portfolio"
	"BarPulse/pkg/logger"
)

type nopExec struct{}

func (nopExec) Buy(ctx context.Context, identifier string, price float64, quantity int64) error {
	return nil
}

func (nopExec) Sell(ctx context.Context, identifier string, price float64, quantity int64) error {
	return nil
}

type nopEvaluator struct{ name string }

func (e nopEvaluator) Name() string { return e.name }

func (e nopEvaluator) Evaluate(ctx context.Context,
	raw map[string][]models.Tick,
	bars map[string][]models.Bar,
	indicators map[string][]models.IndicatorRow,
	timeframeNames map[int][]string) error {
	return nil
}

func testPortfolio(t *testing.T) *portfolio.Portfolio {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	p, err := portfolio.New("test", 1000, nopExec{}, nil, log)
	if err != nil {
		t.Fatalf("portfolio: %v", err)
	}
	return p
}

func mustDefinition(t *testing.T, impl indicator.Indicator, assets ...models.Asset) *indicator.Definition {
	t.Helper()
	def, err := indicator.NewDefinition(impl, assets, []indicator.Config{
		{Timeframe: 60, MinLength: 5, Params: map[string]string{"sma_length": "3"}},
	})
	if err != nil {
		t.Fatalf("definition: %v", err)
	}
	return def
}

type otherIndicator struct{ indicator.SMA }

func (otherIndicator) Kind() string { return "OTHER" }

func TestNewRejectsDuplicateIndicatorKinds(t *testing.T) {
	a := models.Asset{Ticker: "GGAL", Source: models.SourceBalanzWebsocket}
	defs := []*indicator.Definition{
		mustDefinition(t, indicator.SMA{}, a),
		mustDefinition(t, indicator.SMA{}, a),
	}
	_, err := New(nopEvaluator{name: "s"}, defs, testPortfolio(t))
	if !errors.Is(err, models.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}

func TestNewRejectsAliasBoundToTwoTickers(t *testing.T) {
	a := models.Asset{Ticker: "GGAL", Source: models.SourceBalanzWebsocket, Alias: "bank"}
	b := models.Asset{Ticker: "BMA", Source: models.SourceBalanzWebsocket, Alias: "bank"}
	defs := []*indicator.Definition{
		mustDefinition(t, indicator.SMA{}, a),
		mustDefinition(t, otherIndicator{}, b),
	}
	_, err := New(nopEvaluator{name: "s"}, defs, testPortfolio(t))
	if !errors.Is(err, models.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}

func TestNewAcceptsSharedAliasForSameTicker(t *testing.T) {
	a := models.Asset{Ticker: "GGAL", Source: models.SourceBalanzWebsocket, Alias: "bank"}
	defs := []*indicator.Definition{
		mustDefinition(t, indicator.SMA{}, a),
		mustDefinition(t, otherIndicator{}, a),
	}
	if _, err := New(nopEvaluator{name: "s"}, defs, testPortfolio(t)); err != nil {
		t.Fatalf("New: %v", err)
	}
}

func TestAssetsDeduplicatesByIdentity(t *testing.T) {
	a := models.Asset{Ticker: "GGAL", Source: models.SourceBalanzWebsocket}
	b := models.Asset{Ticker: "BMA", Source: models.SourceBalanzWebsocket}
	s1, err := New(nopEvaluator{name: "s1"},
		[]*indicator.Definition{mustDefinition(t, indicator.SMA{}, a, b)}, testPortfolio(t))
	if err != nil {
		t.Fatalf("New s1: %v", err)
	}
	s2, err := New(nopEvaluator{name: "s2"},
		[]*indicator.Definition{mustDefinition(t, indicator.SMA{}, a)}, testPortfolio(t))
	if err != nil {
		t.Fatalf("New s2: %v", err)
	}

	got := Assets([]*Strategy{s1, s2})
	if len(got) != 2 {
		t.Fatalf("Assets() returned %d assets, want 2", len(got))
	}
}

// Package agent drives strategy evaluation. Every stored tick's key
// arrives on the notification channel; the agent joins the three tables
// for each dependent strategy and invokes its evaluator.
package agent

import (
	"context"
	"fmt"

	"BarPulse/internal/domain/keys"
	"BarPulse/internal/domain/models"
	"BarPulse/internal/domain/repository"
	"BarPulse/internal/store"
	"BarPulse/internal/strategy"
	"BarPulse/pkg/logger"
)

// rawWindow is how many trailing raw rows each evaluation sees per asset.
const rawWindow = 5

// Agent owns the single evaluation loop. The notification-key -> strategies
// map is built once at construction; at runtime the loop only reads it.
type Agent struct {
	strategies map[string][]*strategy.Strategy
	raw        *store.Series[models.Tick]
	bars       *store.Series[models.Bar]
	indicators *store.Series[models.IndicatorRow]
	notify     <-chan string
	metrics    repository.Metrics
	log        *logger.Logger
}

// New indexes each strategy under the notification key of every asset it
// declares.
func New(
	strategies []*strategy.Strategy,
	raw *store.Series[models.Tick],
	bars *store.Series[models.Bar],
	indicators *store.Series[models.IndicatorRow],
	notify <-chan string,
	metrics repository.Metrics,
	log *logger.Logger,
) *Agent {
	index := make(map[string][]*strategy.Strategy)
	for _, st := range strategies {
		seen := make(map[string]struct{})
		for _, def := range st.Indicators() {
			for _, asset := range def.Assets() {
				key := keys.Notify(asset)
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				index[key] = append(index[key], st)
			}
		}
	}

	return &Agent{
		strategies: index,
		raw:        raw,
		bars:       bars,
		indicators: indicators,
		notify:     notify,
		metrics:    metrics,
		log:        log,
	}
}

// Start launches the evaluation loop.
func (a *Agent) Start(ctx context.Context) {
	go a.listen(ctx)
}

func (a *Agent) listen(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			a.log.Info("agent stopped")
			return
		case key := <-a.notify:
			for _, st := range a.strategies[key] {
				a.evaluate(ctx, st, key)
			}
		}
	}
}

// evaluate runs one strategy for one trigger. A panic inside the evaluator
// is contained here so the loop survives defective strategy code.
func (a *Agent) evaluate(ctx context.Context, st *strategy.Strategy, key string) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("strategy panicked",
				logger.String("strategy", st.Name()),
				logger.Any("panic", r))
			a.metrics.RecordError("strategy_panic")
		}
	}()

	in, ready := a.assemble(st)
	if !ready {
		a.log.Debug("strategy skipped, series not ready",
			logger.String("strategy", st.Name()),
			logger.String("trigger", key))
		a.metrics.RecordStrategyEval(st.Name(), "skipped")
		return
	}

	if err := st.Evaluate(ctx, in.raw, in.bars, in.indicators, in.timeframeNames); err != nil {
		a.log.Error("strategy evaluation failed", logger.Error(err),
			logger.String("strategy", st.Name()))
		a.metrics.RecordStrategyEval(st.Name(), "error")
		return
	}
	a.metrics.RecordStrategyEval(st.Name(), "ok")
}

type input struct {
	raw            map[string][]models.Tick
	bars           map[string][]models.Bar
	indicators     map[string][]models.IndicatorRow
	timeframeNames map[int][]string
}

// assemble gates on readiness and joins the tables. For every (indicator,
// config, asset) the strategy declares, all three keys must exist; any gap
// defers the whole evaluation to a later trigger. Each column group is
// joined at most once per evaluation.
func (a *Agent) assemble(st *strategy.Strategy) (input, bool) {
	for _, def := range st.Indicators() {
		for _, cfg := range def.Configs() {
			for _, asset := range def.Assets() {
				if !a.raw.Has(keys.Raw(asset)) ||
					!a.bars.Has(keys.Bar(cfg.Timeframe, asset)) ||
					!a.indicators.Has(keys.Indicator(cfg.Timeframe, asset, def.Kind(), cfg.Signature())) {
					return input{}, false
				}
			}
		}
	}

	in := input{
		raw:            make(map[string][]models.Tick),
		bars:           make(map[string][]models.Bar),
		indicators:     make(map[string][]models.IndicatorRow),
		timeframeNames: make(map[int][]string),
	}
	seenNames := make(map[string]struct{})

	for _, def := range st.Indicators() {
		for _, cfg := range def.Configs() {
			for _, asset := range def.Assets() {
				prefix := asset.Prefix()
				tfPrefix := fmt.Sprintf("%d#%s", cfg.Timeframe, prefix)

				if _, ok := seenNames[tfPrefix]; !ok {
					seenNames[tfPrefix] = struct{}{}
					in.timeframeNames[cfg.Timeframe] = append(in.timeframeNames[cfg.Timeframe], prefix)
				}
				if _, ok := in.raw[prefix]; !ok {
					in.raw[prefix] = a.raw.Tail(keys.Raw(asset), rawWindow)
				}
				if _, ok := in.bars[tfPrefix]; !ok {
					in.bars[tfPrefix] = a.bars.Snapshot(keys.Bar(cfg.Timeframe, asset))
				}
				indJoin := tfPrefix + "#" + def.Kind()
				if _, ok := in.indicators[indJoin]; !ok {
					in.indicators[indJoin] = a.indicators.Snapshot(
						keys.Indicator(cfg.Timeframe, asset, def.Kind(), cfg.Signature()))
				}
			}
		}
	}

	return in, true
}

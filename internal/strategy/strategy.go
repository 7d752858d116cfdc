// Package strategy binds indicator definitions to a portfolio and an
// evaluation hook. Strategies declare what they need; the stores and agent
// derive everything else from those declarations.
package strategy

import (
	"context"
	"fmt"

	"BarPulse/internal/domain/models"
	"BarPulse/internal/indicator"
	"BarPulse/internal/portfolio"
)

// Evaluator is the decision hook invoked on every notification that passes
// the agent's readiness gate. Map keys use the asset's alias-or-ticker
// prefix: raw[<prefix>], bars[<tf>#<prefix>], indicators[<tf>#<prefix>#<kind>].
// timeframeNames maps each timeframe to the prefixes it covers.
type Evaluator interface {
	Name() string
	Evaluate(ctx context.Context,
		raw map[string][]models.Tick,
		bars map[string][]models.Bar,
		indicators map[string][]models.IndicatorRow,
		timeframeNames map[int][]string) error
}

// Strategy is one validated trading unit: ordered indicator definitions, a
// portfolio, and the evaluator that ties them together.
type Strategy struct {
	eval       Evaluator
	indicators []*indicator.Definition
	pf         *portfolio.Portfolio
}

// New validates and builds a Strategy. Rejected: duplicate indicator kinds
// and an alias bound to more than one ticker.
func New(eval Evaluator, indicators []*indicator.Definition, pf *portfolio.Portfolio) (*Strategy, error) {
	if eval == nil {
		return nil, fmt.Errorf("strategy evaluator is required: %w", models.ErrConfiguration)
	}
	if len(indicators) == 0 {
		return nil, fmt.Errorf("strategy %s: at least one indicator is required: %w", eval.Name(), models.ErrConfiguration)
	}
	if pf == nil {
		return nil, fmt.Errorf("strategy %s: portfolio is required: %w", eval.Name(), models.ErrConfiguration)
	}

	kinds := make(map[string]struct{}, len(indicators))
	aliases := make(map[string]string)
	for _, def := range indicators {
		if _, dup := kinds[def.Kind()]; dup {
			return nil, fmt.Errorf("strategy %s: duplicate indicator kind %s: %w", eval.Name(), def.Kind(), models.ErrConfiguration)
		}
		kinds[def.Kind()] = struct{}{}

		for _, a := range def.Assets() {
			if a.Alias == "" {
				continue
			}
			if ticker, ok := aliases[a.Alias]; ok && ticker != a.Ticker {
				return nil, fmt.Errorf("strategy %s: alias %q bound to both %s and %s: %w",
					eval.Name(), a.Alias, ticker, a.Ticker, models.ErrConfiguration)
			}
			aliases[a.Alias] = a.Ticker
		}
	}

	return &Strategy{eval: eval, indicators: indicators, pf: pf}, nil
}

// Name returns the evaluator's name.
func (s *Strategy) Name() string { return s.eval.Name() }

// Indicators returns the ordered indicator definitions.
func (s *Strategy) Indicators() []*indicator.Definition { return s.indicators }

// Portfolio returns the bound portfolio.
func (s *Strategy) Portfolio() *portfolio.Portfolio { return s.pf }

// Evaluate delegates to the evaluator hook.
func (s *Strategy) Evaluate(ctx context.Context,
	raw map[string][]models.Tick,
	bars map[string][]models.Bar,
	indicators map[string][]models.IndicatorRow,
	timeframeNames map[int][]string) error {
	return s.eval.Evaluate(ctx, raw, bars, indicators, timeframeNames)
}

// Assets collects every asset any strategy declares, deduplicated by
// identity, preserving first-seen order.
func Assets(strategies []*Strategy) []models.Asset {
	seen := make(map[models.AssetID]struct{})
	var out []models.Asset
	for _, s := range strategies {
		for _, def := range s.indicators {
			for _, a := range def.Assets() {
				if _, ok := seen[a.ID()]; ok {
					continue
				}
				seen[a.ID()] = struct{}{}
				out = append(out, a)
			}
		}
	}
	return out
}

// Indicators collects every indicator definition across strategies.
func Indicators(strategies []*Strategy) []*indicator.Definition {
	var out []*indicator.Definition
	for _, s := range strategies {
		out = append(out, s.indicators...)
	}
	return out
}

// Package indicator defines the computation units of the aggregation
// stage: pure functions from a bar window to one aggregate row, bound to
// assets and cadences by a Definition.
package indicator

import (
	"fmt"
	"strconv"

	"BarPulse/internal/domain/keys"
	"BarPulse/internal/domain/models"
)

// MinTimeframe is the smallest allowed bar cadence in seconds.
const MinTimeframe = 5

// Config drives one computation cadence of an indicator.
type Config struct {
	Timeframe int               // bar cadence in seconds
	MinLength int               // bar rows required before computing
	Params    map[string]string // indicator-specific settings
}

// Signature renders the config deterministically for use in store keys.
func (c Config) Signature() string {
	return keys.Signature(c.Timeframe, c.MinLength, c.Params)
}

// IntParam reads an integer extra parameter.
func (c Config) IntParam(name string) (int, error) {
	raw, ok := c.Params[name]
	if !ok {
		return 0, fmt.Errorf("indicator param %q missing", name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("indicator param %q: %w", name, err)
	}
	return v, nil
}

// Indicator computes one aggregate row from a bar window. Compute must be
// pure: the same window and config always produce the same row.
type Indicator interface {
	Kind() string
	Compute(window []models.Bar, cfg Config) (models.IndicatorRow, error)
}

// Definition binds an indicator to the assets and configs it runs over.
// The cross product of assets and configs is the set of series the
// aggregation stage maintains for it.
type Definition struct {
	impl    Indicator
	assets  []models.Asset
	configs []Config
}

// NewDefinition validates and builds a Definition. Rejected: timeframes
// below MinTimeframe, duplicate asset identities, duplicate config
// signatures.
func NewDefinition(impl Indicator, assets []models.Asset, configs []Config) (*Definition, error) {
	if impl == nil {
		return nil, fmt.Errorf("indicator implementation is required: %w", models.ErrConfiguration)
	}
	if len(assets) == 0 {
		return nil, fmt.Errorf("indicator %s: at least one asset is required: %w", impl.Kind(), models.ErrConfiguration)
	}
	if len(configs) == 0 {
		return nil, fmt.Errorf("indicator %s: at least one config is required: %w", impl.Kind(), models.ErrConfiguration)
	}

	seenAssets := make(map[models.AssetID]struct{}, len(assets))
	for _, a := range assets {
		if _, dup := seenAssets[a.ID()]; dup {
			return nil, fmt.Errorf("indicator %s: duplicate asset %s: %w", impl.Kind(), a, models.ErrConfiguration)
		}
		seenAssets[a.ID()] = struct{}{}
	}

	seenSigs := make(map[string]struct{}, len(configs))
	for _, c := range configs {
		if c.Timeframe < MinTimeframe {
			return nil, fmt.Errorf("indicator %s: timeframe %d below minimum %d: %w",
				impl.Kind(), c.Timeframe, MinTimeframe, models.ErrConfiguration)
		}
		if c.MinLength < 1 {
			return nil, fmt.Errorf("indicator %s: min_length %d must be positive: %w",
				impl.Kind(), c.MinLength, models.ErrConfiguration)
		}
		sig := c.Signature()
		if _, dup := seenSigs[sig]; dup {
			return nil, fmt.Errorf("indicator %s: duplicate config %s: %w", impl.Kind(), sig, models.ErrConfiguration)
		}
		seenSigs[sig] = struct{}{}
	}

	return &Definition{impl: impl, assets: assets, configs: configs}, nil
}

// Kind returns the bound indicator's kind tag.
func (d *Definition) Kind() string { return d.impl.Kind() }

// Assets returns the bound assets.
func (d *Definition) Assets() []models.Asset { return d.assets }

// Configs returns the bound configs.
func (d *Definition) Configs() []Config { return d.configs }

// Compute delegates to the bound indicator.
func (d *Definition) Compute(window []models.Bar, cfg Config) (models.IndicatorRow, error) {
	return d.impl.Compute(window, cfg)
}

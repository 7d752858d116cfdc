package strategy

import (
	"context"
	"errors"
	"fmt"

	"BarPulse/internal/domain/models"
	"BarPulse/internal/portfolio"
	"BarPulse/pkg/logger"
)

// SMACross buys when the latest close crosses above its moving average and
// sells the position back when it crosses below.
type SMACross struct {
	Asset     models.Asset
	Timeframe int
	SMALength int
	Quantity  int64
	Portfolio *portfolio.Portfolio
	Log       *logger.Logger
}

// Name implements Evaluator.
func (s *SMACross) Name() string { return "SMACross" }

// Evaluate implements Evaluator.
func (s *SMACross) Evaluate(ctx context.Context,
	raw map[string][]models.Tick,
	bars map[string][]models.Bar,
	indicators map[string][]models.IndicatorRow,
	timeframeNames map[int][]string) error {

	prefix := s.Asset.Prefix()
	series := bars[fmt.Sprintf("%d#%s", s.Timeframe, prefix)]
	rows := indicators[fmt.Sprintf("%d#%s#SMA", s.Timeframe, prefix)]
	if len(series) == 0 || len(rows) == 0 {
		return nil
	}

	close := series[len(series)-1].Close
	sma, ok := rows[len(rows)-1].Values[fmt.Sprintf("SMA_%d", s.SMALength)]
	if !ok {
		return fmt.Errorf("smacross: column SMA_%d missing", s.SMALength)
	}

	held := s.Portfolio.QuantityOf(s.Asset.Identifier)
	switch {
	case close > sma && held == 0:
		err := s.Portfolio.Buy(ctx, s.Asset.Identifier, close, s.Quantity, "LONG")
		if err != nil && !errors.Is(err, portfolio.ErrInsufficientFunds) {
			return err
		}
	case close < sma && held > 0:
		err := s.Portfolio.Sell(ctx, s.Asset.Identifier, close, held, "LONG")
		if err != nil && !errors.Is(err, portfolio.ErrInsufficientHoldings) {
			return err
		}
	}
	return nil
}

package indicator

import (
	"fmt"

	"BarPulse/internal/domain/models"
)

// SMA is a simple moving average over bar closes. The window length comes
// from the sma_length extra parameter; the emitted column is SMA_<length>.
type SMA struct{}

// Kind implements Indicator.
func (SMA) Kind() string { return "SMA" }

// Compute implements Indicator.
func (SMA) Compute(window []models.Bar, cfg Config) (models.IndicatorRow, error) {
	length, err := cfg.IntParam("sma_length")
	if err != nil {
		return models.IndicatorRow{}, err
	}
	if length < 1 || length > len(window) {
		return models.IndicatorRow{}, fmt.Errorf("sma: window of %d bars cannot cover sma_length %d", len(window), length)
	}

	var sum float64
	for _, b := range window[len(window)-length:] {
		sum += b.Close
	}

	return models.IndicatorRow{
		Time: window[len(window)-1].Time,
		Values: map[string]float64{
			fmt.Sprintf("SMA_%d", length): sum / float64(length),
		},
	}, nil
}

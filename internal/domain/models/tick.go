package models

import "time"

// Level is one rung of the venue's quote ladder.
type Level struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// Tick is a canonical market snapshot stamped with local receipt time.
// Fields the venue omitted on a given frame stay at their zero value.
type Tick struct {
	Time      time.Time `json:"time"`
	LastPrice float64   `json:"last_price"`
	Volume    float64   `json:"volume"`
	Bids      []Level   `json:"bids,omitempty"`
	Asks      []Level   `json:"asks,omitempty"`
}

// Bar is one OHLCV aggregate over a fixed-length time window.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// IndicatorRow is the single aggregate row an indicator emits per firing.
type IndicatorRow struct {
	Time   time.Time          `json:"time"`
	Values map[string]float64 `json:"values"`
}

// HistoricalRow is one deduplicated snapshot fetched from the venue's
// intraday REST endpoint.
type HistoricalRow struct {
	Ticker    string    `json:"ticker"`
	Sequence  int64     `json:"sequence"`
	Time      time.Time `json:"time"`
	LastPrice float64   `json:"last_price"`
	Volume    float64   `json:"volume"`
}

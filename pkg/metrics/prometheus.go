package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	ticksIngested *prometheus.CounterVec
	barsComputed  *prometheus.CounterVec
	indicatorRows *prometheus.CounterVec
	strategyEvals *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	lastPrice     *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
}

// New creates a Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		ticksIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barpulse_ticks_ingested_total",
				Help: "Total ticks stored by the ingestion listener",
			},
			[]string{"symbol"},
		),
		barsComputed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barpulse_bars_computed_total",
				Help: "Total bars appended per timeframe",
			},
			[]string{"timeframe"},
		),
		indicatorRows: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barpulse_indicator_rows_total",
				Help: "Total indicator rows appended per kind",
			},
			[]string{"kind"},
		),
		strategyEvals: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barpulse_strategy_evaluations_total",
				Help: "Strategy evaluation outcomes",
			},
			[]string{"strategy", "result"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "barpulse_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "barpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordTick counts one stored tick.
func (r *Recorder) RecordTick(symbol string) {
	r.ticksIngested.WithLabelValues(symbol).Inc()
}

// RecordBar counts one appended bar.
func (r *Recorder) RecordBar(timeframe int) {
	r.barsComputed.WithLabelValues(strconv.Itoa(timeframe)).Inc()
}

// RecordIndicatorRow counts one appended indicator row.
func (r *Recorder) RecordIndicatorRow(kind string) {
	r.indicatorRows.WithLabelValues(kind).Inc()
}

// RecordStrategyEval counts one evaluation outcome (ok, skipped, error).
func (r *Recorder) RecordStrategyEval(strategy, result string) {
	r.strategyEvals.WithLabelValues(strategy, result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

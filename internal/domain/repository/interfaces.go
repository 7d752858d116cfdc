package repository

import (
	"context"
	"time"

	"BarPulse/internal/domain/models"
)

// TickMessage pairs a notification key (<source>#<ticker>) with the parsed
// snapshot row. A zero-value message is the ingest channel's end-of-stream
// sentinel.
type TickMessage struct {
	Key  string
	Tick models.Tick
}

// TickStream is the streaming capability of a market data venue. Start
// dials one persistent connection, subscribes every identifier, and pushes
// one message per inbound frame until the connection dies or ctx is
// cancelled. Sends to the sink must never drop silently.
type TickStream interface {
	Kind() models.SourceKind
	Start(ctx context.Context, sink chan<- TickMessage, identifiers []string) error
}

// ExecutionClient submits orders to the venue. Calls are fire-and-forget
// from the portfolio's point of view: failures are logged, not unwound.
type ExecutionClient interface {
	Buy(ctx context.Context, identifier string, price float64, quantity int64) error
	Sell(ctx context.Context, identifier string, price float64, quantity int64) error
}

// FillRecorder persists executed portfolio operations.
type FillRecorder interface {
	Record(ctx context.Context, fill *models.Fill) error
	Close() error
}

// SnapshotArchive stores deduplicated historical snapshot rows. Rows are
// partitioned by (ticker, day); MaxSequence returns the high-water sequence
// number for a partition, 0 when the partition is empty.
type SnapshotArchive interface {
	MaxSequence(ctx context.Context, ticker string, day time.Time) (int64, error)
	Append(ctx context.Context, rows []models.HistoricalRow) error
	Close() error
}

// Metrics abstracts pipeline instrumentation.
type Metrics interface {
	RecordTick(symbol string)
	RecordBar(timeframe int)
	RecordIndicatorRow(kind string)
	RecordStrategyEval(strategy, result string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}

package store

import (
	"context"
	"fmt"
	"time"

	"BarPulse/internal/domain/keys"
	"BarPulse/internal/domain/models"
	"BarPulse/internal/domain/repository"
	"BarPulse/internal/service/cache"
	"BarPulse/pkg/logger"
)

// InputStore owns the ingestion side of the pipeline: it runs the tick
// streams, is the sole writer of the raw tick table, and republishes each
// stored tick's bare key on the notification channel.
type InputStore struct {
	raw     *Series[models.Tick]
	notify  chan<- string
	ingest  chan repository.TickMessage
	source  repository.TickStream
	assets  []models.Asset
	quotes  cache.Quotes
	metrics repository.Metrics
	log     *logger.Logger

	reconnectDelay time.Duration
}

// NewInputStore derives the source and its identifiers from the declared
// assets. All assets must share a single source kind; more than one is a
// configuration error.
func NewInputStore(
	assets []models.Asset,
	streams map[models.SourceKind]repository.TickStream,
	raw *Series[models.Tick],
	notify chan<- string,
	quotes cache.Quotes,
	metrics repository.Metrics,
	log *logger.Logger,
	reconnectDelay time.Duration,
) (*InputStore, error) {
	if len(assets) == 0 {
		return nil, fmt.Errorf("no assets declared: %w", models.ErrConfiguration)
	}

	kind := assets[0].Source
	for _, a := range assets[1:] {
		if a.Source != kind {
			return nil, fmt.Errorf("assets span source kinds %s and %s, exactly one is supported: %w",
				kind, a.Source, models.ErrConfiguration)
		}
	}

	source, ok := streams[kind]
	if !ok {
		return nil, fmt.Errorf("no stream registered for source kind %s: %w", kind, models.ErrConfiguration)
	}

	if reconnectDelay <= 0 {
		reconnectDelay = 5 * time.Second
	}

	return &InputStore{
		raw:            raw,
		notify:         notify,
		ingest:         make(chan repository.TickMessage, 1024),
		source:         source,
		assets:         assets,
		quotes:         quotes,
		metrics:        metrics,
		log:            log,
		reconnectDelay: reconnectDelay,
	}, nil
}

// Raw exposes the raw tick table for the aggregation and evaluation stages.
func (s *InputStore) Raw() *Series[models.Tick] { return s.raw }

// Start launches the stream runner and the listener. Both exit on ctx
// cancellation.
func (s *InputStore) Start(ctx context.Context) {
	go s.runStream(ctx)
	go s.listen(ctx)
}

// runStream keeps the source connected, redialing after reconnectDelay
// whenever the connection drops.
func (s *InputStore) runStream(ctx context.Context) {
	identifiers := make([]string, len(s.assets))
	for i, a := range s.assets {
		identifiers[i] = a.Identifier
	}

	for {
		err := s.source.Start(ctx, s.ingest, identifiers)
		if ctx.Err() != nil {
			return
		}
		s.log.Warn("stream disconnected, redialing",
			logger.String("source", string(s.source.Kind())),
			logger.Error(err))
		s.metrics.RecordError("stream_disconnect")

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.reconnectDelay):
		}
	}
}

// listen drains the ingest channel: store the tick, refresh the quote
// cache, republish the bare key. A zero-value message ends the loop.
func (s *InputStore) listen(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-s.ingest:
			if msg.Key == "" {
				s.log.Info("input store listener stopped")
				return
			}
			s.raw.Append(keys.RawFromNotify(msg.Key), msg.Tick)
			if s.quotes != nil {
				s.quotes.Set(msg.Key, msg.Tick)
			}
			s.metrics.RecordTick(msg.Key)
			s.metrics.RecordLastPrice(msg.Key, msg.Tick.LastPrice)

			select {
			case s.notify <- msg.Key:
			case <-ctx.Done():
				return
			}
		}
	}
}

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"BarPulse/internal/domain/keys"
	"BarPulse/internal/domain/models"
	"BarPulse/internal/domain/repository"
)

type stubStream struct {
	kind models.SourceKind
}

func (s stubStream) Kind() models.SourceKind { return s.kind }

func (s stubStream) Start(ctx context.Context, sink chan<- repository.TickMessage, identifiers []string) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestNewInputStoreRejectsMixedSourceKinds(t *testing.T) {
	assets := []models.Asset{
		{Ticker: "GGAL", Source: models.SourceBalanzWebsocket},
		{Ticker: "AAPL", Source: "OtherWebsocket"},
	}
	streams := map[models.SourceKind]repository.TickStream{
		models.SourceBalanzWebsocket: stubStream{kind: models.SourceBalanzWebsocket},
		"OtherWebsocket":             stubStream{kind: "OtherWebsocket"},
	}

	_, err := NewInputStore(assets, streams, NewSeries[models.Tick](0),
		make(chan string, 1), nil, nopMetrics{}, testLogger(t), time.Second)
	if !errors.Is(err, models.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}

func TestNewInputStoreRejectsUnregisteredSource(t *testing.T) {
	assets := []models.Asset{{Ticker: "GGAL", Source: models.SourceBalanzWebsocket}}

	_, err := NewInputStore(assets, map[models.SourceKind]repository.TickStream{},
		NewSeries[models.Tick](0), make(chan string, 1), nil, nopMetrics{}, testLogger(t), time.Second)
	if !errors.Is(err, models.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}

func TestListenerStoresTickAndRepublishesKey(t *testing.T) {
	asset := models.Asset{Ticker: "GGAL", Identifier: "GGAL", Source: models.SourceBalanzWebsocket}
	streams := map[models.SourceKind]repository.TickStream{
		models.SourceBalanzWebsocket: stubStream{kind: models.SourceBalanzWebsocket},
	}
	raw := NewSeries[models.Tick](0)
	notify := make(chan string, 1)

	is, err := NewInputStore([]models.Asset{asset}, streams, raw, notify,
		nil, nopMetrics{}, testLogger(t), time.Second)
	if err != nil {
		t.Fatalf("input store: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go is.listen(ctx)

	key := keys.Notify(asset)
	is.ingest <- repository.TickMessage{Key: key, Tick: models.Tick{Time: time.Now(), LastPrice: 42}}

	select {
	case got := <-notify:
		if got != key {
			t.Errorf("notification key = %q, want %q", got, key)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no notification republished")
	}

	rows := raw.Snapshot(keys.Raw(asset))
	if len(rows) != 1 || rows[0].LastPrice != 42 {
		t.Errorf("raw rows = %v, want one tick at 42", rows)
	}
}

func TestListenerStopsOnSentinel(t *testing.T) {
	asset := models.Asset{Ticker: "GGAL", Identifier: "GGAL", Source: models.SourceBalanzWebsocket}
	streams := map[models.SourceKind]repository.TickStream{
		models.SourceBalanzWebsocket: stubStream{kind: models.SourceBalanzWebsocket},
	}
	is, err := NewInputStore([]models.Asset{asset}, streams, NewSeries[models.Tick](0),
		make(chan string, 1), nil, nopMetrics{}, testLogger(t), time.Second)
	if err != nil {
		t.Fatalf("input store: %v", err)
	}

	done := make(chan struct{})
	go func() {
		is.listen(context.Background())
		close(done)
	}()

	is.ingest <- repository.TickMessage{}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop on sentinel")
	}
}

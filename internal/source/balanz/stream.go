// Package balanz implements the Balanz venue: the websocket quote stream,
// the intraday history REST client and the order execution client.
package balanz

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"BarPulse/internal/domain/keys"
	"BarPulse/internal/domain/models"
	"BarPulse/internal/domain/repository"
	"BarPulse/pkg/logger"
)

// quoteLevels is how many rungs of the book the feed carries per side.
const quoteLevels = 7

// Stream is the Balanz websocket quote feed.
type Stream struct {
	url   string
	token string
	log   *logger.Logger
}

// NewStream builds the stream. The token authenticates each subscription.
func NewStream(url, token string, log *logger.Logger) *Stream {
	return &Stream{url: url, token: token, log: log}
}

// Kind implements repository.TickStream.
func (s *Stream) Kind() models.SourceKind { return models.SourceBalanzWebsocket }

type subscribeRequest struct {
	Securities string `json:"securities"`
	Token      string `json:"token"`
}

// Start implements repository.TickStream: one connection, one subscription
// message per identifier, then a read loop until the connection dies or
// ctx is cancelled.
func (s *Stream) Start(ctx context.Context, sink chan<- repository.TickMessage, identifiers []string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("balanz dial %s: %w", s.url, err)
	}
	defer conn.Close()
	s.log.Info("balanz stream connected", logger.String("url", s.url))

	for _, id := range identifiers {
		if err := conn.WriteJSON(subscribeRequest{Securities: id, Token: s.token}); err != nil {
			return fmt.Errorf("balanz subscribe %s: %w", id, err)
		}
		s.log.Info("subscribed", logger.String("identifier", id))
	}

	// Unblock the blocking read when ctx is cancelled.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("balanz read: %w", err)
		}

		ticker, tick, err := parseFrame(data, time.Now())
		if err != nil {
			s.log.Debug("frame skipped", logger.Error(err))
			continue
		}

		msg := repository.TickMessage{
			Key:  keys.NotifyKey(models.SourceBalanzWebsocket, ticker),
			Tick: tick,
		}
		select {
		case sink <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// parseFrame maps the feed's abbreviated fields onto a canonical snapshot:
// u is the last price, v the traded volume, pc<i>/cc<i> the bid price and
// size ladders, pv<i>/cv<i> the ask ladders (no suffix for level zero).
func parseFrame(data []byte, now time.Time) (string, models.Tick, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return "", models.Tick{}, fmt.Errorf("parse frame: %w", err)
	}

	ticker, _ := m["ticker"].(string)
	if ticker == "" {
		return "", models.Tick{}, fmt.Errorf("frame has no ticker")
	}

	tick := models.Tick{
		Time:      now,
		LastPrice: num(m, "u"),
		Volume:    num(m, "v"),
		Bids:      make([]models.Level, 0, quoteLevels),
		Asks:      make([]models.Level, 0, quoteLevels),
	}
	for i := 0; i < quoteLevels; i++ {
		sfx := ""
		if i > 0 {
			sfx = strconv.Itoa(i)
		}
		tick.Bids = append(tick.Bids, models.Level{Price: num(m, "pc"+sfx), Quantity: num(m, "cc"+sfx)})
		tick.Asks = append(tick.Asks, models.Level{Price: num(m, "pv"+sfx), Quantity: num(m, "cv"+sfx)})
	}
	return ticker, tick, nil
}

func num(m map[string]any, key string) float64 {
	v, _ := m[key].(float64)
	return v
}

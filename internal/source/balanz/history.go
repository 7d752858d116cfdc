package balanz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"BarPulse/internal/domain/models"
	"BarPulse/internal/domain/repository"
	"BarPulse/pkg/logger"
)

// HistoryClient polls the venue's intraday REST endpoint and archives only
// rows newer than the archive's high-water sequence number for the day.
// Upstream failures are logged and surface as empty results; the poll loop
// simply retries on its next firing.
type HistoryClient struct {
	baseURL string
	header  http.Header
	httpc   *http.Client
	archive repository.SnapshotArchive
	metrics repository.Metrics
	log     *logger.Logger
}

// NewHistoryClient builds the client and probes the session token against
// a cheap authenticated endpoint. A rejected token is a startup error.
func NewHistoryClient(baseURL, token string, archive repository.SnapshotArchive,
	metrics repository.Metrics, log *logger.Logger) (*HistoryClient, error) {

	header := http.Header{}
	header.Set("Accept", "application/json")
	header.Set("Content-Type", "application/json")
	header.Set("Authorization", token)

	c := &HistoryClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		header:  header,
		httpc:   &http.Client{Timeout: 15 * time.Second},
		archive: archive,
		metrics: metrics,
		log:     log,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	status, _, err := c.get(ctx, c.baseURL+"/api/v1/banners")
	if err != nil {
		return nil, fmt.Errorf("balanz login probe: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("balanz login probe: token rejected with status %d", status)
	}

	return c, nil
}

func (c *HistoryClient) get(ctx context.Context, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header = c.header.Clone()

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}

// OptionTickers lists the option-chain identifiers whose id carries the
// given prefix. Failures yield an empty list.
func (c *HistoryClient) OptionTickers(ctx context.Context, prefix string) []string {
	url := c.baseURL + "/api/v1/cotizaciones/opciones?token=0&tokenindice=0&avoidAuthRedirect=true"
	status, body, err := c.get(ctx, url)
	if err != nil || status != http.StatusOK {
		c.log.Warn("option chain fetch failed",
			logger.Int("status", status), logger.Any("err", err))
		c.metrics.RecordError("history_upstream")
		return nil
	}

	var payload struct {
		Cotizaciones []struct {
			ID string `json:"id"`
		} `json:"cotizaciones"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		c.log.Warn("option chain parse failed", logger.Error(err))
		c.metrics.RecordError("history_parse")
		return nil
	}

	var out []string
	for _, q := range payload.Cotizaciones {
		if strings.HasPrefix(q.ID, prefix) {
			out = append(out, q.ID)
		}
	}
	return out
}

type intradayRow struct {
	Sequence float64 `json:"nrosecuencia"`
	Price    float64 `json:"precio"`
	Quantity float64 `json:"cantidad"`
	Hour     string  `json:"hora"`
}

// FetchSnapshots pulls today's intraday rows for a ticker and appends the
// ones past the archive's high-water sequence. Returns how many rows were
// archived.
func (c *HistoryClient) FetchSnapshots(ctx context.Context, ticker string, plazo int) int {
	url := fmt.Sprintf("%s/api/v1/cotizacionintradiario?ticker=%s&plazo=%d&detalle=1&agrupado=0",
		c.baseURL, ticker, plazo)
	status, body, err := c.get(ctx, url)
	if err != nil || status != http.StatusOK {
		c.log.Warn("intraday fetch failed", logger.String("ticker", ticker),
			logger.Int("status", status))
		c.metrics.RecordError("history_upstream")
		return 0
	}

	var payload struct {
		Intradiario []intradayRow `json:"intradiario"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		c.log.Warn("intraday parse failed", logger.String("ticker", ticker), logger.Error(err))
		c.metrics.RecordError("history_parse")
		return 0
	}

	now := time.Now()
	rows := canonicalRows(ticker, payload.Intradiario, now)
	if len(rows) == 0 {
		return 0
	}

	maxSeq, err := c.archive.MaxSequence(ctx, ticker, now)
	if err != nil {
		c.log.Warn("archive high-water lookup failed", logger.String("ticker", ticker), logger.Error(err))
		c.metrics.RecordError("archive")
		return 0
	}

	fresh := rows[:0]
	for _, r := range rows {
		if r.Sequence > maxSeq {
			fresh = append(fresh, r)
		}
	}
	if len(fresh) == 0 {
		return 0
	}

	if err := c.archive.Append(ctx, fresh); err != nil {
		c.log.Warn("archive append failed", logger.String("ticker", ticker), logger.Error(err))
		c.metrics.RecordError("archive")
		return 0
	}
	return len(fresh)
}

// canonicalRows converts venue rows, sorted by sequence number. The hora
// field is a wall-clock time on the current day; rows that fail to parse
// fall back to the fetch time.
func canonicalRows(ticker string, in []intradayRow, now time.Time) []models.HistoricalRow {
	out := make([]models.HistoricalRow, 0, len(in))
	for _, r := range in {
		ts := now
		if t, err := time.ParseInLocation("15:04:05", r.Hour, now.Location()); err == nil {
			ts = time.Date(now.Year(), now.Month(), now.Day(),
				t.Hour(), t.Minute(), t.Second(), 0, now.Location())
		}
		out = append(out, models.HistoricalRow{
			Ticker:    ticker,
			Sequence:  int64(r.Sequence),
			Time:      ts,
			LastPrice: r.Price,
			Volume:    r.Quantity,
		})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Sequence < out[b].Sequence })
	return out
}

// Run polls the underlying and its option chain until ctx is cancelled.
// The option list is discovered once at startup and refreshed on the same
// schedule when it came back empty.
func (c *HistoryClient) Run(ctx context.Context, underlying, optionPrefix string, plazo int, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	options := c.OptionTickers(ctx, optionPrefix)
	c.log.Info("history poller started",
		logger.String("underlying", underlying),
		logger.Int("options", len(options)))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.log.Info("history poller stopped")
			return
		case <-ticker.C:
			if len(options) == 0 && optionPrefix != "" {
				options = c.OptionTickers(ctx, optionPrefix)
			}
			n := c.FetchSnapshots(ctx, underlying, plazo)
			for _, opt := range options {
				n += c.FetchSnapshots(ctx, opt, plazo)
			}
			if n > 0 {
				c.log.Debug("snapshots archived", logger.Int("rows", n))
			}
		}
	}
}

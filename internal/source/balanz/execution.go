package balanz

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"BarPulse/internal/domain/models"
	"BarPulse/pkg/logger"
)

// Execution submits orders to the venue's REST API. The portfolio treats
// calls as fire-and-forget; errors returned here are logged upstream and
// never unwind ledger state.
type Execution struct {
	baseURL string
	header  http.Header
	httpc   *http.Client
	log     *logger.Logger
}

// NewExecution builds the execution client.
func NewExecution(baseURL, token string, log *logger.Logger) *Execution {
	header := http.Header{}
	header.Set("Accept", "application/json")
	header.Set("Content-Type", "application/json")
	header.Set("Authorization", token)
	return &Execution{
		baseURL: strings.TrimRight(baseURL, "/"),
		header:  header,
		httpc:   &http.Client{Timeout: 15 * time.Second},
		log:     log,
	}
}

type orderRequest struct {
	Security string  `json:"security"`
	Side     string  `json:"side"`
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
}

// Buy implements repository.ExecutionClient.
func (e *Execution) Buy(ctx context.Context, identifier string, price float64, quantity int64) error {
	return e.submit(ctx, identifier, models.SideBuy, price, quantity)
}

// Sell implements repository.ExecutionClient.
func (e *Execution) Sell(ctx context.Context, identifier string, price float64, quantity int64) error {
	return e.submit(ctx, identifier, models.SideSell, price, quantity)
}

func (e *Execution) submit(ctx context.Context, identifier string, side models.Side, price float64, quantity int64) error {
	body, err := json.Marshal(orderRequest{
		Security: identifier,
		Side:     string(side),
		Price:    price,
		Quantity: quantity,
	})
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/v1/orders", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build order request: %w", err)
	}
	req.Header = e.header.Clone()

	resp, err := e.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("submit order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("submit order: status %d", resp.StatusCode)
	}

	e.log.Info("order submitted",
		logger.String("identifier", identifier),
		logger.String("side", string(side)),
		logger.Int64("quantity", quantity))
	return nil
}

// Package portfolio keeps the position ledger: liquid cash plus open lots,
// mutated only through Buy and Sell.
package portfolio

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"BarPulse/internal/domain/models"
	"BarPulse/internal/domain/repository"
	"BarPulse/pkg/logger"
)

var (
	// ErrInsufficientFunds rejects a buy whose cost exceeds liquid cash.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInsufficientHoldings rejects a sell larger than the held quantity.
	ErrInsufficientHoldings = errors.New("insufficient holdings")
)

// Lot is one open position entry.
type Lot struct {
	Identifier string
	Quantity   int64
	Price      float64
	Operation  string
}

// Portfolio tracks liquid cash and open lots for one strategy. Precondition
// failures leave the state untouched and are reported as errors; the caller
// decides whether to log or escalate. Execution failures are logged and do
// not unwind the ledger.
type Portfolio struct {
	name string

	mu     sync.Mutex
	liquid float64
	lots   []Lot

	exec repository.ExecutionClient
	rec  repository.FillRecorder
	log  *logger.Logger
}

// New builds a portfolio with its starting cash.
func New(name string, liquid float64, exec repository.ExecutionClient, rec repository.FillRecorder, log *logger.Logger) (*Portfolio, error) {
	if name == "" {
		return nil, errors.New("portfolio name is required")
	}
	if liquid < 0 {
		return nil, errors.New("portfolio liquid cash cannot be negative")
	}
	if exec == nil {
		return nil, errors.New("portfolio execution client is required")
	}
	return &Portfolio{name: name, liquid: liquid, exec: exec, rec: rec, log: log}, nil
}

// Name returns the portfolio's name.
func (p *Portfolio) Name() string { return p.name }

// Liquid returns the current cash balance.
func (p *Portfolio) Liquid() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.liquid
}

// Lots returns a copy of the open lots.
func (p *Portfolio) Lots() []Lot {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Lot, len(p.lots))
	copy(out, p.lots)
	return out
}

// QuantityOf sums the held quantity across all lots for an identifier.
func (p *Portfolio) QuantityOf(identifier string) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quantityOfLocked(identifier)
}

func (p *Portfolio) quantityOfLocked(identifier string) int64 {
	var total int64
	for _, lot := range p.lots {
		if lot.Identifier == identifier {
			total += lot.Quantity
		}
	}
	return total
}

// Buy debits price*quantity from liquid cash, submits the order and appends
// a new lot. A cost above the cash balance rejects the buy with no state
// change.
func (p *Portfolio) Buy(ctx context.Context, identifier string, price float64, quantity int64, operation string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	cost := price * float64(quantity)
	if cost > p.liquid {
		p.log.Warn("buy rejected",
			logger.String("portfolio", p.name),
			logger.String("identifier", identifier),
			logger.Any("cost", cost),
			logger.Any("liquid", p.liquid))
		return ErrInsufficientFunds
	}

	if err := p.exec.Buy(ctx, identifier, price, quantity); err != nil {
		p.log.Error("buy order submission failed", logger.Error(err),
			logger.String("identifier", identifier))
	}

	p.liquid -= cost
	p.lots = append(p.lots, Lot{Identifier: identifier, Quantity: quantity, Price: price, Operation: operation})
	p.record(ctx, identifier, models.SideBuy, price, quantity, operation)

	p.log.Info("bought",
		logger.String("portfolio", p.name),
		logger.String("identifier", identifier),
		logger.Int64("quantity", quantity),
		logger.Any("price", price))
	return nil
}

// Sell submits the order, credits price*quantity and reduces lots cheapest
// first. Selling more than is held rejects the sell with no state change.
func (p *Portfolio) Sell(ctx context.Context, identifier string, price float64, quantity int64, operation string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if held := p.quantityOfLocked(identifier); held < quantity {
		p.log.Warn("sell rejected",
			logger.String("portfolio", p.name),
			logger.String("identifier", identifier),
			logger.Int64("quantity", quantity),
			logger.Int64("held", held))
		return ErrInsufficientHoldings
	}

	if err := p.exec.Sell(ctx, identifier, price, quantity); err != nil {
		p.log.Error("sell order submission failed", logger.Error(err),
			logger.String("identifier", identifier))
	}

	p.liquid += price * float64(quantity)
	p.reduceLocked(identifier, quantity)
	p.record(ctx, identifier, models.SideSell, price, quantity, operation)

	p.log.Info("sold",
		logger.String("portfolio", p.name),
		logger.String("identifier", identifier),
		logger.Int64("quantity", quantity),
		logger.Any("price", price))
	return nil
}

// reduceLocked consumes quantity from the identifier's lots cheapest first:
// an exact match removes the lot and stops, a larger lot is decremented and
// stops, a smaller lot is removed and the remainder carries to the next.
func (p *Portfolio) reduceLocked(identifier string, quantity int64) {
	idx := make([]int, 0, len(p.lots))
	for i, lot := range p.lots {
		if lot.Identifier == identifier {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return p.lots[idx[a]].Price < p.lots[idx[b]].Price
	})

	removed := make(map[int]bool, len(idx))
	remaining := quantity
	for _, i := range idx {
		lot := &p.lots[i]
		switch {
		case lot.Quantity == remaining:
			removed[i] = true
			remaining = 0
		case lot.Quantity > remaining:
			lot.Quantity -= remaining
			remaining = 0
		default:
			removed[i] = true
			remaining -= lot.Quantity
		}
		if remaining == 0 {
			break
		}
	}

	kept := p.lots[:0]
	for i, lot := range p.lots {
		if !removed[i] {
			kept = append(kept, lot)
		}
	}
	p.lots = kept
}

func (p *Portfolio) record(ctx context.Context, identifier string, side models.Side, price float64, quantity int64, operation string) {
	if p.rec == nil {
		return
	}
	fill := &models.Fill{
		Time:       time.Now(),
		Portfolio:  p.name,
		Identifier: identifier,
		Side:       side,
		Price:      price,
		Quantity:   quantity,
		Operation:  operation,
	}
	if err := p.rec.Record(ctx, fill); err != nil {
		p.log.Warn("fill record failed", logger.Error(err),
			logger.String("identifier", identifier))
	}
}

// View renders the state for the read-only API.
func (p *Portfolio) View() models.PortfolioView {
	p.mu.Lock()
	defer p.mu.Unlock()
	lots := make([]models.PortfolioLot, len(p.lots))
	for i, lot := range p.lots {
		lots[i] = models.PortfolioLot{
			Identifier: lot.Identifier,
			Quantity:   lot.Quantity,
			Price:      lot.Price,
			Operation:  lot.Operation,
		}
	}
	return models.PortfolioView{Name: p.name, Liquid: p.liquid, Lots: lots}
}

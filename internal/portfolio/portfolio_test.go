package portfolio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BarPulse/pkg/logger"
)

type fakeExec struct {
	buys, sells int
	err         error
}

func (f *fakeExec) Buy(ctx context.Context, identifier string, price float64, quantity int64) error {
	f.buys++
	return f.err
}

func (f *fakeExec) Sell(ctx context.Context, identifier string, price float64, quantity int64) error {
	f.sells++
	return f.err
}

func newTestPortfolio(t *testing.T, liquid float64) (*Portfolio, *fakeExec) {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stderr"})
	require.NoError(t, err)
	exec := &fakeExec{}
	p, err := New("test", liquid, exec, nil, log)
	require.NoError(t, err)
	return p, exec
}

func TestBuyAppendsLotAndDebitsCash(t *testing.T) {
	p, exec := newTestPortfolio(t, 1000)

	require.NoError(t, p.Buy(context.Background(), "GGAL", 10, 5, "LONG"))

	assert.Equal(t, 1, exec.buys)
	assert.Equal(t, 950.0, p.Liquid())
	require.Len(t, p.Lots(), 1)
	assert.Equal(t, int64(5), p.QuantityOf("GGAL"))
}

func TestBuyRejectedWhenCostExceedsCash(t *testing.T) {
	p, exec := newTestPortfolio(t, 40)

	err := p.Buy(context.Background(), "GGAL", 10, 5, "LONG")

	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, 0, exec.buys)
	assert.Equal(t, 40.0, p.Liquid())
	assert.Empty(t, p.Lots())
}

func TestSellReducesCheapestLotsFirst(t *testing.T) {
	p, _ := newTestPortfolio(t, 1000)
	ctx := context.Background()
	// Insert the pricier lot first so ordering cannot come from insertion.
	require.NoError(t, p.Buy(ctx, "GGAL", 12, 3, "LONG"))
	require.NoError(t, p.Buy(ctx, "GGAL", 10, 5, "LONG"))

	require.NoError(t, p.Sell(ctx, "GGAL", 15, 6, "LONG"))

	lots := p.Lots()
	require.Len(t, lots, 1)
	assert.Equal(t, 12.0, lots[0].Price)
	assert.Equal(t, int64(2), lots[0].Quantity)
	assert.Equal(t, int64(2), p.QuantityOf("GGAL"))
}

func TestSellExactLotRemovesIt(t *testing.T) {
	p, _ := newTestPortfolio(t, 1000)
	ctx := context.Background()
	require.NoError(t, p.Buy(ctx, "GGAL", 10, 5, "LONG"))

	require.NoError(t, p.Sell(ctx, "GGAL", 11, 5, "LONG"))

	assert.Empty(t, p.Lots())
	assert.Equal(t, int64(0), p.QuantityOf("GGAL"))
}

func TestSellRejectedWhenHoldingsShort(t *testing.T) {
	p, exec := newTestPortfolio(t, 1000)
	ctx := context.Background()
	require.NoError(t, p.Buy(ctx, "GGAL", 10, 2, "LONG"))
	liquidBefore := p.Liquid()

	err := p.Sell(ctx, "GGAL", 11, 3, "LONG")

	assert.ErrorIs(t, err, ErrInsufficientHoldings)
	assert.Equal(t, 0, exec.sells)
	assert.Equal(t, liquidBefore, p.Liquid())
	assert.Equal(t, int64(2), p.QuantityOf("GGAL"))
}

func TestSellCreditsCash(t *testing.T) {
	p, _ := newTestPortfolio(t, 100)
	ctx := context.Background()
	require.NoError(t, p.Buy(ctx, "GGAL", 10, 5, "LONG")) // liquid 50

	require.NoError(t, p.Sell(ctx, "GGAL", 20, 5, "LONG"))

	assert.Equal(t, 150.0, p.Liquid())
}

func TestQuantityOfSpansLots(t *testing.T) {
	p, _ := newTestPortfolio(t, 1000)
	ctx := context.Background()
	require.NoError(t, p.Buy(ctx, "GGAL", 10, 5, "LONG"))
	require.NoError(t, p.Buy(ctx, "GGAL", 12, 3, "LONG"))
	require.NoError(t, p.Buy(ctx, "YPF", 8, 4, "LONG"))

	assert.Equal(t, int64(8), p.QuantityOf("GGAL"))
	assert.Equal(t, int64(4), p.QuantityOf("YPF"))
	assert.Equal(t, int64(0), p.QuantityOf("PAMP"))
}

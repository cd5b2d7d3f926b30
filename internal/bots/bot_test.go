package bots

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gungnir/internal/common"
	"gungnir/internal/engine"
)

func testBot(seed int64) (*Bot, *engine.Engine) {
	eng := engine.New(nil)
	b := NewBot(eng, 1, time.Millisecond)
	b.rng.Seed(seed)
	return b, eng
}

func TestBotGenerators(t *testing.T) {
	b, _ := testBot(1)

	for i := 0; i < 1000; i++ {
		qty := b.generateQuantity()
		assert.GreaterOrEqual(t, qty, uint64(minQuantity))
		assert.LessOrEqual(t, qty, uint64(maxQuantity))

		symbol := b.pickSymbol()
		assert.Contains(t, symbolStartPrices, symbol)
		assert.Positive(t, b.generatePrice(symbol))
	}

	// Unknown symbols fall back to a sane anchor.
	assert.Positive(t, b.generatePrice("MSFT"))
}

func TestBotStepsAgainstEngine(t *testing.T) {
	b, eng := testBot(42)

	for i := 0; i < 2000; i++ {
		b.step()
	}

	// Tracked ids are unique.
	seen := make(map[uint64]bool)
	for _, id := range b.orders {
		assert.False(t, seen[id], "duplicate tracked id %d", id)
		seen[id] = true
	}

	// The simulation actually traded.
	assert.NotEmpty(t, eng.RecentTrades(1))
}

func TestBotForgetsDeadOrders(t *testing.T) {
	b, eng := testBot(3)

	// Place one order, fill it from outside, then force an amend attempt.
	b.orders = nil
	id, err := eng.Submit("NVDA", common.Buy, 100.0, 5)
	assert.NoError(t, err)
	b.orders = []uint64{id}

	_, err = eng.Submit("NVDA", common.Sell, 100.0, 5)
	assert.NoError(t, err)

	b.amendRandomOrder()
	assert.Empty(t, b.orders, "amending a filled order must drop its id")
}

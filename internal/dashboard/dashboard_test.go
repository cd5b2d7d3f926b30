package dashboard

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gungnir/internal/common"
)

type stubSource struct {
	bids   []common.Level
	asks   []common.Level
	trades []common.Trade
}

func (s *stubSource) TopBids(string, int) []common.Level               { return s.bids }
func (s *stubSource) TopAsks(string, int) []common.Level               { return s.asks }
func (s *stubSource) RecentTradesForSymbol(string, int) []common.Trade { return s.trades }

func TestRender(t *testing.T) {
	src := &stubSource{
		bids: []common.Level{{Price: 100.0, Quantity: 10}, {Price: 99.5, Quantity: 3}},
		asks: []common.Level{{Price: 100.5, Quantity: 7}},
		trades: []common.Trade{
			{Symbol: "NVDA", Price: 100.25, Quantity: 2, Timestamp: time.Date(2025, 3, 14, 9, 30, 15, 0, time.Local)},
		},
	}

	var buf bytes.Buffer
	New(src, &buf, "NVDA", 10, time.Second).Render()
	out := buf.String()

	assert.Contains(t, out, "Symbol: NVDA")
	assert.Contains(t, out, "10 @     100.00")
	assert.Contains(t, out, "7 @     100.50")
	assert.Contains(t, out, "Best Bid 100.00 | Best Ask 100.50 | Spread 0.50")
	assert.Contains(t, out, "2 @     100.25  2025-03-14 09:30:15")
}

func TestRenderEmptyBook(t *testing.T) {
	var buf bytes.Buffer
	New(&stubSource{}, &buf, "NVDA", 10, time.Second).Render()
	out := buf.String()

	assert.Contains(t, out, "BIDS (Qty @ Price)")
	// No spread line without both sides.
	assert.NotContains(t, out, "Spread")
}

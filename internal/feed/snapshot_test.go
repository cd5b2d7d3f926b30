package feed

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gungnir/internal/common"
)

type stubSource struct {
	books  []common.BookSnapshot
	trades []common.Trade
}

func (s *stubSource) BookSnapshotAll() []common.BookSnapshot { return s.books }
func (s *stubSource) RecentTrades(count int) []common.Trade {
	if count > len(s.trades) {
		count = len(s.trades)
	}
	return s.trades[len(s.trades)-count:]
}

func TestBuildSnapshotWireFormat(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 30, 15, 0, time.Local)
	src := &stubSource{
		books: []common.BookSnapshot{
			{
				Symbol: "NVDA",
				Bids:   []common.Level{{Price: 100.0, Quantity: 5}},
				Asks:   nil, // empty side
			},
		},
		trades: []common.Trade{
			{BuyOrderID: 1, SellOrderID: 2, Symbol: "NVDA", Price: 100.0, Quantity: 5, Timestamp: ts},
		},
	}

	data, err := json.Marshal(buildSnapshot(src, 10))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"order_books": [
			{"symbol": "NVDA", "bids": [{"price": 100, "quantity": 5}], "asks": []}
		],
		"recent_trades": [
			{"symbol": "NVDA", "price": 100, "quantity": 5, "timestamp": "2025-03-14 09:30:15"}
		]
	}`, string(data))
}

func TestBuildSnapshotEmptyEngine(t *testing.T) {
	data, err := json.Marshal(buildSnapshot(&stubSource{}, 10))
	require.NoError(t, err)
	// Empty collections publish as [], never null.
	assert.JSONEq(t, `{"order_books": [], "recent_trades": []}`, string(data))
}

func TestBuildSnapshotLimitsTrades(t *testing.T) {
	src := &stubSource{
		trades: []common.Trade{
			{Symbol: "NVDA", Price: 1},
			{Symbol: "NVDA", Price: 2},
			{Symbol: "NVDA", Price: 3},
		},
	}
	snap := buildSnapshot(src, 2)
	require.Len(t, snap.RecentTrades, 2)
	assert.Equal(t, 2.0, snap.RecentTrades[0].Price)
	assert.Equal(t, 3.0, snap.RecentTrades[1].Price)
}

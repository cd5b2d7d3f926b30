package feed

import (
	"gungnir/internal/common"
	"gungnir/internal/events"
)

// Source is the read-only surface the feed consumes. The engine satisfies it.
type Source interface {
	BookSnapshotAll() []common.BookSnapshot
	RecentTrades(count int) []common.Trade
}

// snapshot is the wire frame pushed to every connected client.
type snapshot struct {
	OrderBooks   []common.BookSnapshot `json:"order_books"`
	RecentTrades []tradeView           `json:"recent_trades"`
}

// tradeView is a trade as published: order ids are internal, so only the
// market-visible fields go on the wire, with a display timestamp.
type tradeView struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Quantity  uint64  `json:"quantity"`
	Timestamp string  `json:"timestamp"`
}

func buildSnapshot(src Source, tradeDepth int) snapshot {
	books := src.BookSnapshotAll()
	if books == nil {
		books = []common.BookSnapshot{}
	}
	for i := range books {
		// Empty sides publish as [] rather than null.
		if books[i].Bids == nil {
			books[i].Bids = []common.Level{}
		}
		if books[i].Asks == nil {
			books[i].Asks = []common.Level{}
		}
	}

	trades := src.RecentTrades(tradeDepth)
	views := make([]tradeView, len(trades))
	for i, t := range trades {
		views[i] = tradeView{
			Symbol:    t.Symbol,
			Price:     t.Price,
			Quantity:  t.Quantity,
			Timestamp: t.Timestamp.Format(events.TimeLayout),
		}
	}

	return snapshot{
		OrderBooks:   books,
		RecentTrades: views,
	}
}

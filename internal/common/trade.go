package common

import (
	"fmt"
	"time"
)

// Trade records a single match between a buy and a sell order. The price is
// always the resting order's price, so any price improvement accrues to the
// aggressor. Trades are immutable once appended to the engine's log.
type Trade struct {
	BuyOrderID  uint64
	SellOrderID uint64
	Symbol      string
	Price       float64
	Quantity    uint64
	Timestamp   time.Time
}

func (t Trade) String() string {
	return fmt.Sprintf("%s %d @ %f (buy #%d / sell #%d)",
		t.Symbol, t.Quantity, t.Price, t.BuyOrderID, t.SellOrderID)
}

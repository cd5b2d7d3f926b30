package engine

import (
	"time"

	"gungnir/internal/common"
	"gungnir/internal/events"
)

// crosses is the price-crossing predicate: whether an incoming order priced
// at incoming is willing to trade against a resting level priced at resting.
// Prices are compared exactly as stored, never rounded.
func crosses(side common.Side, incoming, resting float64) bool {
	if side == common.Buy {
		return incoming >= resting
	}
	return incoming <= resting
}

// match consumes resting liquidity from the opposite side of the incoming
// order's book, best level first and oldest order first within a level, while
// the opposite side is non-empty, the incoming residual is positive and the
// crossing predicate holds. Each match trades at the resting order's price,
// appends to the trade log and emits a TRADE event. Fully consumed resting
// orders are erased from both the side container and the cross-index.
//
// Must be called with the engine lock held.
func (e *Engine) match(bk *book, incoming *common.Order) {
	opposite := bk.side(incoming.Side.Opposite())

	for incoming.Quantity > 0 {
		level, ok := opposite.MinMut()
		if !ok || !crosses(incoming.Side, incoming.Price, level.price) {
			break
		}

		for len(level.orders) > 0 && incoming.Quantity > 0 {
			resting := level.orders[0]
			matchQty := min(incoming.Quantity, resting.Quantity)

			trade := common.Trade{
				Symbol:    incoming.Symbol,
				Price:     level.price,
				Quantity:  matchQty,
				Timestamp: time.Now(),
			}
			if incoming.Side == common.Buy {
				trade.BuyOrderID = incoming.ID
				trade.SellOrderID = resting.ID
			} else {
				trade.BuyOrderID = resting.ID
				trade.SellOrderID = incoming.ID
			}
			e.trades = append(e.trades, trade)
			e.emit(events.Trade, events.TradeText(trade))
			e.met.TradesTotal.Inc()
			e.met.TradeVolume.Add(float64(matchQty))

			incoming.Quantity -= matchQty
			resting.Quantity -= matchQty

			if resting.Quantity == 0 {
				// Capture the id before dropping the order from the level.
				restingID := resting.ID
				level.orders = level.orders[1:]
				delete(e.index, restingID)
			}
		}

		if len(level.orders) == 0 {
			opposite.Delete(level)
		}
	}
}

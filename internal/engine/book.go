package engine

import (
	"github.com/tidwall/btree"

	"gungnir/internal/common"
)

// priceLevel groups the resting orders sharing one price. Orders are held in
// arrival order, so the head of the slice is the oldest (highest time
// priority) order at the level.
type priceLevel struct {
	price  float64
	orders []*common.Order
}

func (l *priceLevel) quantity() uint64 {
	var total uint64
	for _, o := range l.orders {
		total += o.Quantity
	}
	return total
}

type priceLevels = btree.BTreeG[*priceLevel]

// book is one symbol's central limit order book: price levels sorted best
// first on each side. Both trees iterate best-first under Scan/MinMut because
// the direction lives in the comparator.
type book struct {
	bids *priceLevels
	asks *priceLevels
}

func newBook() *book {
	// Sorted greatest first.
	bids := btree.NewBTreeG(func(a, b *priceLevel) bool {
		return a.price > b.price
	})
	// Sorted least first.
	asks := btree.NewBTreeG(func(a, b *priceLevel) bool {
		return a.price < b.price
	})
	return &book{bids: bids, asks: asks}
}

func (b *book) side(s common.Side) *priceLevels {
	if s == common.Buy {
		return b.bids
	}
	return b.asks
}

// insert appends the order to its price level's queue, creating the level if
// this is the first order at the price. Appending keeps time priority: later
// arrivals queue behind earlier ones.
func (b *book) insert(o *common.Order) {
	levels := b.side(o.Side)
	level, ok := levels.GetMut(&priceLevel{price: o.Price})
	if ok {
		level.orders = append(level.orders, o)
		return
	}
	levels.Set(&priceLevel{
		price:  o.Price,
		orders: []*common.Order{o},
	})
}

// remove erases the order from its price level, dropping the level when it
// empties. Reports whether the order was found where its fields said it was.
func (b *book) remove(o *common.Order) bool {
	levels := b.side(o.Side)
	level, ok := levels.GetMut(&priceLevel{price: o.Price})
	if !ok {
		return false
	}
	for i, resting := range level.orders {
		if resting.ID != o.ID {
			continue
		}
		level.orders = append(level.orders[:i], level.orders[i+1:]...)
		if len(level.orders) == 0 {
			levels.Delete(level)
		}
		return true
	}
	return false
}

// topLevels walks the side best-first, aggregating each price level, up to
// depth levels.
func (b *book) topLevels(s common.Side, depth int) []common.Level {
	if depth <= 0 {
		return nil
	}
	out := make([]common.Level, 0, depth)
	b.side(s).Scan(func(level *priceLevel) bool {
		out = append(out, common.Level{
			Price:    level.price,
			Quantity: level.quantity(),
		})
		return len(out) < depth
	})
	return out
}

// bestPrice reports the best price on the side, if the side is non-empty.
func (b *book) bestPrice(s common.Side) (float64, bool) {
	level, ok := b.side(s).Min()
	if !ok {
		return 0, false
	}
	return level.price, true
}

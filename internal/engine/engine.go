package engine

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"gungnir/internal/common"
	"gungnir/internal/events"
	"gungnir/internal/metrics"
)

var ErrRejection = errors.New("order rejection")

// Engine is the matching engine facade: one book per symbol, a cross-index
// from order id to the resting order, an append-only trade log and a single
// event sink. One engine-wide mutex serialises every mutating and reading
// operation, so every observer sees a prefix of one total order. The
// cross-index spans symbols, which is why the lock is not per-symbol.
type Engine struct {
	mu sync.Mutex

	books  map[string]*book
	index  map[uint64]*common.Order
	trades []common.Trade
	nextID uint64

	sink events.Sink
	met  *metrics.Collector
}

// New creates an engine reporting events to sink. A nil sink disables event
// emission.
func New(sink events.Sink) *Engine {
	return &Engine{
		books:  make(map[string]*book),
		index:  make(map[uint64]*common.Order),
		nextID: 1,
		sink:   sink,
		met:    metrics.Get(),
	}
}

func (e *Engine) emit(kind events.Kind, payload string) {
	if e.sink == nil {
		return
	}
	e.sink.Record(kind, payload)
}

func (e *Engine) bookFor(symbol string) *book {
	bk, ok := e.books[symbol]
	if !ok {
		bk = newBook()
		e.books[symbol] = bk
	}
	return bk
}

// Submit validates, assigns an id and ingress timestamp, matches against the
// opposite side and rests any residual. The id and timestamp are taken under
// the lock so that id order, timestamp order and trade log order agree.
// Returns the assigned order id; fails only on precondition violations, which
// leave the engine untouched.
func (e *Engine) Submit(symbol string, side common.Side, price float64, quantity uint64) (uint64, error) {
	if symbol == "" {
		return 0, fmt.Errorf("%w: empty symbol", ErrRejection)
	}
	if price <= 0 || math.IsNaN(price) {
		return 0, fmt.Errorf("%w: invalid price %f", ErrRejection, price)
	}
	if quantity == 0 {
		return 0, fmt.Errorf("%w: zero quantity", ErrRejection)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	order := &common.Order{
		ID:        e.nextID,
		Symbol:    symbol,
		Side:      side,
		Price:     price,
		Quantity:  quantity,
		Timestamp: time.Now(),
	}
	e.nextID++

	// ADD carries the order as originally submitted, ahead of any trades it
	// triggers.
	e.emit(events.Add, events.OrderText(*order))
	e.placeLocked(order)
	e.met.OrdersSubmitted.Inc()
	e.met.RestingOrders.Set(float64(len(e.index)))

	return order.ID, nil
}

// placeLocked matches the order and rests + indexes any residual. Shared by
// Submit and price-changing Amend (which re-enters under the original id).
func (e *Engine) placeLocked(order *common.Order) {
	bk := e.bookFor(order.Symbol)
	e.match(bk, order)
	if order.Quantity > 0 {
		bk.insert(order)
		e.index[order.ID] = order
	}
}

// Cancel removes a resting order. Unknown ids are not errors: the order may
// have been filled an instant earlier, so Cancel reports false and changes
// nothing.
func (e *Engine) Cancel(orderID uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	order, ok := e.index[orderID]
	if !ok {
		return false
	}

	e.emit(events.Cancel, events.OrderText(*order))
	e.unlinkLocked(order)
	e.met.OrdersCancelled.Inc()
	e.met.RestingOrders.Set(float64(len(e.index)))
	return true
}

// Amend modifies a resting order. A same-price amend mutates the residual in
// place and keeps the order's timestamp and queue position. A price-changing
// amend is cancel+resubmit under the same id: the order loses its time
// priority, takes a fresh timestamp and may match immediately. A zero new
// quantity removes the order outright.
func (e *Engine) Amend(orderID uint64, newPrice float64, newQuantity uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	order, ok := e.index[orderID]
	if !ok {
		return false
	}

	e.emit(events.Amend, events.OrderText(*order))

	switch {
	case newPrice == order.Price && newQuantity > 0:
		order.Quantity = newQuantity
	case newPrice == order.Price:
		// Quantity amended to zero: a resting order must keep a positive
		// residual, so this is a cancel.
		e.unlinkLocked(order)
	default:
		e.unlinkLocked(order)
		if newQuantity > 0 {
			order.Price = newPrice
			order.Quantity = newQuantity
			order.Timestamp = time.Now()
			e.placeLocked(order)
		}
	}

	e.met.OrdersAmended.Inc()
	e.met.RestingOrders.Set(float64(len(e.index)))
	return true
}

// unlinkLocked erases the order from its side container and the cross-index.
// The two structures must agree; a miss here means they have desynchronised,
// which is unrecoverable.
func (e *Engine) unlinkLocked(order *common.Order) {
	bk, ok := e.books[order.Symbol]
	if !ok || !bk.remove(order) {
		log.Fatal().
			Uint64("orderID", order.ID).
			Str("symbol", order.Symbol).
			Stringer("side", order.Side).
			Msg("cross-index references an order missing from its book")
	}
	delete(e.index, order.ID)
}

// TopBids returns up to depth aggregated bid levels, best (highest) first.
// An unknown symbol yields an empty result.
func (e *Engine) TopBids(symbol string, depth int) []common.Level {
	e.mu.Lock()
	defer e.mu.Unlock()

	bk, ok := e.books[symbol]
	if !ok {
		return nil
	}
	return bk.topLevels(common.Buy, depth)
}

// TopAsks returns up to depth aggregated ask levels, best (lowest) first.
func (e *Engine) TopAsks(symbol string, depth int) []common.Level {
	e.mu.Lock()
	defer e.mu.Unlock()

	bk, ok := e.books[symbol]
	if !ok {
		return nil
	}
	return bk.topLevels(common.Sell, depth)
}

// RecentTrades returns a copy of the last count trades, oldest first.
func (e *Engine) RecentTrades(count int) []common.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()

	if count <= 0 {
		return nil
	}
	start := len(e.trades) - count
	if start < 0 {
		start = 0
	}
	out := make([]common.Trade, len(e.trades)-start)
	copy(out, e.trades[start:])
	return out
}

// RecentTradesForSymbol collects up to count trades for the symbol, scanning
// the log newest first, and returns them oldest first to match RecentTrades.
func (e *Engine) RecentTradesForSymbol(symbol string, count int) []common.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()

	if count <= 0 {
		return nil
	}
	out := make([]common.Trade, 0, count)
	for i := len(e.trades) - 1; i >= 0 && len(out) < count; i-- {
		if e.trades[i].Symbol == symbol {
			out = append(out, e.trades[i])
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// BookSnapshotAll returns every symbol's aggregated levels, symbols sorted
// for a stable wire ordering.
func (e *Engine) BookSnapshotAll() []common.BookSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	symbols := make([]string, 0, len(e.books))
	for symbol := range e.books {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	out := make([]common.BookSnapshot, 0, len(symbols))
	for _, symbol := range symbols {
		bk := e.books[symbol]
		out = append(out, common.BookSnapshot{
			Symbol: symbol,
			Bids:   bk.topLevels(common.Buy, bk.bids.Len()),
			Asks:   bk.topLevels(common.Sell, bk.asks.Len()),
		})
	}
	return out
}

// TrimTrades drops all but the newest keep trades from the log. The log is
// unbounded by default; deployments with long uptimes call this from their
// own housekeeping loop.
func (e *Engine) TrimTrades(keep int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if keep < 0 {
		keep = 0
	}
	if len(e.trades) <= keep {
		return
	}
	trimmed := make([]common.Trade, keep)
	copy(trimmed, e.trades[len(e.trades)-keep:])
	e.trades = trimmed
}

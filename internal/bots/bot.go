package bots

import (
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"gungnir/internal/common"
	"gungnir/internal/engine"
)

const (
	minQuantity = 1
	maxQuantity = 20

	newProbability    = 0.8
	cancelProbability = 0.1
	amendProbability  = 0.1
)

// symbolStartPrices anchors each symbol's price process.
var symbolStartPrices = map[string]float64{
	"AAPL": 226.5,
	"GOOG": 201.5,
	"NVDA": 183.0,
	"NFLX": 1218.2,
}

var allowedSymbols = func() []string {
	symbols := make([]string, 0, len(symbolStartPrices))
	for symbol := range symbolStartPrices {
		symbols = append(symbols, symbol)
	}
	return symbols
}()

// Bot is a simulated trader. Each step it cancels one of its live orders,
// amends one, or places a new one, with fixed probabilities. The bot tracks
// the ids it has created and forgets ids the engine no longer knows (filled
// or replaced behind its back).
type Bot struct {
	id       uint64
	engine   *engine.Engine
	rng      *rand.Rand
	interval time.Duration
	orders   []uint64
}

func NewBot(eng *engine.Engine, id uint64, interval time.Duration) *Bot {
	return &Bot{
		id:       id,
		engine:   eng,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano() + int64(id))),
		interval: interval,
	}
}

// Start launches n bots under the tomb.
func Start(t *tomb.Tomb, eng *engine.Engine, n int, interval time.Duration) {
	log.Info().Int("bots", n).Dur("interval", interval).Msg("starting trader bots")
	for i := 0; i < n; i++ {
		bot := NewBot(eng, uint64(i+1), interval)
		t.Go(func() error {
			return bot.run(t)
		})
	}
}

func (b *Bot) run(t *tomb.Tomb) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.Dying():
			return nil
		case <-ticker.C:
			b.step()
		}
	}
}

func (b *Bot) step() {
	if len(b.orders) > 0 && b.randomChoice(cancelProbability) {
		b.cancelRandomOrder()
		return
	}
	if len(b.orders) > 0 && b.randomChoice(amendProbability) {
		b.amendRandomOrder()
		return
	}
	if b.randomChoice(newProbability) {
		b.placeRandomOrder()
	}
}

func (b *Bot) cancelRandomOrder() {
	idx := b.rng.Intn(len(b.orders))
	// Whether the cancel landed or the order was already gone, the id is dead.
	b.engine.Cancel(b.orders[idx])
	b.orders = append(b.orders[:idx], b.orders[idx+1:]...)
}

func (b *Bot) amendRandomOrder() {
	idx := b.rng.Intn(len(b.orders))
	id := b.orders[idx]

	symbol := b.pickSymbol()
	if !b.engine.Amend(id, b.generatePrice(symbol), b.generateQuantity()) {
		b.orders = append(b.orders[:idx], b.orders[idx+1:]...)
	}
}

func (b *Bot) placeRandomOrder() {
	symbol := b.pickSymbol()
	side := common.Buy
	if b.randomChoice(0.5) {
		side = common.Sell
	}

	id, err := b.engine.Submit(symbol, side, b.generatePrice(symbol), b.generateQuantity())
	if err != nil {
		log.Error().Err(err).Uint64("bot", b.id).Msg("bot order rejected")
		return
	}
	b.orders = append(b.orders, id)
}

func (b *Bot) randomChoice(p float64) bool {
	return b.rng.Float64() < p
}

func (b *Bot) pickSymbol() string {
	return allowedSymbols[b.rng.Intn(len(allowedSymbols))]
}

func (b *Bot) generateQuantity() uint64 {
	return uint64(minQuantity + b.rng.Intn(maxQuantity-minQuantity+1))
}

// generatePrice draws from a normal centred on the symbol's start price with
// a 5% standard deviation, floored away from zero so the engine never rejects
// on price.
func (b *Bot) generatePrice(symbol string) float64 {
	start, ok := symbolStartPrices[symbol]
	if !ok {
		start = 100.0
	}
	price := start + b.rng.NormFloat64()*start*0.05
	if price <= 0 {
		price = start
	}
	return price
}

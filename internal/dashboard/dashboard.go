package dashboard

import (
	"fmt"
	"io"
	"time"

	tomb "gopkg.in/tomb.v2"

	"gungnir/internal/common"
	"gungnir/internal/events"
)

// Source is the snapshot surface the dashboard reads. The engine satisfies
// it; the dashboard never touches book internals.
type Source interface {
	TopBids(symbol string, depth int) []common.Level
	TopAsks(symbol string, depth int) []common.Level
	RecentTradesForSymbol(symbol string, count int) []common.Trade
}

const recentTradeRows = 8

// Dashboard periodically renders one symbol's book and recent trades to a
// terminal-ish writer using ANSI clears.
type Dashboard struct {
	src      Source
	out      io.Writer
	symbol   string
	depth    int
	interval time.Duration
}

func New(src Source, out io.Writer, symbol string, depth int, interval time.Duration) *Dashboard {
	return &Dashboard{
		src:      src,
		out:      out,
		symbol:   symbol,
		depth:    depth,
		interval: interval,
	}
}

// Run renders until the tomb dies.
func (d *Dashboard) Run(t *tomb.Tomb) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.Dying():
			return nil
		case <-ticker.C:
			d.Render()
		}
	}
}

// Render draws one frame.
func (d *Dashboard) Render() {
	bids := d.src.TopBids(d.symbol, d.depth)
	asks := d.src.TopAsks(d.symbol, d.depth)
	trades := d.src.RecentTradesForSymbol(d.symbol, recentTradeRows)

	fmt.Fprint(d.out, "\033[2J\033[H")
	fmt.Fprintf(d.out, "CLOB Viewer  |  Symbol: %s  |  Depth: %d\n\n", d.symbol, d.depth)
	fmt.Fprintf(d.out, "  %-22s   %-22s\n", "BIDS (Qty @ Price)", "ASKS (Qty @ Price)")
	fmt.Fprintln(d.out, "  --------------------------------------------------")

	rows := len(bids)
	if len(asks) > rows {
		rows = len(asks)
	}
	for i := 0; i < rows; i++ {
		bid, ask := "", ""
		if i < len(bids) {
			bid = fmt.Sprintf("%8d @ %10.2f", bids[i].Quantity, bids[i].Price)
		}
		if i < len(asks) {
			ask = fmt.Sprintf("%8d @ %10.2f", asks[i].Quantity, asks[i].Price)
		}
		fmt.Fprintf(d.out, "  %-22s   %-22s\n", bid, ask)
	}

	if len(bids) > 0 && len(asks) > 0 {
		bestBid := bids[0].Price
		bestAsk := asks[0].Price
		fmt.Fprintf(d.out, "\n  Best Bid %.2f | Best Ask %.2f | Spread %.2f\n",
			bestBid, bestAsk, bestAsk-bestBid)
	}

	if len(trades) > 0 {
		fmt.Fprintln(d.out, "\n  Recent Trades (Qty @ Price) time")
		// Newest first on screen.
		for i := len(trades) - 1; i >= 0; i-- {
			trade := trades[i]
			fmt.Fprintf(d.out, "  %8d @ %10.2f  %s\n",
				trade.Quantity, trade.Price, trade.Timestamp.Format(events.TimeLayout))
		}
	}
}

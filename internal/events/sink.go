package events

import (
	"strconv"
	"strings"

	"gungnir/internal/common"
)

type Kind int

const (
	Add Kind = iota
	Amend
	Cancel
	Trade
)

func (k Kind) String() string {
	switch k {
	case Add:
		return "ADD"
	case Amend:
		return "AMEND"
	case Cancel:
		return "CANCEL"
	case Trade:
		return "TRADE"
	}
	return "UNKNOWN"
}

// Sink receives the engine's event stream. The engine calls Record
// synchronously while holding its lock, so implementations must not block:
// no network I/O, no fsync. Emission is best-effort; a sink that fails keeps
// that to itself.
type Sink interface {
	Record(kind Kind, payload string)
}

// TimeLayout is the wall-clock display format used in event payloads.
const TimeLayout = "2006-01-02 15:04:05"

// OrderText renders the textual payload for ADD/AMEND/CANCEL events.
func OrderText(o common.Order) string {
	var b strings.Builder
	b.WriteString(o.Symbol)
	b.WriteByte(',')
	b.WriteString(o.Side.String())
	b.WriteByte(',')
	b.WriteString(strconv.FormatFloat(o.Price, 'f', -1, 64))
	b.WriteByte(',')
	b.WriteString(strconv.FormatUint(o.Quantity, 10))
	b.WriteByte(',')
	b.WriteString(o.Timestamp.Format(TimeLayout))
	return b.String()
}

// TradeText renders the textual payload for TRADE events.
func TradeText(t common.Trade) string {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(t.BuyOrderID, 10))
	b.WriteByte(',')
	b.WriteString(strconv.FormatUint(t.SellOrderID, 10))
	b.WriteByte(',')
	b.WriteString(t.Symbol)
	b.WriteByte(',')
	b.WriteString(strconv.FormatFloat(t.Price, 'f', -1, 64))
	b.WriteByte(',')
	b.WriteString(strconv.FormatUint(t.Quantity, 10))
	b.WriteByte(',')
	b.WriteString(t.Timestamp.Format(TimeLayout))
	return b.String()
}

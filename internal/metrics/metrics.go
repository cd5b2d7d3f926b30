package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	collector     *Collector
	collectorOnce sync.Once
)

// Collector holds the engine and feed metrics. A single instance registers
// against the default prometheus registry; Get returns it.
type Collector struct {
	// Engine metrics
	OrdersSubmitted prometheus.Counter
	OrdersCancelled prometheus.Counter
	OrdersAmended   prometheus.Counter
	TradesTotal     prometheus.Counter
	TradeVolume     prometheus.Counter
	RestingOrders   prometheus.Gauge

	// Feed metrics
	FeedClients prometheus.Gauge
}

func Get() *Collector {
	collectorOnce.Do(func() {
		collector = &Collector{
			OrdersSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "gungnir_orders_submitted_total",
				Help: "Orders accepted by the engine",
			}),
			OrdersCancelled: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "gungnir_orders_cancelled_total",
				Help: "Orders removed via cancel",
			}),
			OrdersAmended: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "gungnir_orders_amended_total",
				Help: "Orders modified via amend",
			}),
			TradesTotal: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "gungnir_trades_total",
				Help: "Trades appended to the trade log",
			}),
			TradeVolume: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "gungnir_trade_volume_total",
				Help: "Total quantity traded",
			}),
			RestingOrders: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "gungnir_resting_orders",
				Help: "Orders currently resting across all books",
			}),
			FeedClients: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "gungnir_feed_clients",
				Help: "Connected snapshot feed clients",
			}),
		}
		prometheus.MustRegister(
			collector.OrdersSubmitted,
			collector.OrdersCancelled,
			collector.OrdersAmended,
			collector.TradesTotal,
			collector.TradeVolume,
			collector.RestingOrders,
			collector.FeedClients,
		)
	})
	return collector
}

// Handler exposes the default registry for mounting next to the feed server.
func Handler() http.Handler {
	return promhttp.Handler()
}

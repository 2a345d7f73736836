package metrics

import "github.com/prometheus/client_golang/prometheus"

// PoolMetrics exposes resource-pool gauges for operator dashboards.
type PoolMetrics struct {
	walletsAvailable   prometheus.Gauge
	walletsInUse       prometheus.Gauge
	walletsTotal       prometheus.Gauge
	locationsAvailable *prometheus.GaugeVec
}

// NewPoolMetrics registers the pool gauges on the provided registerer.
func NewPoolMetrics(reg prometheus.Registerer) *PoolMetrics {
	if reg == nil {
		return &PoolMetrics{}
	}
	walletsAvailable := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "wallet_pool_available",
		Help:      "Wallets currently free for assignment.",
	})
	walletsInUse := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "wallet_pool_in_use",
		Help:      "Wallets bound to a user.",
	})
	walletsTotal := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "wallet_pool_total",
		Help:      "Total wallets in the pool.",
	})
	locationsAvailable := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "location_pool_available",
		Help:      "Delivery locations remaining per product.",
	}, []string{"product_id"})
	reg.MustRegister(walletsAvailable, walletsInUse, walletsTotal, locationsAvailable)
	return &PoolMetrics{
		walletsAvailable:   walletsAvailable,
		walletsInUse:       walletsInUse,
		walletsTotal:       walletsTotal,
		locationsAvailable: locationsAvailable,
	}
}

// SetWalletCounts records the wallet pool state.
func (p *PoolMetrics) SetWalletCounts(available, inUse, total int64) {
	if p == nil || p.walletsAvailable == nil {
		return
	}
	p.walletsAvailable.Set(float64(available))
	p.walletsInUse.Set(float64(inUse))
	p.walletsTotal.Set(float64(total))
}

// SetLocationCount records remaining locations for a product.
func (p *PoolMetrics) SetLocationCount(productID string, available int64) {
	if p == nil || p.locationsAvailable == nil {
		return
	}
	p.locationsAvailable.WithLabelValues(productID).Set(float64(available))
}

/*
Optional Pool Metrics

Pool.Stats() is the minimal contract (§ DOMAIN STACK); RegisterMetrics
wires it into a prometheus.Registerer as two gauges, grounded on
packetd-packetd's use of github.com/prometheus/client_golang for its
own runtime gauges. Entirely optional — nothing in the core package
depends on a registry existing.
*/
package redio

import "github.com/prometheus/client_golang/prometheus"

// RegisterMetrics registers live/idle connection gauges for p against
// reg, refreshed lazily on every Collect call. Safe to call at most
// once per (Pool, Registerer) pair.
func RegisterMetrics(reg prometheus.Registerer, p *Pool) error {
	live := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "redio",
		Name:      "pool_live_connections",
		Help:      "Number of connections currently dialed (idle + in use).",
	}, func() float64 {
		l, _ := p.Stats()
		return float64(l)
	})
	idle := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "redio",
		Name:      "pool_idle_connections",
		Help:      "Number of connections currently idle in the pool.",
	}, func() float64 {
		_, i := p.Stats()
		return float64(i)
	})
	if err := reg.Register(live); err != nil {
		return err
	}
	return reg.Register(idle)
}

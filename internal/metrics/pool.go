package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolCollector implements prometheus.Collector for pgxpool statistics.
// Stats are read during each scrape.
type PoolCollector struct {
	pools map[string]*pgxpool.Pool

	acquireCount  *prometheus.Desc
	acquiredConns *prometheus.Desc
	idleConns     *prometheus.Desc
	maxConns      *prometheus.Desc
	totalConns    *prometheus.Desc
}

// NewPoolCollector creates a collector that exports stats per named pool
// ("source", "state").
func NewPoolCollector(pools map[string]*pgxpool.Pool) *PoolCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(namespace+"_pgxpool_"+name, help, []string{"pool"}, nil)
	}
	return &PoolCollector{
		pools:         pools,
		acquireCount:  desc("acquire_count", "Cumulative count of successful connection acquires."),
		acquiredConns: desc("acquired_conns", "Number of currently acquired connections."),
		idleConns:     desc("idle_conns", "Number of idle connections in the pool."),
		maxConns:      desc("max_conns", "Maximum number of connections allowed."),
		totalConns:    desc("total_conns", "Total number of connections in the pool."),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquireCount
	ch <- c.acquiredConns
	ch <- c.idleConns
	ch <- c.maxConns
	ch <- c.totalConns
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	for name, pool := range c.pools {
		if pool == nil {
			continue
		}
		stat := pool.Stat()

		ch <- prometheus.MustNewConstMetric(c.acquireCount, prometheus.CounterValue, float64(stat.AcquireCount()), name)
		ch <- prometheus.MustNewConstMetric(c.acquiredConns, prometheus.GaugeValue, float64(stat.AcquiredConns()), name)
		ch <- prometheus.MustNewConstMetric(c.idleConns, prometheus.GaugeValue, float64(stat.IdleConns()), name)
		ch <- prometheus.MustNewConstMetric(c.maxConns, prometheus.GaugeValue, float64(stat.MaxConns()), name)
		ch <- prometheus.MustNewConstMetric(c.totalConns, prometheus.GaugeValue, float64(stat.TotalConns()), name)
	}
}

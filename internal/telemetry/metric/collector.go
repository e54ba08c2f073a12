package metric

import "github.com/prometheus/client_golang/prometheus"

// RecordsCollector reports the size of the live record collection at
// scrape time.
type RecordsCollector struct {
	count func() int
	desc  *prometheus.Desc
}

// NewRecordsCollector creates a collector backed by count.
func NewRecordsCollector(count func() int) *RecordsCollector {
	return &RecordsCollector{
		count: count,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "records", "current"),
			"Records currently held in memory",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *RecordsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *RecordsCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(c.count()))
}

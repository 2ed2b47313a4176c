// Package metrics exports evaluation counters of a compiled network as
// Prometheus metrics.
package metrics

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/wbrown/janus-dataflow/datalog/executor"
)

// StatsSource is anything that reports evaluation counters
type StatsSource interface {
	Stats() executor.Stats
}

type counter struct {
	desc  *prometheus.Desc
	value func(executor.Stats) int64
}

func newCounter(namespace, name, help string, value func(executor.Stats) int64) counter {
	return counter{
		desc:  prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, nil, nil),
		value: value,
	}
}

// Collector reads a StatsSource on every scrape
type Collector struct {
	source   StatsSource
	counters []counter
}

// NewCollector creates a collector whose metric names are prefixed with
// namespace
func NewCollector(namespace string, source StatsSource) *Collector {
	return &Collector{
		source: source,
		counters: []counter{
			newCounter(namespace, "queries_total", "Queries answered.",
				func(s executor.Stats) int64 { return s.Queries }),
			newCounter(namespace, "facts_seeded_total", "Fact rules replayed by Execute.",
				func(s executor.Stats) int64 { return s.FactsSeeded }),
			newCounter(namespace, "asserted_total", "Tuples inserted through Assert.",
				func(s executor.Stats) int64 { return s.Asserted }),
			newCounter(namespace, "tuples_derived_total", "Tuples newly stored by upward propagation.",
				func(s executor.Stats) int64 { return s.Derived }),
			newCounter(namespace, "tuples_duplicate_total", "Insertions that found the tuple already stored.",
				func(s executor.Stats) int64 { return s.Duplicates }),
			newCounter(namespace, "explorations_total", "Key sets explored downward.",
				func(s executor.Stats) int64 { return s.Explorations }),
			newCounter(namespace, "memo_hits_total", "Downward pulls answered by the memo.",
				func(s executor.Stats) int64 { return s.MemoHits }),
			newCounter(namespace, "rows_loaded_total", "Rows returned by relation loads.",
				func(s executor.Stats) int64 { return s.RowsLoaded }),
		},
	}
}

// Describe implements the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.counters {
		ch <- m.desc
	}
}

// Collect implements the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	stats := c.source.Stats()
	for _, m := range c.counters {
		ch <- prometheus.MustNewConstMetric(m.desc, prometheus.CounterValue, float64(m.value(stats)))
	}
}

// Sample is one gathered counter value
type Sample struct {
	Name  string
	Value float64
}

// Gather collects every counter and gauge of g, sorted by name
func Gather(g prometheus.Gatherer) ([]Sample, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}

	var samples []Sample
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				samples = append(samples, Sample{Name: mf.GetName(), Value: m.GetCounter().GetValue()})
			case m.GetGauge() != nil:
				samples = append(samples, Sample{Name: mf.GetName(), Value: m.GetGauge().GetValue()})
			}
		}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].Name < samples[j].Name })
	return samples, nil
}

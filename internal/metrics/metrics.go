// Package metrics owns the Prometheus registry of the transformer and its converters.
package metrics

import (
	"errors"
	"net/http"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

type Config struct {
	// registers the Go runtime and process collectors
	RuntimeCollectors bool
}

type Provider struct {
	reg *prometheus.Registry
}

func Init(cfg Config) *Provider {
	reg := prometheus.NewRegistry()

	if cfg.RuntimeCollectors {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	return &Provider{reg: reg}
}

func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}

func (p *Provider) Register(cs ...prometheus.Collector) {
	for _, c := range cs {
		p.reg.MustRegister(c)
	}
}

// Registers c, or returns the collector already registered under the same descriptors
func (p *Provider) RegisterOrGet(c prometheus.Collector) (prometheus.Collector, error) {
	if err := p.reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector, nil
		}
		return nil, err
	}
	return c, nil
}

func (p *Provider) Registerer() prometheus.Registerer { return p.reg }

// Sample is the summed value of a counter family for one label set
type Sample struct {
	Name   string
	Labels map[string]string
	Value  float64
}

// Counters returns every counter sample currently in the registry, sorted by name
func (p *Provider) Counters() ([]Sample, error) {
	families, err := p.reg.Gather()
	if err != nil {
		return nil, err
	}

	var out []Sample
	for _, family := range families {
		if family.GetType() != dto.MetricType_COUNTER {
			continue
		}
		for _, m := range family.GetMetric() {
			labels := make(map[string]string, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			out = append(out, Sample{
				Name:   family.GetName(),
				Labels: labels,
				Value:  m.GetCounter().GetValue(),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

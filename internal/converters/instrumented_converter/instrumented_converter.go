// Package instrumented_converter wraps a CoordinateConverter with Prometheus counters.
package instrumented_converter

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ecopia-map/geo_transformer/internal/converters"
	"github.com/ecopia-map/geo_transformer/internal/geometry"
)

const (
	DirectionForward = "forward"
	DirectionInverse = "inverse"

	resultOK    = "ok"
	resultError = "error"
)

type Metrics struct {
	builds *prometheus.CounterVec
	calls  *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		builds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geo_transformer_transform_builds_total",
				Help: "Transforms requested from the coordinate converter.",
			},
			[]string{"direction", "epsg", "result"},
		),
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geo_transformer_transform_calls_total",
				Help: "Points passed through converter transforms.",
			},
			[]string{"direction", "result"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.builds, m.calls)
	}
	return m
}

type instrumentedConverter struct {
	inner   converters.CoordinateConverter
	metrics *Metrics
}

func NewInstrumentedConverter(inner converters.CoordinateConverter, metrics *Metrics) converters.CoordinateConverter {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &instrumentedConverter{
		inner:   inner,
		metrics: metrics,
	}
}

func (c *instrumentedConverter) ForwardTransform(rs geometry.ReferenceSystem) (converters.Transform, error) {
	t, err := c.inner.ForwardTransform(rs)
	return c.wrap(DirectionForward, rs, t, err)
}

func (c *instrumentedConverter) InverseTransform(rs geometry.ReferenceSystem) (converters.Transform, error) {
	t, err := c.inner.InverseTransform(rs)
	return c.wrap(DirectionInverse, rs, t, err)
}

func (c *instrumentedConverter) Cleanup() {
	c.inner.Cleanup()
}

func (c *instrumentedConverter) wrap(direction string, rs geometry.ReferenceSystem, t converters.Transform, err error) (converters.Transform, error) {
	epsg := strconv.Itoa(rs.EPSG())
	if err != nil {
		c.metrics.builds.WithLabelValues(direction, epsg, resultError).Inc()
		return nil, err
	}
	c.metrics.builds.WithLabelValues(direction, epsg, resultOK).Inc()

	ok := c.metrics.calls.WithLabelValues(direction, resultOK)
	failed := c.metrics.calls.WithLabelValues(direction, resultError)

	return converters.TransformFunc(func(x, y float64) (float64, float64, error) {
		rx, ry, err := t.Transform(x, y)
		if err != nil {
			failed.Inc()
			return rx, ry, err
		}
		ok.Inc()
		return rx, ry, nil
	}), nil
}

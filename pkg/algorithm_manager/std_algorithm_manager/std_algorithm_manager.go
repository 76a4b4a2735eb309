package std_algorithm_manager

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ecopia-map/geo_transformer/internal/converters"
	"github.com/ecopia-map/geo_transformer/internal/converters/instrumented_converter"
	"github.com/ecopia-map/geo_transformer/internal/converters/proj4_coordinate_converter"
	"github.com/ecopia-map/geo_transformer/internal/metrics"
	"github.com/ecopia-map/geo_transformer/internal/placer"
	"github.com/ecopia-map/geo_transformer/internal/registry"
	"github.com/ecopia-map/geo_transformer/internal/transformer"
	"github.com/ecopia-map/geo_transformer/pkg/algorithm_manager"
)

type StandardAlgorithmManager struct {
	options             *placer.PlacerOptions
	coordinateConverter converters.CoordinateConverter
	registry            *registry.Registry
	metrics             *metrics.Provider
}

// Builds the PROJ backed converter and registers a transformer for the scene of the given options
func NewAlgorithmManager(opts *placer.PlacerOptions) (algorithm_manager.AlgorithmManager, error) {
	converter, err := proj4_coordinate_converter.NewProj4CoordinateConverter(opts.ProjCacheSize)
	if err != nil {
		return nil, err
	}

	am, err := NewAlgorithmManagerWithConverter(opts, converter)
	if err != nil {
		converter.Cleanup()
		return nil, err
	}
	return am, nil
}

// Same as NewAlgorithmManager with a caller provided converter
func NewAlgorithmManagerWithConverter(opts *placer.PlacerOptions, converter converters.CoordinateConverter) (*StandardAlgorithmManager, error) {
	provider := metrics.Init(metrics.Config{RuntimeCollectors: true})

	rejections := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geo_transformer_local_rejections_total",
		Help: "Projected to local conversions refused because the offset exceeds the local frame bound.",
	})
	provider.Register(rejections)

	am := &StandardAlgorithmManager{
		options:             opts,
		coordinateConverter: instrumented_converter.NewInstrumentedConverter(converter, instrumented_converter.NewMetrics(provider.Registerer())),
		registry:            registry.New(),
		metrics:             provider,
	}

	rs, err := opts.ReferenceSystem()
	if err != nil {
		return nil, err
	}

	bound := opts.Bound
	if bound == 0 {
		bound = transformer.DefaultBound
	}
	t, err := transformer.New(am.coordinateConverter, rs, opts.Anchor,
		transformer.WithBound(bound),
		transformer.WithRejectionCounter(rejections),
	)
	if err != nil {
		return nil, fmt.Errorf("scene %q: %w", opts.Scene, err)
	}

	if err := am.registry.Register(opts.Scene, t); err != nil {
		return nil, err
	}
	return am, nil
}

func (am *StandardAlgorithmManager) GetCoordinateConverterAlgorithm() converters.CoordinateConverter {
	return am.coordinateConverter
}

func (am *StandardAlgorithmManager) GetTransformer(scene string) (*transformer.CoordinateTransformer, error) {
	return am.registry.Get(scene)
}

func (am *StandardAlgorithmManager) GetRegistry() *registry.Registry {
	return am.registry
}

func (am *StandardAlgorithmManager) GetMetrics() *metrics.Provider {
	return am.metrics
}

// Unregisters every scene and releases the projections held by the converter
func (am *StandardAlgorithmManager) Cleanup() {
	for _, scene := range am.registry.Names() {
		am.registry.Unregister(scene)
	}
	am.coordinateConverter.Cleanup()
}

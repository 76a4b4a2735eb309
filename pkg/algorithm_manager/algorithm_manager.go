package algorithm_manager

import (
	"github.com/ecopia-map/geo_transformer/internal/converters"
	"github.com/ecopia-map/geo_transformer/internal/metrics"
	"github.com/ecopia-map/geo_transformer/internal/registry"
	"github.com/ecopia-map/geo_transformer/internal/transformer"
)

type AlgorithmManager interface {
	GetCoordinateConverterAlgorithm() converters.CoordinateConverter
	GetTransformer(scene string) (*transformer.CoordinateTransformer, error)
	GetRegistry() *registry.Registry
	GetMetrics() *metrics.Provider
	Cleanup()
}

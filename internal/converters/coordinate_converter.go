package converters

import (
	"github.com/ecopia-map/geo_transformer/internal/geometry"
)

// Maps a planar (x, y) tuple to another (x', y') tuple. Altitudes are never passed to a Transform.
type Transform interface {
	Transform(x, y float64) (float64, float64, error)
}

type CoordinateConverter interface {
	// Returns a transform from (east, north) in the given UTM reference system to WGS84 (lon, lat) degrees
	ForwardTransform(rs geometry.ReferenceSystem) (Transform, error)
	// Returns a transform from WGS84 (lon, lat) degrees to (east, north) in the given UTM reference system
	InverseTransform(rs geometry.ReferenceSystem) (Transform, error)
	Cleanup()
}

// Adapts a plain function to the Transform interface
type TransformFunc func(x, y float64) (float64, float64, error)

func (f TransformFunc) Transform(x, y float64) (float64, float64, error) {
	return f(x, y)
}

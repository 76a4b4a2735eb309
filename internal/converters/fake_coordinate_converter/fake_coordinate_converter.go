// Package fake_coordinate_converter provides a linear, zone aware CoordinateConverter for tests that must
// not depend on the PROJ library.
package fake_coordinate_converter

import (
	"sync"

	"github.com/ecopia-map/geo_transformer/internal/converters"
	"github.com/ecopia-map/geo_transformer/internal/geometry"
)

const (
	MetersPerDegree = 111320.0

	falseEasting  = 500000.0
	falseNorthing = 10000000.0
)

// Maps easting linearly around the zone central meridian and northing linearly around the equator.
// Not a projection, but invertible and zone dependent, which is what transformer tests need.
type FakeCoordinateConverter struct {
	mu            sync.Mutex
	forwardBuilds int
	inverseBuilds int
	err           error
}

func NewFakeCoordinateConverter() *FakeCoordinateConverter {
	return &FakeCoordinateConverter{}
}

// Makes every subsequent transform request fail with err, nil restores normal behavior
func (c *FakeCoordinateConverter) FailWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

func (c *FakeCoordinateConverter) ForwardBuilds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.forwardBuilds
}

func (c *FakeCoordinateConverter) InverseBuilds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inverseBuilds
}

func (c *FakeCoordinateConverter) ForwardTransform(rs geometry.ReferenceSystem) (converters.Transform, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	c.forwardBuilds++

	meridian, northing := origin(rs)
	return converters.TransformFunc(func(east, north float64) (float64, float64, error) {
		return meridian + (east-falseEasting)/MetersPerDegree, (north - northing) / MetersPerDegree, nil
	}), nil
}

func (c *FakeCoordinateConverter) InverseTransform(rs geometry.ReferenceSystem) (converters.Transform, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	c.inverseBuilds++

	meridian, northing := origin(rs)
	return converters.TransformFunc(func(lon, lat float64) (float64, float64, error) {
		return falseEasting + (lon-meridian)*MetersPerDegree, northing + lat*MetersPerDegree, nil
	}), nil
}

func (c *FakeCoordinateConverter) Cleanup() {}

func origin(rs geometry.ReferenceSystem) (float64, float64) {
	meridian := float64(6*rs.Zone - 183)
	if rs.IsNorthern() {
		return meridian, 0
	}
	return meridian, falseNorthing
}

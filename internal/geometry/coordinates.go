package geometry

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Latitude and longitude in decimal degrees (WGS84) plus an altitude in a user chosen height
// reference system. The altitude is never reprojected.
type GeodeticCoordinate struct {
	Latitude  float64
	Longitude float64
	Altitude  float64
}

func NewGeodeticCoordinate(latitude, longitude, altitude float64) GeodeticCoordinate {
	return GeodeticCoordinate{
		Latitude:  latitude,
		Longitude: longitude,
		Altitude:  altitude,
	}
}

func (c GeodeticCoordinate) String() string {
	return fmt.Sprintf(
		"GeodeticCoordinate (with Latitude: %s, Longitude: %s, Altitude: %s)",
		formatFloat(c.Latitude), formatFloat(c.Longitude), formatFloat(c.Altitude),
	)
}

// Easting and northing in a WGS84/UTM reference system plus a pass-through altitude
type ProjectedCoordinate struct {
	East     float64
	North    float64
	Altitude float64
}

func NewProjectedCoordinate(east, north, altitude float64) ProjectedCoordinate {
	return ProjectedCoordinate{
		East:     east,
		North:    north,
		Altitude: altitude,
	}
}

func (c ProjectedCoordinate) String() string {
	return fmt.Sprintf(
		"ProjectedCoordinate (with East: %s, North: %s, Altitude: %s)",
		formatFloat(c.East), formatFloat(c.North), formatFloat(c.Altitude),
	)
}

// Position in the scene's local cartesian frame. Y is the up axis.
type LocalCoordinate struct {
	X float32
	Y float32
	Z float32
}

func NewLocalCoordinate(x, y, z float32) LocalCoordinate {
	return LocalCoordinate{
		X: x,
		Y: y,
		Z: z,
	}
}

func (c LocalCoordinate) String() string {
	return fmt.Sprintf(
		"LocalCoordinate (with X: %s, Y: %s, Z: %s)",
		formatFloat32(c.X), formatFloat32(c.Y), formatFloat32(c.Z),
	)
}

func formatFloat(value float64) string {
	if isNotFinite(value) {
		return fmt.Sprint(value)
	}
	return decimal.NewFromFloat(value).String()
}

func formatFloat32(value float32) string {
	if isNotFinite(float64(value)) {
		return fmt.Sprint(value)
	}
	return decimal.NewFromFloat32(value).String()
}

func isNotFinite(value float64) bool {
	return math.IsNaN(value) || math.IsInf(value, 0)
}

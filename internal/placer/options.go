package placer

import (
	"strings"

	"github.com/ecopia-map/geo_transformer/internal/geometry"
)

type Direction string

const (
	// UTM easting, northing, altitude into the local scene frame
	UTMToLocal Direction = "utm-to-local"
	// latitude, longitude, altitude into the local scene frame
	GeoToLocal Direction = "geo-to-local"
	// local x, y, z into UTM easting, northing, altitude
	LocalToUTM Direction = "local-to-utm"
	// local x, y, z into latitude, longitude, altitude
	LocalToGeo Direction = "local-to-geo"
)

func (d Direction) String() string {
	return string(d)
}

// Returns the direction matching value or "" if value is not a known direction
func ParseDirection(value string) Direction {
	normalizedValue := strings.Trim(strings.ToLower(value), " ")
	switch Direction(normalizedValue) {
	case UTMToLocal, GeoToLocal, LocalToUTM, LocalToGeo:
		return Direction(normalizedValue)
	}
	return ""
}

// Contains the options needed to set up a scene and run one of the commands against it
type PlacerOptions struct {
	Scene         string                       // Name of the scene the transformer is registered under
	Zone          int                          // WGS84/UTM zone of the anchor
	Hemisphere    geometry.Hemisphere          // Hemisphere of the UTM zone
	Anchor        geometry.ProjectedCoordinate // UTM coordinate of the local frame origin
	Bound         float32                      // Max absolute offset from the anchor on each local axis
	ProjCacheSize int                          // Max number of cached PROJ projections
	Silent        bool                         // Suppress non-error output

	Command        string
	PlaceOptions   *PlaceOptions
	ConvertOptions *ConvertOptions
}

type PlaceOptions struct {
	ObjectName string
	Geodetic   geometry.GeodeticCoordinate
	Projected  geometry.ProjectedCoordinate
}

type ConvertOptions struct {
	Input            string    // Input point file/folder
	Output           string    // Output file, results go to stdout if empty
	FolderProcessing bool      // Enables the processing of all point files in folder
	Recursive        bool      // Recursive lookup of point files in subfolders
	Direction        Direction // Conversion to apply to every point
	Workers          int       // Number of consumer goroutines, <= 0 means one per CPU
}

func (opt *PlacerOptions) ReferenceSystem() (geometry.ReferenceSystem, error) {
	return geometry.NewReferenceSystem(opt.Zone, opt.Hemisphere)
}

func (opt *PlacerOptions) Copy() *PlacerOptions {
	newOpt := *opt
	newOpt.PlaceOptions = nil
	newOpt.ConvertOptions = nil

	if opt.PlaceOptions != nil {
		placeOpt := *opt.PlaceOptions
		newOpt.PlaceOptions = &placeOpt
	}

	if opt.ConvertOptions != nil {
		convertOpt := *opt.ConvertOptions
		newOpt.ConvertOptions = &convertOpt
	}

	return &newOpt
}

package geometry

import (
	"errors"
	"fmt"
	"strings"
)

const (
	MinZone = 1
	MaxZone = 60

	epsgUTMNorthBase = 32600
	epsgUTMSouthBase = 32700
)

var ErrInvalidZone = errors.New("invalid UTM zone")

type Hemisphere int

const (
	Northern Hemisphere = iota
	Southern
)

func (h Hemisphere) String() string {
	if h == Northern {
		return "Northern"
	} else if h == Southern {
		return "Southern"
	}
	return fmt.Sprintf("Hemisphere(%d)", int(h))
}

// Parses the hemisphere from its name or initial. Unknown values fall back to Northern.
func ParseHemisphere(value string) Hemisphere {
	normalizedValue := strings.Trim(strings.ToUpper(value), " ")
	switch normalizedValue {
	case "S", "SOUTH", "SOUTHERN":
		return Southern
	default:
		return Northern
	}
}

// Describes a WGS84/UTM coordinate reference system, i.e. a UTM zone and the hemisphere the zone is used for
type ReferenceSystem struct {
	Zone       int
	Hemisphere Hemisphere
}

// Builds a ReferenceSystem, failing with ErrInvalidZone if zone is not in [1, 60]
func NewReferenceSystem(zone int, hemisphere Hemisphere) (ReferenceSystem, error) {
	if zone < MinZone || zone > MaxZone {
		return ReferenceSystem{}, fmt.Errorf("%w %d, must be between %d and %d", ErrInvalidZone, zone, MinZone, MaxZone)
	}

	return ReferenceSystem{
		Zone:       zone,
		Hemisphere: hemisphere,
	}, nil
}

// Returns true unless the hemisphere is explicitly Southern
func (rs ReferenceSystem) IsNorthern() bool {
	switch rs.Hemisphere {
	case Northern:
		return true
	case Southern:
		return false
	default:
		return true
	}
}

func (rs ReferenceSystem) Validate() error {
	if rs.Zone < MinZone || rs.Zone > MaxZone {
		return fmt.Errorf("%w %d, must be between %d and %d", ErrInvalidZone, rs.Zone, MinZone, MaxZone)
	}
	return nil
}

// EPSG code of the WGS84/UTM zone, e.g. 32632 for zone 32 north
func (rs ReferenceSystem) EPSG() int {
	if rs.IsNorthern() {
		return epsgUTMNorthBase + rs.Zone
	}
	return epsgUTMSouthBase + rs.Zone
}

func (rs ReferenceSystem) Proj4Definition() string {
	definition := fmt.Sprintf("+proj=utm +zone=%d", rs.Zone)
	if !rs.IsNorthern() {
		definition += " +south"
	}
	return definition + " +datum=WGS84 +units=m +no_defs"
}

func (rs ReferenceSystem) String() string {
	return fmt.Sprintf("ReferenceSystem (with Zone: %d, Hemisphere: %s)", rs.Zone, rs.Hemisphere)
}

package transformer

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ecopia-map/geo_transformer/internal/converters"
	"github.com/ecopia-map/geo_transformer/internal/geometry"
)

// Default maximum absolute offset from the anchor on every local axis, in the unit of the anchor
const DefaultBound float32 = 100

var (
	ErrOutOfRange   = errors.New("coordinate out of range of the local frame")
	ErrInvalidBound = errors.New("invalid local frame bound")
)

type Option func(*CoordinateTransformer)

// Overrides DefaultBound
func WithBound(bound float32) Option {
	return func(t *CoordinateTransformer) {
		t.bound = bound
	}
}

// Counts projected to local conversions refused with ErrOutOfRange
func WithRejectionCounter(counter prometheus.Counter) Option {
	return func(t *CoordinateTransformer) {
		t.rejections = counter
	}
}

// Converts coordinates between WGS84 geodetic coordinates, WGS84/UTM coordinates and a local cartesian frame
// whose origin is the anchor UTM point. Safe for concurrent use.
type CoordinateTransformer struct {
	converter  converters.CoordinateConverter
	bound      float32
	rejections prometheus.Counter

	mu    sync.Mutex
	frame *frame
}

// Configuration snapshot. Transforms are built lazily and belong to the reference system of their frame.
type frame struct {
	rs      geometry.ReferenceSystem
	anchor  geometry.ProjectedCoordinate
	forward converters.Transform
	inverse converters.Transform
}

func New(converter converters.CoordinateConverter, rs geometry.ReferenceSystem, anchor geometry.ProjectedCoordinate, opts ...Option) (*CoordinateTransformer, error) {
	if err := rs.Validate(); err != nil {
		return nil, err
	}

	t := &CoordinateTransformer{
		converter: converter,
		bound:     DefaultBound,
		frame:     &frame{rs: rs, anchor: anchor},
	}
	for _, opt := range opts {
		opt(t)
	}

	b := float64(t.bound)
	if math.IsNaN(b) || math.IsInf(b, 0) || b <= 0 {
		return nil, fmt.Errorf("%w %v, must be a finite positive value", ErrInvalidBound, t.bound)
	}

	glog.Infof("New CoordinateTransformer created with %s", t)
	return t, nil
}

// Replaces reference system and anchor. Transforms built for the previous reference system are dropped.
func (t *CoordinateTransformer) Reconfigure(rs geometry.ReferenceSystem, anchor geometry.ProjectedCoordinate) error {
	if err := rs.Validate(); err != nil {
		return err
	}

	t.mu.Lock()
	t.frame = &frame{rs: rs, anchor: anchor}
	t.mu.Unlock()

	glog.Infof("CoordinateTransformer reconfigured with %s", t)
	return nil
}

func (t *CoordinateTransformer) ReferenceSystem() geometry.ReferenceSystem {
	return t.current().rs
}

func (t *CoordinateTransformer) Anchor() geometry.ProjectedCoordinate {
	return t.current().anchor
}

func (t *CoordinateTransformer) Bound() float32 {
	return t.bound
}

// Converts WGS84 (latitude, longitude) into UTM (east, north). The altitude is passed through.
func (t *CoordinateTransformer) GeodeticToProjected(g geometry.GeodeticCoordinate) (geometry.ProjectedCoordinate, error) {
	return t.geodeticToProjected(t.current(), g)
}

// Converts UTM (east, north) into WGS84 (latitude, longitude). The altitude is passed through.
func (t *CoordinateTransformer) ProjectedToGeodetic(p geometry.ProjectedCoordinate) (geometry.GeodeticCoordinate, error) {
	return t.projectedToGeodetic(t.current(), p)
}

// Converts a UTM coordinate into the local frame. Fails with ErrOutOfRange when any offset from the
// anchor is not strictly within the bound.
func (t *CoordinateTransformer) ProjectedToLocal(p geometry.ProjectedCoordinate) (geometry.LocalCoordinate, error) {
	return t.projectedToLocal(t.current(), p)
}

func (t *CoordinateTransformer) LocalToProjected(v geometry.LocalCoordinate) geometry.ProjectedCoordinate {
	return localToProjected(t.current(), v)
}

func (t *CoordinateTransformer) GeodeticToLocal(g geometry.GeodeticCoordinate) (geometry.LocalCoordinate, error) {
	f := t.current()
	p, err := t.geodeticToProjected(f, g)
	if err != nil {
		return geometry.LocalCoordinate{}, err
	}
	return t.projectedToLocal(f, p)
}

func (t *CoordinateTransformer) LocalToGeodetic(v geometry.LocalCoordinate) (geometry.GeodeticCoordinate, error) {
	f := t.current()
	return t.projectedToGeodetic(f, localToProjected(f, v))
}

// Two transformers are equal when they share reference system and anchor
func (t *CoordinateTransformer) Equal(other *CoordinateTransformer) bool {
	if t == nil || other == nil {
		return t == other
	}
	a, b := t.current(), other.current()
	return a.rs == b.rs && a.anchor == b.anchor
}

func (t *CoordinateTransformer) String() string {
	f := t.current()
	return fmt.Sprintf("CoordinateTransformer (with ReferenceSystem: %s, Anchor: %s)", f.rs, f.anchor)
}

func (t *CoordinateTransformer) current() *frame {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frame
}

func (t *CoordinateTransformer) geodeticToProjected(f *frame, g geometry.GeodeticCoordinate) (geometry.ProjectedCoordinate, error) {
	inverse, err := t.inverseTransform(f)
	if err != nil {
		return geometry.ProjectedCoordinate{}, err
	}

	east, north, err := inverse.Transform(g.Longitude, g.Latitude)
	if err != nil {
		return geometry.ProjectedCoordinate{}, fmt.Errorf("project %s: %w", g, err)
	}

	return geometry.NewProjectedCoordinate(east, north, g.Altitude), nil
}

func (t *CoordinateTransformer) projectedToGeodetic(f *frame, p geometry.ProjectedCoordinate) (geometry.GeodeticCoordinate, error) {
	forward, err := t.forwardTransform(f)
	if err != nil {
		return geometry.GeodeticCoordinate{}, err
	}

	lon, lat, err := forward.Transform(p.East, p.North)
	if err != nil {
		return geometry.GeodeticCoordinate{}, fmt.Errorf("unproject %s: %w", p, err)
	}

	return geometry.NewGeodeticCoordinate(lat, lon, p.Altitude), nil
}

func (t *CoordinateTransformer) projectedToLocal(f *frame, p geometry.ProjectedCoordinate) (geometry.LocalCoordinate, error) {
	east := float32(p.East - f.anchor.East)
	north := float32(p.North - f.anchor.North)
	altitude := float32(p.Altitude - f.anchor.Altitude)

	for _, c := range []struct {
		axis   string
		offset float32
	}{
		{"east", east},
		{"north", north},
		{"altitude", altitude},
	} {
		// NaN offsets fail the comparison too
		if !(float32(math.Abs(float64(c.offset))) < t.bound) {
			if t.rejections != nil {
				t.rejections.Inc()
			}
			return geometry.LocalCoordinate{}, fmt.Errorf(
				"%w: %s offset %v from anchor is not within ±%v, consider moving the anchor closer to %s",
				ErrOutOfRange, c.axis, c.offset, t.bound, p,
			)
		}
	}

	return toLocalAxes(east, north, altitude), nil
}

func localToProjected(f *frame, v geometry.LocalCoordinate) geometry.ProjectedCoordinate {
	east, north, altitude := fromLocalAxes(v)
	return geometry.NewProjectedCoordinate(
		float64(east)+f.anchor.East,
		float64(north)+f.anchor.North,
		float64(altitude)+f.anchor.Altitude,
	)
}

// The local frame is Y-up: (east, north, altitude) becomes (x=east, y=altitude, z=north)
func toLocalAxes(east, north, altitude float32) geometry.LocalCoordinate {
	return geometry.NewLocalCoordinate(east, altitude, north)
}

func fromLocalAxes(v geometry.LocalCoordinate) (east, north, altitude float32) {
	return v.X, v.Z, v.Y
}

func (t *CoordinateTransformer) forwardTransform(f *frame) (converters.Transform, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if f.forward == nil {
		forward, err := t.converter.ForwardTransform(f.rs)
		if err != nil {
			return nil, fmt.Errorf("build projected to geodetic transform for %s: %w", f.rs, err)
		}
		f.forward = forward
		glog.V(1).Infof("built projected to geodetic transform for %s", f.rs)
	}
	return f.forward, nil
}

func (t *CoordinateTransformer) inverseTransform(f *frame) (converters.Transform, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if f.inverse == nil {
		inverse, err := t.converter.InverseTransform(f.rs)
		if err != nil {
			return nil, fmt.Errorf("build geodetic to projected transform for %s: %w", f.rs, err)
		}
		f.inverse = inverse
		glog.V(1).Infof("built geodetic to projected transform for %s", f.rs)
	}
	return f.inverse, nil
}

package proj4_coordinate_converter

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/golang/glog"
	lru "github.com/hashicorp/golang-lru/v2"
	proj "github.com/xeonx/proj4"

	"github.com/ecopia-map/geo_transformer/internal/converters"
	"github.com/ecopia-map/geo_transformer/internal/geometry"
)

const (
	wgs84Definition = "+proj=longlat +datum=WGS84 +no_defs"

	// 60 zones times 2 hemispheres
	DefaultCacheSize = 120

	degToRad = math.Pi / 180.0
	radToDeg = 180.0 / math.Pi
)

var (
	ErrProjection = errors.New("projection error")
	ErrClosed     = errors.New("coordinate converter already cleaned up")
)

// CoordinateConverter backed by the PROJ.4 library. UTM projections are initialized on first use and kept
// in a bounded LRU cache keyed by reference system. PROJ handles are not safe for concurrent use, hence
// every projection call is serialized on the converter mutex.
type proj4CoordinateConverter struct {
	mu          sync.Mutex
	wgs84       *proj.Proj
	projections *lru.Cache[geometry.ReferenceSystem, *proj.Proj]
	// evicted projections may still be referenced by transforms handed out earlier, they are
	// released on Cleanup
	retired []*proj.Proj
	closed  bool
}

func NewProj4CoordinateConverter(cacheSize int) (converters.CoordinateConverter, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}

	wgs84, err := proj.InitPlus(wgs84Definition)
	if err != nil {
		return nil, fmt.Errorf("%w: init WGS84 projection: %v", ErrProjection, err)
	}

	converter := &proj4CoordinateConverter{wgs84: wgs84}

	// the eviction callback runs inside Add/Purge, which are only called with converter.mu held
	projections, err := lru.NewWithEvict[geometry.ReferenceSystem, *proj.Proj](
		cacheSize,
		func(rs geometry.ReferenceSystem, projection *proj.Proj) {
			glog.V(2).Infof("retiring projection for %s", rs)
			converter.retired = append(converter.retired, projection)
		},
	)
	if err != nil {
		wgs84.Close()
		return nil, err
	}
	converter.projections = projections

	return converter, nil
}

func (cc *proj4CoordinateConverter) ForwardTransform(rs geometry.ReferenceSystem) (converters.Transform, error) {
	utm, err := cc.getProjection(rs)
	if err != nil {
		return nil, err
	}

	return &proj4Transform{
		converter:   cc,
		source:      utm,
		destination: cc.wgs84,
		toDegrees:   true,
	}, nil
}

func (cc *proj4CoordinateConverter) InverseTransform(rs geometry.ReferenceSystem) (converters.Transform, error) {
	utm, err := cc.getProjection(rs)
	if err != nil {
		return nil, err
	}

	return &proj4Transform{
		converter:   cc,
		source:      cc.wgs84,
		destination: utm,
		fromDegrees: true,
	}, nil
}

// Releases every PROJ handle. Transforms obtained from this converter fail with ErrClosed afterwards.
func (cc *proj4CoordinateConverter) Cleanup() {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	if cc.closed {
		return
	}
	cc.closed = true

	cc.projections.Purge()
	for _, projection := range cc.retired {
		projection.Close()
	}
	cc.retired = nil
	cc.wgs84.Close()
}

// Returns the cached projection for the reference system, initializing it on first use
func (cc *proj4CoordinateConverter) getProjection(rs geometry.ReferenceSystem) (*proj.Proj, error) {
	if err := rs.Validate(); err != nil {
		return nil, err
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()

	if cc.closed {
		return nil, ErrClosed
	}

	if projection, ok := cc.projections.Get(rs); ok {
		return projection, nil
	}

	projection, err := proj.InitPlus(rs.Proj4Definition())
	if err != nil {
		return nil, fmt.Errorf("%w: init projection %q: %v", ErrProjection, rs.Proj4Definition(), err)
	}
	cc.projections.Add(rs, projection)
	glog.V(1).Infof("initialized projection EPSG:%d (%s)", rs.EPSG(), rs.Proj4Definition())

	return projection, nil
}

func (cc *proj4CoordinateConverter) transform(source, destination *proj.Proj, x, y float64, fromDegrees, toDegrees bool) (float64, float64, error) {
	if fromDegrees {
		x, y = x*degToRad, y*degToRad
	}

	xs := []float64{x}
	ys := []float64{y}
	zs := []float64{0}

	cc.mu.Lock()
	if cc.closed {
		cc.mu.Unlock()
		return 0, 0, ErrClosed
	}
	err := proj.TransformRaw(source, destination, xs, ys, zs)
	cc.mu.Unlock()

	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrProjection, err)
	}
	if !isFinite(xs[0]) || !isFinite(ys[0]) {
		return 0, 0, fmt.Errorf("%w: point (%v, %v) cannot be projected", ErrProjection, x, y)
	}

	if toDegrees {
		return xs[0] * radToDeg, ys[0] * radToDeg, nil
	}
	return xs[0], ys[0], nil
}

type proj4Transform struct {
	converter   *proj4CoordinateConverter
	source      *proj.Proj
	destination *proj.Proj
	fromDegrees bool
	toDegrees   bool
}

func (t *proj4Transform) Transform(x, y float64) (float64, float64, error) {
	return t.converter.transform(t.source, t.destination, x, y, t.fromDegrees, t.toDegrees)
}

func isFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}

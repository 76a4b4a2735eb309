package transformer

import (
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ecopia-map/geo_transformer/internal/converters/fake_coordinate_converter"
	"github.com/ecopia-map/geo_transformer/internal/geometry"
)

var (
	hamburg       = geometry.ReferenceSystem{Zone: 32, Hemisphere: geometry.Northern}
	hamburgAnchor = geometry.NewProjectedCoordinate(566600, 5933000, 0)
)

func newTestTransformer(t *testing.T, opts ...Option) (*CoordinateTransformer, *fake_coordinate_converter.FakeCoordinateConverter) {
	t.Helper()
	fake := fake_coordinate_converter.NewFakeCoordinateConverter()
	ct, err := New(fake, hamburg, hamburgAnchor, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return ct, fake
}

func TestProjectedToLocal_DemoPoint(t *testing.T) {
	ct, _ := newTestTransformer(t)

	got, err := ct.ProjectedToLocal(geometry.NewProjectedCoordinate(566605, 5933004, 3))
	if err != nil {
		t.Fatalf("ProjectedToLocal: %v", err)
	}
	if want := geometry.NewLocalCoordinate(5, 3, 4); got != want {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestAxisPermutation(t *testing.T) {
	ct, _ := newTestTransformer(t)

	cases := []struct{ dx, dy, dz float32 }{
		{1, 2, 3},
		{-7.5, 0, 42.25},
		{0, -99, 0.5},
	}
	for _, tc := range cases {
		p := geometry.NewProjectedCoordinate(
			hamburgAnchor.East+float64(tc.dx),
			hamburgAnchor.North+float64(tc.dy),
			hamburgAnchor.Altitude+float64(tc.dz),
		)
		local, err := ct.ProjectedToLocal(p)
		if err != nil {
			t.Fatalf("ProjectedToLocal(%s): %v", p, err)
		}
		if want := geometry.NewLocalCoordinate(tc.dx, tc.dz, tc.dy); local != want {
			t.Fatalf("offset (%v, %v, %v): got %s want %s", tc.dx, tc.dy, tc.dz, local, want)
		}
		if back := ct.LocalToProjected(local); back != p {
			t.Fatalf("inverse permutation: got %s want %s", back, p)
		}
	}
}

func TestProjectedToLocal_BoundIsStrict(t *testing.T) {
	ct, _ := newTestTransformer(t)

	cases := []struct {
		name    string
		offset  geometry.ProjectedCoordinate
		wantErr bool
	}{
		{"east at +bound", geometry.NewProjectedCoordinate(100, 0, 0), true},
		{"east at -bound", geometry.NewProjectedCoordinate(-100, 0, 0), true},
		{"north at +bound", geometry.NewProjectedCoordinate(0, 100, 0), true},
		{"north at -bound", geometry.NewProjectedCoordinate(0, -100, 0), true},
		{"altitude at +bound", geometry.NewProjectedCoordinate(0, 0, 100), true},
		{"altitude at -bound", geometry.NewProjectedCoordinate(0, 0, -100), true},
		{"far away", geometry.NewProjectedCoordinate(25000, -3000, 0), true},
		{"NaN", geometry.NewProjectedCoordinate(math.NaN(), 0, 0), true},
		// the offset is checked after the float32 cast, 99.999999 becomes 100
		{"east rounds to -bound", geometry.NewProjectedCoordinate(-99.999999, 0, 0), true},
		{"north rounds to +bound", geometry.NewProjectedCoordinate(0, 99.999999, 0), true},
		{"altitude rounds to +bound", geometry.NewProjectedCoordinate(0, 0, 99.999999), true},
		{"last float32 below bound", geometry.NewProjectedCoordinate(0, 0, float64(math.Nextafter32(100, 0))), false},
		{"just inside", geometry.NewProjectedCoordinate(99.5, -99.5, 99.5), false},
		{"origin", geometry.NewProjectedCoordinate(0, 0, 0), false},
	}

	for _, tc := range cases {
		p := geometry.NewProjectedCoordinate(
			hamburgAnchor.East+tc.offset.East,
			hamburgAnchor.North+tc.offset.North,
			hamburgAnchor.Altitude+tc.offset.Altitude,
		)
		_, err := ct.ProjectedToLocal(p)
		if tc.wantErr && !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("%s: expected ErrOutOfRange, got %v", tc.name, err)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
	}
}

func TestLocalToProjected_HasNoBound(t *testing.T) {
	ct, _ := newTestTransformer(t)

	got := ct.LocalToProjected(geometry.NewLocalCoordinate(1000, -500, 250))
	want := geometry.NewProjectedCoordinate(567600, 5933250, -500)
	if got != want {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestRoundTrip_ProjectedLocalProjected(t *testing.T) {
	ct, _ := newTestTransformer(t)

	for _, p := range []geometry.ProjectedCoordinate{
		geometry.NewProjectedCoordinate(566605, 5933004, 3),
		geometry.NewProjectedCoordinate(566699.123456, 5932900.654321, -99.987654),
		geometry.NewProjectedCoordinate(566500.01, 5933099.999, 12.5),
	} {
		local, err := ct.ProjectedToLocal(p)
		if err != nil {
			t.Fatalf("ProjectedToLocal(%s): %v", p, err)
		}
		back := ct.LocalToProjected(local)
		// float32 keeps about 7 significant digits of offsets below 100
		const tolerance = 1e-4
		if math.Abs(back.East-p.East) > tolerance || math.Abs(back.North-p.North) > tolerance || math.Abs(back.Altitude-p.Altitude) > tolerance {
			t.Fatalf("round trip got %s want %s", back, p)
		}
	}
}

func TestGeodeticProjected_AltitudePassThrough(t *testing.T) {
	ct, _ := newTestTransformer(t)

	g := geometry.NewGeodeticCoordinate(53.5, 10, 1234.5)
	p, err := ct.GeodeticToProjected(g)
	if err != nil {
		t.Fatalf("GeodeticToProjected: %v", err)
	}
	if p.Altitude != g.Altitude {
		t.Fatalf("altitude changed: %v", p.Altitude)
	}
	wantEast := 500000 + (10-9)*fake_coordinate_converter.MetersPerDegree
	if math.Abs(p.East-wantEast) > 1e-6 {
		t.Fatalf("east=%f want %f: longitude must be passed as x", p.East, wantEast)
	}

	back, err := ct.ProjectedToGeodetic(p)
	if err != nil {
		t.Fatalf("ProjectedToGeodetic: %v", err)
	}
	if back.Altitude != g.Altitude {
		t.Fatalf("altitude changed: %v", back.Altitude)
	}
	if math.Abs(back.Latitude-g.Latitude) > 1e-9 || math.Abs(back.Longitude-g.Longitude) > 1e-9 {
		t.Fatalf("got %s want %s: latitude must be read from y", back, g)
	}
}

func TestRoundTrip_GeodeticLocalGeodetic(t *testing.T) {
	ct, _ := newTestTransformer(t)

	start, err := ct.ProjectedToGeodetic(geometry.NewProjectedCoordinate(566605, 5933004, 4.25))
	if err != nil {
		t.Fatalf("ProjectedToGeodetic: %v", err)
	}

	local, err := ct.GeodeticToLocal(start)
	if err != nil {
		t.Fatalf("GeodeticToLocal: %v", err)
	}
	if math.Abs(float64(local.X-5)) > 1e-3 || local.Y != 4.25 || math.Abs(float64(local.Z-4)) > 1e-3 {
		t.Fatalf("unexpected local position %s", local)
	}

	back, err := ct.LocalToGeodetic(local)
	if err != nil {
		t.Fatalf("LocalToGeodetic: %v", err)
	}
	if math.Abs(back.Latitude-start.Latitude) > 1e-6 || math.Abs(back.Longitude-start.Longitude) > 1e-6 || back.Altitude != start.Altitude {
		t.Fatalf("got %s want %s", back, start)
	}
}

func TestGeodeticToLocal_OutOfRange(t *testing.T) {
	ct, _ := newTestTransformer(t)

	// one degree of longitude east of the anchor is ~ 111 km away
	g, err := ct.ProjectedToGeodetic(hamburgAnchor)
	if err != nil {
		t.Fatalf("ProjectedToGeodetic: %v", err)
	}
	g.Longitude++
	if _, err := ct.GeodeticToLocal(g); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestTransformsAreBuiltLazilyOnce(t *testing.T) {
	ct, fake := newTestTransformer(t)

	if fake.ForwardBuilds() != 0 || fake.InverseBuilds() != 0 {
		t.Fatalf("transforms must not be built on construction")
	}

	// local conversions never need the converter
	if _, err := ct.ProjectedToLocal(hamburgAnchor); err != nil {
		t.Fatalf("ProjectedToLocal: %v", err)
	}
	if fake.ForwardBuilds() != 0 || fake.InverseBuilds() != 0 {
		t.Fatalf("local conversion must not build transforms")
	}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			local := geometry.NewLocalCoordinate(float32(i), 1, -float32(i))
			g, err := ct.LocalToGeodetic(local)
			if err != nil {
				t.Errorf("LocalToGeodetic: %v", err)
				return
			}
			if _, err := ct.GeodeticToLocal(g); err != nil {
				t.Errorf("GeodeticToLocal: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if fake.ForwardBuilds() != 1 || fake.InverseBuilds() != 1 {
		t.Fatalf("builds forward=%d inverse=%d, want 1/1", fake.ForwardBuilds(), fake.InverseBuilds())
	}
}

func TestBuildErrorsAreNotCached(t *testing.T) {
	ct, fake := newTestTransformer(t)

	boom := errors.New("boom")
	fake.FailWith(boom)
	if _, err := ct.GeodeticToProjected(geometry.NewGeodeticCoordinate(53.5, 10, 0)); !errors.Is(err, boom) {
		t.Fatalf("expected converter error, got %v", err)
	}

	fake.FailWith(nil)
	if _, err := ct.GeodeticToProjected(geometry.NewGeodeticCoordinate(53.5, 10, 0)); err != nil {
		t.Fatalf("expected recovery after converter error, got %v", err)
	}
	if fake.InverseBuilds() != 1 {
		t.Fatalf("inverse builds=%d want 1", fake.InverseBuilds())
	}
}

func TestReconfigure_InvalidatesTransforms(t *testing.T) {
	ct, fake := newTestTransformer(t)

	g := geometry.NewGeodeticCoordinate(53.5, 10, 0)
	before, err := ct.GeodeticToProjected(g)
	if err != nil {
		t.Fatalf("GeodeticToProjected: %v", err)
	}

	zone33 := geometry.ReferenceSystem{Zone: 33, Hemisphere: geometry.Northern}
	anchor := geometry.NewProjectedCoordinate(400000, 5933000, 10)
	if err := ct.Reconfigure(zone33, anchor); err != nil {
		t.Fatalf("Reconfigure: %v", err)
	}
	if ct.ReferenceSystem() != zone33 || ct.Anchor() != anchor {
		t.Fatalf("configuration not applied: %s", ct)
	}

	after, err := ct.GeodeticToProjected(g)
	if err != nil {
		t.Fatalf("GeodeticToProjected: %v", err)
	}
	if before == after {
		t.Fatalf("stale transform reused after reconfiguration")
	}
	if fake.InverseBuilds() != 2 {
		t.Fatalf("inverse builds=%d want 2", fake.InverseBuilds())
	}

	if err := ct.Reconfigure(geometry.ReferenceSystem{Zone: 61}, anchor); !errors.Is(err, geometry.ErrInvalidZone) {
		t.Fatalf("expected ErrInvalidZone, got %v", err)
	}
	if ct.ReferenceSystem() != zone33 {
		t.Fatalf("failed reconfiguration must keep previous reference system")
	}
}

func TestNew_Validation(t *testing.T) {
	fake := fake_coordinate_converter.NewFakeCoordinateConverter()

	if _, err := New(fake, geometry.ReferenceSystem{Zone: 0}, hamburgAnchor); !errors.Is(err, geometry.ErrInvalidZone) {
		t.Fatalf("expected ErrInvalidZone, got %v", err)
	}
	for _, bound := range []float32{0, -1, float32(math.NaN()), float32(math.Inf(1))} {
		if _, err := New(fake, hamburg, hamburgAnchor, WithBound(bound)); !errors.Is(err, ErrInvalidBound) {
			t.Fatalf("bound %v: expected ErrInvalidBound, got %v", bound, err)
		}
	}
}

func TestWithBound(t *testing.T) {
	ct, _ := newTestTransformer(t, WithBound(10))
	if ct.Bound() != 10 {
		t.Fatalf("bound=%v want 10", ct.Bound())
	}
	if _, err := ct.ProjectedToLocal(geometry.NewProjectedCoordinate(566609.5, 5933000, 0)); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if _, err := ct.ProjectedToLocal(geometry.NewProjectedCoordinate(566610, 5933000, 0)); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestRejectionCounter(t *testing.T) {
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "rejections_total", Help: "test"})
	ct, _ := newTestTransformer(t, WithRejectionCounter(counter))

	_, _ = ct.ProjectedToLocal(geometry.NewProjectedCoordinate(0, 0, 0))
	_, _ = ct.ProjectedToLocal(hamburgAnchor)

	if got := testutil.ToFloat64(counter); got != 1 {
		t.Fatalf("rejections=%v want 1", got)
	}
}

func TestEqualAndString(t *testing.T) {
	a, _ := newTestTransformer(t)
	b, _ := newTestTransformer(t, WithBound(50))
	if !a.Equal(b) {
		t.Fatalf("transformers with the same reference system and anchor must be equal")
	}

	_ = b.Reconfigure(hamburg, geometry.NewProjectedCoordinate(566600, 5933000, 1))
	if a.Equal(b) {
		t.Fatalf("different anchors must not be equal")
	}
	if a.Equal(nil) {
		t.Fatalf("nil must not equal a transformer")
	}

	s := a.String()
	for _, want := range []string{"Zone: 32", "Northern", "East: 566600", "North: 5933000"} {
		if !strings.Contains(s, want) {
			t.Fatalf("String() = %q, missing %q", s, want)
		}
	}
}

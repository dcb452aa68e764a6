package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	id   string
	kind string
	at   Point
}

func (r record) Position() Point   { return r.at }
func (r record) TypeLabel() string { return r.kind }

var (
	lille      = Point{Lat: 50.6292, Lng: 3.0573}
	lilleNorth = Point{Lat: 50.629245, Lng: 3.0573}
	paris      = Point{Lat: 48.8566, Lng: 2.3522}
	brussels   = Point{Lat: 50.8503, Lng: 4.3517}
)

func ids(rs []record) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.id)
	}
	return out
}

func TestDistanceIdentity(t *testing.T) {
	for _, p := range []Point{lille, paris, {0, 0}, {-90, 0}, {45, 180}} {
		assert.Zero(t, Distance(p, p), "distance of %v to itself", p)
	}
}

func TestDistanceSymmetric(t *testing.T) {
	pairs := [][2]Point{{lille, paris}, {paris, brussels}, {lille, lilleNorth}, {{0, 179.9}, {0, -179.9}}}
	for _, pr := range pairs {
		assert.InDelta(t, Distance(pr[0], pr[1]), Distance(pr[1], pr[0]), 1e-6)
		assert.GreaterOrEqual(t, Distance(pr[0], pr[1]), 0.0)
	}
}

func TestDistanceTriangle(t *testing.T) {
	ab := Distance(lille, paris)
	bc := Distance(paris, brussels)
	ac := Distance(lille, brussels)
	assert.LessOrEqual(t, ac, ab+bc+1e-6)
}

func TestDistanceKnownValues(t *testing.T) {
	assert.InDelta(t, 5.0, Distance(lille, lilleNorth), 1.0)
	// Lille to Paris is roughly 204 km.
	assert.InDelta(t, 204000, Distance(lille, paris), 2000)
	// A quarter meridian.
	assert.InDelta(t, EarthRadius*math.Pi/2, Distance(Point{0, 0}, Point{90, 0}), 1e-6)
}

func TestFindNearby(t *testing.T) {
	items := []record{
		{id: "a", kind: "Bench", at: lille},
		{id: "b", kind: "Bench", at: paris},
		{id: "c", kind: "Bin", at: lilleNorth},
		{id: "d", kind: "Bench", at: brussels},
	}

	tests := []struct {
		name   string
		radius float64
		want   []string
	}{
		{"radius 10 includes 5 m neighbour", 10, []string{"a", "c"}},
		{"radius 3 excludes 5 m neighbour", 3, []string{"a"}},
		{"radius zero keeps coincident point", 0, []string{"a"}},
		{"negative radius keeps nothing", -1, []string{}},
		{"country scale", 300000, []string{"a", "b", "c", "d"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(FindNearby(items, lille, tt.radius)))
		})
	}
}

func TestFindNearbyExact(t *testing.T) {
	items := []record{
		{id: "a", at: lille},
		{id: "b", at: lilleNorth},
		{id: "c", at: Point{Lat: 50.6293, Lng: 3.0575}},
		{id: "d", at: Point{Lat: 50.63, Lng: 3.06}},
	}
	for _, r := range []float64{0, 1, 5, 10, 20, 100, 1000} {
		got := FindNearby(items, lille, r)
		var want []string
		for _, it := range items {
			if Distance(it.at, lille) <= r {
				want = append(want, it.id)
			}
		}
		if want == nil {
			want = []string{}
		}
		assert.Equal(t, want, ids(got), "radius %v", r)
	}
}

func TestFindNearbyMonotonic(t *testing.T) {
	items := []record{
		{id: "a", at: lille},
		{id: "b", at: lilleNorth},
		{id: "c", at: Point{Lat: 50.6293, Lng: 3.0575}},
		{id: "d", at: brussels},
	}
	prev := map[string]bool{}
	for _, r := range []float64{0, 2, 5, 10, 50, 100000} {
		cur := map[string]bool{}
		for _, id := range ids(FindNearby(items, lille, r)) {
			cur[id] = true
		}
		for id := range prev {
			assert.True(t, cur[id], "%s dropped when radius grew to %v", id, r)
		}
		prev = cur
	}
}

func TestFindNearbyEmpty(t *testing.T) {
	got := FindNearby([]record(nil), lille, 10)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFindPotentialDuplicates(t *testing.T) {
	items := []record{
		{id: "a", kind: "Public bench", at: lille},
		{id: "b", kind: "public bench", at: lille},
		{id: "c", kind: "Public bench", at: lilleNorth},
		{id: "d", kind: "Bin", at: lille},
		{id: "e", kind: "Public bench", at: paris},
		{id: "f", kind: "Public bench ", at: lille},
	}

	got := FindPotentialDuplicates(items, lille, "Public bench", 10)
	assert.Equal(t, []string{"a", "c"}, ids(got))
	for _, r := range got {
		assert.Equal(t, "Public bench", r.kind)
	}

	assert.Equal(t, []string{"a"}, ids(FindPotentialDuplicates(items, lille, "Public bench", 3)))
	assert.Empty(t, FindPotentialDuplicates(items, lille, "Planter", 1000))
}

func TestPointValid(t *testing.T) {
	tests := []struct {
		p    Point
		want bool
	}{
		{lille, true},
		{Point{90, 180}, true},
		{Point{-90, -180}, true},
		{Point{90.1, 0}, false},
		{Point{0, -180.1}, false},
		{Point{math.NaN(), 0}, false},
		{Point{0, math.Inf(1)}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.p.Valid(), "%v", tt.p)
	}
}

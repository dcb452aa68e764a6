package api

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/erazemk/mobilier/internal/geo"
	"github.com/erazemk/mobilier/internal/store"
)

// parseFilter reads the list filters from the query string.
func parseFilter(r *http.Request) (store.Filter, error) {
	q := r.URL.Query()
	filter := store.Filter{
		Category: q.Get("category"),
		State:    q.Get("state"),
		Manager:  q.Get("manager"),
		Agent:    q.Get("agent"),
		Query:    q.Get("q"),
	}
	if v := q.Get("processed"); v != "" {
		processed, err := strconv.ParseBool(v)
		if err != nil {
			return store.Filter{}, fmt.Errorf("invalid processed value %q", v)
		}
		filter.Processed = &processed
	}
	return filter, nil
}

// parseProximity reads lat, lng and an optional radius from the query string.
func parseProximity(r *http.Request, defaultRadius float64) (geo.Point, float64, error) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		return geo.Point{}, 0, fmt.Errorf("invalid lat %q", q.Get("lat"))
	}
	lng, err := strconv.ParseFloat(q.Get("lng"), 64)
	if err != nil {
		return geo.Point{}, 0, fmt.Errorf("invalid lng %q", q.Get("lng"))
	}
	p := geo.Point{Lat: lat, Lng: lng}
	if !p.Valid() {
		return geo.Point{}, 0, fmt.Errorf("coordinates out of range: %v, %v", lat, lng)
	}

	radius := defaultRadius
	if v := q.Get("radius"); v != "" {
		radius, err = strconv.ParseFloat(v, 64)
		if err != nil || radius < 0 || math.IsNaN(radius) {
			return geo.Point{}, 0, fmt.Errorf("invalid radius %q", v)
		}
	}
	return p, radius, nil
}

// Package geocode resolves place names to coordinates with Nominatim.
package geocode

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/muesli/gominatim"
	gocache "github.com/patrickmn/go-cache"
)

const DefaultServer = "https://nominatim.openstreetmap.org/"

var ErrNotFound = errors.New("location not found")

// Place is a geocoded location.
type Place struct {
	Name string
	Lat  float64
	Lng  float64
}

type searchFunc func(q string) ([]gominatim.SearchResult, error)

// Geocoder looks up place names and remembers the answers for a while.
type Geocoder struct {
	cache  *gocache.Cache
	search searchFunc
}

func New(server string) *Geocoder {
	gominatim.SetServer(server)
	return newGeocoder(func(q string) ([]gominatim.SearchResult, error) {
		query := gominatim.SearchQuery{Q: url.QueryEscape(q)}
		return query.Get()
	})
}

func newGeocoder(search searchFunc) *Geocoder {
	return &Geocoder{
		cache:  gocache.New(30*time.Minute, 90*time.Minute),
		search: search,
	}
}

// Lookup returns the best match for name.
func (g *Geocoder) Lookup(name string) (Place, error) {
	if cached, ok := g.cache.Get(name); ok {
		return cached.(Place), nil
	}

	results, err := g.search(name)
	if err != nil {
		return Place{}, fmt.Errorf("geocoding error: %w", err)
	}
	if len(results) == 0 {
		return Place{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	place, err := toPlace(results[0])
	if err != nil {
		return Place{}, err
	}
	g.cache.Set(name, place, gocache.DefaultExpiration)
	return place, nil
}

func toPlace(result gominatim.SearchResult) (Place, error) {
	lat, err := strconv.ParseFloat(result.Lat, 64)
	if err != nil {
		return Place{}, fmt.Errorf("error parsing latitude: %w", err)
	}

	lng, err := strconv.ParseFloat(result.Lon, 64)
	if err != nil {
		return Place{}, fmt.Errorf("error parsing longitude: %w", err)
	}

	return Place{Name: result.DisplayName, Lat: lat, Lng: lng}, nil
}

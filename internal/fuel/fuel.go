// Package fuel merges the Tankerkönig station search with the price lookup
// into one result and keeps it in a cache for a short time.
package fuel

import (
	"errors"
	"strconv"

	"github.com/rubiojr/fuelbot/pkg/tankerkoenig"
)

const (
	DefaultLat      = 48.4
	DefaultLng      = 10.0
	DefaultRadius   = 4.0
	DefaultSort     = tankerkoenig.SortPrice
	DefaultFuelType = tankerkoenig.FuelE10

	locationPrecision = 3
)

var (
	// ErrUpstream marks failures of the Tankerkönig API.
	ErrUpstream = errors.New("upstream error")
	// ErrCacheStore marks failures reading or writing the cache.
	ErrCacheStore = errors.New("cache store error")
)

// Station is a station from the search with the price quote from the same
// lookup attached. FuelPrices is nil when the lookup returned nothing for it.
type Station struct {
	tankerkoenig.Station
	FuelPrices *tankerkoenig.PriceQuote `json:"fuelPrices,omitempty"`
}

// Result is the unit stored in the cache and returned to callers.
type Result struct {
	Stations []Station `json:"stations"`
	License  string    `json:"license,omitempty"`
}

// DefaultQuery is the fixed query served by the /fuel endpoint.
func DefaultQuery() tankerkoenig.Query {
	return tankerkoenig.NewQuery(DefaultLat, DefaultLng, DefaultRadius, DefaultSort, DefaultFuelType)
}

// LocationQuery builds the query for a shared location, with coordinates
// rounded to three decimal places.
func LocationQuery(lat, lng float64) tankerkoenig.Query {
	return tankerkoenig.Query{
		Lat:      strconv.FormatFloat(lat, 'f', locationPrecision, 64),
		Lng:      strconv.FormatFloat(lng, 'f', locationPrecision, 64),
		Radius:   DefaultRadius,
		Sort:     DefaultSort,
		FuelType: DefaultFuelType,
	}
}

// CacheKey derives the cache key of a query. Field order is fixed and values
// are not normalized, so "10" and "10.000" are different keys.
func CacheKey(q tankerkoenig.Query) string {
	return q.Encode()
}

package tankerkoenig

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Fuel type codes accepted by list.php.
const (
	FuelE5     = "e5"
	FuelE10    = "e10"
	FuelDiesel = "diesel"
	FuelAll    = "all"
)

// Sort orders accepted by list.php. The API ignores sort when the fuel type is "all".
const (
	SortPrice = "price"
	SortDist  = "dist"
)

// StatusOpen is the PriceQuote status of a station that is currently selling fuel.
const StatusOpen = "open"

// Station is a fuel station as returned by list.php.
type Station struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Brand       string  `json:"brand"`
	Street      string  `json:"street"`
	HouseNumber string  `json:"houseNumber"`
	PostCode    int     `json:"postCode"`
	Place       string  `json:"place"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Dist        float64 `json:"dist"`
	Price       *Price  `json:"price,omitempty"`
	IsOpen      bool    `json:"isOpen"`
}

// PriceQuote is the current state of one station as returned by prices.php.
type PriceQuote struct {
	Status string
	Prices map[string]Price
}

// Price is a fuel price in euros. The API reports false for fuels a station
// does not sell, which decodes to a Price with Valid unset.
type Price struct {
	Value decimal.Decimal
	Valid bool
}

// NewPrice returns a valid price from a float value.
func NewPrice(v float64) Price {
	return Price{Value: decimal.NewFromFloat(v), Valid: true}
}

func (p Price) String() string {
	if !p.Valid {
		return ""
	}
	return p.Value.String()
}

func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("false"), nil
	}
	return []byte(p.Value.String()), nil
}

func (p *Price) UnmarshalJSON(b []byte) error {
	s := string(bytes.TrimSpace(b))
	if s == "false" || s == "null" || s == "" {
		*p = Price{}
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("error parsing price %s: %w", s, err)
	}
	*p = Price{Value: d, Valid: true}
	return nil
}

// Price returns the price reported for a fuel type.
func (q *PriceQuote) Price(fuelType string) (Price, bool) {
	if q == nil {
		return Price{}, false
	}
	p, ok := q.Prices[fuelType]
	return p, ok
}

// MarshalJSON writes the flat wire shape used by prices.php:
// {"status":"open","e5":1.789,"e10":1.729,"diesel":false}.
func (q PriceQuote) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(q.Prices)+1)
	for fuel, p := range q.Prices {
		out[fuel] = p
	}
	out["status"] = q.Status
	return json.Marshal(out)
}

func (q *PriceQuote) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	quote := PriceQuote{Prices: make(map[string]Price, len(raw))}
	for k, v := range raw {
		if k == "status" {
			if err := json.Unmarshal(v, &quote.Status); err != nil {
				return fmt.Errorf("error parsing status: %w", err)
			}
			continue
		}
		var p Price
		if err := json.Unmarshal(v, &p); err != nil {
			return fmt.Errorf("error parsing %s: %w", k, err)
		}
		quote.Prices[k] = p
	}
	*q = quote
	return nil
}

type envelope struct {
	OK      bool   `json:"ok"`
	License string `json:"license"`
	Data    string `json:"data"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ListResponse is the body of list.php.
type ListResponse struct {
	envelope
	Stations []Station `json:"stations"`
}

// PricesResponse is the body of prices.php.
type PricesResponse struct {
	envelope
	Prices map[string]PriceQuote `json:"prices"`
}

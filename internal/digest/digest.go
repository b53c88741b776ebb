// Package digest renders aggregated results as short HTML chat messages.
package digest

import (
	"fmt"
	"html"
	"strings"

	"github.com/rubiojr/fuelbot/internal/fuel"
	"github.com/rubiojr/fuelbot/internal/translations"
	"github.com/rubiojr/fuelbot/pkg/tankerkoenig"
)

// MaxEntries is the number of stations listed in a digest.
const MaxEntries = 5

// Format lists the first MaxEntries open stations of res, in the order they
// appear in res, with their price for fuelType. It returns an empty string
// when no station is open.
func Format(res *fuel.Result, fuelType string, tr translations.Translations) string {
	if res == nil {
		return ""
	}

	entries := make([]string, 0, MaxEntries)
	for _, s := range res.Stations {
		if len(entries) == MaxEntries {
			break
		}
		if s.FuelPrices == nil || s.FuelPrices.Status != tankerkoenig.StatusOpen {
			continue
		}
		entries = append(entries, label(s, fuelType, tr))
	}
	return strings.Join(entries, "\n")
}

func label(s fuel.Station, fuelType string, tr translations.Translations) string {
	price := tr.PriceNA
	if p, ok := s.FuelPrices.Price(fuelType); ok && p.Valid {
		price = "€" + p.String()
	}

	header := html.EscapeString(strings.TrimSpace(fmt.Sprintf("%s %s %s", s.Brand, s.Street, s.HouseNumber)))
	return fmt.Sprintf("<b>%s</b>:\n  %s %s", header, strings.ToUpper(fuelType), price)
}

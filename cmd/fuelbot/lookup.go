package main

import (
	"errors"
	"fmt"

	"github.com/rubiojr/fuelbot/internal/cache"
	"github.com/rubiojr/fuelbot/internal/digest"
	"github.com/rubiojr/fuelbot/internal/fuel"
	"github.com/rubiojr/fuelbot/internal/geocode"
	"github.com/rubiojr/fuelbot/internal/translations"
	"github.com/rubiojr/fuelbot/pkg/tankerkoenig"
	"github.com/tkrajina/gpxgo/gpx"
	"github.com/urfave/cli/v2"
)

const metersPerKm = 1000.0

func lookupCommand() *cli.Command {
	return &cli.Command{
		Name:  "lookup",
		Usage: "Look up fuel prices near a location",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "location",
				Usage: "Place name to geocode",
			},
			&cli.Float64Flag{
				Name:  "lat",
				Usage: "Latitude of the location",
			},
			&cli.Float64Flag{
				Name:    "lng",
				Aliases: []string{"long"},
				Usage:   "Longitude of the location",
			},
			&cli.Float64Flag{
				Name:    "radius",
				Aliases: []string{"r"},
				Usage:   "Search radius in kilometers",
				Value:   fuel.DefaultRadius,
			},
			&cli.StringFlag{
				Name:  "fuel",
				Usage: "Fuel type (e5, e10, diesel)",
				Value: fuel.DefaultFuelType,
			},
		},
		Action: lookupAction,
	}
}

func lookupAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	lat := c.Float64("lat")
	lng := c.Float64("lng")
	if loc := c.String("location"); loc != "" {
		place, err := geocode.New(geocode.DefaultServer).Lookup(loc)
		if err != nil {
			return err
		}
		fmt.Println("Location found:", place.Name)
		lat, lng = place.Lat, place.Lng
	} else if lat == 0 && lng == 0 {
		return errors.New("location or latitude and longitude are required")
	}

	logger := cliLogger(c)
	store, err := cache.Open(c.Context, cfg.Config, logger)
	if err != nil {
		return fmt.Errorf("error opening cache: %w", err)
	}
	defer store.Close()

	upstream := tankerkoenig.NewClient(cfg.TankerkoenigAPIKey, tankerkoenig.WithBaseURL(cfg.TankerkoenigURL))
	agg := fuel.New(upstream, store, logger)

	fuelType := c.String("fuel")
	res, err := agg.Lookup(c.Context, tankerkoenig.NewQuery(lat, lng, c.Float64("radius"), fuel.DefaultSort, fuelType))
	if err != nil {
		return err
	}

	tr := translations.GetTranslations(cfg.Lang)
	msg := digest.Format(res, fuelType, tr)
	if msg == "" {
		msg = tr.NoOpenStations
	}
	fmt.Println(msg)
	fmt.Println()

	for i, s := range res.Stations {
		distance := gpx.Distance2D(lat, lng, s.Lat, s.Lng, true)
		fmt.Printf("%d. %s (%s %s, %s)\n", i+1, s.Name, s.Street, s.HouseNumber, s.Place)
		fmt.Printf("   Distance: %.2f km\n", distance/metersPerKm)
	}
	fmt.Printf("Found %d stations within %g km radius\n", len(res.Stations), c.Float64("radius"))

	return nil
}

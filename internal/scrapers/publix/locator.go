package publix

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/codes"

	"sodatrack-backend/internal/catalog"
)

const sweepRadiusMiles = 50

type geoPoint struct {
	lat float64
	lon float64
}

// search centers that blanket each state with overlapping circles.
// precision doesn't matter much, the locator returns every store
// within the radius and duplicates collapse by store number.
var sweepPoints = map[string][]geoPoint{
	"FL": {
		{30.42, -87.22}, // pensacola
		{30.44, -84.28}, // tallahassee
		{30.33, -81.66}, // jacksonville
		{29.65, -82.32}, // gainesville
		{28.54, -81.38}, // orlando
		{27.95, -82.46}, // tampa
		{27.30, -80.35}, // port st. lucie
		{26.64, -81.87}, // fort myers
		{26.12, -80.14}, // fort lauderdale
		{25.76, -80.19}, // miami
		{24.56, -81.78}, // key west
	},
	"GA": {
		{33.75, -84.39}, // atlanta
		{34.30, -83.82}, // gainesville
		{33.47, -82.01}, // augusta
		{32.84, -83.63}, // macon
		{32.46, -84.99}, // columbus
		{32.08, -81.09}, // savannah
		{31.58, -84.18}, // albany
		{31.21, -82.35}, // waycross
	},
}

// wire shape of the store locator endpoint.
type locatorResponse struct {
	Stores []locatorStore `json:"stores"`
}

type locatorStore struct {
	StoreNumber string  `json:"store_number"`
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	City        string  `json:"city"`
	State       string  `json:"state"`
	ZipCode     string  `json:"zip_code"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// FetchStores sweeps the locator over a state and returns every
// distinct store found, ids prefixed "FL-"/"GA-". individual sweep
// points may fail without failing the sweep, but zero stores overall
// is an error.
func (c *Client) FetchStores(ctx context.Context, state string) ([]catalog.Store, error) {
	ctx, span := tracer.Start(ctx, "client:FetchStores")
	defer span.End()

	state = strings.ToUpper(state)
	points := sweepPoints[state]
	if len(points) == 0 {
		return nil, fmt.Errorf("no sweep coverage for state %q", state)
	}

	seen := map[string]bool{}
	var stores []catalog.Store
	var failures int
	for i, point := range points {
		found, err := c.locatorPage(ctx, point)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			slog.WarnContext(
				ctx, "locator sweep point failed",
				"state", state,
				"latitude", point.lat,
				"longitude", point.lon,
				"err", err,
			)
			failures++
			continue
		}

		for _, raw := range found {
			// circles near a border pick up the neighbor state
			if !strings.EqualFold(raw.State, state) {
				continue
			}
			id := fmt.Sprintf("%s-%s", state, raw.StoreNumber)
			if seen[id] {
				continue
			}
			seen[id] = true
			stores = append(stores, catalog.Store{
				Id:        id,
				Name:      raw.Name,
				Address:   raw.Address,
				City:      raw.City,
				State:     state,
				ZipCode:   raw.ZipCode,
				Latitude:  raw.Latitude,
				Longitude: raw.Longitude,
			})
		}

		if i < len(points)-1 {
			err = c.pageDelay(ctx)
			if err != nil {
				return nil, err
			}
		}
	}

	if len(stores) == 0 {
		err := fmt.Errorf("locator sweep found no %s stores (%d of %d points failed)", state, failures, len(points))
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	slog.InfoContext(ctx, "swept state for stores", "state", state, "stores", len(stores), "failed_points", failures)
	return stores, nil
}

func (c *Client) locatorPage(ctx context.Context, point geoPoint) ([]locatorStore, error) {
	var found []locatorStore
	err := c.withRetry(ctx, func() error {
		res, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"latitude":  strconv.FormatFloat(point.lat, 'f', 4, 64),
				"longitude": strconv.FormatFloat(point.lon, 'f', 4, 64),
				"radius":    strconv.Itoa(sweepRadiusMiles),
			}).
			Get(c.cfg.LocatorUrl)
		if err != nil {
			return &NetworkError{Op: "locate stores", Cause: err}
		}
		if retryableStatus(res.StatusCode()) {
			return &NetworkError{Op: "locate stores", Cause: errors.New(res.Status())}
		}
		if res.IsError() {
			return errors.New("locate stores: unexpected status " + res.Status())
		}

		var parsed locatorResponse
		err = json.Unmarshal(res.Body(), &parsed)
		if err != nil {
			return &ParseError{Op: "decode locator response", Cause: err}
		}
		found = parsed.Stores
		return nil
	})
	return found, err
}

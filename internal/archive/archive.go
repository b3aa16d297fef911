// Package archive keeps every collected observation in a sqlite
// database alongside the weekly files, so cross-week questions don't
// require stitching datasets together by hand.
package archive

import (
	"context"
	"database/sql"
	"log/slog"

	"sodatrack-backend/internal/archive/db"
	"sodatrack-backend/internal/catalog"
)

type Archive struct {
	qry *db.Queries
}

func New(database *sql.DB) Archive {
	return Archive{qry: db.New(database)}
}

// Record inserts observations that aren't archived yet, keyed by
// identifier+store+week+date like everywhere else in the pipeline.
// returns how many were inserted and how many were already present.
func (a Archive) Record(ctx context.Context, products []catalog.Product) (inserted, duplicates int, err error) {
	for _, p := range products {
		count, err := a.qry.HasProduct(ctx, db.HasProductParams{
			ProductIdentifier: p.Identifier,
			Store:             p.Store,
			Week:              int64(p.Week),
			Date:              p.Date.String(),
		})
		if err != nil {
			return inserted, duplicates, err
		}
		if count > 0 {
			duplicates++
			continue
		}

		err = a.qry.InsertProduct(ctx, toRecord(p))
		if err != nil {
			return inserted, duplicates, err
		}
		inserted++
	}

	slog.InfoContext(ctx, "archived products", "inserted", inserted, "duplicates", duplicates)
	return inserted, duplicates, nil
}

type Filter struct {
	// zero means any week
	Week int
	// empty means any store
	Store string
	// ISO dates, empty means unbounded
	StartDate string
	EndDate   string
}

// List returns archived observations matching the filter, in insert
// order.
func (a Archive) List(ctx context.Context, filter Filter) ([]catalog.Product, error) {
	var records []db.Product
	var err error
	switch {
	case filter.Week > 0:
		records, err = a.qry.ListProductsByWeek(ctx, int64(filter.Week))
	case filter.Store != "":
		records, err = a.qry.ListProductsByStore(ctx, filter.Store)
	default:
		records, err = a.qry.ListProducts(ctx)
	}
	if err != nil {
		return nil, err
	}

	var products []catalog.Product
	for _, record := range records {
		if filter.Week > 0 && record.Week != int64(filter.Week) {
			continue
		}
		if filter.Store != "" && record.Store != filter.Store {
			continue
		}
		// ISO dates order lexicographically
		if filter.StartDate != "" && record.Date < filter.StartDate {
			continue
		}
		if filter.EndDate != "" && record.Date > filter.EndDate {
			continue
		}

		p, err := fromRecord(record)
		if err != nil {
			slog.Warn("skipping unreadable archive record", "id", record.ID, "err", err)
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

type Stats struct {
	TotalRecords int64
	UniqueStores int64
	UniqueWeeks  int64
}

func (a Archive) Stats(ctx context.Context) (Stats, error) {
	total, err := a.qry.CountProducts(ctx)
	if err != nil {
		return Stats{}, err
	}
	stores, err := a.qry.CountDistinctStores(ctx)
	if err != nil {
		return Stats{}, err
	}
	weeks, err := a.qry.CountDistinctWeeks(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		TotalRecords: total,
		UniqueStores: stores,
		UniqueWeeks:  weeks,
	}, nil
}

func toRecord(p catalog.Product) db.InsertProductParams {
	ppo := sql.NullFloat64{}
	if p.PricePerOunce != nil {
		ppo = sql.NullFloat64{Float64: *p.PricePerOunce, Valid: true}
	}
	return db.InsertProductParams{
		ProductName:        p.Name,
		ProductDescription: p.Description,
		ProductIdentifier:  p.Identifier,
		Date:               p.Date.String(),
		Price:              p.Price,
		Ounces:             p.Ounces,
		PricePerOunce:      ppo,
		PricePromotion:     p.Promotion,
		Week:               int64(p.Week),
		Store:              p.Store,
	}
}

func fromRecord(record db.Product) (catalog.Product, error) {
	date, err := catalog.ParseDate(record.Date)
	if err != nil {
		return catalog.Product{}, err
	}
	var ppo *float64
	if record.PricePerOunce.Valid {
		v := record.PricePerOunce.Float64
		ppo = &v
	}
	return catalog.Product{
		Name:          record.ProductName,
		Description:   record.ProductDescription,
		Identifier:    record.ProductIdentifier,
		Date:          date,
		Price:         record.Price,
		Ounces:        record.Ounces,
		PricePerOunce: ppo,
		Promotion:     record.PricePromotion,
		Week:          int(record.Week),
		Store:         record.Store,
	}, nil
}

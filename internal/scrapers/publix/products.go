package publix

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel/codes"

	"sodatrack-backend/internal/catalog"
	"sodatrack-backend/lib/timezone"
)

// wire shape of the storefront search endpoint.
type searchResponse struct {
	Items      []searchItem `json:"items"`
	TotalCount int          `json:"total_count"`
}

type searchItem struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	ItemCode      string `json:"item_code"`
	BaseProductId string `json:"base_product_id"`
	Price         string `json:"price"`
	Promotion     string `json:"promotion"`
	Savings       string `json:"savings"`
	Deal          string `json:"deal"`
}

// FetchProducts retrieves every record the storefront search reports
// for one store in the configured category, tagged with the week and
// today's date. an empty result is not an error.
func (c *Client) FetchProducts(ctx context.Context, store catalog.Store, week int) ([]catalog.Product, error) {
	ctx, span := tracer.Start(ctx, "client:FetchProducts")
	defer span.End()

	number, err := store.Number()
	if err != nil {
		return nil, err
	}
	date := catalog.NewDate(timezone.Now())

	var products []catalog.Product
	offset := 0
	for {
		items, total, err := c.searchPage(ctx, number, offset)
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			// an unrecognized response shape ends pagination with
			// whatever accumulated so far
			slog.WarnContext(
				ctx, "unrecognized search response, stopping pagination",
				"store", store.Id,
				"offset", offset,
				"err", err,
			)
			span.RecordError(err)
			break
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "search page failed")
			return nil, err
		}

		for _, item := range items {
			products = append(products, item.toProduct(store, week, date))
		}

		// a short page always ends the loop, even when the server
		// misreports the total
		offset += c.cfg.PageSize
		if len(items) < c.cfg.PageSize || offset >= total {
			break
		}

		err = c.pageDelay(ctx)
		if err != nil {
			return nil, err
		}
	}

	slog.InfoContext(ctx, "fetched store products", "store", store.Id, "count", len(products))
	return products, nil
}

func (c *Client) searchPage(ctx context.Context, storeNumber string, offset int) ([]searchItem, int, error) {
	var items []searchItem
	var total int
	err := c.withRetry(ctx, func() error {
		res, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"store":    storeNumber,
				"category": c.cfg.Category,
				"limit":    strconv.Itoa(c.cfg.PageSize),
				"offset":   strconv.Itoa(offset),
			}).
			Get("/v1/products/search")
		if err != nil {
			return &NetworkError{Op: "search products", Cause: err}
		}
		if retryableStatus(res.StatusCode()) {
			return &NetworkError{Op: "search products", Cause: errors.New(res.Status())}
		}
		if res.IsError() {
			return errors.New("search products: unexpected status " + res.Status())
		}

		var parsed searchResponse
		err = json.Unmarshal(res.Body(), &parsed)
		if err != nil {
			return &ParseError{Op: "decode search response", Cause: err}
		}
		items = parsed.Items
		total = parsed.TotalCount
		return nil
	})
	return items, total, err
}

func (item searchItem) toProduct(store catalog.Store, week int, date catalog.Date) catalog.Product {
	price := catalog.ParsePrice(item.Price)
	ounces := catalog.ExtractOunces(item.Description)

	return catalog.Product{
		Name:          item.Name,
		Description:   item.Description,
		Identifier:    catalog.DeriveIdentifier(item.ItemCode, item.BaseProductId, item.Name),
		Date:          date,
		Price:         price,
		Ounces:        ounces,
		PricePerOunce: catalog.PricePerOunce(price, ounces),
		Promotion:     firstNonEmpty(item.Promotion, item.Savings, item.Deal),
		Week:          week,
		Store:         store.Ref(),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (c *Client) pageDelay(ctx context.Context) error {
	minMs := int(c.cfg.PageDelayMin.Milliseconds())
	maxMs := int(c.cfg.PageDelayMax.Milliseconds())
	ms, err := random.IntRange(minMs, maxMs)
	if err != nil {
		ms = minMs
	}
	return sleepContext(ctx, time.Duration(ms)*time.Millisecond)
}

// Package catalog defines the entities the collection pipeline moves
// around: one price observation per product per store per week, and
// the store locations the observations come from.
package catalog

import (
	"encoding/json"
	"fmt"
	"time"
)

const DateFormat = "2006-01-02"

// Date is a calendar day. it marshals as a plain ISO 8601 date
// ("2006-01-02") rather than a full RFC 3339 timestamp.
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

func ParseDate(value string) (Date, error) {
	t, err := time.Parse(DateFormat, value)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(DateFormat)
}

func (d Date) Equal(other Date) bool {
	return d.Time.Equal(other.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(raw []byte) error {
	var value string
	err := json.Unmarshal(raw, &value)
	if err != nil {
		return err
	}
	parsed, err := ParseDate(value)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Product is one price observation. it is constructed by the
// storefront fetcher, normalized once by the validator and read-only
// after that.
type Product struct {
	Name          string   `json:"product_name"`
	Description   string   `json:"product_description"`
	Identifier    string   `json:"product_identifier"`
	Date          Date     `json:"date"`
	Price         float64  `json:"price"`
	Ounces        float64  `json:"ounces"`
	PricePerOunce *float64 `json:"price_per_ounce"`
	Promotion     string   `json:"price_promotion"`
	Week          int      `json:"week"`
	Store         string   `json:"store"`
}

// Key returns the identity of an observation. two products with equal
// keys are the same observation no matter which run or file they were
// read from.
func (p Product) Key() string {
	return fmt.Sprintf("%s|%s|%d|%s", p.Identifier, p.Store, p.Week, p.Date)
}

// PricePerOunce derives the unit price. nil when ounces is zero, the
// unit price is explicitly absent rather than zero.
func PricePerOunce(price, ounces float64) *float64 {
	if ounces <= 0 {
		return nil
	}
	v := price / ounces
	return &v
}

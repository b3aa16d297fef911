// Package validate normalizes raw observations and enforces the
// record invariants before anything is deduplicated or persisted.
package validate

import (
	"fmt"
	"math"
	"strings"

	"sodatrack-backend/internal/catalog"
)

const maxNameLength = 200

// Config holds the ceilings and the price-per-ounce tolerance.
// Zero fields take the defaults below.
type Config struct {
	MaxPrice         float64 `json:"max_price"`
	MaxPricePerOunce float64 `json:"max_price_per_ounce"`
	MaxOunces        float64 `json:"max_ounces"`
	Tolerance        float64 `json:"tolerance"`
}

func (c Config) withDefaults() Config {
	if c.MaxPrice == 0 {
		c.MaxPrice = 10000
	}
	if c.MaxPricePerOunce == 0 {
		c.MaxPricePerOunce = 10
	}
	if c.MaxOunces == 0 {
		c.MaxOunces = 10000
	}
	if c.Tolerance == 0 {
		c.Tolerance = 0.01
	}
	return c
}

type Validator struct {
	config Config
}

func New(config Config) Validator {
	return Validator{config: config.withDefaults()}
}

// Defect describes why one record was rejected, surfaced in the run
// summary rather than returned as an error.
type Defect struct {
	Index      int      `json:"index"`
	Identifier string   `json:"identifier"`
	Name       string   `json:"name"`
	Defects    []string `json:"defects"`
}

// Clean normalizes every mutable field: whitespace is trimmed and
// collapsed, the identifier is uppercased, price rounds to 2 decimals
// and ounces to 1, and the price per ounce is recomputed from the
// rounded values. cleaning an already clean record changes nothing.
func (v Validator) Clean(p catalog.Product) catalog.Product {
	p.Name = collapseSpace(p.Name)
	p.Description = collapseSpace(p.Description)
	p.Identifier = strings.ToUpper(strings.TrimSpace(p.Identifier))
	p.Store = collapseSpace(p.Store)
	p.Promotion = collapseSpace(p.Promotion)

	p.Price = round(p.Price, 2)
	p.Ounces = round(p.Ounces, 1)
	if p.Ounces > 0 {
		ppo := round(p.Price/p.Ounces, 4)
		p.PricePerOunce = &ppo
	} else {
		p.PricePerOunce = nil
	}

	return p
}

// Validate returns the list of invariant violations, empty for a
// valid record.
func (v Validator) Validate(p catalog.Product) []string {
	var defects []string

	if p.Name == "" {
		defects = append(defects, "product name is missing")
	} else if len(p.Name) > maxNameLength {
		defects = append(defects, fmt.Sprintf("product name exceeds %d characters", maxNameLength))
	}

	if p.Identifier == "" {
		defects = append(defects, "product identifier is missing")
	}

	if p.Price < 0 {
		defects = append(defects, fmt.Sprintf("price %.2f is negative", p.Price))
	} else if p.Price > v.config.MaxPrice {
		defects = append(defects, fmt.Sprintf("price %.2f exceeds ceiling %.0f", p.Price, v.config.MaxPrice))
	}

	if p.Ounces < 0 {
		defects = append(defects, fmt.Sprintf("ounces %.1f is negative", p.Ounces))
	} else if p.Ounces > v.config.MaxOunces {
		defects = append(defects, fmt.Sprintf("ounces %.1f exceeds ceiling %.0f", p.Ounces, v.config.MaxOunces))
	}

	// zero ounces is allowed, the size was simply unextractable and
	// the unit price is absent by definition.
	if p.Ounces > 0 {
		if p.PricePerOunce == nil {
			defects = append(defects, "price per ounce is missing")
		} else if *p.PricePerOunce < 0 {
			defects = append(defects, fmt.Sprintf("price per ounce %.4f is negative", *p.PricePerOunce))
		} else if *p.PricePerOunce > v.config.MaxPricePerOunce {
			defects = append(defects, fmt.Sprintf(
				"price per ounce %.4f exceeds ceiling %.2f",
				*p.PricePerOunce, v.config.MaxPricePerOunce,
			))
		} else if math.Abs(*p.PricePerOunce-p.Price/p.Ounces) > v.config.Tolerance {
			defects = append(defects, fmt.Sprintf(
				"price per ounce %.4f is inconsistent with price/ounces %.4f",
				*p.PricePerOunce, p.Price/p.Ounces,
			))
		}
	}

	if p.Date.IsZero() {
		defects = append(defects, "date is missing")
	}

	if p.Week < 1 || p.Week > 52 {
		defects = append(defects, fmt.Sprintf("week %d out of range", p.Week))
	}

	if p.Store == "" {
		defects = append(defects, "store is missing")
	}

	return defects
}

// ValidateAndClean cleans then validates every record, partitioning
// into valid records (input order preserved) and defect entries for
// the run summary.
func (v Validator) ValidateAndClean(products []catalog.Product) ([]catalog.Product, []Defect) {
	valid := make([]catalog.Product, 0, len(products))
	var rejected []Defect

	for i, p := range products {
		cleaned := v.Clean(p)
		defects := v.Validate(cleaned)
		if len(defects) > 0 {
			rejected = append(rejected, Defect{
				Index:      i,
				Identifier: cleaned.Identifier,
				Name:       cleaned.Name,
				Defects:    defects,
			})
			continue
		}
		valid = append(valid, cleaned)
	}

	return valid, rejected
}

func collapseSpace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

func round(value float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(value*scale) / scale
}

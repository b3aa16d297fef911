// Package storage persists validated records to tabular files and
// loads them back. CSV is the canonical format, JSON arrays and xlsx
// workbooks are equivalent alternates sharing the same column
// contract.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"sodatrack-backend/internal/catalog"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(value)) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unknown output format %q", value)
}

// the on-disk column contract, in this exact order.
var header = []string{
	"product_name",
	"product_description",
	"product_identifier",
	"date",
	"price",
	"ounces",
	"price_per_ounce",
	"price_promotion",
	"week",
	"store",
}

// Header returns the column names shared by every output format and
// the spreadsheet tabs.
func Header() []string {
	out := make([]string, len(header))
	copy(out, header)
	return out
}

// Store reads and writes one dataset file. the format is inferred
// from the file extension.
type Store struct {
	path   string
	format Format
}

func New(path string) Store {
	format := FormatCSV
	switch strings.TrimPrefix(filepath.Ext(path), ".") {
	case "json":
		format = FormatJSON
	case "xlsx":
		format = FormatXLSX
	}
	return Store{path: path, format: format}
}

func (s Store) Path() string {
	return s.path
}

func (s Store) Format() Format {
	return s.format
}

func (s Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Save persists a batch. with append set and an existing destination,
// rows are added without rewriting what is already there; otherwise
// the file is rewritten with exactly the given records, header first.
func (s Store) Save(products []catalog.Product, append bool) error {
	err := os.MkdirAll(filepath.Dir(s.path), 0755)
	if err != nil {
		return err
	}

	switch s.format {
	case FormatJSON:
		return s.saveJSON(products, append)
	case FormatXLSX:
		return s.saveXLSX(products, append)
	default:
		return s.saveCSV(products, append)
	}
}

// Load returns every persisted record. individual malformed rows are
// logged and skipped rather than failing the whole load.
func (s Store) Load() ([]catalog.Product, error) {
	if !s.Exists() {
		return nil, nil
	}

	switch s.format {
	case FormatJSON:
		return s.loadJSON()
	case FormatXLSX:
		return s.loadXLSX()
	default:
		return s.loadCSV()
	}
}

func row(p catalog.Product) []string {
	ppo := ""
	if p.PricePerOunce != nil {
		ppo = strconv.FormatFloat(*p.PricePerOunce, 'f', 4, 64)
	}
	return []string{
		p.Name,
		p.Description,
		p.Identifier,
		p.Date.String(),
		strconv.FormatFloat(p.Price, 'f', 2, 64),
		strconv.FormatFloat(p.Ounces, 'f', 1, 64),
		ppo,
		p.Promotion,
		strconv.Itoa(p.Week),
		p.Store,
	}
}

func fromRow(record []string) (catalog.Product, error) {
	if len(record) < len(header) {
		return catalog.Product{}, fmt.Errorf("expected %d columns, got %d", len(header), len(record))
	}

	date, err := catalog.ParseDate(record[3])
	if err != nil {
		return catalog.Product{}, fmt.Errorf("bad date %q: %w", record[3], err)
	}
	price, err := strconv.ParseFloat(record[4], 64)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("bad price %q: %w", record[4], err)
	}
	ounces, err := strconv.ParseFloat(record[5], 64)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("bad ounces %q: %w", record[5], err)
	}
	var ppo *float64
	if record[6] != "" {
		v, err := strconv.ParseFloat(record[6], 64)
		if err != nil {
			return catalog.Product{}, fmt.Errorf("bad price per ounce %q: %w", record[6], err)
		}
		ppo = &v
	}
	week, err := strconv.Atoi(record[8])
	if err != nil {
		return catalog.Product{}, fmt.Errorf("bad week %q: %w", record[8], err)
	}

	return catalog.Product{
		Name:          record[0],
		Description:   record[1],
		Identifier:    record[2],
		Date:          date,
		Price:         price,
		Ounces:        ounces,
		PricePerOunce: ppo,
		Promotion:     record[7],
		Week:          week,
		Store:         record[9],
	}, nil
}

package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"sodatrack-backend/internal/catalog"
)

func unitPrice(v float64) *float64 {
	return &v
}

// values here are already rounded the way the writer formats them so
// loads compare equal to what was saved.
func fixtureProducts(t *testing.T) []catalog.Product {
	t.Helper()

	date, err := catalog.ParseDate("2025-08-25")
	require.NoError(t, err)

	return []catalog.Product{
		{
			Name:          "Coca-Cola Classic Cans",
			Description:   "12 - 12 fl oz cans",
			Identifier:    "COKE12PK",
			Date:          date,
			Price:         9.99,
			Ounces:        144,
			PricePerOunce: unitPrice(0.0694),
			Promotion:     "BOGO",
			Week:          4,
			Store:         "FL-1651 - Gainesville, FL",
		},
		{
			Name:       "Mystery Soda Variety Pack",
			Identifier: "MYSTERY1",
			Date:       date,
			Price:      6.5,
			Ounces:     0,
			Week:       4,
			Store:      "GA-602 - Atlanta, GA",
		},
	}
}

func TestCSVRoundTrip(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "prices.csv"))
	require.Equal(t, FormatCSV, s.Format())

	products := fixtureProducts(t)
	require.NoError(t, s.Save(products, false))

	{
		// header goes first, in the documented column order
		raw, err := os.ReadFile(s.Path())
		require.NoError(t, err)
		first, _, _ := strings.Cut(string(raw), "\n")
		require.Equal(t, strings.Join(Header(), ","), first)
	}

	loaded, err := s.Load()
	require.NoError(t, err)
	diff := cmp.Diff(products, loaded)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestCSVAppend(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "prices.csv"))
	products := fixtureProducts(t)

	// appending to a file that doesn't exist yet still writes the header
	require.NoError(t, s.Save(products[:1], true))
	require.NoError(t, s.Save(products[1:], true))

	loaded, err := s.Load()
	require.NoError(t, err)
	diff := cmp.Diff(products, loaded)
	if diff != "" {
		t.Fatal(diff)
	}

	raw, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(string(raw), "product_name"))
}

func TestCSVOverwrite(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "prices.csv"))
	products := fixtureProducts(t)

	require.NoError(t, s.Save(products, false))
	require.NoError(t, s.Save(products[:1], false))

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, "COKE12PK", loaded[0].Identifier)
}

func TestCSVSkipsMalformedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.csv")
	lines := []string{
		strings.Join(Header(), ","),
		"Coke,,COKE1,2025-08-25,9.99,144.0,0.0694,,4,FL-1651",
		"Pepsi,,PEP1,not-a-date,5.99,144.0,,,4,FL-1651",
		"Sprite,,SPR1,2025-08-25,not-a-price,144.0,,,4,FL-1651",
		"Fanta,,FAN1,2025-08-25,4.99,67.6,0.0738,,4,GA-602",
	}
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))

	loaded, err := New(path).Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	require.Equal(t, "COKE1", loaded[0].Identifier)
	require.Equal(t, "FAN1", loaded[1].Identifier)
}

func TestLoadMissingFile(t *testing.T) {
	loaded, err := New(filepath.Join(t.TempDir(), "nope.csv")).Load()
	require.NoError(t, err)
	require.Nil(t, loaded)
}

func TestJSONRoundTripAndAppend(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "prices.json"))
	require.Equal(t, FormatJSON, s.Format())

	products := fixtureProducts(t)
	require.NoError(t, s.Save(products[:1], false))
	require.NoError(t, s.Save(products[1:], true))

	loaded, err := s.Load()
	require.NoError(t, err)
	diff := cmp.Diff(products, loaded)
	if diff != "" {
		t.Fatal(diff)
	}

	raw, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	{
		// appends rewrite the file as one indented array
		require.True(t, strings.HasPrefix(string(raw), "[\n  {"))
		require.Equal(t, 1, strings.Count(string(raw), "["))
	}
	{
		// a missing unit price stays null, not zero
		require.Contains(t, string(raw), `"price_per_ounce": null`)
	}
}

func TestXLSXRoundTripAndAppend(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "prices.xlsx"))
	require.Equal(t, FormatXLSX, s.Format())

	products := fixtureProducts(t)
	require.NoError(t, s.Save(products[:1], false))
	require.NoError(t, s.Save(products[1:], true))

	loaded, err := s.Load()
	require.NoError(t, err)
	diff := cmp.Diff(products, loaded)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestParseFormat(t *testing.T) {
	testCases := []struct {
		in   string
		want Format
	}{
		{"csv", FormatCSV},
		{"CSV", FormatCSV},
		{"json", FormatJSON},
		{"Xlsx", FormatXLSX},
	}
	for _, test := range testCases {
		got, err := ParseFormat(test.in)
		require.NoError(t, err)
		require.Equal(t, test.want, got)
	}

	_, err := ParseFormat("parquet")
	require.Error(t, err)
}

func TestFilenames(t *testing.T) {
	at := time.Date(2025, time.August, 25, 10, 0, 0, 0, time.UTC)

	require.Equal(t, "publix_soda_prices_week4_202508", WeeklyBase(4, at))
	require.Equal(t, filepath.Join("out", "publix_soda_prices_week4_202508.csv"), WeeklyPath("out", 4, at, FormatCSV))
	require.Equal(t, filepath.Join("out", "publix_soda_prices_week2_202508.csv"), WeeklyPath("out", 2, at, FormatCSV))
	require.Equal(t, filepath.Join("out", "temp_week4_202508.csv"), TempPath("out", 4, at))
	require.Equal(t, filepath.Join("out", "publix_soda_prices_week4_202508_summary.json"), SummaryPath("out", WeeklyBase(4, at)))
	require.Equal(t, "publix_soda_prices_monthly_202508", MonthlyBase(at))
	require.Equal(t, filepath.Join("out", "publix_soda_prices_monthly_202508.csv"), MonthlyPath("out", at))
}

func TestWeeklyGlob(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2025, time.August, 25, 10, 0, 0, 0, time.UTC)

	for _, name := range []string{
		"publix_soda_prices_week1_202508.csv",
		"publix_soda_prices_week4_202508.csv",
		"publix_soda_prices_week4_202507.csv",
		"publix_soda_prices_monthly_202508.csv",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}

	matches, err := filepath.Glob(WeeklyGlob(dir, at, FormatCSV))
	require.NoError(t, err)
	require.Len(t, matches, 2)
	for _, m := range matches {
		require.Contains(t, m, "_week")
		require.Contains(t, m, "_202508")
	}
}

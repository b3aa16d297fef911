package validate

import (
	"strings"
	"testing"

	"sodatrack-backend/internal/catalog"

	"github.com/stretchr/testify/require"
)

func validProduct() catalog.Product {
	date, _ := catalog.ParseDate("2025-08-25")
	return catalog.Product{
		Name:          "Cola Classic",
		Description:   "12 - 12 fl oz cans",
		Identifier:    "ABC123",
		Date:          date,
		Price:         9.99,
		Ounces:        144,
		PricePerOunce: catalog.PricePerOunce(9.99, 144),
		Week:          3,
		Store:         "FL-1651 - Gainesville, FL",
	}
}

func TestCleanNormalizes(t *testing.T) {
	v := New(Config{})

	p := validProduct()
	p.Name = "  Cola   Classic \t"
	p.Identifier = " abc123 "
	p.Price = 9.991234
	p.Ounces = 144.04
	p.Promotion = "   "

	cleaned := v.Clean(p)
	require.Equal(t, "Cola Classic", cleaned.Name)
	require.Equal(t, "ABC123", cleaned.Identifier)
	require.Equal(t, 9.99, cleaned.Price)
	require.Equal(t, 144.0, cleaned.Ounces)
	require.Equal(t, "", cleaned.Promotion)
	require.NotNil(t, cleaned.PricePerOunce)
	require.InDelta(t, 9.99/144.0, *cleaned.PricePerOunce, 0.0001)
}

func TestCleanIdempotent(t *testing.T) {
	v := New(Config{})

	p := validProduct()
	p.Name = "  Diet   Cola "
	p.Promotion = " BOGO  free "

	once := v.Clean(p)
	twice := v.Clean(once)
	require.Equal(t, once, twice)
}

func TestCleanZeroOunces(t *testing.T) {
	v := New(Config{})

	p := validProduct()
	p.Ounces = 0
	stale := 99.0
	p.PricePerOunce = &stale

	cleaned := v.Clean(p)
	require.Nil(t, cleaned.PricePerOunce)
}

func TestValidate(t *testing.T) {
	v := New(Config{})

	{
		require.Empty(t, v.Validate(validProduct()))
	}

	// zero ounces with a price still passes, the unit price is simply
	// absent
	{
		p := validProduct()
		p.Price = 6.99
		p.Ounces = 0
		p.PricePerOunce = nil
		require.Empty(t, v.Validate(p))
	}

	cases := []struct {
		name   string
		mutate func(*catalog.Product)
		expect string
	}{
		{
			name:   "missing name",
			mutate: func(p *catalog.Product) { p.Name = "" },
			expect: "product name is missing",
		},
		{
			name:   "name too long",
			mutate: func(p *catalog.Product) { p.Name = strings.Repeat("x", 201) },
			expect: "exceeds 200 characters",
		},
		{
			name:   "missing identifier",
			mutate: func(p *catalog.Product) { p.Identifier = "" },
			expect: "product identifier is missing",
		},
		{
			name:   "negative price",
			mutate: func(p *catalog.Product) { p.Price = -1 },
			expect: "is negative",
		},
		{
			name:   "absurd price",
			mutate: func(p *catalog.Product) { p.Price = 10001 },
			expect: "exceeds ceiling",
		},
		{
			name: "unit price over ceiling",
			mutate: func(p *catalog.Product) {
				bad := 11.0
				p.PricePerOunce = &bad
			},
			expect: "exceeds ceiling",
		},
		{
			name: "drifted unit price",
			mutate: func(p *catalog.Product) {
				bad := 9.99/144.0 + 0.02
				p.PricePerOunce = &bad
			},
			expect: "inconsistent with price/ounces",
		},
		{
			name:   "week out of range",
			mutate: func(p *catalog.Product) { p.Week = 53 },
			expect: "week 53 out of range",
		},
		{
			name:   "missing store",
			mutate: func(p *catalog.Product) { p.Store = "" },
			expect: "store is missing",
		},
		{
			name:   "missing date",
			mutate: func(p *catalog.Product) { p.Date = catalog.Date{} },
			expect: "date is missing",
		},
	}

	for _, test := range cases {
		p := validProduct()
		test.mutate(&p)
		defects := v.Validate(p)
		require.NotEmpty(t, defects, test.name)

		found := false
		for _, d := range defects {
			if strings.Contains(d, test.expect) {
				found = true
			}
		}
		require.True(t, found, "%s: %v", test.name, defects)
	}
}

func TestValidateAndClean(t *testing.T) {
	v := New(Config{})

	good1 := validProduct()
	bad := validProduct()
	bad.Identifier = ""
	good2 := validProduct()
	good2.Identifier = "xyz789"

	valid, rejected := v.ValidateAndClean([]catalog.Product{good1, bad, good2})

	require.Len(t, valid, 2)
	// input order preserved
	require.Equal(t, "ABC123", valid[0].Identifier)
	require.Equal(t, "XYZ789", valid[1].Identifier)

	require.Len(t, rejected, 1)
	require.Equal(t, 1, rejected[0].Index)
	require.Contains(t, rejected[0].Defects[0], "identifier is missing")
}

func TestConfigurableCeilings(t *testing.T) {
	v := New(Config{MaxPrice: 50})

	p := validProduct()
	p.Price = 60
	p.PricePerOunce = catalog.PricePerOunce(60, p.Ounces)

	defects := v.Validate(p)
	require.NotEmpty(t, defects)
	require.Contains(t, defects[0], "exceeds ceiling 50")
}

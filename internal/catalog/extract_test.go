package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	cases := []struct {
		value  string
		expect float64
	}{
		{value: "$5.99", expect: 5.99},
		{value: "5.99", expect: 5.99},
		{value: "$1,299.00", expect: 1299},
		{value: "2 for $7.00", expect: 2},
		{value: "free", expect: 0},
		{value: "", expect: 0},
	}
	for _, test := range cases {
		require.Equal(t, test.expect, ParsePrice(test.value), "value %q", test.value)
	}
}

func TestExtractOunces(t *testing.T) {
	cases := []struct {
		description string
		expect      float64
	}{
		{description: "12 - 12 fl oz (355 ml) cans", expect: 144},
		{description: "24 - 12 fl oz (355 ml) cans", expect: 288},
		{description: "12 - 16.9 fl oz (500 ml) bottles", expect: 202.8},
		{description: "[144 fl oz] variety pack", expect: 144},
		{description: "20 fl oz bottle", expect: 20},
		{description: "2 L bottle", expect: 67.628},
		{description: "500 ml glass bottle", expect: 16.907},
		{description: "six pack", expect: 0},
		{description: "", expect: 0},
	}
	for _, test := range cases {
		require.InDelta(t, test.expect, ExtractOunces(test.description), 0.001,
			"description %q", test.description)
	}

	// the largest of several plain mentions wins
	require.InDelta(t, 16.9, ExtractOunces("16.9 fl oz bottle, was 12 fl oz"), 0.001)
	// an absurd multipack product falls through to the plain quantity
	require.InDelta(t, 999, ExtractOunces("9999 - 999 fl oz"), 0.001)
}

func TestDeriveIdentifier(t *testing.T) {
	require.Equal(t, "ITEM-1", DeriveIdentifier("ITEM-1", "BASE-2", "Cola"))
	require.Equal(t, "BASE-2", DeriveIdentifier("", "BASE-2", "Cola"))

	hashed := DeriveIdentifier("", "", "Cola 12-pack")
	require.Len(t, hashed, 10)
	// stable across calls
	require.Equal(t, hashed, DeriveIdentifier("", "", "Cola 12-pack"))
	require.NotEqual(t, hashed, DeriveIdentifier("", "", "Root Beer 12-pack"))
}

package catalog

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
)

var (
	numberPattern       = regexp.MustCompile(`\d+(?:\.\d+)?`)
	bracketTotalPattern = regexp.MustCompile(`(?i)\[(\d+(?:\.\d+)?)\s*fl\s*oz\]`)
	multipackPattern    = regexp.MustCompile(`(?i)(\d+)\s*-\s*(\d+(?:\.\d+)?)\s*fl\s*oz`)
	flOzPattern         = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*fl\s*oz`)
	literPattern        = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*l(?:iters?)?\b`)
	milliliterPattern   = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*ml\b`)
)

// guards against a regex misfire multiplying into an absurd total,
// not a business rule.
const maxSaneOunces = 10000

// ParsePrice pulls the first numeric substring out of a currency
// formatted string like "$5.99". unparseable input yields 0.
func ParsePrice(value string) float64 {
	match := numberPattern.FindString(strings.ReplaceAll(value, ",", ""))
	if match == "" {
		return 0
	}
	price, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return price
}

// ExtractOunces pulls the total fluid-ounce size out of a free-text
// description. patterns are tried in priority order:
//  1. an explicitly bracketed total, e.g. "[144 fl oz]"
//  2. "N - M fl oz" multipack notation, e.g. "12 - 12 fl oz cans"
//  3. the largest plain "fl oz" quantity mentioned
//  4. liters
//  5. milliliters
//
// returns 0 when nothing matches.
func ExtractOunces(description string) float64 {
	if description == "" {
		return 0
	}

	if m := bracketTotalPattern.FindStringSubmatch(description); m != nil {
		return parseFloat(m[1])
	}

	if m := multipackPattern.FindStringSubmatch(description); m != nil {
		total := parseFloat(m[1]) * parseFloat(m[2])
		if total > 0 && total <= maxSaneOunces {
			return total
		}
	}

	if matches := flOzPattern.FindAllStringSubmatch(description, -1); matches != nil {
		largest := 0.0
		for _, m := range matches {
			v := parseFloat(m[1])
			if v > largest {
				largest = v
			}
		}
		if largest > 0 {
			return largest
		}
	}

	if m := literPattern.FindStringSubmatch(description); m != nil {
		return parseFloat(m[1]) * 33.814
	}

	if m := milliliterPattern.FindStringSubmatch(description); m != nil {
		return parseFloat(m[1]) / 29.5735
	}

	return 0
}

// DeriveIdentifier picks the stable identifier for a raw record: the
// item code when present, else the base product id, else a hash of
// the product name truncated to 10 characters so re-fetching the same
// unnamed record keys identically.
func DeriveIdentifier(itemCode, baseProductId, name string) string {
	if itemCode != "" {
		return itemCode
	}
	if baseProductId != "" {
		return baseProductId
	}
	sum := md5.Sum([]byte(name))
	return hex.EncodeToString(sum[:])[:10]
}

func parseFloat(value string) float64 {
	v, _ := strconv.ParseFloat(value, 64)
	return v
}

package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// amountTier is one numeral format. Tiers are tried in order and the first
// tier with at least one match decides the whole result.
type amountTier struct {
	name    string
	pattern *regexp.Regexp
	clean   func(string) string
}

var amountTiers = []amountTier{
	{
		// 1,500.50
		name:    "comma_thousands_dot_decimal",
		pattern: regexp.MustCompile(`\b\d{1,3}(?:,\d{3})*\.\d{1,2}\b`),
		clean:   stripCommas,
	},
	{
		// 1.500,50
		name:    "dot_thousands_comma_decimal",
		pattern: regexp.MustCompile(`\b\d{1,3}(?:\.\d{3})*,\d{1,2}\b`),
		clean: func(s string) string {
			return strings.Replace(stripDots(s), ",", ".", 1)
		},
	},
	{
		// 1,500
		name:    "comma_thousands",
		pattern: regexp.MustCompile(`\b\d{1,3}(?:,\d{3})+\b`),
		clean:   stripCommas,
	},
	{
		// 1.500
		name:    "dot_thousands",
		pattern: regexp.MustCompile(`\b\d{1,3}(?:\.\d{3})+\b`),
		clean:   stripDots,
	},
	{
		// 15.75
		name:    "simple_decimal",
		pattern: regexp.MustCompile(`\b\d+\.\d{1,2}\b`),
		clean:   func(s string) string { return s },
	},
	{
		// 1500
		name:    "integer",
		pattern: regexp.MustCompile(`\d+`),
		clean:   func(s string) string { return s },
	},
}

// ExtractAmounts returns the positive amounts found in text, in order of
// appearance. An empty result is normal and never an error.
func ExtractAmounts(text string) []float64 {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	for _, tier := range amountTiers {
		matches := tier.pattern.FindAllString(text, -1)
		if len(matches) == 0 {
			continue
		}

		amounts := make([]float64, 0, len(matches))
		for _, m := range matches {
			value, err := decimal.NewFromString(tier.clean(m))
			if err != nil || !value.IsPositive() {
				continue
			}
			f, _ := value.Float64()
			amounts = append(amounts, f)
		}
		if len(amounts) > 0 {
			return amounts
		}
	}
	return nil
}

func stripCommas(s string) string {
	return strings.ReplaceAll(s, ",", "")
}

func stripDots(s string) string {
	return strings.ReplaceAll(s, ".", "")
}

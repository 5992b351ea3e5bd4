package services

import (
	"regexp"
	"strconv"
	"strings"
)

type budgetPattern struct {
	re   *regexp.Regexp
	unit string
}

// Tried in order; the first hit wins.
var budgetPatterns = []budgetPattern{
	{regexp.MustCompile(`(\d+\.?\d*)\s*(?:cr|crore|crores)`), "Cr"},
	{regexp.MustCompile(`(\d+\.?\d*)\s*(?:lakh|lakhs)`), "Lakh"},
	{regexp.MustCompile(`₹\s*(\d+\.?\d*)\s*(?:cr|crore|crores)`), "Cr"},
	{regexp.MustCompile(`₹\s*(\d+\.?\d*)\s*(?:lakh|lakhs)`), "Lakh"},
}

// ExtractBudget finds an amount in crores or lakhs and normalizes it to
// "<amount> Cr" or "<amount> Lakh". Amounts are not range-checked.
func ExtractBudget(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, p := range budgetPatterns {
		m := p.re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		amount, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		return formatAmount(amount) + " " + p.unit, true
	}
	return "", false
}

// formatAmount always keeps a fractional part: 2 -> "2.0", 1.5 -> "1.5".
func formatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

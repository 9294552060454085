package usecase

import (
	"math"
	"strconv"
	"strings"
)

// sigmoid is the standard logistic function, used to shape the rating and
// delivery curves.
func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// percentileOfScore returns the mean-rank percentile of score within values:
// the average of the strict ("what fraction is below") and weak ("what
// fraction is at or below") percentiles. Ties land on the midpoint, and a
// lone value sits at 50 rather than 0 or 100, which keeps a single-product
// result set from being scored as either the cheapest or the priciest of its
// peers.
func percentileOfScore(values []float64, score float64) float64 {
	if len(values) == 0 {
		return 0
	}
	below, atOrBelow := 0, 0
	for _, v := range values {
		if v < score {
			below++
		}
		if v <= score {
			atOrBelow++
		}
	}
	return 100 * float64(below+atOrBelow) / (2 * float64(len(values)))
}

// numericValue extracts a numeric value from currency-formatted text such as
// "$1,299.99" or unit prices such as "$1.99 per oz" (the numeric prefix
// before "per" wins). It returns nil for empty or malformed input; malformed
// numeric text is treated identically to missing data.
func numericValue(raw string) *float64 {
	cleaned := strings.ReplaceAll(raw, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return nil
	}

	if idx := strings.Index(strings.ToLower(cleaned), "per"); idx >= 0 {
		cleaned = strings.TrimSpace(cleaned[:idx])
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &v
}

package utils

import (
	"math"

	"github.com/dustin/go-humanize"
)

// FormatVND renders an amount as "1,234,567 VND", rounding halves to even.
func FormatVND(amount float64) string {
	return humanize.Comma(int64(math.RoundToEven(amount))) + " VND"
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

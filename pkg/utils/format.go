// Package utils provides shared utility functions.
package utils

import (
	"fmt"
	"math"
	"strings"

	"stock-forecaster/internal/models"
)

// CurrencySymbol returns the display currency for a ticker.
func CurrencySymbol(symbol string) string {
	if models.IsIndianSymbol(symbol) {
		return "₹"
	}
	return "$"
}

// FormatPrice formats a price in the ticker's currency. Indian tickers use
// lakh/crore digit grouping.
func FormatPrice(symbol string, price float64) string {
	negative := price < 0
	if negative {
		price = -price
	}

	str := fmt.Sprintf("%.2f", price)
	parts := strings.Split(str, ".")
	intPart, decPart := parts[0], parts[1]

	var grouped string
	if models.IsIndianSymbol(symbol) {
		grouped = formatIndianNumber(intPart)
	} else {
		grouped = formatThousands(intPart)
	}

	result := CurrencySymbol(symbol) + grouped + "." + decPart
	if negative {
		result = "-" + result
	}
	return result
}

// formatIndianNumber groups an integer string as 12,34,567.
func formatIndianNumber(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	// First group of 3 from right
	result := s[n-3:]
	s = s[:n-3]

	// Then groups of 2
	for len(s) > 0 {
		if len(s) >= 2 {
			result = s[len(s)-2:] + "," + result
			s = s[:len(s)-2]
		} else {
			result = s + "," + result
			s = ""
		}
	}

	return result
}

// formatThousands groups an integer string as 1,234,567.
func formatThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var b strings.Builder
	lead := n % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatPercent formats a percentage with sign.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// FormatChange formats the move from base to price as a signed percentage.
func FormatChange(base, price float64) string {
	if base == 0 {
		return FormatPercent(0)
	}
	return FormatPercent((price - base) / base * 100)
}

// FormatVolume formats a share volume in compact form (K/M/B).
func FormatVolume(volume float64) string {
	abs := math.Abs(volume)
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("%.2fB", volume/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.2fM", volume/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.1fK", volume/1e3)
	default:
		return fmt.Sprintf("%.0f", volume)
	}
}

// FormatConfidence formats a [0, 1] confidence as a whole percentage.
func FormatConfidence(confidence float64) string {
	return fmt.Sprintf("%.0f%%", confidence*100)
}

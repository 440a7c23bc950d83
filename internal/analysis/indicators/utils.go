package indicators

import (
	"math"

	"stock-forecaster/internal/models"
)

// sum calculates the sum of a slice of float64.
func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// mean calculates the arithmetic mean of a slice of float64.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return sum(values) / float64(len(values))
}

// stdDev calculates the population standard deviation of a slice of float64.
func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var variance float64
	for _, v := range values {
		diff := v - m
		variance += diff * diff
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}

// lastN returns the trailing n values, or all of them when fewer exist.
func lastN(values []float64, n int) []float64 {
	if n >= len(values) {
		return values
	}
	return values[len(values)-n:]
}

// ClosePrices extracts close prices from price points.
func ClosePrices(points []models.PricePoint) []float64 {
	prices := make([]float64, len(points))
	for i, p := range points {
		prices[i] = p.Close
	}
	return prices
}

// volumes extracts volumes from price points.
func volumes(points []models.PricePoint) []float64 {
	vols := make([]float64, len(points))
	for i, p := range points {
		vols[i] = p.Volume
	}
	return vols
}

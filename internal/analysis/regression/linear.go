package regression

// LinearFit is an ordinary least squares trend over index vs price.
type LinearFit struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	R2        float64 `json:"r2"`
}

// FitLinear fits price = slope*index + intercept in closed form.
func FitLinear(prices []float64) LinearFit {
	n := len(prices)
	if n < 2 {
		fit := LinearFit{}
		if n == 1 {
			fit.Intercept = prices[0]
		}
		return fit
	}

	var sumX, sumY float64
	for i, p := range prices {
		sumX += float64(i)
		sumY += p
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var sxy, sxx float64
	for i, p := range prices {
		dx := float64(i) - meanX
		sxy += dx * (p - meanY)
		sxx += dx * dx
	}

	slope := sxy / sxx
	intercept := meanY - slope*meanX

	var ssRes, ssTot float64
	for i, p := range prices {
		predicted := slope*float64(i) + intercept
		ssRes += (p - predicted) * (p - predicted)
		ssTot += (p - meanY) * (p - meanY)
	}

	var r2 float64
	if ssTot > 0 {
		r2 = clamp01(1 - ssRes/ssTot)
	}

	return LinearFit{Slope: slope, Intercept: intercept, R2: r2}
}

// Predict evaluates the trend line at index x.
func (f LinearFit) Predict(x float64) float64 {
	return f.Slope*x + f.Intercept
}

func (f LinearFit) Name() string { return "linear" }

func (f LinearFit) Parameters() []float64 { return []float64{f.Slope, f.Intercept} }

func (f LinearFit) Quality() float64 { return f.R2 }

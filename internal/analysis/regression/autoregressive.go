package regression

import "math"

const (
	arOrder        = 3
	arLearningRate = 0.001
	arIterations   = 1000
	arMinPrices    = 10
)

// AutoregressiveFit is an AR(3) model: price(t) = c0*p(t-1) + c1*p(t-2) + c2*p(t-3).
type AutoregressiveFit struct {
	Coefficients [arOrder]float64 `json:"coefficients"`
	Accuracy     float64          `json:"accuracy"`
}

func fallbackAutoregressive() AutoregressiveFit {
	return AutoregressiveFit{Coefficients: [arOrder]float64{0.5, 0.3, 0.2}}
}

// FitAutoregressive fits the AR(3) coefficients with batch-averaged gradient
// descent, starting from the fallback coefficients.
func FitAutoregressive(prices []float64) AutoregressiveFit {
	if len(prices) < arMinPrices {
		return fallbackAutoregressive()
	}

	scale := scaleOf(prices)
	var rows []sample
	for t := arOrder; t < len(prices); t++ {
		rows = append(rows, sample{
			x: [3]float64{prices[t-1] / scale, prices[t-2] / scale, prices[t-3] / scale},
			y: prices[t] / scale,
		})
	}

	fit := fallbackAutoregressive()
	n := float64(len(rows))
	for iter := 0; iter < arIterations; iter++ {
		var grad [arOrder]float64
		for _, r := range rows {
			err := fit.dot(r.x) - r.y
			for j := range grad {
				grad[j] += err * r.x[j]
			}
		}
		for j := range fit.Coefficients {
			fit.Coefficients[j] -= arLearningRate * grad[j] / n
		}
	}

	if !finite(fit.Coefficients[0], fit.Coefficients[1], fit.Coefficients[2]) {
		return fallbackAutoregressive()
	}

	var relErr float64
	var counted int
	for _, r := range rows {
		if r.y == 0 {
			continue
		}
		relErr += math.Abs(fit.dot(r.x)-r.y) / r.y
		counted++
	}
	if counted > 0 {
		fit.Accuracy = clamp01(1 - relErr/float64(counted))
	}

	return fit
}

func (f AutoregressiveFit) dot(x [3]float64) float64 {
	return f.Coefficients[0]*x[0] + f.Coefficients[1]*x[1] + f.Coefficients[2]*x[2]
}

// PredictNext applies the coefficients to the three most recent prices.
func (f AutoregressiveFit) PredictNext(prices []float64) float64 {
	n := len(prices)
	if n == 0 {
		return 0
	}
	if n < arOrder {
		return prices[n-1]
	}
	return f.dot([3]float64{prices[n-1], prices[n-2], prices[n-3]})
}

func (f AutoregressiveFit) Name() string { return "autoregressive" }

func (f AutoregressiveFit) Parameters() []float64 {
	return []float64{f.Coefficients[0], f.Coefficients[1], f.Coefficients[2]}
}

func (f AutoregressiveFit) Quality() float64 { return f.Accuracy }

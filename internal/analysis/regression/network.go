package regression

import "math"

const (
	networkLearningRate = 0.01
	networkEpochs       = 100
	// networkTargetError bounds the epoch's summed squared error, measured
	// on standardized targets (price minus Center, over Scale), not raw prices.
	networkTargetError = 0.01
	networkMinPrices   = 5
	networkMinRows     = 5
	// networkTolerance is the relative error under which a row counts as accurate.
	networkTolerance = 0.05
)

// NetworkFit is a single-layer regressor over
// [price(t-1), price(t-2), relative change(t-1, t-2)] -> price(t).
//
// Prices are standardized with Center and Scale before training and
// predictions are mapped back to price space. The relative change feature
// is dimensionless and left as is.
type NetworkFit struct {
	Weights  [3]float64 `json:"weights"`
	Bias     float64    `json:"bias"`
	Accuracy float64    `json:"accuracy"`
	Center   float64    `json:"center"`
	Scale    float64    `json:"scale"`
}

// fallbackNetwork is the low-confidence model used when there is too little
// data. It operates directly on raw prices.
func fallbackNetwork() NetworkFit {
	return NetworkFit{Weights: [3]float64{0.1, 0.1, 0.1}, Bias: 0, Accuracy: 0, Center: 0, Scale: 1}
}

type sample struct {
	x [3]float64
	y float64
}

type networkRow struct {
	sample
	price float64
}

// FitNetwork trains the regressor with full-batch gradient descent.
// Initial weights and bias are drawn uniformly from [-0.5, 0.5] using src.
func FitNetwork(prices []float64, src Source) NetworkFit {
	if len(prices) < networkMinPrices {
		return fallbackNetwork()
	}

	fit := NetworkFit{Center: meanOf(prices), Scale: spreadOf(prices)}

	var rows []networkRow
	for t := 2; t < len(prices); t++ {
		rows = append(rows, networkRow{
			sample: sample{
				x: fit.features(prices[t-1], prices[t-2]),
				y: (prices[t] - fit.Center) / fit.Scale,
			},
			price: prices[t],
		})
	}
	if len(rows) < networkMinRows {
		return fallbackNetwork()
	}

	for i := range fit.Weights {
		fit.Weights[i] = Uniform(src, -0.5, 0.5)
	}
	fit.Bias = Uniform(src, -0.5, 0.5)

	n := float64(len(rows))
	for epoch := 0; epoch < networkEpochs; epoch++ {
		var gradW [3]float64
		var gradB, sse float64

		for _, r := range rows {
			err := fit.forward(r.x) - r.y
			sse += err * err
			for j := range gradW {
				gradW[j] += err * r.x[j]
			}
			gradB += err
		}

		if sse < networkTargetError {
			break
		}

		for j := range fit.Weights {
			fit.Weights[j] -= networkLearningRate * 2 * gradW[j] / n
		}
		fit.Bias -= networkLearningRate * 2 * gradB / n
	}

	if !finite(fit.Weights[0], fit.Weights[1], fit.Weights[2], fit.Bias) {
		return fallbackNetwork()
	}

	var accurate int
	for _, r := range rows {
		if r.price == 0 {
			continue
		}
		predicted := fit.Center + fit.Scale*fit.forward(r.x)
		if math.Abs(predicted-r.price)/math.Abs(r.price) < networkTolerance {
			accurate++
		}
	}
	fit.Accuracy = float64(accurate) / n

	return fit
}

func (f NetworkFit) features(prev, prevPrev float64) [3]float64 {
	scale := f.Scale
	if scale == 0 {
		scale = 1
	}
	var change float64
	if prevPrev != 0 {
		change = (prev - prevPrev) / prevPrev
	}
	return [3]float64{(prev - f.Center) / scale, (prevPrev - f.Center) / scale, change}
}

func (f NetworkFit) forward(x [3]float64) float64 {
	return f.Weights[0]*x[0] + f.Weights[1]*x[1] + f.Weights[2]*x[2] + f.Bias
}

// PredictNext runs the forward pass on the latest feature vector of prices.
func (f NetworkFit) PredictNext(prices []float64) float64 {
	n := len(prices)
	switch n {
	case 0:
		return 0
	case 1:
		return prices[0]
	}
	scale := f.Scale
	if scale == 0 {
		scale = 1
	}
	return f.Center + scale*f.forward(f.features(prices[n-1], prices[n-2]))
}

func (f NetworkFit) Name() string { return "network" }

func (f NetworkFit) Parameters() []float64 {
	return []float64{f.Weights[0], f.Weights[1], f.Weights[2], f.Bias}
}

func (f NetworkFit) Quality() float64 { return f.Accuracy }

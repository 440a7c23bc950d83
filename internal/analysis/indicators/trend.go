package indicators

// MACD periods.
const (
	macdFastPeriod = 12
	macdSlowPeriod = 26
	// macdSignalRatio approximates the signal line from the latest MACD value.
	macdSignalRatio = 0.9
)

// MACD holds Moving Average Convergence Divergence values.
type MACD struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// EMA calculates an exponential moving average seeded with the first price.
// Smoothing stops after min(len(prices), 2*period) points.
func EMA(prices []float64, period int) float64 {
	if len(prices) == 0 {
		return 0
	}
	if period <= 0 {
		return prices[0]
	}

	multiplier := 2.0 / float64(period+1)
	ema := prices[0]

	limit := min(len(prices), period*2)
	for i := 1; i < limit; i++ {
		ema = prices[i]*multiplier + ema*(1-multiplier)
	}

	return ema
}

// CalculateMACD calculates MACD from at least 26 prices.
// The signal line is a fixed fraction of the MACD value rather than a
// 9-period EMA of MACD history.
func CalculateMACD(prices []float64) MACD {
	if len(prices) < macdSlowPeriod {
		return MACD{}
	}

	macd := EMA(prices, macdFastPeriod) - EMA(prices, macdSlowPeriod)
	signal := macd * macdSignalRatio

	return MACD{
		MACD:      macd,
		Signal:    signal,
		Histogram: macd - signal,
	}
}

// Trend returns the relative price change over the last lookback points.
// It returns 0 when the series is too short or the base price is zero.
func Trend(prices []float64, lookback int) float64 {
	n := len(prices)
	if lookback <= 0 || n < lookback {
		return 0
	}
	base := prices[n-lookback]
	if base == 0 {
		return 0
	}
	return (prices[n-1] - base) / base
}

package indicators

// DefaultRSIPeriod is the lookback used by the forecaster.
const DefaultRSIPeriod = 14

// neutralRSI is returned when there is not enough history.
const neutralRSI = 50

// RSI calculates the Relative Strength Index over the last period transitions.
// Series shorter than period+1 yield a neutral 50.
func RSI(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period+1 {
		return neutralRSI
	}

	n := len(prices)
	var gains, losses float64
	for i := 1; i <= period; i++ {
		change := prices[n-i] - prices[n-i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

package indicators

// DefaultBollingerPeriod is the SMA window for Bollinger Bands.
const DefaultBollingerPeriod = 20

// bollingerWidth is the number of standard deviations between middle and outer bands.
const bollingerWidth = 2.0

// BollingerBands holds the three band values.
type BollingerBands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// CalculateBollinger calculates Bollinger Bands over the last period prices.
// Series shorter than period yield zero bands.
func CalculateBollinger(prices []float64, period int) BollingerBands {
	if period <= 0 || len(prices) < period {
		return BollingerBands{}
	}

	window := lastN(prices, period)
	sma := mean(window)
	sd := stdDev(window)

	return BollingerBands{
		Upper:  sma + bollingerWidth*sd,
		Middle: sma,
		Lower:  sma - bollingerWidth*sd,
	}
}

// Position returns where price sits within the bands, 0 at the lower band
// and 1 at the upper band. ok is false when the bands have no width.
func (b BollingerBands) Position(price float64) (pos float64, ok bool) {
	width := b.Upper - b.Lower
	if width == 0 {
		return 0, false
	}
	return (price - b.Lower) / width, true
}

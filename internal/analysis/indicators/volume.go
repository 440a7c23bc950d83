package indicators

import "stock-forecaster/internal/models"

const (
	volumeWindow    = 5
	volumeHighRatio = 1.2
	volumeLowRatio  = 0.8
	volumeStep      = 0.1
)

// VolumeSignal compares the latest volume with the mean of the last five.
// It returns 0.1 on a volume spike, -0.1 on a volume drought and 0 otherwise.
func VolumeSignal(points []models.PricePoint) float64 {
	if len(points) < volumeWindow {
		return 0
	}

	recent := lastN(volumes(points), volumeWindow)
	avg := mean(recent)
	latest := recent[len(recent)-1]

	switch {
	case latest > avg*volumeHighRatio:
		return volumeStep
	case latest < avg*volumeLowRatio:
		return -volumeStep
	default:
		return 0
	}
}

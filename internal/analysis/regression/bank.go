package regression

import "github.com/sourcegraph/conc"

// Bank holds the three models fitted on one price series.
type Bank struct {
	Linear         LinearFit         `json:"linear"`
	Network        NetworkFit        `json:"network"`
	Autoregressive AutoregressiveFit `json:"autoregressive"`
}

// FitBank fits all models concurrently and waits for every fit to finish.
// The fits share no mutable state; src is only used by the network.
func FitBank(prices []float64, src Source) Bank {
	var bank Bank
	var wg conc.WaitGroup

	wg.Go(func() { bank.Linear = FitLinear(prices) })
	wg.Go(func() { bank.Network = FitNetwork(prices, src) })
	wg.Go(func() { bank.Autoregressive = FitAutoregressive(prices) })
	wg.Wait()

	return bank
}

// Fits returns the bank's models in a fixed order.
func (b Bank) Fits() []ModelFit {
	return []ModelFit{b.Linear, b.Network, b.Autoregressive}
}

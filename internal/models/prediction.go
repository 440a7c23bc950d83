package models

// Prediction represents the forecast for a single day ahead.
type Prediction struct {
	DayOffset           int     `json:"day"`
	Price               float64 `json:"price"`
	Confidence          float64 `json:"confidence"`
	ContributingFactors Factors `json:"factors"`
}

// Factors holds the signals that contributed to a prediction.
type Factors struct {
	Technical      float64 `json:"technical"`
	Sentiment      float64 `json:"sentiment"`
	Trend          float64 `json:"trend"`
	ML             float64 `json:"ml"`
	Volume         float64 `json:"volume"`
	RSI            float64 `json:"rsi"`
	MACD           float64 `json:"macd"`
	SentimentScore float64 `json:"sentimentScore"`
}

// PredictionSet is the full output of a forecast run.
type PredictionSet struct {
	Predictions []Prediction `json:"predictions"`
	Metadata    Metadata     `json:"metadata"`
}

// Metadata describes the inputs a forecast was built from.
type Metadata struct {
	Symbol         string      `json:"symbol,omitempty"`
	SentimentScore float64     `json:"sentimentScore"`
	CurrentPrice   float64     `json:"currentPrice"`
	Method         string      `json:"method"`
	DataQuality    DataQuality `json:"dataQuality"`
	// Models is set by the ensemble method only.
	Models []ModelSummary `json:"models,omitempty"`
}

// ModelSummary reports one fitted regression model.
type ModelSummary struct {
	Name       string    `json:"name"`
	Parameters []float64 `json:"parameters"`
	Quality    float64   `json:"quality"`
}

// DataQuality reports how much of the input came from live sources.
type DataQuality struct {
	HasRealStock      bool `json:"hasRealStock"`
	HasRealHistorical bool `json:"hasRealHistorical"`
	HasRealNews       bool `json:"hasRealNews"`
	HistoricalPoints  int  `json:"historicalPoints"`
	NewsArticles      int  `json:"newsArticles"`
}

// AverageConfidence returns the mean confidence across all predictions.
func (s PredictionSet) AverageConfidence() float64 {
	if len(s.Predictions) == 0 {
		return 0
	}
	var total float64
	for _, p := range s.Predictions {
		total += p.Confidence
	}
	return total / float64(len(s.Predictions))
}

package models

import "time"

// Trend values accepted in a forecast summary.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// ForecastSummary holds the headline figures of a forecast.
type ForecastSummary struct {
	TotalPredictedDemand float64 `json:"total_predicted_demand"`
	AverageDailyDemand   float64 `json:"average_daily_demand"`
	ConfidenceLevel      float64 `json:"confidence_level"`
	Trend                string  `json:"trend"`
	SeasonalityDetected  bool    `json:"seasonality_detected"`
}

// ConfidenceInterval bounds a daily prediction.
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// DailyForecast represents the predicted demand for a single day.
type DailyForecast struct {
	Date               string             `json:"date"`
	PredictedDemand    float64            `json:"predicted_demand"`
	ConfidenceInterval ConfidenceInterval `json:"confidence_interval"`
}

// Recommendations are the inventory actions derived from a forecast.
type Recommendations struct {
	ReorderPoint             float64 `json:"reorder_point"`
	SafetyStock              float64 `json:"safety_stock"`
	RecommendedOrderQuantity float64 `json:"recommended_order_quantity"`
	Justification            string  `json:"justification"`
}

// ModelInsights contains the qualitative findings of the model.
type ModelInsights struct {
	KeyPatterns      []string `json:"key_patterns"`
	RiskFactors      []string `json:"risk_factors"`
	AccuracyEstimate float64  `json:"accuracy_estimate"`
}

// ForecastResult is the structured payload returned by the forecasting service.
type ForecastResult struct {
	ForecastSummary ForecastSummary `json:"forecast_summary"`
	DailyForecasts  []DailyForecast `json:"daily_forecasts"`
	Recommendations Recommendations `json:"recommendations"`
	ModelInsights   ModelInsights   `json:"model_insights"`
}

// ForecastRecord is one persisted forecast version. GeneratedAt is the
// version key; records are never updated once written.
type ForecastRecord struct {
	ProductID      string         `json:"product_id"`
	GeneratedAt    time.Time      `json:"generated_at"`
	ForecastDays   int            `json:"forecast_days"`
	DataPointsUsed int            `json:"data_points_used"`
	Forecast       ForecastResult `json:"forecast_data"`
	SchemaVersion  int            `json:"schema_version"`
}

// Metadata returns the provenance block reported alongside a new forecast.
func (r ForecastRecord) Metadata() ForecastMetadata {
	return ForecastMetadata{
		ProductID:      r.ProductID,
		GeneratedAt:    r.GeneratedAt,
		ForecastDays:   r.ForecastDays,
		DataPointsUsed: r.DataPointsUsed,
	}
}

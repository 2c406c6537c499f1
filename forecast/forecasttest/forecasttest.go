// Package forecasttest provides canned model responses for tests.
package forecasttest

import (
	"encoding/json"
	"time"

	"github.com/lonshanworld/inventory-forecasting/models"
)

// Result returns a well-formed forecast of days entries starting at start.
func Result(start time.Time, days int) models.ForecastResult {
	daily := make([]models.DailyForecast, days)
	for i := range daily {
		demand := float64(10 + i%3)
		daily[i] = models.DailyForecast{
			Date:               start.AddDate(0, 0, i).Format(models.DateLayout),
			PredictedDemand:    demand,
			ConfidenceInterval: models.ConfidenceInterval{Lower: demand - 2, Upper: demand + 2},
		}
	}
	return models.ForecastResult{
		ForecastSummary: models.ForecastSummary{
			TotalPredictedDemand: float64(11 * days),
			AverageDailyDemand:   11,
			ConfidenceLevel:      80,
			Trend:                models.TrendStable,
			SeasonalityDetected:  false,
		},
		DailyForecasts: daily,
		Recommendations: models.Recommendations{
			ReorderPoint:             40,
			SafetyStock:              12,
			RecommendedOrderQuantity: 90,
			Justification:            "Demand is flat with a weekly cycle.",
		},
		ModelInsights: models.ModelInsights{
			KeyPatterns:      []string{"weekly cycle"},
			RiskFactors:      []string{"short history"},
			AccuracyEstimate: 72,
		},
	}
}

// JSON returns Result encoded as a JSON object.
func JSON(start time.Time, days int) string {
	b, err := json.MarshalIndent(Result(start, days), "", "  ")
	if err != nil {
		panic(err)
	}
	return string(b)
}

// Fenced wraps JSON in prose and a ```json block, as chat models tend to.
func Fenced(start time.Time, days int) string {
	return "Here is the forecast:\n```json\n" + JSON(start, days) + "\n```\nLet me know if you need more detail."
}

// Day parses a YYYY-MM-DD date and panics on failure.
func Day(s string) time.Time {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

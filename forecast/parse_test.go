package forecast

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lonshanworld/inventory-forecasting/apperrors"
	"github.com/lonshanworld/inventory-forecasting/forecast/forecasttest"
	"github.com/lonshanworld/inventory-forecasting/models"
)

var start = forecasttest.Day("2024-01-08")

func TestParse_FencedBlock(t *testing.T) {
	got, err := Parse(forecasttest.Fenced(start, 7), Expectation{HorizonDays: 7, StartDate: start})
	require.NoError(t, err)
	assert.Equal(t, forecasttest.Result(start, 7), got)
}

func TestParse_BareObjectInProse(t *testing.T) {
	raw := "Sure! " + forecasttest.JSON(start, 7) + " Hope this helps {not json}."
	got, err := Parse(raw, Expectation{HorizonDays: 7})
	require.NoError(t, err)
	assert.Len(t, got.DailyForecasts, 7)
}

func TestExtractPayload(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"fence wins over earlier brace", "note {x}\n```json\n{\"a\":1}\n```", `{"a":1}`},
		{"first balanced span", `lead {"a":{"b":"}"}} tail {"c":2}`, `{"a":{"b":"}"}}`},
		{"escaped quote in string", `{"a":"x\"}"}`, `{"a":"x\"}"}`},
		{"untagged fence falls back to braces", "```\n{\"a\":1}\n```", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractPayload(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractPayload_NoPayload(t *testing.T) {
	for _, raw := range []string{"", "I cannot help with that.", `{"unterminated": true`} {
		_, err := ExtractPayload(raw)
		assert.ErrorIs(t, err, ErrNoPayload)
		assert.Equal(t, apperrors.KindResponseFormat, apperrors.KindOf(err))
	}
}

func mutated(t *testing.T, days int, mutate func(*models.ForecastResult)) string {
	t.Helper()
	r := forecasttest.Result(start, days)
	mutate(&r)
	b, err := json.Marshal(r)
	require.NoError(t, err)
	return string(b)
}

func TestParse_RejectsInconsistentValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.ForecastResult)
		field  string
	}{
		{"short horizon", func(r *models.ForecastResult) { r.DailyForecasts = r.DailyForecasts[:6] }, "daily_forecasts"},
		{"demand above upper", func(r *models.ForecastResult) { r.DailyForecasts[2].PredictedDemand = 99 }, "daily_forecasts[2].confidence_interval"},
		{"lower above demand", func(r *models.ForecastResult) { r.DailyForecasts[0].ConfidenceInterval.Lower = 50 }, "daily_forecasts[0].confidence_interval"},
		{"negative demand", func(r *models.ForecastResult) {
			r.DailyForecasts[1].PredictedDemand = -1
			r.DailyForecasts[1].ConfidenceInterval.Lower = -2
		}, "daily_forecasts[1].predicted_demand"},
		{"gap in dates", func(r *models.ForecastResult) { r.DailyForecasts[3].Date = "2024-01-20" }, "daily_forecasts[3].date"},
		{"confidence above 100", func(r *models.ForecastResult) { r.ForecastSummary.ConfidenceLevel = 101 }, "forecast_summary.confidence_level"},
		{"accuracy below 0", func(r *models.ForecastResult) { r.ModelInsights.AccuracyEstimate = -5 }, "model_insights.accuracy_estimate"},
		{"unknown trend", func(r *models.ForecastResult) { r.ForecastSummary.Trend = "sideways" }, "forecast_summary.trend"},
		{"negative safety stock", func(r *models.ForecastResult) { r.Recommendations.SafetyStock = -1 }, "recommendations.safety_stock"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(mutated(t, 7, tt.mutate), Expectation{HorizonDays: 7, StartDate: start})
			var formatErr *apperrors.ResponseFormatError
			require.ErrorAs(t, err, &formatErr)
			assert.Equal(t, tt.field, formatErr.Field)
		})
	}
}

func TestParse_MissingFields(t *testing.T) {
	payload := forecasttest.JSON(start, 7)

	noSummaryTrend := strings.Replace(payload, `"trend": "stable",`, "", 1)
	_, err := Parse(noSummaryTrend, Expectation{HorizonDays: 7})
	var formatErr *apperrors.ResponseFormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, "forecast_summary.trend", formatErr.Field)

	noUpper := strings.Replace(payload, `"upper": 12`, `"upperBound": 12`, 1)
	_, err = Parse(noUpper, Expectation{HorizonDays: 7})
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, "daily_forecasts[0].confidence_interval.upper", formatErr.Field)
}

func TestParse_NullFields(t *testing.T) {
	payload := forecasttest.JSON(start, 7)
	tests := []struct {
		name  string
		old   string
		new   string
		field string
	}{
		{"confidence level", `"confidence_level": 80`, `"confidence_level": null`, "forecast_summary.confidence_level"},
		{"seasonality", `"seasonality_detected": false`, `"seasonality_detected": null`, "forecast_summary.seasonality_detected"},
		{"reorder point", `"reorder_point": 40`, `"reorder_point": null`, "recommendations.reorder_point"},
		{"justification", `"justification": "Demand is flat with a weekly cycle."`, `"justification": null`, "recommendations.justification"},
		{"key patterns", `"key_patterns": [
      "weekly cycle"
    ]`, `"key_patterns": null`, "model_insights.key_patterns"},
		{"risk factor element", `"short history"`, `null`, "model_insights.risk_factors"},
		{"daily forecasts", `"daily_forecasts": [`, `"daily_forecasts": null, "unused": [`, "daily_forecasts"},
		{"daily date", `"date": "2024-01-08"`, `"date": null`, "daily_forecasts[0].date"},
		{"daily lower bound", `"lower": 8`, `"lower": null`, "daily_forecasts[0].confidence_interval.lower"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := strings.Replace(payload, tt.old, tt.new, 1)
			require.NotEqual(t, payload, raw)

			_, err := Parse(raw, Expectation{HorizonDays: 7, StartDate: start})
			var formatErr *apperrors.ResponseFormatError
			require.ErrorAs(t, err, &formatErr)
			assert.Equal(t, tt.field, formatErr.Field)
		})
	}
}

func TestParse_WrongTypes(t *testing.T) {
	payload := strings.Replace(forecasttest.JSON(start, 7), `"confidence_level": 80`, `"confidence_level": "high"`, 1)
	_, err := Parse(payload, Expectation{HorizonDays: 7})
	var formatErr *apperrors.ResponseFormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, "forecast_summary.confidence_level", formatErr.Field)

	_, err = Parse(`{"forecast_summary": }`, Expectation{HorizonDays: 7})
	assert.Equal(t, apperrors.KindResponseFormat, apperrors.KindOf(err))

	_, err = Parse("```json\n[1, 2]\n```", Expectation{HorizonDays: 7})
	assert.Equal(t, apperrors.KindResponseFormat, apperrors.KindOf(err))
}

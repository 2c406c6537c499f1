package forecast

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/lonshanworld/inventory-forecasting/apperrors"
	"github.com/lonshanworld/inventory-forecasting/models"
)

// jsonFencePattern matches a ```json fenced block and captures its body.
var jsonFencePattern = regexp.MustCompile("(?s)```(?:json|JSON)[ \\t]*\\r?\\n(.*?)```")

// ErrNoPayload is the cause reported when a response holds no JSON object.
var ErrNoPayload = errors.New("no structured payload found")

// Expectation is what a response must match for the request it answers.
type Expectation struct {
	HorizonDays int
	// StartDate is the required date of the first daily forecast. The zero
	// value skips the date checks.
	StartDate time.Time
}

// jsonKind is the JSON type a required field must carry. null never matches.
type jsonKind int

const (
	kindNumber jsonKind = iota
	kindString
	kindBool
	kindArray
	kindStringArray
)

func (k jsonKind) String() string {
	switch k {
	case kindNumber:
		return "number"
	case kindString:
		return "string"
	case kindBool:
		return "boolean"
	case kindArray:
		return "array"
	default:
		return "array of strings"
	}
}

type requiredField struct {
	path string
	kind jsonKind
}

var requiredFields = []requiredField{
	{"forecast_summary.total_predicted_demand", kindNumber},
	{"forecast_summary.average_daily_demand", kindNumber},
	{"forecast_summary.confidence_level", kindNumber},
	{"forecast_summary.trend", kindString},
	{"forecast_summary.seasonality_detected", kindBool},
	{"daily_forecasts", kindArray},
	{"recommendations.reorder_point", kindNumber},
	{"recommendations.safety_stock", kindNumber},
	{"recommendations.recommended_order_quantity", kindNumber},
	{"recommendations.justification", kindString},
	{"model_insights.key_patterns", kindStringArray},
	{"model_insights.risk_factors", kindStringArray},
	{"model_insights.accuracy_estimate", kindNumber},
}

var requiredDailyFields = []requiredField{
	{"date", kindString},
	{"predicted_demand", kindNumber},
	{"confidence_interval.lower", kindNumber},
	{"confidence_interval.upper", kindNumber},
}

// checkField reports why v cannot fill a field of kind k, or nil.
func checkField(v gjson.Result, k jsonKind) error {
	if !v.Exists() {
		return errors.New("missing")
	}
	var ok bool
	switch k {
	case kindNumber:
		ok = v.Type == gjson.Number
	case kindString:
		ok = v.Type == gjson.String
	case kindBool:
		ok = v.Type == gjson.True || v.Type == gjson.False
	case kindArray:
		ok = v.IsArray()
	case kindStringArray:
		ok = v.IsArray()
		for _, e := range v.Array() {
			ok = ok && e.Type == gjson.String
		}
	}
	if !ok {
		return fmt.Errorf("want %s, got %s", k, v.Raw)
	}
	return nil
}

// ExtractPayload narrows a free-form response to its JSON object: the body
// of the first ```json block if there is one, else the first balanced
// top-level {...} span.
func ExtractPayload(raw string) (string, error) {
	if m := jsonFencePattern.FindStringSubmatch(raw); m != nil {
		if body := strings.TrimSpace(m[1]); body != "" {
			return body, nil
		}
	}
	if span := firstObject(raw); span != "" {
		return span, nil
	}
	return "", apperrors.NewResponseFormatError("", ErrNoPayload)
}

// firstObject returns the first brace-balanced span, ignoring braces inside
// JSON strings. An unterminated object yields "".
func firstObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth, inString, escaped := 0, false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString:
			if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// Parse extracts and validates a ForecastResult from a model response.
// Any failure is a ResponseFormatError; nothing is partially accepted.
func Parse(raw string, want Expectation) (models.ForecastResult, error) {
	payload, err := ExtractPayload(raw)
	if err != nil {
		return models.ForecastResult{}, err
	}
	if !gjson.Valid(payload) {
		return models.ForecastResult{}, apperrors.NewResponseFormatError("", errors.New("payload is not valid JSON"))
	}

	doc := gjson.Parse(payload)
	if !doc.IsObject() {
		return models.ForecastResult{}, apperrors.NewResponseFormatError("", errors.New("payload is not a JSON object"))
	}
	for _, f := range requiredFields {
		if err := checkField(doc.Get(f.path), f.kind); err != nil {
			return models.ForecastResult{}, apperrors.NewResponseFormatError(f.path, err)
		}
	}
	for i, day := range doc.Get("daily_forecasts").Array() {
		for _, f := range requiredDailyFields {
			if err := checkField(day.Get(f.path), f.kind); err != nil {
				return models.ForecastResult{}, apperrors.NewResponseFormatError(
					fmt.Sprintf("daily_forecasts[%d].%s", i, f.path), err)
			}
		}
	}

	var result models.ForecastResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return models.ForecastResult{}, apperrors.NewResponseFormatError("", err)
	}
	if err := Validate(result, want); err != nil {
		return models.ForecastResult{}, err
	}
	return result, nil
}

// Validate re-checks the structural invariants of a parsed result.
func Validate(r models.ForecastResult, want Expectation) error {
	s := r.ForecastSummary
	if err := percentage("forecast_summary.confidence_level", s.ConfidenceLevel); err != nil {
		return err
	}
	switch s.Trend {
	case models.TrendIncreasing, models.TrendDecreasing, models.TrendStable:
	default:
		return apperrors.NewResponseFormatError("forecast_summary.trend", fmt.Errorf("unknown trend %q", s.Trend))
	}
	if err := percentage("model_insights.accuracy_estimate", r.ModelInsights.AccuracyEstimate); err != nil {
		return err
	}

	rec := r.Recommendations
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"recommendations.reorder_point", rec.ReorderPoint},
		{"recommendations.safety_stock", rec.SafetyStock},
		{"recommendations.recommended_order_quantity", rec.RecommendedOrderQuantity},
	} {
		if f.value < 0 {
			return apperrors.NewResponseFormatError(f.name, fmt.Errorf("%v is negative", f.value))
		}
	}

	if len(r.DailyForecasts) != want.HorizonDays {
		return apperrors.NewResponseFormatError("daily_forecasts",
			fmt.Errorf("got %d entries, want %d", len(r.DailyForecasts), want.HorizonDays))
	}
	for i, d := range r.DailyForecasts {
		if d.PredictedDemand < 0 {
			return apperrors.NewResponseFormatError(fmt.Sprintf("daily_forecasts[%d].predicted_demand", i),
				fmt.Errorf("%v is negative", d.PredictedDemand))
		}
		ci := d.ConfidenceInterval
		if ci.Lower > d.PredictedDemand || d.PredictedDemand > ci.Upper {
			return apperrors.NewResponseFormatError(fmt.Sprintf("daily_forecasts[%d].confidence_interval", i),
				fmt.Errorf("predicted demand %v outside [%v, %v]", d.PredictedDemand, ci.Lower, ci.Upper))
		}
		if want.StartDate.IsZero() {
			continue
		}
		expected := want.StartDate.AddDate(0, 0, i).Format(models.DateLayout)
		if d.Date != expected {
			return apperrors.NewResponseFormatError(fmt.Sprintf("daily_forecasts[%d].date", i),
				fmt.Errorf("got %q, want %q", d.Date, expected))
		}
	}
	return nil
}

func percentage(field string, v float64) error {
	if v < 0 || v > 100 {
		return apperrors.NewResponseFormatError(field, fmt.Errorf("%v outside [0, 100]", v))
	}
	return nil
}

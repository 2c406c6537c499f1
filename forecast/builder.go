// Package forecast builds forecasting prompts, validates model responses and
// persists the resulting forecast versions.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lonshanworld/inventory-forecasting/apperrors"
	"github.com/lonshanworld/inventory-forecasting/config"
	"github.com/lonshanworld/inventory-forecasting/database"
	"github.com/lonshanworld/inventory-forecasting/models"
)

const unknown = "Unknown"

// SalesSource reads a product's sales history.
type SalesSource interface {
	SalesRecordsByProduct(ctx context.Context, productID string) ([]models.SalesRecord, error)
}

// ProductSource reads catalog metadata.
type ProductSource interface {
	GetProduct(ctx context.Context, productID string) (models.Product, error)
}

// Request is a fully rendered forecast request. It is built per call and
// never persisted.
type Request struct {
	ProductID   string
	HorizonDays int
	// Records are the rendered history, oldest first.
	Records []models.SalesRecord
	// TotalRecords counts the full history before any cap was applied.
	TotalRecords int
	// StartDate is the first forecast day, the day after the latest record.
	StartDate time.Time
	Prompt    string
}

// Builder assembles forecast requests from the sales ledger and catalog.
type Builder struct {
	sales      SalesSource
	products   ProductSource
	maxHistory int
}

// NewBuilder returns a builder that renders at most maxHistory of the most
// recent records into the prompt. Zero renders the full history.
func NewBuilder(sales SalesSource, products ProductSource, maxHistory int) *Builder {
	return &Builder{sales: sales, products: products, maxHistory: maxHistory}
}

// ValidateHorizon checks that days is an accepted forecast horizon.
func ValidateHorizon(days int) error {
	if days < config.MinForecastDays || days > config.MaxForecastDays {
		return &apperrors.ValidationError{
			Field:   "forecast_days",
			Message: fmt.Sprintf("must be between %d and %d", config.MinForecastDays, config.MaxForecastDays),
		}
	}
	return nil
}

// Build reads every sales record for productID and renders the prompt. It
// fails with InsufficientDataError when fewer than seven records exist.
func (b *Builder) Build(ctx context.Context, productID string, horizonDays int) (Request, error) {
	if strings.TrimSpace(productID) == "" {
		return Request{}, &apperrors.ValidationError{Field: "product_id", Message: "product_id is required"}
	}
	if err := ValidateHorizon(horizonDays); err != nil {
		return Request{}, err
	}

	records, err := b.sales.SalesRecordsByProduct(ctx, productID)
	if err != nil {
		return Request{}, apperrors.NewDependencyError("sales ledger", err)
	}
	if len(records) < apperrors.MinDataPoints {
		return Request{}, &apperrors.InsufficientDataError{ProductID: productID, CurrentDataPoints: len(records)}
	}

	sorted := append([]models.SalesRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	latest, err := sorted[len(sorted)-1].Day()
	if err != nil {
		return Request{}, fmt.Errorf("forecast: latest sales date %q: %w", sorted[len(sorted)-1].Date, err)
	}

	rendered := sorted
	if b.maxHistory > 0 && len(rendered) > b.maxHistory {
		rendered = rendered[len(rendered)-b.maxHistory:]
	}

	product, err := b.products.GetProduct(ctx, productID)
	var catalogued *models.Product
	switch {
	case errors.Is(err, database.ErrNotFound):
	case err != nil:
		return Request{}, apperrors.NewDependencyError("product catalog", err)
	default:
		catalogued = &product
	}

	req := Request{
		ProductID:    productID,
		HorizonDays:  horizonDays,
		Records:      rendered,
		TotalRecords: len(sorted),
		StartDate:    latest.AddDate(0, 0, 1),
	}
	req.Prompt = renderPrompt(catalogued, req)
	return req, nil
}

// renderPrompt writes the analytical brief. A nil product renders every
// catalog field as Unknown.
func renderPrompt(product *models.Product, req Request) string {
	name, category, price := unknown, unknown, unknown
	if product != nil {
		name, category = orUnknown(product.Name), orUnknown(product.Category)
		price = product.CurrentPrice.StringFixed(2)
	}

	var b strings.Builder

	b.WriteString("Analyze the following sales data and generate a demand forecast:\n\n")
	b.WriteString("Product Information:\n")
	fmt.Fprintf(&b, "- Product ID: %s\n", req.ProductID)
	fmt.Fprintf(&b, "- Product Name: %s\n", name)
	fmt.Fprintf(&b, "- Category: %s\n", category)
	fmt.Fprintf(&b, "- Current Price: $%s\n", price)

	fmt.Fprintf(&b, "\nHistorical Sales Data (%d data points):\n", len(req.Records))
	for _, r := range req.Records {
		fmt.Fprintf(&b, "Date: %s, Quantity Sold: %d, Revenue: $%s\n", r.Date, r.QuantitySold, r.Revenue.StringFixed(2))
	}

	end := req.StartDate.AddDate(0, 0, req.HorizonDays-1)
	fmt.Fprintf(&b, "\nPlease provide a %d-day demand forecast covering %s through %s, one entry per day, in the following JSON format:\n",
		req.HorizonDays, req.StartDate.Format(models.DateLayout), end.Format(models.DateLayout))
	b.WriteString(responseSchema)
	fmt.Fprintf(&b, "\nThe daily_forecasts array must contain exactly %d entries. ", req.HorizonDays)
	b.WriteString("Each confidence_interval must satisfy lower <= predicted_demand <= upper. ")
	b.WriteString("Base the forecast on historical trends, seasonal patterns, and statistical analysis. ")
	b.WriteString("Ensure all numbers are realistic and based on the provided data. ")
	b.WriteString("Respond with the JSON object only.")
	return b.String()
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return unknown
	}
	return s
}

const responseSchema = `{
  "forecast_summary": {
    "total_predicted_demand": number,
    "average_daily_demand": number,
    "confidence_level": number (0-100),
    "trend": "increasing|decreasing|stable",
    "seasonality_detected": boolean
  },
  "daily_forecasts": [
    {
      "date": "YYYY-MM-DD",
      "predicted_demand": number,
      "confidence_interval": {
        "lower": number,
        "upper": number
      }
    }
  ],
  "recommendations": {
    "reorder_point": number,
    "safety_stock": number,
    "recommended_order_quantity": number,
    "justification": "string explaining the recommendations"
  },
  "model_insights": {
    "key_patterns": ["pattern1", "pattern2"],
    "risk_factors": ["risk1", "risk2"],
    "accuracy_estimate": number (0-100)
  }
}
`

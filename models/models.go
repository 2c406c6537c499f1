package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers to match the UI client.
	decimal.MarshalJSONWithoutQuotes = true
}

// SchemaVersion is stamped on every persisted sales and forecast record.
const SchemaVersion = 1

// DateLayout is the calendar-day format used for sales and forecast dates.
const DateLayout = "2006-01-02"

// --- Core Models ---

// Product is catalog metadata for a sellable item.
type Product struct {
	ProductID    string          `json:"product_id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ProductUpdate carries a partial product update. Nil fields are left untouched.
type ProductUpdate struct {
	Name         *string          `json:"name,omitempty"`
	Category     *string          `json:"category,omitempty"`
	CurrentPrice *decimal.Decimal `json:"current_price,omitempty"`
}

// SalesRecord is one product's sales for one calendar day.
// At most one record exists per (ProductID, Date).
type SalesRecord struct {
	ProductID     string          `json:"product_id"`
	Date          string          `json:"date"`
	QuantitySold  int64           `json:"quantity_sold"`
	Price         decimal.Decimal `json:"price"`
	Revenue       decimal.Decimal `json:"revenue"`
	IngestedAt    time.Time       `json:"ingested_at"`
	SchemaVersion int             `json:"schema_version"`
}

// NewSalesRecord derives revenue from quantity and price.
func NewSalesRecord(productID, date string, quantity int64, price decimal.Decimal, ingestedAt time.Time) SalesRecord {
	return SalesRecord{
		ProductID:     productID,
		Date:          date,
		QuantitySold:  quantity,
		Price:         price,
		Revenue:       price.Mul(decimal.NewFromInt(quantity)),
		IngestedAt:    ingestedAt,
		SchemaVersion: SchemaVersion,
	}
}

// Day parses the record date as a UTC calendar day.
func (r SalesRecord) Day() (time.Time, error) {
	return time.Parse(DateLayout, r.Date)
}

// DateRange is the earliest and latest sales date, nil when no records exist.
type DateRange struct {
	Earliest *string `json:"earliest"`
	Latest   *string `json:"latest"`
}

// SalesSummary aggregates the whole sales ledger.
type SalesSummary struct {
	TotalRecords   int             `json:"totalRecords"`
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
	UniqueProducts int             `json:"uniqueProducts"`
	DateRange      DateRange       `json:"dateRange"`
}

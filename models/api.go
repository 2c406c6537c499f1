package models

import "time"

// UploadSalesRequest is the body of POST /sales-data/upload.
type UploadSalesRequest struct {
	CSVData  string `json:"csvData"`
	Filename string `json:"filename"`
}

// UploadSalesResponse reports the outcome of a CSV upload.
type UploadSalesResponse struct {
	Message      string   `json:"message"`
	Processed    int      `json:"processed"`
	Errors       int      `json:"errors"`
	ErrorDetails []string `json:"errorDetails"`
}

// SalesRecordRequest is the body of POST /sales-data. Numeric fields are kept
// as raw JSON so they go through the same validation as CSV cells.
type SalesRecordRequest struct {
	ProductID    string      `json:"product_id"`
	Date         string      `json:"date"`
	QuantitySold interface{} `json:"quantity_sold"`
	Price        interface{} `json:"price"`
}

// CreateProductRequest is the body of POST /products.
type CreateProductRequest struct {
	ProductID    string      `json:"product_id"`
	Name         string      `json:"name"`
	Category     string      `json:"category"`
	CurrentPrice interface{} `json:"current_price"`
}

// UpdateProductRequest is the body of PUT /products/{id}.
type UpdateProductRequest struct {
	Name         *string     `json:"name"`
	Category     *string     `json:"category"`
	CurrentPrice interface{} `json:"current_price"`
}

// GenerateForecastRequest is the body of POST /forecasts.
type GenerateForecastRequest struct {
	ProductID    string `json:"product_id"`
	ForecastDays *int   `json:"forecast_days"`
}

// ForecastMetadata describes how a forecast version was produced.
type ForecastMetadata struct {
	ProductID      string    `json:"product_id"`
	GeneratedAt    time.Time `json:"generated_at"`
	ForecastDays   int       `json:"forecast_days"`
	DataPointsUsed int       `json:"data_points_used"`
}

// GenerateForecastResponse is returned by POST /forecasts.
type GenerateForecastResponse struct {
	Message  string           `json:"message"`
	Forecast ForecastResult   `json:"forecast"`
	Metadata ForecastMetadata `json:"metadata"`
}

// PaginationInfo holds metadata for paginated responses.
type PaginationInfo struct {
	TotalItems  int `json:"totalItems"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
	PageSize    int `json:"pageSize"`
}

// ForecastHistoryResponse lists forecast versions, newest first.
type ForecastHistoryResponse struct {
	ProductID  string           `json:"product_id"`
	Forecasts  []ForecastRecord `json:"forecasts"`
	Pagination PaginationInfo   `json:"pagination"`
}

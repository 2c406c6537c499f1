// Package ingest turns bulk sales uploads into ledger records.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lonshanworld/inventory-forecasting/apperrors"
	"github.com/lonshanworld/inventory-forecasting/models"
)

// RequiredHeaders lists the columns every upload must carry.
var RequiredHeaders = []string{"product_id", "date", "quantity_sold", "price"}

// Row rejection reasons.
const (
	ReasonColumnCount   = "Column count mismatch"
	ReasonMissingData   = "Missing required data"
	ReasonInvalidNumber = "Invalid numeric values"
	ReasonInvalidDate   = "Invalid date format"
)

// RowError is one rejected data row. RowNumber counts non-blank lines with
// the header as row 1.
type RowError struct {
	RowNumber int
	Reason    string
}

func (e RowError) String() string {
	return fmt.Sprintf("Row %d: %s", e.RowNumber, e.Reason)
}

// Result is the outcome of parsing one upload.
type Result struct {
	Accepted []models.SalesRecord
	Rejected []RowError
}

// ErrorDetails renders every rejection as "Row N: reason".
func (r Result) ErrorDetails() []string {
	details := make([]string, 0, len(r.Rejected))
	for _, e := range r.Rejected {
		details = append(details, e.String())
	}
	return details
}

// Validator parses delimited sales text. The zero value is not usable; use
// NewValidator.
type Validator struct {
	delimiter rune
	now       func() time.Time
}

// Option configures a Validator.
type Option func(*Validator)

// WithDelimiter sets the field separator. The default is a comma.
func WithDelimiter(d rune) Option {
	return func(v *Validator) { v.delimiter = d }
}

// WithClock sets the source of ingested_at timestamps.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

// NewValidator returns a comma-separated validator stamping records with
// the current UTC time.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		delimiter: ',',
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Parse validates text and splits its rows into accepted records and
// rejections. It fails with a SchemaError, and processes no rows, when the
// text has no data rows or lacks a required header.
func (v *Validator) Parse(text string) (Result, error) {
	lines := nonBlankLines(text)
	if len(lines) < 2 {
		return Result{}, &apperrors.SchemaError{Message: "Invalid CSV format"}
	}

	header, err := v.split(strings.TrimPrefix(lines[0], byteOrderMark))
	if err != nil {
		return Result{}, &apperrors.SchemaError{Message: "Invalid CSV format"}
	}
	for i := range header {
		header[i] = strings.ToLower(header[i])
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	var missing []string
	for _, name := range RequiredHeaders {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return Result{}, &apperrors.SchemaError{
			Message:  "Missing required headers: " + strings.Join(missing, ", "),
			Expected: RequiredHeaders,
			Found:    header,
		}
	}

	result := Result{Accepted: make([]models.SalesRecord, 0, len(lines)-1)}
	ingestedAt := v.now()
	for i, line := range lines[1:] {
		rowNumber := i + 2

		values, err := v.split(line)
		if err != nil || len(values) != len(header) {
			result.Rejected = append(result.Rejected, RowError{rowNumber, ReasonColumnCount})
			continue
		}

		record, reason := NormalizeRow(
			values[index["product_id"]],
			values[index["date"]],
			values[index["quantity_sold"]],
			values[index["price"]],
			ingestedAt,
		)
		if reason != "" {
			result.Rejected = append(result.Rejected, RowError{rowNumber, reason})
			continue
		}
		result.Accepted = append(result.Accepted, record)
	}
	return result, nil
}

// NormalizeRow validates the four required fields of one sales row and
// builds the ledger record. A non-empty reason means the row is rejected.
func NormalizeRow(productID, date, quantity, price string, ingestedAt time.Time) (models.SalesRecord, string) {
	productID, date = strings.TrimSpace(productID), strings.TrimSpace(date)
	quantity, price = strings.TrimSpace(quantity), strings.TrimSpace(price)
	if productID == "" || date == "" || quantity == "" || price == "" {
		return models.SalesRecord{}, ReasonMissingData
	}

	qty, ok := parseQuantity(quantity)
	if !ok {
		return models.SalesRecord{}, ReasonInvalidNumber
	}
	unitPrice, ok := parsePrice(price)
	if !ok {
		return models.SalesRecord{}, ReasonInvalidNumber
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return models.SalesRecord{}, ReasonInvalidDate
	}

	return models.NewSalesRecord(productID, date, qty, unitPrice, ingestedAt), ""
}

// parseQuantity accepts non-negative whole numbers, including forms such
// as "10.0" that spreadsheet exports produce.
func parseQuantity(s string) (int64, bool) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, n >= 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() || !d.Equal(d.Truncate(0)) || !d.LessThan(decimal.NewFromInt(math.MaxInt64)) {
		return 0, false
	}
	return d.IntPart(), true
}

func parsePrice(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Decimal{}, false
	}
	return d, true
}

// byteOrderMark is written at the start of UTF-8 CSV exports by spreadsheet tools.
const byteOrderMark = "\ufeff"

func (v *Validator) split(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.Comma = v.delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	fields, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty line")
	}
	if err != nil {
		return nil, err
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields, nil
}

func nonBlankLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

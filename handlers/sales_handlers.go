package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lonshanworld/inventory-forecasting/apperrors"
	"github.com/lonshanworld/inventory-forecasting/models"
	"github.com/lonshanworld/inventory-forecasting/utils"
)

// HandleUploadSalesData ingests a CSV document sent as {csvData, filename}.
func (h *Handler) HandleUploadSalesData(c *fiber.Ctx) error {
	var input models.UploadSalesRequest
	if err := c.BodyParser(&input); err != nil {
		return badBody()
	}
	if input.CSVData == "" {
		return &apperrors.ValidationError{Field: "csvData", Message: "CSV data is required"}
	}

	result, err := h.ingest.Upload(c.UserContext(), input.Filename, input.CSVData)
	if err != nil {
		return err
	}

	return c.JSON(models.UploadSalesResponse{
		Message:      "Sales data uploaded successfully",
		Processed:    len(result.Accepted),
		Errors:       len(result.Rejected),
		ErrorDetails: result.ErrorDetails(),
	})
}

// HandleCreateSalesRecord validates and stores a single sales row.
func (h *Handler) HandleCreateSalesRecord(c *fiber.Ctx) error {
	var input models.SalesRecordRequest
	if err := c.BodyParser(&input); err != nil {
		return badBody()
	}

	record, err := h.ingest.Record(c.UserContext(),
		input.ProductID,
		input.Date,
		utils.ScalarToString(input.QuantitySold),
		utils.ScalarToString(input.Price),
	)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Sales record created successfully",
		"record":  record,
	})
}

// HandleGetSalesData returns one product's sales history when product_id is
// given, and the ledger summary otherwise.
func (h *Handler) HandleGetSalesData(c *fiber.Ctx) error {
	ctx := c.UserContext()

	if productID := c.Query("product_id"); productID != "" {
		records, err := h.store.SalesRecordsByProduct(ctx, productID)
		if err != nil {
			return apperrors.NewDependencyError("sales ledger", err)
		}
		return c.JSON(fiber.Map{"salesData": records})
	}

	summary, err := h.store.SalesSummary(ctx)
	if err != nil {
		return apperrors.NewDependencyError("sales ledger", err)
	}
	return c.JSON(fiber.Map{"summary": summary})
}

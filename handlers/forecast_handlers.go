package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lonshanworld/inventory-forecasting/apperrors"
	"github.com/lonshanworld/inventory-forecasting/models"
	"github.com/lonshanworld/inventory-forecasting/utils"
)

// HandleGenerateForecast generates and stores a new forecast version.
func (h *Handler) HandleGenerateForecast(c *fiber.Ctx) error {
	var input models.GenerateForecastRequest
	if err := c.BodyParser(&input); err != nil {
		return badBody()
	}
	if input.ProductID == "" {
		return &apperrors.ValidationError{Field: "product_id", Message: "product_id is required"}
	}

	days := h.defaultDays
	if input.ForecastDays != nil {
		days = *input.ForecastDays
	}

	record, err := h.forecasts.Generate(c.UserContext(), input.ProductID, days)
	if err != nil {
		return err
	}

	return c.JSON(models.GenerateForecastResponse{
		Message:  "Forecast generated successfully",
		Forecast: record.Forecast,
		Metadata: record.Metadata(),
	})
}

// HandleListForecasts returns the latest forecast of every product.
func (h *Handler) HandleListForecasts(c *fiber.Ctx) error {
	records, err := h.forecasts.LatestAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"forecasts": records})
}

// HandleGetForecast returns the latest forecast version for a product.
func (h *Handler) HandleGetForecast(c *fiber.Ctx) error {
	record, err := h.forecasts.Latest(c.UserContext(), c.Params("productId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"forecast": record})
}

// HandleGetForecastHistory pages through a product's forecast versions,
// newest first. Accepts page and limit query parameters.
func (h *Handler) HandleGetForecastHistory(c *fiber.Ctx) error {
	productID := c.Params("productId")
	page, limit := utils.NormalizePage(c.QueryInt("page", 1), c.QueryInt("limit", utils.DefaultPageSize))

	records, total, err := h.forecasts.History(c.UserContext(), productID, limit, utils.PageOffset(page, limit))
	if err != nil {
		return err
	}

	return c.JSON(models.ForecastHistoryResponse{
		ProductID:  productID,
		Forecasts:  records,
		Pagination: utils.CreatePagination(total, page, limit),
	})
}

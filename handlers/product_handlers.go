package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/lonshanworld/inventory-forecasting/apperrors"
	"github.com/lonshanworld/inventory-forecasting/database"
	"github.com/lonshanworld/inventory-forecasting/models"
	"github.com/lonshanworld/inventory-forecasting/utils"
)

func productNotFound(productID string) error {
	return &apperrors.NotFoundError{Resource: "product", ID: productID, Message: "Product not found"}
}

// parsePrice reads a JSON price given as a number or a numeric string.
func parsePrice(v interface{}) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(utils.ScalarToString(v))
	if err != nil || price.IsNegative() {
		return decimal.Decimal{}, &apperrors.ValidationError{
			Field:   "current_price",
			Message: "current_price must be a non-negative number",
		}
	}
	return price, nil
}

// HandleListProducts returns the whole catalog.
func (h *Handler) HandleListProducts(c *fiber.Ctx) error {
	products, err := h.store.ListProducts(c.UserContext())
	if err != nil {
		return apperrors.NewDependencyError("product catalog", err)
	}
	return c.JSON(fiber.Map{"products": products})
}

// HandleGetProduct returns one product.
func (h *Handler) HandleGetProduct(c *fiber.Ctx) error {
	productID := c.Params("id")
	product, err := h.store.GetProduct(c.UserContext(), productID)
	if errors.Is(err, database.ErrNotFound) {
		return productNotFound(productID)
	}
	if err != nil {
		return apperrors.NewDependencyError("product catalog", err)
	}
	return c.JSON(fiber.Map{"product": product})
}

// HandleCreateProduct adds a product to the catalog, replacing any product
// with the same id.
func (h *Handler) HandleCreateProduct(c *fiber.Ctx) error {
	var input models.CreateProductRequest
	if err := c.BodyParser(&input); err != nil {
		return badBody()
	}
	if input.ProductID == "" || input.Name == "" || input.Category == "" || input.CurrentPrice == nil {
		return &apperrors.ValidationError{Message: "Missing required fields: product_id, name, category, current_price"}
	}
	price, err := parsePrice(input.CurrentPrice)
	if err != nil {
		return err
	}

	now := h.now().UTC()
	product := models.Product{
		ProductID:    input.ProductID,
		Name:         input.Name,
		Category:     input.Category,
		CurrentPrice: price,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.store.PutProduct(c.UserContext(), product); err != nil {
		return apperrors.NewDependencyError("product catalog", err)
	}
	logProduct(c.UserContext(), "created product", product.ProductID)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Product created successfully",
		"product": product,
	})
}

// HandleUpdateProduct applies a partial update. Blank names and categories
// are ignored.
func (h *Handler) HandleUpdateProduct(c *fiber.Ctx) error {
	productID := c.Params("id")

	var input models.UpdateProductRequest
	if err := c.BodyParser(&input); err != nil {
		return badBody()
	}

	update := models.ProductUpdate{
		Name:     utils.TrimmedPtr(input.Name),
		Category: utils.TrimmedPtr(input.Category),
	}
	if input.CurrentPrice != nil {
		price, err := parsePrice(input.CurrentPrice)
		if err != nil {
			return err
		}
		update.CurrentPrice = &price
	}

	product, err := h.store.UpdateProduct(c.UserContext(), productID, update, h.now().UTC())
	if errors.Is(err, database.ErrNotFound) {
		return productNotFound(productID)
	}
	if err != nil {
		return apperrors.NewDependencyError("product catalog", err)
	}
	logProduct(c.UserContext(), "updated product", productID)

	return c.JSON(fiber.Map{
		"message": "Product updated successfully",
		"product": product,
	})
}

// HandleDeleteProduct removes a product. Deleting an unknown id succeeds.
func (h *Handler) HandleDeleteProduct(c *fiber.Ctx) error {
	productID := c.Params("id")
	if err := h.store.DeleteProduct(c.UserContext(), productID); err != nil {
		return apperrors.NewDependencyError("product catalog", err)
	}
	logProduct(c.UserContext(), "deleted product", productID)
	return c.JSON(fiber.Map{"message": "Product deleted successfully"})
}

func logProduct(ctx context.Context, msg, productID string) {
	zerolog.Ctx(ctx).Info().Str("product_id", productID).Msg(msg)
}

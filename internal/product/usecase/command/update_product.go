package command

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tair/wholesale-backoffice/internal/product/domain"
)

// UpdateProductCommand updates catalog attributes. Stock is deliberately
// absent: only the stock ledger mutates it.
type UpdateProductCommand struct {
	ProductID    uint
	ProductName  string
	DefaultPrice decimal.Decimal
	BoxQuantity  int
}

// UpdateProductHandler handles product updates
type UpdateProductHandler struct {
	repo domain.ProductRepository
}

// NewUpdateProductHandler creates a new update product handler
func NewUpdateProductHandler(repo domain.ProductRepository) *UpdateProductHandler {
	return &UpdateProductHandler{repo: repo}
}

// Handle executes the update product command
func (h *UpdateProductHandler) Handle(ctx context.Context, cmd UpdateProductCommand) (*domain.Product, error) {
	if cmd.ProductID == 0 {
		return nil, fmt.Errorf("product_id is required")
	}

	product, err := h.repo.FindByID(ctx, cmd.ProductID)
	if err != nil {
		return nil, err
	}

	if cmd.ProductName != "" {
		product.ProductName = cmd.ProductName
	}
	if !cmd.DefaultPrice.IsZero() {
		if cmd.DefaultPrice.IsNegative() {
			return nil, fmt.Errorf("default_price cannot be negative")
		}
		product.DefaultPrice = cmd.DefaultPrice
	}
	if cmd.BoxQuantity > 0 {
		product.BoxQuantity = cmd.BoxQuantity
	}

	if err := h.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return product, nil
}

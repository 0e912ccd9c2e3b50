package command

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tair/wholesale-backoffice/internal/product/domain"
)

// CreateProductCommand represents the command to create a product
type CreateProductCommand struct {
	ProductName  string
	DefaultPrice decimal.Decimal
	Stock        int
	BoxQuantity  int
}

// CreateProductHandler handles product creation
type CreateProductHandler struct {
	repo domain.ProductRepository
}

// NewCreateProductHandler creates a new create product handler
func NewCreateProductHandler(repo domain.ProductRepository) *CreateProductHandler {
	return &CreateProductHandler{repo: repo}
}

// Handle executes the create product command
func (h *CreateProductHandler) Handle(ctx context.Context, cmd CreateProductCommand) (*domain.Product, error) {
	if cmd.ProductName == "" {
		return nil, fmt.Errorf("product_name is required")
	}

	if cmd.DefaultPrice.IsNegative() {
		return nil, fmt.Errorf("default_price cannot be negative")
	}

	if cmd.Stock < 0 {
		return nil, fmt.Errorf("stock cannot be negative")
	}

	boxQuantity := cmd.BoxQuantity
	if boxQuantity <= 0 {
		boxQuantity = 1
	}

	product := &domain.Product{
		ProductName:  cmd.ProductName,
		DefaultPrice: cmd.DefaultPrice,
		Stock:        cmd.Stock,
		BoxQuantity:  boxQuantity,
	}

	if err := h.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tair/wholesale-backoffice/internal/product/domain"
)

var tracer = otel.Tracer("product-repository")

// GormProductRepositoryWithTracing wraps GormProductRepository with tracing
// on the stock ledger path, where lock waits are the interesting signal.
type GormProductRepositoryWithTracing struct {
	*GormProductRepository
}

// NewGormProductRepositoryWithTracing creates a new repository with tracing
func NewGormProductRepositoryWithTracing(db *gorm.DB) *GormProductRepositoryWithTracing {
	return &GormProductRepositoryWithTracing{
		GormProductRepository: NewGormProductRepository(db),
	}
}

// WithTx keeps the tracing wrapper when binding to a transaction.
func (r *GormProductRepositoryWithTracing) WithTx(tx *gorm.DB) *GormProductRepositoryWithTracing {
	return &GormProductRepositoryWithTracing{
		GormProductRepository: r.GormProductRepository.WithTx(tx),
	}
}

// LockForUpdate with tracing
func (r *GormProductRepositoryWithTracing) LockForUpdate(ctx context.Context, productID uint) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "ledger.LockForUpdate",
		trace.WithAttributes(attribute.Int64("product.id", int64(productID))),
	)
	defer span.End()

	product, err := r.GormProductRepository.LockForUpdate(ctx, productID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("product.stock", product.Stock))
	return product, nil
}

// Decrement with tracing
func (r *GormProductRepositoryWithTracing) Decrement(ctx context.Context, productID uint, amount int) error {
	ctx, span := tracer.Start(ctx, "ledger.Decrement",
		trace.WithAttributes(
			attribute.Int64("product.id", int64(productID)),
			attribute.Int("stock.amount", amount),
		),
	)
	defer span.End()

	if err := r.GormProductRepository.Decrement(ctx, productID, amount); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// Increment with tracing
func (r *GormProductRepositoryWithTracing) Increment(ctx context.Context, productID uint, amount int) error {
	ctx, span := tracer.Start(ctx, "ledger.Increment",
		trace.WithAttributes(
			attribute.Int64("product.id", int64(productID)),
			attribute.Int("stock.amount", amount),
		),
	)
	defer span.End()

	if err := r.GormProductRepository.Increment(ctx, productID, amount); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// ApplyDelta with tracing
func (r *GormProductRepositoryWithTracing) ApplyDelta(ctx context.Context, productID uint, oldQty, newQty int) error {
	ctx, span := tracer.Start(ctx, "ledger.ApplyDelta",
		trace.WithAttributes(
			attribute.Int64("product.id", int64(productID)),
			attribute.Int("stock.old_qty", oldQty),
			attribute.Int("stock.new_qty", newQty),
		),
	)
	defer span.End()

	if err := r.GormProductRepository.ApplyDelta(ctx, productID, oldQty, newQty); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

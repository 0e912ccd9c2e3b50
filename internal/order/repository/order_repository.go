package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/wholesale-backoffice/internal/order/domain"
)

// pgUniqueViolation is the class 23 code raised when an insert collides
// with a unique index.
const pgUniqueViolation = "23505"

// GormOrderStorage is the partition-aware gorm implementation of
// domain.OrderStorage. Every query routes through the resolver so a
// historical order_date transparently hits its archival tables.
type GormOrderStorage struct {
	db       *gorm.DB
	resolver *PartitionResolver
}

func NewGormOrderStorage(db *gorm.DB, resolver *PartitionResolver) *GormOrderStorage {
	return &GormOrderStorage{db: db, resolver: resolver}
}

// AutoMigrate creates the live tables. Archival tables are owned by the
// yearly archival job and never migrated here.
func (r *GormOrderStorage) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Order{}, &domain.OrderItem{})
}

func (r *GormOrderStorage) FindByTriple(ctx context.Context, employeeID uint, orderDate time.Time, round int) (*domain.Order, error) {
	tables, err := r.resolver.ResolveDate(orderDate)
	if err != nil {
		return nil, err
	}

	var order domain.Order
	err = r.db.WithContext(ctx).
		Table(tables.Orders).
		Where("employee_id = ? AND order_date = ? AND shipment_round = ?",
			employeeID, dateOnly(orderDate), round).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderStorage) FindByID(ctx context.Context, id uint) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).
		Table(LiveTables.Orders).
		First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderStorage) Create(ctx context.Context, order *domain.Order) error {
	tables, err := r.resolver.ResolveDate(order.OrderDate)
	if err != nil {
		return err
	}

	order.OrderDate = dateOnly(order.OrderDate)
	err = r.db.WithContext(ctx).Table(tables.Orders).Create(order).Error
	if err != nil {
		return translateDuplicateError(err)
	}
	return nil
}

func (r *GormOrderStorage) UpdateTotals(ctx context.Context, order *domain.Order, totals domain.OrderTotals) error {
	tables, err := r.resolver.ResolveDate(order.OrderDate)
	if err != nil {
		return err
	}

	order.TotalAmount = totals.TotalAmount
	order.TotalIncentive = totals.TotalIncentive
	order.TotalBoxes = totals.TotalBoxes

	return r.db.WithContext(ctx).
		Table(tables.Orders).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"total_amount":    totals.TotalAmount,
			"total_incentive": totals.TotalIncentive,
			"total_boxes":     totals.TotalBoxes,
			"updated_at":      time.Now(),
		}).Error
}

func (r *GormOrderStorage) Items(ctx context.Context, order *domain.Order) ([]domain.OrderItem, error) {
	tables, err := r.resolver.ResolveDate(order.OrderDate)
	if err != nil {
		return nil, err
	}

	var items []domain.OrderItem
	err = r.db.WithContext(ctx).
		Table(tables.OrderItems).
		Where("order_id = ?", order.ID).
		Order("product_id").
		Find(&items).Error
	return items, err
}

func (r *GormOrderStorage) UpsertItem(ctx context.Context, order *domain.Order, productID uint, quantity int) error {
	tables, err := r.resolver.ResolveDate(order.OrderDate)
	if err != nil {
		return err
	}

	item := domain.OrderItem{
		OrderID:   order.ID,
		ProductID: productID,
		Quantity:  quantity,
	}

	return r.db.WithContext(ctx).
		Table(tables.OrderItems).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"quantity": quantity}),
		}).
		Create(&item).Error
}

func (r *GormOrderStorage) DeleteItem(ctx context.Context, order *domain.Order, productID uint) error {
	tables, err := r.resolver.ResolveDate(order.OrderDate)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Table(tables.OrderItems).
		Where("order_id = ? AND product_id = ?", order.ID, productID).
		Delete(&domain.OrderItem{}).Error
}

func (r *GormOrderStorage) HasItemsForDate(ctx context.Context, orderDate time.Time) (bool, error) {
	tables, err := r.resolver.ResolveDate(orderDate)
	if err != nil {
		return false, err
	}

	var count int64
	err = r.db.WithContext(ctx).
		Table(tables.OrderItems+" AS oi").
		Joins("JOIN "+tables.Orders+" AS o ON o.id = oi.order_id").
		Where("o.order_date = ?", dateOnly(orderDate)).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormOrderStorage) ItemsExistForTriple(ctx context.Context, employeeID uint, orderDate time.Time, round int) (bool, error) {
	tables, err := r.resolver.ResolveDate(orderDate)
	if err != nil {
		return false, err
	}

	var count int64
	err = r.db.WithContext(ctx).
		Table(tables.OrderItems+" AS oi").
		Joins("JOIN "+tables.Orders+" AS o ON o.id = oi.order_id").
		Where("o.employee_id = ? AND o.order_date = ? AND o.shipment_round = ?",
			employeeID, dateOnly(orderDate), round).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormOrderStorage) MaxConfirmedRound(ctx context.Context, orderDate time.Time) (int, error) {
	tables, err := r.resolver.ResolveDate(orderDate)
	if err != nil {
		return 0, err
	}

	var maxRound int
	err = r.db.WithContext(ctx).
		Table(tables.Orders).
		Where("order_date = ? AND is_confirmed = ?", dateOnly(orderDate), true).
		Select("COALESCE(MAX(shipment_round), 0)").
		Scan(&maxRound).Error
	if err != nil {
		return 0, err
	}
	return maxRound, nil
}

// dateOnly truncates to the calendar date; order_date columns are DATE
// typed and comparisons must not carry a time component.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func translateDuplicateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return domain.ErrDuplicateSubmission
	}
	return err
}

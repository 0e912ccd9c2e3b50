package repository

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"gorm.io/gorm"

	"github.com/tair/wholesale-backoffice/internal/order/domain"
)

// archiveHandleCacheSize bounds how many archival years keep a resolved
// handle in memory at once. Queries rarely reach past a handful of years.
const archiveHandleCacheSize = 8

// TableNames is a resolved pair of physical table names for one year.
type TableNames struct {
	Orders     string
	OrderItems string
}

// LiveTables is the handle for the current calendar year.
var LiveTables = TableNames{
	Orders:     domain.Order{}.TableName(),
	OrderItems: domain.OrderItem{}.TableName(),
}

// PartitionResolver maps a year to the physical order tables holding it.
// The current year always resolves to the live tables; prior years resolve
// to order_<year>/orderitem_<year> archival tables created by the yearly
// archival job. Resolved archival handles are cached for the process
// lifetime, bounded by an LRU.
type PartitionResolver struct {
	db    *gorm.DB
	clock func() time.Time

	mu    sync.Mutex
	cache *lru.Cache[int, TableNames]
}

// NewPartitionResolver creates a resolver using the given clock to decide
// which year is live. Pass time.Now outside of tests.
func NewPartitionResolver(db *gorm.DB, clock func() time.Time) (*PartitionResolver, error) {
	cache, err := lru.New[int, TableNames](archiveHandleCacheSize)
	if err != nil {
		return nil, err
	}
	return &PartitionResolver{db: db, clock: clock, cache: cache}, nil
}

// Resolve returns the table pair for the given year. Returns
// domain.ErrStorageNotFound when the year is historical and its archival
// tables do not exist.
func (r *PartitionResolver) Resolve(year int) (TableNames, error) {
	if year == r.clock().Year() {
		return LiveTables, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if names, ok := r.cache.Get(year); ok {
		return names, nil
	}

	names := TableNames{
		Orders:     fmt.Sprintf("order_%d", year),
		OrderItems: fmt.Sprintf("orderitem_%d", year),
	}

	migrator := r.db.Migrator()
	if !migrator.HasTable(names.Orders) || !migrator.HasTable(names.OrderItems) {
		return TableNames{}, domain.ErrStorageNotFound
	}

	r.cache.Add(year, names)
	return names, nil
}

// ResolveDate resolves using the year component of the date.
func (r *PartitionResolver) ResolveDate(date time.Time) (TableNames, error) {
	return r.Resolve(date.Year())
}

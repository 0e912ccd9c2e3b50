package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clock2025() time.Time {
	return time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
}

func TestPartitionResolver_CurrentYearIsLive(t *testing.T) {
	resolver, err := NewPartitionResolver(nil, clock2025)
	require.NoError(t, err)

	names, err := resolver.Resolve(2025)
	require.NoError(t, err)
	assert.Equal(t, LiveTables, names)
	assert.Equal(t, "orders", names.Orders)
	assert.Equal(t, "order_items", names.OrderItems)
}

func TestPartitionResolver_ResolveDateUsesYear(t *testing.T) {
	resolver, err := NewPartitionResolver(nil, clock2025)
	require.NoError(t, err)

	names, err := resolver.ResolveDate(time.Date(2025, 12, 31, 23, 59, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, LiveTables, names)
}

func TestPartitionResolver_CachedArchivalYearSkipsLookup(t *testing.T) {
	resolver, err := NewPartitionResolver(nil, clock2025)
	require.NoError(t, err)

	// A cached handle must be served without consulting the database;
	// the nil db would panic otherwise.
	cached := TableNames{Orders: "order_2023", OrderItems: "orderitem_2023"}
	resolver.cache.Add(2023, cached)

	names, err := resolver.Resolve(2023)
	require.NoError(t, err)
	assert.Equal(t, cached, names)
}

func TestDateOnly(t *testing.T) {
	at := time.Date(2025, 6, 1, 18, 30, 45, 123, time.FixedZone("ICT", 7*3600))
	got := dateOnly(at)

	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 0, got.Hour())
	assert.Equal(t, "2025-06-01", got.Format("2006-01-02"))
}

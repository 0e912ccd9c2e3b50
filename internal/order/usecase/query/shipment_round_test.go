package query_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/wholesale-backoffice/internal/order/domain"
	"github.com/tair/wholesale-backoffice/internal/order/usecase/query"
)

func TestOrderingWindow_Contains(t *testing.T) {
	window := query.DefaultOrderingWindow()

	tests := []struct {
		name string
		hour int
		min  int
		want bool
	}{
		{"window opens", 20, 0, true},
		{"late evening", 21, 30, true},
		{"just before midnight", 23, 59, true},
		{"after midnight", 2, 15, true},
		{"last minute", 6, 59, true},
		{"window closes", 7, 0, false},
		{"midday", 12, 0, false},
		{"just before open", 19, 59, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at := time.Date(2025, 6, 1, tt.hour, tt.min, 0, 0, time.UTC)
			assert.Equal(t, tt.want, window.Contains(at))
		})
	}
}

func TestOrderingWindow_NonWrapping(t *testing.T) {
	window := query.OrderingWindow{Start: 9 * time.Hour, End: 17 * time.Hour}

	assert.True(t, window.Contains(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)))
	assert.True(t, window.Contains(time.Date(2025, 6, 1, 16, 59, 0, 0, time.UTC)))
	assert.False(t, window.Contains(time.Date(2025, 6, 1, 17, 0, 0, 0, time.UTC)))
	assert.False(t, window.Contains(time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)))
}

// roundStorage stubs just the two OrderStorage methods the round queries use.
type roundStorage struct {
	domain.OrderStorage
	maxConfirmed int
	hasOrder     bool
}

func (s *roundStorage) MaxConfirmedRound(context.Context, time.Time) (int, error) {
	return s.maxConfirmed, nil
}

func (s *roundStorage) FindByTriple(context.Context, uint, time.Time, int) (*domain.Order, error) {
	if s.hasOrder {
		return &domain.Order{ID: 1}, nil
	}
	return nil, domain.ErrOrderNotFound
}

func fixedClock(hour int) func() time.Time {
	return func() time.Time {
		return time.Date(2025, 6, 1, hour, 0, 0, 0, time.UTC)
	}
}

func TestAvailableShipmentRound(t *testing.T) {
	orderDate := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	window := query.DefaultOrderingWindow()

	tests := []struct {
		name         string
		maxConfirmed int
		hasOrder     bool
		hour         int
		wantRound    int
		wantErr      error
	}{
		{
			name:      "first round inside window",
			hour:      21,
			wantRound: 1,
		},
		{
			name:    "first round outside window",
			hour:    12,
			wantErr: domain.ErrOutsideOrderingWindow,
		},
		{
			name:      "existing order bypasses window",
			hasOrder:  true,
			hour:      12,
			wantRound: 1,
		},
		{
			name:         "next round after confirmed",
			maxConfirmed: 2,
			hour:         22,
			wantRound:    3,
		},
		{
			name:         "next round gated outside window",
			maxConfirmed: 2,
			hour:         10,
			wantErr:      domain.ErrOutsideOrderingWindow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := &roundStorage{maxConfirmed: tt.maxConfirmed, hasOrder: tt.hasOrder}
			handler := query.NewAvailableShipmentRoundHandler(storage, window, fixedClock(tt.hour))

			round, err := handler.Handle(context.Background(), query.AvailableShipmentRoundQuery{
				OrderDate:  orderDate,
				EmployeeID: 1,
			})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRound, round)
		})
	}
}

func TestCurrentShipmentRound(t *testing.T) {
	storage := &roundStorage{maxConfirmed: 2}
	handler := query.NewCurrentShipmentRoundHandler(storage)

	round, err := handler.Handle(context.Background(), query.CurrentShipmentRoundQuery{
		OrderDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, round)
}

package notify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tair/wholesale-backoffice/internal/notify"
	"github.com/tair/wholesale-backoffice/internal/product/domain"
	"github.com/tair/wholesale-backoffice/kafka"
)

type fakeProducts struct {
	stock map[uint]int
}

func (p *fakeProducts) FindByID(_ context.Context, id uint) (*domain.Product, error) {
	stock, ok := p.stock[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &domain.Product{ID: id, Stock: stock}, nil
}

type fakeBroadcaster struct {
	messages []string
}

func (b *fakeBroadcaster) Broadcast(message string) {
	b.messages = append(b.messages, message)
}

type fakePublisher struct {
	events []kafka.StockChangedEvent
	err    error
}

func (p *fakePublisher) PublishStockChanged(_ context.Context, event kafka.StockChangedEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func TestStockNotifier_FansOut(t *testing.T) {
	hub := &fakeBroadcaster{}
	publisher := &fakePublisher{}
	notifier := notify.NewStockNotifier(&fakeProducts{stock: map[uint]int{7: 3}}, nil, nil, publisher, hub)

	notifier.StockChanged(context.Background(), 42, []uint{7})

	assert.Equal(t, []string{"stock updated"}, hub.messages)
	if assert.Len(t, publisher.events, 1) {
		assert.Equal(t, uint(42), publisher.events[0].OrderID)
		assert.Equal(t, []uint{7}, publisher.events[0].ProductIDs)
	}
}

func TestStockNotifier_AllDependenciesNil(t *testing.T) {
	notifier := notify.NewStockNotifier(nil, nil, nil, nil, nil)

	// Every leg is optional; a bare notifier must be a safe no-op.
	notifier.StockChanged(context.Background(), 1, []uint{1, 2, 3})
}

func TestStockNotifier_PublisherFailureIsSwallowed(t *testing.T) {
	hub := &fakeBroadcaster{}
	publisher := &fakePublisher{err: errors.New("broker unreachable")}
	notifier := notify.NewStockNotifier(nil, nil, nil, publisher, hub)

	notifier.StockChanged(context.Background(), 42, []uint{7})

	// Kafka failing must not stop the WebSocket leg
	assert.Equal(t, []string{"stock updated"}, hub.messages)
}

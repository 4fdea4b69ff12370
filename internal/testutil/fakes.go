package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ticketnow/internal/external"
	"ticketnow/internal/models"
)

// Message is a payload captured by Publisher
type Message struct {
	Subject string
	Data    interface{}
}

type Publisher struct {
	mu       sync.Mutex
	Messages []Message
	Err      error
}

func (p *Publisher) Publish(subject string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Err != nil {
		return p.Err
	}
	p.Messages = append(p.Messages, Message{Subject: subject, Data: data})
	return nil
}

// Subjects returns the subjects published so far, in order
func (p *Publisher) Subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	subjects := make([]string, len(p.Messages))
	for i, m := range p.Messages {
		subjects[i] = m.Subject
	}
	return subjects
}

// Cache is a versioned EventListCache. Invalidate bumps the version, so
// entries stored under an earlier version are never returned again.
type Cache struct {
	mu            sync.Mutex
	version       int
	entries       map[string][]models.Event
	Invalidations int
	// BeforeSet runs before each store, outside the lock
	BeforeSet func()
}

func NewCache() *Cache {
	return &Cache{entries: map[string][]models.Event{}}
}

func (c *Cache) GetEvents(_ context.Context, filter models.EventFilter, approved bool) ([]models.Event, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := fmt.Sprintf("v%d:%t:%#v", c.version, approved, filter)
	events, ok := c.entries[key]
	return events, key, ok
}

func (c *Cache) SetEvents(_ context.Context, key string, events []models.Event) {
	if c.BeforeSet != nil {
		c.BeforeSet()
	}
	if key == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = events
}

func (c *Cache) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version++
	c.Invalidations++
}

// Searcher returns fixed ids or an error
type Searcher struct {
	IDs []int64
	Err error
}

func (s *Searcher) SearchEvents(context.Context, string, int) ([]int64, error) {
	return s.IDs, s.Err
}

var ErrGatewayDown = errors.New("gateway down")

// Gateway records payment calls
type Gateway struct {
	mu        sync.Mutex
	NextID    int64
	Created   []external.CreatePaymentRequest
	Cancelled []int64
	CreateErr error
	CancelErr error
}

func (g *Gateway) CreatePayment(_ context.Context, req external.CreatePaymentRequest) (*external.PaymentResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.CreateErr != nil {
		return nil, g.CreateErr
	}
	g.NextID++
	g.Created = append(g.Created, req)
	return &external.PaymentResponse{
		ID:            g.NextID,
		OrderID:       req.OrderID,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: models.PaymentPending,
		Amount:        req.Amount,
	}, nil
}

func (g *Gateway) CancelPayment(_ context.Context, paymentID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.CancelErr != nil {
		return g.CancelErr
	}
	g.Cancelled = append(g.Cancelled, paymentID)
	return nil
}

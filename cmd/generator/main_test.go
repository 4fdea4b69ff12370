package main

import (
	"math/rand"
	"testing"
	"time"

	"ticketnow/internal/validation"

	"github.com/stretchr/testify/assert"
)

func TestGenerateEvents(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	events := generateEvents(rand.New(rand.NewSource(7)), 50, 3, now)

	assert.Len(t, events, 50)
	names := make(map[string]bool)
	for _, event := range events {
		assert.False(t, names[event.Name], "duplicate name %s", event.Name)
		names[event.Name] = true

		assert.True(t, event.OnSale())
		assert.True(t, event.EventDate.After(now))
		assert.True(t, validation.ValidCategory(event.Category))
		assert.Equal(t, event.TicketAmount, event.TicketAvailable)
		assert.GreaterOrEqual(t, event.TicketAmount, 100)
		assert.True(t, event.TicketPrice.IsPositive())
		assert.Equal(t, int64(3), event.PromoterID)
	}
}

func TestGenerateEventsIsDeterministic(t *testing.T) {
	now := time.Now()
	a := generateEvents(rand.New(rand.NewSource(1)), 5, 1, now)
	b := generateEvents(rand.New(rand.NewSource(1)), 5, 1, now)
	assert.Equal(t, a, b)
}

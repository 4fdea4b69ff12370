package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ticketnow/internal/models"
	"ticketnow/internal/notification"
	"ticketnow/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createRequest(env *testEnv, name string) *models.CreateEventRequest {
	return &models.CreateEventRequest{
		Name:         name,
		Description:  "Stand-up comedy night",
		Address:      "Rua Augusta, 100",
		City:         "Sao Paulo",
		State:        "SP",
		Category:     models.CategoryStandup,
		EventDate:    env.now.Add(10 * 24 * time.Hour),
		TicketPrice:  decimal.RequireFromString("80.00"),
		TicketAmount: 100,
	}
}

func updateRequest(event models.Event, amount int) *models.UpdateEventRequest {
	return &models.UpdateEventRequest{
		ID:           event.ID,
		PromoterID:   event.PromoterID,
		Name:         event.Name,
		Description:  event.Description,
		Address:      event.Address,
		City:         event.City,
		State:        event.State,
		Category:     event.Category,
		EventDate:    event.EventDate,
		TicketPrice:  event.TicketPrice,
		TicketAmount: amount,
	}
}

func TestCreateEvent(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.services.Events.Create(context.Background(), 5, createRequest(env, "Comedy Night"))
	require.NoError(t, err)
	require.True(t, res.Succeeded(), res.Notifications)

	event := res.Value
	assert.True(t, event.Active)
	assert.False(t, event.Approved)
	assert.Equal(t, 100, event.TicketAvailable)
	assert.Equal(t, int64(5), event.PromoterID)
	assert.Equal(t, []string{models.SubjectEventCreated}, env.publisher.Subjects())
	assert.Equal(t, 1, env.cache.Invalidations)

	dup, err := env.services.Events.Create(context.Background(), 6, createRequest(env, "Comedy Night"))
	require.NoError(t, err)
	assert.True(t, dup.Notifications.Has(notification.EventNameAlreadyTaken.Key))
	assert.Equal(t, notification.KindConflict, dup.Notifications.Kind())
}

func TestCreateEventValidation(t *testing.T) {
	env := newTestEnv(t)

	req := createRequest(env, "")
	req.State = "sp"
	req.Category = "OPERA"
	req.TicketPrice = decimal.Zero
	req.TicketAmount = 0
	req.EventDate = env.now.Add(-time.Hour)

	res, err := env.services.Events.Create(context.Background(), 5, req)
	require.NoError(t, err)
	for _, key := range []string{"name", "state", "category", "ticket_price", "ticket_amount", "event_date"} {
		assert.True(t, res.Notifications.Has(key), "missing notification for %s", key)
	}
	assert.Empty(t, env.publisher.Messages)
}

func TestUpdateEventShiftsAvailability(t *testing.T) {
	tests := []struct {
		name          string
		newAmount     int
		wantAvailable int
		wantKey       string
	}{
		{"raise capacity", 120, 90, ""},
		{"lower capacity above sold", 40, 10, ""},
		{"lower capacity to sold", 30, 0, ""},
		{"lower capacity below sold", 29, 70, notification.TicketAmountBelowSold.Key},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			event := env.onSaleEvent(5, 100)
			event.TicketAvailable = 70
			env.store.PutEvent(event)

			res, err := env.services.Events.Update(context.Background(), updateRequest(event, tt.newAmount))
			require.NoError(t, err)

			if tt.wantKey != "" {
				assert.True(t, res.Notifications.Has(tt.wantKey), res.Notifications)
			} else {
				require.True(t, res.Succeeded(), res.Notifications)
			}

			stored, _ := env.store.Event(event.ID)
			assert.Equal(t, tt.wantAvailable, stored.TicketAvailable)
		})
	}
}

func TestUpdateEventOwnership(t *testing.T) {
	env := newTestEnv(t)
	event := env.onSaleEvent(5, 100)

	req := updateRequest(event, 100)
	req.PromoterID = 6
	res, err := env.services.Events.Update(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Notifications.Has(notification.EventNotFound.Key))
}

func TestListEventsUsesCache(t *testing.T) {
	env := newTestEnv(t)
	env.onSaleEvent(5, 100)

	first, err := env.services.Events.List(context.Background(), models.EventFilter{}, true)
	require.NoError(t, err)
	require.Len(t, first.Value, 1)

	// a write behind the service's back is not seen until invalidation
	env.onSaleEvent(5, 50)
	cached, err := env.services.Events.List(context.Background(), models.EventFilter{}, true)
	require.NoError(t, err)
	assert.Len(t, cached.Value, 1)

	_, err = env.services.Events.Create(context.Background(), 5, createRequest(env, "Another"))
	require.NoError(t, err)

	fresh, err := env.services.Events.List(context.Background(), models.EventFilter{}, true)
	require.NoError(t, err)
	assert.Len(t, fresh.Value, 2)
}

func TestListEventsDoesNotCacheAcrossInvalidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.onSaleEvent(5, 100)

	// another request changes an event while this listing is being read
	env.cache.BeforeSet = func() {
		env.cache.BeforeSet = nil
		env.onSaleEvent(5, 50)
		env.cache.Invalidate(ctx)
	}

	first, err := env.services.Events.List(ctx, models.EventFilter{}, true)
	require.NoError(t, err)
	assert.Len(t, first.Value, 1)

	fresh, err := env.services.Events.List(ctx, models.EventFilter{}, true)
	require.NoError(t, err)
	assert.Len(t, fresh.Value, 2)
}

func TestListEventsByApproval(t *testing.T) {
	env := newTestEnv(t)
	env.onSaleEvent(5, 100)
	_, err := env.services.Events.Create(context.Background(), 5, createRequest(env, "Pending approval"))
	require.NoError(t, err)

	pending, err := env.services.Events.List(context.Background(), models.EventFilter{}, false)
	require.NoError(t, err)
	require.Len(t, pending.Value, 1)
	assert.Equal(t, "Pending approval", pending.Value[0].Name)
}

func TestListByPromoter(t *testing.T) {
	env := newTestEnv(t)
	env.onSaleEvent(5, 100)

	res, err := env.services.Events.ListByPromoter(context.Background(), 0, models.EventFilter{})
	require.NoError(t, err)
	assert.True(t, res.Notifications.Has(notification.InvalidPromoter.Key))

	res, err = env.services.Events.ListByPromoter(context.Background(), 5, models.EventFilter{})
	require.NoError(t, err)
	assert.Len(t, res.Value, 1)

	res, err = env.services.Events.ListByPromoter(context.Background(), 6, models.EventFilter{})
	require.NoError(t, err)
	assert.NotNil(t, res.Value)
	assert.Empty(t, res.Value)
}

func TestSetEventState(t *testing.T) {
	env := newTestEnv(t)
	event := env.onSaleEvent(5, 100)
	active, inactive := true, false

	res, err := env.services.Events.SetState(context.Background(), 5, event.ID, &models.SetStateRequest{Active: &active})
	require.NoError(t, err)
	assert.True(t, res.Notifications.Has(notification.EventAlreadyActive.Key))

	res, err = env.services.Events.SetState(context.Background(), 5, event.ID, &models.SetStateRequest{Active: &inactive})
	require.NoError(t, err)
	require.True(t, res.Succeeded())
	assert.False(t, res.Value.Active)

	res, err = env.services.Events.SetState(context.Background(), 5, event.ID, &models.SetStateRequest{Active: &inactive})
	require.NoError(t, err)
	assert.True(t, res.Notifications.Has(notification.EventAlreadyInactive.Key))

	res, err = env.services.Events.SetState(context.Background(), 6, event.ID, &models.SetStateRequest{Active: &active})
	require.NoError(t, err)
	assert.True(t, res.Notifications.Has(notification.EventNotFound.Key))

	res, err = env.services.Events.SetState(context.Background(), 5, event.ID, &models.SetStateRequest{})
	require.NoError(t, err)
	assert.True(t, res.Notifications.Has("active"))
}

func TestApproveEvent(t *testing.T) {
	env := newTestEnv(t)
	created, err := env.services.Events.Create(context.Background(), 5, createRequest(env, "Needs approval"))
	require.NoError(t, err)

	res, err := env.services.Events.Approve(context.Background(), created.Value.ID)
	require.NoError(t, err)
	require.True(t, res.Succeeded())
	assert.True(t, res.Value.Approved)

	again, err := env.services.Events.Approve(context.Background(), created.Value.ID)
	require.NoError(t, err)
	assert.True(t, again.Succeeded())
	assert.Equal(t, []string{models.SubjectEventCreated, models.SubjectEventApproved}, env.publisher.Subjects())

	missing, err := env.services.Events.Approve(context.Background(), 999)
	require.NoError(t, err)
	assert.True(t, missing.Notifications.Has(notification.EventNotFound.Key))
}

func TestDeleteEvent(t *testing.T) {
	env := newTestEnv(t)
	sold := env.onSaleEvent(5, 100)
	placeOrder(t, env, sold.ID, 1)

	res, err := env.services.Events.Delete(context.Background(), 5, sold.ID)
	require.NoError(t, err)
	assert.True(t, res.Notifications.Has(notification.EventDeleteConflict.Key))

	unsold := env.store.PutEvent(models.Event{Name: "Unsold", PromoterID: 5, TicketAmount: 10, TicketAvailable: 10})

	res, err = env.services.Events.Delete(context.Background(), 6, unsold.ID)
	require.NoError(t, err)
	assert.True(t, res.Notifications.Has(notification.EventNotFound.Key))

	res, err = env.services.Events.Delete(context.Background(), 5, unsold.ID)
	require.NoError(t, err)
	assert.True(t, res.Succeeded())
	_, exists := env.store.Event(unsold.ID)
	assert.False(t, exists)

	subjects := env.publisher.Subjects()
	assert.Equal(t, models.SubjectEventDeleted, subjects[len(subjects)-1])
}

func TestSearchEvents(t *testing.T) {
	t.Run("uses index ranking and drops stale hits", func(t *testing.T) {
		env := newTestEnv(t)
		a := env.onSaleEvent(5, 10)
		b := env.store.PutEvent(models.Event{Name: "Samba", Active: true, Approved: true, PromoterID: 5})
		hidden := env.store.PutEvent(models.Event{Name: "Samba draft", Active: true, Approved: false, PromoterID: 5})
		env.build(&testutil.Searcher{IDs: []int64{b.ID, hidden.ID, 999, a.ID}})

		res, err := env.services.Events.Search(context.Background(), &models.EventSearchRequest{Query: "samba"})
		require.NoError(t, err)
		require.Len(t, res.Value, 2)
		assert.Equal(t, b.ID, res.Value[0].ID)
		assert.Equal(t, a.ID, res.Value[1].ID)
	})

	t.Run("falls back to the database", func(t *testing.T) {
		env := newTestEnv(t)
		env.onSaleEvent(5, 10)
		env.build(&testutil.Searcher{Err: errors.New("index down")})

		res, err := env.services.Events.Search(context.Background(), &models.EventSearchRequest{Query: "rio"})
		require.NoError(t, err)
		require.Len(t, res.Value, 1)
		assert.Equal(t, "Rock in Rio", res.Value[0].Name)
	})

	t.Run("requires a query", func(t *testing.T) {
		env := newTestEnv(t)

		res, err := env.services.Events.Search(context.Background(), &models.EventSearchRequest{})
		require.NoError(t, err)
		assert.True(t, res.Notifications.Has("q"))
	})
}

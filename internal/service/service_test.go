package service

import (
	"testing"
	"time"

	"ticketnow/internal/auth"
	"ticketnow/internal/clock"
	"ticketnow/internal/models"
	"ticketnow/internal/testutil"

	"github.com/shopspring/decimal"
)

type testEnv struct {
	now       time.Time
	store     *testutil.Store
	publisher *testutil.Publisher
	cache     *testutil.Cache
	gateway   *testutil.Gateway
	searcher  *testutil.Searcher
	tokens    *auth.TokenManager
	services  *Services
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		now:       time.Now().UTC().Truncate(time.Second),
		store:     testutil.NewStore(),
		publisher: &testutil.Publisher{},
		cache:     testutil.NewCache(),
		gateway:   &testutil.Gateway{NextID: 500},
		tokens: auth.NewTokenManager(auth.Config{
			Secret:          "test-secret",
			Issuer:          "ticketnow",
			Audience:        "ticketnow-clients",
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: 24 * time.Hour,
		}),
	}
	env.build(nil)
	return env
}

// build recreates the services; a nil searcher disables the search index
func (e *testEnv) build(searcher *testutil.Searcher) {
	e.searcher = searcher
	deps := Dependencies{
		Tx:             e.store,
		Events:         e.store.Events(),
		Orders:         e.store.Orders(),
		Users:          e.store.Users(),
		Tokens:         e.tokens,
		Clock:          clock.NewFixed(e.now),
		Publisher:      e.publisher,
		Cache:          e.cache,
		Payments:       e.gateway,
		PaymentTimeout: 30 * time.Minute,
	}
	if searcher != nil {
		deps.Searcher = searcher
	}
	e.services = NewServices(deps)
}

func (e *testEnv) onSaleEvent(promoterID int64, tickets int) models.Event {
	return e.store.PutEvent(models.Event{
		Name:            "Rock in Rio",
		Description:     "festival",
		Address:         "Parque Olimpico",
		City:            "Rio de Janeiro",
		State:           "RJ",
		Category:        models.CategoryFestival,
		EventDate:       e.now.Add(30 * 24 * time.Hour),
		TicketPrice:     decimal.RequireFromString("250.00"),
		TicketAmount:    tickets,
		TicketAvailable: tickets,
		Active:          true,
		Approved:        true,
		PromoterID:      promoterID,
	})
}

package mockpayment

import (
	"context"
	"os"
	"testing"

	"ticketnow/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("skipping Postgres integration tests: TEST_DATABASE_URL is not set")
	}

	db, err := OpenDatabase(dsn)
	if err != nil {
		t.Skipf("skipping Postgres integration tests: %v", err)
	}
	require.NoError(t, db.Exec(`TRUNCATE payments, applications RESTART IDENTITY CASCADE`).Error)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewGormStore(db)
}

func TestGormStoreLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	app := &Application{Name: "ticketnow", APIKey: "key", Username: "u", PasswordHash: "h", WebhookURL: "http://x"}
	require.NoError(t, store.SaveApplication(ctx, app))

	// saving again with the same key updates in place
	again := &Application{Name: "renamed", APIKey: "key", Username: "u", PasswordHash: "h2", WebhookURL: "http://y"}
	require.NoError(t, store.SaveApplication(ctx, again))

	found, err := store.FindApplicationByAPIKey(ctx, "key")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "renamed", found.Name)
	assert.Equal(t, "http://y", found.WebhookURL)

	missing, err := store.FindApplicationByAPIKey(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	payment := &Payment{
		ApplicationID: found.ID,
		OrderID:       10,
		PaymentMethod: models.PaymentPix,
		PaymentStatus: models.PaymentPending,
		Amount:        decimal.RequireFromString("12.50"),
	}
	require.NoError(t, store.CreatePayment(ctx, payment))

	got, err := store.GetPayment(ctx, found.ID, payment.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.5").Equal(got.Amount))

	_, err = store.GetPayment(ctx, found.ID+1, payment.ID)
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	updated, err := store.UpdateStatus(ctx, found.ID, payment.ID, models.PaymentPaid)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, updated.PaymentStatus)

	_, err = store.UpdateStatus(ctx, found.ID, payment.ID, models.PaymentCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestDeleteApplicationCascadesPayments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	app := &Application{Name: "a", APIKey: "k", Username: "u", PasswordHash: "h", WebhookURL: "http://x"}
	require.NoError(t, store.SaveApplication(ctx, app))

	payment := &Payment{ApplicationID: app.ID, OrderID: 1, PaymentMethod: models.PaymentPix,
		PaymentStatus: models.PaymentPending, Amount: decimal.NewFromInt(1)}
	require.NoError(t, store.CreatePayment(ctx, payment))

	require.NoError(t, store.DeleteApplication(ctx, app.ID))

	_, err := store.GetPayment(ctx, app.ID, payment.ID)
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	gone, err := store.FindApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

package mockpayment

import (
	"context"
	"errors"
	"fmt"

	"ticketnow/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

var (
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrInvalidTransition = errors.New("payment status transition not allowed")
)

// OpenDatabase connects to PostgreSQL and migrates the gateway tables
func OpenDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&Application{}, &Payment{}); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return db, nil
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// SaveApplication inserts the application or updates the one with the same API key
func (s *GormStore) SaveApplication(ctx context.Context, app *Application) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "api_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "username", "password_hash", "webhook_url", "webhook_secret", "updated_at"}),
	}).Create(app).Error
}

func (s *GormStore) FindApplicationByAPIKey(ctx context.Context, apiKey string) (*Application, error) {
	var app Application
	err := s.db.WithContext(ctx).Where("api_key = ?", apiKey).First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (s *GormStore) FindApplication(ctx context.Context, id uint) (*Application, error) {
	var app Application
	err := s.db.WithContext(ctx).First(&app, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (s *GormStore) DeleteApplication(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&Application{}, id).Error
}

func (s *GormStore) CreatePayment(ctx context.Context, payment *Payment) error {
	return s.db.WithContext(ctx).Create(payment).Error
}

// GetPayment returns the payment only when it belongs to the application
func (s *GormStore) GetPayment(ctx context.Context, appID uint, id int64) (*Payment, error) {
	var payment Payment
	err := s.db.WithContext(ctx).
		Where("id = ? AND application_id = ?", id, appID).
		First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// UpdateStatus moves the payment to status under a row lock
func (s *GormStore) UpdateStatus(ctx context.Context, appID uint, id int64, status models.PaymentStatus) (*Payment, error) {
	var payment Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND application_id = ?", id, appID).
			First(&payment).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPaymentNotFound
		}
		if err != nil {
			return err
		}

		if !CanTransition(payment.PaymentStatus, status) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, payment.PaymentStatus, status)
		}

		payment.PaymentStatus = status
		return tx.Model(&payment).Update("payment_status", status).Error
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// CanTransition reports whether a payment in from may move to to
func CanTransition(from, to models.PaymentStatus) bool {
	if from.IsTerminal() || from == to {
		return false
	}
	return to != models.PaymentPending
}

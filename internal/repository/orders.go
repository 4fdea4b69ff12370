package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ticketnow/internal/database"
	apperrors "ticketnow/internal/errors"
	"ticketnow/internal/models"
)

type OrderRepository struct {
	db *database.DB
}

func NewOrderRepository(db *database.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, user_id, event_id, payment_id, status, payment_status, payment_method,
	tickets, price, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }, order *models.Order) error {
	return row.Scan(
		&order.ID,
		&order.UserID,
		&order.EventID,
		&order.PaymentID,
		&order.Status,
		&order.PaymentStatus,
		&order.PaymentMethod,
		&order.Tickets,
		&order.Price,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
}

// Create inserts the order and its items
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithTx(ctx, func(ctx context.Context) error {
		query := `
			INSERT INTO orders (user_id, event_id, status, payment_status, payment_method, tickets, price)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at, updated_at`

		err := r.db.Conn(ctx).QueryRowContext(ctx, query,
			order.UserID,
			order.EventID,
			order.Status,
			order.PaymentStatus,
			order.PaymentMethod,
			order.Tickets,
			order.Price,
		).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		for i := range order.Items {
			item := &order.Items[i]
			item.OrderID = order.ID
			err := r.db.Conn(ctx).QueryRowContext(ctx, `
				INSERT INTO order_items (order_id, ticket_code, unit_price)
				VALUES ($1, $2, $3)
				RETURNING id, created_at`,
				item.OrderID, item.TicketCode, item.UnitPrice,
			).Scan(&item.ID, &item.CreatedAt)
			if err != nil {
				return fmt.Errorf("failed to insert order item: %w", err)
			}
		}
		return nil
	})
}

// GetByID returns the order with its items
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	order, err := r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	if err != nil || order == nil {
		return order, err
	}
	if order.Items, err = r.items(ctx, order.ID); err != nil {
		return nil, err
	}
	return order, nil
}

// GetByIDForUpdate locks the order row until the surrounding transaction ends
func (r *OrderRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *OrderRepository) getOne(ctx context.Context, query string, args ...any) (*models.Order, error) {
	order := &models.Order{}
	err := scanOrder(r.db.Conn(ctx).QueryRowContext(ctx, query, args...), order)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *OrderRepository) items(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	rows, err := r.db.Conn(ctx).QueryContext(ctx, `
		SELECT id, order_id, ticket_code, unit_price, created_at
		FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.TicketCode, &item.UnitPrice, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID int64, filter models.OrderFilter) ([]models.Order, error) {
	args := []any{userID}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1`
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	args = append(args, filter.PageSize, filter.Offset())
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	return r.query(ctx, query, args...)
}

// ListPendingBefore returns PENDING orders created before the cutoff, oldest first
func (r *OrderRepository) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	return r.query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE status = 'PENDING' AND created_at < $1
		ORDER BY created_at
		LIMIT $2`, cutoff, limit)
}

func (r *OrderRepository) query(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (r *OrderRepository) SetPaymentID(ctx context.Context, id, paymentID int64) error {
	return r.exec(ctx, `UPDATE orders SET payment_id = $2, updated_at = NOW() WHERE id = $1`, id, paymentID)
}

// UpdateStatus records a payment outcome that does not cancel the order
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status models.OrderStatus, paymentStatus models.PaymentStatus) error {
	return r.exec(ctx, `
		UPDATE orders SET status = $2, payment_status = $3, updated_at = NOW()
		WHERE id = $1 AND status <> 'CANCELLED'`, id, status, paymentStatus)
}

// Cancel moves the order to CANCELLED. It returns ErrStateChanged when the
// order was already cancelled, which callers use to restore inventory once.
func (r *OrderRepository) Cancel(ctx context.Context, id int64, paymentStatus models.PaymentStatus) error {
	err := r.exec(ctx, `
		UPDATE orders SET status = 'CANCELLED', payment_status = $2, updated_at = NOW()
		WHERE id = $1 AND status <> 'CANCELLED'`, id, paymentStatus)
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.ErrStateChanged
	}
	return err
}

func (r *OrderRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.Conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

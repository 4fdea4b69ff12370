package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ticketnow/internal/database"
	apperrors "ticketnow/internal/errors"
	"ticketnow/internal/models"

	"github.com/lib/pq"
)

type EventRepository struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, name, description, address, city, state, category, event_date,
	ticket_price, ticket_amount, ticket_available, active, approved, promoter_id, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }, event *models.Event) error {
	return row.Scan(
		&event.ID,
		&event.Name,
		&event.Description,
		&event.Address,
		&event.City,
		&event.State,
		&event.Category,
		&event.EventDate,
		&event.TicketPrice,
		&event.TicketAmount,
		&event.TicketAvailable,
		&event.Active,
		&event.Approved,
		&event.PromoterID,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
}

func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (name, description, address, city, state, category, event_date,
		                    ticket_price, ticket_amount, ticket_available, active, approved, promoter_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`

	return r.db.Conn(ctx).QueryRowContext(ctx, query,
		event.Name,
		event.Description,
		event.Address,
		event.City,
		event.State,
		event.Category,
		event.EventDate,
		event.TicketPrice,
		event.TicketAmount,
		event.TicketAvailable,
		event.Active,
		event.Approved,
		event.PromoterID,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
}

// Update stores every mutable field, including the recomputed availability
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	query := `
		UPDATE events
		SET name = $2, description = $3, address = $4, city = $5, state = $6, category = $7,
		    event_date = $8, ticket_price = $9, ticket_amount = $10, ticket_available = $11,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.Conn(ctx).QueryRowContext(ctx, query,
		event.ID,
		event.Name,
		event.Description,
		event.Address,
		event.City,
		event.State,
		event.Category,
		event.EventDate,
		event.TicketPrice,
		event.TicketAmount,
		event.TicketAvailable,
	).Scan(&event.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	return err
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	return r.getOne(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
}

// GetByIDForUpdate locks the event row until the surrounding transaction ends
func (r *EventRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Event, error) {
	return r.getOne(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id)
}

func (r *EventRepository) getOne(ctx context.Context, query string, args ...any) (*models.Event, error) {
	event := &models.Event{}
	err := scanEvent(r.db.Conn(ctx).QueryRowContext(ctx, query, args...), event)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (r *EventRepository) GetByIDs(ctx context.Context, ids []int64) ([]models.Event, error) {
	return r.query(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ANY($1)`, pq.Array(ids))
}

func (r *EventRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.Conn(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM events WHERE name = $1)`, name).Scan(&exists)
	return exists, err
}

// List returns the public listing: generic filter first, then approval
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter, approved bool) ([]models.Event, error) {
	conditions, args := eventFilterConditions(filter)
	args = append(args, approved)
	conditions = append(conditions, fmt.Sprintf("approved = $%d", len(args)))
	return r.list(ctx, conditions, args, filter.Pagination)
}

func (r *EventRepository) ListByPromoter(ctx context.Context, promoterID int64, filter models.EventFilter) ([]models.Event, error) {
	conditions, args := eventFilterConditions(filter)
	args = append(args, promoterID)
	conditions = append(conditions, fmt.Sprintf("promoter_id = $%d", len(args)))
	return r.list(ctx, conditions, args, filter.Pagination)
}

func eventFilterConditions(filter models.EventFilter) ([]string, []any) {
	var (
		conditions []string
		args       []any
	)
	if filter.Name != "" {
		args = append(args, filter.Name)
		conditions = append(conditions, fmt.Sprintf("name = $%d", len(args)))
	}
	if filter.City != "" {
		args = append(args, filter.City)
		conditions = append(conditions, fmt.Sprintf("city = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	return conditions, args
}

func (r *EventRepository) list(ctx context.Context, conditions []string, args []any, page models.Pagination) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, page.PageSize, page.Offset())
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return r.query(ctx, query, args...)
}

// Search is the database fallback of the full-text index
func (r *EventRepository) Search(ctx context.Context, text string, limit int) ([]models.Event, error) {
	pattern := "%" + text + "%"
	return r.query(ctx, `
		SELECT `+eventColumns+` FROM events
		WHERE active AND approved AND (name ILIKE $1 OR description ILIKE $1 OR city ILIKE $1)
		ORDER BY event_date
		LIMIT $2`, pattern, limit)
}

func (r *EventRepository) query(ctx context.Context, query string, args ...any) ([]models.Event, error) {
	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var event models.Event
		if err := scanEvent(rows, &event); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *EventRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.exec(ctx, `UPDATE events SET active = $2, updated_at = NOW() WHERE id = $1`, id, active)
}

func (r *EventRepository) Approve(ctx context.Context, id int64) error {
	return r.exec(ctx, `UPDATE events SET approved = TRUE, updated_at = NOW() WHERE id = $1`, id)
}

// Delete removes the event. Orders reference events with ON DELETE RESTRICT,
// so an order inserted after the caller's check still blocks the delete.
func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	err := r.exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if database.IsForeignKeyViolation(err) {
		return apperrors.ErrHasDependents
	}
	return err
}

func (r *EventRepository) HasOrders(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.Conn(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE event_id = $1)`, id).Scan(&exists)
	return exists, err
}

// DecrementAvailable takes n tickets from an event on sale. The WHERE clause is
// re-evaluated after the row lock is acquired, so concurrent buyers of the last
// tickets serialize and only the ones that still fit succeed.
func (r *EventRepository) DecrementAvailable(ctx context.Context, id int64, n int) error {
	res, err := r.db.Conn(ctx).ExecContext(ctx, `
		UPDATE events
		SET ticket_available = ticket_available - $2, updated_at = NOW()
		WHERE id = $1 AND active AND approved AND ticket_available >= $2`, id, n)
	if err != nil {
		return fmt.Errorf("failed to decrement tickets: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrInsufficientInventory
	}
	return nil
}

// RestoreAvailable gives n tickets back to the event
func (r *EventRepository) RestoreAvailable(ctx context.Context, id int64, n int) error {
	err := r.exec(ctx, `
		UPDATE events
		SET ticket_available = ticket_available + $2, updated_at = NOW()
		WHERE id = $1`, id, n)
	if database.IsCheckViolation(err) {
		return fmt.Errorf("restoring %d tickets to event %d exceeds its capacity: %w", n, id, err)
	}
	return err
}

func (r *EventRepository) exec(ctx context.Context, query string, args ...any) error {
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

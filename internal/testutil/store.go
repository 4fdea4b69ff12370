// Package testutil provides in-memory implementations of the service
// dependencies and a PostgreSQL helper for repository tests.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "ticketnow/internal/errors"
	"ticketnow/internal/models"
)

type txKey struct{}

// Store keeps users, events and orders in memory. Transactions are
// serialized and roll back every change when fn returns an error.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex

	nextID int64
	now    func() time.Time

	users  map[int64]models.User
	events map[int64]models.Event
	orders map[int64]models.Order
}

func NewStore() *Store {
	return &Store{
		now:    func() time.Time { return time.Now().UTC() },
		users:  map[int64]models.User{},
		events: map[int64]models.Event{},
		orders: map[int64]models.Order{},
	}
}

func (s *Store) Events() *EventRepo { return &EventRepo{s} }
func (s *Store) Orders() *OrderRepo { return &OrderRepo{s} }
func (s *Store) Users() *UserRepo   { return &UserRepo{s} }

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snapshot := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

type storeState struct {
	nextID int64
	users  map[int64]models.User
	events map[int64]models.Event
	orders map[int64]models.Order
}

func (s *Store) snapshot() storeState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := storeState{
		nextID: s.nextID,
		users:  make(map[int64]models.User, len(s.users)),
		events: make(map[int64]models.Event, len(s.events)),
		orders: make(map[int64]models.Order, len(s.orders)),
	}
	for k, v := range s.users {
		state.users[k] = v
	}
	for k, v := range s.events {
		state.events[k] = v
	}
	for k, v := range s.orders {
		state.orders[k] = v
	}
	return state
}

func (s *Store) restore(state storeState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID = state.nextID
	s.users = state.users
	s.events = state.events
	s.orders = state.orders
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// PutEvent stores the event as is and returns it with an id
func (s *Store) PutEvent(event models.Event) models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.ID == 0 {
		event.ID = s.id()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.now()
	}
	s.events[event.ID] = event
	return event
}

// Event returns the stored copy of the event
func (s *Store) Event(id int64) (models.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[id]
	return event, ok
}

func (s *Store) PutOrder(order models.Order) models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	if order.ID == 0 {
		order.ID = s.id()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = s.now()
	}
	s.orders[order.ID] = order
	return order
}

func (s *Store) Order(id int64) (models.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	return order, ok
}

func (s *Store) PutUser(user models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == 0 {
		user.ID = s.id()
	}
	s.users[user.ID] = user
	return user
}

func (s *Store) User(id int64) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	return user, ok
}

func paginate[T any](items []T, page models.Pagination) []T {
	start := page.Offset()
	if start >= len(items) {
		return nil
	}
	end := start + page.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

type EventRepo struct{ s *Store }

func (r *EventRepo) Create(_ context.Context, event *models.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	event.ID = r.s.id()
	event.CreatedAt = r.s.now()
	event.UpdatedAt = event.CreatedAt
	r.s.events[event.ID] = *event
	return nil
}

func (r *EventRepo) Update(_ context.Context, event *models.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.events[event.ID]; !ok {
		return apperrors.ErrNotFound
	}
	event.UpdatedAt = r.s.now()
	r.s.events[event.ID] = *event
	return nil
}

func (r *EventRepo) GetByID(_ context.Context, id int64) (*models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	event, ok := r.s.events[id]
	if !ok {
		return nil, nil
	}
	return &event, nil
}

func (r *EventRepo) GetByIDForUpdate(ctx context.Context, id int64) (*models.Event, error) {
	return r.GetByID(ctx, id)
}

func (r *EventRepo) GetByIDs(_ context.Context, ids []int64) ([]models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var events []models.Event
	for _, id := range ids {
		if event, ok := r.s.events[id]; ok {
			events = append(events, event)
		}
	}
	return events, nil
}

func (r *EventRepo) ExistsByName(_ context.Context, name string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, event := range r.s.events {
		if event.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *EventRepo) List(_ context.Context, filter models.EventFilter, approved bool) ([]models.Event, error) {
	return r.list(filter, func(e models.Event) bool { return e.Approved == approved }), nil
}

func (r *EventRepo) ListByPromoter(_ context.Context, promoterID int64, filter models.EventFilter) ([]models.Event, error) {
	return r.list(filter, func(e models.Event) bool { return e.PromoterID == promoterID }), nil
}

func (r *EventRepo) list(filter models.EventFilter, keep func(models.Event) bool) []models.Event {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var events []models.Event
	for _, event := range r.s.events {
		if filter.Name != "" && event.Name != filter.Name {
			continue
		}
		if filter.City != "" && event.City != filter.City {
			continue
		}
		if filter.Category != "" && event.Category != filter.Category {
			continue
		}
		if keep(event) {
			events = append(events, event)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].ID > events[j].ID
		}
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
	return paginate(events, filter.Pagination)
}

func (r *EventRepo) Search(_ context.Context, text string, limit int) ([]models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	text = strings.ToLower(text)
	var events []models.Event
	for _, event := range r.s.events {
		if !event.OnSale() {
			continue
		}
		if strings.Contains(strings.ToLower(event.Name), text) ||
			strings.Contains(strings.ToLower(event.Description), text) ||
			strings.Contains(strings.ToLower(event.City), text) {
			events = append(events, event)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].EventDate.Before(events[j].EventDate) })
	if len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (r *EventRepo) SetActive(_ context.Context, id int64, active bool) error {
	return r.modify(id, func(e *models.Event) error {
		e.Active = active
		return nil
	})
}

func (r *EventRepo) Approve(_ context.Context, id int64) error {
	return r.modify(id, func(e *models.Event) error {
		e.Approved = true
		return nil
	})
}

func (r *EventRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.events[id]; !ok {
		return apperrors.ErrNotFound
	}
	for _, order := range r.s.orders {
		if order.EventID == id {
			return apperrors.ErrHasDependents
		}
	}
	delete(r.s.events, id)
	return nil
}

func (r *EventRepo) HasOrders(_ context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, order := range r.s.orders {
		if order.EventID == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *EventRepo) DecrementAvailable(_ context.Context, id int64, n int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	event, ok := r.s.events[id]
	if !ok || !event.OnSale() || event.TicketAvailable < n {
		return apperrors.ErrInsufficientInventory
	}
	event.TicketAvailable -= n
	r.s.events[id] = event
	return nil
}

func (r *EventRepo) RestoreAvailable(_ context.Context, id int64, n int) error {
	return r.modify(id, func(e *models.Event) error {
		if e.TicketAvailable+n > e.TicketAmount {
			return apperrors.ErrStateChanged
		}
		e.TicketAvailable += n
		return nil
	})
}

func (r *EventRepo) modify(id int64, fn func(*models.Event) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	event, ok := r.s.events[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if err := fn(&event); err != nil {
		return err
	}
	event.UpdatedAt = r.s.now()
	r.s.events[id] = event
	return nil
}

type OrderRepo struct{ s *Store }

func (r *OrderRepo) Create(_ context.Context, order *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	order.ID = r.s.id()
	order.CreatedAt = r.s.now()
	order.UpdatedAt = order.CreatedAt
	items := make([]models.OrderItem, len(order.Items))
	for i, item := range order.Items {
		item.ID = r.s.id()
		item.OrderID = order.ID
		item.CreatedAt = order.CreatedAt
		items[i] = item
	}
	order.Items = items

	stored := *order
	stored.Items = append([]models.OrderItem(nil), items...)
	r.s.orders[order.ID] = stored
	return nil
}

func (r *OrderRepo) GetByID(_ context.Context, id int64) (*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	order, ok := r.s.orders[id]
	if !ok {
		return nil, nil
	}
	order.Items = append([]models.OrderItem(nil), order.Items...)
	return &order, nil
}

func (r *OrderRepo) GetByIDForUpdate(ctx context.Context, id int64) (*models.Order, error) {
	order, err := r.GetByID(ctx, id)
	if order != nil {
		order.Items = nil
	}
	return order, err
}

func (r *OrderRepo) ListByUser(_ context.Context, userID int64, filter models.OrderFilter) ([]models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var orders []models.Order
	for _, order := range r.s.orders {
		if order.UserID != userID {
			continue
		}
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		order.Items = nil
		orders = append(orders, order)
	}
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return paginate(orders, filter.Pagination), nil
}

func (r *OrderRepo) ListPendingBefore(_ context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var orders []models.Order
	for _, order := range r.s.orders {
		if order.Status == models.OrderPending && order.CreatedAt.Before(cutoff) {
			order.Items = nil
			orders = append(orders, order)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.Before(orders[j].CreatedAt) })
	if len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

func (r *OrderRepo) SetPaymentID(_ context.Context, id, paymentID int64) error {
	return r.modify(id, func(o *models.Order) error {
		o.PaymentID = &paymentID
		return nil
	})
}

func (r *OrderRepo) UpdateStatus(_ context.Context, id int64, status models.OrderStatus, paymentStatus models.PaymentStatus) error {
	return r.modify(id, func(o *models.Order) error {
		if o.Status == models.OrderCancelled {
			return apperrors.ErrNotFound
		}
		o.Status = status
		o.PaymentStatus = paymentStatus
		return nil
	})
}

// Cancel reports ErrStateChanged for missing and already cancelled orders
func (r *OrderRepo) Cancel(_ context.Context, id int64, paymentStatus models.PaymentStatus) error {
	if _, ok := r.s.Order(id); !ok {
		return apperrors.ErrStateChanged
	}
	return r.modify(id, func(o *models.Order) error {
		if o.Status == models.OrderCancelled {
			return apperrors.ErrStateChanged
		}
		o.Status = models.OrderCancelled
		o.PaymentStatus = paymentStatus
		return nil
	})
}

func (r *OrderRepo) modify(id int64, fn func(*models.Order) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	order, ok := r.s.orders[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if err := fn(&order); err != nil {
		return err
	}
	order.UpdatedAt = r.s.now()
	r.s.orders[id] = order
	return nil
}

type UserRepo struct{ s *Store }

func (r *UserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	user.Roles = append([]models.Role(nil), user.Roles...)
	return &user, nil
}

func (r *UserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, user := range r.s.users {
		if user.Username == username {
			user.Roles = append([]models.Role(nil), user.Roles...)
			return &user, nil
		}
	}
	return nil, nil
}

func (r *UserRepo) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if existing.Username == user.Username {
			return apperrors.ErrDuplicate
		}
	}
	user.ID = r.s.id()
	user.CreatedAt = r.s.now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	stored.Roles = append([]models.Role(nil), user.Roles...)
	r.s.users[user.ID] = stored
	return nil
}

func (r *UserRepo) AddRole(_ context.Context, userID int64, role models.Role) error {
	return r.modify(userID, func(u *models.User) {
		if !u.HasRole(role) {
			u.Roles = append(append([]models.Role(nil), u.Roles...), role)
		}
	})
}

func (r *UserRepo) Update(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.users[user.ID]
	if !ok {
		return apperrors.ErrNotFound
	}
	for _, other := range r.s.users {
		if other.ID != user.ID && other.Username == user.Username {
			return apperrors.ErrDuplicate
		}
	}
	stored.Username = user.Username
	stored.Email = user.Email
	stored.FirstName = user.FirstName
	stored.LastName = user.LastName
	stored.Document = user.Document
	stored.DocumentType = user.DocumentType
	stored.UpdatedAt = r.s.now()
	user.UpdatedAt = stored.UpdatedAt
	r.s.users[user.ID] = stored
	return nil
}

func (r *UserRepo) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	return r.modify(id, func(u *models.User) { u.PasswordHash = passwordHash })
}

func (r *UserRepo) SetActive(_ context.Context, id int64, active bool) error {
	return r.modify(id, func(u *models.User) { u.Active = active })
}

func (r *UserRepo) SetRefreshToken(_ context.Context, id int64, hash *string, expiresAt *time.Time) error {
	return r.modify(id, func(u *models.User) {
		u.RefreshTokenHash = hash
		u.RefreshTokenExpiresAt = expiresAt
	})
}

func (r *UserRepo) RotateRefreshToken(_ context.Context, id int64, oldHash, newHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok || user.RefreshTokenHash == nil || *user.RefreshTokenHash != oldHash {
		return apperrors.ErrStateChanged
	}
	user.RefreshTokenHash = &newHash
	r.s.users[id] = user
	return nil
}

func (r *UserRepo) List(_ context.Context, filter models.UserFilter) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var users []models.User
	for _, user := range r.s.users {
		if filter.FirstName != "" && !strings.Contains(strings.ToLower(user.FirstName), strings.ToLower(filter.FirstName)) {
			continue
		}
		if filter.LastName != "" && !strings.Contains(strings.ToLower(user.LastName), strings.ToLower(filter.LastName)) {
			continue
		}
		if filter.Document != "" && user.Document != filter.Document {
			continue
		}
		if filter.Active != nil && user.Active != *filter.Active {
			continue
		}
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID > users[j].ID })
	return paginate(users, filter.Pagination), nil
}

func (r *UserRepo) modify(id int64, fn func(*models.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	fn(&user)
	user.UpdatedAt = r.s.now()
	r.s.users[id] = user
	return nil
}

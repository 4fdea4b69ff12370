package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticketnow/internal/clock"
	apperrors "ticketnow/internal/errors"
	"ticketnow/internal/logger"
	"ticketnow/internal/models"
	"ticketnow/internal/notification"
	"ticketnow/internal/validation"
)

const defaultSearchLimit = 20

type EventService struct {
	tx        Transactor
	eventRepo EventRepository
	publisher Publisher
	cache     EventListCache
	searcher  EventSearcher
	clock     clock.Clock
}

func NewEventService(deps Dependencies) *EventService {
	return &EventService{
		tx:        deps.Tx,
		eventRepo: deps.Events,
		publisher: deps.Publisher,
		cache:     deps.Cache,
		searcher:  deps.Searcher,
		clock:     deps.Clock,
	}
}

// Create registers a new event for the promoter. New events are active and
// wait for admin approval before going on sale.
func (s *EventService) Create(ctx context.Context, promoterID int64, req *models.CreateEventRequest) (notification.Result[*models.Event], error) {
	list := validation.CreateEvent.Validate(req)
	s.checkFutureDate(&list, req.EventDate)
	if list.HasAny() {
		return notification.FailList[*models.Event](list), nil
	}

	exists, err := s.eventRepo.ExistsByName(ctx, req.Name)
	if err != nil {
		return notification.Result[*models.Event]{}, fmt.Errorf("failed to check event name: %w", err)
	}
	if exists {
		return notification.Fail[*models.Event](notification.EventNameAlreadyTaken), nil
	}

	event := &models.Event{
		Name:            req.Name,
		Description:     req.Description,
		Address:         req.Address,
		City:            req.City,
		State:           req.State,
		Category:        req.Category,
		EventDate:       req.EventDate,
		TicketPrice:     req.TicketPrice,
		TicketAmount:    req.TicketAmount,
		TicketAvailable: req.TicketAmount,
		Active:          true,
		Approved:        false,
		PromoterID:      promoterID,
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return notification.Result[*models.Event]{}, fmt.Errorf("failed to create event: %w", err)
	}

	s.changed(ctx, models.SubjectEventCreated, event.ID, event)
	logger.WithContext(ctx).Info("Event created", "event_id", event.ID, "promoter_id", promoterID)

	return notification.OK(event), nil
}

// Update replaces the event details. Changing the ticket amount shifts the
// available tickets by the same delta and never drops below what was sold.
// The name is not re-checked for uniqueness.
func (s *EventService) Update(ctx context.Context, req *models.UpdateEventRequest) (notification.Result[*models.Event], error) {
	list := validation.UpdateEvent.Validate(req)
	s.checkFutureDate(&list, req.EventDate)
	if list.HasAny() {
		return notification.FailList[*models.Event](list), nil
	}

	var (
		event  *models.Event
		failed notification.List
	)
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		event, err = s.eventRepo.GetByIDForUpdate(ctx, req.ID)
		if err != nil {
			return fmt.Errorf("failed to get event: %w", err)
		}
		if event == nil || event.PromoterID != req.PromoterID {
			failed.Add(notification.EventNotFound)
			return nil
		}

		sold := event.TicketAmount - event.TicketAvailable
		if req.TicketAmount < sold {
			failed.Add(notification.TicketAmountBelowSold)
			return nil
		}

		event.Name = req.Name
		event.Description = req.Description
		event.Address = req.Address
		event.City = req.City
		event.State = req.State
		event.Category = req.Category
		event.EventDate = req.EventDate
		event.TicketPrice = req.TicketPrice
		event.TicketAmount = req.TicketAmount
		event.TicketAvailable = req.TicketAmount - sold

		if err := s.eventRepo.Update(ctx, event); err != nil {
			return fmt.Errorf("failed to update event: %w", err)
		}
		return nil
	})
	if err != nil {
		return notification.Result[*models.Event]{}, err
	}
	if failed.HasAny() {
		return notification.FailList[*models.Event](failed), nil
	}

	s.changed(ctx, models.SubjectEventUpdated, event.ID, event)
	return notification.OK(event), nil
}

func (s *EventService) Get(ctx context.Context, id int64) (notification.Result[*models.Event], error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return notification.Result[*models.Event]{}, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return notification.Fail[*models.Event](notification.EventNotFound), nil
	}
	return notification.OK(event), nil
}

// List returns the public listing, newest first
func (s *EventService) List(ctx context.Context, filter models.EventFilter, approved bool) (notification.Result[[]models.Event], error) {
	filter.Normalize()

	var cacheKey string
	if s.cache != nil {
		events, key, ok := s.cache.GetEvents(ctx, filter, approved)
		if ok {
			return notification.OK(events), nil
		}
		cacheKey = key
	}

	events, err := s.eventRepo.List(ctx, filter, approved)
	if err != nil {
		return notification.Result[[]models.Event]{}, fmt.Errorf("failed to list events: %w", err)
	}
	if events == nil {
		events = []models.Event{}
	}

	if s.cache != nil {
		s.cache.SetEvents(ctx, cacheKey, events)
	}
	return notification.OK(events), nil
}

func (s *EventService) ListByPromoter(ctx context.Context, promoterID int64, filter models.EventFilter) (notification.Result[[]models.Event], error) {
	if promoterID == 0 {
		return notification.Fail[[]models.Event](notification.InvalidPromoter), nil
	}
	filter.Normalize()

	events, err := s.eventRepo.ListByPromoter(ctx, promoterID, filter)
	if err != nil {
		return notification.Result[[]models.Event]{}, fmt.Errorf("failed to list promoter events: %w", err)
	}
	if events == nil {
		events = []models.Event{}
	}
	return notification.OK(events), nil
}

// SetState activates or deactivates an event owned by the promoter
func (s *EventService) SetState(ctx context.Context, promoterID, id int64, req *models.SetStateRequest) (notification.Result[*models.Event], error) {
	if list := validation.SetState.Validate(req); list.HasAny() {
		return notification.FailList[*models.Event](list), nil
	}

	event, err := s.ownedEvent(ctx, promoterID, id)
	if err != nil || event == nil {
		return notification.Fail[*models.Event](notification.EventNotFound), err
	}

	active := *req.Active
	if event.Active == active {
		if active {
			return notification.Fail[*models.Event](notification.EventAlreadyActive), nil
		}
		return notification.Fail[*models.Event](notification.EventAlreadyInactive), nil
	}

	if err := s.eventRepo.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return notification.Fail[*models.Event](notification.EventNotFound), nil
		}
		return notification.Result[*models.Event]{}, fmt.Errorf("failed to set event state: %w", err)
	}
	event.Active = active

	s.changed(ctx, models.SubjectEventStateChanged, event.ID, event)
	return notification.OK(event), nil
}

// Approve puts an event on sale. Approving twice is not an error.
func (s *EventService) Approve(ctx context.Context, id int64) (notification.Result[*models.Event], error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return notification.Result[*models.Event]{}, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return notification.Fail[*models.Event](notification.EventNotFound), nil
	}
	if event.Approved {
		return notification.OK(event), nil
	}

	if err := s.eventRepo.Approve(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return notification.Fail[*models.Event](notification.EventNotFound), nil
		}
		return notification.Result[*models.Event]{}, fmt.Errorf("failed to approve event: %w", err)
	}
	event.Approved = true

	s.changed(ctx, models.SubjectEventApproved, event.ID, event)
	logger.WithContext(ctx).Info("Event approved", "event_id", event.ID)

	return notification.OK(event), nil
}

// Delete removes an event owned by the promoter that has no orders
func (s *EventService) Delete(ctx context.Context, promoterID, id int64) (notification.Result[bool], error) {
	event, err := s.ownedEvent(ctx, promoterID, id)
	if err != nil || event == nil {
		return notification.Fail[bool](notification.EventNotFound), err
	}

	hasOrders, err := s.eventRepo.HasOrders(ctx, id)
	if err != nil {
		return notification.Result[bool]{}, fmt.Errorf("failed to check event orders: %w", err)
	}
	if hasOrders {
		return notification.Fail[bool](notification.EventDeleteConflict), nil
	}

	if err := s.eventRepo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrHasDependents):
			return notification.Fail[bool](notification.EventDeleteConflict), nil
		case errors.Is(err, apperrors.ErrNotFound):
			return notification.Fail[bool](notification.EventNotFound), nil
		}
		return notification.Result[bool]{}, fmt.Errorf("failed to delete event: %w", err)
	}

	s.changed(ctx, models.SubjectEventDeleted, id, nil)
	return notification.OK(true), nil
}

// Search runs a full-text query over events on sale. The database is used
// when the search index is disabled or failing.
func (s *EventService) Search(ctx context.Context, req *models.EventSearchRequest) (notification.Result[[]models.Event], error) {
	if list := validation.SearchEvents.Validate(req); list.HasAny() {
		return notification.FailList[[]models.Event](list), nil
	}
	limit := req.Limit
	if limit == 0 {
		limit = defaultSearchLimit
	}

	if s.searcher != nil {
		events, err := s.searchIndex(ctx, req.Query, limit)
		if err == nil {
			return notification.OK(events), nil
		}
		logger.WithContext(ctx).Warn("Search index unavailable, falling back to database", "error", err)
	}

	events, err := s.eventRepo.Search(ctx, req.Query, limit)
	if err != nil {
		return notification.Result[[]models.Event]{}, fmt.Errorf("failed to search events: %w", err)
	}
	if events == nil {
		events = []models.Event{}
	}
	return notification.OK(events), nil
}

// searchIndex loads the events behind the index hits in ranking order,
// dropping hits that are stale in the index.
func (s *EventService) searchIndex(ctx context.Context, text string, limit int) ([]models.Event, error) {
	ids, err := s.searcher.SearchEvents(ctx, text, limit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []models.Event{}, nil
	}

	found, err := s.eventRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load search hits: %w", err)
	}

	byID := make(map[int64]models.Event, len(found))
	for _, event := range found {
		byID[event.ID] = event
	}

	events := make([]models.Event, 0, len(ids))
	for _, id := range ids {
		if event, ok := byID[id]; ok && event.OnSale() {
			events = append(events, event)
		}
	}
	return events, nil
}

func (s *EventService) checkFutureDate(list *notification.List, date time.Time) {
	if !date.IsZero() && !date.After(s.clock.Now()) {
		list.Add(notification.New("event_date", "must be in the future"))
	}
}

func (s *EventService) ownedEvent(ctx context.Context, promoterID, id int64) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil || event.PromoterID != promoterID {
		return nil, nil
	}
	return event, nil
}

// changed invalidates cached listings and announces the mutation
func (s *EventService) changed(ctx context.Context, subject string, id int64, event *models.Event) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	publish(ctx, s.publisher, subject, models.EventChangedMessage{
		EventID:   id,
		Event:     event,
		Timestamp: s.clock.Now(),
	})
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"ticketnow/internal/auth"
	"ticketnow/internal/config"
	"ticketnow/internal/database"
	apperrors "ticketnow/internal/errors"
	"ticketnow/internal/logger"
	"ticketnow/internal/messaging"
	"ticketnow/internal/models"
	"ticketnow/internal/repository"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

var (
	eventCount = flag.Int("events", 20, "Number of demo events to generate")
	promoter   = flag.String("promoter", "demo-promoter", "Username of the promoter owning the events")
	password   = flag.String("password", "Promoter123", "Password of the promoter when it has to be created")
	seed       = flag.Int64("seed", 0, "Random seed (0 = time based)")
	dryRun     = flag.Bool("dry-run", false, "Show what would be generated without making changes")
)

var (
	cities = []struct{ City, State string }{
		{"Sao Paulo", "SP"},
		{"Rio de Janeiro", "RJ"},
		{"Belo Horizonte", "MG"},
		{"Curitiba", "PR"},
		{"Porto Alegre", "RS"},
		{"Recife", "PE"},
	}
	categories = []models.EventCategory{
		models.CategoryShow,
		models.CategoryTheater,
		models.CategorySports,
		models.CategoryFestival,
		models.CategoryStandup,
	}
	titles = map[models.EventCategory][]string{
		models.CategoryShow:     {"Rock Night", "Samba Session", "Indie Live", "Jazz Evening"},
		models.CategoryTheater:  {"Hamlet", "The Seagull", "Improv Night", "Musical Gala"},
		models.CategorySports:   {"Derby", "Volleyball Finals", "Grand Prix", "Marathon"},
		models.CategoryFestival: {"Summer Fest", "Food Festival", "Electronic Weekend", "Folk Fair"},
		models.CategoryStandup:  {"Comedy Club", "Open Mic", "Late Laughs", "Roast Night"},
	}
)

// EventGenerator fills the database with approved demo events
type EventGenerator struct {
	db        *database.DB
	repos     *repository.Repositories
	publisher *messaging.NATSClient
	rng       *rand.Rand
}

func main() {
	flag.Parse()
	_ = godotenv.Load()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.Get()

	log.Info("Starting event generator...")

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.RunMigrations(ctx); err != nil {
		log.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}

	generator := &EventGenerator{
		db:    db,
		repos: repository.NewRepositories(db),
		rng:   rand.New(rand.NewSource(s)),
	}

	// the worker indexes what the generator announces
	if cfg.NATS.Enabled && !*dryRun {
		cfg.NATS.ClientID = cfg.NATS.ClientID + "-generator"
		nc, err := messaging.NewNATSClient(cfg.NATS)
		if err != nil {
			log.Warn("NATS unavailable, generated events will not be indexed", "error", err)
		} else {
			generator.publisher = nc
			defer nc.Close()
		}
	}

	if err := generator.Run(ctx, *promoter, *password, *eventCount); err != nil {
		log.Error("Failed to generate events", "error", err)
		os.Exit(1)
	}

	log.Info("Event generation completed successfully!")
}

func (g *EventGenerator) Run(ctx context.Context, username, password string, count int) error {
	log := logger.Get()

	if *dryRun {
		for _, event := range generateEvents(g.rng, count, 0, time.Now()) {
			log.Info("[DRY RUN] Would create event",
				"name", event.Name,
				"city", event.City,
				"category", event.Category,
				"tickets", event.TicketAmount,
				"price", event.TicketPrice.String())
		}
		return nil
	}

	promoterID, err := g.ensurePromoter(ctx, username, password)
	if err != nil {
		return fmt.Errorf("failed to prepare promoter: %w", err)
	}

	events := generateEvents(g.rng, count, promoterID, time.Now())
	created := 0
	for i := range events {
		event := &events[i]
		exists, err := g.repos.Events.ExistsByName(ctx, event.Name)
		if err != nil {
			return fmt.Errorf("failed to check event name: %w", err)
		}
		if exists {
			log.Info("Event already exists, skipping", "name", event.Name)
			continue
		}

		if err := g.repos.Events.Create(ctx, event); err != nil {
			return fmt.Errorf("failed to create event %q: %w", event.Name, err)
		}
		created++
		g.announce(event)
		log.Info("Generated event", "event_id", event.ID, "name", event.Name, "tickets", event.TicketAmount)
	}

	log.Info("Events generated", "created", created, "requested", count)
	return nil
}

func (g *EventGenerator) ensurePromoter(ctx context.Context, username, password string) (int64, error) {
	user, err := g.repos.Users.GetByUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	if user != nil {
		if !user.HasRole(models.RolePromoter) {
			if err := g.repos.Users.AddRole(ctx, user.ID, models.RolePromoter); err != nil {
				return 0, err
			}
		}
		return user.ID, nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return 0, err
	}

	user = &models.User{
		Username:     username,
		Email:        username + "@ticketnow.local",
		PasswordHash: hash,
		FirstName:    "Demo",
		LastName:     "Promoter",
		Active:       true,
		Roles:        []models.Role{models.RolePromoter},
	}
	err = g.repos.Users.Create(ctx, user)
	if errors.Is(err, apperrors.ErrDuplicate) {
		return 0, fmt.Errorf("email of %s is taken by another user: %w", username, err)
	}
	if err != nil {
		return 0, err
	}
	logger.Get().Info("Created promoter", "username", username, "user_id", user.ID)
	return user.ID, nil
}

func (g *EventGenerator) announce(event *models.Event) {
	if g.publisher == nil {
		return
	}
	msg := models.EventChangedMessage{EventID: event.ID, Event: event, Timestamp: time.Now()}
	if err := g.publisher.Publish(models.SubjectEventCreated, msg); err != nil {
		logger.Get().Warn("Failed to publish event created", "event_id", event.ID, "error", err)
	}
}

// generateEvents builds approved, active events spread over the next months
func generateEvents(rng *rand.Rand, count int, promoterID int64, now time.Time) []models.Event {
	events := make([]models.Event, 0, count)
	for i := 0; i < count; i++ {
		category := categories[rng.Intn(len(categories))]
		names := titles[category]
		place := cities[rng.Intn(len(cities))]
		amount := (rng.Intn(19) + 2) * 50

		events = append(events, models.Event{
			Name:            fmt.Sprintf("%s #%d", names[rng.Intn(len(names))], i+1),
			Description:     fmt.Sprintf("%s in %s", category, place.City),
			Address:         fmt.Sprintf("Rua %d, %d", rng.Intn(900)+100, rng.Intn(2000)+1),
			City:            place.City,
			State:           place.State,
			Category:        category,
			EventDate:       now.Add(time.Duration(rng.Intn(180)+7) * 24 * time.Hour).Truncate(time.Hour),
			TicketPrice:     generatePrice(rng, category),
			TicketAmount:    amount,
			TicketAvailable: amount,
			Active:          true,
			Approved:        true,
			PromoterID:      promoterID,
		})
	}
	return events
}

func generatePrice(rng *rand.Rand, category models.EventCategory) decimal.Decimal {
	base := int64(40)
	switch category {
	case models.CategoryFestival, models.CategorySports:
		base = 120
	case models.CategoryTheater:
		base = 80
	}
	cents := base*100 + int64(rng.Intn(8000))
	return decimal.New(cents, -2)
}

package mockpayment

import "time"

// Config drives the mock gateway service
type Config struct {
	DSN         string
	Application ApplicationSeed

	// AutoSettleStatus, when set, moves every new payment to that status after AutoSettleDelay
	AutoSettleStatus string
	AutoSettleDelay  time.Duration

	WebhookRetries int
	WebhookTimeout time.Duration
}

// ApplicationSeed is the client application registered at startup
type ApplicationSeed struct {
	Name          string
	APIKey        string
	Username      string
	Password      string
	WebhookURL    string
	WebhookSecret string
}

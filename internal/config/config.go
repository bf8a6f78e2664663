package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port               string `envconfig:"PORT" default:"8080"`
	Environment        string `envconfig:"ENV" default:"development"`
	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`
	JWTSecret          string `envconfig:"JWT_SECRET" required:"true"`
	AdminAPIKey        string `envconfig:"ADMIN_API_KEY"`

	// Voice recording storage
	S3URL       string `envconfig:"S3_URL" required:"true"`
	S3Bucket    string `envconfig:"S3_BUCKET" required:"true"`
	S3Region    string `envconfig:"S3_REGION" required:"true"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY" required:"true"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY" required:"true"`

	// Domain event publishing
	GCPProjectID      string `envconfig:"GCP_PROJECT_ID"`
	PubSubEventsTopic string `envconfig:"PUBSUB_EVENTS_TOPIC" default:"finance-events"`

	// Stripe billing
	StripeSecretKey       string `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret   string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	StripePriceMonthly    string `envconfig:"STRIPE_PRICE_MONTHLY"`
	StripePriceAnnual     string `envconfig:"STRIPE_PRICE_ANNUAL"`
	StripePortalReturnURL string `envconfig:"STRIPE_PORTAL_RETURN_URL"`

	// Parser service settings
	ParserServiceBaseURL string `envconfig:"PARSER_SERVICE_BASE_URL" required:"true"`

	// Subscription settings
	TrialDays int `envconfig:"TRIAL_DAYS" default:"14"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDevelopment reports whether the app runs in local development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// Config is read once at startup and passed explicitly to every component.
type Config struct {
	Port int `envconfig:"PORT" default:"8080"`

	DatabaseDriver string `envconfig:"DATABASE_DRIVER" default:"sqlite3"`
	DatabaseURL    string `envconfig:"DATABASE_URL" default:"leads.db"`
	CSVPath        string `envconfig:"LEADS_CSV_PATH" default:"leads.csv"`
	MaxBodyBytes   int64  `envconfig:"MAX_BODY_BYTES" default:"10485760"`

	FrontendOrigin string `envconfig:"FRONTEND_ORIGIN"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS"`

	SMTPUser          string        `envconfig:"ZOHO_EMAIL"`
	SMTPPass          string        `envconfig:"ZOHO_APP_PASSWORD"`
	SMTPTo            string        `envconfig:"ZOHO_TO_EMAIL"`
	SMTPHost          string        `envconfig:"ZOHO_SMTP_HOST" default:"smtp.zoho.in"`
	SMTPPort          int           `envconfig:"ZOHO_SMTP_PORT" default:"465"`
	SMTPTimeout       time.Duration `envconfig:"ZOHO_SMTP_TIMEOUT" default:"30s"`
	SMTPRatePerMinute float64       `envconfig:"ZOHO_SMTP_RATE_PER_MINUTE" default:"0"`

	// Origins is the resolved cross-origin allow-list. A nil slice means
	// every origin is allowed.
	Origins []string `ignored:"true"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// A missing .env is the normal case in production.
	_ = godotenv.Load()

	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, errors.WithStack(err)
	}

	c.SMTPUser = strings.TrimSpace(c.SMTPUser)
	c.SMTPPass = strings.TrimSpace(c.SMTPPass)
	c.SMTPHost = strings.TrimSpace(c.SMTPHost)
	c.SMTPTo = strings.TrimSpace(c.SMTPTo)
	if c.SMTPTo == "" {
		c.SMTPTo = c.SMTPUser
	}

	switch c.DatabaseDriver {
	case "sqlite3", "postgres":
	default:
		return nil, errors.Errorf("invalid DATABASE_DRIVER %q: want sqlite3 or postgres", c.DatabaseDriver)
	}
	if c.MaxBodyBytes <= 0 {
		return nil, errors.Errorf("invalid MAX_BODY_BYTES %d", c.MaxBodyBytes)
	}
	if c.SMTPRatePerMinute < 0 {
		return nil, errors.Errorf("invalid ZOHO_SMTP_RATE_PER_MINUTE %v", c.SMTPRatePerMinute)
	}

	c.Origins = ResolveOrigins(c.AllowedOrigins, c.FrontendOrigin)
	return &c, nil
}

// ResolveOrigins applies the allow-list precedence: an explicit list wins over
// a single origin, and neither (or "*") yields nil, meaning wildcard.
func ResolveOrigins(allowList, single string) []string {
	var origins []string
	for _, o := range strings.Split(allowList, ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			return nil
		}
		if o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) > 0 {
		return origins
	}

	single = strings.TrimRight(strings.TrimSpace(single), "/")
	if single == "" || single == "*" {
		return nil
	}
	return []string{single}
}

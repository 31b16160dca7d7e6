// Package config reads the process configuration from the environment once,
// at startup. Nothing else in the service looks at environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/ARUMANDESU/validation"
	"github.com/ARUMANDESU/validation/is"
	goenv "github.com/caarlos0/env/v11"
	"golang.org/x/crypto/bcrypt"

	"gitlab.com/eatsapp/accounts-backend/pkg/env"
)

type MailDelivery string

const (
	// DeliveryQueue stores mails in the outbox and lets the consumer send them.
	DeliveryQueue MailDelivery = "queue"
	// DeliveryDirect sends over SMTP inside the request.
	DeliveryDirect MailDelivery = "direct"
)

const minProdSecretLen = 16

type Config struct {
	Mode            string        `env:"MODE" envDefault:"dev"`
	Port            int           `env:"PORT" envDefault:"8080"`
	PgDSN           string        `env:"PG_DSN,required"`
	TokenSecret     string        `env:"TOKEN_SECRET,required"`
	TokenTTL        time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	BcryptCost      int           `env:"BCRYPT_COST" envDefault:"12"`
	MailDelivery    MailDelivery  `env:"MAIL_DELIVERY" envDefault:"queue"`
	OTelEnabled     bool          `env:"OTEL_ENABLED" envDefault:"false"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	SMTP SMTP
}

type SMTP struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"MAIL_FROM" envDefault:"Eats <no-reply@eats.local>"`
}

// Load parses the process environment and validates the result.
func Load() (*Config, error) {
	return parse(goenv.Options{})
}

// LoadFrom parses vars instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(goenv.Options{Environment: vars})
}

func parse(opts goenv.Options) (*Config, error) {
	cfg, err := goenv.ParseAsWithOptions[Config](opts)
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c Config) RunMode() env.Mode {
	return env.Mode(c.Mode)
}

func (c Config) Validate() error {
	prod := c.RunMode() == env.Prod
	return validation.ValidateStruct(&c,
		validation.Field(&c.Mode, validation.Required, validation.In("test", "local", "dev", "prod")),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.PgDSN, validation.Required),
		validation.Field(&c.TokenSecret, validation.Required, validation.When(prod, validation.Length(minProdSecretLen, 0))),
		validation.Field(&c.TokenTTL, validation.Min(time.Duration(0))),
		validation.Field(&c.BcryptCost, validation.Min(bcrypt.MinCost), validation.Max(bcrypt.MaxCost)),
		validation.Field(&c.MailDelivery, validation.In(DeliveryQueue, DeliveryDirect)),
		validation.Field(&c.ShutdownTimeout, validation.Min(time.Second)),
		validation.Field(&c.SMTP, validation.By(func(any) error {
			return c.SMTP.validate(prod)
		})),
	)
}

func (s SMTP) validate(prod bool) error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Host, validation.When(prod, validation.Required), is.Host),
		validation.Field(&s.Port, validation.Min(1), validation.Max(65535)),
		validation.Field(&s.From, validation.Required),
	)
}

package config

import (
	"fmt"
	"strings"

	env "github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	JWTExpiryS  int    `env:"JWT_EXPIRY_S" envDefault:"86400"`

	ProviderURL          string `env:"PROVIDER_URL" envDefault:"http://mock-provider:8081"`
	ProviderToken        string `env:"PROVIDER_TOKEN" envDefault:""`
	ProviderTimeoutS     int    `env:"PROVIDER_TIMEOUT_S" envDefault:"5"`
	ProviderPaidStatuses string `env:"PROVIDER_PAID_STATUSES" envDefault:"paid,approved,concluida"`
	WebhookSecret        string `env:"WEBHOOK_SECRET,required"`

	TransactionFee string `env:"TRANSACTION_FEE" envDefault:"0.20"`
	ChargeExpiryS  int    `env:"CHARGE_EXPIRY_S" envDefault:"3600"`

	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv   string `env:"APP_ENV" envDefault:"production"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// Fee parses the per-transaction fee charged on completed received
// transactions.
func (c *Config) Fee() (decimal.Decimal, error) {
	fee, err := decimal.NewFromString(c.TransactionFee)
	if err != nil {
		return decimal.Zero, fmt.Errorf("config.Fee: parse %q: %w", c.TransactionFee, err)
	}
	if fee.IsNegative() {
		return decimal.Zero, fmt.Errorf("config.Fee: %q must not be negative", c.TransactionFee)
	}
	return fee, nil
}

// PaidStatuses returns the provider status codes treated as payment
// confirmation, lowercased. The provider vocabulary changes between
// API revisions, so this is configuration rather than a literal.
func (c *Config) PaidStatuses() []string {
	parts := strings.Split(c.ProviderPaidStatuses, ",")
	statuses := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.ToLower(strings.TrimSpace(p)); s != "" {
			statuses = append(statuses, s)
		}
	}
	return statuses
}

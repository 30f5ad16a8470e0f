package config

type App struct {
	Port          string `env:"APP_PORT" default:"8080"`
	JWTSecret     string `env:"JWT_SECRET" default:"local_dev_secret"`
	DatabaseURL   string `env:"DATABASE_URL"`
	EscrowAccount string `env:"ESCROW_ACCOUNT" default:"ledger.escrow"`
	Env           string `env:"APP_ENV" default:"dev"`
}

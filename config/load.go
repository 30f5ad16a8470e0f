package config

import "os"

func Load() App {
	cfg := App{
		Port:          getenv("APP_PORT", "8080"),
		JWTSecret:     getenv("JWT_SECRET", "local_dev_secret"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		EscrowAccount: getenv("ESCROW_ACCOUNT", "ledger.escrow"),
		Env:           getenv("APP_ENV", "dev"),
	}
	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

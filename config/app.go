package config

import "time"

type App struct {
	Port        string `env:"APP_PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	Env         string `env:"APP_ENV" default:"dev"`

	UserServiceURL string `env:"USER_SERVICE_URL"`
	BookServiceURL string `env:"BOOK_SERVICE_URL"`
	LoanServiceURL string `env:"LOAN_SERVICE_URL"`

	RemoteTimeout           time.Duration `env:"REMOTE_TIMEOUT" default:"5s"`
	BreakerFailureThreshold uint32        `env:"BREAKER_FAILURE_THRESHOLD" default:"3"`
	BreakerResetAfter       time.Duration `env:"BREAKER_RESET_AFTER" default:"30s"`
}

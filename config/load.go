package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

func Load() App {
	cfg := App{
		Port:        getenv("APP_PORT", "8080"),
		DatabaseURL: must("DATABASE_URL"),
		Env:         getenv("APP_ENV", "dev"),

		UserServiceURL: getenv("USER_SERVICE_URL", "http://user-service:8081"),
		BookServiceURL: getenv("BOOK_SERVICE_URL", "http://book-service:8082"),
		LoanServiceURL: getenv("LOAN_SERVICE_URL", "http://loan-service:8083"),

		RemoteTimeout:           duration("REMOTE_TIMEOUT", 5*time.Second),
		BreakerFailureThreshold: uint32(integer("BREAKER_FAILURE_THRESHOLD", 3)),
		BreakerResetAfter:       duration("BREAKER_RESET_AFTER", 30*time.Second),
	}
	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		slog.Error("required env missing", "key", k)
		panic("missing env " + k)
	}
	return v
}

func duration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("bad duration env, using default", "key", k, "value", v, "default", def)
		return def
	}
	return d
}

func integer(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("bad numeric env, using default", "key", k, "value", v, "default", def)
		return def
	}
	return n
}

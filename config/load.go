package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

func Load() App {
	// Local dev convenience, deployments set real env vars.
	_ = godotenv.Load()

	cfg := App{
		Port:        getenv("APP_PORT", "8080"),
		DatabaseURL: must("DATABASE_URL"),
		JWTSecret:   getenv("JWT_SECRET", "local_dev_secret"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),

		AuthProvider: getenv("AUTH_PROVIDER", "local"),
		LDAPURL:      os.Getenv("LDAP_URL"),
		LDAPBaseDN:   os.Getenv("LDAP_BASE_DN"),
		LDAPDomain:   os.Getenv("LDAP_DOMAIN"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getint("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),

		ImageDir:         getenv("IMAGE_DIR", "./images"),
		SchedulerEnabled: getenv("SCHEDULER_ENABLED", "true") == "true",
		LogLevel:         getenv("LOG_LEVEL", "info"),
		Env:              getenv("APP_ENV", "dev"),
	}
	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("bad numeric env, using default", "key", k, "value", v)
		return def
	}
	return n
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		slog.Error("required env missing", "key", k)
		panic("missing env " + k)
	}
	return v
}

package config

type App struct {
	Port        string `env:"APP_PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	RedisAddr   string `env:"REDIS_ADDR"`

	// AuthProvider selects "ldap" or "local".
	AuthProvider string `env:"AUTH_PROVIDER" default:"local"`
	LDAPURL      string `env:"LDAP_URL"`
	LDAPBaseDN   string `env:"LDAP_BASE_DN"`
	LDAPDomain   string `env:"LDAP_DOMAIN"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" default:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`

	ImageDir         string `env:"IMAGE_DIR" default:"./images"`
	SchedulerEnabled bool   `env:"SCHEDULER_ENABLED" default:"true"`
	LogLevel         string `env:"LOG_LEVEL" default:"info"`
	Env              string `env:"APP_ENV" default:"dev"`
}

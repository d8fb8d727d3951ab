package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServiceName string

	ServerPort int
	LogLevel   string

	DatabaseURL string
	AutoMigrate bool

	JWTAccessSecret  []byte
	JWTRefreshSecret []byte
	AccessTTL        time.Duration
	RefreshTTL       time.Duration

	KafkaBrokers      []string
	KafkaOrderTopic   string
	KafkaCatalogTopic string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	Admin AdminSeed
}

// AdminSeed describes the account created at startup when it does not exist yet.
type AdminSeed struct {
	Username string
	Password string
	Email    string
	Phone    string
}

func (a AdminSeed) Enabled() bool {
	return a.Username != "" && a.Password != ""
}

func Load() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "sale"),

		ServerPort: EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:   os.Getenv("LOG_LEVEL"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		AutoMigrate: EnvBoolDefault("AUTO_MIGRATE", true),

		JWTAccessSecret:  []byte(os.Getenv("JWT_SECRET")),
		JWTRefreshSecret: []byte(os.Getenv("JWT_REFRESH_SECRET")),
		AccessTTL:        EnvDurationDefault("JWT_ACCESS_TTL", 15*time.Minute),
		RefreshTTL:       EnvDurationDefault("JWT_REFRESH_TTL", 7*24*time.Hour),

		KafkaBrokers:      CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaOrderTopic:   EnvDefault("KAFKA_ORDER_TOPIC", "order_events"),
		KafkaCatalogTopic: EnvDefault("KAFKA_CATALOG_TOPIC", "product_events"),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "products"),

		Admin: AdminSeed{
			Username: os.Getenv("ADMIN_USERNAME"),
			Password: os.Getenv("ADMIN_PASSWORD"),
			Email:    os.Getenv("ADMIN_EMAIL"),
			Phone:    os.Getenv("ADMIN_PHONE"),
		},
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

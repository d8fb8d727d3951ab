package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCSV(t *testing.T) {
	t.Parallel()

	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092, ,b:9092 "))
}

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"SERVICE_NAME", "SERVER_PORT", "JWT_ACCESS_TTL", "KAFKA_BROKERS", "ES_INDEX", "AUTO_MIGRATE", "ADMIN_USERNAME"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, "sale", cfg.ServiceName)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "products", cfg.ESIndex)
	assert.True(t, cfg.AutoMigrate)
	assert.False(t, cfg.Admin.Enabled())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_ACCESS_TTL", "5m")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("ADMIN_USERNAME", "root")
	t.Setenv("ADMIN_PASSWORD", "rootroot")

	cfg := Load()

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, 5*time.Minute, cfg.AccessTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.False(t, cfg.AutoMigrate)
	assert.True(t, cfg.Admin.Enabled())
}

func TestEnvParsers_FallBackOnGarbage(t *testing.T) {
	t.Setenv("X_INT", "abc")
	t.Setenv("X_DUR", "-1s")
	t.Setenv("X_BOOL", "maybe")

	assert.Equal(t, 7, EnvIntDefault("X_INT", 7))
	assert.Equal(t, time.Second, EnvDurationDefault("X_DUR", time.Second))
	assert.True(t, EnvBoolDefault("X_BOOL", true))
}

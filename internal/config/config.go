package config

import (
	"strconv"

	"github.com/Skotchmaster/sale/pkg/config"
)

type ServiceConfig struct {
	config.Config
}

func Load() ServiceConfig {
	cfg := config.Load()

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmptyBytes(cfg.JWTRefreshSecret, "JWT_REFRESH_SECRET")
	config.MustMinLen(cfg.JWTAccessSecret, 16, "JWT_SECRET")
	config.MustMinLen(cfg.JWTRefreshSecret, 16, "JWT_REFRESH_SECRET")

	return ServiceConfig{Config: cfg}
}

func (c ServiceConfig) Addr() string {
	if c.ServerPort <= 0 {
		return ":8080"
	}
	return ":" + strconv.Itoa(c.ServerPort)
}

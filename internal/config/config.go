package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type CacheConfig struct {
	OwnerLookupSize       int `json:"owner_lookup_size"`
	OwnerLookupTTLSeconds int `json:"owner_lookup_ttl_seconds"`
}

type Config struct {
	Port           int              `json:"port"`
	JWTSecret      string           `json:"jwt_secret"`
	JWTTTLHours    int              `json:"jwt_ttl_hours"`
	Database       DatabaseConfig   `json:"database"`
	LogConfig      logger.LogConfig `json:"log_config"`
	Cache          CacheConfig      `json:"cache"`
	CORSAllowlist  []string         `json:"cors_allowlist"`
	OverlayRepair  string           `json:"overlay_repair_cron"`
	EnableRegister bool             `json:"enable_register"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.Database.DSN == "" && (cfg.Database.Host == "" || cfg.Database.DBName == "") {
		return nil, fmt.Errorf("database.dsn or database.host/db_name is required")
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 72
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Cache.OwnerLookupSize == 0 {
		cfg.Cache.OwnerLookupSize = 4096
	}
	if cfg.Cache.OwnerLookupTTLSeconds == 0 {
		cfg.Cache.OwnerLookupTTLSeconds = 300
	}
	if cfg.OverlayRepair == "" {
		cfg.OverlayRepair = "30 4 * * *"
	}
	return &cfg, nil
}

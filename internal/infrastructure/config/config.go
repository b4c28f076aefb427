package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "github.com/sunstrike-inc/sunstrike/internal/shared/config"
	"github.com/sunstrike-inc/sunstrike/internal/shared/constants"
)

type Config struct {
	Server     sharedConfig.ServerConfig     `mapstructure:"server"`
	Database   sharedConfig.DatabaseConfig   `mapstructure:"database"`
	Logger     sharedConfig.LoggerConfig     `mapstructure:"logger"`
	Auth       sharedConfig.AuthConfig       `mapstructure:"auth"`
	Redis      sharedConfig.RedisConfig      `mapstructure:"redis"`
	Proxy      sharedConfig.ProxyConfig      `mapstructure:"proxy"`
	VLESS      sharedConfig.VLESSConfig      `mapstructure:"vless"`
	Reconciler sharedConfig.ReconcilerConfig `mapstructure:"reconciler"`
	RateLimit  sharedConfig.RateLimitConfig  `mapstructure:"rate_limit"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables
func Load(env string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../configs")
	viper.AddConfigPath("../../configs")

	viper.SetEnvPrefix("SUNSTRIKE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Allow env parameter to override server mode if provided
	if env != "" && env != "default" {
		viper.Set("server.mode", env)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, err
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

func validate(cfg *Config) error {
	if cfg.VLESS.Host == "" {
		return fmt.Errorf("vless.host is required")
	}
	if cfg.VLESS.RealityPublicKey == "" || cfg.VLESS.RealityShortID == "" || cfg.VLESS.RealityServerName == "" {
		return fmt.Errorf("vless reality parameters are required")
	}
	if cfg.VLESS.Port < 1 || cfg.VLESS.Port > 65535 {
		return fmt.Errorf("vless.port must be between 1 and 65535, got %d", cfg.VLESS.Port)
	}
	if cfg.Auth.Admin.Username == "" || cfg.Auth.Admin.PasswordHash == "" {
		return fmt.Errorf("auth.admin credentials are required")
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.username", "root")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.database", "sunstrike_dev")
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("database.conn_max_lifetime", 60)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("logger.output_path", "stdout")

	// Auth defaults
	viper.SetDefault("auth.password.bcrypt_cost", 12)
	viper.SetDefault("auth.jwt.secret", "change-me-in-production")
	viper.SetDefault("auth.jwt.access_exp_minutes", 30)
	viper.SetDefault("auth.admin.username", "")
	viper.SetDefault("auth.admin.password_hash", "")

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Proxy defaults
	viper.SetDefault("proxy.config_path", "/usr/local/etc/xray/config.json")
	viper.SetDefault("proxy.binary_path", "/usr/local/bin/xray")
	viper.SetDefault("proxy.service_name", "xray")
	viper.SetDefault("proxy.reload_timeout_seconds", 15)
	viper.SetDefault("proxy.restart_settle_seconds", 2)

	// VLESS defaults
	viper.SetDefault("vless.port", 443)
	viper.SetDefault("vless.fingerprint", "chrome")
	viper.SetDefault("vless.flow", "")
	viper.SetDefault("vless.remark", "")
	viper.SetDefault("vless.email_domain", constants.DefaultEmailDomain)

	// Reconciler defaults
	viper.SetDefault("reconciler.interval_seconds", 60)
	viper.SetDefault("reconciler.retain_link_on_deactivate", true)

	// Rate limit defaults
	viper.SetDefault("rate_limit.login_per_minute", 5)
	viper.SetDefault("rate_limit.login_per_hour", 30)
}

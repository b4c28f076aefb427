package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type JWTConfig struct {
	Secret           string `mapstructure:"secret"`
	AccessExpMinutes int    `mapstructure:"access_exp_minutes"`
}

type AdminConfig struct {
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"password_hash"`
}

type PasswordConfig struct {
	BcryptCost int `mapstructure:"bcrypt_cost"`
}

type AuthConfig struct {
	Password PasswordConfig `mapstructure:"password"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Admin    AdminConfig    `mapstructure:"admin"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// ProxyConfig describes how to reach and control the local xray process.
type ProxyConfig struct {
	ConfigPath           string `mapstructure:"config_path"`
	BinaryPath           string `mapstructure:"binary_path"`
	ServiceName          string `mapstructure:"service_name"`
	ReloadTimeoutSeconds int    `mapstructure:"reload_timeout_seconds"`
	RestartSettleSeconds int    `mapstructure:"restart_settle_seconds"`
}

func (p *ProxyConfig) ReloadTimeout() time.Duration {
	return time.Duration(p.ReloadTimeoutSeconds) * time.Second
}

func (p *ProxyConfig) RestartSettle() time.Duration {
	return time.Duration(p.RestartSettleSeconds) * time.Second
}

// VLESSConfig carries the server-side identity baked into generated
// connection links and the base inbound of the xray configuration.
type VLESSConfig struct {
	Host              string `mapstructure:"host"`
	Port              int    `mapstructure:"port"`
	RealityPrivateKey string `mapstructure:"reality_private_key"`
	RealityPublicKey  string `mapstructure:"reality_public_key"`
	RealityServerName string `mapstructure:"reality_server_name"`
	RealityShortID    string `mapstructure:"reality_short_id"`
	Fingerprint       string `mapstructure:"fingerprint"`
	Flow              string `mapstructure:"flow"`
	Remark            string `mapstructure:"remark"`
	EmailDomain       string `mapstructure:"email_domain"`
}

type ReconcilerConfig struct {
	IntervalSeconds        int  `mapstructure:"interval_seconds"`
	RetainLinkOnDeactivate bool `mapstructure:"retain_link_on_deactivate"`
}

func (r *ReconcilerConfig) Interval() time.Duration {
	return time.Duration(r.IntervalSeconds) * time.Second
}

type RateLimitConfig struct {
	LoginPerMinute int `mapstructure:"login_per_minute"`
	LoginPerHour   int `mapstructure:"login_per_hour"`
}

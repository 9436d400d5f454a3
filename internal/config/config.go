package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port                  int              `json:"port"`
	JWTSecret             string           `json:"jwt_secret"`
	AccessTokenTTLMinutes int              `json:"access_token_ttl_minutes"`
	Database              DatabaseConfig   `json:"database"`
	Mail                  MailConfig       `json:"mail"`
	CleanupCron           string           `json:"cleanup_cron"`
	CORSAllowlist         []string         `json:"cors_allowlist"`
	LogConfig             logger.LogConfig `json:"log_config"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type MailConfig struct {
	Provider     string     `json:"provider"`
	APIKey       string     `json:"api_key"`
	FromName     string     `json:"from_name"`
	FromEmail    string     `json:"from_email"`
	ResetURLBase string     `json:"reset_url_base"`
	SMTP         SMTPConfig `json:"smtp"`
}

type SMTPConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
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
	cfg.applyEnv()
	if cfg.Port == 0 {
		cfg.Port = 3000
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.AccessTokenTTLMinutes == 0 {
		cfg.AccessTokenTTLMinutes = 15
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.CleanupCron == "" {
		cfg.CleanupCron = "*/30 * * * *"
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	switch cfg.Mail.Provider {
	case "", "resend":
		cfg.Mail.Provider = "resend"
		if cfg.Mail.APIKey == "" {
			return nil, fmt.Errorf("mail.api_key is required for resend")
		}
	case "smtp":
		if cfg.Mail.SMTP.Host == "" || cfg.Mail.SMTP.Port == 0 {
			return nil, fmt.Errorf("mail.smtp host/port are required for smtp")
		}
	default:
		return nil, fmt.Errorf("mail.provider must be resend or smtp")
	}
	if cfg.Mail.FromName == "" {
		cfg.Mail.FromName = "Spike"
	}
	if cfg.Mail.FromEmail == "" {
		cfg.Mail.FromEmail = "onboarding@resend.dev"
	}
	return &cfg, nil
}

// applyEnv lets the process environment override file-borne secrets, so
// deployments can keep credentials out of the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("RESEND_API_KEY"); v != "" {
		c.Mail.APIKey = v
	}
	if v := os.Getenv("MAIL_FROM_NAME"); v != "" {
		c.Mail.FromName = v
	}
	if v := os.Getenv("MAIL_FROM_EMAIL"); v != "" {
		c.Mail.FromEmail = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		c.Mail.SMTP.Password = v
	}
	if v := os.Getenv("CORS_ALLOWLIST"); v != "" {
		c.CORSAllowlist = strings.Split(v, ",")
	}
}

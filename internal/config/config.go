// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultSessionSecret = "digitalaxis-session-secret-change-me"

// Config holds application configuration values loaded from .env and environment variables.
type Config struct {
	Port     string `mapstructure:"PORT"`
	Env      string `mapstructure:"APP_ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`
	RedisURL    string `mapstructure:"REDIS_URL"`

	SessionSecret     string `mapstructure:"SESSION_SECRET"`
	AdminPasswordHash string `mapstructure:"ADMIN_PASSWORD_HASH"`
	AdminEmail        string `mapstructure:"ADMIN_EMAIL"`

	SiteURL    string `mapstructure:"SITE_URL"`
	SiteAuthor string `mapstructure:"SITE_AUTHOR"`

	RateLimitEnabled bool `mapstructure:"RATE_LIMIT_ENABLED"`

	GitHubOwner    string `mapstructure:"GITHUB_OWNER"`
	GitHubRepo     string `mapstructure:"GITHUB_REPO"`
	GitHubToken    string `mapstructure:"GITHUB_TOKEN"`
	GitHubBranch   string `mapstructure:"GITHUB_BRANCH"`
	GitHubPostsDir string `mapstructure:"GITHUB_POSTS_DIR"`
	ContentDir     string `mapstructure:"CONTENT_DIR"`

	IndexNowKey      string `mapstructure:"INDEXNOW_KEY"`
	IndexNowEndpoint string `mapstructure:"INDEXNOW_ENDPOINT"`

	SMTPHost string `mapstructure:"SMTP_HOST"`
	SMTPPort int    `mapstructure:"SMTP_PORT"`
	SMTPUser string `mapstructure:"SMTP_USER"`
	SMTPPass string `mapstructure:"SMTP_PASS"`
	SMTPFrom string `mapstructure:"SMTP_FROM"`
}

var defaults = map[string]any{
	"PORT":                "8080",
	"APP_ENV":             "development",
	"LOG_LEVEL":           "info",
	"DATABASE_URL":        "",
	"REDIS_URL":           "",
	"SESSION_SECRET":      defaultSessionSecret,
	"ADMIN_PASSWORD_HASH": "",
	"ADMIN_EMAIL":         "",
	"SITE_URL":            "http://localhost:8080",
	"SITE_AUTHOR":         "DigitalAxis",
	"RATE_LIMIT_ENABLED":  true,
	"GITHUB_OWNER":        "",
	"GITHUB_REPO":         "",
	"GITHUB_TOKEN":        "",
	"GITHUB_BRANCH":       "main",
	"GITHUB_POSTS_DIR":    "posts",
	"CONTENT_DIR":         "posts",
	"INDEXNOW_KEY":        "",
	"INDEXNOW_ENDPOINT":   "https://api.indexnow.org/indexnow",
	"SMTP_HOST":           "",
	"SMTP_PORT":           587,
	"SMTP_USER":           "",
	"SMTP_PASS":           "",
	"SMTP_FROM":           "",
}

// Load reads .env (if present) and the environment into a validated Config.
func Load() (*Config, error) {
	// .env 文件不存在时使用环境变量
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	v := viper.New()
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.SiteURL = strings.TrimRight(strings.TrimSpace(c.SiteURL), "/")
	c.AdminEmail = strings.TrimSpace(c.AdminEmail)
	c.GitHubPostsDir = strings.Trim(c.GitHubPostsDir, "/")
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// UsesGitHub 配置了仓库时文章从 GitHub 读取，否则读本地目录
func (c *Config) UsesGitHub() bool {
	return c.GitHubOwner != "" && c.GitHubRepo != ""
}

// MailEnabled reports whether SMTP delivery is configured.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPUser != ""
}

// Validate ensures that required configuration values are present.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	if u, err := url.Parse(c.SiteURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("SITE_URL must be an absolute URL, got %q", c.SiteURL)
	}
	if (c.GitHubOwner == "") != (c.GitHubRepo == "") {
		return errors.New("GITHUB_OWNER and GITHUB_REPO must be set together")
	}
	if c.SMTPPort <= 0 {
		return errors.New("SMTP_PORT must be positive")
	}
	if c.AdminPasswordHash != "" && !strings.HasPrefix(c.AdminPasswordHash, "$2") {
		return errors.New("ADMIN_PASSWORD_HASH must be a bcrypt hash")
	}

	if c.IsProduction() {
		if c.SessionSecret == defaultSessionSecret {
			return errors.New("SESSION_SECRET must be changed from the default value in production")
		}
		if len(c.SessionSecret) < 32 {
			return errors.New("SESSION_SECRET must be at least 32 characters in production")
		}
		if c.AdminPasswordHash == "" {
			return errors.New("ADMIN_PASSWORD_HASH is required in production")
		}
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required in production")
		}
	} else if c.AdminPasswordHash == "" {
		log.Println("WARNING: ADMIN_PASSWORD_HASH is empty, admin login is disabled")
	}

	return nil
}

package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Email     EmailConfig     `yaml:"email"`
	Redis     RedisConfig     `yaml:"redis"`
	AI        AIConfig        `yaml:"ai"`
	Reminders RemindersConfig `yaml:"reminders"`
	Audit     AuditConfig     `yaml:"audit"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Host      string   `yaml:"host"`
	Port      string   `yaml:"port"`
	Mode      string   `yaml:"mode"` // debug, release, test
	ClientURL string   `yaml:"client_url"`
	Origins   []string `yaml:"origins"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
}

type JWTConfig struct {
	Secret             string `yaml:"secret"`
	ExpireHour         int    `yaml:"expire_hour"`
	RefreshExpireHours int    `yaml:"refresh_expire_hours"`
}

// EmailConfig selects the notification transport. When Host or Username is
// empty, or Mock is set, mail is logged instead of sent.
type EmailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	FromName string `yaml:"from_name"`
	UseTLS   bool   `yaml:"use_tls"` // implicit TLS, usually port 465
	Mock     bool   `yaml:"mock"`
}

// UseMock reports whether the mock transport should be used.
func (e EmailConfig) UseMock() bool {
	return e.Mock || e.Host == "" || e.Username == ""
}

// RedisConfig for the optional async notification queue
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AIConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Provider    string  `yaml:"provider"` // openai, azure, anthropic, ollama, gemini
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	APIVersion  string  `yaml:"api_version"` // azure only
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

type RemindersConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Cron           string `yaml:"cron"`
	LeadDays       int    `yaml:"lead_days"`
	HolidayCountry string `yaml:"holiday_country"`
}

type AuditConfig struct {
	Enabled       bool `yaml:"enabled"`
	RetentionDays int  `yaml:"retention_days"`
}

type RateLimitConfig struct {
	AuthPerMinute int `yaml:"auth_per_minute"`
	AuthBurst     int `yaml:"auth_burst"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configPath over the defaults, then applies .env and environment
// overrides. A missing file is not an error.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	// .env only fills variables that are not already set
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cfg.overrideFromEnv()
	return cfg, nil
}

// DefaultJWTSecret is only suitable for local development.
const DefaultJWTSecret = "naccer-secret-key-change-in-production"

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      "5000",
			Mode:      "debug",
			ClientURL: "http://localhost:3000",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "naccer.db",
		},
		JWT: JWTConfig{
			Secret:             DefaultJWTSecret,
			ExpireHour:         24 * 7,
			RefreshExpireHours: 24 * 30,
		},
		Email: EmailConfig{
			Host:     "smtp.gmail.com",
			Port:     587,
			FromName: "NaCCER Portal",
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
		},
		AI: AIConfig{
			Enabled:     false,
			Provider:    "openai",
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			MaxTokens:   1024,
			Temperature: 0.3,
		},
		Reminders: RemindersConfig{
			Enabled:        true,
			Cron:           "0 9 * * *",
			LeadDays:       2,
			HolidayCountry: "NONE",
		},
		Audit: AuditConfig{
			Enabled:       true,
			RetentionDays: 90,
		},
		RateLimit: RateLimitConfig{
			AuthPerMinute: 20,
			AuthBurst:     10,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// AllowedOrigins returns the CORS origins, falling back to the client URL.
func (c *Config) AllowedOrigins() []string {
	if len(c.Server.Origins) > 0 {
		return c.Server.Origins
	}
	if c.Server.ClientURL != "" {
		return []string{c.Server.ClientURL}
	}
	return []string{"*"}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	} else if port := os.Getenv("PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if clientURL := os.Getenv("CLIENT_URL"); clientURL != "" {
		c.Server.ClientURL = clientURL
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.JWT.Secret = secret
	}
	if hours, err := strconv.Atoi(os.Getenv("JWT_EXPIRE_HOURS")); err == nil && hours > 0 {
		c.JWT.ExpireHour = hours
	}
	if host := os.Getenv("EMAIL_HOST"); host != "" {
		c.Email.Host = host
	}
	if port, err := strconv.Atoi(os.Getenv("EMAIL_PORT")); err == nil && port > 0 {
		c.Email.Port = port
	}
	if user := os.Getenv("EMAIL_USER"); user != "" {
		c.Email.Username = user
	}
	if pass := os.Getenv("EMAIL_PASS"); pass != "" {
		c.Email.Password = pass
	}
	if from := os.Getenv("EMAIL_FROM"); from != "" {
		c.Email.From = from
	}
	if mock, err := strconv.ParseBool(os.Getenv("EMAIL_MOCK")); err == nil {
		c.Email.Mock = mock
	}
	if provider := os.Getenv("AI_PROVIDER"); provider != "" {
		c.AI.Provider = provider
		c.AI.Enabled = true
	}
	if baseURL := os.Getenv("AI_BASE_URL"); baseURL != "" {
		c.AI.BaseURL = baseURL
	}
	if apiKey := os.Getenv("AI_API_KEY"); apiKey != "" {
		c.AI.APIKey = apiKey
	}
	if model := os.Getenv("AI_MODEL"); model != "" {
		c.AI.Model = model
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	// Redis URL override (format: redis://:password@host:port/db)
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.Enabled = true
		c.parseRedisURL(redisURL)
	}
}

// parseRedisURL parses a Redis URL and sets config values
// Format: redis://:password@host:port/db
func (c *Config) parseRedisURL(redisURL string) {
	url := strings.TrimPrefix(redisURL, "redis://")

	if atIdx := strings.Index(url, "@"); atIdx != -1 {
		authPart := url[:atIdx]
		url = url[atIdx+1:]
		// :password or user:password
		if colonIdx := strings.Index(authPart, ":"); colonIdx != -1 {
			c.Redis.Password = authPart[colonIdx+1:]
		}
	}

	if slashIdx := strings.LastIndex(url, "/"); slashIdx != -1 {
		dbStr := url[slashIdx+1:]
		url = url[:slashIdx]
		if db, err := strconv.Atoi(dbStr); err == nil {
			c.Redis.DB = db
		}
	}

	c.Redis.Addr = url
}

func (c *Config) Save(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}

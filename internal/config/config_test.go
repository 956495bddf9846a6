package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 24*7, cfg.JWT.ExpireHour)
	assert.Equal(t, "0 9 * * *", cfg.Reminders.Cron)
}

func TestLoad_FileKeepsUnsetDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"9090\"\ndatabase:\n  driver: postgres\n  dsn: host=db\n"), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "NaCCER Portal", cfg.Email.FromName, "defaults survive partial files")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("EMAIL_USER", "mailer@example.com")
	t.Setenv("EMAIL_PORT", "465")
	t.Setenv("EMAIL_MOCK", "true")
	t.Setenv("AI_PROVIDER", "ollama")

	cfg := DefaultConfig()
	cfg.overrideFromEnv()

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, "mailer@example.com", cfg.Email.Username)
	assert.Equal(t, 465, cfg.Email.Port)
	assert.True(t, cfg.Email.Mock)
	assert.True(t, cfg.AI.Enabled)
	assert.Equal(t, "ollama", cfg.AI.Provider)
}

func TestOverrideFromEnv_ServerPortWins(t *testing.T) {
	t.Setenv("SERVER_PORT", "8081")
	t.Setenv("PORT", "7000")

	cfg := DefaultConfig()
	cfg.overrideFromEnv()

	assert.Equal(t, "8081", cfg.Server.Port)
}

func TestParseRedisURL(t *testing.T) {
	tests := []struct {
		url      string
		addr     string
		password string
		db       int
	}{
		{"redis://localhost:6379", "localhost:6379", "", 0},
		{"redis://:secret@redis:6379/2", "redis:6379", "secret", 2},
		{"redis://user:pw@10.0.0.1:6380/1", "10.0.0.1:6380", "pw", 1},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.parseRedisURL(tt.url)
			assert.Equal(t, tt.addr, cfg.Redis.Addr)
			assert.Equal(t, tt.password, cfg.Redis.Password)
			assert.Equal(t, tt.db, cfg.Redis.DB)
		})
	}
}

func TestEmailConfig_UseMock(t *testing.T) {
	assert.True(t, EmailConfig{Host: "smtp.example.com"}.UseMock(), "no credentials")
	assert.True(t, EmailConfig{Host: "smtp.example.com", Username: "u", Mock: true}.UseMock())
	assert.False(t, EmailConfig{Host: "smtp.example.com", Username: "u"}.UseMock())
}

func TestAllowedOrigins(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins())

	cfg.Server.Origins = []string{"https://a.example", "https://b.example"}
	assert.Len(t, cfg.AllowedOrigins(), 2)

	cfg.Server.Origins = nil
	cfg.Server.ClientURL = ""
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins())
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Server.Port = "6060"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "6060", loaded.Server.Port)
}

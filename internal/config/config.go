package config

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds the runtime configuration for the service.
// Values are sourced from environment variables (a .env file is loaded
// by main), with defaults where appropriate.
type Config struct {
	ListenAddr string

	// DatabaseURL is a postgres:// URL or a sqlite file path / "file:" DSN.
	DatabaseURL string

	AdminEmail    string
	AdminPassword string

	// BackendURL is the base URL of the hydration data service that owns
	// users and records.
	BackendURL     string
	BackendTimeout time.Duration

	// Location is used for every day boundary (reports, streaks, reminders).
	Location *time.Location

	SessionSecret string
	SessionTTL    time.Duration

	// VoiceSkillID, when set, must match the application id on incoming
	// voice webhook requests.
	VoiceSkillID       string
	VoiceRetentionDays int
	TelegramToken      string
	ReminderSchedule   string
	RetentionSchedule  string
}

// Load reads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		ListenAddr:         getenv("APP_LISTEN_ADDR", ":8080"),
		DatabaseURL:        os.Getenv("APP_DATABASE_URL"),
		AdminEmail:         getenv("APP_ADMIN_EMAIL", "admin@hydrolog.local"),
		AdminPassword:      getenv("APP_ADMIN_PASSWORD", "changeme"),
		BackendURL:         getenv("APP_BACKEND_URL", "http://localhost:8081"),
		BackendTimeout:     time.Duration(getint("APP_BACKEND_TIMEOUT", 10)) * time.Second,
		Location:           time.Local,
		SessionSecret:      os.Getenv("APP_SESSION_SECRET"),
		SessionTTL:         time.Duration(getint("APP_SESSION_HOURS", 72)) * time.Hour,
		VoiceSkillID:       os.Getenv("APP_VOICE_SKILL_ID"),
		VoiceRetentionDays: getint("APP_VOICE_RETENTION_DAYS", 30),
		TelegramToken:      os.Getenv("APP_TELEGRAM_TOKEN"),
		ReminderSchedule:   getenv("APP_REMINDER_SCHEDULE", "*/15 * * * *"),
		RetentionSchedule:  "@hourly",
	}

	if tz := os.Getenv("APP_TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			log.Printf("config: unknown APP_TIMEZONE %q, using local time: %v", tz, err)
		} else {
			cfg.Location = loc
		}
	}

	if cfg.SessionSecret == "" {
		cfg.SessionSecret = randomSecret()
		log.Printf("config: APP_SESSION_SECRET is not set; using a random secret, sessions will not survive a restart")
	}

	return cfg
}

// randomSecret returns 32 random bytes, hex encoded.
func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Fatalf("config: generate session secret: %v", err)
	}
	return hex.EncodeToString(b)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getint returns a positive integer from key, or def.
func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

package db

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"hydrolog/internal/hydration"
)

// Reminder interval bounds, in minutes.
const (
	MinReminderInterval     = 15
	MaxReminderInterval     = 480
	DefaultReminderInterval = 60
)

// ErrInvalidSettings is wrapped by every settings validation failure.
var ErrInvalidSettings = errors.New("invalid settings")

// Account is a person who can sign in. Hydration data itself lives in the
// backend service under BackendUserID; this row only carries credentials
// and local preferences.
type Account struct {
	ID uint `gorm:"primaryKey"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Email        string `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string `gorm:"size:255;not null"`

	// BackendUserID is the user id in the backend service. Empty for
	// accounts that never went through signup (e.g. the bootstrap admin).
	BackendUserID string `gorm:"index;size:64"`

	FirstName string `gorm:"size:128"`
	LastName  string `gorm:"size:128"`

	IsAdmin bool `gorm:"default:false"`

	// TimeFormat: "12" or "24". DateFormat: "dd-mm-yyyy", "mm-dd-yyyy", "yyyy-mm-dd".
	TimeFormat string `gorm:"size:8;default:24"`
	DateFormat string `gorm:"size:16;default:dd-mm-yyyy"`

	CustomGoalMl int  `gorm:"not null"`
	UseAutoGoal  bool `gorm:"not null"`

	EnableReminders     bool `gorm:"not null"`
	ReminderIntervalMin int  `gorm:"not null"`
	TelegramChatID      int64
	LastReminderAt      *time.Time

	VoiceEnabled bool `gorm:"not null"`
}

// NewAccount returns an unsaved account with default preferences.
func NewAccount(email, passwordHash string) *Account {
	return &Account{
		Email:               NormalizeEmail(email),
		PasswordHash:        passwordHash,
		TimeFormat:          "24",
		DateFormat:          "dd-mm-yyyy",
		CustomGoalMl:        hydration.DefaultGoalMl,
		UseAutoGoal:         true,
		ReminderIntervalMin: DefaultReminderInterval,
		VoiceEnabled:        true,
	}
}

// NormalizeEmail lowercases and trims an address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FindAccountByEmail returns gorm.ErrRecordNotFound when no account matches.
func FindAccountByEmail(db *gorm.DB, email string) (*Account, error) {
	var a Account
	if err := db.Where("email = ?", NormalizeEmail(email)).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// DisplayName is the account's full name, falling back to the email.
func (a *Account) DisplayName() string {
	name := strings.TrimSpace(a.FirstName + " " + a.LastName)
	if name == "" {
		return a.Email
	}
	return name
}

// GoalPolicy returns the goal preference used by report builders.
func (a *Account) GoalPolicy() hydration.GoalPolicy {
	return hydration.GoalPolicy{CustomMl: a.CustomGoalMl, UseAuto: a.UseAutoGoal}
}

// ReminderDue reports whether a reminder may be sent at now.
func (a *Account) ReminderDue(now time.Time) bool {
	if !a.EnableReminders || a.TelegramChatID == 0 {
		return false
	}
	if a.LastReminderAt == nil {
		return true
	}
	interval := a.ReminderIntervalMin
	if interval <= 0 {
		interval = DefaultReminderInterval
	}
	return !now.Before(a.LastReminderAt.Add(time.Duration(interval) * time.Minute))
}

// Settings is the JSON shape of an account's preferences.
type Settings struct {
	CustomGoal       int    `json:"customGoal"`
	UseAutoGoal      bool   `json:"useAutoGoal"`
	EnableReminders  bool   `json:"enableReminders"`
	ReminderInterval int    `json:"reminderInterval"`
	VoiceEnabled     bool   `json:"voiceEnabled"`
	TelegramChatID   int64  `json:"telegramChatId"`
	TimeFormat       string `json:"timeFormat"`
	DateFormat       string `json:"dateFormat"`
}

// Settings returns the account's current preferences.
func (a *Account) Settings() Settings {
	return Settings{
		CustomGoal:       a.CustomGoalMl,
		UseAutoGoal:      a.UseAutoGoal,
		EnableReminders:  a.EnableReminders,
		ReminderInterval: a.ReminderIntervalMin,
		VoiceEnabled:     a.VoiceEnabled,
		TelegramChatID:   a.TelegramChatID,
		TimeFormat:       a.TimeFormat,
		DateFormat:       a.DateFormat,
	}
}

// Validate checks ranges and enumerations. Empty formats are filled with
// the defaults.
func (s *Settings) Validate() error {
	if s.CustomGoal < hydration.MinCustomGoal || s.CustomGoal > hydration.MaxCustomGoal {
		return fmt.Errorf("%w: customGoal must be between %d and %d ml", ErrInvalidSettings, hydration.MinCustomGoal, hydration.MaxCustomGoal)
	}
	if s.ReminderInterval < MinReminderInterval || s.ReminderInterval > MaxReminderInterval {
		return fmt.Errorf("%w: reminderInterval must be between %d and %d minutes", ErrInvalidSettings, MinReminderInterval, MaxReminderInterval)
	}
	switch s.TimeFormat {
	case "":
		s.TimeFormat = "24"
	case "12", "24":
	default:
		return fmt.Errorf("%w: timeFormat must be 12 or 24", ErrInvalidSettings)
	}
	switch s.DateFormat {
	case "":
		s.DateFormat = "dd-mm-yyyy"
	case "dd-mm-yyyy", "mm-dd-yyyy", "yyyy-mm-dd":
	default:
		return fmt.Errorf("%w: dateFormat must be dd-mm-yyyy, mm-dd-yyyy or yyyy-mm-dd", ErrInvalidSettings)
	}
	if s.EnableReminders && s.TelegramChatID == 0 {
		return fmt.Errorf("%w: reminders need a telegramChatId", ErrInvalidSettings)
	}
	return nil
}

// SaveSettings validates s and writes it to the account.
func SaveSettings(db *gorm.DB, accountID uint, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return db.Model(&Account{}).Where("id = ?", accountID).Updates(map[string]any{
		"custom_goal_ml":        s.CustomGoal,
		"use_auto_goal":         s.UseAutoGoal,
		"enable_reminders":      s.EnableReminders,
		"reminder_interval_min": s.ReminderInterval,
		"voice_enabled":         s.VoiceEnabled,
		"telegram_chat_id":      s.TelegramChatID,
		"time_format":           s.TimeFormat,
		"date_format":           s.DateFormat,
	}).Error
}

// MarkReminded stamps the account's last reminder time.
func MarkReminded(db *gorm.DB, accountID uint, at time.Time) error {
	return db.Model(&Account{}).Where("id = ?", accountID).Update("last_reminder_at", at).Error
}

// ReminderCandidates returns accounts that opted into reminders and are
// linked to both the backend and a chat.
func ReminderCandidates(db *gorm.DB) ([]Account, error) {
	var out []Account
	err := db.Where("enable_reminders = ? AND telegram_chat_id <> 0 AND backend_user_id <> ''", true).
		Order("id").Find(&out).Error
	return out, err
}

package db

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"gorm.io/gorm"
)

// TokenPrefix marks personal API tokens.
const TokenPrefix = "hl_"

// APIToken is a personal bearer token that reads an account's reports
// from the /v1 API.
type APIToken struct {
	ID uint `gorm:"primaryKey"`

	CreatedAt time.Time
	UpdatedAt time.Time

	AccountID uint `gorm:"index;not null"`

	// Name is a user-friendly label (e.g. "grafana").
	Name string `gorm:"size:128;not null"`

	Token string `gorm:"uniqueIndex;size:255;not null"`

	Active     bool `gorm:"not null"`
	LastUsedAt *time.Time

	Account Account `gorm:"foreignKey:AccountID"`
}

// GenerateToken returns a fresh random token value.
func GenerateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return TokenPrefix + base64.RawURLEncoding.EncodeToString(b), nil
}

// CreateToken issues a new active token for the account.
func CreateToken(db *gorm.DB, accountID uint, name string) (*APIToken, error) {
	value, err := GenerateToken()
	if err != nil {
		return nil, err
	}
	t := &APIToken{AccountID: accountID, Name: name, Token: value, Active: true}
	if err := db.Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

// FindActiveToken resolves a bearer value to its token and owner, and
// records the use. Returns gorm.ErrRecordNotFound for unknown or disabled
// tokens.
func FindActiveToken(db *gorm.DB, value string) (*APIToken, error) {
	var t APIToken
	if err := db.Where("token = ? AND active = ?", value, true).Preload("Account").First(&t).Error; err != nil {
		return nil, err
	}
	now := time.Now()
	if err := db.Model(&t).UpdateColumn("last_used_at", now).Error; err == nil {
		t.LastUsedAt = &now
	}
	return &t, nil
}

// Mask hides all but the start of the token value for listings.
func (t APIToken) Mask() string {
	const visible = len(TokenPrefix) + 4
	if len(t.Token) <= visible {
		return t.Token
	}
	return t.Token[:visible] + "…"
}

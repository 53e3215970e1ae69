package db

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LinkCodeTTL is how long a voice link code stays redeemable.
const LinkCodeTTL = 10 * time.Minute

// ErrInvalidLinkCode is returned for unknown or expired link codes.
var ErrInvalidLinkCode = errors.New("invalid or expired link code")

// VoiceLink maps a voice assistant user to an account.
type VoiceLink struct {
	ID uint `gorm:"primaryKey"`

	CreatedAt time.Time
	UpdatedAt time.Time

	ExternalUserID string `gorm:"uniqueIndex;size:255;not null"`
	AccountID      uint   `gorm:"index;not null"`

	Account Account `gorm:"foreignKey:AccountID"`
}

// LinkCode is a short-lived code an account hands to the voice assistant.
type LinkCode struct {
	ID uint `gorm:"primaryKey"`

	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"index;not null"`

	Code      string `gorm:"uniqueIndex;size:6;not null"`
	AccountID uint   `gorm:"index;not null"`
}

// VoiceEvent records one handled voice request. Slots keeps whatever the
// assistant sent so intents can evolve without schema changes.
type VoiceEvent struct {
	ID uint `gorm:"primaryKey"`

	CreatedAt time.Time

	// ExpiresAt is when the retention job may delete the row. Nil never expires.
	ExpiresAt *time.Time `gorm:"index"`

	AccountID      *uint  `gorm:"index"`
	ExternalUserID string `gorm:"index;size:255"`

	RequestType string `gorm:"size:64"`
	Intent      string `gorm:"index;size:64"`
	Outcome     string `gorm:"size:32"`

	Slots datatypes.JSONMap `gorm:"type:json"`
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// IssueLinkCode replaces any outstanding code for the account with a new
// 6-digit one valid for LinkCodeTTL.
func IssueLinkCode(db *gorm.DB, accountID uint, now time.Time) (*LinkCode, error) {
	var lc *LinkCode
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_id = ?", accountID).Delete(&LinkCode{}).Error; err != nil {
			return err
		}
		// Codes are unique while alive; retry the rare collision.
		for attempt := 0; attempt < 5; attempt++ {
			code, err := randomCode()
			if err != nil {
				return err
			}
			var taken int64
			if err := tx.Model(&LinkCode{}).Where("code = ? AND expires_at > ?", code, now).Count(&taken).Error; err != nil {
				return err
			}
			if taken > 0 {
				continue
			}
			if err := tx.Where("code = ?", code).Delete(&LinkCode{}).Error; err != nil {
				return err
			}
			lc = &LinkCode{Code: code, AccountID: accountID, CreatedAt: now, ExpiresAt: now.Add(LinkCodeTTL)}
			return tx.Create(lc).Error
		}
		return errors.New("could not allocate a link code")
	})
	if err != nil {
		return nil, err
	}
	return lc, nil
}

// RedeemLinkCode consumes code and links externalUserID to its account,
// replacing any previous link for that voice user.
func RedeemLinkCode(db *gorm.DB, code, externalUserID string, now time.Time) (*Account, error) {
	var acct Account
	err := db.Transaction(func(tx *gorm.DB) error {
		var lc LinkCode
		if err := tx.Where("code = ? AND expires_at > ?", code, now).First(&lc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidLinkCode
			}
			return err
		}
		if err := tx.First(&acct, lc.AccountID).Error; err != nil {
			return err
		}
		link := VoiceLink{ExternalUserID: externalUserID, AccountID: acct.ID}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"account_id", "updated_at"}),
		}).Create(&link).Error; err != nil {
			return err
		}
		return tx.Delete(&lc).Error
	})
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

// AccountForVoiceUser returns the linked account, or gorm.ErrRecordNotFound
// when there is no link or the linked account no longer exists.
func AccountForVoiceUser(db *gorm.DB, externalUserID string) (*Account, error) {
	var link VoiceLink
	if err := db.Where("external_user_id = ?", externalUserID).Preload("Account").First(&link).Error; err != nil {
		return nil, err
	}
	if link.Account.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &link.Account, nil
}

// RecordVoiceEvent stores ev, expiring it after retentionDays (0 keeps it).
func RecordVoiceEvent(db *gorm.DB, ev *VoiceEvent, retentionDays int) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	if retentionDays > 0 {
		t := ev.CreatedAt.AddDate(0, 0, retentionDays)
		ev.ExpiresAt = &t
	}
	if ev.Slots == nil {
		ev.Slots = datatypes.JSONMap{}
	}
	return db.Create(ev).Error
}

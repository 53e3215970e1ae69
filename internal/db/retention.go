package db

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// PurgeExpired deletes link codes and voice events whose expiry has passed.
func PurgeExpired(db *gorm.DB, now time.Time) (codes, events int64, err error) {
	res := db.Where("expires_at <= ?", now).Delete(&LinkCode{})
	if res.Error != nil {
		return 0, 0, res.Error
	}
	codes = res.RowsAffected

	res = db.Where("expires_at IS NOT NULL AND expires_at <= ?", now).Delete(&VoiceEvent{})
	if res.Error != nil {
		return codes, 0, res.Error
	}
	return codes, res.RowsAffected, nil
}

func runRetentionOnce(db *gorm.DB) {
	codes, events, err := PurgeExpired(db, time.Now())
	if err != nil {
		log.Printf("retention cleanup error: %v", err)
		return
	}
	if codes > 0 || events > 0 {
		log.Printf("retention: removed %d link codes, %d voice events", codes, events)
	}
}

// ScheduleRetention runs the cleanup once now and then on the cron schedule.
func ScheduleRetention(c *cron.Cron, db *gorm.DB, schedule string) error {
	runRetentionOnce(db)
	_, err := c.AddFunc(schedule, func() { runRetentionOnce(db) })
	return err
}

// Package reminder nudges users who are behind on today's goal.
package reminder

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	dbpkg "hydrolog/internal/db"
	"hydrolog/internal/hydration"
	"hydrolog/internal/metrics"
)

// Notifier delivers a reminder to a chat.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// Progress reads today's dashboard numbers for a backend user.
type Progress interface {
	Dashboard(ctx context.Context, userID string, policy hydration.GoalPolicy) (hydration.DashboardSummary, error)
}

// Service checks reminder candidates and notifies those below goal.
type Service struct {
	db       *gorm.DB
	progress Progress
	notifier Notifier
	timeout  time.Duration
	now      func() time.Time
}

func NewService(db *gorm.DB, progress Progress, notifier Notifier) *Service {
	return &Service{db: db, progress: progress, notifier: notifier, timeout: time.Minute, now: time.Now}
}

// Message is the reminder text for a summary.
func Message(name string, sum hydration.DashboardSummary) string {
	return fmt.Sprintf("Hi %s, time for some water! You're at %d%% of your %d ml goal today (%d ml so far).",
		name, sum.Progress, sum.DailyGoal, sum.TodayWater)
}

// RunOnce sends every due reminder and returns how many went out. Per-account
// failures are logged and skipped.
func (s *Service) RunOnce(ctx context.Context) (int, error) {
	accounts, err := dbpkg.ReminderCandidates(s.db)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range accounts {
		a := &accounts[i]
		now := s.now()
		if !a.ReminderDue(now) {
			continue
		}

		sum, err := s.progress.Dashboard(ctx, a.BackendUserID, a.GoalPolicy())
		if err != nil {
			log.Printf("reminder: account %d: %v", a.ID, err)
			continue
		}
		if sum.Progress >= hydration.AchievedThreshold {
			continue
		}

		name := a.FirstName
		if name == "" {
			name = "there"
		}
		if err := s.notifier.Notify(ctx, a.TelegramChatID, Message(name, sum)); err != nil {
			log.Printf("reminder: notify account %d: %v", a.ID, err)
			continue
		}
		if err := dbpkg.MarkReminded(s.db, a.ID, now); err != nil {
			log.Printf("reminder: stamp account %d: %v", a.ID, err)
		}
		metrics.RemindersSent.Inc()
		sent++
	}
	return sent, nil
}

// Schedule registers the reminder run on c.
func Schedule(c *cron.Cron, s *Service, schedule string) error {
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		n, err := s.RunOnce(ctx)
		if err != nil {
			log.Printf("reminder run failed: %v", err)
			return
		}
		if n > 0 {
			log.Printf("reminder: sent %d", n)
		}
	})
	return err
}

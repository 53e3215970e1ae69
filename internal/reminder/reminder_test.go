package reminder

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	dbpkg "hydrolog/internal/db"
	"hydrolog/internal/hydration"
)

type sentMessage struct {
	chatID int64
	text   string
}

type fakeNotifier struct {
	sent []sentMessage
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, chatID int64, text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{chatID, text})
	return nil
}

type fakeProgress map[string]hydration.DashboardSummary

func (f fakeProgress) Dashboard(_ context.Context, userID string, _ hydration.GoalPolicy) (hydration.DashboardSummary, error) {
	s, ok := f[userID]
	if !ok {
		return hydration.DashboardSummary{}, hydration.ErrUpstreamUnavailable
	}
	return s, nil
}

func seed(t *testing.T, db *gorm.DB, email, backendID string, chatID int64) *dbpkg.Account {
	t.Helper()
	a := dbpkg.NewAccount(email, "hash")
	a.FirstName = "Ana"
	a.BackendUserID = backendID
	a.EnableReminders = true
	a.TelegramChatID = chatID
	if err := db.Create(a).Error; err != nil {
		t.Fatal(err)
	}
	return a
}

func TestRunOnce(t *testing.T) {
	db, err := dbpkg.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	behind := seed(t, db, "behind@example.com", "1", 11)
	seed(t, db, "done@example.com", "2", 22)
	seed(t, db, "down@example.com", "3", 33)

	progress := fakeProgress{
		"1": {TodayWater: 900, DailyGoal: 2000, Progress: 45},
		"2": {TodayWater: 2100, DailyGoal: 2000, Progress: 105},
	}
	notifier := &fakeNotifier{}
	now := time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)
	s := NewService(db, progress, notifier)
	s.now = func() time.Time { return now }

	n, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if n != 1 || len(notifier.sent) != 1 {
		t.Fatalf("sent %d (%v), want 1", n, notifier.sent)
	}
	msg := notifier.sent[0]
	if msg.chatID != 11 || !strings.Contains(msg.text, "45%") || !strings.Contains(msg.text, "2000 ml") {
		t.Errorf("message = %+v", msg)
	}

	var got dbpkg.Account
	db.First(&got, behind.ID)
	if got.LastReminderAt == nil || !got.LastReminderAt.Equal(now) {
		t.Errorf("LastReminderAt = %v", got.LastReminderAt)
	}

	// Within the interval nothing is resent.
	s.now = func() time.Time { return now.Add(30 * time.Minute) }
	if n, _ := s.RunOnce(context.Background()); n != 0 {
		t.Errorf("resent %d within interval", n)
	}
	s.now = func() time.Time { return now.Add(61 * time.Minute) }
	if n, _ := s.RunOnce(context.Background()); n != 1 {
		t.Errorf("sent %d after interval, want 1", n)
	}
}

func TestRunOnceNotifyFailureDoesNotStamp(t *testing.T) {
	db, err := dbpkg.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	a := seed(t, db, "a@example.com", "1", 11)
	s := NewService(db, fakeProgress{"1": {Progress: 10, DailyGoal: 2000}}, &fakeNotifier{err: errors.New("blocked")})

	if n, err := s.RunOnce(context.Background()); err != nil || n != 0 {
		t.Fatalf("RunOnce = %d, %v", n, err)
	}
	var got dbpkg.Account
	db.First(&got, a.ID)
	if got.LastReminderAt != nil {
		t.Error("failed delivery should not stamp the account")
	}
}

package hydration

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeSource struct {
	water    []WaterEvent
	urine    []UrinationEvent
	profile  Profile
	waterErr error
	urineErr error
	calls    atomic.Int32
}

func (f *fakeSource) WaterEvents(ctx context.Context, userID string) ([]WaterEvent, error) {
	f.calls.Add(1)
	return f.water, f.waterErr
}

func (f *fakeSource) UrinationEvents(ctx context.Context, userID string) ([]UrinationEvent, error) {
	f.calls.Add(1)
	return f.urine, f.urineErr
}

func (f *fakeSource) Profile(ctx context.Context, userID string) (Profile, error) {
	f.calls.Add(1)
	return f.profile, nil
}

func newTestAssembler(src Upstream, now time.Time) *Assembler {
	a := NewAssembler(src, brt)
	a.now = func() time.Time { return now }
	return a
}

func TestAssemblerReport(t *testing.T) {
	now := time.Date(2024, 5, 10, 20, 0, 0, 0, brt)
	src := &fakeSource{
		water:   []WaterEvent{{AmountMl: 2940, Timestamp: now.Add(-time.Hour)}},
		profile: Profile{WeightKg: ptrF(70), AgeYears: ptrI(30), ActivityLevel: ActivityModerate},
	}
	a := newTestAssembler(src, now)

	r, err := a.Report(context.Background(), "42", Period7Days, GoalPolicy{UseAuto: true})
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if r.DailyGoal != 2940 {
		t.Errorf("goal = %d, want 2940", r.DailyGoal)
	}
	if got := r.ProgressData[len(r.ProgressData)-1].Progress; got != 100 {
		t.Errorf("today progress = %d, want 100", got)
	}
	if src.calls.Load() != 3 {
		t.Errorf("source calls = %d, want 3", src.calls.Load())
	}

	again, err := a.Report(context.Background(), "42", Period7Days, GoalPolicy{UseAuto: true})
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if again.Overview != r.Overview {
		t.Error("repeated report differs")
	}
}

type statusErr struct{ code int }

func (e *statusErr) Error() string { return "status" }

func TestAssemblerFailsFast(t *testing.T) {
	now := time.Date(2024, 5, 10, 20, 0, 0, 0, brt)
	cause := &statusErr{code: 503}
	a := newTestAssembler(&fakeSource{urineErr: cause}, now)

	_, err := a.Report(context.Background(), "42", Period7Days, GoalPolicy{UseAuto: true})
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("err = %v, want ErrUpstreamUnavailable", err)
	}
	var se *statusErr
	if !errors.As(err, &se) || se.code != 503 {
		t.Errorf("cause not preserved: %v", err)
	}

	if _, err := a.Dashboard(context.Background(), "42", GoalPolicy{}); !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("Dashboard err = %v", err)
	}
	if _, err := a.Export(context.Background(), "42", Period7Days); !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("Export err = %v", err)
	}
	if _, err := a.Recent(context.Background(), "42", 15); !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("Recent err = %v", err)
	}
}

func TestAssemblerDoesNotDoubleWrap(t *testing.T) {
	a := newTestAssembler(&fakeSource{waterErr: ErrUpstreamUnavailable}, time.Now())
	_, err := a.Dashboard(context.Background(), "1", GoalPolicy{})
	if err != ErrUpstreamUnavailable {
		t.Errorf("err = %v, want the bare sentinel", err)
	}
}

package hydration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrUpstreamUnavailable is returned when any required upstream fetch fails
// or answers with a non-success status. No partial results accompany it.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// Upstream is the backend data service the assembler reads from.
type Upstream interface {
	WaterEvents(ctx context.Context, userID string) ([]WaterEvent, error)
	UrinationEvents(ctx context.Context, userID string) ([]UrinationEvent, error)
	Profile(ctx context.Context, userID string) (Profile, error)
}

// Assembler fetches a user's data from an Upstream and hands it to the pure
// builders. It holds no per-user state.
type Assembler struct {
	src Upstream
	loc *time.Location
	now func() time.Time
}

// NewAssembler buckets days in loc; a nil loc means the process timezone.
func NewAssembler(src Upstream, loc *time.Location) *Assembler {
	if loc == nil {
		loc = time.Local
	}
	return &Assembler{src: src, loc: loc, now: time.Now}
}

// Location is the timezone used for day boundaries.
func (a *Assembler) Location() *time.Location { return a.loc }

type snapshot struct {
	water   []WaterEvent
	urine   []UrinationEvent
	profile Profile
}

func upstreamErr(err error) error {
	if errors.Is(err, ErrUpstreamUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
}

// fetch issues the three reads concurrently and joins them. The first
// failure cancels the rest.
func (a *Assembler) fetch(ctx context.Context, userID string) (snapshot, error) {
	var s snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		s.water, err = a.src.WaterEvents(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		s.urine, err = a.src.UrinationEvents(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		s.profile, err = a.src.Profile(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return snapshot{}, upstreamErr(err)
	}
	return s, nil
}

// Report builds the report for userID over period.
func (a *Assembler) Report(ctx context.Context, userID string, period Period, policy GoalPolicy) (Report, error) {
	s, err := a.fetch(ctx, userID)
	if err != nil {
		return Report{}, err
	}
	goal := EffectiveGoal(s.profile, policy)
	return BuildReport(s.water, s.urine, goal, period, a.now(), a.loc), nil
}

// Dashboard builds today's summary for userID.
func (a *Assembler) Dashboard(ctx context.Context, userID string, policy GoalPolicy) (DashboardSummary, error) {
	s, err := a.fetch(ctx, userID)
	if err != nil {
		return DashboardSummary{}, err
	}
	goal := EffectiveGoal(s.profile, policy)
	return BuildDashboard(s.water, s.urine, goal, a.now(), a.loc), nil
}

// Export collects the events for a CSV or printable export.
func (a *Assembler) Export(ctx context.Context, userID string, period Period) (Export, error) {
	s, err := a.fetch(ctx, userID)
	if err != nil {
		return Export{}, err
	}
	return NewExport(s.profile, s.water, s.urine, period, a.now(), a.loc), nil
}

// Recent returns the newest activities for userID.
func (a *Assembler) Recent(ctx context.Context, userID string, limit int) ([]Activity, error) {
	s, err := a.fetch(ctx, userID)
	if err != nil {
		return nil, err
	}
	return RecentActivities(s.water, s.urine, limit), nil
}

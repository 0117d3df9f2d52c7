// Package delivery holds the business-day calendar used for delivery dates.
// Saturdays and Sundays are never delivery days.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/craft_store/pkg/logging"
)

const DefaultMinLead = 3

var ErrDeliveryTooEarly = errors.New("delivery date too early")

// Clock supplies the authoritative current time, normally the database clock.
type Clock interface {
	ServerDate(ctx context.Context) (time.Time, error)
}

type Scheduler struct {
	MinLead int
}

func NewScheduler(minLead int) *Scheduler {
	if minLead < 0 {
		minLead = DefaultMinLead
	}
	return &Scheduler{MinLead: minLead}
}

// DateOf truncates t to midnight UTC of its calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *Scheduler) Allowed(day time.Time) bool {
	switch day.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return true
}

// AddBusinessDays steps forward one day at a time and counts only allowed
// days. n <= 0 returns start unchanged.
func (s *Scheduler) AddBusinessDays(start time.Time, n int) time.Time {
	day := DateOf(start)
	for counted := 0; counted < n; {
		day = day.AddDate(0, 0, 1)
		if s.Allowed(day) {
			counted++
		}
	}
	return day
}

// NextAllowed returns day itself when allowed, otherwise the next allowed day.
func (s *Scheduler) NextAllowed(day time.Time) time.Time {
	day = DateOf(day)
	for !s.Allowed(day) {
		day = day.AddDate(0, 0, 1)
	}
	return day
}

func (s *Scheduler) EarliestDelivery(today time.Time) time.Time {
	return s.AddBusinessDays(today, s.MinLead)
}

// Validate coerces requested onto an allowed day and rejects it when it falls
// before the earliest delivery for today. The coerced date is returned.
func (s *Scheduler) Validate(requested, today time.Time) (time.Time, error) {
	day := s.NextAllowed(requested)
	earliest := s.EarliestDelivery(today)
	if day.Before(earliest) {
		return day, fmt.Errorf("%s is before %s: %w",
			day.Format(time.DateOnly), earliest.Format(time.DateOnly), ErrDeliveryTooEarly)
	}
	return day, nil
}

// Now asks clock for the current time and falls back to the local clock.
func Now(ctx context.Context, clock Clock) time.Time {
	if clock != nil {
		now, err := clock.ServerDate(ctx)
		if err == nil {
			return now.UTC()
		}
		logging.FromContext(ctx).Warn("server_date_error", "fallback", "local", "error", err)
	}
	return time.Now().UTC()
}

func Today(ctx context.Context, clock Clock) time.Time {
	return DateOf(Now(ctx, clock))
}

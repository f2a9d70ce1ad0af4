// Package calendar answers working-day questions: business-day checks,
// SLA due dates and out-of-office substitution.
package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/caseflow/caseflow/pkg/models"
)

// HolidayStore looks up registered holidays.
type HolidayStore interface {
	HolidayExists(ctx context.Context, date time.Time, region string) (bool, error)
}

// LeaveStore looks up a user's out-of-office windows.
type LeaveStore interface {
	LeavesByUser(ctx context.Context, userID string) ([]*models.Leave, error)
}

// Service is stateless; every query reads from the stores. The clock is
// injectable so leave-window checks are reproducible in tests.
type Service struct {
	holidays HolidayStore
	leaves   LeaveStore
	now      func() time.Time
	logger   *slog.Logger
}

type Option func(*Service)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(holidays HolidayStore, leaves LeaveStore, logger *slog.Logger, opts ...Option) *Service {
	service := &Service{
		holidays: holidays,
		leaves:   leaves,
		now:      time.Now,
		logger:   logger,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

// IsBusinessDay reports whether the date is a working day in the region:
// not a Saturday or Sunday and not a registered holiday.
func (s *Service) IsBusinessDay(ctx context.Context, date time.Time, region string) (bool, error) {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return false, nil
	default:
	}

	holiday, err := s.holidays.HolidayExists(ctx, truncateToDay(date), region)
	if err != nil {
		return false, fmt.Errorf("failed to check holiday for %s: %w", region, err)
	}

	return !holiday, nil
}

// CalculateSLADueDate advances one calendar day at a time from start,
// counting only business days, until the requested number of business
// days has elapsed.
func (s *Service) CalculateSLADueDate(ctx context.Context, start time.Time, businessDays int, region string) (time.Time, error) {
	due := start

	for counted := 0; counted < businessDays; {
		due = due.AddDate(0, 0, 1)

		working, err := s.IsBusinessDay(ctx, due, region)
		if err != nil {
			return time.Time{}, err
		}

		if working {
			counted++
		}
	}

	return due, nil
}

// ActiveLeave returns the leave covering now for the user, or nil when
// the user is available.
func (s *Service) ActiveLeave(ctx context.Context, userID string) (*models.Leave, error) {
	leaves, err := s.leaves.LeavesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaves for user %s: %w", userID, err)
	}

	at := s.now()

	for _, leave := range leaves {
		if leave.Covers(at) {
			return leave, nil
		}
	}

	return nil, nil
}

// EffectiveAssignee resolves who should actually receive work addressed
// to userID. Exactly one level of substitution is attempted: a substitute
// who is also on leave falls back to the original user, never to the
// substitute's own substitute.
func (s *Service) EffectiveAssignee(ctx context.Context, userID string) (string, error) {
	leave, err := s.ActiveLeave(ctx, userID)
	if err != nil {
		return "", err
	}

	if leave == nil || leave.SubstituteUserID == "" {
		return userID, nil
	}

	substituteLeave, err := s.ActiveLeave(ctx, leave.SubstituteUserID)
	if err != nil {
		return "", err
	}

	if substituteLeave != nil {
		s.logger.Debug("Substitute is also on leave, keeping original assignee",
			"user_id", userID,
			"substitute_id", leave.SubstituteUserID,
		)

		return userID, nil
	}

	return leave.SubstituteUserID, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

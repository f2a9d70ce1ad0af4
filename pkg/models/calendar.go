package models

import "time"

// Holiday is a non-working day registered for a region. Date is the
// calendar day at midnight UTC; the region string matches the region
// names used by workflow context variables.
type Holiday struct {
	ID     int64     `json:"id"`
	Date   time.Time `json:"date"   validate:"required"`
	Region string    `json:"region" validate:"required"`
	Label  string    `json:"label,omitempty"`
}

// Leave is a user's out-of-office window, owned by the HR system.
type Leave struct {
	ID               int64     `json:"id"`
	UserID           string    `json:"user_id" validate:"required"`
	From             time.Time `json:"from"    validate:"required"`
	To               time.Time `json:"to"      validate:"required,gtefield=From"`
	SubstituteUserID string    `json:"substitute_user_id,omitempty"`
	Active           bool      `json:"active"`
}

// Covers reports whether the leave is active and the instant falls inside
// the leave window.
func (l *Leave) Covers(at time.Time) bool {
	return l.Active && !at.Before(l.From) && !at.After(l.To)
}

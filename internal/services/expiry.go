package services

import (
	"time"

	"github.com/pkg/errors"
)

// ExpiryPolicy decides when a message dies: at the campaign cutoff or at
// creation time plus the rolling window, whichever comes first.
type ExpiryPolicy struct {
	Cutoff time.Time
	Window time.Duration
}

func NewExpiryPolicy(cutoff time.Time, windowDays int) ExpiryPolicy {
	return ExpiryPolicy{
		Cutoff: cutoff,
		Window: time.Duration(windowDays) * 24 * time.Hour,
	}
}

// ParseExpiryPolicy builds a policy from the raw config values.
func ParseExpiryPolicy(cutoff string, windowDays int) (ExpiryPolicy, error) {
	t, err := time.Parse(time.RFC3339, cutoff)
	if err != nil {
		return ExpiryPolicy{}, errors.Wrap(err, "invalid expiry cutoff")
	}
	if windowDays <= 0 {
		return ExpiryPolicy{}, errors.New("expiry window must be positive")
	}
	return NewExpiryPolicy(t, windowDays), nil
}

// ExpiresAt returns the expiry instant for a message created at the given time.
func (p ExpiryPolicy) ExpiresAt(createdAt time.Time) time.Time {
	windowed := createdAt.Add(p.Window)
	if windowed.Before(p.Cutoff) {
		return windowed
	}
	return p.Cutoff
}

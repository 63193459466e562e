package services

import (
	"time"

	"sprachwerk/backend/models"
)

// AccessGate decides whether a student may complete content at a given
// difficulty. The premium-class check runs strictly before the rank check:
// premium-level content is denied to free users no matter their rank, and an
// active premium subscription bypasses rank gating entirely.
type AccessGate struct {
	now func() time.Time
}

func NewAccessGate() *AccessGate {
	return &AccessGate{now: time.Now}
}

// NewAccessGateAt injects a clock, for tests around subscription expiry.
func NewAccessGateAt(now func() time.Time) *AccessGate {
	return &AccessGate{now: now}
}

func (g *AccessGate) CanComplete(user *models.User, difficulty models.Level) error {
	if user.CurrentLevel == nil {
		return ErrLevelNotSelected
	}

	premium := user.HasActivePremium(g.now())

	if difficulty.IsPremium() && !premium {
		return &AccessError{
			Reason:  DenyPremiumRequired,
			Message: "premium subscription required for this level",
		}
	}

	if !premium && user.CurrentLevel.Rank() < difficulty.Rank() {
		return &AccessError{
			Reason:  DenyLevelRank,
			Message: "complete lower levels first",
		}
	}

	return nil
}

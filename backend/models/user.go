package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	SubscriptionFree    = "free"
	SubscriptionPremium = "premium"

	PlanMonthly  = "monthly"
	PlanYearly   = "yearly"
	PlanLifetime = "lifetime"
)

type User struct {
	gorm.Model
	Username     string `gorm:"unique;not null"`
	Email        string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"default:user"` // user, admin

	// CurrentLevel is nil until the student picks a starting level.
	CurrentLevel *Level
	Coins        int `gorm:"default:0;check:coins >= 0"`

	SubscriptionStatus string `gorm:"default:free"` // free, premium
	SubscriptionPlan   *string
	SubscriptionExpiry *time.Time
}

// HasActivePremium reports whether the premium gate is open for this user at
// the given instant. Lifetime plans never expire; a premium status without an
// expiry stamp is treated as active.
func (u *User) HasActivePremium(now time.Time) bool {
	if u.SubscriptionStatus != SubscriptionPremium {
		return false
	}
	if u.SubscriptionPlan != nil && *u.SubscriptionPlan == PlanLifetime {
		return true
	}
	if u.SubscriptionExpiry == nil {
		return true
	}
	return now.Before(*u.SubscriptionExpiry)
}

type LoginHistory struct {
	gorm.Model
	UserID    uint `gorm:"index"`
	LoginTime time.Time
}

type StudyStreak struct {
	gorm.Model
	UserID     uint `gorm:"uniqueIndex"`
	LastActive time.Time
	StreakDays int `gorm:"default:0"`
}

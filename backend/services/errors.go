package services

import "errors"

var (
	// ErrNotFound covers lessons, exercise sets, topics and students that do
	// not exist or are soft-deleted/unpublished.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyCompleted is the duplicate-completion conflict for a
	// (user, lesson) pair.
	ErrAlreadyCompleted = errors.New("lesson already completed")

	// ErrLevelNotSelected means the student has not picked a starting level.
	ErrLevelNotSelected = errors.New("select a level first")
)

// DenyReason distinguishes the two access-denial causes so the client can
// offer the right call to action (upgrade vs. keep studying).
type DenyReason string

const (
	DenyPremiumRequired DenyReason = "premium_required"
	DenyLevelRank       DenyReason = "level_rank"
)

type AccessError struct {
	Reason  DenyReason
	Message string
}

func (e *AccessError) Error() string { return e.Message }

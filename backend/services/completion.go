package services

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sprachwerk/backend/config"
	"sprachwerk/backend/models"
)

type CompletionResult struct {
	AwardedCoins int              `json:"awarded_coins"`
	NewBalance   int              `json:"new_balance"`
	Promotion    *PromotionResult `json:"promotion,omitempty"`
}

// LessonService runs the simple-lesson completion flow: gate, progress
// insert, coin award and promotion check, all inside one transaction.
type LessonService struct {
	DB   *gorm.DB
	Gate *AccessGate
	Prog config.Progression
}

func NewLessonService(db *gorm.DB, gate *AccessGate, prog config.Progression) *LessonService {
	return &LessonService{DB: db, Gate: gate, Prog: prog}
}

// CompleteLesson records a completion for (userID, lessonID). Every step is
// all-or-nothing: a denial or duplicate aborts the transaction with no
// progress row and no coin movement.
func (s *LessonService) CompleteLesson(userID, lessonID uint) (*CompletionResult, error) {
	var result *CompletionResult

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := lockForUpdate(tx).First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if user.CurrentLevel == nil {
			return ErrLevelNotSelected
		}

		var lesson models.Lesson
		if err := tx.Where("is_published = ? AND is_deleted = ?", true, false).
			First(&lesson, lessonID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if err := s.Gate.CanComplete(&user, lesson.Difficulty); err != nil {
			return err
		}

		var existing models.LessonProgress
		err := tx.Where("user_id = ? AND lesson_id = ?", userID, lessonID).
			First(&existing).Error
		if err == nil {
			return ErrAlreadyCompleted
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		progress := models.LessonProgress{
			UserID:      userID,
			LessonID:    lessonID,
			IsCompleted: true,
			CompletedAt: time.Now(),
		}
		if err := tx.Create(&progress).Error; err != nil {
			// The unique index backstops the pre-check under concurrency.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyCompleted
			}
			return err
		}

		user.Coins += s.Prog.LessonCoinAward

		promotion, err := evaluatePromotion(tx, &user, s.Prog)
		if err != nil {
			return err
		}

		if err := tx.Save(&user).Error; err != nil {
			return err
		}

		result = &CompletionResult{
			AwardedCoins: s.Prog.LessonCoinAward,
			NewBalance:   user.Coins,
			Promotion:    promotion,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// lockForUpdate takes a row lock on databases that support it. SQLite has no
// SELECT ... FOR UPDATE; its writes serialize on the database lock instead.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

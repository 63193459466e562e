package services

import (
	"gorm.io/gorm"

	"sprachwerk/backend/config"
	"sprachwerk/backend/models"
)

type PromotionResult struct {
	Promoted         bool         `json:"promoted"`
	FromLevel        models.Level `json:"from_level"`
	ToLevel          models.Level `json:"to_level"`
	BonusCoins       int          `json:"bonus_coins"`
	LessonsCompleted int          `json:"lessons_completed"`
	TotalLessons     int          `json:"total_lessons"`
}

// evaluatePromotion recomputes from absolute counts whether the user has
// finished every published lesson at their current level, and if so advances
// them one rank and adds the bonus to the (not yet saved) user row. The
// caller holds the row lock and saves the user inside the same transaction,
// so two concurrent completions cannot both fire the promotion: the second
// sees the already-advanced CurrentLevel and counts against the new level.
func evaluatePromotion(tx *gorm.DB, user *models.User, prog config.Progression) (*PromotionResult, error) {
	if user.CurrentLevel == nil {
		return nil, nil
	}
	level := *user.CurrentLevel

	var total int64
	if err := tx.Model(&models.Lesson{}).
		Where("difficulty = ? AND is_published = ? AND is_deleted = ?", level, true, false).
		Count(&total).Error; err != nil {
		return nil, err
	}
	// A level with no content yet never promotes.
	if total == 0 {
		return nil, nil
	}

	var completed int64
	if err := tx.Model(&models.LessonProgress{}).
		Joins("JOIN lessons ON lessons.id = lesson_progresses.lesson_id").
		Where("lesson_progresses.user_id = ? AND lesson_progresses.is_completed = ?", user.ID, true).
		Where("lessons.difficulty = ? AND lessons.is_published = ? AND lessons.is_deleted = ?", level, true, false).
		Count(&completed).Error; err != nil {
		return nil, err
	}

	if completed < total {
		return nil, nil
	}

	next, ok := level.Next()
	if !ok {
		// Already at the top rank: the level is complete but there is
		// nowhere to go and no bonus to award.
		return nil, nil
	}

	user.CurrentLevel = &next
	user.Coins += prog.PromotionBonus

	return &PromotionResult{
		Promoted:         true,
		FromLevel:        level,
		ToLevel:          next,
		BonusCoins:       prog.PromotionBonus,
		LessonsCompleted: int(completed),
		TotalLessons:     int(total),
	}, nil
}

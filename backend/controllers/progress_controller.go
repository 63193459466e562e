package controllers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"sprachwerk/backend/config"
	"sprachwerk/backend/models"
	"sprachwerk/backend/utils"
)

type ProgressController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewProgressController(db *gorm.DB, cfg *config.Config) *ProgressController {
	return &ProgressController{DB: db, Cfg: cfg}
}

// GetOverview summarizes the student's standing: level, coins, completion
// counts at the current level and the per-topic mastery rows.
func (pc *ProgressController) GetOverview(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var user models.User
	if err := pc.DB.First(&user, userID).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}

	var completedLessons int64
	pc.DB.Model(&models.LessonProgress{}).
		Where("user_id = ? AND is_completed = ?", userID, true).
		Count(&completedLessons)

	var levelTotal, levelCompleted int64
	if user.CurrentLevel != nil {
		pc.DB.Model(&models.Lesson{}).
			Where("difficulty = ? AND is_published = ? AND is_deleted = ?", *user.CurrentLevel, true, false).
			Count(&levelTotal)
		pc.DB.Model(&models.LessonProgress{}).
			Joins("JOIN lessons ON lessons.id = lesson_progresses.lesson_id").
			Where("lesson_progresses.user_id = ? AND lesson_progresses.is_completed = ?", userID, true).
			Where("lessons.difficulty = ? AND lessons.is_published = ? AND lessons.is_deleted = ?", *user.CurrentLevel, true, false).
			Count(&levelCompleted)
	}

	var streak models.StudyStreak
	pc.DB.Where("user_id = ?", userID).First(&streak)

	var masteries []models.GrammarTopicMastery
	pc.DB.Where("user_id = ?", userID).Find(&masteries)
	masteryRows := make([]fiber.Map, 0, len(masteries))
	for i := range masteries {
		masteryRows = append(masteryRows, topicMasteryJSON(&masteries[i]))
	}

	return c.JSON(fiber.Map{
		"current_level":           user.CurrentLevel,
		"coins":                   user.Coins,
		"completed_lessons":       completedLessons,
		"level_lessons_total":     levelTotal,
		"level_lessons_completed": levelCompleted,
		"streak_days":             streak.StreakDays,
		"topic_mastery":           masteryRows,
	})
}

package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"sprachwerk/backend/config"
	"sprachwerk/backend/models"
	"sprachwerk/backend/services"
	"sprachwerk/backend/utils"
)

type LessonsController struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Lessons *services.LessonService
}

func NewLessonsController(db *gorm.DB, cfg *config.Config, lessons *services.LessonService) *LessonsController {
	return &LessonsController{DB: db, Cfg: cfg, Lessons: lessons}
}

// GetLessons lists published lessons, optionally filtered by level. With no
// filter the student's current level is used.
func (lc *LessonsController) GetLessons(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, lc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	query := lc.DB.Model(&models.Lesson{}).
		Where("is_published = ? AND is_deleted = ?", true, false)

	if levelParam := c.Query("level"); levelParam != "" {
		level, ok := models.ParseLevel(levelParam)
		if !ok {
			return utils.BadRequest(c, "Unknown level")
		}
		query = query.Where("difficulty = ?", level)
	} else {
		var user models.User
		if err := lc.DB.First(&user, userID).Error; err == nil && user.CurrentLevel != nil {
			query = query.Where("difficulty = ?", *user.CurrentLevel)
		}
	}

	var lessons []models.Lesson
	if err := query.Order("id").Find(&lessons).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	result := make([]fiber.Map, 0, len(lessons))
	for _, lesson := range lessons {
		var progress models.LessonProgress
		completed := lc.DB.Where("user_id = ? AND lesson_id = ?", userID, lesson.ID).
			First(&progress).Error == nil

		result = append(result, fiber.Map{
			"id":          lesson.ID,
			"title":       lesson.Title,
			"description": lesson.Description,
			"difficulty":  lesson.Difficulty,
			"audio_url":   lesson.AudioURL,
			"completed":   completed,
		})
	}

	return c.JSON(result)
}

func (lc *LessonsController) GetLessonDetails(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, lc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	lessonID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid lesson ID")
	}

	var lesson models.Lesson
	if err := lc.DB.Where("is_published = ? AND is_deleted = ?", true, false).
		First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Lesson not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	var progress models.LessonProgress
	completed := lc.DB.Where("user_id = ? AND lesson_id = ?", userID, lesson.ID).
		First(&progress).Error == nil

	return c.JSON(fiber.Map{
		"lesson": fiber.Map{
			"id":          lesson.ID,
			"title":       lesson.Title,
			"description": lesson.Description,
			"content":     lesson.Content,
			"difficulty":  lesson.Difficulty,
			"audio_url":   lesson.AudioURL,
		},
		"completed": completed,
	})
}

// CompleteLesson godoc
// @Summary Complete a lesson and collect the coin award
// @Tags lessons
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /lessons/{id}/complete [post]
func (lc *LessonsController) CompleteLesson(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, lc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	lessonID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid lesson ID")
	}

	result, err := lc.Lessons.CompleteLesson(userID, uint(lessonID))
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":       "Lesson completed",
		"awarded_coins": result.AwardedCoins,
		"new_balance":   result.NewBalance,
		"promotion":     result.Promotion,
	})
}

// CreateLesson is the admin entry point of the content store.
func (lc *LessonsController) CreateLesson(c *fiber.Ctx) error {
	var input struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		Difficulty  string `json:"difficulty"`
		AudioURL    string `json:"audio_url"`
		IsPublished bool   `json:"is_published"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	level, ok := models.ParseLevel(input.Difficulty)
	if !ok {
		return utils.BadRequest(c, "Unknown level")
	}

	lesson := models.Lesson{
		Title:       input.Title,
		Description: input.Description,
		Content:     input.Content,
		Difficulty:  level,
		AudioURL:    input.AudioURL,
		IsPublished: input.IsPublished,
	}
	if err := lc.DB.Create(&lesson).Error; err != nil {
		return utils.InternalServerError(c, "Could not create lesson")
	}

	return c.JSON(fiber.Map{
		"message": "Lesson created",
		"lesson":  lesson,
	})
}

// DeleteLesson soft-deletes: the lesson drops out of the catalog and out of
// promotion counts without touching existing progress rows.
func (lc *LessonsController) DeleteLesson(c *fiber.Ctx) error {
	lessonID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid lesson ID")
	}

	var lesson models.Lesson
	if err := lc.DB.First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Lesson not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	lesson.IsDeleted = true
	if err := lc.DB.Save(&lesson).Error; err != nil {
		return utils.InternalServerError(c, "Could not delete lesson")
	}

	return c.JSON(fiber.Map{"message": "Lesson deleted"})
}

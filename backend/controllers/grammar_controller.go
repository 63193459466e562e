package controllers

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"sprachwerk/backend/config"
	"sprachwerk/backend/models"
	"sprachwerk/backend/services"
	"sprachwerk/backend/utils"
)

type GrammarController struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Grammar *services.GrammarService
}

func NewGrammarController(db *gorm.DB, cfg *config.Config, grammar *services.GrammarService) *GrammarController {
	return &GrammarController{DB: db, Cfg: cfg, Grammar: grammar}
}

func (gc *GrammarController) GetTopics(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, gc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	query := gc.DB.Model(&models.GrammarTopic{}).
		Where("is_published = ? AND is_deleted = ?", true, false)

	if levelParam := c.Query("level"); levelParam != "" {
		level, ok := models.ParseLevel(levelParam)
		if !ok {
			return utils.BadRequest(c, "Unknown level")
		}
		query = query.Where("level = ?", level)
	}

	var topics []models.GrammarTopic
	if err := query.Order("sequence_order, id").Find(&topics).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	result := make([]fiber.Map, 0, len(topics))
	for _, topic := range topics {
		var mastery models.GrammarTopicMastery
		masteryLevel := models.TopicMasteryNotStarted
		if gc.DB.Where("user_id = ? AND topic_id = ?", userID, topic.ID).
			First(&mastery).Error == nil {
			masteryLevel = mastery.MasteryLevel
		}

		result = append(result, fiber.Map{
			"id":          topic.ID,
			"title":       topic.Title,
			"description": topic.Description,
			"level":       topic.Level,
			"mastery":     masteryLevel,
		})
	}

	return c.JSON(result)
}

func (gc *GrammarController) GetTopicLessons(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, gc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	topicID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid topic ID")
	}

	var topic models.GrammarTopic
	if err := gc.DB.Where("is_published = ? AND is_deleted = ?", true, false).
		First(&topic, topicID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Topic not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	var lessons []models.GrammarLesson
	if err := gc.DB.Where("topic_id = ? AND is_published = ? AND is_deleted = ?", topicID, true, false).
		Order("sequence_order, id").Find(&lessons).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	result := make([]fiber.Map, 0, len(lessons))
	for _, lesson := range lessons {
		var progress models.GrammarLessonProgress
		entry := fiber.Map{
			"id":        lesson.ID,
			"title":     lesson.Title,
			"completed": false,
		}
		if gc.DB.Where("user_id = ? AND grammar_lesson_id = ?", userID, lesson.ID).
			First(&progress).Error == nil {
			entry["completed"] = progress.IsCompleted
			entry["revisit_count"] = progress.RevisitCount
			entry["time_spent"] = progress.TimeSpent
		}
		result = append(result, entry)
	}

	return c.JSON(fiber.Map{
		"topic":   fiber.Map{"id": topic.ID, "title": topic.Title, "level": topic.Level},
		"lessons": result,
	})
}

// VisitLesson records a grammar-lesson visit (upsert: never conflicts).
func (gc *GrammarController) VisitLesson(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, gc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	lessonID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid lesson ID")
	}

	var input services.VisitInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	result, err := gc.Grammar.VisitLesson(userID, uint(lessonID), input)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":       "Visit recorded",
		"progress":      result.Progress,
		"topic_mastery": result.TopicMastery,
	})
}

func (gc *GrammarController) GetExerciseSets(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, gc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	lessonID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid lesson ID")
	}

	var sets []models.GrammarExerciseSet
	if err := gc.DB.Where("grammar_lesson_id = ? AND is_published = ? AND is_deleted = ?", lessonID, true, false).
		Order("id").Find(&sets).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	result := make([]fiber.Map, 0, len(sets))
	for _, set := range sets {
		exercises, err := models.UnmarshalExercises(set.Exercises)
		if err != nil {
			return utils.InternalServerError(c, "Could not decode exercises")
		}

		entry := fiber.Map{
			"id":            set.ID,
			"title":         set.Title,
			"passing_score": set.PassingScore,
			"exercises":     len(exercises),
		}

		var progress models.GrammarExerciseProgress
		if gc.DB.Where("user_id = ? AND exercise_set_id = ?", userID, set.ID).
			First(&progress).Error == nil {
			entry["best_score"] = progress.BestScore
			entry["passed"] = progress.IsPassed
			entry["mastery_level"] = progress.MasteryLevel
		}
		result = append(result, entry)
	}

	return c.JSON(result)
}

// SubmitExerciseSet godoc
// @Summary Submit answers for an exercise set
// @Tags grammar
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponse
// @Router /grammar/sets/{id}/submit [post]
func (gc *GrammarController) SubmitExerciseSet(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, gc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	setID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid exercise set ID")
	}

	var input struct {
		Answers   []services.Answer `json:"answers"`
		TimeSpent int               `json:"time_spent"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	result, err := gc.Grammar.Submit(userID, uint(setID), input.Answers, input.TimeSpent)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(result)
}

func (gc *GrammarController) GetTopicMastery(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, gc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	topicID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid topic ID")
	}

	mastery, err := gc.Grammar.TopicMastery(userID, uint(topicID))
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(topicMasteryJSON(mastery))
}

func topicMasteryJSON(m *models.GrammarTopicMastery) fiber.Map {
	return fiber.Map{
		"topic_id":          m.TopicID,
		"lessons_completed": m.LessonsCompleted,
		"total_lessons":     m.TotalLessons,
		"exercises_passed":  m.ExercisesPassed,
		"total_exercises":   m.TotalExercises,
		"average_score":     m.AverageScore,
		"mastery_level":     m.MasteryLevel,
		"last_activity_at":  m.LastActivityAt,
	}
}

// Admin catalog endpoints.

func (gc *GrammarController) CreateTopic(c *fiber.Ctx) error {
	var input struct {
		Title         string `json:"title"`
		Description   string `json:"description"`
		Level         string `json:"level"`
		SequenceOrder int    `json:"sequence_order"`
		IsPublished   bool   `json:"is_published"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	level, ok := models.ParseLevel(input.Level)
	if !ok {
		return utils.BadRequest(c, "Unknown level")
	}

	topic := models.GrammarTopic{
		Title:         input.Title,
		Description:   input.Description,
		Level:         level,
		SequenceOrder: input.SequenceOrder,
		IsPublished:   input.IsPublished,
	}
	if err := gc.DB.Create(&topic).Error; err != nil {
		return utils.InternalServerError(c, "Could not create topic")
	}

	return c.JSON(fiber.Map{"message": "Topic created", "topic": topic})
}

func (gc *GrammarController) CreateGrammarLesson(c *fiber.Ctx) error {
	topicID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid topic ID")
	}

	var input struct {
		Title         string `json:"title"`
		Explanation   string `json:"explanation"`
		SequenceOrder int    `json:"sequence_order"`
		IsPublished   bool   `json:"is_published"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	lesson := models.GrammarLesson{
		TopicID:       uint(topicID),
		Title:         input.Title,
		Explanation:   input.Explanation,
		SequenceOrder: input.SequenceOrder,
		IsPublished:   input.IsPublished,
	}
	if err := gc.DB.Create(&lesson).Error; err != nil {
		return utils.InternalServerError(c, "Could not create grammar lesson")
	}

	return c.JSON(fiber.Map{"message": "Grammar lesson created", "lesson": lesson})
}

func (gc *GrammarController) CreateExerciseSet(c *fiber.Ctx) error {
	lessonID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid lesson ID")
	}

	var input struct {
		Title        string            `json:"title"`
		PassingScore int               `json:"passing_score"`
		Exercises    []json.RawMessage `json:"exercises"`
		IsPublished  bool              `json:"is_published"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	encoded, err := json.Marshal(input.Exercises)
	if err != nil {
		return utils.BadRequest(c, "Invalid exercises")
	}
	// Validate via the union decoder before storing.
	if _, err := models.UnmarshalExercises(string(encoded)); err != nil {
		return utils.BadRequest(c, "Invalid exercises: "+err.Error())
	}

	if input.PassingScore == 0 {
		input.PassingScore = 70
	}

	set := models.GrammarExerciseSet{
		GrammarLessonID: uint(lessonID),
		Title:           input.Title,
		PassingScore:    input.PassingScore,
		Exercises:       string(encoded),
		IsPublished:     input.IsPublished,
	}
	if err := gc.DB.Create(&set).Error; err != nil {
		return utils.InternalServerError(c, "Could not create exercise set")
	}

	return c.JSON(fiber.Map{"message": "Exercise set created", "set": fiber.Map{
		"id":            set.ID,
		"title":         set.Title,
		"passing_score": set.PassingScore,
	}})
}

package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sprachwerk/backend/models"
	"sprachwerk/backend/utils"
)

// newTestDB opens a private in-memory database per test. cache=shared keeps
// gorm's pooled connections on the same database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, utils.Migrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string, level models.Level) *models.User {
	t.Helper()

	user := &models.User{
		Username:           username,
		Email:              username + "@example.com",
		PasswordHash:       "x",
		SubscriptionStatus: models.SubscriptionFree,
	}
	if level != "" {
		user.CurrentLevel = &level
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createLesson(t *testing.T, db *gorm.DB, level models.Level, published bool) *models.Lesson {
	t.Helper()

	lesson := &models.Lesson{
		Title:       "Lektion",
		Difficulty:  level,
		IsPublished: published,
	}
	require.NoError(t, db.Create(lesson).Error)
	return lesson
}

func createTopic(t *testing.T, db *gorm.DB, level models.Level) *models.GrammarTopic {
	t.Helper()

	topic := &models.GrammarTopic{
		Title:       "Der Dativ",
		Level:       level,
		IsPublished: true,
	}
	require.NoError(t, db.Create(topic).Error)
	return topic
}

func createGrammarLesson(t *testing.T, db *gorm.DB, topicID uint) *models.GrammarLesson {
	t.Helper()

	lesson := &models.GrammarLesson{
		TopicID:     topicID,
		Title:       "Dativpronomen",
		IsPublished: true,
	}
	require.NoError(t, db.Create(lesson).Error)
	return lesson
}

func createExerciseSet(t *testing.T, db *gorm.DB, lessonID uint, passingScore int, exercises []models.Exercise) *models.GrammarExerciseSet {
	t.Helper()

	encoded, err := models.MarshalExercises(exercises)
	require.NoError(t, err)

	set := &models.GrammarExerciseSet{
		GrammarLessonID: lessonID,
		Title:           "Übungen",
		PassingScore:    passingScore,
		Exercises:       encoded,
		IsPublished:     true,
	}
	require.NoError(t, db.Create(set).Error)
	return set
}

// fillBlankSet builds n identical fill-blank exercises with answer "richtig".
func fillBlankSet(n int) []models.Exercise {
	exercises := make([]models.Exercise, 0, n)
	for i := 0; i < n; i++ {
		exercises = append(exercises, models.FillBlankExercise{
			Prompt: fmt.Sprintf("Lücke %d", i+1),
			Answer: "richtig",
			Points: 10,
		})
	}
	return exercises
}

// fillBlankAnswers answers the first `right` exercises correctly and the rest
// wrong, covering all n positions.
func fillBlankAnswers(n, right int) []Answer {
	answers := make([]Answer, 0, n)
	for i := 0; i < n; i++ {
		value := "falsch"
		if i < right {
			value = "richtig"
		}
		answers = append(answers, Answer{ExerciseIndex: i, Value: value})
	}
	return answers
}

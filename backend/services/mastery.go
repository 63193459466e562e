package services

import (
	"database/sql"
	"errors"
	"time"

	"gorm.io/gorm"

	"sprachwerk/backend/models"
)

// ClassifyTopicMastery maps completion counters to a topic mastery tier.
// Rules are evaluated top-down, first match wins; the ordering matters (a 60%
// lesson completion rate classifies as advanced even with mastered-grade
// exercise scores).
func ClassifyTopicMastery(lessonsCompleted, totalLessons, exercisesPassed, totalExercises int, averageScore float64) string {
	var completionRate, exerciseRate float64
	if totalLessons > 0 {
		completionRate = float64(lessonsCompleted) / float64(totalLessons)
	}
	if totalExercises > 0 {
		exerciseRate = float64(exercisesPassed) / float64(totalExercises)
	}

	switch {
	case completionRate == 0:
		return models.TopicMasteryNotStarted
	case completionRate < 0.3:
		return models.TopicMasteryBeginner
	case completionRate < 0.6 || averageScore < 70:
		return models.TopicMasteryIntermediate
	case completionRate < 0.9 || averageScore < 85:
		return models.TopicMasteryAdvanced
	case exerciseRate >= 0.9 && averageScore >= 90:
		return models.TopicMasteryMastered
	default:
		return models.TopicMasteryAdvanced
	}
}

// RecomputeTopicMastery derives the (user, topic) mastery row from the
// current lesson and exercise progress and upserts it. It is idempotent;
// re-running with unchanged inputs overwrites the row with identical values.
func RecomputeTopicMastery(tx *gorm.DB, userID, topicID uint) (*models.GrammarTopicMastery, error) {
	var lessonIDs []uint
	if err := tx.Model(&models.GrammarLesson{}).
		Where("topic_id = ? AND is_published = ? AND is_deleted = ?", topicID, true, false).
		Pluck("id", &lessonIDs).Error; err != nil {
		return nil, err
	}
	totalLessons := len(lessonIDs)

	var lessonsCompleted int64
	var setIDs []uint
	if totalLessons > 0 {
		if err := tx.Model(&models.GrammarLessonProgress{}).
			Where("user_id = ? AND is_completed = ? AND grammar_lesson_id IN ?", userID, true, lessonIDs).
			Count(&lessonsCompleted).Error; err != nil {
			return nil, err
		}
		if err := tx.Model(&models.GrammarExerciseSet{}).
			Where("grammar_lesson_id IN ? AND is_published = ? AND is_deleted = ?", lessonIDs, true, false).
			Pluck("id", &setIDs).Error; err != nil {
			return nil, err
		}
	}
	totalExercises := len(setIDs)

	var exercisesPassed int64
	var averageScore float64
	if totalExercises > 0 {
		if err := tx.Model(&models.GrammarExerciseProgress{}).
			Where("user_id = ? AND is_passed = ? AND exercise_set_id IN ?", userID, true, setIDs).
			Count(&exercisesPassed).Error; err != nil {
			return nil, err
		}
		var avg sql.NullFloat64
		if err := tx.Model(&models.GrammarExerciseProgress{}).
			Where("user_id = ? AND exercise_set_id IN ?", userID, setIDs).
			Select("AVG(best_score)").Scan(&avg).Error; err != nil {
			return nil, err
		}
		if avg.Valid {
			averageScore = avg.Float64
		}
	}

	var mastery models.GrammarTopicMastery
	err := tx.Where("user_id = ? AND topic_id = ?", userID, topicID).First(&mastery).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		mastery = models.GrammarTopicMastery{UserID: userID, TopicID: topicID}
	} else if err != nil {
		return nil, err
	}

	mastery.LessonsCompleted = int(lessonsCompleted)
	mastery.TotalLessons = totalLessons
	mastery.ExercisesPassed = int(exercisesPassed)
	mastery.TotalExercises = totalExercises
	mastery.AverageScore = averageScore
	mastery.MasteryLevel = ClassifyTopicMastery(
		int(lessonsCompleted), totalLessons, int(exercisesPassed), totalExercises, averageScore)
	mastery.LastActivityAt = time.Now()

	if err := tx.Save(&mastery).Error; err != nil {
		return nil, err
	}
	return &mastery, nil
}

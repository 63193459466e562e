package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"sprachwerk/backend/models"
)

type VisitInput struct {
	TimeSpent     int  `json:"time_spent"` // seconds, added to the cumulative total
	MarkCompleted bool `json:"mark_completed"`
}

type VisitResult struct {
	Progress     models.GrammarLessonProgress `json:"progress"`
	TopicMastery string                       `json:"topic_mastery"`
}

// VisitLesson upserts the (user, grammar lesson) progress row. Unlike simple
// lesson completion this never conflicts: revisits increment RevisitCount and
// accumulate time, and re-marking a completed lesson just re-stamps it.
func (s *GrammarService) VisitLesson(userID, lessonID uint, input VisitInput) (*VisitResult, error) {
	var result *VisitResult

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var lesson models.GrammarLesson
		if err := tx.Where("is_published = ? AND is_deleted = ?", true, false).
			First(&lesson, lessonID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		now := time.Now()

		var progress models.GrammarLessonProgress
		err := tx.Where("user_id = ? AND grammar_lesson_id = ?", userID, lessonID).
			First(&progress).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			progress = models.GrammarLessonProgress{
				UserID:          userID,
				GrammarLessonID: lessonID,
				RevisitCount:    0,
			}
		} else if err != nil {
			return err
		} else {
			progress.RevisitCount++
		}

		progress.TimeSpent += input.TimeSpent
		if input.MarkCompleted {
			progress.IsCompleted = true
			progress.CompletedAt = &now
		}
		progress.LastVisitedAt = now

		if err := tx.Save(&progress).Error; err != nil {
			return err
		}

		mastery, err := RecomputeTopicMastery(tx, userID, lesson.TopicID)
		if err != nil {
			return err
		}

		result = &VisitResult{Progress: progress, TopicMastery: mastery.MasteryLevel}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// TopicMastery returns the stored mastery row for (user, topic), recomputing
// it first so reads never serve stale tiers after catalog changes.
func (s *GrammarService) TopicMastery(userID, topicID uint) (*models.GrammarTopicMastery, error) {
	var topic models.GrammarTopic
	if err := s.DB.Where("is_published = ? AND is_deleted = ?", true, false).
		First(&topic, topicID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var mastery *models.GrammarTopicMastery
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		mastery, err = RecomputeTopicMastery(tx, userID, topicID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return mastery, nil
}

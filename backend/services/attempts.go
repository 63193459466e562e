package services

import (
	"errors"
	"log"
	"math"
	"time"

	"gorm.io/gorm"

	"sprachwerk/backend/config"
	"sprachwerk/backend/models"
)

type SubmitResult struct {
	AttemptNumber  int                   `json:"attempt_number"`
	Score          int                   `json:"score"`
	CorrectAnswers int                   `json:"correct_answers"`
	TotalQuestions int                   `json:"total_questions"`
	Passed         bool                  `json:"passed"`
	BestScore      int                   `json:"best_score"`
	MasteryLevel   string                `json:"mastery_level"`
	Answers        []models.GradedAnswer `json:"answers"`
	TopicMastery   string                `json:"topic_mastery"`
}

// GrammarService handles grammar lesson visits and exercise set submissions.
type GrammarService struct {
	DB   *gorm.DB
	Prog config.Progression
	Log  *log.Logger
}

func NewGrammarService(db *gorm.DB, prog config.Progression, logger *log.Logger) *GrammarService {
	return &GrammarService{DB: db, Prog: prog, Log: logger}
}

// Submit grades a batch of answers against an exercise set, appends the
// attempt to the user's progress record and recomputes topic mastery.
// The score is computed against the set's defined exercise count, so missing
// answers count as wrong. Answers with an out-of-range index, and repeated
// answers for an index already graded, score zero and are logged rather than
// failing the whole batch.
func (s *GrammarService) Submit(userID, setID uint, answers []Answer, timeSpent int) (*SubmitResult, error) {
	var result *SubmitResult

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var set models.GrammarExerciseSet
		if err := tx.Where("is_published = ? AND is_deleted = ?", true, false).
			First(&set, setID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var lesson models.GrammarLesson
		if err := tx.First(&lesson, set.GrammarLessonID).Error; err != nil {
			return err
		}

		exercises, err := models.UnmarshalExercises(set.Exercises)
		if err != nil {
			return err
		}
		total := len(exercises)

		graded := make([]models.GradedAnswer, 0, len(answers))
		seen := make(map[int]bool, len(answers))
		correctCount := 0
		for _, ans := range answers {
			if ans.ExerciseIndex < 0 || ans.ExerciseIndex >= total {
				if s.Log != nil {
					s.Log.Printf("grading anomaly: set %d answer index %d out of range (total %d)",
						setID, ans.ExerciseIndex, total)
				}
				graded = append(graded, models.GradedAnswer{ExerciseIndex: ans.ExerciseIndex})
				continue
			}
			// At most one answer per exercise counts; extras would push the
			// score past 100 and poison best-score aggregates.
			if seen[ans.ExerciseIndex] {
				if s.Log != nil {
					s.Log.Printf("grading anomaly: set %d duplicate answer for index %d",
						setID, ans.ExerciseIndex)
				}
				graded = append(graded, models.GradedAnswer{ExerciseIndex: ans.ExerciseIndex})
				continue
			}
			seen[ans.ExerciseIndex] = true
			r := Grade(exercises[ans.ExerciseIndex], ans)
			if r.IsCorrect {
				correctCount++
			}
			graded = append(graded, models.GradedAnswer{
				ExerciseIndex: ans.ExerciseIndex,
				Value:         ans.Value,
				Values:        ans.Values,
				IsCorrect:     r.IsCorrect,
				PointsAwarded: r.PointsAwarded,
			})
		}

		score := 0
		if total > 0 {
			score = int(math.Round(100 * float64(correctCount) / float64(total)))
		}

		var progress models.GrammarExerciseProgress
		err = tx.Where("user_id = ? AND exercise_set_id = ?", userID, setID).
			First(&progress).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			progress = models.GrammarExerciseProgress{
				UserID:        userID,
				ExerciseSetID: setID,
				MasteryLevel:  models.MasteryLearning,
			}
		} else if err != nil {
			return err
		}

		attempts, err := progress.DecodeAttempts()
		if err != nil {
			return err
		}
		attemptNumber := len(attempts) + 1

		passed := score >= set.PassingScore
		if passed {
			// Sticky: a later low score never clears a pass.
			progress.IsPassed = true
		}
		if score > progress.BestScore {
			progress.BestScore = score
		}
		progress.MasteryLevel = nextMasteryLevel(progress.MasteryLevel, score, attemptNumber, s.Prog)

		attempts = append(attempts, models.Attempt{
			AttemptNumber:  attemptNumber,
			Score:          score,
			CorrectAnswers: correctCount,
			TotalQuestions: total,
			TimeSpent:      timeSpent,
			Answers:        graded,
			CompletedAt:    time.Now(),
		})
		if err := progress.EncodeAttempts(attempts); err != nil {
			return err
		}

		if err := tx.Save(&progress).Error; err != nil {
			return err
		}

		mastery, err := RecomputeTopicMastery(tx, userID, lesson.TopicID)
		if err != nil {
			return err
		}

		result = &SubmitResult{
			AttemptNumber:  attemptNumber,
			Score:          score,
			CorrectAnswers: correctCount,
			TotalQuestions: total,
			Passed:         progress.IsPassed,
			BestScore:      progress.BestScore,
			MasteryLevel:   progress.MasteryLevel,
			Answers:        graded,
			TopicMastery:   mastery.MasteryLevel,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// nextMasteryLevel applies the tier transition for one attempt. Tiers only
// move forward: a weak attempt after reaching a tier does not demote it.
func nextMasteryLevel(current string, score, attemptNumber int, prog config.Progression) string {
	candidate := current
	switch {
	case score >= prog.MasteredScore && attemptNumber >= prog.MasteredMinAttempts:
		candidate = models.MasteryMastered
	case score >= prog.PracticingScore:
		candidate = models.MasteryPracticing
	}
	if masteryRank(candidate) > masteryRank(current) {
		return candidate
	}
	return current
}

func masteryRank(level string) int {
	switch level {
	case models.MasteryPracticing:
		return 1
	case models.MasteryMastered:
		return 2
	}
	return 0
}

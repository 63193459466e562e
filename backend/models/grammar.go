package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Exercise-set mastery tiers, in order.
const (
	MasteryLearning   = "learning"
	MasteryPracticing = "practicing"
	MasteryMastered   = "mastered"
)

// Topic mastery tiers, in order.
const (
	TopicMasteryNotStarted   = "not-started"
	TopicMasteryBeginner     = "beginner"
	TopicMasteryIntermediate = "intermediate"
	TopicMasteryAdvanced     = "advanced"
	TopicMasteryMastered     = "mastered"
)

type GrammarTopic struct {
	gorm.Model
	Title         string `gorm:"not null"`
	Description   string
	Level         Level `gorm:"not null;index"`
	SequenceOrder int
	IsPublished   bool `gorm:"default:false"`
	IsDeleted     bool `gorm:"default:false"`
}

type GrammarLesson struct {
	gorm.Model
	TopicID       uint   `gorm:"not null;index"`
	Title         string `gorm:"not null"`
	Explanation   string `gorm:"type:text"`
	SequenceOrder int
	IsPublished   bool `gorm:"default:false"`
	IsDeleted     bool `gorm:"default:false"`
}

// GrammarExerciseSet holds an ordered sequence of exercises as an enveloped
// JSON array in a text column (see exercise.go for the codec).
type GrammarExerciseSet struct {
	gorm.Model
	GrammarLessonID uint   `gorm:"not null;index"`
	Title           string `gorm:"not null"`
	PassingScore    int    `gorm:"default:70"`
	Exercises       string `gorm:"type:text"`
	IsPublished     bool   `gorm:"default:false"`
	IsDeleted       bool   `gorm:"default:false"`
}

// GrammarLessonProgress is upserted, not insert-once: revisiting a lesson
// increments RevisitCount and accumulates TimeSpent instead of erroring.
type GrammarLessonProgress struct {
	gorm.Model
	UserID          uint `gorm:"not null;index:idx_grammar_lesson_progress_user_lesson,unique"`
	GrammarLessonID uint `gorm:"not null;index:idx_grammar_lesson_progress_user_lesson,unique"`
	IsCompleted     bool
	CompletedAt     *time.Time
	TimeSpent       int `gorm:"default:0"` // cumulative seconds
	RevisitCount    int `gorm:"default:0"`
	LastVisitedAt   time.Time
}

type GrammarExerciseProgress struct {
	gorm.Model
	UserID        uint   `gorm:"not null;index:idx_grammar_exercise_progress_user_set,unique"`
	ExerciseSetID uint   `gorm:"not null;index:idx_grammar_exercise_progress_user_set,unique"`
	Attempts      string `gorm:"type:text"` // JSON array of Attempt
	BestScore     int    `gorm:"default:0"`
	IsPassed      bool   `gorm:"default:false"` // sticky once true
	MasteryLevel  string `gorm:"default:learning"`
}

type Attempt struct {
	AttemptNumber  int            `json:"attempt_number"`
	Score          int            `json:"score"`
	CorrectAnswers int            `json:"correct_answers"`
	TotalQuestions int            `json:"total_questions"`
	TimeSpent      int            `json:"time_spent"`
	Answers        []GradedAnswer `json:"answers"`
	CompletedAt    time.Time      `json:"completed_at"`
}

type GradedAnswer struct {
	ExerciseIndex int      `json:"exercise_index"`
	Value         string   `json:"value,omitempty"`
	Values        []string `json:"values,omitempty"`
	IsCorrect     bool     `json:"is_correct"`
	PointsAwarded int      `json:"points_awarded"`
}

func (p *GrammarExerciseProgress) DecodeAttempts() ([]Attempt, error) {
	if p.Attempts == "" {
		return nil, nil
	}
	var attempts []Attempt
	if err := json.Unmarshal([]byte(p.Attempts), &attempts); err != nil {
		return nil, err
	}
	return attempts, nil
}

func (p *GrammarExerciseProgress) EncodeAttempts(attempts []Attempt) error {
	data, err := json.Marshal(attempts)
	if err != nil {
		return err
	}
	p.Attempts = string(data)
	return nil
}

// GrammarTopicMastery is fully derived from lesson/exercise progress rows and
// recomputed after every relevant write; it is never mutated directly.
type GrammarTopicMastery struct {
	gorm.Model
	UserID           uint `gorm:"not null;index:idx_grammar_topic_mastery_user_topic,unique"`
	TopicID          uint `gorm:"not null;index:idx_grammar_topic_mastery_user_topic,unique"`
	LessonsCompleted int
	TotalLessons     int
	ExercisesPassed  int
	TotalExercises   int
	AverageScore     float64
	MasteryLevel     string `gorm:"default:not-started"`
	LastActivityAt   time.Time
}

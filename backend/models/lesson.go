package models

import (
	"time"

	"gorm.io/gorm"
)

type Lesson struct {
	gorm.Model
	Title       string `gorm:"not null"`
	Description string
	Content     string `gorm:"type:text"`
	Difficulty  Level  `gorm:"not null;index"`
	AudioURL    string // filled in by the TTS pipeline, opaque here
	IsPublished bool   `gorm:"default:false"`
	IsDeleted   bool   `gorm:"default:false"`
}

// LessonProgress records a simple-lesson completion. The unique index on
// (user_id, lesson_id) is what turns a concurrent double completion into
// exactly one success and one conflict.
type LessonProgress struct {
	gorm.Model
	UserID      uint `gorm:"not null;index:idx_lesson_progress_user_lesson,unique"`
	LessonID    uint `gorm:"not null;index:idx_lesson_progress_user_lesson,unique"`
	IsCompleted bool
	CompletedAt time.Time
}

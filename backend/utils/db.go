package utils

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"sprachwerk/backend/config"
	"sprachwerk/backend/models"
)

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)

	// TranslateError maps driver duplicate-key errors to gorm.ErrDuplicatedKey,
	// which the completion flow relies on for its conflict backstop.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate runs the schema migration for every model. Shared with tests so
// the sqlite test database gets the same unique indexes as postgres.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.LoginHistory{},
		&models.StudyStreak{},
		&models.Lesson{},
		&models.LessonProgress{},
		&models.GrammarTopic{},
		&models.GrammarLesson{},
		&models.GrammarExerciseSet{},
		&models.GrammarLessonProgress{},
		&models.GrammarExerciseProgress{},
		&models.GrammarTopicMastery{},
	)
}

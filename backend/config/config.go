package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	JWTSecret  string
	ServerPort string

	Progression Progression
}

// Progression carries the constants of the level/reward engine. It is built
// once at startup and injected into the services; nothing mutates it.
type Progression struct {
	// Coins granted for completing a simple lesson.
	LessonCoinAward int
	// Bonus coins granted together with a level promotion.
	PromotionBonus int
	// Score threshold for the "practicing" exercise mastery tier.
	PracticingScore int
	// Score threshold for the "mastered" exercise mastery tier.
	MasteredScore int
	// Minimum attempt number before "mastered" can be reached.
	MasteredMinAttempts int
}

func DefaultProgression() Progression {
	return Progression{
		LessonCoinAward:     10,
		PromotionBonus:      50,
		PracticingScore:     70,
		MasteredScore:       90,
		MasteredMinAttempts: 2,
	}
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	return &Config{
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", "postgres"),
		DBName:      getEnv("DB_NAME", "sprachwerk"),
		JWTSecret:   getEnv("JWT_SECRET", "secret"),
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		Progression: DefaultProgression(),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

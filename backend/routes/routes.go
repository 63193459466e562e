package routes

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"sprachwerk/backend/config"
	"sprachwerk/backend/controllers"
	"sprachwerk/backend/middleware"
	"sprachwerk/backend/services"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, logger *log.Logger) {
	gate := services.NewAccessGate()
	lessonService := services.NewLessonService(db, gate, cfg.Progression)
	grammarService := services.NewGrammarService(db, cfg.Progression, logger)

	// Auth routes
	authController := controllers.NewAuthController(db, cfg)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	adminMiddleware := middleware.AdminMiddleware(db, cfg)

	// User routes
	userController := controllers.NewUserController(db, cfg)
	app.Get("/api/user/profile", authMiddleware, userController.GetProfile)
	app.Put("/api/user/profile", authMiddleware, userController.UpdateProfile)
	app.Put("/api/user/level", authMiddleware, userController.SelectLevel)

	// Subscription routes
	subscriptionController := controllers.NewSubscriptionController(db, cfg)
	app.Get("/api/subscription", authMiddleware, subscriptionController.GetSubscription)
	app.Post("/api/subscription/upgrade", authMiddleware, subscriptionController.Upgrade)
	app.Post("/api/subscription/cancel", authMiddleware, subscriptionController.Cancel)

	// Progress routes
	progressController := controllers.NewProgressController(db, cfg)
	app.Get("/api/progress/overview", authMiddleware, progressController.GetOverview)

	// Lesson routes
	lessonsController := controllers.NewLessonsController(db, cfg, lessonService)
	lessons := app.Group("/api/lessons", authMiddleware)
	lessons.Get("/", lessonsController.GetLessons)
	lessons.Get("/:id", lessonsController.GetLessonDetails)
	lessons.Post("/:id/complete", lessonsController.CompleteLesson)

	// Grammar routes
	grammarController := controllers.NewGrammarController(db, cfg, grammarService)
	grammar := app.Group("/api/grammar", authMiddleware)
	grammar.Get("/topics", grammarController.GetTopics)
	grammar.Get("/topics/:id/lessons", grammarController.GetTopicLessons)
	grammar.Get("/topics/:id/mastery", grammarController.GetTopicMastery)
	grammar.Post("/lessons/:id/visit", grammarController.VisitLesson)
	grammar.Get("/lessons/:id/sets", grammarController.GetExerciseSets)
	grammar.Post("/sets/:id/submit", grammarController.SubmitExerciseSet)

	// Admin content routes
	admin := app.Group("/api/admin", authMiddleware, adminMiddleware)
	admin.Post("/lessons", lessonsController.CreateLesson)
	admin.Delete("/lessons/:id", lessonsController.DeleteLesson)
	admin.Post("/grammar/topics", grammarController.CreateTopic)
	admin.Post("/grammar/topics/:id/lessons", grammarController.CreateGrammarLesson)
	admin.Post("/grammar/lessons/:id/sets", grammarController.CreateExerciseSet)
}

package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"sprachwerk/backend/config"
	"sprachwerk/backend/models"
	"sprachwerk/backend/utils"
)

// SubscriptionController owns the Student subscription fields. Payment
// gateway interaction sits outside this service; by the time Upgrade is
// called the payment has been validated upstream.
type SubscriptionController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewSubscriptionController(db *gorm.DB, cfg *config.Config) *SubscriptionController {
	return &SubscriptionController{DB: db, Cfg: cfg}
}

func (sc *SubscriptionController) GetSubscription(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, sc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var user models.User
	if err := sc.DB.First(&user, userID).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}

	return c.JSON(fiber.Map{
		"status": user.SubscriptionStatus,
		"plan":   user.SubscriptionPlan,
		"expiry": user.SubscriptionExpiry,
		"active": user.HasActivePremium(time.Now()),
	})
}

func (sc *SubscriptionController) Upgrade(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, sc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var input struct {
		Plan string `json:"plan"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	var expiry *time.Time
	switch input.Plan {
	case models.PlanMonthly:
		t := time.Now().AddDate(0, 1, 0)
		expiry = &t
	case models.PlanYearly:
		t := time.Now().AddDate(1, 0, 0)
		expiry = &t
	case models.PlanLifetime:
		// no expiry
	default:
		return utils.BadRequest(c, "Unknown plan")
	}

	var user models.User
	if err := sc.DB.First(&user, userID).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}

	plan := input.Plan
	user.SubscriptionStatus = models.SubscriptionPremium
	user.SubscriptionPlan = &plan
	user.SubscriptionExpiry = expiry

	if err := sc.DB.Save(&user).Error; err != nil {
		return utils.InternalServerError(c, "Could not update subscription")
	}

	return c.JSON(fiber.Map{
		"message": "Subscription upgraded",
		"status":  user.SubscriptionStatus,
		"plan":    plan,
		"expiry":  expiry,
	})
}

func (sc *SubscriptionController) Cancel(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, sc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var user models.User
	if err := sc.DB.First(&user, userID).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}

	user.SubscriptionStatus = models.SubscriptionFree
	user.SubscriptionPlan = nil
	user.SubscriptionExpiry = nil

	if err := sc.DB.Save(&user).Error; err != nil {
		return utils.InternalServerError(c, "Could not update subscription")
	}

	return c.JSON(fiber.Map{
		"message": "Subscription cancelled",
		"status":  user.SubscriptionStatus,
	})
}

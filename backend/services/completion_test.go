package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"sprachwerk/backend/config"
	"sprachwerk/backend/models"
)

func newLessonService(t *testing.T) (*LessonService, *config.Progression) {
	t.Helper()
	prog := config.DefaultProgression()
	svc := NewLessonService(newTestDB(t), NewAccessGate(), prog)
	return svc, &prog
}

func TestCompleteLessonAwardsCoins(t *testing.T) {
	svc, prog := newLessonService(t)
	user := createUser(t, svc.DB, "anna", models.LevelA1)
	lesson := createLesson(t, svc.DB, models.LevelA1, true)
	createLesson(t, svc.DB, models.LevelA1, true) // second lesson keeps the level incomplete

	result, err := svc.CompleteLesson(user.ID, lesson.ID)
	require.NoError(t, err)

	assert.Equal(t, prog.LessonCoinAward, result.AwardedCoins)
	assert.Equal(t, prog.LessonCoinAward, result.NewBalance)
	assert.Nil(t, result.Promotion)

	var saved models.User
	require.NoError(t, svc.DB.First(&saved, user.ID).Error)
	assert.Equal(t, prog.LessonCoinAward, saved.Coins)
	assert.Equal(t, models.LevelA1, *saved.CurrentLevel)

	var progress models.LessonProgress
	require.NoError(t, svc.DB.Where("user_id = ? AND lesson_id = ?", user.ID, lesson.ID).
		First(&progress).Error)
	assert.True(t, progress.IsCompleted)
	assert.False(t, progress.CompletedAt.IsZero())
}

func TestCompleteLessonTwiceConflicts(t *testing.T) {
	svc, prog := newLessonService(t)
	user := createUser(t, svc.DB, "ben", models.LevelA1)
	lesson := createLesson(t, svc.DB, models.LevelA1, true)
	createLesson(t, svc.DB, models.LevelA1, true)

	_, err := svc.CompleteLesson(user.ID, lesson.ID)
	require.NoError(t, err)

	_, err = svc.CompleteLesson(user.ID, lesson.ID)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	// The award fired exactly once and only one progress row exists.
	var saved models.User
	require.NoError(t, svc.DB.First(&saved, user.ID).Error)
	assert.Equal(t, prog.LessonCoinAward, saved.Coins)

	var count int64
	svc.DB.Model(&models.LessonProgress{}).
		Where("user_id = ? AND lesson_id = ?", user.ID, lesson.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestPromotionFiresOnLastLesson(t *testing.T) {
	svc, prog := newLessonService(t)
	user := createUser(t, svc.DB, "clara", models.LevelA1)

	lessons := []*models.Lesson{
		createLesson(t, svc.DB, models.LevelA1, true),
		createLesson(t, svc.DB, models.LevelA1, true),
		createLesson(t, svc.DB, models.LevelA1, true),
	}
	// Unpublished and deleted lessons never count toward the threshold.
	createLesson(t, svc.DB, models.LevelA1, false)
	deleted := createLesson(t, svc.DB, models.LevelA1, true)
	deleted.IsDeleted = true
	require.NoError(t, svc.DB.Save(deleted).Error)

	for _, lesson := range lessons[:2] {
		result, err := svc.CompleteLesson(user.ID, lesson.ID)
		require.NoError(t, err)
		assert.Nil(t, result.Promotion, "promotion must not fire before the last lesson")
	}

	result, err := svc.CompleteLesson(user.ID, lessons[2].ID)
	require.NoError(t, err)
	require.NotNil(t, result.Promotion)
	assert.True(t, result.Promotion.Promoted)
	assert.Equal(t, models.LevelA1, result.Promotion.FromLevel)
	assert.Equal(t, models.LevelA2, result.Promotion.ToLevel)
	assert.Equal(t, prog.PromotionBonus, result.Promotion.BonusCoins)
	assert.Equal(t, 3, result.Promotion.TotalLessons)

	var saved models.User
	require.NoError(t, svc.DB.First(&saved, user.ID).Error)
	assert.Equal(t, models.LevelA2, *saved.CurrentLevel)
	assert.Equal(t, 3*prog.LessonCoinAward+prog.PromotionBonus, saved.Coins)
	assert.Equal(t, saved.Coins, result.NewBalance)
}

func TestNoPromotionOnEmptyLevel(t *testing.T) {
	svc, _ := newLessonService(t)

	// Premium student parked at C1 completes an A1 lesson; C1 has no
	// content, so the completion never promotes.
	user := createUser(t, svc.DB, "dora", models.LevelC1)
	user.SubscriptionStatus = models.SubscriptionPremium
	plan := models.PlanLifetime
	user.SubscriptionPlan = &plan
	require.NoError(t, svc.DB.Save(user).Error)

	lesson := createLesson(t, svc.DB, models.LevelA1, true)

	result, err := svc.CompleteLesson(user.ID, lesson.ID)
	require.NoError(t, err)
	assert.Nil(t, result.Promotion)

	var saved models.User
	require.NoError(t, svc.DB.First(&saved, user.ID).Error)
	assert.Equal(t, models.LevelC1, *saved.CurrentLevel)
}

func TestNoPromotionAtTopRank(t *testing.T) {
	svc, prog := newLessonService(t)

	user := createUser(t, svc.DB, "emil", models.LevelC2)
	user.SubscriptionStatus = models.SubscriptionPremium
	plan := models.PlanLifetime
	user.SubscriptionPlan = &plan
	require.NoError(t, svc.DB.Save(user).Error)

	lesson := createLesson(t, svc.DB, models.LevelC2, true)

	result, err := svc.CompleteLesson(user.ID, lesson.ID)
	require.NoError(t, err)
	assert.Nil(t, result.Promotion, "the level is complete but there is no next rank")

	var saved models.User
	require.NoError(t, svc.DB.First(&saved, user.ID).Error)
	assert.Equal(t, models.LevelC2, *saved.CurrentLevel)
	assert.Equal(t, prog.LessonCoinAward, saved.Coins, "no bonus without a promotion")
}

// TestConcurrentCompletionHitsUniqueIndex drives the race the duplicate
// pre-check cannot see: a rival completion lands after the pre-check but
// before the insert. The rival is injected through a create callback so the
// interleaving is deterministic; the unique (user, lesson) index must turn
// the collision into a conflict with no coin movement.
func TestConcurrentCompletionHitsUniqueIndex(t *testing.T) {
	svc, prog := newLessonService(t)
	user := createUser(t, svc.DB, "kurt", models.LevelA1)
	lesson := createLesson(t, svc.DB, models.LevelA1, true)
	createLesson(t, svc.DB, models.LevelA1, true)

	injected := false
	err := svc.DB.Callback().Create().Before("gorm:create").
		Register("rival_completion", func(tx *gorm.DB) {
			if injected {
				return
			}
			if _, ok := tx.Statement.Dest.(*models.LessonProgress); !ok {
				return
			}
			injected = true
			rival := models.LessonProgress{
				UserID:      user.ID,
				LessonID:    lesson.ID,
				IsCompleted: true,
				CompletedAt: time.Now(),
			}
			tx.Session(&gorm.Session{NewDB: true}).Create(&rival)
		})
	require.NoError(t, err)

	_, err = svc.CompleteLesson(user.ID, lesson.ID)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
	assert.True(t, injected)

	// The losing transaction rolled back wholesale.
	var saved models.User
	require.NoError(t, svc.DB.First(&saved, user.ID).Error)
	assert.Zero(t, saved.Coins)

	// Without the rival the same completion succeeds exactly once.
	require.NoError(t, svc.DB.Callback().Create().Remove("rival_completion"))
	result, err := svc.CompleteLesson(user.ID, lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, prog.LessonCoinAward, result.NewBalance)

	var count int64
	svc.DB.Model(&models.LessonProgress{}).
		Where("user_id = ? AND lesson_id = ?", user.ID, lesson.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestGateDenialLeavesNoTrace(t *testing.T) {
	svc, _ := newLessonService(t)
	user := createUser(t, svc.DB, "frida", models.LevelA2)
	lesson := createLesson(t, svc.DB, models.LevelB1, true)

	_, err := svc.CompleteLesson(user.ID, lesson.ID)
	var accessErr *AccessError
	require.ErrorAs(t, err, &accessErr)
	assert.Equal(t, DenyPremiumRequired, accessErr.Reason)

	var saved models.User
	require.NoError(t, svc.DB.First(&saved, user.ID).Error)
	assert.Zero(t, saved.Coins)

	var count int64
	svc.DB.Model(&models.LessonProgress{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Zero(t, count)
}

func TestCompleteLessonPreconditions(t *testing.T) {
	svc, _ := newLessonService(t)

	t.Run("level not selected", func(t *testing.T) {
		user := createUser(t, svc.DB, "greta", "")
		lesson := createLesson(t, svc.DB, models.LevelA1, true)

		_, err := svc.CompleteLesson(user.ID, lesson.ID)
		assert.ErrorIs(t, err, ErrLevelNotSelected)

		// The precondition is checked before the lesson load, so it wins
		// even when the lesson does not exist.
		_, err = svc.CompleteLesson(user.ID, 9999)
		assert.ErrorIs(t, err, ErrLevelNotSelected)
	})

	t.Run("lesson not found", func(t *testing.T) {
		user := createUser(t, svc.DB, "hans", models.LevelA1)

		_, err := svc.CompleteLesson(user.ID, 9999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unpublished lesson is invisible", func(t *testing.T) {
		user := createUser(t, svc.DB, "ida", models.LevelA1)
		lesson := createLesson(t, svc.DB, models.LevelA1, false)

		_, err := svc.CompleteLesson(user.ID, lesson.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unknown student", func(t *testing.T) {
		lesson := createLesson(t, svc.DB, models.LevelA1, true)

		_, err := svc.CompleteLesson(9999, lesson.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPromotionCountsOnlyCurrentLevel(t *testing.T) {
	svc, _ := newLessonService(t)
	user := createUser(t, svc.DB, "jonas", models.LevelA2)

	// One A1 lesson completed earlier does not count toward A2.
	a1 := createLesson(t, svc.DB, models.LevelA1, true)
	a2first := createLesson(t, svc.DB, models.LevelA2, true)
	a2second := createLesson(t, svc.DB, models.LevelA2, true)

	_, err := svc.CompleteLesson(user.ID, a1.ID)
	require.NoError(t, err)

	result, err := svc.CompleteLesson(user.ID, a2first.ID)
	require.NoError(t, err)
	assert.Nil(t, result.Promotion)

	result, err = svc.CompleteLesson(user.ID, a2second.ID)
	require.NoError(t, err)
	require.NotNil(t, result.Promotion)
	assert.Equal(t, models.LevelB1, result.Promotion.ToLevel)
	assert.Equal(t, 2, result.Promotion.TotalLessons)
}

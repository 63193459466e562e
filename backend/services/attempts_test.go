package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprachwerk/backend/config"
	"sprachwerk/backend/models"
)

func newGrammarService(t *testing.T) *GrammarService {
	t.Helper()
	return NewGrammarService(newTestDB(t), config.DefaultProgression(), nil)
}

// seedSet creates topic → lesson → set and returns the set.
func seedSet(t *testing.T, svc *GrammarService, passingScore, exerciseCount int) (*models.GrammarTopic, *models.GrammarExerciseSet) {
	t.Helper()
	topic := createTopic(t, svc.DB, models.LevelA1)
	lesson := createGrammarLesson(t, svc.DB, topic.ID)
	set := createExerciseSet(t, svc.DB, lesson.ID, passingScore, fillBlankSet(exerciseCount))
	return topic, set
}

func TestSubmitFirstAttemptPasses(t *testing.T) {
	svc := newGrammarService(t)
	user := createUser(t, svc.DB, "karla", models.LevelA1)
	_, set := seedSet(t, svc, 70, 10)

	result, err := svc.Submit(user.ID, set.ID, fillBlankAnswers(10, 7), 120)
	require.NoError(t, err)

	assert.Equal(t, 1, result.AttemptNumber)
	assert.Equal(t, 70, result.Score)
	assert.Equal(t, 7, result.CorrectAnswers)
	assert.Equal(t, 10, result.TotalQuestions)
	assert.True(t, result.Passed)
	assert.Equal(t, 70, result.BestScore)
	assert.Equal(t, models.MasteryPracticing, result.MasteryLevel)
}

func TestSubmitSecondAttemptMasters(t *testing.T) {
	svc := newGrammarService(t)
	user := createUser(t, svc.DB, "lena", models.LevelA1)
	_, set := seedSet(t, svc, 70, 20)

	result, err := svc.Submit(user.ID, set.ID, fillBlankAnswers(20, 14), 300)
	require.NoError(t, err)
	assert.Equal(t, 70, result.Score)
	assert.Equal(t, models.MasteryPracticing, result.MasteryLevel)

	result, err = svc.Submit(user.ID, set.ID, fillBlankAnswers(20, 19), 200)
	require.NoError(t, err)
	assert.Equal(t, 2, result.AttemptNumber)
	assert.Equal(t, 95, result.Score)
	assert.Equal(t, 95, result.BestScore)
	assert.Equal(t, models.MasteryMastered, result.MasteryLevel)
}

func TestFirstPerfectAttemptIsOnlyPracticing(t *testing.T) {
	svc := newGrammarService(t)
	user := createUser(t, svc.DB, "mia", models.LevelA1)
	_, set := seedSet(t, svc, 70, 10)

	// Mastered needs at least two attempts, however good the first one is.
	result, err := svc.Submit(user.ID, set.ID, fillBlankAnswers(10, 10), 90)
	require.NoError(t, err)
	assert.Equal(t, 100, result.Score)
	assert.Equal(t, models.MasteryPracticing, result.MasteryLevel)
}

func TestPassAndBestScoreAreSticky(t *testing.T) {
	svc := newGrammarService(t)
	user := createUser(t, svc.DB, "nico", models.LevelA1)
	_, set := seedSet(t, svc, 70, 10)

	_, err := svc.Submit(user.ID, set.ID, fillBlankAnswers(10, 9), 100)
	require.NoError(t, err)

	result, err := svc.Submit(user.ID, set.ID, fillBlankAnswers(10, 3), 60)
	require.NoError(t, err)

	assert.Equal(t, 30, result.Score)
	assert.True(t, result.Passed, "a later fail never clears a pass")
	assert.Equal(t, 90, result.BestScore, "best score never drops")

	var progress models.GrammarExerciseProgress
	require.NoError(t, svc.DB.Where("user_id = ? AND exercise_set_id = ?", user.ID, set.ID).
		First(&progress).Error)
	assert.True(t, progress.IsPassed)
	assert.Equal(t, 90, progress.BestScore)
}

func TestMasteryNeverDowngrades(t *testing.T) {
	svc := newGrammarService(t)
	user := createUser(t, svc.DB, "ole", models.LevelA1)
	_, set := seedSet(t, svc, 70, 10)

	_, err := svc.Submit(user.ID, set.ID, fillBlankAnswers(10, 8), 100)
	require.NoError(t, err)
	result, err := svc.Submit(user.ID, set.ID, fillBlankAnswers(10, 10), 80)
	require.NoError(t, err)
	require.Equal(t, models.MasteryMastered, result.MasteryLevel)

	result, err = svc.Submit(user.ID, set.ID, fillBlankAnswers(10, 7), 150)
	require.NoError(t, err)
	assert.Equal(t, models.MasteryMastered, result.MasteryLevel)
}

func TestScoreCountsDefinedExercisesNotSubmittedAnswers(t *testing.T) {
	svc := newGrammarService(t)
	user := createUser(t, svc.DB, "paula", models.LevelA1)
	_, set := seedSet(t, svc, 70, 10)

	// Five correct answers out of ten defined exercises scores 50, not 100.
	result, err := svc.Submit(user.ID, set.ID, fillBlankAnswers(5, 5), 60)
	require.NoError(t, err)
	assert.Equal(t, 50, result.Score)
	assert.False(t, result.Passed)
}

func TestOutOfRangeAnswerIsWrongNotFatal(t *testing.T) {
	svc := newGrammarService(t)
	user := createUser(t, svc.DB, "rosa", models.LevelA1)
	_, set := seedSet(t, svc, 70, 4)

	answers := fillBlankAnswers(4, 3)
	answers[3] = Answer{ExerciseIndex: 17, Value: "richtig"}

	result, err := svc.Submit(user.ID, set.ID, answers, 45)
	require.NoError(t, err)
	assert.Equal(t, 3, result.CorrectAnswers)
	assert.Equal(t, 75, result.Score)

	require.Len(t, result.Answers, 4)
	assert.False(t, result.Answers[3].IsCorrect)
	assert.Zero(t, result.Answers[3].PointsAwarded)
}

func TestDuplicateAnswerIndexCountsOnce(t *testing.T) {
	svc := newGrammarService(t)
	user := createUser(t, svc.DB, "sina", models.LevelA1)
	_, set := seedSet(t, svc, 70, 2)

	// Three answers for index 0 must not yield three correct answers.
	answers := []Answer{
		{ExerciseIndex: 0, Value: "richtig"},
		{ExerciseIndex: 0, Value: "richtig"},
		{ExerciseIndex: 0, Value: "richtig"},
		{ExerciseIndex: 1, Value: "richtig"},
	}

	result, err := svc.Submit(user.ID, set.ID, answers, 30)
	require.NoError(t, err)
	assert.Equal(t, 2, result.CorrectAnswers)
	assert.Equal(t, 100, result.Score)
	assert.Equal(t, 100, result.BestScore)

	require.Len(t, result.Answers, 4)
	assert.True(t, result.Answers[0].IsCorrect)
	assert.False(t, result.Answers[1].IsCorrect, "repeated index scores zero")
	assert.Zero(t, result.Answers[1].PointsAwarded)
	assert.False(t, result.Answers[2].IsCorrect)
}

func TestSubmitUnknownOrDeletedSet(t *testing.T) {
	svc := newGrammarService(t)
	user := createUser(t, svc.DB, "sven", models.LevelA1)

	_, err := svc.Submit(user.ID, 9999, nil, 0)
	assert.ErrorIs(t, err, ErrNotFound)

	_, set := seedSet(t, svc, 70, 3)
	set.IsDeleted = true
	require.NoError(t, svc.DB.Save(set).Error)

	_, err = svc.Submit(user.ID, set.ID, fillBlankAnswers(3, 3), 30)
	assert.ErrorIs(t, err, ErrNotFound)

	// Nothing was recorded for the failed submissions.
	var count int64
	svc.DB.Model(&models.GrammarExerciseProgress{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Zero(t, count)
}

func TestSubmitAppendsAttemptHistory(t *testing.T) {
	svc := newGrammarService(t)
	user := createUser(t, svc.DB, "tina", models.LevelA1)
	_, set := seedSet(t, svc, 70, 5)

	_, err := svc.Submit(user.ID, set.ID, fillBlankAnswers(5, 2), 40)
	require.NoError(t, err)
	_, err = svc.Submit(user.ID, set.ID, fillBlankAnswers(5, 4), 35)
	require.NoError(t, err)

	var progress models.GrammarExerciseProgress
	require.NoError(t, svc.DB.Where("user_id = ? AND exercise_set_id = ?", user.ID, set.ID).
		First(&progress).Error)

	attempts, err := progress.DecodeAttempts()
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, 1, attempts[0].AttemptNumber)
	assert.Equal(t, 40, attempts[0].Score)
	assert.Equal(t, 40, attempts[0].TimeSpent)
	assert.Len(t, attempts[0].Answers, 5)
	assert.Equal(t, 2, attempts[1].AttemptNumber)
	assert.Equal(t, 80, attempts[1].Score)
}

func TestSubmitUpdatesTopicMastery(t *testing.T) {
	svc := newGrammarService(t)
	user := createUser(t, svc.DB, "udo", models.LevelA1)
	topic, set := seedSet(t, svc, 70, 10)

	result, err := svc.Submit(user.ID, set.ID, fillBlankAnswers(10, 8), 100)
	require.NoError(t, err)

	// No grammar lesson completed yet, so the topic stays not-started
	// regardless of exercise results.
	assert.Equal(t, models.TopicMasteryNotStarted, result.TopicMastery)

	var mastery models.GrammarTopicMastery
	require.NoError(t, svc.DB.Where("user_id = ? AND topic_id = ?", user.ID, topic.ID).
		First(&mastery).Error)
	assert.Equal(t, 1, mastery.ExercisesPassed)
	assert.Equal(t, 1, mastery.TotalExercises)
	assert.InDelta(t, 80.0, mastery.AverageScore, 0.001)
}

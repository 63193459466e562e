package services

import (
	"strings"

	"sprachwerk/backend/models"
)

// Answer is one submitted answer, addressed by position in the exercise set.
// Sequence exercises (matching, word-order) use Values, everything else Value.
type Answer struct {
	ExerciseIndex int      `json:"exercise_index"`
	Value         string   `json:"value"`
	Values        []string `json:"values,omitempty"`
}

type GradeResult struct {
	IsCorrect     bool `json:"is_correct"`
	PointsAwarded int  `json:"points_awarded"`
}

// normalize prepares a string for comparison. Every exercise kind compares
// case-insensitively on trimmed input.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Grade checks a single answer against its exercise definition. It is pure:
// no I/O, no state, safe to re-run.
func Grade(exercise models.Exercise, answer Answer) GradeResult {
	switch ex := exercise.(type) {
	case models.FillBlankExercise:
		got := normalize(answer.Value)
		if got == normalize(ex.Answer) {
			return correct(ex)
		}
		for _, alt := range ex.Alternates {
			if got == normalize(alt) {
				return correct(ex)
			}
		}
		return GradeResult{}

	case models.MultipleChoiceExercise:
		got := normalize(answer.Value)
		for _, opt := range ex.Options {
			if opt.IsCorrect && got == normalize(opt.Text) {
				return correct(ex)
			}
		}
		return GradeResult{}

	case models.MatchingExercise:
		if len(answer.Values) != len(ex.Pairs) {
			return GradeResult{}
		}
		for i, pair := range ex.Pairs {
			if normalize(answer.Values[i]) != normalize(pair.Right) {
				return GradeResult{}
			}
		}
		return correct(ex)

	case models.WordOrderExercise:
		if len(answer.Values) != len(ex.Words) {
			return GradeResult{}
		}
		for i, word := range ex.Words {
			if normalize(answer.Values[i]) != normalize(word) {
				return GradeResult{}
			}
		}
		return correct(ex)

	case models.ConjugationExercise:
		if normalize(answer.Value) == normalize(ex.Answer) {
			return correct(ex)
		}
		return GradeResult{}

	case models.CaseSelectionExercise:
		if normalize(answer.Value) == normalize(ex.Answer) {
			return correct(ex)
		}
		return GradeResult{}

	case models.ArticleSelectionExercise:
		if normalize(answer.Value) == normalize(ex.Answer) {
			return correct(ex)
		}
		return GradeResult{}

	case models.TranslationExercise:
		got := normalize(answer.Value)
		for _, accepted := range ex.Accepted {
			if got == normalize(accepted) {
				return correct(ex)
			}
		}
		// Partial credit: every key word present earns half the points, but
		// the answer still counts as incorrect for the pass tally.
		if len(ex.KeyWords) > 0 && containsAllKeyWords(got, ex.KeyWords) {
			return GradeResult{IsCorrect: false, PointsAwarded: ex.Points / 2}
		}
		return GradeResult{}

	case models.ErrorCorrectionExercise:
		if normalize(answer.Value) == normalize(ex.Corrected) {
			return correct(ex)
		}
		return GradeResult{}
	}

	return GradeResult{}
}

func correct(ex models.Exercise) GradeResult {
	return GradeResult{IsCorrect: true, PointsAwarded: ex.PointValue()}
}

func containsAllKeyWords(answer string, keyWords []string) bool {
	for _, kw := range keyWords {
		if !strings.Contains(answer, normalize(kw)) {
			return false
		}
	}
	return true
}

package models

import (
	"encoding/json"
	"fmt"
)

type ExerciseKind string

const (
	ExerciseFillBlank        ExerciseKind = "fill-blank"
	ExerciseMultipleChoice   ExerciseKind = "multiple-choice"
	ExerciseMatching         ExerciseKind = "matching"
	ExerciseWordOrder        ExerciseKind = "word-order"
	ExerciseConjugation      ExerciseKind = "conjugation"
	ExerciseCaseSelection    ExerciseKind = "case-selection"
	ExerciseArticleSelection ExerciseKind = "article-selection"
	ExerciseTranslation      ExerciseKind = "translation"
	ExerciseErrorCorrection  ExerciseKind = "error-correction"
)

// Exercise is the tagged union over the nine exercise kinds. One concrete
// type per kind keeps every correctness field required for its own kind and
// lets the grader switch exhaustively instead of validating optional fields.
type Exercise interface {
	Kind() ExerciseKind
	PointValue() int
}

type FillBlankExercise struct {
	Prompt     string   `json:"prompt"`
	Answer     string   `json:"answer"`
	Alternates []string `json:"alternates,omitempty"`
	Points     int      `json:"points"`
}

func (e FillBlankExercise) Kind() ExerciseKind { return ExerciseFillBlank }
func (e FillBlankExercise) PointValue() int    { return e.Points }

type ChoiceOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type MultipleChoiceExercise struct {
	Prompt  string         `json:"prompt"`
	Options []ChoiceOption `json:"options"`
	Points  int            `json:"points"`
}

func (e MultipleChoiceExercise) Kind() ExerciseKind { return ExerciseMultipleChoice }
func (e MultipleChoiceExercise) PointValue() int    { return e.Points }

type MatchingPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

type MatchingExercise struct {
	Prompt string         `json:"prompt"`
	Pairs  []MatchingPair `json:"pairs"`
	Points int            `json:"points"`
}

func (e MatchingExercise) Kind() ExerciseKind { return ExerciseMatching }
func (e MatchingExercise) PointValue() int    { return e.Points }

type WordOrderExercise struct {
	Prompt string   `json:"prompt"`
	Words  []string `json:"words"` // canonical order
	Points int      `json:"points"`
}

func (e WordOrderExercise) Kind() ExerciseKind { return ExerciseWordOrder }
func (e WordOrderExercise) PointValue() int    { return e.Points }

type ConjugationExercise struct {
	Prompt  string `json:"prompt"`
	Verb    string `json:"verb"`
	Pronoun string `json:"pronoun"`
	Answer  string `json:"answer"`
	Points  int    `json:"points"`
}

func (e ConjugationExercise) Kind() ExerciseKind { return ExerciseConjugation }
func (e ConjugationExercise) PointValue() int    { return e.Points }

type CaseSelectionExercise struct {
	Prompt string `json:"prompt"`
	Answer string `json:"answer"` // nominativ, akkusativ, dativ, genitiv
	Points int    `json:"points"`
}

func (e CaseSelectionExercise) Kind() ExerciseKind { return ExerciseCaseSelection }
func (e CaseSelectionExercise) PointValue() int    { return e.Points }

type ArticleSelectionExercise struct {
	Prompt string `json:"prompt"`
	Noun   string `json:"noun"`
	Answer string `json:"answer"` // der, die, das
	Points int    `json:"points"`
}

func (e ArticleSelectionExercise) Kind() ExerciseKind { return ExerciseArticleSelection }
func (e ArticleSelectionExercise) PointValue() int    { return e.Points }

type TranslationExercise struct {
	Prompt   string   `json:"prompt"`
	Accepted []string `json:"accepted"`
	KeyWords []string `json:"key_words,omitempty"`
	Points   int      `json:"points"`
}

func (e TranslationExercise) Kind() ExerciseKind { return ExerciseTranslation }
func (e TranslationExercise) PointValue() int    { return e.Points }

type ErrorCorrectionExercise struct {
	Prompt    string `json:"prompt"` // the faulty sentence
	Corrected string `json:"corrected"`
	Points    int    `json:"points"`
}

func (e ErrorCorrectionExercise) Kind() ExerciseKind { return ExerciseErrorCorrection }
func (e ErrorCorrectionExercise) PointValue() int    { return e.Points }

type exerciseEnvelope struct {
	Kind ExerciseKind    `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// MarshalExercises encodes an ordered exercise sequence for storage in the
// exercise set's text column.
func MarshalExercises(exercises []Exercise) (string, error) {
	envelopes := make([]exerciseEnvelope, 0, len(exercises))
	for _, ex := range exercises {
		data, err := json.Marshal(ex)
		if err != nil {
			return "", err
		}
		envelopes = append(envelopes, exerciseEnvelope{Kind: ex.Kind(), Data: data})
	}
	out, err := json.Marshal(envelopes)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// UnmarshalExercises decodes a stored exercise column back into the union.
func UnmarshalExercises(stored string) ([]Exercise, error) {
	if stored == "" {
		return nil, nil
	}
	var envelopes []exerciseEnvelope
	if err := json.Unmarshal([]byte(stored), &envelopes); err != nil {
		return nil, err
	}
	exercises := make([]Exercise, 0, len(envelopes))
	for i, env := range envelopes {
		ex, err := decodeExercise(env)
		if err != nil {
			return nil, fmt.Errorf("exercise %d: %w", i, err)
		}
		exercises = append(exercises, ex)
	}
	return exercises, nil
}

func decodeExercise(env exerciseEnvelope) (Exercise, error) {
	switch env.Kind {
	case ExerciseFillBlank:
		var ex FillBlankExercise
		err := json.Unmarshal(env.Data, &ex)
		return ex, err
	case ExerciseMultipleChoice:
		var ex MultipleChoiceExercise
		err := json.Unmarshal(env.Data, &ex)
		return ex, err
	case ExerciseMatching:
		var ex MatchingExercise
		err := json.Unmarshal(env.Data, &ex)
		return ex, err
	case ExerciseWordOrder:
		var ex WordOrderExercise
		err := json.Unmarshal(env.Data, &ex)
		return ex, err
	case ExerciseConjugation:
		var ex ConjugationExercise
		err := json.Unmarshal(env.Data, &ex)
		return ex, err
	case ExerciseCaseSelection:
		var ex CaseSelectionExercise
		err := json.Unmarshal(env.Data, &ex)
		return ex, err
	case ExerciseArticleSelection:
		var ex ArticleSelectionExercise
		err := json.Unmarshal(env.Data, &ex)
		return ex, err
	case ExerciseTranslation:
		var ex TranslationExercise
		err := json.Unmarshal(env.Data, &ex)
		return ex, err
	case ExerciseErrorCorrection:
		var ex ErrorCorrectionExercise
		err := json.Unmarshal(env.Data, &ex)
		return ex, err
	default:
		return nil, fmt.Errorf("unknown exercise kind %q", env.Kind)
	}
}

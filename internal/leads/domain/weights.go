package domain

import (
	"fmt"
	"math"

	"chatlead_backend/platform/apperr"
)

// weightSumTolerance is the floating-point slack allowed when checking that
// the five weights sum to 1.0.
const weightSumTolerance = 0.001

// ScoringWeights controls how much each qualification dimension contributes
// to the base score. The five weights must sum to 1.0 within tolerance.
type ScoringWeights struct {
	QuestionAnswer float64 // answered/total question ratio
	Engagement     float64 // engagement score
	ContactInfo    float64 // contact details captured
	BudgetTimeline float64 // budget and timeline facts
	Firmographics  float64 // industry and company size facts
}

// DefaultWeights returns the standard weight profile used when the caller
// does not supply one.
func DefaultWeights() ScoringWeights {
	return ScoringWeights{
		QuestionAnswer: 0.3,
		Engagement:     0.2,
		ContactInfo:    0.2,
		BudgetTimeline: 0.2,
		Firmographics:  0.1,
	}
}

// NewWeights builds a validated weight profile from the five values in
// dimension order: question/answer, engagement, contact, budget+timeline,
// firmographics.
func NewWeights(values [5]float64) (ScoringWeights, error) {
	w := ScoringWeights{
		QuestionAnswer: values[0],
		Engagement:     values[1],
		ContactInfo:    values[2],
		BudgetTimeline: values[3],
		Firmographics:  values[4],
	}
	if err := w.Validate(); err != nil {
		return ScoringWeights{}, err
	}
	return w, nil
}

// Validate checks that each weight is within [0,1] and that the weights sum
// to 1.0 within tolerance.
func (w ScoringWeights) Validate() error {
	for _, v := range []float64{w.QuestionAnswer, w.Engagement, w.ContactInfo, w.BudgetTimeline, w.Firmographics} {
		if v < 0 || v > 1 {
			return apperr.Validation(fmt.Sprintf("scoring weight %v outside [0,1]", v))
		}
	}
	if math.Abs(w.sum()-1.0) > weightSumTolerance {
		return apperr.Validation(fmt.Sprintf("scoring weights must sum to 1.0, got %v", w.sum()))
	}
	return nil
}

func (w ScoringWeights) sum() float64 {
	return w.QuestionAnswer + w.Engagement + w.ContactInfo + w.BudgetTimeline + w.Firmographics
}

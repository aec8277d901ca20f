package domain

import "math"

const (
	// baseScoreCeiling caps the weighted-contribution base at 60 points;
	// the remaining headroom belongs to the fixed bonuses.
	baseScoreCeiling = 60.0

	bonusEngagementMedium = 10.0
	bonusEngagementHigh   = 20.0
	bonusBudget           = 15.0
	bonusTimeline         = 10.0
	bonusDecisionMaker    = 20.0

	// Tier thresholds are inclusive lower bounds.
	tierQualifiedMin       = 60
	tierHighlyQualifiedMin = 80
)

// engagementBonusTable maps the coarse engagement level to its fixed bonus.
var engagementBonusTable = map[EngagementLevel]float64{
	EngagementLow:    0,
	EngagementMedium: bonusEngagementMedium,
	EngagementHigh:   bonusEngagementHigh,
}

// QualificationTier is the coarse qualification bucket derived from the
// numeric score and the disqualification facts.
type QualificationTier string

const (
	TierNotQualified    QualificationTier = "not_qualified"
	TierQualified       QualificationTier = "qualified"
	TierHighlyQualified QualificationTier = "highly_qualified"
	TierDisqualified    QualificationTier = "disqualified"
)

var knownTiers = map[QualificationTier]struct{}{
	TierNotQualified:    {},
	TierQualified:       {},
	TierHighlyQualified: {},
	TierDisqualified:    {},
}

// IsKnownTier reports whether tier is one of the closed set.
func IsKnownTier(tier QualificationTier) bool {
	_, ok := knownTiers[tier]
	return ok
}

// ScoreBreakdown itemizes each scoring component so callers can render
// "why this score" explanations.
type ScoreBreakdown struct {
	BaseScore          float64 `json:"baseScore"`
	EngagementBonus    float64 `json:"engagementBonus"`
	BudgetBonus        float64 `json:"budgetBonus"`
	TimelineBonus      float64 `json:"timelineBonus"`
	DecisionMakerBonus float64 `json:"decisionMakerBonus"`
	TotalBonuses       float64 `json:"totalBonuses"`
	FinalScore         int     `json:"finalScore"`
}

// ScoreResult is the output of a scoring run. It is created fresh on every
// call and never mutated in place.
type ScoreResult struct {
	Score     int
	Tier      QualificationTier
	Breakdown ScoreBreakdown
}

// IsQualified reports whether the lead reached at least the qualified tier.
func (r ScoreResult) IsQualified() bool {
	return r.Tier == TierQualified || r.Tier == TierHighlyQualified
}

// IsHighlyQualified reports whether the lead reached the top tier.
func (r ScoreResult) IsHighlyQualified() bool {
	return r.Tier == TierHighlyQualified
}

// IsDisqualified reports whether a disqualifying factor forced the tier.
func (r ScoreResult) IsDisqualified() bool {
	return r.Tier == TierDisqualified
}

// CalculateScore converts qualification facts into a numeric score, a tier,
// and an itemized breakdown. It is a pure function: identical input always
// yields identical output. The caller is responsible for pre-validating the
// snapshot and weights.
func CalculateScore(snapshot QualificationSnapshot, weights ScoringWeights) ScoreResult {
	base := baseScore(snapshot, weights)

	engagementBonus := engagementBonusTable[snapshot.EngagementLevel]
	budgetBonus := 0.0
	if snapshot.HasBudgetInfo {
		budgetBonus = bonusBudget
	}
	timelineBonus := 0.0
	if snapshot.HasTimelineInfo {
		timelineBonus = bonusTimeline
	}
	decisionMakerBonus := 0.0
	if snapshot.IsDecisionMaker {
		decisionMakerBonus = bonusDecisionMaker
	}
	totalBonuses := engagementBonus + budgetBonus + timelineBonus + decisionMakerBonus

	// Round once at the very end so per-term rounding error cannot compound.
	final := clampScore(base + totalBonuses)

	breakdown := ScoreBreakdown{
		BaseScore:          base,
		EngagementBonus:    engagementBonus,
		BudgetBonus:        budgetBonus,
		TimelineBonus:      timelineBonus,
		DecisionMakerBonus: decisionMakerBonus,
		TotalBonuses:       totalBonuses,
		FinalScore:         final,
	}

	// Disqualification dominates: the breakdown is kept for diagnostics but
	// the score and tier are forced before any thresholding.
	if snapshot.IsDisqualified() {
		return ScoreResult{Score: 0, Tier: TierDisqualified, Breakdown: breakdown}
	}

	return ScoreResult{Score: final, Tier: tierForScore(final), Breakdown: breakdown}
}

// baseScore computes the weighted contribution ratio across the five
// qualification dimensions, scaled by the base ceiling.
func baseScore(snapshot QualificationSnapshot, weights ScoringWeights) float64 {
	weightSum := weights.sum()
	if weightSum <= 0 {
		return 0
	}

	questionRatio := 0.0
	if snapshot.TotalQuestions > 0 {
		questionRatio = float64(snapshot.AnsweredQuestions) / float64(snapshot.TotalQuestions)
	}

	contribution := questionRatio * weights.QuestionAnswer
	contribution += (snapshot.EngagementScore / 100.0) * weights.Engagement
	contribution += boolFactor(snapshot.HasContactInfo) * weights.ContactInfo
	contribution += (boolFactor(snapshot.HasBudgetInfo)/2 + boolFactor(snapshot.HasTimelineInfo)/2) * weights.BudgetTimeline
	contribution += (boolFactor(snapshot.HasIndustryInfo)/2 + boolFactor(snapshot.HasCompanySizeInfo)/2) * weights.Firmographics

	return (contribution / weightSum) * baseScoreCeiling
}

func boolFactor(set bool) float64 {
	if set {
		return 1
	}
	return 0
}

func tierForScore(score int) QualificationTier {
	switch {
	case score >= tierHighlyQualifiedMin:
		return TierHighlyQualified
	case score >= tierQualifiedMin:
		return TierQualified
	default:
		return TierNotQualified
	}
}

func clampScore(value float64) int {
	rounded := int(math.Round(value))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}

// Grade maps a numeric score to a display letter grade. The bounds are
// inclusive and independent of the qualification tier thresholds.
func Grade(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

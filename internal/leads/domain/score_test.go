package domain

import (
	"math"
	"testing"
)

// fullSnapshot is a strong lead: most questions answered, high engagement,
// every fact captured, decision maker.
func fullSnapshot() QualificationSnapshot {
	return QualificationSnapshot{
		AnsweredQuestions:      8,
		TotalQuestions:         10,
		EngagementScore:        70,
		ConversationLength:     24,
		SessionDurationSeconds: 600,
		HasContactInfo:         true,
		HasBudgetInfo:          true,
		HasTimelineInfo:        true,
		HasIndustryInfo:        true,
		HasCompanySizeInfo:     true,
		EngagementLevel:        EngagementHigh,
		IsDecisionMaker:        true,
	}
}

func TestCalculateScoreFullSnapshot(t *testing.T) {
	result := CalculateScore(fullSnapshot(), DefaultWeights())

	// Base 46.8 plus 65 bonus points overshoots the scale and clamps at 100.
	if result.Score != 100 {
		t.Fatalf("score = %d, want 100", result.Score)
	}
	if result.Tier != TierHighlyQualified {
		t.Fatalf("tier = %s, want %s", result.Tier, TierHighlyQualified)
	}
	if !result.IsHighlyQualified() || !result.IsQualified() {
		t.Fatal("expected highly qualified result")
	}

	b := result.Breakdown
	if math.Abs(b.BaseScore-46.8) > 1e-9 {
		t.Errorf("baseScore = %v, want 46.8", b.BaseScore)
	}
	if b.EngagementBonus != 20 || b.BudgetBonus != 15 || b.TimelineBonus != 10 || b.DecisionMakerBonus != 20 {
		t.Errorf("unexpected bonuses: %+v", b)
	}
	if b.TotalBonuses != 65 {
		t.Errorf("totalBonuses = %v, want 65", b.TotalBonuses)
	}
	if b.FinalScore != 100 {
		t.Errorf("breakdown finalScore = %d, want 100", b.FinalScore)
	}
}

func TestCalculateScoreDeterministic(t *testing.T) {
	snapshot := fullSnapshot()
	weights := DefaultWeights()

	first := CalculateScore(snapshot, weights)
	for i := 0; i < 10; i++ {
		again := CalculateScore(snapshot, weights)
		if again != first {
			t.Fatalf("run %d produced %+v, first run produced %+v", i, again, first)
		}
	}
}

func TestCalculateScoreTierBoundaries(t *testing.T) {
	// Snapshots engineered so base + bonuses land exactly on or just below
	// the tier thresholds. With no answerable questions the question ratio
	// contributes nothing, so the engagement score alone steers the base.
	cases := []struct {
		name     string
		snapshot QualificationSnapshot
		want     int
		wantTier QualificationTier
	}{
		{
			name: "exactly qualified at 60",
			snapshot: QualificationSnapshot{
				EngagementScore: 25,
				EngagementLevel: EngagementLow,
				HasBudgetInfo:   true,
				HasTimelineInfo: true,
				IsDecisionMaker: true,
			},
			want:     60,
			wantTier: TierQualified,
		},
		{
			name: "one point below qualified",
			snapshot: QualificationSnapshot{
				EngagementScore: 20,
				EngagementLevel: EngagementLow,
				HasBudgetInfo:   true,
				HasTimelineInfo: true,
				IsDecisionMaker: true,
			},
			want:     59,
			wantTier: TierNotQualified,
		},
		{
			name: "exactly highly qualified at 80",
			snapshot: QualificationSnapshot{
				TotalQuestions:  5,
				EngagementScore: 25,
				EngagementLevel: EngagementHigh,
				HasBudgetInfo:   true,
				HasTimelineInfo: true,
				IsDecisionMaker: true,
			},
			want:     80,
			wantTier: TierHighlyQualified,
		},
		{
			name: "one point below highly qualified",
			snapshot: QualificationSnapshot{
				TotalQuestions:  5,
				EngagementScore: 20,
				EngagementLevel: EngagementHigh,
				HasBudgetInfo:   true,
				HasTimelineInfo: true,
				IsDecisionMaker: true,
			},
			want:     79,
			wantTier: TierQualified,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := CalculateScore(tc.snapshot, DefaultWeights())
			if result.Score != tc.want {
				t.Errorf("score = %d, want %d (breakdown %+v)", result.Score, tc.want, result.Breakdown)
			}
			if result.Tier != tc.wantTier {
				t.Errorf("tier = %s, want %s", result.Tier, tc.wantTier)
			}
		})
	}
}

func TestCalculateScoreDisqualificationDominates(t *testing.T) {
	snapshot := fullSnapshot()
	snapshot.DisqualifyingFactors = []DisqualifyingFactor{DisqualifyCompetitor}

	result := CalculateScore(snapshot, DefaultWeights())

	if result.Score != 0 {
		t.Errorf("score = %d, want 0", result.Score)
	}
	if result.Tier != TierDisqualified {
		t.Errorf("tier = %s, want %s", result.Tier, TierDisqualified)
	}
	if !result.IsDisqualified() || result.IsQualified() {
		t.Error("disqualified lead must not report as qualified")
	}
	// The breakdown keeps the would-be numbers for diagnostics.
	if result.Breakdown.TotalBonuses != 65 {
		t.Errorf("breakdown totalBonuses = %v, want 65", result.Breakdown.TotalBonuses)
	}
}

func TestCalculateScoreEmptySnapshot(t *testing.T) {
	result := CalculateScore(QualificationSnapshot{EngagementLevel: EngagementLow}, DefaultWeights())

	if result.Score != 0 {
		t.Errorf("score = %d, want 0", result.Score)
	}
	if result.Tier != TierNotQualified {
		t.Errorf("tier = %s, want %s", result.Tier, TierNotQualified)
	}
}

func TestCalculateScoreZeroTotalQuestions(t *testing.T) {
	// TotalQuestions of zero must not divide by zero; the question ratio is
	// simply absent.
	snapshot := fullSnapshot()
	snapshot.AnsweredQuestions = 0
	snapshot.TotalQuestions = 0

	result := CalculateScore(snapshot, DefaultWeights())
	if math.IsNaN(result.Breakdown.BaseScore) {
		t.Fatal("base score is NaN")
	}
	if result.Score < 0 || result.Score > 100 {
		t.Fatalf("score %d outside [0,100]", result.Score)
	}
}

func TestGrade(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{100, "A"}, {90, "A"},
		{89, "B"}, {80, "B"},
		{79, "C"}, {70, "C"},
		{69, "D"}, {60, "D"},
		{59, "F"}, {0, "F"},
	}
	for _, tc := range cases {
		if got := Grade(tc.score); got != tc.want {
			t.Errorf("Grade(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

package domain

// recommendationChecks maps a missing scoring component to the qualifying
// action that would fill it. Ordered by expected score impact.
var recommendationChecks = []struct {
	missing func(QualificationSnapshot, ScoreResult) bool
	advice  string
}{
	{
		missing: func(s QualificationSnapshot, _ ScoreResult) bool { return !s.IsDecisionMaker },
		advice:  "Identify whether the contact is the decision maker or can introduce one",
	},
	{
		missing: func(_ QualificationSnapshot, r ScoreResult) bool { return r.Breakdown.EngagementBonus == 0 },
		advice:  "Re-engage the lead with a follow-up conversation to raise engagement",
	},
	{
		missing: func(s QualificationSnapshot, _ ScoreResult) bool { return !s.HasBudgetInfo },
		advice:  "Ask about the available budget",
	},
	{
		missing: func(s QualificationSnapshot, _ ScoreResult) bool { return !s.HasTimelineInfo },
		advice:  "Ask about the purchase timeline",
	},
	{
		missing: func(s QualificationSnapshot, _ ScoreResult) bool { return !s.HasContactInfo },
		advice:  "Capture contact details so the lead can be followed up",
	},
	{
		missing: func(s QualificationSnapshot, _ ScoreResult) bool { return !s.HasIndustryInfo || !s.HasCompanySizeInfo },
		advice:  "Collect industry and company size to complete the firm profile",
	},
	{
		missing: func(s QualificationSnapshot, _ ScoreResult) bool {
			return s.TotalQuestions > 0 && s.AnsweredQuestions < s.TotalQuestions
		},
		advice: "Complete the remaining qualification questions",
	},
}

// Recommendations inspects which scoring components are missing or zero and
// suggests the corresponding qualifying actions. A disqualified lead gets a
// single recommendation naming the disqualifying factors.
func Recommendations(snapshot QualificationSnapshot, result ScoreResult) []string {
	if result.IsDisqualified() {
		advice := "Resolve the disqualifying factors before further follow-up:"
		for _, factor := range snapshot.DisqualifyingFactors {
			advice += " " + string(factor)
		}
		return []string{advice}
	}

	out := make([]string, 0, len(recommendationChecks))
	for _, check := range recommendationChecks {
		if check.missing(snapshot, result) {
			out = append(out, check.advice)
		}
	}
	return out
}

package repository

import (
	"context"

	"github.com/google/uuid"
)

// LeadMetrics aggregates KPI values for the dashboard.
type LeadMetrics struct {
	TotalLeads           int
	QualifiedLeads       int
	HighlyQualifiedLeads int
	DisqualifiedLeads    int
	ConvertedLeads       int
	AverageScore         float64
}

// GetMetrics returns KPI aggregates for an organization's leads.
func (r *Repository) GetMetrics(ctx context.Context, organizationID uuid.UUID) (LeadMetrics, error) {
	var metrics LeadMetrics
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) AS total_leads,
			COUNT(*) FILTER (WHERE tier IN ('qualified', 'highly_qualified')) AS qualified_leads,
			COUNT(*) FILTER (WHERE tier = 'highly_qualified') AS highly_qualified_leads,
			COUNT(*) FILTER (WHERE tier = 'disqualified') AS disqualified_leads,
			COUNT(*) FILTER (WHERE follow_up_status = 'converted') AS converted_leads,
			COALESCE(AVG(score), 0) AS average_score
		FROM leads
		WHERE organization_id = $1
	`, organizationID).Scan(
		&metrics.TotalLeads,
		&metrics.QualifiedLeads,
		&metrics.HighlyQualifiedLeads,
		&metrics.DisqualifiedLeads,
		&metrics.ConvertedLeads,
		&metrics.AverageScore,
	)
	if err != nil {
		return LeadMetrics{}, err
	}
	return metrics, nil
}

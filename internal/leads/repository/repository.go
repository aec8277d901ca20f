package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"chatlead_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Lead is the persistence model for a captured lead. The domain aggregate
// is reconstructed from this row via ToAggregate.
type Lead struct {
	ID              uuid.UUID
	SessionID       string
	OrganizationID  uuid.UUID
	ChatbotConfigID string

	ContactName  *string
	ContactEmail *string
	ContactPhone *string
	Company      *string

	AnsweredQuestions      int
	TotalQuestions         int
	EngagementScore        float64
	ConversationLength     int
	SessionDurationSeconds int

	HasContactInfo     bool
	HasBudgetInfo      bool
	HasTimelineInfo    bool
	HasIndustryInfo    bool
	HasCompanySizeInfo bool

	EngagementLevel      string
	IsDecisionMaker      bool
	DisqualifyingFactors []string

	Score         int
	Tier          string
	BreakdownJSON []byte
	ScoreVersion  string

	FollowUpStatus  string
	AssignedTo      *uuid.UUID
	LastContactedAt *time.Time

	Tags                []string
	Notes               *string
	ConversationSummary *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

const leadColumns = `
	id, session_id, organization_id, chatbot_config_id,
	contact_name, contact_email, contact_phone, company,
	answered_questions, total_questions, engagement_score, conversation_length, session_duration_seconds,
	has_contact_info, has_budget_info, has_timeline_info, has_industry_info, has_company_size_info,
	engagement_level, is_decision_maker, disqualifying_factors,
	score, tier, score_breakdown, score_version,
	follow_up_status, assigned_to, last_contacted_at,
	tags, notes, conversation_summary,
	created_at, updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID, &lead.SessionID, &lead.OrganizationID, &lead.ChatbotConfigID,
		&lead.ContactName, &lead.ContactEmail, &lead.ContactPhone, &lead.Company,
		&lead.AnsweredQuestions, &lead.TotalQuestions, &lead.EngagementScore, &lead.ConversationLength, &lead.SessionDurationSeconds,
		&lead.HasContactInfo, &lead.HasBudgetInfo, &lead.HasTimelineInfo, &lead.HasIndustryInfo, &lead.HasCompanySizeInfo,
		&lead.EngagementLevel, &lead.IsDecisionMaker, &lead.DisqualifyingFactors,
		&lead.Score, &lead.Tier, &lead.BreakdownJSON, &lead.ScoreVersion,
		&lead.FollowUpStatus, &lead.AssignedTo, &lead.LastContactedAt,
		&lead.Tags, &lead.Notes, &lead.ConversationSummary,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// Snapshot rebuilds the qualification facts from the row.
func (l Lead) Snapshot() domain.QualificationSnapshot {
	factors := make([]domain.DisqualifyingFactor, 0, len(l.DisqualifyingFactors))
	for _, f := range l.DisqualifyingFactors {
		factors = append(factors, domain.DisqualifyingFactor(f))
	}
	return domain.QualificationSnapshot{
		AnsweredQuestions:      l.AnsweredQuestions,
		TotalQuestions:         l.TotalQuestions,
		EngagementScore:        l.EngagementScore,
		ConversationLength:     l.ConversationLength,
		SessionDurationSeconds: l.SessionDurationSeconds,
		HasContactInfo:         l.HasContactInfo,
		HasBudgetInfo:          l.HasBudgetInfo,
		HasTimelineInfo:        l.HasTimelineInfo,
		HasIndustryInfo:        l.HasIndustryInfo,
		HasCompanySizeInfo:     l.HasCompanySizeInfo,
		EngagementLevel:        domain.EngagementLevel(l.EngagementLevel),
		IsDecisionMaker:        l.IsDecisionMaker,
		DisqualifyingFactors:   factors,
	}
}

// ScoreResult rebuilds the stored score, including the persisted breakdown.
func (l Lead) ScoreResult() domain.ScoreResult {
	var breakdown domain.ScoreBreakdown
	if len(l.BreakdownJSON) > 0 {
		_ = json.Unmarshal(l.BreakdownJSON, &breakdown)
	}
	return domain.ScoreResult{
		Score:     l.Score,
		Tier:      domain.QualificationTier(l.Tier),
		Breakdown: breakdown,
	}
}

// Lifecycle rebuilds the lifecycle state from the row.
func (l Lead) Lifecycle() domain.LifecycleState {
	return domain.LifecycleState{
		FollowUpStatus:  domain.FollowUpStatus(l.FollowUpStatus),
		AssignedTo:      l.AssignedTo,
		LastContactedAt: l.LastContactedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

type CreateLeadParams struct {
	ID              uuid.UUID
	SessionID       string
	OrganizationID  uuid.UUID
	ChatbotConfigID string

	ContactName  *string
	ContactEmail *string
	ContactPhone *string
	Company      *string

	Snapshot domain.QualificationSnapshot
	Score    domain.ScoreResult
	Version  string

	FollowUpStatus string

	Tags                []string
	Notes               *string
	ConversationSummary *string
}

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	breakdownJSON, err := json.Marshal(params.Score.Breakdown)
	if err != nil {
		return Lead{}, fmt.Errorf("marshal score breakdown: %w", err)
	}

	factors := make([]string, 0, len(params.Snapshot.DisqualifyingFactors))
	for _, f := range params.Snapshot.DisqualifyingFactors {
		factors = append(factors, string(f))
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (
			id, session_id, organization_id, chatbot_config_id,
			contact_name, contact_email, contact_phone, company,
			answered_questions, total_questions, engagement_score, conversation_length, session_duration_seconds,
			has_contact_info, has_budget_info, has_timeline_info, has_industry_info, has_company_size_info,
			engagement_level, is_decision_maker, disqualifying_factors,
			score, tier, score_breakdown, score_version,
			follow_up_status,
			tags, notes, conversation_summary
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18,
			$19, $20, $21,
			$22, $23, $24, $25,
			$26,
			$27, $28, $29
		)
		RETURNING `+leadColumns,
		params.ID, params.SessionID, params.OrganizationID, params.ChatbotConfigID,
		params.ContactName, params.ContactEmail, params.ContactPhone, params.Company,
		params.Snapshot.AnsweredQuestions, params.Snapshot.TotalQuestions, params.Snapshot.EngagementScore,
		params.Snapshot.ConversationLength, params.Snapshot.SessionDurationSeconds,
		params.Snapshot.HasContactInfo, params.Snapshot.HasBudgetInfo, params.Snapshot.HasTimelineInfo,
		params.Snapshot.HasIndustryInfo, params.Snapshot.HasCompanySizeInfo,
		string(params.Snapshot.EngagementLevel), params.Snapshot.IsDecisionMaker, factors,
		params.Score.Score, string(params.Score.Tier), breakdownJSON, params.Version,
		params.FollowUpStatus,
		params.Tags, params.Notes, params.ConversationSummary,
	)

	return scanLead(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE id = $1 AND organization_id = $2
	`, id, organizationID)
	return scanLead(row)
}

func (r *Repository) GetBySessionID(ctx context.Context, sessionID string, organizationID uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE session_id = $1 AND organization_id = $2
	`, sessionID, organizationID)
	return scanLead(row)
}

// UpdateQualificationParams carries the recomputed facts and score after a
// qualification update. The whole snapshot is written; merging of partial
// updates happens in the service layer.
type UpdateQualificationParams struct {
	Snapshot domain.QualificationSnapshot
	Score    domain.ScoreResult
	Version  string
}

func (r *Repository) UpdateQualification(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, params UpdateQualificationParams) (Lead, error) {
	breakdownJSON, err := json.Marshal(params.Score.Breakdown)
	if err != nil {
		return Lead{}, fmt.Errorf("marshal score breakdown: %w", err)
	}

	factors := make([]string, 0, len(params.Snapshot.DisqualifyingFactors))
	for _, f := range params.Snapshot.DisqualifyingFactors {
		factors = append(factors, string(f))
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE leads SET
			answered_questions = $3, total_questions = $4, engagement_score = $5,
			conversation_length = $6, session_duration_seconds = $7,
			has_contact_info = $8, has_budget_info = $9, has_timeline_info = $10,
			has_industry_info = $11, has_company_size_info = $12,
			engagement_level = $13, is_decision_maker = $14, disqualifying_factors = $15,
			score = $16, tier = $17, score_breakdown = $18, score_version = $19,
			updated_at = now()
		WHERE id = $1 AND organization_id = $2
		RETURNING `+leadColumns,
		id, organizationID,
		params.Snapshot.AnsweredQuestions, params.Snapshot.TotalQuestions, params.Snapshot.EngagementScore,
		params.Snapshot.ConversationLength, params.Snapshot.SessionDurationSeconds,
		params.Snapshot.HasContactInfo, params.Snapshot.HasBudgetInfo, params.Snapshot.HasTimelineInfo,
		params.Snapshot.HasIndustryInfo, params.Snapshot.HasCompanySizeInfo,
		string(params.Snapshot.EngagementLevel), params.Snapshot.IsDecisionMaker, factors,
		params.Score.Score, string(params.Score.Tier), breakdownJSON, params.Version,
	)
	return scanLead(row)
}

// UpdateScore writes only the score columns, used by rescoring runs.
func (r *Repository) UpdateScore(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, score domain.ScoreResult, version string) (Lead, error) {
	breakdownJSON, err := json.Marshal(score.Breakdown)
	if err != nil {
		return Lead{}, fmt.Errorf("marshal score breakdown: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE leads SET
			score = $3, tier = $4, score_breakdown = $5, score_version = $6,
			updated_at = now()
		WHERE id = $1 AND organization_id = $2
		RETURNING `+leadColumns,
		id, organizationID, score.Score, string(score.Tier), breakdownJSON, version,
	)
	return scanLead(row)
}

// UpdateLifecycle writes the lifecycle columns after a transition or
// (un)assignment.
func (r *Repository) UpdateLifecycle(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, state domain.LifecycleState) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE leads SET
			follow_up_status = $3, assigned_to = $4, last_contacted_at = $5,
			updated_at = now()
		WHERE id = $1 AND organization_id = $2
		RETURNING `+leadColumns,
		id, organizationID, string(state.FollowUpStatus), state.AssignedTo, state.LastContactedAt,
	)
	return scanLead(row)
}

type UpdateMetadataParams struct {
	ContactName         *string
	ContactEmail        *string
	ContactPhone        *string
	Company             *string
	Tags                []string
	Notes               *string
	ConversationSummary *string
}

func (r *Repository) UpdateMetadata(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, params UpdateMetadataParams) (Lead, error) {
	setClauses := make([]string, 0, 7)
	args := []interface{}{id, organizationID}

	addSet := func(column string, value interface{}) {
		args = append(args, value)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.ContactName != nil {
		addSet("contact_name", *params.ContactName)
	}
	if params.ContactEmail != nil {
		addSet("contact_email", *params.ContactEmail)
	}
	if params.ContactPhone != nil {
		addSet("contact_phone", *params.ContactPhone)
	}
	if params.Company != nil {
		addSet("company", *params.Company)
	}
	if params.Tags != nil {
		addSet("tags", params.Tags)
	}
	if params.Notes != nil {
		addSet("notes", *params.Notes)
	}
	if params.ConversationSummary != nil {
		addSet("conversation_summary", *params.ConversationSummary)
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, id, organizationID)
	}

	setClauses = append(setClauses, "updated_at = now()")
	query := fmt.Sprintf(`
		UPDATE leads SET %s
		WHERE id = $1 AND organization_id = $2
		RETURNING %s`, strings.Join(setClauses, ", "), leadColumns)

	return scanLead(r.pool.QueryRow(ctx, query, args...))
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1 AND organization_id = $2`, id, organizationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListParams filters and paginates the lead listing.
type ListParams struct {
	OrganizationID uuid.UUID
	Status         *string
	Tier           *string
	AssignedTo     *uuid.UUID
	MinScore       *int
	Search         string
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string
}

var sortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"score":     "score",
	"status":    "follow_up_status",
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]Lead, int, error) {
	where := []string{"organization_id = $1"}
	args := []interface{}{params.OrganizationID}

	addFilter := func(clause string, value interface{}) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if params.Status != nil {
		addFilter("follow_up_status = $%d", *params.Status)
	}
	if params.Tier != nil {
		addFilter("tier = $%d", *params.Tier)
	}
	if params.AssignedTo != nil {
		addFilter("assigned_to = $%d", *params.AssignedTo)
	}
	if params.MinScore != nil {
		addFilter("score >= $%d", *params.MinScore)
	}
	if search := strings.TrimSpace(params.Search); search != "" {
		addFilter("(contact_name ILIKE $%[1]d OR contact_email ILIKE $%[1]d OR company ILIKE $%[1]d)", "%"+search+"%")
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM leads WHERE `+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderBy := "score DESC, created_at DESC"
	if column, ok := sortColumns[params.SortBy]; ok {
		direction := "DESC"
		if strings.EqualFold(params.SortOrder, "asc") {
			direction = "ASC"
		}
		orderBy = fmt.Sprintf("%s %s, created_at DESC", column, direction)
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	args = append(args, pageSize, (page-1)*pageSize)
	query := fmt.Sprintf(`
		SELECT %s
		FROM leads
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`, leadColumns, whereClause, orderBy, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		leads = append(leads, lead)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	return leads, total, nil
}

// ListFollowUpCandidates returns leads in non-terminal statuses whose last
// contact (or creation, when never contacted) is older than the cutoff.
// Leads in status new are always candidates regardless of age.
func (r *Repository) ListFollowUpCandidates(ctx context.Context, cutoff time.Time, limit int) ([]Lead, error) {
	if limit <= 0 {
		limit = 500
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE follow_up_status NOT IN ('converted', 'lost')
		  AND (
			follow_up_status = 'new'
			OR COALESCE(last_contacted_at, created_at) < $1
		  )
		ORDER BY score DESC, created_at ASC
		LIMIT $2
	`, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return leads, nil
}

// ListAllIDs returns every lead ID with its organization, used by rescoring
// backfills. Results stream in creation order.
func (r *Repository) ListAllIDs(ctx context.Context) ([]LeadRef, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, organization_id FROM leads ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refs := make([]LeadRef, 0)
	for rows.Next() {
		var ref LeadRef
		if err := rows.Scan(&ref.ID, &ref.OrganizationID); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return refs, nil
}

// LeadRef identifies a lead within its organization.
type LeadRef struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
}

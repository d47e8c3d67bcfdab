package dto

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// RegisterTicketRequest announces a ticket to the SLA engine.
type RegisterTicketRequest struct {
	ID              string     `json:"id" validate:"required,max=64"`
	Priority        string     `json:"priority" validate:"required,priority"`
	CreatedAt       *time.Time `json:"created_at"`
	FirstResponseAt *time.Time `json:"first_response_at"`
	ResolvedAt      *time.Time `json:"resolved_at"`
}

// Ticket converts the request into the engine's ticket projection.
func (r RegisterTicketRequest) Ticket() domain.TicketRef {
	priority, _ := domain.ParsePriority(r.Priority)
	ticket := domain.TicketRef{
		ID:              r.ID,
		Priority:        priority,
		FirstResponseAt: r.FirstResponseAt,
		ResolvedAt:      r.ResolvedAt,
	}
	if r.CreatedAt != nil {
		ticket.CreatedAt = *r.CreatedAt
	}
	return ticket
}

// MilestoneRequest carries the optional instant of a first response or a
// resolution. It defaults to the time of the request.
type MilestoneRequest struct {
	At *time.Time `json:"at"`
}

// Instant returns the requested time or the zero time.
func (r MilestoneRequest) Instant() time.Time {
	if r.At == nil {
		return time.Time{}
	}
	return *r.At
}

// SLARecordResponse is the public view of an SLA record.
type SLARecordResponse struct {
	ID                 string     `json:"id"`
	TicketID           string     `json:"ticket_id"`
	PolicyID           string     `json:"policy_id"`
	StartedAt          time.Time  `json:"started_at"`
	ResponseDeadline   time.Time  `json:"response_deadline"`
	ResolutionDeadline time.Time  `json:"resolution_deadline"`
	FirstResponseAt    *time.Time `json:"first_response_at,omitempty"`
	ResolvedAt         *time.Time `json:"resolved_at,omitempty"`
	Status             string     `json:"status"`
	ResponseBreached   bool       `json:"response_breached"`
	ResolutionBreached bool       `json:"resolution_breached"`
	WarningsSent       int        `json:"warnings_sent"`
	Escalated          bool       `json:"escalated"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// NewSLARecordResponse maps a record to its response.
func NewSLARecordResponse(rec *domain.SLARecord) SLARecordResponse {
	return SLARecordResponse{
		ID:                 rec.ID,
		TicketID:           rec.TicketID,
		PolicyID:           rec.PolicyID,
		StartedAt:          rec.StartedAt,
		ResponseDeadline:   rec.ResponseDeadline,
		ResolutionDeadline: rec.ResolutionDeadline,
		FirstResponseAt:    rec.FirstResponseAt,
		ResolvedAt:         rec.ResolvedAt,
		Status:             string(rec.Status),
		ResponseBreached:   rec.ResponseBreached,
		ResolutionBreached: rec.ResolutionBreached,
		WarningsSent:       rec.WarningsSent,
		Escalated:          rec.Escalated,
		UpdatedAt:          rec.UpdatedAt,
	}
}

// RegisterTicketResponse reports the outcome of registering a ticket.
type RegisterTicketResponse struct {
	Created bool               `json:"created"`
	Skipped bool               `json:"skipped"`
	Record  *SLARecordResponse `json:"record,omitempty"`
}

// StatsResponse is the dashboard payload. Field names are camelCase because
// dashboards consume the shape directly.
type StatsResponse struct {
	Total              int    `json:"total"`
	OnTrack            int    `json:"onTrack"`
	AtRisk             int    `json:"atRisk"`
	Breached           int    `json:"breached"`
	ResponseBreaches   int    `json:"responseBreaches"`
	ResolutionBreaches int    `json:"resolutionBreaches"`
	ComplianceRate     string `json:"complianceRate"`
}

// NewStatsResponse formats stats with a one-decimal compliance rate.
func NewStatsResponse(stats domain.SLAStats) StatsResponse {
	return StatsResponse{
		Total:              stats.Total,
		OnTrack:            stats.OnTrack,
		AtRisk:             stats.AtRisk,
		Breached:           stats.Breached,
		ResponseBreaches:   stats.ResponseBreaches,
		ResolutionBreaches: stats.ResolutionBreaches,
		ComplianceRate:     stats.ComplianceRate.StringFixed(1),
	}
}

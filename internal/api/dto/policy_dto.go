package dto

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// CreatePolicyRequest defines a new SLA policy. Active defaults to true.
type CreatePolicyRequest struct {
	Name                  string `json:"name" validate:"required,max=120"`
	Priority              string `json:"priority" validate:"required,priority"`
	ResponseTimeMinutes   int    `json:"response_time_minutes" validate:"required,gt=0"`
	ResolutionTimeMinutes int    `json:"resolution_time_minutes" validate:"required,gtefield=ResponseTimeMinutes"`
	BusinessHoursOnly     bool   `json:"business_hours_only"`
	Active                *bool  `json:"active"`
}

// PolicyResponse is the public view of a policy.
type PolicyResponse struct {
	ID                    string    `json:"id"`
	Name                  string    `json:"name"`
	Priority              string    `json:"priority"`
	ResponseTimeMinutes   int       `json:"response_time_minutes"`
	ResolutionTimeMinutes int       `json:"resolution_time_minutes"`
	BusinessHoursOnly     bool      `json:"business_hours_only"`
	IsActive              bool      `json:"is_active"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// NewPolicyResponse maps a policy to its response.
func NewPolicyResponse(p *domain.Policy) PolicyResponse {
	return PolicyResponse{
		ID:                    p.ID,
		Name:                  p.Name,
		Priority:              string(p.Priority),
		ResponseTimeMinutes:   p.ResponseTimeMinutes,
		ResolutionTimeMinutes: p.ResolutionTimeMinutes,
		BusinessHoursOnly:     p.BusinessHoursOnly,
		IsActive:              p.IsActive,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
}

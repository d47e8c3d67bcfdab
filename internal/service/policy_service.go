package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/repository"
	apperrors "github.com/spec-kit/sla-engine/pkg/util/errorutil"
)

// PolicyService manages SLA policies. Invalid policies are rejected here so
// the engine can assume every stored policy is well formed.
type PolicyService struct {
	policies repository.PolicyRepository
	logger   *zap.Logger
}

// PolicyCreateInput describes a new policy.
type PolicyCreateInput struct {
	Name                  string
	Priority              domain.Priority
	ResponseTimeMinutes   int
	ResolutionTimeMinutes int
	BusinessHoursOnly     bool
	Active                bool
}

// NewPolicyService constructs the service.
func NewPolicyService(policies repository.PolicyRepository, logger *zap.Logger) *PolicyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PolicyService{policies: policies, logger: logger}
}

// Create validates and stores a policy.
func (s *PolicyService) Create(ctx context.Context, input PolicyCreateInput) (*domain.Policy, error) {
	priority, _ := domain.ParsePriority(string(input.Priority))
	policy := &domain.Policy{
		Name:                  strings.TrimSpace(input.Name),
		Priority:              priority,
		ResponseTimeMinutes:   input.ResponseTimeMinutes,
		ResolutionTimeMinutes: input.ResolutionTimeMinutes,
		BusinessHoursOnly:     input.BusinessHoursOnly,
		IsActive:              input.Active,
	}
	if err := policy.Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}
	if err := s.policies.Create(ctx, policy); err != nil {
		if errors.Is(err, repository.ErrActivePolicyExists) {
			return nil, apperrors.NewConflict(err.Error(), map[string]any{"priority": policy.Priority})
		}
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("sla policy created",
		zap.String("policy_id", policy.ID),
		zap.String("priority", string(policy.Priority)),
		zap.Bool("active", policy.IsActive))
	return policy, nil
}

// List returns every policy, active or not.
func (s *PolicyService) List(ctx context.Context) ([]domain.Policy, error) {
	policies, err := s.policies.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return policies, nil
}

// Deactivate retires a policy. Records created under it keep their deadlines.
func (s *PolicyService) Deactivate(ctx context.Context, id string) (*domain.Policy, error) {
	policy, err := s.policies.Deactivate(ctx, id)
	if errors.Is(err, repository.ErrPolicyNotFound) {
		return nil, apperrors.NewNotFound("policy", map[string]any{"policy_id": id})
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("sla policy deactivated", zap.String("policy_id", id))
	return policy, nil
}

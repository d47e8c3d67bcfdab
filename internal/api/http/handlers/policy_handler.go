package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-engine/internal/api/dto"
	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/service"
)

// PoliciesHandler manages SLA policy endpoints.
type PoliciesHandler struct {
	service *service.PolicyService
}

// NewPoliciesHandler constructs handler.
func NewPoliciesHandler(policyService *service.PolicyService) *PoliciesHandler {
	return &PoliciesHandler{service: policyService}
}

// List GET /sla/policies.
func (h *PoliciesHandler) List(c *fiber.Ctx) error {
	policies, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.PolicyResponse, 0, len(policies))
	for i := range policies {
		items = append(items, dto.NewPolicyResponse(&policies[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Create POST /sla/policies.
func (h *PoliciesHandler) Create(c *fiber.Ctx) error {
	var req dto.CreatePolicyRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	policy, err := h.service.Create(c.UserContext(), service.PolicyCreateInput{
		Name:                  req.Name,
		Priority:              domain.Priority(req.Priority),
		ResponseTimeMinutes:   req.ResponseTimeMinutes,
		ResolutionTimeMinutes: req.ResolutionTimeMinutes,
		BusinessHoursOnly:     req.BusinessHoursOnly,
		Active:                active,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewPolicyResponse(policy)})
}

// Deactivate POST /sla/policies/:id/deactivate.
func (h *PoliciesHandler) Deactivate(c *fiber.Ctx) error {
	policy, err := h.service.Deactivate(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPolicyResponse(policy)})
}

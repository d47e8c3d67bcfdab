package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-engine/internal/api/dto"
	"github.com/spec-kit/sla-engine/internal/service"
)

// SLAHandler exposes SLA tracking endpoints.
type SLAHandler struct {
	service *service.SLAService
}

// NewSLAHandler constructs handler.
func NewSLAHandler(slaService *service.SLAService) *SLAHandler {
	return &SLAHandler{service: slaService}
}

// RegisterTicket POST /sla/tickets.
func (h *SLAHandler) RegisterTicket(c *fiber.Ctx) error {
	var req dto.RegisterTicketRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}
	outcome, err := h.service.OnTicketCreated(c.UserContext(), req.Ticket())
	if err != nil {
		return err
	}
	resp := dto.RegisterTicketResponse{Created: outcome.Created, Skipped: outcome.Skipped}
	if outcome.Record != nil {
		record := dto.NewSLARecordResponse(outcome.Record)
		resp.Record = &record
	}
	status := http.StatusOK
	if outcome.Created {
		status = http.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"data": resp})
}

// GetRecord GET /sla/tickets/:id.
func (h *SLAHandler) GetRecord(c *fiber.Ctx) error {
	record, err := h.service.GetRecord(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSLARecordResponse(record)})
}

// FirstResponse POST /sla/tickets/:id/first-response.
func (h *SLAHandler) FirstResponse(c *fiber.Ctx) error {
	var req dto.MilestoneRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}
	record, err := h.service.RecordFirstResponse(c.UserContext(), c.Params("id"), req.Instant())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSLARecordResponse(record)})
}

// Resolve POST /sla/tickets/:id/resolve.
func (h *SLAHandler) Resolve(c *fiber.Ctx) error {
	var req dto.MilestoneRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}
	record, err := h.service.MarkResolved(c.UserContext(), c.Params("id"), req.Instant())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSLARecordResponse(record)})
}

// Stats GET /sla/stats. The body is the bare stats object.
func (h *SLAHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewStatsResponse(stats))
}

// Reconcile POST /sla/reconcile.
func (h *SLAHandler) Reconcile(c *fiber.Ctx) error {
	result, err := h.service.Reconcile(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": result})
}

package sla

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// DefaultAtRiskFraction is the share of a deadline's window, counted back
// from the deadline, during which a record is classified at risk.
const DefaultAtRiskFraction = 0.25

// Evaluator classifies SLA records against a point in time.
type Evaluator struct {
	atRiskFraction float64
}

// NewEvaluator creates an evaluator. Fractions outside (0, 1] fall back to
// DefaultAtRiskFraction.
func NewEvaluator(atRiskFraction float64) Evaluator {
	if atRiskFraction <= 0 || atRiskFraction > 1 {
		atRiskFraction = DefaultAtRiskFraction
	}
	return Evaluator{atRiskFraction: atRiskFraction}
}

// Evaluate returns a copy of record reclassified as of now. Resolved records
// are returned unchanged. Breach flags are only ever set, so evaluating with
// an earlier now never clears a breach.
func (e Evaluator) Evaluate(record domain.SLARecord, now time.Time) domain.SLARecord {
	if record.Resolved() {
		return record
	}
	next := record
	if next.FirstResponseAt == nil && now.After(next.ResponseDeadline) {
		next.ResponseBreached = true
	}
	if now.After(next.ResolutionDeadline) {
		next.ResolutionBreached = true
	}

	switch {
	case next.Breached():
		next.Status = domain.SLAStatusBreached
	case e.atRisk(next, now):
		next.Status = domain.SLAStatusAtRisk
	default:
		next.Status = domain.SLAStatusOnTrack
	}
	return next
}

func (e Evaluator) atRisk(record domain.SLARecord, now time.Time) bool {
	if record.FirstResponseAt == nil && e.withinWarning(record.StartedAt, record.ResponseDeadline, now) {
		return true
	}
	return e.withinWarning(record.StartedAt, record.ResolutionDeadline, now)
}

func (e Evaluator) withinWarning(start, deadline, now time.Time) bool {
	window := deadline.Sub(start)
	if window <= 0 || now.After(deadline) {
		return false
	}
	lead := time.Duration(float64(window) * e.atRiskFraction)
	return !now.Before(deadline.Add(-lead))
}

// DetectEscalations lists the notifications implied by moving from prev to
// next: the first entry into at risk, and every breach flag that flipped.
func DetectEscalations(prev, next domain.SLARecord, now time.Time) []domain.Escalation {
	var out []domain.Escalation
	if !prev.ResponseBreached && next.ResponseBreached {
		out = append(out, escalation(prev, next, domain.DeadlineResponse, now))
	}
	if !prev.ResolutionBreached && next.ResolutionBreached {
		out = append(out, escalation(prev, next, domain.DeadlineResolution, now))
	}
	if len(out) == 0 && next.Status == domain.SLAStatusAtRisk &&
		prev.Status != domain.SLAStatusAtRisk && prev.WarningsSent == 0 {
		out = append(out, escalation(prev, next, nearestDeadline(next), now))
	}
	return out
}

// ApplyEscalations records sent warnings and breaches on the record.
func ApplyEscalations(record *domain.SLARecord, escalations []domain.Escalation) {
	for _, esc := range escalations {
		switch esc.NewStatus {
		case domain.SLAStatusAtRisk:
			record.WarningsSent++
		case domain.SLAStatusBreached:
			record.Escalated = true
		}
	}
}

func escalation(prev, next domain.SLARecord, deadline domain.DeadlineType, now time.Time) domain.Escalation {
	return domain.Escalation{
		TicketID:       next.TicketID,
		PreviousStatus: prev.Status,
		NewStatus:      next.Status,
		DeadlineType:   deadline,
		OccurredAt:     now,
	}
}

func nearestDeadline(record domain.SLARecord) domain.DeadlineType {
	if record.FirstResponseAt == nil {
		return domain.DeadlineResponse
	}
	return domain.DeadlineResolution
}

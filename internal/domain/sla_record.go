package domain

import "time"

// SLAStatus is the compliance classification of a record.
type SLAStatus string

const (
	SLAStatusOnTrack  SLAStatus = "on_track"
	SLAStatusAtRisk   SLAStatus = "at_risk"
	SLAStatusBreached SLAStatus = "breached"
)

// SLARecord tracks deadlines and compliance state for a single ticket.
//
// PolicyID and the deadlines are frozen at creation. FirstResponseAt and
// ResolvedAt are set once. The breach flags only move from false to true.
type SLARecord struct {
	ID                 string
	TicketID           string
	PolicyID           string
	StartedAt          time.Time
	ResponseDeadline   time.Time
	ResolutionDeadline time.Time
	FirstResponseAt    *time.Time
	ResolvedAt         *time.Time
	Status             SLAStatus
	ResponseBreached   bool
	ResolutionBreached bool
	WarningsSent       int
	Escalated          bool
	Version            int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Resolved reports whether the record is frozen.
func (r SLARecord) Resolved() bool {
	return r.ResolvedAt != nil
}

// Breached reports whether any deadline has been missed.
func (r SLARecord) Breached() bool {
	return r.ResponseBreached || r.ResolutionBreached
}

// Equal compares the tracked state of two records, ignoring bookkeeping
// timestamps and the version counter.
func (r SLARecord) Equal(o SLARecord) bool {
	return r.ID == o.ID &&
		r.TicketID == o.TicketID &&
		r.PolicyID == o.PolicyID &&
		r.StartedAt.Equal(o.StartedAt) &&
		r.ResponseDeadline.Equal(o.ResponseDeadline) &&
		r.ResolutionDeadline.Equal(o.ResolutionDeadline) &&
		timePtrEqual(r.FirstResponseAt, o.FirstResponseAt) &&
		timePtrEqual(r.ResolvedAt, o.ResolvedAt) &&
		r.Status == o.Status &&
		r.ResponseBreached == o.ResponseBreached &&
		r.ResolutionBreached == o.ResolutionBreached &&
		r.WarningsSent == o.WarningsSent &&
		r.Escalated == o.Escalated
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// DeadlineType names which deadline an escalation concerns.
type DeadlineType string

const (
	DeadlineResponse   DeadlineType = "response"
	DeadlineResolution DeadlineType = "resolution"
)

// Escalation describes a status transition worth notifying about.
type Escalation struct {
	TicketID       string
	PreviousStatus SLAStatus
	NewStatus      SLAStatus
	DeadlineType   DeadlineType
	OccurredAt     time.Time
}

package domain

import "time"

// TicketRef is the read-only projection of a helpdesk ticket used by the
// SLA engine. Tickets are owned by the helpdesk application.
type TicketRef struct {
	ID              string
	Priority        Priority
	CreatedAt       time.Time
	FirstResponseAt *time.Time
	ResolvedAt      *time.Time
}

// Cursor returns the keyset position of the ticket.
func (t TicketRef) Cursor() TicketCursor {
	return TicketCursor{CreatedAt: t.CreatedAt, ID: t.ID}
}

// TicketCursor is a keyset high-water mark ordered by (CreatedAt, ID).
// The zero value starts from the beginning.
type TicketCursor struct {
	CreatedAt time.Time
	ID        string
}

// Before reports whether the cursor sorts strictly before the ticket.
func (c TicketCursor) Before(t TicketRef) bool {
	if t.CreatedAt.Equal(c.CreatedAt) {
		return t.ID > c.ID
	}
	return t.CreatedAt.After(c.CreatedAt)
}

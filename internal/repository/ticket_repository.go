package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/sla"
)

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository reads the helpdesk tickets table. It never writes.
func NewTicketRepository(pool *pgxpool.Pool) sla.TicketStore {
	return &ticketRepository{pool: pool}
}

// ListTicketsWithoutSLA pages tickets lacking a ticket_slas row by
// (created_at, id). The helpdesk spells the top priority URGENT.
func (r *ticketRepository) ListTicketsWithoutSLA(ctx context.Context, after domain.TicketCursor, limit int) ([]domain.TicketRef, error) {
	const query = `
        SELECT t.id,
               CASE LOWER(t.priority) WHEN 'urgent' THEN 'critical' ELSE LOWER(t.priority) END,
               t.created_at, t.first_response_at, COALESCE(t.resolved_at, t.closed_at)
        FROM tickets t
        LEFT JOIN ticket_slas s ON s.ticket_id = t.id
        WHERE s.id IS NULL
          AND (t.created_at, t.id::text) > ($1, $2)
        ORDER BY t.created_at, t.id::text
        LIMIT $3`
	createdAfter := after.CreatedAt
	if createdAfter.IsZero() {
		createdAfter = time.Unix(0, 0).UTC()
	}
	rows, err := r.pool.Query(ctx, query, createdAfter, after.ID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketRef
	for rows.Next() {
		var t domain.TicketRef
		if err := rows.Scan(&t.ID, &t.Priority, &t.CreatedAt, &t.FirstResponseAt, &t.ResolvedAt); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/sla"
)

type slaRepository struct {
	pool *pgxpool.Pool
}

// NewSLARepository builds a postgres-backed sla.SLAStore. The unique index on
// ticket_slas.ticket_id is what makes concurrent assignment safe.
func NewSLARepository(pool *pgxpool.Pool) sla.SLAStore {
	return &slaRepository{pool: pool}
}

const slaColumns = `id, ticket_id, policy_id, started_at, response_deadline, resolution_deadline,
               first_response_at, resolved_at, status, response_breached, resolution_breached,
               warnings_sent, escalated, version, created_at, updated_at`

func (r *slaRepository) Get(ctx context.Context, ticketID string) (*domain.SLARecord, error) {
	query := `SELECT ` + slaColumns + ` FROM ticket_slas WHERE ticket_id=$1`
	record, err := scanRecord(r.pool.QueryRow(ctx, query, ticketID))
	if errors.Is(err, pgx.ErrNoRows) || isUnknownReference(err) {
		return nil, sla.ErrRecordNotFound
	}
	return record, err
}

func (r *slaRepository) Upsert(ctx context.Context, record *domain.SLARecord) (*domain.SLARecord, error) {
	if record.Version == 0 {
		return r.insert(ctx, record)
	}
	return r.update(ctx, record)
}

func (r *slaRepository) insert(ctx context.Context, record *domain.SLARecord) (*domain.SLARecord, error) {
	query := `
        INSERT INTO ticket_slas (id, ticket_id, policy_id, started_at, response_deadline, resolution_deadline,
            first_response_at, resolved_at, status, response_breached, resolution_breached, warnings_sent, escalated, version)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,1)
        RETURNING ` + slaColumns
	saved, err := scanRecord(r.pool.QueryRow(ctx, query,
		record.ID,
		record.TicketID,
		record.PolicyID,
		record.StartedAt,
		record.ResponseDeadline,
		record.ResolutionDeadline,
		record.FirstResponseAt,
		record.ResolvedAt,
		record.Status,
		record.ResponseBreached,
		record.ResolutionBreached,
		record.WarningsSent,
		record.Escalated,
	))
	if isUniqueViolation(err) {
		return nil, sla.ErrDuplicateRecord
	}
	if isUnknownReference(err) {
		return nil, ErrUnknownTicket
	}
	return saved, err
}

// update writes the mutable fields only. Breach flags are OR-ed with the
// stored value so no writer can clear a breach.
func (r *slaRepository) update(ctx context.Context, record *domain.SLARecord) (*domain.SLARecord, error) {
	query := `
        UPDATE ticket_slas SET
            first_response_at = COALESCE(first_response_at, $1),
            resolved_at = COALESCE(resolved_at, $2),
            status = $3,
            response_breached = response_breached OR $4,
            resolution_breached = resolution_breached OR $5,
            warnings_sent = $6,
            escalated = escalated OR $7,
            version = version + 1,
            updated_at = NOW()
        WHERE ticket_id = $8 AND version = $9
        RETURNING ` + slaColumns
	saved, err := scanRecord(r.pool.QueryRow(ctx, query,
		record.FirstResponseAt,
		record.ResolvedAt,
		record.Status,
		record.ResponseBreached,
		record.ResolutionBreached,
		record.WarningsSent,
		record.Escalated,
		record.TicketID,
		record.Version,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sla.ErrStaleRecord
	}
	return saved, err
}

func (r *slaRepository) ListUnresolved(ctx context.Context, afterTicketID string, limit int) ([]domain.SLARecord, error) {
	query := `SELECT ` + slaColumns + `
        FROM ticket_slas
        WHERE resolved_at IS NULL AND ticket_id::text > $1
        ORDER BY ticket_id::text
        LIMIT $2`
	return r.list(ctx, query, afterTicketID, limit)
}

func (r *slaRepository) ListAll(ctx context.Context) ([]domain.SLARecord, error) {
	query := `SELECT ` + slaColumns + ` FROM ticket_slas ORDER BY ticket_id::text`
	return r.list(ctx, query)
}

func (r *slaRepository) list(ctx context.Context, query string, args ...any) ([]domain.SLARecord, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SLARecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *record)
	}
	return result, rows.Err()
}

func scanRecord(row pgx.Row) (*domain.SLARecord, error) {
	var rec domain.SLARecord
	if err := row.Scan(
		&rec.ID,
		&rec.TicketID,
		&rec.PolicyID,
		&rec.StartedAt,
		&rec.ResponseDeadline,
		&rec.ResolutionDeadline,
		&rec.FirstResponseAt,
		&rec.ResolvedAt,
		&rec.Status,
		&rec.ResponseBreached,
		&rec.ResolutionBreached,
		&rec.WarningsSent,
		&rec.Escalated,
		&rec.Version,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &rec, nil
}

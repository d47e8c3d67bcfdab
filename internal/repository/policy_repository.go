package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/sla"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	invalidTextValue    = "22P02"
)

// PolicyRepository manages SLA policy persistence.
type PolicyRepository interface {
	sla.PolicyStore
	Create(ctx context.Context, policy *domain.Policy) error
	GetByID(ctx context.Context, id string) (*domain.Policy, error)
	List(ctx context.Context) ([]domain.Policy, error)
	Deactivate(ctx context.Context, id string) (*domain.Policy, error)
}

type policyRepository struct {
	pool *pgxpool.Pool
}

// NewPolicyRepository builds the repository.
func NewPolicyRepository(pool *pgxpool.Pool) PolicyRepository {
	return &policyRepository{pool: pool}
}

const policyColumns = `id, name, priority, response_time_minutes, resolution_time_minutes,
               business_hours_only, is_active, created_at, updated_at`

func (r *policyRepository) Create(ctx context.Context, policy *domain.Policy) error {
	const query = `
        INSERT INTO sla_policies (name, priority, response_time_minutes, resolution_time_minutes, business_hours_only, is_active)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		policy.Name,
		policy.Priority,
		policy.ResponseTimeMinutes,
		policy.ResolutionTimeMinutes,
		policy.BusinessHoursOnly,
		policy.IsActive,
	).Scan(&policy.ID, &policy.CreatedAt, &policy.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrActivePolicyExists
	}
	return err
}

func (r *policyRepository) GetByID(ctx context.Context, id string) (*domain.Policy, error) {
	query := `SELECT ` + policyColumns + ` FROM sla_policies WHERE id=$1`
	policy, err := scanPolicy(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) || isUnknownReference(err) {
		return nil, ErrPolicyNotFound
	}
	return policy, err
}

func (r *policyRepository) List(ctx context.Context) ([]domain.Policy, error) {
	query := `SELECT ` + policyColumns + ` FROM sla_policies ORDER BY
        CASE priority WHEN 'low' THEN 0 WHEN 'medium' THEN 1 WHEN 'high' THEN 2 ELSE 3 END, created_at`
	return r.list(ctx, query)
}

func (r *policyRepository) ActivePoliciesFor(ctx context.Context, priority domain.Priority) ([]domain.Policy, error) {
	query := `SELECT ` + policyColumns + ` FROM sla_policies WHERE priority=$1 AND is_active = TRUE`
	return r.list(ctx, query, priority)
}

func (r *policyRepository) Deactivate(ctx context.Context, id string) (*domain.Policy, error) {
	query := `UPDATE sla_policies SET is_active = FALSE, updated_at = NOW() WHERE id=$1 RETURNING ` + policyColumns
	policy, err := scanPolicy(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) || isUnknownReference(err) {
		return nil, ErrPolicyNotFound
	}
	return policy, err
}

func (r *policyRepository) list(ctx context.Context, query string, args ...any) ([]domain.Policy, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Policy
	for rows.Next() {
		policy, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *policy)
	}
	return result, rows.Err()
}

func scanPolicy(row pgx.Row) (*domain.Policy, error) {
	var p domain.Policy
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Priority,
		&p.ResponseTimeMinutes,
		&p.ResolutionTimeMinutes,
		&p.BusinessHoursOnly,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func isUniqueViolation(err error) bool {
	return pgErrorCode(err) == uniqueViolation
}

// isUnknownReference reports a foreign key miss or an id that is not a
// valid uuid.
func isUnknownReference(err error) bool {
	code := pgErrorCode(err)
	return code == foreignKeyViolation || code == invalidTextValue
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// memoryPolicies exposes the policy half of a MemoryStore as a PolicyRepository.
type memoryPolicies struct {
	store *MemoryStore
}

// Policies returns the store's policy repository.
func (m *MemoryStore) Policies() PolicyRepository {
	return memoryPolicies{store: m}
}

func (p memoryPolicies) ActivePoliciesFor(ctx context.Context, priority domain.Priority) ([]domain.Policy, error) {
	return p.store.ActivePoliciesFor(ctx, priority)
}

func (p memoryPolicies) Create(ctx context.Context, policy *domain.Policy) error {
	return p.store.CreatePolicy(ctx, policy)
}

func (p memoryPolicies) GetByID(ctx context.Context, id string) (*domain.Policy, error) {
	return p.store.GetPolicy(ctx, id)
}

func (p memoryPolicies) List(ctx context.Context) ([]domain.Policy, error) {
	return p.store.ListPolicies(ctx)
}

func (p memoryPolicies) Deactivate(ctx context.Context, id string) (*domain.Policy, error) {
	return p.store.DeactivatePolicy(ctx, id)
}

package repository

import (
	"context"
	"fmt"

	"skillenergy/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const billingColumns = `id, user_id, country, state, created_at, updated_at`

type BillingRepository interface {
	Create(ctx context.Context, b *model.BillingAddress) error
	GetByID(ctx context.Context, id string) (*model.BillingAddress, error)
	GetByUser(ctx context.Context, userID string) (*model.BillingAddress, error)
	List(ctx context.Context) ([]model.BillingAddress, error)
	Update(ctx context.Context, b *model.BillingAddress) error
	Delete(ctx context.Context, id string) (bool, error)
}

type billingRepo struct {
	pool *pgxpool.Pool
}

func NewBillingRepo(pool *pgxpool.Pool) BillingRepository {
	return &billingRepo{pool: pool}
}

func (r *billingRepo) Create(ctx context.Context, b *model.BillingAddress) error {
	const q = `INSERT INTO billing_addresses (user_id, country, state) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`
	if err := r.pool.QueryRow(ctx, q, b.UserID, b.Country, b.State).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return fmt.Errorf("insert billing address: %w", translate(err))
	}
	return nil
}

func (r *billingRepo) GetByID(ctx context.Context, id string) (*model.BillingAddress, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+billingColumns+` FROM billing_addresses WHERE id = $1`, id)
	b, err := collectOne[model.BillingAddress](rows, err)
	if err != nil {
		return nil, fmt.Errorf("get billing address %s: %w", id, err)
	}
	return b, nil
}

func (r *billingRepo) GetByUser(ctx context.Context, userID string) (*model.BillingAddress, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+billingColumns+` FROM billing_addresses WHERE user_id = $1`, userID)
	b, err := collectOne[model.BillingAddress](rows, err)
	if err != nil {
		return nil, fmt.Errorf("get billing address of user %s: %w", userID, err)
	}
	return b, nil
}

func (r *billingRepo) List(ctx context.Context) ([]model.BillingAddress, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+billingColumns+` FROM billing_addresses ORDER BY created_at DESC`)
	out, err := collectAll[model.BillingAddress](rows, err)
	if err != nil {
		return nil, fmt.Errorf("list billing addresses: %w", err)
	}
	return out, nil
}

func (r *billingRepo) Update(ctx context.Context, b *model.BillingAddress) error {
	const q = `UPDATE billing_addresses SET country = $2, state = $3, updated_at = NOW() WHERE id = $1 RETURNING updated_at`
	if err := r.pool.QueryRow(ctx, q, b.ID, b.Country, b.State).Scan(&b.UpdatedAt); err != nil {
		return fmt.Errorf("update billing address %s: %w", b.ID, err)
	}
	return nil
}

func (r *billingRepo) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM billing_addresses WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete billing address %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

type DeletionReasonRepository interface {
	// CreateAndDeleteUser records the reason and removes the account in one transaction.
	CreateAndDeleteUser(ctx context.Context, d *model.DeletionReason) error
	GetByID(ctx context.Context, id string) (*model.DeletionReason, error)
	List(ctx context.Context) ([]model.DeletionReason, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type deletionReasonRepo struct {
	pool *pgxpool.Pool
}

func NewDeletionReasonRepo(pool *pgxpool.Pool) DeletionReasonRepository {
	return &deletionReasonRepo{pool: pool}
}

func (r *deletionReasonRepo) CreateAndDeleteUser(ctx context.Context, d *model.DeletionReason) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		const q = `INSERT INTO deletion_reasons (user_id, reason) VALUES ($1, $2) RETURNING id, created_at`
		if err := tx.QueryRow(ctx, q, d.UserID, d.Reason).Scan(&d.ID, &d.CreatedAt); err != nil {
			return fmt.Errorf("insert deletion reason: %w", err)
		}
		if d.UserID == nil {
			return nil
		}
		if _, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, *d.UserID); err != nil {
			return fmt.Errorf("delete user %s: %w", *d.UserID, err)
		}
		// The reason outlives the account with a NULL owner, as the foreign key sets it.
		d.UserID = nil
		return nil
	})
}

func (r *deletionReasonRepo) GetByID(ctx context.Context, id string) (*model.DeletionReason, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, user_id, reason, created_at FROM deletion_reasons WHERE id = $1`, id)
	d, err := collectOne[model.DeletionReason](rows, err)
	if err != nil {
		return nil, fmt.Errorf("get deletion reason %s: %w", id, err)
	}
	return d, nil
}

func (r *deletionReasonRepo) List(ctx context.Context) ([]model.DeletionReason, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, user_id, reason, created_at FROM deletion_reasons ORDER BY created_at DESC`)
	out, err := collectAll[model.DeletionReason](rows, err)
	if err != nil {
		return nil, fmt.Errorf("list deletion reasons: %w", err)
	}
	return out, nil
}

func (r *deletionReasonRepo) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM deletion_reasons WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete deletion reason %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// StatsRepository answers the admin dashboard counters.
type StatsRepository interface {
	Count(ctx context.Context, table string) (int64, error)
	Revenue(ctx context.Context) (float64, error)
}

// countable guards Count against arbitrary table names.
var countable = map[string]bool{
	"users": true, "courses": true, "mentors": true, "payments": true, "course_payments": true,
}

type statsRepo struct {
	pool *pgxpool.Pool
}

func NewStatsRepo(pool *pgxpool.Pool) StatsRepository {
	return &statsRepo{pool: pool}
}

func (r *statsRepo) Count(ctx context.Context, table string) (int64, error) {
	if !countable[table] {
		return 0, fmt.Errorf("count: table %q is not countable", table)
	}
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

func (r *statsRepo) Revenue(ctx context.Context) (float64, error) {
	const q = `
        SELECT (SELECT COALESCE(SUM(total), 0) FROM payments)::float8
             + (SELECT COALESCE(SUM(price), 0) FROM course_payments)::float8`
	var total float64
	if err := r.pool.QueryRow(ctx, q).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum revenue: %w", err)
	}
	return total, nil
}

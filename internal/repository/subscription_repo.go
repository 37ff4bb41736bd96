package repository

import (
	"context"
	"fmt"

	"skillenergy/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const planColumns = `id, plan_name, price, description, duration, is_active, created_at, updated_at`

const paymentColumns = `id, user_id, plan_id, payment_method, card_holder_name, card_last4, card_expiry, upi_id,
        plan_name, price, discount, total, billing_address_id, end_date, created_at`

// PlanRepository defines methods for accessing premium plans.
type PlanRepository interface {
	Create(ctx context.Context, p *model.PremiumPlan) error
	GetByID(ctx context.Context, id string) (*model.PremiumPlan, error)
	List(ctx context.Context) ([]model.PremiumPlan, error)
	Update(ctx context.Context, p *model.PremiumPlan) error
	Delete(ctx context.Context, id string) (bool, error)
}

// PurchaseFunc decides the payment for a locked user and the requested plan.
// Returning an error aborts the purchase without writes.
type PurchaseFunc func(user *model.User, plan *model.PremiumPlan) (*model.Payment, error)

// PaymentRepository defines methods for the subscription ledger.
type PaymentRepository interface {
	// Purchase locks the user row, calls decide and, if it succeeds, stores the payment and
	// points the user at the plan. A missing user or plan is passed to decide as nil.
	Purchase(ctx context.Context, userID, planID string, decide PurchaseFunc) (*model.Payment, error)
	GetByID(ctx context.Context, id string) (*model.Payment, error)
	List(ctx context.Context) ([]model.Payment, error)
	UpdateBillingAddress(ctx context.Context, id string, billingAddressID *string) (*model.Payment, error)
	// Delete removes the payment and resets its owner to no subscription.
	Delete(ctx context.Context, id string) (*model.Payment, error)
}

type planRepo struct {
	pool *pgxpool.Pool
}

// NewPlanRepo creates a new PlanRepository.
func NewPlanRepo(pool *pgxpool.Pool) PlanRepository {
	return &planRepo{pool: pool}
}

func (r *planRepo) Create(ctx context.Context, p *model.PremiumPlan) error {
	const q = `
        INSERT INTO premium_plans (plan_name, price, description, duration, is_active)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`
	if err := r.pool.QueryRow(ctx, q, p.Name, p.Price, p.Description, p.Duration, p.IsActive).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("insert plan: %w", translate(err))
	}
	return nil
}

func (r *planRepo) GetByID(ctx context.Context, id string) (*model.PremiumPlan, error) {
	return getPlan(ctx, r.pool, id)
}

func (r *planRepo) List(ctx context.Context) ([]model.PremiumPlan, error) {
	const q = `SELECT ` + planColumns + ` FROM premium_plans ORDER BY price`
	rows, err := r.pool.Query(ctx, q)
	plans, err := collectAll[model.PremiumPlan](rows, err)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return plans, nil
}

func (r *planRepo) Update(ctx context.Context, p *model.PremiumPlan) error {
	const q = `
        UPDATE premium_plans
        SET plan_name = $2, price = $3, description = $4, duration = $5, is_active = $6, updated_at = NOW()
        WHERE id = $1
        RETURNING updated_at`
	if err := r.pool.QueryRow(ctx, q, p.ID, p.Name, p.Price, p.Description, p.Duration, p.IsActive).Scan(&p.UpdatedAt); err != nil {
		return fmt.Errorf("update plan %s: %w", p.ID, translate(err))
	}
	return nil
}

func (r *planRepo) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM premium_plans WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete plan %s: %w", id, translate(err))
	}
	return tag.RowsAffected() > 0, nil
}

type paymentRepo struct {
	pool *pgxpool.Pool
}

// NewPaymentRepo creates a new PaymentRepository.
func NewPaymentRepo(pool *pgxpool.Pool) PaymentRepository {
	return &paymentRepo{pool: pool}
}

func (r *paymentRepo) Purchase(ctx context.Context, userID, planID string, decide PurchaseFunc) (*model.Payment, error) {
	var payment *model.Payment
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		const lockQ = `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
		rows, err := tx.Query(ctx, lockQ, userID)
		user, err := collectOne[model.User](rows, err)
		if err != nil {
			return fmt.Errorf("lock user %s: %w", userID, err)
		}
		plan, err := getPlan(ctx, tx, planID)
		if err != nil {
			return err
		}

		p, err := decide(user, plan)
		if err != nil {
			return err
		}

		const insertQ = `
            INSERT INTO payments (user_id, plan_id, payment_method, card_holder_name, card_last4, card_expiry, upi_id,
                                  plan_name, price, discount, total, billing_address_id, end_date)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
            RETURNING id, created_at`
		err = tx.QueryRow(ctx, insertQ, p.UserID, p.PlanID, p.Method, p.CardHolderName, p.CardLast4, p.CardExpiry, p.UPIID,
			p.PlanName, p.Price, p.Discount, p.Total, p.BillingAddressID, p.EndDate).Scan(&p.ID, &p.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}

		const userQ = `UPDATE users SET plan_id = $2, end_date = $3, is_subscribed = TRUE, updated_at = NOW() WHERE id = $1`
		if _, err := tx.Exec(ctx, userQ, p.UserID, p.PlanID, p.EndDate); err != nil {
			return fmt.Errorf("set plan of user %s: %w", p.UserID, err)
		}
		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (r *paymentRepo) GetByID(ctx context.Context, id string) (*model.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	rows, err := r.pool.Query(ctx, q, id)
	p, err := collectOne[model.Payment](rows, err)
	if err != nil {
		return nil, fmt.Errorf("get payment %s: %w", id, err)
	}
	return p, nil
}

func (r *paymentRepo) List(ctx context.Context) ([]model.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q)
	payments, err := collectAll[model.Payment](rows, err)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

func (r *paymentRepo) UpdateBillingAddress(ctx context.Context, id string, billingAddressID *string) (*model.Payment, error) {
	const q = `UPDATE payments SET billing_address_id = $2 WHERE id = $1 RETURNING ` + paymentColumns
	rows, err := r.pool.Query(ctx, q, id, billingAddressID)
	p, err := collectOne[model.Payment](rows, err)
	if err != nil {
		return nil, fmt.Errorf("update billing address of payment %s: %w", id, err)
	}
	return p, nil
}

func (r *paymentRepo) Delete(ctx context.Context, id string) (*model.Payment, error) {
	var deleted *model.Payment
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		const q = `DELETE FROM payments WHERE id = $1 RETURNING ` + paymentColumns
		rows, err := tx.Query(ctx, q, id)
		p, err := collectOne[model.Payment](rows, err)
		if err != nil {
			return fmt.Errorf("delete payment %s: %w", id, err)
		}
		if p == nil {
			return nil
		}
		const resetQ = `UPDATE users SET plan_id = NULL, end_date = NULL, is_subscribed = FALSE, updated_at = NOW() WHERE id = $1`
		if _, err := tx.Exec(ctx, resetQ, p.UserID); err != nil {
			return fmt.Errorf("reset plan of user %s: %w", p.UserID, err)
		}
		deleted = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func getPlan(ctx context.Context, db DBTX, id string) (*model.PremiumPlan, error) {
	const q = `SELECT ` + planColumns + ` FROM premium_plans WHERE id = $1`
	rows, err := db.Query(ctx, q, id)
	p, err := collectOne[model.PremiumPlan](rows, err)
	if err != nil {
		return nil, fmt.Errorf("get plan %s: %w", id, err)
	}
	return p, nil
}

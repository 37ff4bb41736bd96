package repository

import (
	"context"
	"fmt"

	"skillenergy/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const coursePaymentColumns = `id, transaction_id, course_id, user_id, price, created_at`

type CoursePaymentRepository interface {
	// Create records the purchase and adds the user to the course purchasers in one transaction.
	Create(ctx context.Context, p *model.CoursePayment) error
	GetByID(ctx context.Context, id string) (*model.CoursePayment, error)
	List(ctx context.Context) ([]model.CoursePayment, error)
}

type coursePaymentRepo struct {
	pool *pgxpool.Pool
}

func NewCoursePaymentRepo(pool *pgxpool.Pool) CoursePaymentRepository {
	return &coursePaymentRepo{pool: pool}
}

func (r *coursePaymentRepo) Create(ctx context.Context, p *model.CoursePayment) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		const q = `
            INSERT INTO course_payments (transaction_id, course_id, user_id, price)
            VALUES ($1, $2, $3, $4)
            RETURNING id, created_at`
		if err := tx.QueryRow(ctx, q, p.TransactionID, p.CourseID, p.UserID, p.Price).Scan(&p.ID, &p.CreatedAt); err != nil {
			return fmt.Errorf("insert course payment: %w", translate(err))
		}
		const purchaserQ = `
            INSERT INTO course_purchasers (course_id, user_id, purchased_at)
            VALUES ($1, $2, $3)
            ON CONFLICT (course_id, user_id) DO NOTHING`
		if _, err := tx.Exec(ctx, purchaserQ, p.CourseID, p.UserID, p.CreatedAt); err != nil {
			return fmt.Errorf("add purchaser to course %s: %w", p.CourseID, err)
		}
		return nil
	})
}

func (r *coursePaymentRepo) GetByID(ctx context.Context, id string) (*model.CoursePayment, error) {
	const q = `SELECT ` + coursePaymentColumns + ` FROM course_payments WHERE id = $1`
	rows, err := r.pool.Query(ctx, q, id)
	p, err := collectOne[model.CoursePayment](rows, err)
	if err != nil {
		return nil, fmt.Errorf("get course payment %s: %w", id, err)
	}
	return p, nil
}

func (r *coursePaymentRepo) List(ctx context.Context) ([]model.CoursePayment, error) {
	const q = `SELECT ` + coursePaymentColumns + ` FROM course_payments ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q)
	out, err := collectAll[model.CoursePayment](rows, err)
	if err != nil {
		return nil, fmt.Errorf("list course payments: %w", err)
	}
	return out, nil
}

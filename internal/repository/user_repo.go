package repository

import (
	"context"
	"fmt"
	"time"

	"skillenergy/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, name, phone, email, gender, password_hash, image, image_key, role, is_admin,
        reset_otp, otp_expires, otp_verified, plan_id, end_date, is_subscribed, created_at, updated_at`

type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	UpdateProfile(ctx context.Context, u *model.User) error
	UpdatePassword(ctx context.Context, id, hash string) error
	SetOTP(ctx context.Context, id, otp string, expires time.Time) error
	MarkOTPVerified(ctx context.Context, id string) error
	// ResetPassword stores the new hash and clears every OTP field.
	ResetPassword(ctx context.Context, id, hash string) error
	Delete(ctx context.Context, id string) (bool, error)
}

type userRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepo{pool: pool}
}

func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	const q = `
        INSERT INTO users (name, phone, email, gender, password_hash, image, image_key, role, is_admin)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, is_subscribed, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, u.Name, u.Phone, u.Email, u.Gender, u.PasswordHash, u.Image, u.ImageKey, u.Role, u.IsAdmin).
		Scan(&u.ID, &u.IsSubscribed, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", translate(err))
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	rows, err := r.pool.Query(ctx, q, id)
	u, err := collectOne[model.User](rows, err)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	rows, err := r.pool.Query(ctx, q, email)
	u, err := collectOne[model.User](rows, err)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (r *userRepo) List(ctx context.Context) ([]model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q)
	users, err := collectAll[model.User](rows, err)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *userRepo) UpdateProfile(ctx context.Context, u *model.User) error {
	const q = `
        UPDATE users
        SET name = $2, phone = $3, email = $4, gender = $5, image = $6, image_key = $7, updated_at = NOW()
        WHERE id = $1
        RETURNING updated_at`
	if err := r.pool.QueryRow(ctx, q, u.ID, u.Name, u.Phone, u.Email, u.Gender, u.Image, u.ImageKey).Scan(&u.UpdatedAt); err != nil {
		return fmt.Errorf("update user %s: %w", u.ID, translate(err))
	}
	return nil
}

func (r *userRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	const q = `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, id, hash); err != nil {
		return fmt.Errorf("update password of user %s: %w", id, err)
	}
	return nil
}

func (r *userRepo) SetOTP(ctx context.Context, id, otp string, expires time.Time) error {
	const q = `UPDATE users SET reset_otp = $2, otp_expires = $3, otp_verified = FALSE, updated_at = NOW() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, id, otp, expires); err != nil {
		return fmt.Errorf("set otp of user %s: %w", id, err)
	}
	return nil
}

func (r *userRepo) MarkOTPVerified(ctx context.Context, id string) error {
	const q = `UPDATE users SET otp_verified = TRUE, updated_at = NOW() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, id); err != nil {
		return fmt.Errorf("verify otp of user %s: %w", id, err)
	}
	return nil
}

func (r *userRepo) ResetPassword(ctx context.Context, id, hash string) error {
	const q = `
        UPDATE users
        SET password_hash = $2, reset_otp = '', otp_expires = NULL, otp_verified = FALSE, updated_at = NOW()
        WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, id, hash); err != nil {
		return fmt.Errorf("reset password of user %s: %w", id, err)
	}
	return nil
}

func (r *userRepo) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete user %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

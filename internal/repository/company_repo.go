package repository

import (
	"context"
	"fmt"

	"skillenergy/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

const companyColumns = `id, name, image, image_key, status, created_at, updated_at`

type CompanyRepository interface {
	Create(ctx context.Context, c *model.Company) error
	GetByID(ctx context.Context, id string) (*model.Company, error)
	GetByName(ctx context.Context, name string) (*model.Company, error)
	List(ctx context.Context) ([]model.Company, error)
	Update(ctx context.Context, c *model.Company) error
	Delete(ctx context.Context, id string) (bool, error)
}

type companyRepo struct {
	pool *pgxpool.Pool
}

func NewCompanyRepo(pool *pgxpool.Pool) CompanyRepository {
	return &companyRepo{pool: pool}
}

func (r *companyRepo) Create(ctx context.Context, c *model.Company) error {
	const q = `INSERT INTO companies (name, image, image_key, status) VALUES ($1, $2, $3, $4) RETURNING id, created_at, updated_at`
	if err := r.pool.QueryRow(ctx, q, c.Name, c.Image, c.ImageKey, c.Status).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return fmt.Errorf("insert company: %w", translate(err))
	}
	return nil
}

func (r *companyRepo) GetByID(ctx context.Context, id string) (*model.Company, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id)
	c, err := collectOne[model.Company](rows, err)
	if err != nil {
		return nil, fmt.Errorf("get company %s: %w", id, err)
	}
	return c, nil
}

func (r *companyRepo) GetByName(ctx context.Context, name string) (*model.Company, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+companyColumns+` FROM companies WHERE name = $1`, name)
	c, err := collectOne[model.Company](rows, err)
	if err != nil {
		return nil, fmt.Errorf("get company by name: %w", err)
	}
	return c, nil
}

func (r *companyRepo) List(ctx context.Context) ([]model.Company, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+companyColumns+` FROM companies ORDER BY created_at DESC`)
	out, err := collectAll[model.Company](rows, err)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return out, nil
}

func (r *companyRepo) Update(ctx context.Context, c *model.Company) error {
	const q = `
        UPDATE companies SET name = $2, image = $3, image_key = $4, status = $5, updated_at = NOW()
        WHERE id = $1
        RETURNING updated_at`
	if err := r.pool.QueryRow(ctx, q, c.ID, c.Name, c.Image, c.ImageKey, c.Status).Scan(&c.UpdatedAt); err != nil {
		return fmt.Errorf("update company %s: %w", c.ID, translate(err))
	}
	return nil
}

func (r *companyRepo) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete company %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

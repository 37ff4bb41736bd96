package repository

import (
	"context"
	"fmt"

	"skillenergy/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CategoryRepository interface {
	Create(ctx context.Context, c *model.CourseCategory) error
	GetByID(ctx context.Context, id string) (*model.CourseCategory, error)
	GetByName(ctx context.Context, name string) (*model.CourseCategory, error)
	List(ctx context.Context) ([]model.CourseCategory, error)
	Update(ctx context.Context, c *model.CourseCategory) error
	Delete(ctx context.Context, id string) (bool, error)
}

type LanguageRepository interface {
	Create(ctx context.Context, l *model.Language) error
	GetByID(ctx context.Context, id string) (*model.Language, error)
	GetByName(ctx context.Context, name string) (*model.Language, error)
	List(ctx context.Context) ([]model.Language, error)
	Update(ctx context.Context, l *model.Language) error
	Delete(ctx context.Context, id string) (bool, error)
}

type categoryRepo struct {
	pool *pgxpool.Pool
}

func NewCategoryRepo(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepo{pool: pool}
}

func (r *categoryRepo) Create(ctx context.Context, c *model.CourseCategory) error {
	const q = `INSERT INTO course_categories (name) VALUES ($1) RETURNING id, created_at, updated_at`
	if err := r.pool.QueryRow(ctx, q, c.Name).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return fmt.Errorf("insert category: %w", translate(err))
	}
	return nil
}

func (r *categoryRepo) GetByID(ctx context.Context, id string) (*model.CourseCategory, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at, updated_at FROM course_categories WHERE id = $1`, id)
	c, err := collectOne[model.CourseCategory](rows, err)
	if err != nil {
		return nil, fmt.Errorf("get category %s: %w", id, err)
	}
	return c, nil
}

func (r *categoryRepo) GetByName(ctx context.Context, name string) (*model.CourseCategory, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at, updated_at FROM course_categories WHERE name = $1`, name)
	c, err := collectOne[model.CourseCategory](rows, err)
	if err != nil {
		return nil, fmt.Errorf("get category by name: %w", err)
	}
	return c, nil
}

func (r *categoryRepo) List(ctx context.Context) ([]model.CourseCategory, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at, updated_at FROM course_categories ORDER BY name`)
	out, err := collectAll[model.CourseCategory](rows, err)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

func (r *categoryRepo) Update(ctx context.Context, c *model.CourseCategory) error {
	const q = `UPDATE course_categories SET name = $2, updated_at = NOW() WHERE id = $1 RETURNING updated_at`
	if err := r.pool.QueryRow(ctx, q, c.ID, c.Name).Scan(&c.UpdatedAt); err != nil {
		return fmt.Errorf("update category %s: %w", c.ID, translate(err))
	}
	return nil
}

func (r *categoryRepo) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM course_categories WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete category %s: %w", id, translate(err))
	}
	return tag.RowsAffected() > 0, nil
}

const languageColumns = `id, name, thumbnail, thumbnail_key, created_at, updated_at`

type languageRepo struct {
	pool *pgxpool.Pool
}

func NewLanguageRepo(pool *pgxpool.Pool) LanguageRepository {
	return &languageRepo{pool: pool}
}

func (r *languageRepo) Create(ctx context.Context, l *model.Language) error {
	const q = `INSERT INTO languages (name, thumbnail, thumbnail_key) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`
	if err := r.pool.QueryRow(ctx, q, l.Name, l.Thumbnail, l.ThumbnailKey).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return fmt.Errorf("insert language: %w", translate(err))
	}
	return nil
}

func (r *languageRepo) GetByID(ctx context.Context, id string) (*model.Language, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+languageColumns+` FROM languages WHERE id = $1`, id)
	l, err := collectOne[model.Language](rows, err)
	if err != nil {
		return nil, fmt.Errorf("get language %s: %w", id, err)
	}
	return l, nil
}

func (r *languageRepo) GetByName(ctx context.Context, name string) (*model.Language, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+languageColumns+` FROM languages WHERE name = $1`, name)
	l, err := collectOne[model.Language](rows, err)
	if err != nil {
		return nil, fmt.Errorf("get language by name: %w", err)
	}
	return l, nil
}

func (r *languageRepo) List(ctx context.Context) ([]model.Language, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+languageColumns+` FROM languages ORDER BY name`)
	out, err := collectAll[model.Language](rows, err)
	if err != nil {
		return nil, fmt.Errorf("list languages: %w", err)
	}
	return out, nil
}

func (r *languageRepo) Update(ctx context.Context, l *model.Language) error {
	const q = `
        UPDATE languages SET name = $2, thumbnail = $3, thumbnail_key = $4, updated_at = NOW()
        WHERE id = $1
        RETURNING updated_at`
	if err := r.pool.QueryRow(ctx, q, l.ID, l.Name, l.Thumbnail, l.ThumbnailKey).Scan(&l.UpdatedAt); err != nil {
		return fmt.Errorf("update language %s: %w", l.ID, translate(err))
	}
	return nil
}

func (r *languageRepo) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM languages WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete language %s: %w", id, translate(err))
	}
	return tag.RowsAffected() > 0, nil
}

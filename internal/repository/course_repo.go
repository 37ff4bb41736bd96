package repository

import (
	"context"
	"fmt"
	"strings"

	"skillenergy/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const courseColumns = `c.id, c.category_id, c.language_id, c.title, c.short_description, c.long_description,
        c.language, c.cc, c.price, c.what_are_learn, c.thumbnail, c.thumbnail_key, c.created_at, c.updated_at`

const summarySelect = `
        SELECT ` + courseColumns + `,
               COALESCE(cat.name, '') AS category_name,
               COALESCE(ROUND(AVG(r.rate)::numeric, 1), 0)::float8 AS avg_rating,
               COUNT(DISTINCT r.id)::int AS total_ratings,
               COUNT(DISTINCT cp.user_id)::int AS total_enrollments
        FROM courses c
        LEFT JOIN course_categories cat ON cat.id = c.category_id
        LEFT JOIN ratings r ON r.course_id = c.id
        LEFT JOIN course_purchasers cp ON cp.course_id = c.id`

// CourseRepository defines methods for the course catalog and its purchasers.
type CourseRepository interface {
	Create(ctx context.Context, c *model.Course) error
	GetByID(ctx context.Context, id string) (*model.Course, error)
	GetByTitle(ctx context.Context, title string) (*model.Course, error)
	List(ctx context.Context) ([]model.Course, error)
	Update(ctx context.Context, c *model.Course) error
	Delete(ctx context.Context, id string) (bool, error)
	// Summaries lists courses with rating and enrollment figures.
	Summaries(ctx context.Context, f model.CourseFilter) ([]model.CourseSummary, error)
	HasPurchaser(ctx context.Context, courseID, userID string) (bool, error)
}

type courseRepo struct {
	pool *pgxpool.Pool
}

func NewCourseRepo(pool *pgxpool.Pool) CourseRepository {
	return &courseRepo{pool: pool}
}

func (r *courseRepo) Create(ctx context.Context, c *model.Course) error {
	const q = `
        INSERT INTO courses (category_id, language_id, title, short_description, long_description, language, cc,
                             price, what_are_learn, thumbnail, thumbnail_key)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, c.CategoryID, c.LanguageID, c.Title, c.ShortDescription, c.LongDescription, c.Language, c.CC,
		c.Price, c.WhatAreLearn, c.Thumbnail, c.ThumbnailKey).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert course: %w", translate(err))
	}
	return nil
}

func (r *courseRepo) GetByID(ctx context.Context, id string) (*model.Course, error) {
	const q = `SELECT ` + courseColumns + ` FROM courses c WHERE c.id = $1`
	rows, err := r.pool.Query(ctx, q, id)
	c, err := collectOne[model.Course](rows, err)
	if err != nil {
		return nil, fmt.Errorf("get course %s: %w", id, err)
	}
	return c, nil
}

func (r *courseRepo) GetByTitle(ctx context.Context, title string) (*model.Course, error) {
	const q = `SELECT ` + courseColumns + ` FROM courses c WHERE c.title = $1`
	rows, err := r.pool.Query(ctx, q, title)
	c, err := collectOne[model.Course](rows, err)
	if err != nil {
		return nil, fmt.Errorf("get course by title: %w", err)
	}
	return c, nil
}

func (r *courseRepo) List(ctx context.Context) ([]model.Course, error) {
	const q = `SELECT ` + courseColumns + ` FROM courses c ORDER BY c.created_at DESC`
	rows, err := r.pool.Query(ctx, q)
	courses, err := collectAll[model.Course](rows, err)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

func (r *courseRepo) Update(ctx context.Context, c *model.Course) error {
	const q = `
        UPDATE courses
        SET category_id = $2, language_id = $3, title = $4, short_description = $5, long_description = $6,
            language = $7, cc = $8, price = $9, what_are_learn = $10, thumbnail = $11, thumbnail_key = $12,
            updated_at = NOW()
        WHERE id = $1
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, q, c.ID, c.CategoryID, c.LanguageID, c.Title, c.ShortDescription, c.LongDescription,
		c.Language, c.CC, c.Price, c.WhatAreLearn, c.Thumbnail, c.ThumbnailKey).Scan(&c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update course %s: %w", c.ID, translate(err))
	}
	return nil
}

func (r *courseRepo) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete course %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *courseRepo) Summaries(ctx context.Context, f model.CourseFilter) ([]model.CourseSummary, error) {
	var where []string
	args := pgx.NamedArgs{}
	if f.CategoryID != "" {
		where = append(where, "c.category_id = @category")
		args["category"] = f.CategoryID
	}
	if f.Language != "" {
		where = append(where, "LOWER(c.language) = LOWER(@language)")
		args["language"] = f.Language
	}

	q := summarySelect
	if len(where) > 0 {
		q += "\n        WHERE " + strings.Join(where, " AND ")
	}
	q += "\n        GROUP BY c.id, cat.name"
	if f.MinRating > 0 {
		q += "\n        HAVING COALESCE(AVG(r.rate), 0) >= @minRating"
		args["minRating"] = f.MinRating
	}

	switch f.SortBy {
	case "popular":
		q += "\n        ORDER BY total_enrollments DESC, c.created_at DESC"
	case "ratings":
		q += "\n        ORDER BY avg_rating DESC, total_ratings DESC"
	default:
		q += "\n        ORDER BY c.created_at DESC"
	}
	if f.Limit > 0 {
		q += "\n        LIMIT @limit"
		args["limit"] = f.Limit
	}

	rows, err := r.pool.Query(ctx, q, args)
	out, err := collectAll[model.CourseSummary](rows, err)
	if err != nil {
		return nil, fmt.Errorf("list course summaries: %w", err)
	}
	return out, nil
}

func (r *courseRepo) HasPurchaser(ctx context.Context, courseID, userID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM course_purchasers WHERE course_id = $1 AND user_id = $2)`
	var ok bool
	if err := r.pool.QueryRow(ctx, q, courseID, userID).Scan(&ok); err != nil {
		return false, fmt.Errorf("check purchaser of course %s: %w", courseID, err)
	}
	return ok, nil
}

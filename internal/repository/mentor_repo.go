package repository

import (
	"context"
	"fmt"

	"skillenergy/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const mentorSelect = `
        SELECT m.id, m.name, m.image, m.image_key, m.status,
               ARRAY(SELECT mc.course_id::text FROM mentor_courses mc WHERE mc.mentor_id = m.id ORDER BY mc.course_id) AS course_ids,
               m.created_at, m.updated_at
        FROM mentors m`

type MentorRepository interface {
	// Create stores the mentor together with its course links.
	Create(ctx context.Context, m *model.Mentor) error
	GetByID(ctx context.Context, id string) (*model.Mentor, error)
	GetByName(ctx context.Context, name string) (*model.Mentor, error)
	List(ctx context.Context) ([]model.Mentor, error)
	ListByCourse(ctx context.Context, courseID string) ([]model.Mentor, error)
	// Update rewrites the mentor and replaces its course links.
	Update(ctx context.Context, m *model.Mentor) error
	Delete(ctx context.Context, id string) (bool, error)
	Top(ctx context.Context, limit int) ([]model.MentorRank, error)
}

type mentorRepo struct {
	pool *pgxpool.Pool
}

func NewMentorRepo(pool *pgxpool.Pool) MentorRepository {
	return &mentorRepo{pool: pool}
}

func (r *mentorRepo) Create(ctx context.Context, m *model.Mentor) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		const q = `
            INSERT INTO mentors (name, image, image_key, status)
            VALUES ($1, $2, $3, $4)
            RETURNING id, created_at, updated_at`
		if err := tx.QueryRow(ctx, q, m.Name, m.Image, m.ImageKey, m.Status).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return fmt.Errorf("insert mentor: %w", translate(err))
		}
		return linkCourses(ctx, tx, m.ID, m.CourseIDs)
	})
}

func (r *mentorRepo) GetByID(ctx context.Context, id string) (*model.Mentor, error) {
	rows, err := r.pool.Query(ctx, mentorSelect+` WHERE m.id = $1`, id)
	m, err := collectOne[model.Mentor](rows, err)
	if err != nil {
		return nil, fmt.Errorf("get mentor %s: %w", id, err)
	}
	return m, nil
}

func (r *mentorRepo) GetByName(ctx context.Context, name string) (*model.Mentor, error) {
	rows, err := r.pool.Query(ctx, mentorSelect+` WHERE m.name = $1`, name)
	m, err := collectOne[model.Mentor](rows, err)
	if err != nil {
		return nil, fmt.Errorf("get mentor by name: %w", err)
	}
	return m, nil
}

func (r *mentorRepo) List(ctx context.Context) ([]model.Mentor, error) {
	rows, err := r.pool.Query(ctx, mentorSelect+` ORDER BY m.created_at DESC`)
	out, err := collectAll[model.Mentor](rows, err)
	if err != nil {
		return nil, fmt.Errorf("list mentors: %w", err)
	}
	return out, nil
}

func (r *mentorRepo) ListByCourse(ctx context.Context, courseID string) ([]model.Mentor, error) {
	const where = ` WHERE EXISTS (SELECT 1 FROM mentor_courses mc WHERE mc.mentor_id = m.id AND mc.course_id = $1) ORDER BY m.name`
	rows, err := r.pool.Query(ctx, mentorSelect+where, courseID)
	out, err := collectAll[model.Mentor](rows, err)
	if err != nil {
		return nil, fmt.Errorf("list mentors of course %s: %w", courseID, err)
	}
	return out, nil
}

func (r *mentorRepo) Update(ctx context.Context, m *model.Mentor) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		const q = `
            UPDATE mentors SET name = $2, image = $3, image_key = $4, status = $5, updated_at = NOW()
            WHERE id = $1
            RETURNING updated_at`
		if err := tx.QueryRow(ctx, q, m.ID, m.Name, m.Image, m.ImageKey, m.Status).Scan(&m.UpdatedAt); err != nil {
			return fmt.Errorf("update mentor %s: %w", m.ID, translate(err))
		}
		if _, err := tx.Exec(ctx, `DELETE FROM mentor_courses WHERE mentor_id = $1`, m.ID); err != nil {
			return fmt.Errorf("unlink courses of mentor %s: %w", m.ID, err)
		}
		return linkCourses(ctx, tx, m.ID, m.CourseIDs)
	})
}

func (r *mentorRepo) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM mentors WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete mentor %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *mentorRepo) Top(ctx context.Context, limit int) ([]model.MentorRank, error) {
	const q = `
        SELECT m.id, m.name, m.image, m.image_key, m.status,
               COALESCE(array_agg(mc.course_id::text ORDER BY mc.course_id) FILTER (WHERE mc.course_id IS NOT NULL), '{}') AS course_ids,
               m.created_at, m.updated_at,
               COUNT(mc.course_id)::int AS course_count
        FROM mentors m
        LEFT JOIN mentor_courses mc ON mc.mentor_id = m.id
        WHERE m.status = 'active'
        GROUP BY m.id
        ORDER BY course_count DESC, m.name
        LIMIT $1`
	rows, err := r.pool.Query(ctx, q, limit)
	out, err := collectAll[model.MentorRank](rows, err)
	if err != nil {
		return nil, fmt.Errorf("list top mentors: %w", err)
	}
	return out, nil
}

func linkCourses(ctx context.Context, tx pgx.Tx, mentorID string, courseIDs []string) error {
	if len(courseIDs) == 0 {
		return nil
	}
	const q = `
        INSERT INTO mentor_courses (mentor_id, course_id)
        SELECT $1, UNNEST($2::uuid[])
        ON CONFLICT DO NOTHING`
	if _, err := tx.Exec(ctx, q, mentorID, courseIDs); err != nil {
		return fmt.Errorf("link courses to mentor %s: %w", mentorID, translate(err))
	}
	return nil
}

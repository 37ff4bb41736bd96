package repository

import (
	"context"
	"fmt"

	"skillenergy/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const sectionColumns = `id, course_id, section_no, section_title, video_no, video_title,
        video_time, total_time, video, video_key, created_at, updated_at`

// SectionRepository reads section rows and runs group-locked mutations.
type SectionRepository interface {
	GetByID(ctx context.Context, id string) (*model.Section, error)
	ListByCourse(ctx context.Context, courseID string) ([]model.Section, error)
	// WithGroupLock runs fn in one transaction holding an advisory lock on every key.
	// Keys are locked in sorted order.
	WithGroupLock(ctx context.Context, keys []model.SectionGroupKey, fn func(tx SectionTx) error) error
}

// SectionTx is the set of writes allowed while group locks are held.
type SectionTx interface {
	GetByID(ctx context.Context, id string) (*model.Section, error)
	// FindConflicts reports whether another row of the group already uses videoNo or title.
	FindConflicts(ctx context.Context, key model.SectionGroupKey, videoNo int, title, excludeID string) (numberTaken, titleTaken bool, err error)
	Insert(ctx context.Context, s *model.Section) error
	Update(ctx context.Context, s *model.Section) error
	Delete(ctx context.Context, id string) (bool, error)
	// RecomputeTotal rewrites total_time on every row of the group to the full sum of video_time.
	RecomputeTotal(ctx context.Context, key model.SectionGroupKey) (int, error)
}

type sectionRepo struct {
	pool *pgxpool.Pool
}

func NewSectionRepo(pool *pgxpool.Pool) SectionRepository {
	return &sectionRepo{pool: pool}
}

func (r *sectionRepo) GetByID(ctx context.Context, id string) (*model.Section, error) {
	return getSection(ctx, r.pool, id)
}

func (r *sectionRepo) ListByCourse(ctx context.Context, courseID string) ([]model.Section, error) {
	const q = `SELECT ` + sectionColumns + `
        FROM course_sections
        WHERE course_id = $1
        ORDER BY section_no, video_no`
	rows, err := r.pool.Query(ctx, q, courseID)
	out, err := collectAll[model.Section](rows, err)
	if err != nil {
		return nil, fmt.Errorf("list sections of course %s: %w", courseID, err)
	}
	return out, nil
}

func (r *sectionRepo) WithGroupLock(ctx context.Context, keys []model.SectionGroupKey, fn func(tx SectionTx) error) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, k := range model.SortGroupKeys(keys) {
			const q = `SELECT pg_advisory_xact_lock(hashtext($1), $2)`
			if _, err := tx.Exec(ctx, q, k.CourseID, k.SectionNo); err != nil {
				return fmt.Errorf("lock section group %s/%d: %w", k.CourseID, k.SectionNo, err)
			}
		}
		return fn(&sectionTx{db: tx})
	})
}

type sectionTx struct {
	db DBTX
}

func (t *sectionTx) GetByID(ctx context.Context, id string) (*model.Section, error) {
	return getSection(ctx, t.db, id)
}

func (t *sectionTx) FindConflicts(ctx context.Context, key model.SectionGroupKey, videoNo int, title, excludeID string) (bool, bool, error) {
	const q = `
        SELECT COALESCE(bool_or(video_no = $3), FALSE), COALESCE(bool_or(video_title = $4), FALSE)
        FROM course_sections
        WHERE course_id = $1 AND section_no = $2 AND ($5 = '' OR id::text <> $5)`
	var numberTaken, titleTaken bool
	if err := t.db.QueryRow(ctx, q, key.CourseID, key.SectionNo, videoNo, title, excludeID).Scan(&numberTaken, &titleTaken); err != nil {
		return false, false, fmt.Errorf("check section duplicates: %w", err)
	}
	return numberTaken, titleTaken, nil
}

func (t *sectionTx) Insert(ctx context.Context, s *model.Section) error {
	const q = `
        INSERT INTO course_sections (course_id, section_no, section_title, video_no, video_title, video_time, video, video_key)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, total_time, created_at, updated_at`
	err := t.db.QueryRow(ctx, q, s.CourseID, s.SectionNo, s.SectionTitle, s.VideoNo, s.VideoTitle, s.VideoTime, s.Video, s.VideoKey).
		Scan(&s.ID, &s.TotalTime, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert section: %w", translate(err))
	}
	return nil
}

func (t *sectionTx) Update(ctx context.Context, s *model.Section) error {
	const q = `
        UPDATE course_sections
        SET course_id = $2, section_no = $3, section_title = $4, video_no = $5, video_title = $6,
            video_time = $7, video = $8, video_key = $9, updated_at = NOW()
        WHERE id = $1
        RETURNING updated_at`
	err := t.db.QueryRow(ctx, q, s.ID, s.CourseID, s.SectionNo, s.SectionTitle, s.VideoNo, s.VideoTitle, s.VideoTime, s.Video, s.VideoKey).
		Scan(&s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update section %s: %w", s.ID, translate(err))
	}
	return nil
}

func (t *sectionTx) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := t.db.Exec(ctx, `DELETE FROM course_sections WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete section %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (t *sectionTx) RecomputeTotal(ctx context.Context, key model.SectionGroupKey) (int, error) {
	const q = `
        WITH total AS (
            SELECT COALESCE(SUM(video_time), 0)::int AS value
            FROM course_sections
            WHERE course_id = $1 AND section_no = $2
        )
        UPDATE course_sections
        SET total_time = (SELECT value FROM total)
        WHERE course_id = $1 AND section_no = $2`
	if _, err := t.db.Exec(ctx, q, key.CourseID, key.SectionNo); err != nil {
		return 0, fmt.Errorf("recompute total of %s/%d: %w", key.CourseID, key.SectionNo, err)
	}
	var total int
	const sumQ = `SELECT COALESCE(SUM(video_time), 0)::int FROM course_sections WHERE course_id = $1 AND section_no = $2`
	if err := t.db.QueryRow(ctx, sumQ, key.CourseID, key.SectionNo).Scan(&total); err != nil {
		return 0, fmt.Errorf("read total of %s/%d: %w", key.CourseID, key.SectionNo, err)
	}
	return total, nil
}

func getSection(ctx context.Context, db DBTX, id string) (*model.Section, error) {
	const q = `SELECT ` + sectionColumns + ` FROM course_sections WHERE id = $1`
	rows, err := db.Query(ctx, q, id)
	s, err := collectOne[model.Section](rows, err)
	if err != nil {
		return nil, fmt.Errorf("get section %s: %w", id, err)
	}
	return s, nil
}

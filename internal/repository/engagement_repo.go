package repository

import (
	"context"
	"fmt"

	"skillenergy/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ListRepository stores a per-user set of courses. Carts and wishlists share it.
type ListRepository interface {
	Add(ctx context.Context, userID, courseID string) (bool, error)
	Items(ctx context.Context, userID string) ([]model.ListItem, error)
	Remove(ctx context.Context, userID, courseID string) (bool, error)
	Clear(ctx context.Context, userID string) error
	CourseIDs(ctx context.Context, userID string) ([]string, error)
}

type listRepo struct {
	pool  *pgxpool.Pool
	table string
}

func NewCartRepo(pool *pgxpool.Pool) ListRepository {
	return &listRepo{pool: pool, table: "cart_items"}
}

func NewWishlistRepo(pool *pgxpool.Pool) ListRepository {
	return &listRepo{pool: pool, table: "wishlist_items"}
}

// Add reports false when the course was already in the list.
func (r *listRepo) Add(ctx context.Context, userID, courseID string) (bool, error) {
	q := `INSERT INTO ` + r.table + ` (user_id, course_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	tag, err := r.pool.Exec(ctx, q, userID, courseID)
	if err != nil {
		return false, fmt.Errorf("add to %s: %w", r.table, translate(err))
	}
	return tag.RowsAffected() > 0, nil
}

func (r *listRepo) Items(ctx context.Context, userID string) ([]model.ListItem, error) {
	q := `
        SELECT i.course_id, c.title, c.price, c.thumbnail, i.added_at
        FROM ` + r.table + ` i
        JOIN courses c ON c.id = i.course_id
        WHERE i.user_id = $1
        ORDER BY i.added_at DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	out, err := collectAll[model.ListItem](rows, err)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.table, err)
	}
	return out, nil
}

func (r *listRepo) Remove(ctx context.Context, userID, courseID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM `+r.table+` WHERE user_id = $1 AND course_id = $2`, userID, courseID)
	if err != nil {
		return false, fmt.Errorf("remove from %s: %w", r.table, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *listRepo) Clear(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM `+r.table+` WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear %s: %w", r.table, err)
	}
	return nil
}

func (r *listRepo) CourseIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT course_id::text FROM `+r.table+` WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("list %s course ids: %w", r.table, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan %s course ids: %w", r.table, err)
	}
	return ids, nil
}

const ratingSelect = `
        SELECT r.id, r.user_id, COALESCE(u.name, '') AS user_name, r.course_id, r.rate, r.description,
               r.created_at, r.updated_at
        FROM ratings r
        LEFT JOIN users u ON u.id = r.user_id`

type RatingRepository interface {
	Create(ctx context.Context, rt *model.Rating) error
	GetByID(ctx context.Context, id string) (*model.Rating, error)
	List(ctx context.Context) ([]model.Rating, error)
	ListByCourse(ctx context.Context, courseID string) ([]model.Rating, error)
	Update(ctx context.Context, rt *model.Rating) error
	Delete(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int64, error)
}

type ratingRepo struct {
	pool *pgxpool.Pool
}

func NewRatingRepo(pool *pgxpool.Pool) RatingRepository {
	return &ratingRepo{pool: pool}
}

func (r *ratingRepo) Create(ctx context.Context, rt *model.Rating) error {
	const q = `
        INSERT INTO ratings (user_id, course_id, rate, description)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`
	if err := r.pool.QueryRow(ctx, q, rt.UserID, rt.CourseID, rt.Rate, rt.Description).Scan(&rt.ID, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
		return fmt.Errorf("insert rating: %w", translate(err))
	}
	return nil
}

func (r *ratingRepo) GetByID(ctx context.Context, id string) (*model.Rating, error) {
	rows, err := r.pool.Query(ctx, ratingSelect+` WHERE r.id = $1`, id)
	rt, err := collectOne[model.Rating](rows, err)
	if err != nil {
		return nil, fmt.Errorf("get rating %s: %w", id, err)
	}
	return rt, nil
}

func (r *ratingRepo) List(ctx context.Context) ([]model.Rating, error) {
	rows, err := r.pool.Query(ctx, ratingSelect+` ORDER BY r.created_at DESC`)
	out, err := collectAll[model.Rating](rows, err)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	return out, nil
}

func (r *ratingRepo) ListByCourse(ctx context.Context, courseID string) ([]model.Rating, error) {
	rows, err := r.pool.Query(ctx, ratingSelect+` WHERE r.course_id = $1 ORDER BY r.created_at DESC`, courseID)
	out, err := collectAll[model.Rating](rows, err)
	if err != nil {
		return nil, fmt.Errorf("list ratings of course %s: %w", courseID, err)
	}
	return out, nil
}

func (r *ratingRepo) Update(ctx context.Context, rt *model.Rating) error {
	const q = `UPDATE ratings SET rate = $2, description = $3, updated_at = NOW() WHERE id = $1 RETURNING updated_at`
	if err := r.pool.QueryRow(ctx, q, rt.ID, rt.Rate, rt.Description).Scan(&rt.UpdatedAt); err != nil {
		return fmt.Errorf("update rating %s: %w", rt.ID, err)
	}
	return nil
}

func (r *ratingRepo) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM ratings WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete rating %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ratingRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM ratings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count ratings: %w", err)
	}
	return n, nil
}

const reminderColumns = `id, user_id, name, time, frequency, created_at, updated_at`

type ReminderRepository interface {
	Create(ctx context.Context, rm *model.Reminder) error
	GetByID(ctx context.Context, id string) (*model.Reminder, error)
	ListByUser(ctx context.Context, userID string) ([]model.Reminder, error)
	Update(ctx context.Context, rm *model.Reminder) error
	Delete(ctx context.Context, id string) (bool, error)
}

type reminderRepo struct {
	pool *pgxpool.Pool
}

func NewReminderRepo(pool *pgxpool.Pool) ReminderRepository {
	return &reminderRepo{pool: pool}
}

func (r *reminderRepo) Create(ctx context.Context, rm *model.Reminder) error {
	const q = `INSERT INTO reminders (user_id, name, time, frequency) VALUES ($1, $2, $3, $4) RETURNING id, created_at, updated_at`
	if err := r.pool.QueryRow(ctx, q, rm.UserID, rm.Name, rm.Time, rm.Frequency).Scan(&rm.ID, &rm.CreatedAt, &rm.UpdatedAt); err != nil {
		return fmt.Errorf("insert reminder: %w", err)
	}
	return nil
}

func (r *reminderRepo) GetByID(ctx context.Context, id string) (*model.Reminder, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+reminderColumns+` FROM reminders WHERE id = $1`, id)
	rm, err := collectOne[model.Reminder](rows, err)
	if err != nil {
		return nil, fmt.Errorf("get reminder %s: %w", id, err)
	}
	return rm, nil
}

func (r *reminderRepo) ListByUser(ctx context.Context, userID string) ([]model.Reminder, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+reminderColumns+` FROM reminders WHERE user_id = $1 ORDER BY time`, userID)
	out, err := collectAll[model.Reminder](rows, err)
	if err != nil {
		return nil, fmt.Errorf("list reminders of user %s: %w", userID, err)
	}
	return out, nil
}

func (r *reminderRepo) Update(ctx context.Context, rm *model.Reminder) error {
	const q = `UPDATE reminders SET name = $2, time = $3, frequency = $4, updated_at = NOW() WHERE id = $1 RETURNING updated_at`
	if err := r.pool.QueryRow(ctx, q, rm.ID, rm.Name, rm.Time, rm.Frequency).Scan(&rm.UpdatedAt); err != nil {
		return fmt.Errorf("update reminder %s: %w", rm.ID, err)
	}
	return nil
}

func (r *reminderRepo) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reminders WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete reminder %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

package repository

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// testPool connects to TEST_DATABASE_URL and applies the schema. Fixtures use fresh
// names and ids so runs against the same database do not collide.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set, skip database integration test")
	}

	ctx := context.Background()
	pool, err := NewPool(ctx, dsn, 4)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, Migrate(ctx, pool))
	return pool
}

func insertID(t *testing.T, pool *pgxpool.Pool, q string, args ...any) string {
	t.Helper()
	var id string
	require.NoError(t, pool.QueryRow(context.Background(), q, args...).Scan(&id))
	return id
}

func seedUser(t *testing.T, pool *pgxpool.Pool) string {
	return insertID(t, pool, `INSERT INTO users (email, password_hash) VALUES ($1, 'hash') RETURNING id`,
		uuid.NewString()+"@example.com")
}

func seedPlan(t *testing.T, pool *pgxpool.Pool, price float64) string {
	return insertID(t, pool, `INSERT INTO premium_plans (plan_name, price, duration) VALUES ('Personal Plans', $1, 'Monthly') RETURNING id`,
		price)
}

func seedCategory(t *testing.T, pool *pgxpool.Pool) string {
	return insertID(t, pool, `INSERT INTO course_categories (name) VALUES ($1) RETURNING id`, "category-"+uuid.NewString())
}

func seedLanguage(t *testing.T, pool *pgxpool.Pool) string {
	return insertID(t, pool, `INSERT INTO languages (name) VALUES ($1) RETURNING id`, "language-"+uuid.NewString())
}

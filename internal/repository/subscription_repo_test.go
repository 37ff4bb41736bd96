package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"skillenergy/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentPurchaseAndDelete(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	payments := NewPaymentRepo(pool)
	users := NewUserRepo(pool)
	userID := seedUser(t, pool)
	planID := seedPlan(t, pool, 499)
	end := time.Now().Add(30 * 24 * time.Hour).UTC().Truncate(time.Second)

	p, err := payments.Purchase(ctx, userID, planID, func(u *model.User, plan *model.PremiumPlan) (*model.Payment, error) {
		require.NotNil(t, u)
		require.NotNil(t, plan)
		assert.False(t, u.IsSubscribed)
		return &model.Payment{
			UserID: u.ID, PlanID: plan.ID, Method: model.MethodUPI, UPIID: "ada@bank",
			PlanName: plan.Name, Price: plan.Price, Total: plan.Price, EndDate: end,
		}, nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)
	assert.Equal(t, 499.0, p.Total)

	u, err := users.GetByID(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, u.PlanID)
	assert.Equal(t, planID, *u.PlanID)
	require.NotNil(t, u.EndDate)
	assert.True(t, end.Equal(*u.EndDate))
	assert.True(t, u.IsSubscribed)

	deleted, err := payments.Delete(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, deleted)
	assert.Equal(t, p.ID, deleted.ID)

	u, err = users.GetByID(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, u.PlanID)
	assert.Nil(t, u.EndDate)
	assert.False(t, u.IsSubscribed)

	gone, err := payments.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	deleted, err = payments.Delete(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, deleted, "deleting twice finds nothing")
}

func TestPaymentPurchaseRejectedWritesNothing(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	payments := NewPaymentRepo(pool)
	users := NewUserRepo(pool)
	userID := seedUser(t, pool)
	planID := seedPlan(t, pool, 99)
	errRejected := errors.New("rejected")

	_, err := payments.Purchase(ctx, userID, planID, func(*model.User, *model.PremiumPlan) (*model.Payment, error) {
		return nil, errRejected
	})
	assert.ErrorIs(t, err, errRejected)

	var missingPlan bool
	_, err = payments.Purchase(ctx, userID, uuid.NewString(), func(u *model.User, plan *model.PremiumPlan) (*model.Payment, error) {
		missingPlan = u != nil && plan == nil
		return nil, errRejected
	})
	assert.ErrorIs(t, err, errRejected)
	assert.True(t, missingPlan, "an unknown plan reaches decide as nil")

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM payments WHERE user_id = $1`, userID).Scan(&count))
	assert.Zero(t, count)
	u, err := users.GetByID(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, u.PlanID)
	assert.False(t, u.IsSubscribed)
}

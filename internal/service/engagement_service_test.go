package service

import (
	"context"
	"testing"

	"skillenergy/internal/apperr"
	"skillenergy/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartAddRemoveClear(t *testing.T) {
	ctx := context.Background()
	svc := NewCartService(newFakeList(), newFakeCourses("c1", "c2"))

	items, err := svc.Add(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = svc.Add(ctx, "u1", "c1")
	assertKind(t, err, apperr.KindConflict, "Course already in cart.")

	_, err = svc.Add(ctx, "u1", "missing")
	assertKind(t, err, apperr.KindNotFound, "Course not found.")

	_, err = svc.Remove(ctx, "u1", "c2")
	assertKind(t, err, apperr.KindNotFound, "Course not found in cart.")

	items, err = svc.Remove(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = svc.Add(ctx, "u1", "c2")
	require.NoError(t, err)
	require.NoError(t, svc.Clear(ctx, "u1"))
	items, err = svc.Items(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestWishlistMessages(t *testing.T) {
	ctx := context.Background()
	svc := NewWishlistService(newFakeList(), newFakeCourses("c1"))
	_, err := svc.Add(ctx, "u1", "c1")
	require.NoError(t, err)
	_, err = svc.Add(ctx, "u1", "c1")
	assertKind(t, err, apperr.KindConflict, "Course already in wishlist.")
}

func TestSummarizeRatings(t *testing.T) {
	out := SummarizeRatings("c1", []model.Rating{{Rate: 5}, {Rate: 4}, {Rate: 4}})
	assert.Equal(t, 4.3, out.Average)
	assert.Equal(t, 3, out.Total)
	assert.Equal(t, map[int]int{1: 0, 2: 0, 3: 0, 4: 2, 5: 1}, out.StarCounts)

	empty := SummarizeRatings("c2", nil)
	assert.Equal(t, 0.0, empty.Average)
	assert.NotNil(t, empty.Ratings)
	assert.Len(t, empty.StarCounts, 5)
}

func TestRatingLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewRatingService(newFakeRatings(), newFakeCourses("c1"))

	_, err := svc.Add(ctx, "u1", "c1", 6, "")
	assertKind(t, err, apperr.KindValidation, "rate must be between 1 and 5")

	rt, err := svc.Add(ctx, "u1", "c1", 4, " solid ")
	require.NoError(t, err)
	assert.Equal(t, "solid", rt.Description)

	_, err = svc.Add(ctx, "u1", "c1", 5, "")
	assertKind(t, err, apperr.KindConflict, "You have already rated this course.")

	_, err = svc.Add(ctx, "u2", "missing", 5, "")
	assertKind(t, err, apperr.KindNotFound, "Course not found.")

	_, err = svc.Update(ctx, Actor{UserID: "u2"}, rt.ID, ptr(1), nil)
	assertKind(t, err, apperr.KindForbidden, "")

	updated, err := svc.Update(ctx, Actor{UserID: "u1"}, rt.ID, ptr(2), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Rate)
	assert.Equal(t, "solid", updated.Description)

	summary, err := svc.CourseRatings(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 2.0, summary.Average)

	assertKind(t, svc.Delete(ctx, Actor{UserID: "u2", IsAdmin: true}, rt.ID), apperr.KindForbidden, "")
	require.NoError(t, svc.Delete(ctx, Actor{UserID: "u1"}, rt.ID))
	_, err = svc.Get(ctx, rt.ID)
	assertKind(t, err, apperr.KindNotFound, "Rating not found.")
}

func TestNormalizeFrequency(t *testing.T) {
	tests := map[string]string{
		"Once":   model.FrequencyOnce,
		"daily":  model.FrequencyDaily,
		"Weekly": model.FrequencyWeekly,
		"Weakly": model.FrequencyWeekly,
	}
	for in, want := range tests {
		got, err := NormalizeFrequency(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := NormalizeFrequency("Hourly")
	assertKind(t, err, apperr.KindValidation, "frequency must be one of Once, Daily or Weekly")
}

func TestBillingOnePerUser(t *testing.T) {
	ctx := context.Background()
	svc := NewBillingService(newFakeBilling())

	_, err := svc.Create(ctx, "u1", "India", "")
	assertKind(t, err, apperr.KindValidation, "All fields are required")

	b, err := svc.Create(ctx, "u1", "India", "Goa")
	require.NoError(t, err)

	_, err = svc.Create(ctx, "u1", "India", "Kerala")
	assertKind(t, err, apperr.KindConflict, "You already have a billing address. Please update it instead.")

	_, err = svc.Get(ctx, Actor{UserID: "u2"}, b.ID)
	assertKind(t, err, apperr.KindForbidden, "Access denied. You are not allowed to view this billing address.")

	updated, err := svc.Update(ctx, Actor{UserID: "u1"}, b.ID, nil, ptr("Kerala"))
	require.NoError(t, err)
	assert.Equal(t, "India", updated.Country)
	assert.Equal(t, "Kerala", updated.State)

	mine, err := svc.Mine(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, b.ID, mine.ID)
}

package repository

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"skillenergy/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTaken = errors.New("video number or title taken")

// addVideo inserts a row the way the section service does: check, insert, re-sum.
func addVideo(ctx context.Context, repo SectionRepository, key model.SectionGroupKey, videoNo int, title string, seconds int) (*model.Section, error) {
	s := &model.Section{
		CourseID:     key.CourseID,
		SectionNo:    key.SectionNo,
		SectionTitle: "Basics",
		VideoNo:      videoNo,
		VideoTitle:   title,
		VideoTime:    seconds,
	}
	err := repo.WithGroupLock(ctx, []model.SectionGroupKey{key}, func(tx SectionTx) error {
		number, named, err := tx.FindConflicts(ctx, key, videoNo, title, "")
		if err != nil {
			return err
		}
		if number || named {
			return errTaken
		}
		if err := tx.Insert(ctx, s); err != nil {
			return err
		}
		s.TotalTime, err = tx.RecomputeTotal(ctx, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func TestSectionGroupTotals(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewSectionRepo(pool)
	key := model.SectionGroupKey{CourseID: uuid.NewString(), SectionNo: 1}

	a, err := addVideo(ctx, repo, key, 1, "Intro", 120)
	require.NoError(t, err)
	assert.Equal(t, 120, a.TotalTime)
	b, err := addVideo(ctx, repo, key, 2, "Setup", 180)
	require.NoError(t, err)
	assert.Equal(t, 300, b.TotalTime)

	stored, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 300, stored.TotalTime, "siblings share the group total")

	_, err = addVideo(ctx, repo, key, 2, "Other", 60)
	assert.ErrorIs(t, err, errTaken)
	_, err = addVideo(ctx, repo, key, 3, "Intro", 60)
	assert.ErrorIs(t, err, errTaken)

	rows, err := repo.ListByCourse(ctx, key.CourseID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, 300, r.TotalTime)
	}

	// another course with the same section number is a separate group
	other, err := addVideo(ctx, repo, model.SectionGroupKey{CourseID: uuid.NewString(), SectionNo: 1}, 1, "Intro", 45)
	require.NoError(t, err)
	assert.Equal(t, 45, other.TotalTime)
}

func TestSectionFindConflictsExcludesSelf(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewSectionRepo(pool)
	key := model.SectionGroupKey{CourseID: uuid.NewString(), SectionNo: 2}

	a, err := addVideo(ctx, repo, key, 1, "Intro", 10)
	require.NoError(t, err)
	b, err := addVideo(ctx, repo, key, 2, "Setup", 20)
	require.NoError(t, err)

	err = repo.WithGroupLock(ctx, []model.SectionGroupKey{key}, func(tx SectionTx) error {
		number, named, err := tx.FindConflicts(ctx, key, 2, "Setup", b.ID)
		require.NoError(t, err)
		assert.False(t, number)
		assert.False(t, named)

		number, named, err = tx.FindConflicts(ctx, key, 1, "Setup", b.ID)
		require.NoError(t, err)
		assert.True(t, number, "number 1 belongs to %s", a.ID)
		assert.False(t, named)
		return nil
	})
	require.NoError(t, err)
}

func TestSectionMoveUpdateAndDelete(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewSectionRepo(pool)
	from := model.SectionGroupKey{CourseID: uuid.NewString(), SectionNo: 1}
	to := model.SectionGroupKey{CourseID: from.CourseID, SectionNo: 2}

	a, err := addVideo(ctx, repo, from, 1, "Intro", 120)
	require.NoError(t, err)
	b, err := addVideo(ctx, repo, from, 2, "Setup", 180)
	require.NoError(t, err)
	_, err = addVideo(ctx, repo, to, 1, "Deep dive", 50)
	require.NoError(t, err)

	before := b.UpdatedAt
	b.SectionNo, b.VideoNo = to.SectionNo, 2
	err = repo.WithGroupLock(ctx, []model.SectionGroupKey{to, from}, func(tx SectionTx) error {
		if err := tx.Update(ctx, b); err != nil {
			return err
		}
		total, err := tx.RecomputeTotal(ctx, to)
		if err != nil {
			return err
		}
		b.TotalTime = total
		_, err = tx.RecomputeTotal(ctx, from)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 230, b.TotalTime)
	assert.True(t, b.UpdatedAt.After(before), "update refreshes updated_at")

	stored, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 120, stored.TotalTime)

	err = repo.WithGroupLock(ctx, []model.SectionGroupKey{from}, func(tx SectionTx) error {
		ok, err := tx.Delete(ctx, a.ID)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = tx.Delete(ctx, a.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		total, err := tx.RecomputeTotal(ctx, from)
		require.NoError(t, err)
		assert.Zero(t, total)
		return nil
	})
	require.NoError(t, err)

	missing, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestWithGroupLockRollsBack(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewSectionRepo(pool)
	key := model.SectionGroupKey{CourseID: uuid.NewString(), SectionNo: 1}

	s := &model.Section{CourseID: key.CourseID, SectionNo: 1, SectionTitle: "Basics", VideoNo: 1, VideoTitle: "Intro", VideoTime: 10}
	err := repo.WithGroupLock(ctx, []model.SectionGroupKey{key}, func(tx SectionTx) error {
		if err := tx.Insert(ctx, s); err != nil {
			return err
		}
		return errTaken
	})
	assert.ErrorIs(t, err, errTaken)

	rows, err := repo.ListByCourse(ctx, key.CourseID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestWithGroupLockSerializesGroup(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewSectionRepo(pool)
	key := model.SectionGroupKey{CourseID: uuid.NewString(), SectionNo: 4}

	held := make(chan struct{})
	release := make(chan struct{})
	first := make(chan error, 1)
	go func() {
		first <- repo.WithGroupLock(ctx, []model.SectionGroupKey{key}, func(SectionTx) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	// a different group is not blocked
	other := model.SectionGroupKey{CourseID: key.CourseID, SectionNo: 5}
	require.NoError(t, repo.WithGroupLock(ctx, []model.SectionGroupKey{other}, func(SectionTx) error { return nil }))

	var entered atomic.Bool
	second := make(chan error, 1)
	go func() {
		second <- repo.WithGroupLock(ctx, []model.SectionGroupKey{other, key}, func(SectionTx) error {
			entered.Store(true)
			return nil
		})
	}()
	time.Sleep(200 * time.Millisecond)
	assert.False(t, entered.Load(), "second transaction waits for the group lock")

	close(release)
	require.NoError(t, <-first)
	require.NoError(t, <-second)
	assert.True(t, entered.Load())
}

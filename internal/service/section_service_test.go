package service

import (
	"context"
	"slices"
	"testing"
	"time"

	"skillenergy/internal/apperr"
	"skillenergy/internal/model"
	"skillenergy/internal/storage"
	"skillenergy/internal/upload"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sectionFixture struct {
	svc      SectionService
	sections *fakeSections
	courses  *fakeCourses
	store    *storage.Memory
}

func newSectionFixture(t *testing.T) *sectionFixture {
	t.Helper()
	f := &sectionFixture{
		sections: newFakeSections(),
		courses:  newFakeCourses("c1", "c2"),
		store:    storage.NewMemory(),
	}
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f.svc = NewSectionService(f.sections, f.courses, f.store, tickingClock(start), zerolog.Nop())
	return f
}

func videoFile() *upload.File {
	return upload.FromBytes("video", "lesson.mp4", "video/mp4", []byte("frames"))
}

func videoInput(courseID, sectionNo, videoNo, title, videoTime string) VideoInput {
	return VideoInput{
		CourseID:     courseID,
		SectionNo:    sectionNo,
		SectionTitle: "Basics",
		VideoNo:      videoNo,
		VideoTitle:   title,
		VideoTime:    videoTime,
		Video:        videoFile(),
	}
}

func ptr[T any](v T) *T { return &v }

func assertKind(t *testing.T, err error, kind apperr.Kind, msg string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperr.KindOf(err), "unexpected kind for %v", err)
	if msg != "" {
		assert.Equal(t, msg, apperr.PublicMessage(err))
	}
}

func TestParseVideoTime(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "125", want: 125},
		{in: "125 sec", want: 125},
		{in: " 3m20s", want: 320},
		{in: "0", want: 0},
		{in: "sec", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVideoTime(tt.in)
			if tt.wantErr {
				assertKind(t, err, apperr.KindValidation, "Invalid format for video_time. Please provide a number.")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCreateVideoSumsGroupAndRejectsDuplicateNumber(t *testing.T) {
	f := newSectionFixture(t)
	ctx := context.Background()

	first, err := f.svc.CreateVideo(ctx, videoInput("c1", "1", "1", "Intro", "120 sec"))
	require.NoError(t, err)
	assert.Equal(t, 120, first.TotalTime)

	second, err := f.svc.CreateVideo(ctx, videoInput("c1", "1", "2", "Setup", "180"))
	require.NoError(t, err)
	assert.Equal(t, 300, second.TotalTime)
	assert.Equal(t, 300, f.sections.row(first.ID).TotalTime)

	_, err = f.svc.CreateVideo(ctx, videoInput("c1", "1", "1", "Another", "60"))
	assertKind(t, err, apperr.KindConflict, "A video with the same number already exists in this section.")

	assert.Equal(t, []int{300}, f.sections.groupTotals(model.SectionGroupKey{CourseID: "c1", SectionNo: 1}))
	assert.Len(t, f.store.Keys(), 2)
	assert.Len(t, f.store.Deleted(), 1, "rejected upload is removed")
}

func TestCreateVideoDuplicateMessages(t *testing.T) {
	f := newSectionFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateVideo(ctx, videoInput("c1", "1", "1", "Intro", "10"))
	require.NoError(t, err)

	_, err = f.svc.CreateVideo(ctx, videoInput("c1", "1", "2", "Intro", "10"))
	assertKind(t, err, apperr.KindConflict, "A video with the same title already exists in this section.")

	_, err = f.svc.CreateVideo(ctx, videoInput("c1", "1", "1", "Intro", "10"))
	assertKind(t, err, apperr.KindConflict, "A video with the same number and title already exists in this section.")

	// the same number in another section or course is fine
	_, err = f.svc.CreateVideo(ctx, videoInput("c1", "2", "1", "Intro", "10"))
	require.NoError(t, err)
	_, err = f.svc.CreateVideo(ctx, videoInput("c2", "1", "1", "Intro", "10"))
	require.NoError(t, err)
}

func TestCreateVideoValidation(t *testing.T) {
	f := newSectionFixture(t)
	ctx := context.Background()

	in := videoInput("c1", "1", "1", "Intro", "10")
	in.VideoTitle = ""
	_, err := f.svc.CreateVideo(ctx, in)
	assertKind(t, err, apperr.KindValidation, "Missing required fields: All fields are required")

	in = videoInput("c1", "1", "1", "Intro", "10")
	in.Video = nil
	_, err = f.svc.CreateVideo(ctx, in)
	assertKind(t, err, apperr.KindValidation, "Video file is missing. Please upload a video file.")

	_, err = f.svc.CreateVideo(ctx, videoInput("c1", "1", "1", "Intro", "sec"))
	assertKind(t, err, apperr.KindValidation, "Invalid format for video_time. Please provide a number.")

	_, err = f.svc.CreateVideo(ctx, videoInput("c1", "zero", "1", "Intro", "10"))
	assertKind(t, err, apperr.KindValidation, "sectionNo must be a positive integer")

	assert.Empty(t, f.store.Keys(), "every rejected upload is removed")
	assert.Len(t, f.store.Deleted(), 3)
}

func TestCreateVideoMissingCourseDiscardsUpload(t *testing.T) {
	f := newSectionFixture(t)
	_, err := f.svc.CreateVideo(context.Background(), videoInput("missing", "1", "1", "Intro", "10"))
	assertKind(t, err, apperr.KindNotFound, "Parent course not found")
	assert.Empty(t, f.store.Keys())
	assert.Len(t, f.store.Deleted(), 1)
}

func TestCreateVideoStoreFailureIsInternal(t *testing.T) {
	f := newSectionFixture(t)
	f.sections.insertErr = errBoom
	_, err := f.svc.CreateVideo(context.Background(), videoInput("c1", "1", "1", "Intro", "10"))
	assertKind(t, err, apperr.KindInternal, "Internal server error")
	assert.ErrorIs(t, err, errBoom)
	assert.Empty(t, f.store.Keys())

	f.sections.insertErr = nil
	f.store.PutErr = errBoom
	_, err = f.svc.CreateVideo(context.Background(), videoInput("c1", "1", "1", "Intro", "10"))
	assertKind(t, err, apperr.KindInternal, "")
}

func TestDeleteVideoRecomputesGroup(t *testing.T) {
	f := newSectionFixture(t)
	ctx := context.Background()
	a, err := f.svc.CreateVideo(ctx, videoInput("c1", "1", "1", "Intro", "120"))
	require.NoError(t, err)
	b, err := f.svc.CreateVideo(ctx, videoInput("c1", "1", "2", "Setup", "180"))
	require.NoError(t, err)

	deleted, err := f.svc.DeleteVideo(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, deleted.ID)
	assert.Equal(t, 120, f.sections.row(a.ID).TotalTime)
	assert.False(t, f.store.Has(b.VideoKey))

	_, err = f.svc.DeleteVideo(ctx, b.ID)
	assertKind(t, err, apperr.KindNotFound, "Section not found")
}

func TestUpdateVideoMoveRecomputesBothGroups(t *testing.T) {
	f := newSectionFixture(t)
	ctx := context.Background()
	a, err := f.svc.CreateVideo(ctx, videoInput("c1", "1", "1", "Intro", "120"))
	require.NoError(t, err)
	b, err := f.svc.CreateVideo(ctx, videoInput("c1", "1", "2", "Setup", "180"))
	require.NoError(t, err)
	c, err := f.svc.CreateVideo(ctx, videoInput("c1", "2", "1", "Deep dive", "50"))
	require.NoError(t, err)

	moved, err := f.svc.UpdateVideo(ctx, b.ID, VideoPatch{SectionNo: ptr("2"), VideoNo: ptr("2")})
	require.NoError(t, err)
	assert.Equal(t, 230, moved.TotalTime)
	assert.Equal(t, "Setup", moved.VideoTitle, "unset fields are kept")
	assert.Equal(t, 120, f.sections.row(a.ID).TotalTime)
	assert.Equal(t, 230, f.sections.row(c.ID).TotalTime)

	lastLock := f.sections.locked[len(f.sections.locked)-1]
	assert.Equal(t, []model.SectionGroupKey{{CourseID: "c1", SectionNo: 1}, {CourseID: "c1", SectionNo: 2}}, lastLock)
}

func TestUpdateVideoPatchTimeAndDuplicate(t *testing.T) {
	f := newSectionFixture(t)
	ctx := context.Background()
	a, err := f.svc.CreateVideo(ctx, videoInput("c1", "1", "1", "Intro", "120"))
	require.NoError(t, err)
	b, err := f.svc.CreateVideo(ctx, videoInput("c1", "1", "2", "Setup", "180"))
	require.NoError(t, err)

	updated, err := f.svc.UpdateVideo(ctx, a.ID, VideoPatch{VideoTime: ptr("20 sec")})
	require.NoError(t, err)
	assert.Equal(t, 200, updated.TotalTime)
	assert.Equal(t, 200, f.sections.row(b.ID).TotalTime)

	// keeping its own number and title is not a conflict
	_, err = f.svc.UpdateVideo(ctx, a.ID, VideoPatch{VideoNo: ptr("1"), VideoTitle: ptr("Intro")})
	require.NoError(t, err)

	_, err = f.svc.UpdateVideo(ctx, a.ID, VideoPatch{VideoNo: ptr("2")})
	assertKind(t, err, apperr.KindConflict, "A video with the same number already exists in this section.")
	assert.Equal(t, 1, f.sections.row(a.ID).VideoNo)

	_, err = f.svc.UpdateVideo(ctx, "missing", VideoPatch{VideoTime: ptr("1")})
	assertKind(t, err, apperr.KindNotFound, "Section not found")

	_, err = f.svc.UpdateVideo(ctx, a.ID, VideoPatch{CourseID: ptr("missing")})
	assertKind(t, err, apperr.KindNotFound, "Parent course not found")
}

func TestUpdateVideoRejectsStaleRead(t *testing.T) {
	f := newSectionFixture(t)
	ctx := context.Background()
	a, err := f.svc.CreateVideo(ctx, videoInput("c1", "1", "1", "Intro", "120"))
	require.NoError(t, err)

	// another writer changes the same row without leaving the group
	f.sections.onLock = func(rows map[string]*model.Section) {
		rows[a.ID].VideoTime = 90
		rows[a.ID].UpdatedAt = rows[a.ID].UpdatedAt.Add(time.Minute)
		f.sections.onLock = nil
	}
	_, err = f.svc.UpdateVideo(ctx, a.ID, VideoPatch{VideoTitle: ptr("Welcome")})
	assertKind(t, err, apperr.KindConflict, "Section was modified concurrently. Please retry.")
	stored := f.sections.row(a.ID)
	assert.Equal(t, 90, stored.VideoTime, "the concurrent write is kept")
	assert.Equal(t, "Intro", stored.VideoTitle)

	// a retry reads the new row and goes through
	updated, err := f.svc.UpdateVideo(ctx, a.ID, VideoPatch{VideoTitle: ptr("Welcome")})
	require.NoError(t, err)
	assert.Equal(t, 90, updated.VideoTime)
	assert.Equal(t, "Welcome", f.sections.row(a.ID).VideoTitle)
}

func TestUpdateVideoReplacesFile(t *testing.T) {
	f := newSectionFixture(t)
	ctx := context.Background()
	a, err := f.svc.CreateVideo(ctx, videoInput("c1", "1", "1", "Intro", "120"))
	require.NoError(t, err)

	updated, err := f.svc.UpdateVideo(ctx, a.ID, VideoPatch{Video: videoFile()})
	require.NoError(t, err)
	assert.NotEqual(t, a.VideoKey, updated.VideoKey)
	assert.True(t, f.store.Has(updated.VideoKey))
	assert.False(t, f.store.Has(a.VideoKey))

	// a rejected update keeps the stored file and drops the new one
	_, err = f.svc.UpdateVideo(ctx, a.ID, VideoPatch{VideoTitle: ptr(""), Video: videoFile()})
	assertKind(t, err, apperr.KindValidation, "")
	assert.Equal(t, []string{updated.VideoKey}, f.store.Keys())
}

func TestListBySectionGroupsAndSums(t *testing.T) {
	f := newSectionFixture(t)
	ctx := context.Background()
	for _, in := range []VideoInput{
		videoInput("c1", "2", "1", "Later", "30"),
		videoInput("c1", "1", "2", "Setup", "180"),
		videoInput("c1", "1", "1", "Intro", "120"),
	} {
		_, err := f.svc.CreateVideo(ctx, in)
		require.NoError(t, err)
	}

	groups, err := f.svc.ListBySection(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, 1, groups[0].SectionNo)
	assert.Equal(t, 300, groups[0].TotalTime)
	assert.Equal(t, []int{1, 2}, []int{groups[0].Videos[0].VideoNo, groups[0].Videos[1].VideoNo})
	assert.Equal(t, 30, groups[1].TotalTime)

	empty, err := f.svc.ListBySection(ctx, "c2")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGroupSectionsIsRestartable(t *testing.T) {
	rows := []model.Section{
		{ID: "b", SectionNo: 1, VideoNo: 2, VideoTime: 5},
		{ID: "a", SectionNo: 1, VideoNo: 1, VideoTime: 7},
		{ID: "c", SectionNo: 3, VideoNo: 1, VideoTime: 1},
	}
	seq := GroupSections(rows)
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, first, second)
	require.Len(t, first, 2)
	assert.Equal(t, 12, first[0].TotalTime)
	assert.Equal(t, "a", first[0].Videos[0].ID)
	assert.Equal(t, "b", rows[0].ID, "input is not reordered")

	for g := range seq {
		assert.Equal(t, 1, g.SectionNo)
		break
	}
}

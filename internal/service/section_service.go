package service

import (
	"context"
	"iter"
	"slices"
	"strconv"
	"strings"

	"skillenergy/internal/apperr"
	"skillenergy/internal/model"
	"skillenergy/internal/repository"
	"skillenergy/internal/storage"
	"skillenergy/internal/upload"

	"github.com/rs/zerolog"
)

// VideoInput carries the raw form values of a new section video.
type VideoInput struct {
	CourseID     string
	SectionNo    string
	SectionTitle string
	VideoNo      string
	VideoTitle   string
	VideoTime    string
	Video        *upload.File
}

// VideoPatch holds the fields an update provides. Nil fields keep their stored value.
type VideoPatch struct {
	CourseID     *string
	SectionNo    *string
	SectionTitle *string
	VideoNo      *string
	VideoTitle   *string
	VideoTime    *string
	Video        *upload.File
}

// SectionService keeps the per-group total_time equal to the sum of its video_time values
// and rejects duplicate videos within a group.
type SectionService interface {
	CreateVideo(ctx context.Context, in VideoInput) (*model.Section, error)
	GetVideo(ctx context.Context, id string) (*model.Section, error)
	UpdateVideo(ctx context.Context, id string, patch VideoPatch) (*model.Section, error)
	DeleteVideo(ctx context.Context, id string) (*model.Section, error)
	ListBySection(ctx context.Context, courseID string) ([]model.SectionGroup, error)
	Groups(ctx context.Context, courseID string) (iter.Seq[model.SectionGroup], error)
}

type sectionService struct {
	sections repository.SectionRepository
	courses  repository.CourseRepository
	assets   *assets
	log      zerolog.Logger
}

func NewSectionService(
	sections repository.SectionRepository,
	courses repository.CourseRepository,
	store storage.Store,
	now Clock,
	logger zerolog.Logger,
) SectionService {
	log := logger.With().Str("service", "SectionService").Logger()
	return &sectionService{
		sections: sections,
		courses:  courses,
		assets:   newAssets(store, now, log),
		log:      log,
	}
}

// ParseVideoTime strips every non-digit and parses what is left, so "125 sec" is 125.
func ParseVideoTime(raw string) (int, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, apperr.Validation("Invalid format for video_time. Please provide a number.")
	}
	return n, nil
}

func parsePositive(field, raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0, apperr.Validationf("%s must be a positive integer", field)
	}
	return n, nil
}

func (s *sectionService) CreateVideo(ctx context.Context, in VideoInput) (_ *model.Section, err error) {
	asset, err := s.assets.save(ctx, in.Video)
	if err != nil {
		return nil, err
	}
	defer s.assets.discardOnError(ctx, asset, &err)

	if in.CourseID == "" || in.SectionNo == "" || in.SectionTitle == "" || in.VideoNo == "" || in.VideoTitle == "" || in.VideoTime == "" {
		return nil, apperr.Validation("Missing required fields: All fields are required")
	}
	if asset == nil {
		return nil, apperr.Validation("Video file is missing. Please upload a video file.")
	}

	row := &model.Section{
		CourseID:     in.CourseID,
		SectionTitle: in.SectionTitle,
		VideoTitle:   in.VideoTitle,
		Video:        asset.URL,
		VideoKey:     asset.Key,
	}
	if row.SectionNo, err = parsePositive("sectionNo", in.SectionNo); err != nil {
		return nil, err
	}
	if row.VideoNo, err = parsePositive("videoNo", in.VideoNo); err != nil {
		return nil, err
	}
	if row.VideoTime, err = ParseVideoTime(in.VideoTime); err != nil {
		return nil, err
	}
	if err = s.requireCourse(ctx, row.CourseID); err != nil {
		return nil, err
	}

	key := row.Group()
	err = s.sections.WithGroupLock(ctx, []model.SectionGroupKey{key}, func(tx repository.SectionTx) error {
		if err := checkDuplicates(ctx, tx, key, row.VideoNo, row.VideoTitle, ""); err != nil {
			return err
		}
		if err := tx.Insert(ctx, row); err != nil {
			return apperr.Wrap(err, "insert section video")
		}
		total, err := tx.RecomputeTotal(ctx, key)
		if err != nil {
			return apperr.Wrap(err, "recompute section total")
		}
		row.TotalTime = total
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("section_id", row.ID).Str("course_id", row.CourseID).Int("section_no", row.SectionNo).Int("total_time", row.TotalTime).Msg("Section video created")
	return row, nil
}

func (s *sectionService) GetVideo(ctx context.Context, id string) (*model.Section, error) {
	row, err := s.sections.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "load section")
	}
	if row == nil {
		return nil, apperr.NotFound("Section not found")
	}
	return row, nil
}

// UpdateVideo applies patch with PATCH semantics. When the row moves to another group,
// both the group it left and the group it joined are re-summed.
func (s *sectionService) UpdateVideo(ctx context.Context, id string, patch VideoPatch) (_ *model.Section, err error) {
	asset, err := s.assets.save(ctx, patch.Video)
	if err != nil {
		return nil, err
	}
	defer s.assets.discardOnError(ctx, asset, &err)

	current, err := s.GetVideo(ctx, id)
	if err != nil {
		return nil, err
	}

	next := *current
	if patch.CourseID != nil && *patch.CourseID != current.CourseID {
		if err = s.requireCourse(ctx, *patch.CourseID); err != nil {
			return nil, err
		}
		next.CourseID = *patch.CourseID
	}
	if patch.SectionNo != nil {
		if next.SectionNo, err = parsePositive("sectionNo", *patch.SectionNo); err != nil {
			return nil, err
		}
	}
	if patch.VideoNo != nil {
		if next.VideoNo, err = parsePositive("videoNo", *patch.VideoNo); err != nil {
			return nil, err
		}
	}
	if patch.VideoTime != nil {
		if next.VideoTime, err = ParseVideoTime(*patch.VideoTime); err != nil {
			return nil, err
		}
	}
	if patch.SectionTitle != nil {
		next.SectionTitle = *patch.SectionTitle
	}
	if patch.VideoTitle != nil {
		next.VideoTitle = *patch.VideoTitle
	}
	if next.SectionTitle == "" || next.VideoTitle == "" {
		return nil, apperr.Validation("section_title and video_title cannot be empty")
	}
	if asset != nil {
		next.Video, next.VideoKey = asset.URL, asset.Key
	}

	oldKey, newKey := current.Group(), next.Group()
	identityChanged := oldKey != newKey || next.VideoNo != current.VideoNo || next.VideoTitle != current.VideoTitle

	err = s.sections.WithGroupLock(ctx, []model.SectionGroupKey{oldKey, newKey}, func(tx repository.SectionTx) error {
		locked, err := tx.GetByID(ctx, id)
		if err != nil {
			return apperr.Wrap(err, "reload section")
		}
		if locked == nil {
			return apperr.NotFound("Section not found")
		}
		// next was built from a read taken before the lock
		if locked.Group() != oldKey || !locked.UpdatedAt.Equal(current.UpdatedAt) {
			return apperr.Conflict("Section was modified concurrently. Please retry.")
		}
		if identityChanged {
			if err := checkDuplicates(ctx, tx, newKey, next.VideoNo, next.VideoTitle, id); err != nil {
				return err
			}
		}
		if err := tx.Update(ctx, &next); err != nil {
			return apperr.Wrap(err, "update section video")
		}
		total, err := tx.RecomputeTotal(ctx, newKey)
		if err != nil {
			return apperr.Wrap(err, "recompute section total")
		}
		next.TotalTime = total
		if oldKey != newKey {
			if _, err := tx.RecomputeTotal(ctx, oldKey); err != nil {
				return apperr.Wrap(err, "recompute previous section total")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if asset != nil && current.VideoKey != "" && current.VideoKey != asset.Key {
		s.assets.discard(ctx, current.VideoKey)
	}
	return &next, nil
}

// DeleteVideo removes the row and re-sums the group it belonged to.
func (s *sectionService) DeleteVideo(ctx context.Context, id string) (*model.Section, error) {
	current, err := s.GetVideo(ctx, id)
	if err != nil {
		return nil, err
	}

	key := current.Group()
	err = s.sections.WithGroupLock(ctx, []model.SectionGroupKey{key}, func(tx repository.SectionTx) error {
		deleted, err := tx.Delete(ctx, id)
		if err != nil {
			return apperr.Wrap(err, "delete section video")
		}
		if !deleted {
			return apperr.NotFound("Section not found")
		}
		if _, err := tx.RecomputeTotal(ctx, key); err != nil {
			return apperr.Wrap(err, "recompute section total")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.assets.discard(ctx, current.VideoKey)
	return current, nil
}

func (s *sectionService) ListBySection(ctx context.Context, courseID string) ([]model.SectionGroup, error) {
	groups, err := s.Groups(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return slices.Collect(groups), nil
}

// Groups loads the rows of a course once and returns a sequence that can be ranged over
// any number of times.
func (s *sectionService) Groups(ctx context.Context, courseID string) (iter.Seq[model.SectionGroup], error) {
	rows, err := s.sections.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, apperr.Wrap(err, "list sections")
	}
	return GroupSections(rows), nil
}

// GroupSections yields one group per sectionNo, in ascending order, with videos ordered by videoNo.
// Each group's total is summed from the rows it yields.
func GroupSections(rows []model.Section) iter.Seq[model.SectionGroup] {
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b model.Section) int {
		if a.SectionNo != b.SectionNo {
			return a.SectionNo - b.SectionNo
		}
		return a.VideoNo - b.VideoNo
	})

	return func(yield func(model.SectionGroup) bool) {
		for i := 0; i < len(sorted); {
			g := model.SectionGroup{SectionNo: sorted[i].SectionNo, SectionTitle: sorted[i].SectionTitle, Videos: []model.SectionVideo{}}
			j := i
			for ; j < len(sorted) && sorted[j].SectionNo == g.SectionNo; j++ {
				v := sorted[j]
				g.TotalTime += v.VideoTime
				g.Videos = append(g.Videos, model.SectionVideo{ID: v.ID, VideoNo: v.VideoNo, VideoTitle: v.VideoTitle, VideoTime: v.VideoTime, Video: v.Video})
			}
			if !yield(g) {
				return
			}
			i = j
		}
	}
}

func (s *sectionService) requireCourse(ctx context.Context, courseID string) error {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return apperr.Wrap(err, "load parent course")
	}
	if course == nil {
		return apperr.NotFound("Parent course not found")
	}
	return nil
}

func checkDuplicates(ctx context.Context, tx repository.SectionTx, key model.SectionGroupKey, videoNo int, title, excludeID string) error {
	numberTaken, titleTaken, err := tx.FindConflicts(ctx, key, videoNo, title, excludeID)
	if err != nil {
		return apperr.Wrap(err, "check section duplicates")
	}
	var what string
	switch {
	case numberTaken && titleTaken:
		what = "number and title"
	case numberTaken:
		what = "number"
	case titleTaken:
		what = "title"
	default:
		return nil
	}
	return apperr.Conflict("A video with the same " + what + " already exists in this section.")
}

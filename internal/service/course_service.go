package service

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"skillenergy/internal/apperr"
	"skillenergy/internal/model"
	"skillenergy/internal/repository"
	"skillenergy/internal/storage"
	"skillenergy/internal/upload"

	"github.com/rs/zerolog"
)

// CourseFields holds course form values. On create the required fields must be set;
// on update nil fields keep their stored value.
type CourseFields struct {
	CategoryID       *string
	LanguageID       *string
	Title            *string
	ShortDescription *string
	LongDescription  *string
	Language         *string
	CC               *string
	Price            *string
	WhatAreLearn     *string
	Thumbnail        *upload.File
}

// CourseService defines the interface for course operations
type CourseService interface {
	Create(ctx context.Context, in CourseFields) (*model.Course, error)
	// Get returns a course to admins and to users who purchased it.
	Get(ctx context.Context, actor Actor, id string) (*model.Course, error)
	List(ctx context.Context) ([]model.Course, error)
	Update(ctx context.Context, id string, patch CourseFields) (*model.Course, error)
	Delete(ctx context.Context, id string) error
	// Filter lists course summaries and marks the ones in userID's wishlist.
	Filter(ctx context.Context, userID string, f model.CourseFilter) ([]model.CourseSummary, error)
}

type courseService struct {
	courses    repository.CourseRepository
	categories repository.CategoryRepository
	languages  repository.LanguageRepository
	wishlist   repository.ListRepository
	assets     *assets
	log        zerolog.Logger
}

// NewCourseService creates a new CourseService
func NewCourseService(
	courses repository.CourseRepository,
	categories repository.CategoryRepository,
	languages repository.LanguageRepository,
	wishlist repository.ListRepository,
	store storage.Store,
	now Clock,
	logger zerolog.Logger,
) CourseService {
	log := logger.With().Str("service", "CourseService").Logger()
	return &courseService{
		courses:    courses,
		categories: categories,
		languages:  languages,
		wishlist:   wishlist,
		assets:     newAssets(store, now, log),
		log:        log,
	}
}

// ParseLearnList accepts a JSON array of strings or a comma-separated list.
func ParseLearnList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err == nil {
		return items
	}
	parts := strings.Split(raw, ",")
	items = make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			items = append(items, p)
		}
	}
	return items
}

func parsePrice(raw string) (float64, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || price < 0 {
		return 0, apperr.Validation("price must be a non-negative number")
	}
	return price, nil
}

func value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func (s *courseService) Create(ctx context.Context, in CourseFields) (_ *model.Course, err error) {
	asset, err := s.assets.save(ctx, in.Thumbnail)
	if err != nil {
		return nil, err
	}
	defer s.assets.discardOnError(ctx, asset, &err)

	if value(in.Title) == "" || value(in.ShortDescription) == "" || value(in.Price) == "" || value(in.CategoryID) == "" || value(in.LanguageID) == "" {
		return nil, apperr.Validation("Missing required fields: courseCategoryId, course_languageId, video_title, short_description, and price are required")
	}
	c := &model.Course{
		CategoryID:       *in.CategoryID,
		LanguageID:       *in.LanguageID,
		Title:            strings.TrimSpace(*in.Title),
		ShortDescription: *in.ShortDescription,
		LongDescription:  value(in.LongDescription),
		Language:         value(in.Language),
		CC:               value(in.CC),
		WhatAreLearn:     ParseLearnList(value(in.WhatAreLearn)),
	}
	if c.Price, err = parsePrice(*in.Price); err != nil {
		return nil, err
	}
	if err = s.requireRefs(ctx, c.CategoryID, c.LanguageID); err != nil {
		return nil, err
	}
	existing, err := s.courses.GetByTitle(ctx, c.Title)
	if err != nil {
		return nil, apperr.Wrap(err, "lookup course by title")
	}
	if existing != nil {
		return nil, apperr.Conflict("A course with this name (video_title) already exists.")
	}
	if asset != nil {
		c.Thumbnail, c.ThumbnailKey = asset.URL, asset.Key
	}
	if err = s.courses.Create(ctx, c); err != nil {
		return nil, conflictOr(err, "A course with this name (video_title) already exists.", "create course")
	}
	s.log.Info().Str("course_id", c.ID).Msg("Course created")
	return c, nil
}

func (s *courseService) load(ctx context.Context, id string) (*model.Course, error) {
	c, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "load course")
	}
	if c == nil {
		return nil, apperr.NotFound("Course not found")
	}
	return c, nil
}

func (s *courseService) Get(ctx context.Context, actor Actor, id string) (*model.Course, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin {
		return c, nil
	}
	purchased, err := s.courses.HasPurchaser(ctx, id, actor.UserID)
	if err != nil {
		return nil, apperr.Wrap(err, "check course purchase")
	}
	if !purchased {
		return nil, apperr.Forbidden("Purchase this course to view it")
	}
	return c, nil
}

func (s *courseService) List(ctx context.Context) ([]model.Course, error) {
	out, err := s.courses.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(err, "list courses")
	}
	return out, nil
}

func (s *courseService) Update(ctx context.Context, id string, patch CourseFields) (_ *model.Course, err error) {
	asset, err := s.assets.save(ctx, patch.Thumbnail)
	if err != nil {
		return nil, err
	}
	defer s.assets.discardOnError(ctx, asset, &err)

	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	oldKey := c.ThumbnailKey

	categoryID, languageID := c.CategoryID, c.LanguageID
	if patch.CategoryID != nil {
		categoryID = *patch.CategoryID
	}
	if patch.LanguageID != nil {
		languageID = *patch.LanguageID
	}
	if categoryID != c.CategoryID || languageID != c.LanguageID {
		if err = s.requireRefs(ctx, categoryID, languageID); err != nil {
			return nil, err
		}
	}
	c.CategoryID, c.LanguageID = categoryID, languageID

	if patch.Title != nil {
		c.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.ShortDescription != nil {
		c.ShortDescription = *patch.ShortDescription
	}
	if patch.LongDescription != nil {
		c.LongDescription = *patch.LongDescription
	}
	if patch.Language != nil {
		c.Language = *patch.Language
	}
	if patch.CC != nil {
		c.CC = *patch.CC
	}
	if patch.Price != nil {
		if c.Price, err = parsePrice(*patch.Price); err != nil {
			return nil, err
		}
	}
	if patch.WhatAreLearn != nil {
		c.WhatAreLearn = ParseLearnList(*patch.WhatAreLearn)
	}
	if c.Title == "" {
		return nil, apperr.Validation("video_title cannot be empty")
	}
	if asset != nil {
		c.Thumbnail, c.ThumbnailKey = asset.URL, asset.Key
	}
	if err = s.courses.Update(ctx, c); err != nil {
		return nil, conflictOr(err, "A course with this name (video_title) already exists.", "update course")
	}
	if asset != nil {
		s.assets.discard(ctx, oldKey)
	}
	return c, nil
}

func (s *courseService) Delete(ctx context.Context, id string) error {
	c, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	deleted, err := s.courses.Delete(ctx, id)
	if err != nil {
		return inUseOr(err, "Course is still referenced and cannot be deleted", "delete course")
	}
	if !deleted {
		return apperr.NotFound("Course not found")
	}
	s.assets.discard(ctx, c.ThumbnailKey)
	s.log.Info().Str("course_id", id).Msg("Course deleted")
	return nil
}

func (s *courseService) Filter(ctx context.Context, userID string, f model.CourseFilter) ([]model.CourseSummary, error) {
	switch f.SortBy {
	case "", "newest", "popular", "ratings":
	default:
		return nil, apperr.Validation("sortBy must be one of newest, popular or ratings")
	}
	courses, err := s.courses.Summaries(ctx, f)
	if err != nil {
		return nil, apperr.Wrap(err, "filter courses")
	}
	if userID == "" || len(courses) == 0 {
		return courses, nil
	}
	ids, err := s.wishlist.CourseIDs(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(err, "load wishlist")
	}
	wished := make(map[string]bool, len(ids))
	for _, id := range ids {
		wished[id] = true
	}
	for i := range courses {
		courses[i].IsWishlisted = wished[courses[i].ID]
	}
	return courses, nil
}

func (s *courseService) requireRefs(ctx context.Context, categoryID, languageID string) error {
	cat, err := s.categories.GetByID(ctx, categoryID)
	if err != nil {
		return apperr.Wrap(err, "load category")
	}
	if cat == nil {
		return apperr.NotFound("Course category not found")
	}
	lang, err := s.languages.GetByID(ctx, languageID)
	if err != nil {
		return apperr.Wrap(err, "load language")
	}
	if lang == nil {
		return apperr.NotFound("course_language not found")
	}
	return nil
}

// CoursePaymentService records single-course purchases.
type CoursePaymentService interface {
	Purchase(ctx context.Context, userID, courseID, transactionID string) (*model.CoursePayment, error)
	Get(ctx context.Context, actor Actor, id string) (*model.CoursePayment, error)
	List(ctx context.Context) ([]model.CoursePayment, error)
}

type coursePaymentService struct {
	payments repository.CoursePaymentRepository
	courses  repository.CourseRepository
	log      zerolog.Logger
}

func NewCoursePaymentService(payments repository.CoursePaymentRepository, courses repository.CourseRepository, logger zerolog.Logger) CoursePaymentService {
	return &coursePaymentService{
		payments: payments,
		courses:  courses,
		log:      logger.With().Str("service", "CoursePaymentService").Logger(),
	}
}

// Purchase captures the course price at purchase time and adds the buyer to its purchasers.
func (s *coursePaymentService) Purchase(ctx context.Context, userID, courseID, transactionID string) (*model.CoursePayment, error) {
	if courseID == "" || transactionID == "" {
		return nil, apperr.Validation("courseId and transactionId are required")
	}
	c, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, apperr.Wrap(err, "load course")
	}
	if c == nil {
		return nil, apperr.NotFound("Course not found")
	}
	purchased, err := s.courses.HasPurchaser(ctx, courseID, userID)
	if err != nil {
		return nil, apperr.Wrap(err, "check course purchase")
	}
	if purchased {
		return nil, apperr.Conflict("You have already purchased this course.")
	}
	p := &model.CoursePayment{TransactionID: transactionID, CourseID: courseID, UserID: userID, Price: c.Price}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, conflictOr(err, "You have already purchased this course.", "create course payment")
	}
	s.log.Info().Str("course_payment_id", p.ID).Str("course_id", courseID).Str("user_id", userID).Msg("Course purchased")
	return p, nil
}

func (s *coursePaymentService) Get(ctx context.Context, actor Actor, id string) (*model.CoursePayment, error) {
	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "load course payment")
	}
	if p == nil {
		return nil, apperr.NotFound("Course payment not found")
	}
	if !actor.owns(p.UserID) {
		return nil, apperr.Forbidden("Access denied. You can only access your own payment records.")
	}
	return p, nil
}

func (s *coursePaymentService) List(ctx context.Context) ([]model.CoursePayment, error) {
	out, err := s.payments.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(err, "list course payments")
	}
	return out, nil
}

package service

import (
	"context"
	"slices"
	"strings"

	"skillenergy/internal/apperr"
	"skillenergy/internal/model"
	"skillenergy/internal/repository"
	"skillenergy/internal/storage"
	"skillenergy/internal/upload"

	"github.com/rs/zerolog"
)

type CategoryService interface {
	Create(ctx context.Context, name string) (*model.CourseCategory, error)
	Get(ctx context.Context, id string) (*model.CourseCategory, error)
	List(ctx context.Context) ([]model.CourseCategory, error)
	Update(ctx context.Context, id, name string) (*model.CourseCategory, error)
	Delete(ctx context.Context, id string) error
}

type categoryService struct {
	categories repository.CategoryRepository
}

func NewCategoryService(categories repository.CategoryRepository) CategoryService {
	return &categoryService{categories: categories}
}

const categoryExists = "Course category already exists"

func (s *categoryService) Create(ctx context.Context, name string) (*model.CourseCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("courseCategoryName is required")
	}
	existing, err := s.categories.GetByName(ctx, name)
	if err != nil {
		return nil, apperr.Wrap(err, "lookup category")
	}
	if existing != nil {
		return nil, apperr.Conflict(categoryExists)
	}
	c := &model.CourseCategory{Name: name}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, conflictOr(err, categoryExists, "create category")
	}
	return c, nil
}

func (s *categoryService) Get(ctx context.Context, id string) (*model.CourseCategory, error) {
	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "load category")
	}
	if c == nil {
		return nil, apperr.NotFound("Course category not found")
	}
	return c, nil
}

func (s *categoryService) List(ctx context.Context) ([]model.CourseCategory, error) {
	out, err := s.categories.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(err, "list categories")
	}
	return out, nil
}

func (s *categoryService) Update(ctx context.Context, id, name string) (*model.CourseCategory, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if name = strings.TrimSpace(name); name == "" {
		return nil, apperr.Validation("courseCategoryName is required")
	}
	c.Name = name
	if err := s.categories.Update(ctx, c); err != nil {
		return nil, conflictOr(err, categoryExists, "update category")
	}
	return c, nil
}

func (s *categoryService) Delete(ctx context.Context, id string) error {
	deleted, err := s.categories.Delete(ctx, id)
	if err != nil {
		return inUseOr(err, "Course category is used by a course and cannot be deleted", "delete category")
	}
	if !deleted {
		return apperr.NotFound("Course category not found")
	}
	return nil
}

type LanguageService interface {
	Create(ctx context.Context, name string, thumbnail *upload.File) (*model.Language, error)
	Get(ctx context.Context, id string) (*model.Language, error)
	List(ctx context.Context) ([]model.Language, error)
	Update(ctx context.Context, id string, name *string, thumbnail *upload.File) (*model.Language, error)
	Delete(ctx context.Context, id string) error
}

type languageService struct {
	languages repository.LanguageRepository
	assets    *assets
}

func NewLanguageService(languages repository.LanguageRepository, store storage.Store, now Clock, logger zerolog.Logger) LanguageService {
	log := logger.With().Str("service", "LanguageService").Logger()
	return &languageService{languages: languages, assets: newAssets(store, now, log)}
}

const languageExists = "Language already exists"

func (s *languageService) Create(ctx context.Context, name string, thumbnail *upload.File) (_ *model.Language, err error) {
	asset, err := s.assets.save(ctx, thumbnail)
	if err != nil {
		return nil, err
	}
	defer s.assets.discardOnError(ctx, asset, &err)

	if name = strings.TrimSpace(name); name == "" {
		return nil, apperr.Validation("language is required")
	}
	existing, err := s.languages.GetByName(ctx, name)
	if err != nil {
		return nil, apperr.Wrap(err, "lookup language")
	}
	if existing != nil {
		return nil, apperr.Conflict(languageExists)
	}
	l := &model.Language{Name: name}
	if asset != nil {
		l.Thumbnail, l.ThumbnailKey = asset.URL, asset.Key
	}
	if err = s.languages.Create(ctx, l); err != nil {
		return nil, conflictOr(err, languageExists, "create language")
	}
	return l, nil
}

func (s *languageService) Get(ctx context.Context, id string) (*model.Language, error) {
	l, err := s.languages.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "load language")
	}
	if l == nil {
		return nil, apperr.NotFound("Language not found")
	}
	return l, nil
}

func (s *languageService) List(ctx context.Context) ([]model.Language, error) {
	out, err := s.languages.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(err, "list languages")
	}
	return out, nil
}

func (s *languageService) Update(ctx context.Context, id string, name *string, thumbnail *upload.File) (_ *model.Language, err error) {
	asset, err := s.assets.save(ctx, thumbnail)
	if err != nil {
		return nil, err
	}
	defer s.assets.discardOnError(ctx, asset, &err)

	l, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	oldKey := l.ThumbnailKey
	if name != nil {
		if l.Name = strings.TrimSpace(*name); l.Name == "" {
			return nil, apperr.Validation("language cannot be empty")
		}
	}
	if asset != nil {
		l.Thumbnail, l.ThumbnailKey = asset.URL, asset.Key
	}
	if err = s.languages.Update(ctx, l); err != nil {
		return nil, conflictOr(err, languageExists, "update language")
	}
	if asset != nil {
		s.assets.discard(ctx, oldKey)
	}
	return l, nil
}

func (s *languageService) Delete(ctx context.Context, id string) error {
	l, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	deleted, err := s.languages.Delete(ctx, id)
	if err != nil {
		return inUseOr(err, "Language is used by a course and cannot be deleted", "delete language")
	}
	if !deleted {
		return apperr.NotFound("Language not found")
	}
	s.assets.discard(ctx, l.ThumbnailKey)
	return nil
}

// PlanFields holds premium plan values. Nil fields keep their stored value on update.
type PlanFields struct {
	Name        *string
	Price       *float64
	Description *[]string
	Duration    *string
	IsActive    *bool
}

type PlanService interface {
	Create(ctx context.Context, in PlanFields) (*model.PremiumPlan, error)
	Get(ctx context.Context, id string) (*model.PremiumPlan, error)
	List(ctx context.Context) ([]model.PremiumPlan, error)
	Update(ctx context.Context, id string, patch PlanFields) (*model.PremiumPlan, error)
	Delete(ctx context.Context, id string) error
}

type planService struct {
	plans repository.PlanRepository
}

func NewPlanService(plans repository.PlanRepository) PlanService {
	return &planService{plans: plans}
}

var (
	planNames     = []string{model.PlanPersonal, model.PlanTeam, model.PlanEnterprise}
	planDurations = []string{model.DurationWeekly, model.DurationMonthly, model.DurationYearly}
)

func validatePlan(p *model.PremiumPlan) error {
	if !slices.Contains(planNames, p.Name) {
		return apperr.Validation("plan_name must be one of Personal Plans, Team Plans or Enterprise Plan")
	}
	if !slices.Contains(planDurations, p.Duration) {
		return apperr.Validation("duration must be one of Weekly, Monthly or Yearly")
	}
	if p.Price < 0 {
		return apperr.Validation("price must be a non-negative number")
	}
	return nil
}

func (p PlanFields) apply(plan *model.PremiumPlan) {
	if p.Name != nil {
		plan.Name = *p.Name
	}
	if p.Price != nil {
		plan.Price = *p.Price
	}
	if p.Description != nil {
		plan.Description = *p.Description
	}
	if p.Duration != nil {
		plan.Duration = *p.Duration
	}
	if p.IsActive != nil {
		plan.IsActive = *p.IsActive
	}
}

func (s *planService) Create(ctx context.Context, in PlanFields) (*model.PremiumPlan, error) {
	if in.Name == nil || in.Price == nil || in.Duration == nil {
		return nil, apperr.Validation("plan_name, price and duration are required")
	}
	p := &model.PremiumPlan{Description: []string{}, IsActive: true}
	in.apply(p)
	if err := validatePlan(p); err != nil {
		return nil, err
	}
	if err := s.plans.Create(ctx, p); err != nil {
		return nil, apperr.Wrap(err, "create plan")
	}
	return p, nil
}

func (s *planService) Get(ctx context.Context, id string) (*model.PremiumPlan, error) {
	p, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "load plan")
	}
	if p == nil {
		return nil, apperr.NotFound("Premium plan not found.")
	}
	return p, nil
}

func (s *planService) List(ctx context.Context) ([]model.PremiumPlan, error) {
	out, err := s.plans.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(err, "list plans")
	}
	return out, nil
}

// Update never touches existing payments, which keep the price they were bought at.
func (s *planService) Update(ctx context.Context, id string, patch PlanFields) (*model.PremiumPlan, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.apply(p)
	if err := validatePlan(p); err != nil {
		return nil, err
	}
	if err := s.plans.Update(ctx, p); err != nil {
		return nil, apperr.Wrap(err, "update plan")
	}
	return p, nil
}

func (s *planService) Delete(ctx context.Context, id string) error {
	deleted, err := s.plans.Delete(ctx, id)
	if err != nil {
		return inUseOr(err, "Premium plan has payments and cannot be deleted", "delete plan")
	}
	if !deleted {
		return apperr.NotFound("Premium plan not found.")
	}
	return nil
}

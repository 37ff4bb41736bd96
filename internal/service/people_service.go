package service

import (
	"context"
	"strings"

	"skillenergy/internal/apperr"
	"skillenergy/internal/model"
	"skillenergy/internal/repository"
	"skillenergy/internal/storage"
	"skillenergy/internal/upload"

	"github.com/rs/zerolog"
)

// ProfileFields are the shared fields of mentors and companies.
type ProfileFields struct {
	Name      *string
	Status    *string
	CourseIDs *[]string
	Image     *upload.File
}

func normalizeStatus(status string) (string, error) {
	switch s := strings.ToLower(strings.TrimSpace(status)); s {
	case "":
		return model.StatusActive, nil
	case model.StatusActive, model.StatusInactive:
		return s, nil
	default:
		return "", apperr.Validation("status must be active or inactive")
	}
}

type MentorService interface {
	Create(ctx context.Context, in ProfileFields) (*model.Mentor, error)
	Get(ctx context.Context, id string) (*model.Mentor, error)
	List(ctx context.Context) ([]model.Mentor, error)
	ByCourse(ctx context.Context, courseID string) ([]model.Mentor, error)
	Update(ctx context.Context, id string, patch ProfileFields) (*model.Mentor, error)
	Delete(ctx context.Context, id string) error
}

type mentorService struct {
	mentors repository.MentorRepository
	courses repository.CourseRepository
	assets  *assets
}

func NewMentorService(mentors repository.MentorRepository, courses repository.CourseRepository, store storage.Store, now Clock, logger zerolog.Logger) MentorService {
	log := logger.With().Str("service", "MentorService").Logger()
	return &mentorService{mentors: mentors, courses: courses, assets: newAssets(store, now, log)}
}

const mentorExists = "Mentor with this name already exists"

func (s *mentorService) requireCourses(ctx context.Context, ids []string) error {
	for _, id := range ids {
		c, err := s.courses.GetByID(ctx, id)
		if err != nil {
			return apperr.Wrap(err, "load course")
		}
		if c == nil {
			return apperr.NotFound("Course not found: " + id)
		}
	}
	return nil
}

func (s *mentorService) Create(ctx context.Context, in ProfileFields) (_ *model.Mentor, err error) {
	asset, err := s.assets.save(ctx, in.Image)
	if err != nil {
		return nil, err
	}
	defer s.assets.discardOnError(ctx, asset, &err)

	m := &model.Mentor{Name: strings.TrimSpace(value(in.Name)), CourseIDs: []string{}}
	if m.Name == "" {
		return nil, apperr.Validation("mentorName is required")
	}
	if m.Status, err = normalizeStatus(value(in.Status)); err != nil {
		return nil, err
	}
	if in.CourseIDs != nil {
		m.CourseIDs = *in.CourseIDs
	}
	if err = s.requireCourses(ctx, m.CourseIDs); err != nil {
		return nil, err
	}
	existing, err := s.mentors.GetByName(ctx, m.Name)
	if err != nil {
		return nil, apperr.Wrap(err, "lookup mentor")
	}
	if existing != nil {
		return nil, apperr.Conflict(mentorExists)
	}
	if asset != nil {
		m.Image, m.ImageKey = asset.URL, asset.Key
	}
	if err = s.mentors.Create(ctx, m); err != nil {
		return nil, conflictOr(err, mentorExists, "create mentor")
	}
	return m, nil
}

func (s *mentorService) Get(ctx context.Context, id string) (*model.Mentor, error) {
	m, err := s.mentors.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "load mentor")
	}
	if m == nil {
		return nil, apperr.NotFound("Mentor not found")
	}
	return m, nil
}

func (s *mentorService) List(ctx context.Context) ([]model.Mentor, error) {
	out, err := s.mentors.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(err, "list mentors")
	}
	return out, nil
}

func (s *mentorService) ByCourse(ctx context.Context, courseID string) ([]model.Mentor, error) {
	out, err := s.mentors.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, apperr.Wrap(err, "list mentors of course")
	}
	return out, nil
}

func (s *mentorService) Update(ctx context.Context, id string, patch ProfileFields) (_ *model.Mentor, err error) {
	asset, err := s.assets.save(ctx, patch.Image)
	if err != nil {
		return nil, err
	}
	defer s.assets.discardOnError(ctx, asset, &err)

	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	oldKey := m.ImageKey
	if patch.Name != nil {
		if m.Name = strings.TrimSpace(*patch.Name); m.Name == "" {
			return nil, apperr.Validation("mentorName cannot be empty")
		}
	}
	if patch.Status != nil {
		if m.Status, err = normalizeStatus(*patch.Status); err != nil {
			return nil, err
		}
	}
	if patch.CourseIDs != nil {
		if err = s.requireCourses(ctx, *patch.CourseIDs); err != nil {
			return nil, err
		}
		m.CourseIDs = *patch.CourseIDs
	}
	if asset != nil {
		m.Image, m.ImageKey = asset.URL, asset.Key
	}
	if err = s.mentors.Update(ctx, m); err != nil {
		return nil, conflictOr(err, mentorExists, "update mentor")
	}
	if asset != nil {
		s.assets.discard(ctx, oldKey)
	}
	return m, nil
}

func (s *mentorService) Delete(ctx context.Context, id string) error {
	m, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	deleted, err := s.mentors.Delete(ctx, id)
	if err != nil {
		return apperr.Wrap(err, "delete mentor")
	}
	if !deleted {
		return apperr.NotFound("Mentor not found")
	}
	s.assets.discard(ctx, m.ImageKey)
	return nil
}

type CompanyService interface {
	Create(ctx context.Context, in ProfileFields) (*model.Company, error)
	Get(ctx context.Context, id string) (*model.Company, error)
	List(ctx context.Context) ([]model.Company, error)
	Update(ctx context.Context, id string, patch ProfileFields) (*model.Company, error)
	Delete(ctx context.Context, id string) error
}

type companyService struct {
	companies repository.CompanyRepository
	assets    *assets
}

func NewCompanyService(companies repository.CompanyRepository, store storage.Store, now Clock, logger zerolog.Logger) CompanyService {
	log := logger.With().Str("service", "CompanyService").Logger()
	return &companyService{companies: companies, assets: newAssets(store, now, log)}
}

const companyExists = "Company with this name already exists"

func (s *companyService) Create(ctx context.Context, in ProfileFields) (_ *model.Company, err error) {
	asset, err := s.assets.save(ctx, in.Image)
	if err != nil {
		return nil, err
	}
	defer s.assets.discardOnError(ctx, asset, &err)

	c := &model.Company{Name: strings.TrimSpace(value(in.Name))}
	if c.Name == "" {
		return nil, apperr.Validation("companyName is required")
	}
	if c.Status, err = normalizeStatus(value(in.Status)); err != nil {
		return nil, err
	}
	existing, err := s.companies.GetByName(ctx, c.Name)
	if err != nil {
		return nil, apperr.Wrap(err, "lookup company")
	}
	if existing != nil {
		return nil, apperr.Conflict(companyExists)
	}
	if asset != nil {
		c.Image, c.ImageKey = asset.URL, asset.Key
	}
	if err = s.companies.Create(ctx, c); err != nil {
		return nil, conflictOr(err, companyExists, "create company")
	}
	return c, nil
}

func (s *companyService) Get(ctx context.Context, id string) (*model.Company, error) {
	c, err := s.companies.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "load company")
	}
	if c == nil {
		return nil, apperr.NotFound("Company not found")
	}
	return c, nil
}

func (s *companyService) List(ctx context.Context) ([]model.Company, error) {
	out, err := s.companies.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(err, "list companies")
	}
	return out, nil
}

func (s *companyService) Update(ctx context.Context, id string, patch ProfileFields) (_ *model.Company, err error) {
	asset, err := s.assets.save(ctx, patch.Image)
	if err != nil {
		return nil, err
	}
	defer s.assets.discardOnError(ctx, asset, &err)

	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	oldKey := c.ImageKey
	if patch.Name != nil {
		if c.Name = strings.TrimSpace(*patch.Name); c.Name == "" {
			return nil, apperr.Validation("companyName cannot be empty")
		}
	}
	if patch.Status != nil {
		if c.Status, err = normalizeStatus(*patch.Status); err != nil {
			return nil, err
		}
	}
	if asset != nil {
		c.Image, c.ImageKey = asset.URL, asset.Key
	}
	if err = s.companies.Update(ctx, c); err != nil {
		return nil, conflictOr(err, companyExists, "update company")
	}
	if asset != nil {
		s.assets.discard(ctx, oldKey)
	}
	return c, nil
}

func (s *companyService) Delete(ctx context.Context, id string) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	deleted, err := s.companies.Delete(ctx, id)
	if err != nil {
		return apperr.Wrap(err, "delete company")
	}
	if !deleted {
		return apperr.NotFound("Company not found")
	}
	s.assets.discard(ctx, c.ImageKey)
	return nil
}

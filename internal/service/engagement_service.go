package service

import (
	"context"
	"math"
	"strings"
	"time"

	"skillenergy/internal/apperr"
	"skillenergy/internal/model"
	"skillenergy/internal/repository"
)

// ListService manages a per-user list of courses. Carts and wishlists share it.
type ListService interface {
	Add(ctx context.Context, userID, courseID string) ([]model.ListItem, error)
	Items(ctx context.Context, userID string) ([]model.ListItem, error)
	Remove(ctx context.Context, userID, courseID string) ([]model.ListItem, error)
	Clear(ctx context.Context, userID string) error
}

type listService struct {
	name    string
	items   repository.ListRepository
	courses repository.CourseRepository
}

func NewCartService(items repository.ListRepository, courses repository.CourseRepository) ListService {
	return &listService{name: "cart", items: items, courses: courses}
}

func NewWishlistService(items repository.ListRepository, courses repository.CourseRepository) ListService {
	return &listService{name: "wishlist", items: items, courses: courses}
}

func (s *listService) Add(ctx context.Context, userID, courseID string) ([]model.ListItem, error) {
	c, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, apperr.Wrap(err, "load course")
	}
	if c == nil {
		return nil, apperr.NotFound("Course not found.")
	}
	added, err := s.items.Add(ctx, userID, courseID)
	if err != nil {
		return nil, apperr.Wrap(err, "add to "+s.name)
	}
	if !added {
		return nil, apperr.Conflict("Course already in " + s.name + ".")
	}
	return s.Items(ctx, userID)
}

func (s *listService) Items(ctx context.Context, userID string) ([]model.ListItem, error) {
	items, err := s.items.Items(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(err, "list "+s.name)
	}
	return items, nil
}

func (s *listService) Remove(ctx context.Context, userID, courseID string) ([]model.ListItem, error) {
	removed, err := s.items.Remove(ctx, userID, courseID)
	if err != nil {
		return nil, apperr.Wrap(err, "remove from "+s.name)
	}
	if !removed {
		return nil, apperr.NotFound("Course not found in " + s.name + ".")
	}
	return s.Items(ctx, userID)
}

func (s *listService) Clear(ctx context.Context, userID string) error {
	if err := s.items.Clear(ctx, userID); err != nil {
		return apperr.Wrap(err, "clear "+s.name)
	}
	return nil
}

type RatingService interface {
	Add(ctx context.Context, userID, courseID string, rate int, description string) (*model.Rating, error)
	Get(ctx context.Context, id string) (*model.Rating, error)
	List(ctx context.Context) ([]model.Rating, error)
	CourseRatings(ctx context.Context, courseID string) (*model.CourseRatings, error)
	Update(ctx context.Context, actor Actor, id string, rate *int, description *string) (*model.Rating, error)
	Delete(ctx context.Context, actor Actor, id string) error
	Count(ctx context.Context) (int64, error)
}

type ratingService struct {
	ratings repository.RatingRepository
	courses repository.CourseRepository
}

func NewRatingService(ratings repository.RatingRepository, courses repository.CourseRepository) RatingService {
	return &ratingService{ratings: ratings, courses: courses}
}

func validateRate(rate int) error {
	if rate < 1 || rate > 5 {
		return apperr.Validation("rate must be between 1 and 5")
	}
	return nil
}

func (s *ratingService) Add(ctx context.Context, userID, courseID string, rate int, description string) (*model.Rating, error) {
	if err := validateRate(rate); err != nil {
		return nil, err
	}
	c, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, apperr.Wrap(err, "load course")
	}
	if c == nil {
		return nil, apperr.NotFound("Course not found.")
	}
	rt := &model.Rating{UserID: userID, CourseID: courseID, Rate: rate, Description: strings.TrimSpace(description)}
	if err := s.ratings.Create(ctx, rt); err != nil {
		return nil, conflictOr(err, "You have already rated this course.", "create rating")
	}
	return rt, nil
}

func (s *ratingService) Get(ctx context.Context, id string) (*model.Rating, error) {
	rt, err := s.ratings.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "load rating")
	}
	if rt == nil {
		return nil, apperr.NotFound("Rating not found.")
	}
	return rt, nil
}

func (s *ratingService) List(ctx context.Context) ([]model.Rating, error) {
	out, err := s.ratings.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(err, "list ratings")
	}
	return out, nil
}

// CourseRatings returns every rating of a course with its average rounded to one decimal.
func (s *ratingService) CourseRatings(ctx context.Context, courseID string) (*model.CourseRatings, error) {
	ratings, err := s.ratings.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, apperr.Wrap(err, "list course ratings")
	}
	return SummarizeRatings(courseID, ratings), nil
}

// SummarizeRatings builds the star histogram. Every star from 1 to 5 is present, even at zero.
func SummarizeRatings(courseID string, ratings []model.Rating) *model.CourseRatings {
	out := &model.CourseRatings{
		CourseID:   courseID,
		Total:      len(ratings),
		StarCounts: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
		Ratings:    ratings,
	}
	if out.Ratings == nil {
		out.Ratings = []model.Rating{}
	}
	sum := 0
	for _, rt := range ratings {
		sum += rt.Rate
		out.StarCounts[rt.Rate]++
	}
	if len(ratings) > 0 {
		out.Average = math.Round(float64(sum)/float64(len(ratings))*10) / 10
	}
	return out
}

func (s *ratingService) owned(ctx context.Context, actor Actor, id string) (*model.Rating, error) {
	rt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rt.UserID != actor.UserID {
		return nil, apperr.Forbidden("You do not have permission to change this rating.")
	}
	return rt, nil
}

func (s *ratingService) Update(ctx context.Context, actor Actor, id string, rate *int, description *string) (*model.Rating, error) {
	rt, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if rate != nil {
		if err := validateRate(*rate); err != nil {
			return nil, err
		}
		rt.Rate = *rate
	}
	if description != nil {
		rt.Description = strings.TrimSpace(*description)
	}
	if err := s.ratings.Update(ctx, rt); err != nil {
		return nil, apperr.Wrap(err, "update rating")
	}
	return rt, nil
}

func (s *ratingService) Delete(ctx context.Context, actor Actor, id string) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	deleted, err := s.ratings.Delete(ctx, id)
	if err != nil {
		return apperr.Wrap(err, "delete rating")
	}
	if !deleted {
		return apperr.NotFound("Rating not found.")
	}
	return nil
}

func (s *ratingService) Count(ctx context.Context) (int64, error) {
	n, err := s.ratings.Count(ctx)
	if err != nil {
		return 0, apperr.Wrap(err, "count ratings")
	}
	return n, nil
}

// ReminderFields holds reminder values. Nil fields keep their stored value on update.
type ReminderFields struct {
	Name      *string
	Time      *time.Time
	Frequency *string
}

type ReminderService interface {
	Create(ctx context.Context, userID string, in ReminderFields) (*model.Reminder, error)
	Get(ctx context.Context, actor Actor, id string) (*model.Reminder, error)
	List(ctx context.Context, userID string) ([]model.Reminder, error)
	Update(ctx context.Context, actor Actor, id string, patch ReminderFields) (*model.Reminder, error)
	Delete(ctx context.Context, actor Actor, id string) error
}

type reminderService struct {
	reminders repository.ReminderRepository
}

func NewReminderService(reminders repository.ReminderRepository) ReminderService {
	return &reminderService{reminders: reminders}
}

// NormalizeFrequency maps user input onto a stored frequency. "Weakly" is read as Weekly.
func NormalizeFrequency(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "once":
		return model.FrequencyOnce, nil
	case "daily":
		return model.FrequencyDaily, nil
	case "weekly", "weakly":
		return model.FrequencyWeekly, nil
	default:
		return "", apperr.Validation("frequency must be one of Once, Daily or Weekly")
	}
}

func (s *reminderService) Create(ctx context.Context, userID string, in ReminderFields) (*model.Reminder, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" || in.Time == nil || in.Frequency == nil {
		return nil, apperr.Validation("All fields are required")
	}
	freq, err := NormalizeFrequency(*in.Frequency)
	if err != nil {
		return nil, err
	}
	rm := &model.Reminder{UserID: userID, Name: strings.TrimSpace(*in.Name), Time: *in.Time, Frequency: freq}
	if err := s.reminders.Create(ctx, rm); err != nil {
		return nil, apperr.Wrap(err, "create reminder")
	}
	return rm, nil
}

func (s *reminderService) Get(ctx context.Context, actor Actor, id string) (*model.Reminder, error) {
	rm, err := s.reminders.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "load reminder")
	}
	if rm == nil {
		return nil, apperr.NotFound("Reminder not found")
	}
	if !actor.owns(rm.UserID) {
		return nil, apperr.Forbidden("Access denied. This reminder belongs to another user.")
	}
	return rm, nil
}

func (s *reminderService) List(ctx context.Context, userID string) ([]model.Reminder, error) {
	out, err := s.reminders.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(err, "list reminders")
	}
	return out, nil
}

func (s *reminderService) Update(ctx context.Context, actor Actor, id string, patch ReminderFields) (*model.Reminder, error) {
	rm, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		if rm.Name = strings.TrimSpace(*patch.Name); rm.Name == "" {
			return nil, apperr.Validation("name cannot be empty")
		}
	}
	if patch.Time != nil {
		rm.Time = *patch.Time
	}
	if patch.Frequency != nil {
		if rm.Frequency, err = NormalizeFrequency(*patch.Frequency); err != nil {
			return nil, err
		}
	}
	if err := s.reminders.Update(ctx, rm); err != nil {
		return nil, apperr.Wrap(err, "update reminder")
	}
	return rm, nil
}

func (s *reminderService) Delete(ctx context.Context, actor Actor, id string) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	deleted, err := s.reminders.Delete(ctx, id)
	if err != nil {
		return apperr.Wrap(err, "delete reminder")
	}
	if !deleted {
		return apperr.NotFound("Reminder not found")
	}
	return nil
}

type BillingService interface {
	Create(ctx context.Context, userID, country, state string) (*model.BillingAddress, error)
	Get(ctx context.Context, actor Actor, id string) (*model.BillingAddress, error)
	Mine(ctx context.Context, userID string) (*model.BillingAddress, error)
	List(ctx context.Context) ([]model.BillingAddress, error)
	Update(ctx context.Context, actor Actor, id string, country, state *string) (*model.BillingAddress, error)
	Delete(ctx context.Context, actor Actor, id string) error
}

type billingService struct {
	addresses repository.BillingRepository
}

func NewBillingService(addresses repository.BillingRepository) BillingService {
	return &billingService{addresses: addresses}
}

const billingExists = "You already have a billing address. Please update it instead."

func (s *billingService) Create(ctx context.Context, userID, country, state string) (*model.BillingAddress, error) {
	country, state = strings.TrimSpace(country), strings.TrimSpace(state)
	if country == "" || state == "" {
		return nil, apperr.Validation("All fields are required")
	}
	existing, err := s.addresses.GetByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(err, "lookup billing address")
	}
	if existing != nil {
		return nil, apperr.Conflict(billingExists)
	}
	b := &model.BillingAddress{UserID: userID, Country: country, State: state}
	if err := s.addresses.Create(ctx, b); err != nil {
		return nil, conflictOr(err, billingExists, "create billing address")
	}
	return b, nil
}

func (s *billingService) Get(ctx context.Context, actor Actor, id string) (*model.BillingAddress, error) {
	b, err := s.addresses.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "load billing address")
	}
	if b == nil {
		return nil, apperr.NotFound("billingAddress not found")
	}
	if !actor.owns(b.UserID) {
		return nil, apperr.Forbidden("Access denied. You are not allowed to view this billing address.")
	}
	return b, nil
}

func (s *billingService) Mine(ctx context.Context, userID string) (*model.BillingAddress, error) {
	b, err := s.addresses.GetByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(err, "load billing address")
	}
	if b == nil {
		return nil, apperr.NotFound("billingAddress not found")
	}
	return b, nil
}

func (s *billingService) List(ctx context.Context) ([]model.BillingAddress, error) {
	out, err := s.addresses.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(err, "list billing addresses")
	}
	return out, nil
}

func (s *billingService) Update(ctx context.Context, actor Actor, id string, country, state *string) (*model.BillingAddress, error) {
	b, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if country != nil {
		b.Country = strings.TrimSpace(*country)
	}
	if state != nil {
		b.State = strings.TrimSpace(*state)
	}
	if b.Country == "" || b.State == "" {
		return nil, apperr.Validation("country and state cannot be empty")
	}
	if err := s.addresses.Update(ctx, b); err != nil {
		return nil, apperr.Wrap(err, "update billing address")
	}
	return b, nil
}

func (s *billingService) Delete(ctx context.Context, actor Actor, id string) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	deleted, err := s.addresses.Delete(ctx, id)
	if err != nil {
		return apperr.Wrap(err, "delete billing address")
	}
	if !deleted {
		return apperr.NotFound("billingAddress not found")
	}
	return nil
}

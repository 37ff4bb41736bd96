package service

import (
	"context"

	"skillenergy/internal/apperr"
	"skillenergy/internal/model"
	"skillenergy/internal/repository"

	"golang.org/x/sync/errgroup"
)

const (
	latestCoursesLimit = 8
	topMentorsLimit    = 5
)

type DashboardService interface {
	Stats(ctx context.Context) (*model.DashboardStats, error)
	LatestCourses(ctx context.Context, userID string) ([]model.CourseSummary, error)
	PopularCourses(ctx context.Context, userID, categoryID string) ([]model.CourseSummary, error)
	TopMentors(ctx context.Context) ([]model.MentorRank, error)
}

type dashboardService struct {
	stats   repository.StatsRepository
	mentors repository.MentorRepository
	courses CourseService
}

func NewDashboardService(stats repository.StatsRepository, mentors repository.MentorRepository, courses CourseService) DashboardService {
	return &dashboardService{stats: stats, mentors: mentors, courses: courses}
}

func (s *dashboardService) Stats(ctx context.Context) (*model.DashboardStats, error) {
	var out model.DashboardStats
	g, gctx := errgroup.WithContext(ctx)
	counts := map[string]*int64{
		"users":           &out.Users,
		"courses":         &out.Courses,
		"mentors":         &out.Mentors,
		"payments":        &out.Payments,
		"course_payments": &out.CoursePayments,
	}
	for table, dst := range counts {
		g.Go(func() error {
			n, err := s.stats.Count(gctx, table)
			if err != nil {
				return err
			}
			*dst = n
			return nil
		})
	}
	g.Go(func() error {
		revenue, err := s.stats.Revenue(gctx)
		if err != nil {
			return err
		}
		out.Revenue = revenue
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Wrap(err, "dashboard stats")
	}
	return &out, nil
}

func (s *dashboardService) LatestCourses(ctx context.Context, userID string) ([]model.CourseSummary, error) {
	return s.courses.Filter(ctx, userID, model.CourseFilter{SortBy: "newest", Limit: latestCoursesLimit})
}

func (s *dashboardService) PopularCourses(ctx context.Context, userID, categoryID string) ([]model.CourseSummary, error) {
	return s.courses.Filter(ctx, userID, model.CourseFilter{SortBy: "popular", CategoryID: categoryID})
}

func (s *dashboardService) TopMentors(ctx context.Context) ([]model.MentorRank, error) {
	out, err := s.mentors.Top(ctx, topMentorsLimit)
	if err != nil {
		return nil, apperr.Wrap(err, "top mentors")
	}
	return out, nil
}

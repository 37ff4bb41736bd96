package handler

import (
	"net/http"

	"skillenergy/internal/api/v1/response"
	"skillenergy/internal/service"

	"github.com/rs/zerolog"
)

type DashboardHandler struct {
	dashboardService service.DashboardService
	log              zerolog.Logger
}

func NewDashboardHandler(dashboardService service.DashboardService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		log:              logger.With().Str("handler", "DashboardHandler").Logger(),
	}
}

func (h *DashboardHandler) RegisterRoutes(mux *http.ServeMux, mw Middlewares) {
	mux.Handle("GET /api/dashboard/stats", mw.Admin(http.HandlerFunc(h.stats)))
	mux.Handle("GET /api/dashboard/top-mentors", mw.Admin(http.HandlerFunc(h.topMentors)))
	mux.Handle("GET /api/dashboard/latest-courses", mw.Auth(http.HandlerFunc(h.latestCourses)))
	mux.Handle("GET /api/dashboard/popular-courses", mw.Auth(http.HandlerFunc(h.popularCourses)))
}

// stats godoc
// @Summary Platform totals
// @Tags dashboard
// @Produce json
// @Success 200 {object} response.Envelope{data=model.DashboardStats}
// @Failure 403 {object} response.Envelope "Access denied. Not an admin."
// @Security BearerAuth
// @Router /dashboard/stats [get]
func (h *DashboardHandler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboardService.Stats(r.Context())
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Dashboard stats fetched successfully", stats)
}

// topMentors godoc
// @Summary Mentors with the most courses
// @Tags dashboard
// @Produce json
// @Success 200 {object} response.Envelope{data=[]model.MentorRank}
// @Security BearerAuth
// @Router /dashboard/top-mentors [get]
func (h *DashboardHandler) topMentors(w http.ResponseWriter, r *http.Request) {
	mentors, err := h.dashboardService.TopMentors(r.Context())
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Top mentors fetched successfully", mentors)
}

// latestCourses godoc
// @Summary Newest courses
// @Tags dashboard
// @Produce json
// @Success 200 {object} response.Envelope{data=[]model.CourseSummary}
// @Security BearerAuth
// @Router /dashboard/latest-courses [get]
func (h *DashboardHandler) latestCourses(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	courses, err := h.dashboardService.LatestCourses(r.Context(), actor.UserID)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Latest courses fetched successfully", courses)
}

// popularCourses godoc
// @Summary Most purchased courses
// @Tags dashboard
// @Produce json
// @Param categoryId query string false "Category ID"
// @Success 200 {object} response.Envelope{data=[]model.CourseSummary}
// @Security BearerAuth
// @Router /dashboard/popular-courses [get]
func (h *DashboardHandler) popularCourses(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	categoryID, err := queryID(r, "categoryId")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	courses, err := h.dashboardService.PopularCourses(r.Context(), actor.UserID, categoryID)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Popular courses fetched successfully", courses)
}

package handler

import (
	"net/http"
	"strconv"

	"skillenergy/internal/api/v1/dto"
	"skillenergy/internal/api/v1/response"
	"skillenergy/internal/apperr"
	"skillenergy/internal/model"
	"skillenergy/internal/service"
	"skillenergy/internal/upload"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// CourseHandler handles course, course payment, category and language endpoints
type CourseHandler struct {
	courseService   service.CourseService
	paymentService  service.CoursePaymentService
	categoryService service.CategoryService
	languageService service.LanguageService
	uploads         *upload.Resolver
	validate        *validator.Validate
	log             zerolog.Logger
}

// NewCourseHandler creates a new CourseHandler
func NewCourseHandler(
	courseService service.CourseService,
	paymentService service.CoursePaymentService,
	categoryService service.CategoryService,
	languageService service.LanguageService,
	uploads *upload.Resolver,
	validate *validator.Validate,
	logger zerolog.Logger,
) *CourseHandler {
	return &CourseHandler{
		courseService:   courseService,
		paymentService:  paymentService,
		categoryService: categoryService,
		languageService: languageService,
		uploads:         uploads,
		validate:        validate,
		log:             logger.With().Str("handler", "CourseHandler").Logger(),
	}
}

// RegisterRoutes mounts course routes
func (h *CourseHandler) RegisterRoutes(mux *http.ServeMux, mw Middlewares) {
	mux.Handle("POST /api/courses", mw.Admin(http.HandlerFunc(h.createCourse)))
	mux.HandleFunc("GET /api/courses", h.listCourses)
	mux.Handle("GET /api/courses/filter", mw.Auth(http.HandlerFunc(h.filterCourses)))
	mux.Handle("GET /api/courses/{id}", mw.Auth(http.HandlerFunc(h.getCourse)))
	mux.Handle("PATCH /api/courses/{id}", mw.Admin(http.HandlerFunc(h.updateCourse)))
	mux.Handle("DELETE /api/courses/{id}", mw.Admin(http.HandlerFunc(h.deleteCourse)))

	mux.Handle("POST /api/course-payments", mw.Auth(http.HandlerFunc(h.purchaseCourse)))
	mux.Handle("GET /api/course-payments", mw.Admin(http.HandlerFunc(h.listCoursePayments)))
	mux.Handle("GET /api/course-payments/{id}", mw.Auth(http.HandlerFunc(h.getCoursePayment)))

	mux.Handle("POST /api/categories", mw.Admin(http.HandlerFunc(h.createCategory)))
	mux.HandleFunc("GET /api/categories", h.listCategories)
	mux.HandleFunc("GET /api/categories/{id}", h.getCategory)
	mux.Handle("PATCH /api/categories/{id}", mw.Admin(http.HandlerFunc(h.updateCategory)))
	mux.Handle("DELETE /api/categories/{id}", mw.Admin(http.HandlerFunc(h.deleteCategory)))

	mux.Handle("POST /api/languages", mw.Admin(http.HandlerFunc(h.createLanguage)))
	mux.HandleFunc("GET /api/languages", h.listLanguages)
	mux.HandleFunc("GET /api/languages/{id}", h.getLanguage)
	mux.Handle("PATCH /api/languages/{id}", mw.Admin(http.HandlerFunc(h.updateLanguage)))
	mux.Handle("DELETE /api/languages/{id}", mw.Admin(http.HandlerFunc(h.deleteLanguage)))
}

func courseFields(r *http.Request, thumbnail *upload.File) service.CourseFields {
	return service.CourseFields{
		CategoryID:       formValue(r, "courseCategoryId"),
		LanguageID:       formValue(r, "course_languageId"),
		Title:            formValue(r, "video_title"),
		ShortDescription: formValue(r, "short_description"),
		LongDescription:  formValue(r, "long_description"),
		Language:         formValue(r, "language"),
		CC:               formValue(r, "cc"),
		Price:            formValue(r, "price"),
		WhatAreLearn:     formValue(r, "what_are_learn"),
		Thumbnail:        thumbnail,
	}
}

// createCourse godoc
// @Summary Create a new course
// @Tags courses
// @Accept multipart/form-data
// @Produce json
// @Param courseCategoryId formData string true "Category ID"
// @Param course_languageId formData string true "Language ID"
// @Param video_title formData string true "Course title"
// @Param short_description formData string false "Short description"
// @Param long_description formData string false "Long description"
// @Param price formData number true "Price"
// @Param what_are_learn formData string false "JSON array or comma separated list"
// @Param thumbnail formData file false "Thumbnail image"
// @Success 201 {object} response.Envelope{data=model.Course}
// @Failure 400 {object} response.Envelope "Validation failed or duplicate title"
// @Failure 403 {object} response.Envelope "Access denied. Not an admin."
// @Security BearerAuth
// @Router /courses [post]
func (h *CourseHandler) createCourse(w http.ResponseWriter, r *http.Request) {
	thumbnail, err := parseUpload(w, r, h.uploads, "thumbnail")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	defer cleanupForm(r)
	if err := checkFormIDs(r, "courseCategoryId", "course_languageId"); err != nil {
		response.Error(w, h.log, err)
		return
	}

	c, err := h.courseService.Create(r.Context(), courseFields(r, thumbnail))
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.Created(w, "Course created successfully", c)
}

// listCourses godoc
// @Summary List courses
// @Tags courses
// @Produce json
// @Success 200 {object} response.Envelope{data=[]model.Course}
// @Router /courses [get]
func (h *CourseHandler) listCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courseService.List(r.Context())
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Courses fetched successfully", courses)
}

// filterCourses godoc
// @Summary Filter and sort courses
// @Description Each course carries its average rating and whether it is on the caller's wishlist.
// @Tags courses
// @Produce json
// @Param categoryId query string false "Category ID"
// @Param language query string false "Spoken language"
// @Param sortBy query string false "newest, popular or ratings"
// @Param minRating query number false "Minimum average rating"
// @Success 200 {object} response.Envelope{data=[]model.CourseSummary}
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/filter [get]
func (h *CourseHandler) filterCourses(w http.ResponseWriter, r *http.Request) {
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
	q := r.URL.Query()
	f := model.CourseFilter{
		CategoryID: categoryID,
		Language:   q.Get("language"),
		SortBy:     q.Get("sortBy"),
	}
	if raw := q.Get("minRating"); raw != "" {
		f.MinRating, err = strconv.ParseFloat(raw, 64)
		if err != nil || f.MinRating < 0 || f.MinRating > 5 {
			response.Error(w, h.log, apperr.Validation("minRating must be a number between 0 and 5"))
			return
		}
	}
	courses, err := h.courseService.Filter(r.Context(), actor.UserID, f)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Courses fetched successfully", courses)
}

// getCourse godoc
// @Summary Get a course
// @Description Only buyers and admins may open a course.
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope{data=model.Course}
// @Failure 403 {object} response.Envelope "Purchase this course to view it"
// @Failure 404 {object} response.Envelope "Course not found"
// @Security BearerAuth
// @Router /courses/{id} [get]
func (h *CourseHandler) getCourse(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	c, err := h.courseService.Get(r.Context(), actor, id)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Course fetched successfully", c)
}

// updateCourse godoc
// @Summary Update a course
// @Description Multipart form. Fields left out are unchanged. A new thumbnail replaces the old one.
// @Tags courses
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Course ID"
// @Param thumbnail formData file false "Thumbnail image"
// @Success 200 {object} response.Envelope{data=model.Course}
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id} [patch]
func (h *CourseHandler) updateCourse(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	thumbnail, err := parseUpload(w, r, h.uploads, "thumbnail")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	defer cleanupForm(r)
	if err := checkFormIDs(r, "courseCategoryId", "course_languageId"); err != nil {
		response.Error(w, h.log, err)
		return
	}

	c, err := h.courseService.Update(r.Context(), id, courseFields(r, thumbnail))
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Course updated successfully", c)
}

// deleteCourse godoc
// @Summary Delete a course
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id} [delete]
func (h *CourseHandler) deleteCourse(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	if err := h.courseService.Delete(r.Context(), id); err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Course deleted successfully", nil)
}

// purchaseCourse godoc
// @Summary Record a course purchase
// @Tags course-payments
// @Accept json
// @Produce json
// @Param body body dto.CoursePaymentCreateDTO true "Purchase"
// @Success 201 {object} response.Envelope{data=model.CoursePayment}
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope "Course not found"
// @Security BearerAuth
// @Router /course-payments [post]
func (h *CourseHandler) purchaseCourse(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	var req dto.CoursePaymentCreateDTO
	if err := decode(w, r, h.validate, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}
	p, err := h.paymentService.Purchase(r.Context(), actor.UserID, req.CourseID, req.TransactionID)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.Created(w, "Course purchased successfully", p)
}

// listCoursePayments godoc
// @Summary List course purchases
// @Tags course-payments
// @Produce json
// @Success 200 {object} response.Envelope{data=[]model.CoursePayment}
// @Security BearerAuth
// @Router /course-payments [get]
func (h *CourseHandler) listCoursePayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.paymentService.List(r.Context())
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Course payments fetched successfully", payments)
}

// getCoursePayment godoc
// @Summary Get a course purchase
// @Tags course-payments
// @Produce json
// @Param id path string true "Course payment ID"
// @Success 200 {object} response.Envelope{data=model.CoursePayment}
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /course-payments/{id} [get]
func (h *CourseHandler) getCoursePayment(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	p, err := h.paymentService.Get(r.Context(), actor, id)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Course payment fetched successfully", p)
}

// createCategory godoc
// @Summary Create a course category
// @Tags categories
// @Accept json
// @Produce json
// @Param body body dto.CategoryDTO true "Category"
// @Success 201 {object} response.Envelope{data=model.CourseCategory}
// @Failure 400 {object} response.Envelope "Course category already exists"
// @Security BearerAuth
// @Router /categories [post]
func (h *CourseHandler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req dto.CategoryDTO
	if err := decode(w, r, h.validate, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}
	c, err := h.categoryService.Create(r.Context(), req.CourseCategoryName)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.Created(w, "Course category created successfully", c)
}

// listCategories godoc
// @Summary List course categories
// @Tags categories
// @Produce json
// @Success 200 {object} response.Envelope{data=[]model.CourseCategory}
// @Router /categories [get]
func (h *CourseHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryService.List(r.Context())
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Course categories fetched successfully", categories)
}

// getCategory godoc
// @Summary Get a course category
// @Tags categories
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} response.Envelope{data=model.CourseCategory}
// @Failure 404 {object} response.Envelope
// @Router /categories/{id} [get]
func (h *CourseHandler) getCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	c, err := h.categoryService.Get(r.Context(), id)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Course category fetched successfully", c)
}

// updateCategory godoc
// @Summary Rename a course category
// @Tags categories
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Param body body dto.CategoryDTO true "Category"
// @Success 200 {object} response.Envelope{data=model.CourseCategory}
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /categories/{id} [patch]
func (h *CourseHandler) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	var req dto.CategoryDTO
	if err := decode(w, r, h.validate, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}
	c, err := h.categoryService.Update(r.Context(), id, req.CourseCategoryName)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Course category updated successfully", c)
}

// deleteCategory godoc
// @Summary Delete a course category
// @Tags categories
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /categories/{id} [delete]
func (h *CourseHandler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	if err := h.categoryService.Delete(r.Context(), id); err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Course category deleted successfully", nil)
}

// createLanguage godoc
// @Summary Create a course language
// @Tags languages
// @Accept multipart/form-data
// @Produce json
// @Param language formData string true "Language name"
// @Param language_thumbnail formData file false "Thumbnail image"
// @Success 201 {object} response.Envelope{data=model.Language}
// @Failure 400 {object} response.Envelope "Language already exists"
// @Security BearerAuth
// @Router /languages [post]
func (h *CourseHandler) createLanguage(w http.ResponseWriter, r *http.Request) {
	thumbnail, err := parseUpload(w, r, h.uploads, "language_thumbnail")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	defer cleanupForm(r)

	l, err := h.languageService.Create(r.Context(), formString(r, "language"), thumbnail)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.Created(w, "Language created successfully", l)
}

// listLanguages godoc
// @Summary List course languages
// @Tags languages
// @Produce json
// @Success 200 {object} response.Envelope{data=[]model.Language}
// @Router /languages [get]
func (h *CourseHandler) listLanguages(w http.ResponseWriter, r *http.Request) {
	languages, err := h.languageService.List(r.Context())
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Languages fetched successfully", languages)
}

// getLanguage godoc
// @Summary Get a course language
// @Tags languages
// @Produce json
// @Param id path string true "Language ID"
// @Success 200 {object} response.Envelope{data=model.Language}
// @Failure 404 {object} response.Envelope
// @Router /languages/{id} [get]
func (h *CourseHandler) getLanguage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	l, err := h.languageService.Get(r.Context(), id)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Language fetched successfully", l)
}

// updateLanguage godoc
// @Summary Update a course language
// @Tags languages
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Language ID"
// @Param language formData string false "Language name"
// @Param language_thumbnail formData file false "Thumbnail image"
// @Success 200 {object} response.Envelope{data=model.Language}
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /languages/{id} [patch]
func (h *CourseHandler) updateLanguage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	thumbnail, err := parseUpload(w, r, h.uploads, "language_thumbnail")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	defer cleanupForm(r)

	l, err := h.languageService.Update(r.Context(), id, formValue(r, "language"), thumbnail)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Language updated successfully", l)
}

// deleteLanguage godoc
// @Summary Delete a course language
// @Tags languages
// @Produce json
// @Param id path string true "Language ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /languages/{id} [delete]
func (h *CourseHandler) deleteLanguage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	if err := h.languageService.Delete(r.Context(), id); err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Language deleted successfully", nil)
}

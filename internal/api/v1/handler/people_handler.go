package handler

import (
	"net/http"

	"skillenergy/internal/api/v1/response"
	"skillenergy/internal/service"
	"skillenergy/internal/upload"

	"github.com/rs/zerolog"
)

// PeopleHandler handles mentors and partner companies. Writes are admin only.
type PeopleHandler struct {
	mentorService  service.MentorService
	companyService service.CompanyService
	uploads        *upload.Resolver
	log            zerolog.Logger
}

func NewPeopleHandler(mentorService service.MentorService, companyService service.CompanyService, uploads *upload.Resolver, logger zerolog.Logger) *PeopleHandler {
	return &PeopleHandler{
		mentorService:  mentorService,
		companyService: companyService,
		uploads:        uploads,
		log:            logger.With().Str("handler", "PeopleHandler").Logger(),
	}
}

func (h *PeopleHandler) RegisterRoutes(mux *http.ServeMux, mw Middlewares) {
	mux.Handle("POST /api/mentors", mw.Admin(http.HandlerFunc(h.createMentor)))
	mux.HandleFunc("GET /api/mentors", h.listMentors)
	mux.HandleFunc("GET /api/mentors/{id}", h.getMentor)
	mux.HandleFunc("GET /api/courses/{id}/mentors", h.courseMentors)
	mux.Handle("PATCH /api/mentors/{id}", mw.Admin(http.HandlerFunc(h.updateMentor)))
	mux.Handle("DELETE /api/mentors/{id}", mw.Admin(http.HandlerFunc(h.deleteMentor)))

	mux.Handle("POST /api/companies", mw.Admin(http.HandlerFunc(h.createCompany)))
	mux.HandleFunc("GET /api/companies", h.listCompanies)
	mux.HandleFunc("GET /api/companies/{id}", h.getCompany)
	mux.Handle("PATCH /api/companies/{id}", mw.Admin(http.HandlerFunc(h.updateCompany)))
	mux.Handle("DELETE /api/companies/{id}", mw.Admin(http.HandlerFunc(h.deleteCompany)))
}

func (h *PeopleHandler) mentorFields(w http.ResponseWriter, r *http.Request) (service.ProfileFields, error) {
	image, err := parseUpload(w, r, h.uploads, "mentorImage", "image")
	if err != nil {
		return service.ProfileFields{}, err
	}
	courseIDs, err := formIDs(r, "courseId")
	if err != nil {
		return service.ProfileFields{}, err
	}
	return service.ProfileFields{
		Name:      formValue(r, "mentorName"),
		Status:    formValue(r, "status"),
		CourseIDs: courseIDs,
		Image:     image,
	}, nil
}

// createMentor godoc
// @Summary Create a mentor
// @Tags mentors
// @Accept multipart/form-data
// @Produce json
// @Param mentorName formData string true "Mentor name"
// @Param status formData string false "active or inactive"
// @Param courseId formData []string false "Course IDs the mentor teaches"
// @Param mentorImage formData file false "Mentor image"
// @Success 201 {object} response.Envelope{data=model.Mentor}
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope "Course not found"
// @Security BearerAuth
// @Router /mentors [post]
func (h *PeopleHandler) createMentor(w http.ResponseWriter, r *http.Request) {
	in, err := h.mentorFields(w, r)
	defer cleanupForm(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	m, err := h.mentorService.Create(r.Context(), in)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.Created(w, "Mentor created successfully", m)
}

// listMentors godoc
// @Summary List mentors
// @Tags mentors
// @Produce json
// @Success 200 {object} response.Envelope{data=[]model.Mentor}
// @Router /mentors [get]
func (h *PeopleHandler) listMentors(w http.ResponseWriter, r *http.Request) {
	mentors, err := h.mentorService.List(r.Context())
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Mentors fetched successfully", mentors)
}

// getMentor godoc
// @Summary Get a mentor
// @Tags mentors
// @Produce json
// @Param id path string true "Mentor ID"
// @Success 200 {object} response.Envelope{data=model.Mentor}
// @Failure 404 {object} response.Envelope
// @Router /mentors/{id} [get]
func (h *PeopleHandler) getMentor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	m, err := h.mentorService.Get(r.Context(), id)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Mentor fetched successfully", m)
}

// courseMentors godoc
// @Summary List the mentors of a course
// @Tags mentors
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope{data=[]model.Mentor}
// @Router /courses/{id}/mentors [get]
func (h *PeopleHandler) courseMentors(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	mentors, err := h.mentorService.ByCourse(r.Context(), id)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Mentors fetched successfully", mentors)
}

// updateMentor godoc
// @Summary Update a mentor
// @Description Multipart form. Fields left out are unchanged.
// @Tags mentors
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Mentor ID"
// @Param mentorImage formData file false "Mentor image"
// @Success 200 {object} response.Envelope{data=model.Mentor}
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /mentors/{id} [patch]
func (h *PeopleHandler) updateMentor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	patch, err := h.mentorFields(w, r)
	defer cleanupForm(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	m, err := h.mentorService.Update(r.Context(), id, patch)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Mentor updated successfully", m)
}

// deleteMentor godoc
// @Summary Delete a mentor
// @Tags mentors
// @Produce json
// @Param id path string true "Mentor ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /mentors/{id} [delete]
func (h *PeopleHandler) deleteMentor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	if err := h.mentorService.Delete(r.Context(), id); err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Mentor deleted successfully", nil)
}

func (h *PeopleHandler) companyFields(w http.ResponseWriter, r *http.Request) (service.ProfileFields, error) {
	image, err := parseUpload(w, r, h.uploads, "companyImage", "image")
	if err != nil {
		return service.ProfileFields{}, err
	}
	return service.ProfileFields{
		Name:   formValue(r, "companyName"),
		Status: formValue(r, "status"),
		Image:  image,
	}, nil
}

// createCompany godoc
// @Summary Create a partner company
// @Tags companies
// @Accept multipart/form-data
// @Produce json
// @Param companyName formData string true "Company name"
// @Param status formData string false "active or inactive"
// @Param companyImage formData file false "Company logo"
// @Success 201 {object} response.Envelope{data=model.Company}
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /companies [post]
func (h *PeopleHandler) createCompany(w http.ResponseWriter, r *http.Request) {
	in, err := h.companyFields(w, r)
	defer cleanupForm(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	c, err := h.companyService.Create(r.Context(), in)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.Created(w, "Company created successfully", c)
}

// listCompanies godoc
// @Summary List partner companies
// @Tags companies
// @Produce json
// @Success 200 {object} response.Envelope{data=[]model.Company}
// @Router /companies [get]
func (h *PeopleHandler) listCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.companyService.List(r.Context())
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Companies fetched successfully", companies)
}

// getCompany godoc
// @Summary Get a partner company
// @Tags companies
// @Produce json
// @Param id path string true "Company ID"
// @Success 200 {object} response.Envelope{data=model.Company}
// @Failure 404 {object} response.Envelope
// @Router /companies/{id} [get]
func (h *PeopleHandler) getCompany(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	c, err := h.companyService.Get(r.Context(), id)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Company fetched successfully", c)
}

// updateCompany godoc
// @Summary Update a partner company
// @Tags companies
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Company ID"
// @Param companyImage formData file false "Company logo"
// @Success 200 {object} response.Envelope{data=model.Company}
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /companies/{id} [patch]
func (h *PeopleHandler) updateCompany(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	patch, err := h.companyFields(w, r)
	defer cleanupForm(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	c, err := h.companyService.Update(r.Context(), id, patch)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Company updated successfully", c)
}

// deleteCompany godoc
// @Summary Delete a partner company
// @Tags companies
// @Produce json
// @Param id path string true "Company ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /companies/{id} [delete]
func (h *PeopleHandler) deleteCompany(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	if err := h.companyService.Delete(r.Context(), id); err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Company deleted successfully", nil)
}

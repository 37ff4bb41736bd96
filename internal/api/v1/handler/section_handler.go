package handler

import (
	"net/http"

	"skillenergy/internal/api/v1/response"
	"skillenergy/internal/service"
	"skillenergy/internal/upload"

	"github.com/rs/zerolog"
)

// SectionHandler handles course section videos
type SectionHandler struct {
	sectionService service.SectionService
	uploads        *upload.Resolver
	log            zerolog.Logger
}

func NewSectionHandler(sectionService service.SectionService, uploads *upload.Resolver, logger zerolog.Logger) *SectionHandler {
	return &SectionHandler{
		sectionService: sectionService,
		uploads:        uploads,
		log:            logger.With().Str("handler", "SectionHandler").Logger(),
	}
}

// RegisterRoutes mounts section routes
func (h *SectionHandler) RegisterRoutes(mux *http.ServeMux, mw Middlewares) {
	mux.Handle("POST /api/sections", mw.Admin(http.HandlerFunc(h.createVideo)))
	mux.Handle("GET /api/sections/{id}", mw.Auth(http.HandlerFunc(h.getVideo)))
	mux.Handle("PATCH /api/sections/{id}", mw.Admin(http.HandlerFunc(h.updateVideo)))
	mux.Handle("DELETE /api/sections/{id}", mw.Admin(http.HandlerFunc(h.deleteVideo)))
	mux.Handle("GET /api/courses/{id}/sections", mw.Auth(http.HandlerFunc(h.listBySection)))
}

// createVideo godoc
// @Summary Add a video to a course section
// @Description Section totals are recomputed from every video in the section.
// @Tags sections
// @Accept multipart/form-data
// @Produce json
// @Param courseId formData string true "Course ID"
// @Param sectionNo formData integer true "Section number"
// @Param section_title formData string true "Section title"
// @Param videoNo formData integer true "Video number within the section"
// @Param video_title formData string true "Video title"
// @Param video_time formData string true "Duration in seconds, e.g. 125 or 125 sec"
// @Param video formData file true "Video file"
// @Success 201 {object} response.Envelope{data=model.Section}
// @Failure 400 {object} response.Envelope "Validation failed or duplicate video"
// @Failure 404 {object} response.Envelope "Course not found"
// @Security BearerAuth
// @Router /sections [post]
func (h *SectionHandler) createVideo(w http.ResponseWriter, r *http.Request) {
	video, err := parseUpload(w, r, h.uploads, "video")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	defer cleanupForm(r)
	if err := checkFormIDs(r, "courseId"); err != nil {
		response.Error(w, h.log, err)
		return
	}

	s, err := h.sectionService.CreateVideo(r.Context(), service.VideoInput{
		CourseID:     formString(r, "courseId"),
		SectionNo:    formString(r, "sectionNo"),
		SectionTitle: formString(r, "section_title"),
		VideoNo:      formString(r, "videoNo"),
		VideoTitle:   formString(r, "video_title"),
		VideoTime:    formString(r, "video_time"),
		Video:        video,
	})
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.Created(w, "Section video created successfully", s)
}

// getVideo godoc
// @Summary Get a section video
// @Tags sections
// @Produce json
// @Param id path string true "Section video ID"
// @Success 200 {object} response.Envelope{data=model.Section}
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /sections/{id} [get]
func (h *SectionHandler) getVideo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	s, err := h.sectionService.GetVideo(r.Context(), id)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Section video fetched successfully", s)
}

// updateVideo godoc
// @Summary Update a section video
// @Description Multipart form. Fields left out are unchanged. Both the old and the new section totals are recomputed.
// @Tags sections
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Section video ID"
// @Param video formData file false "Replacement video"
// @Success 200 {object} response.Envelope{data=model.Section}
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /sections/{id} [patch]
func (h *SectionHandler) updateVideo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	video, err := parseUpload(w, r, h.uploads, "video")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	defer cleanupForm(r)
	if err := checkFormIDs(r, "courseId"); err != nil {
		response.Error(w, h.log, err)
		return
	}

	s, err := h.sectionService.UpdateVideo(r.Context(), id, service.VideoPatch{
		CourseID:     formValue(r, "courseId"),
		SectionNo:    formValue(r, "sectionNo"),
		SectionTitle: formValue(r, "section_title"),
		VideoNo:      formValue(r, "videoNo"),
		VideoTitle:   formValue(r, "video_title"),
		VideoTime:    formValue(r, "video_time"),
		Video:        video,
	})
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Section video updated successfully", s)
}

// deleteVideo godoc
// @Summary Delete a section video
// @Tags sections
// @Produce json
// @Param id path string true "Section video ID"
// @Success 200 {object} response.Envelope{data=model.Section}
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /sections/{id} [delete]
func (h *SectionHandler) deleteVideo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	s, err := h.sectionService.DeleteVideo(r.Context(), id)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Section video deleted successfully", s)
}

// listBySection godoc
// @Summary List a course's videos grouped by section
// @Tags sections
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope{data=[]model.SectionGroup}
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id}/sections [get]
func (h *SectionHandler) listBySection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	groups, err := h.sectionService.ListBySection(r.Context(), id)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Sections fetched successfully", groups)
}

package handler

import (
	"net/http"

	"skillenergy/internal/api/v1/dto"
	"skillenergy/internal/api/v1/response"
	"skillenergy/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// ListHandler serves a per-user course list such as the cart or the wishlist
type ListHandler struct {
	name     string // path segment and message noun
	label    string
	items    service.ListService
	validate *validator.Validate
	log      zerolog.Logger
}

func NewCartHandler(items service.ListService, validate *validator.Validate, logger zerolog.Logger) *ListHandler {
	return newListHandler("cart", "Cart", items, validate, logger)
}

func NewWishlistHandler(items service.ListService, validate *validator.Validate, logger zerolog.Logger) *ListHandler {
	return newListHandler("wishlist", "Wishlist", items, validate, logger)
}

func newListHandler(name, label string, items service.ListService, validate *validator.Validate, logger zerolog.Logger) *ListHandler {
	return &ListHandler{
		name:     name,
		label:    label,
		items:    items,
		validate: validate,
		log:      logger.With().Str("handler", label+"Handler").Logger(),
	}
}

func (h *ListHandler) RegisterRoutes(mux *http.ServeMux, mw Middlewares) {
	base := "/api/" + h.name
	mux.Handle("POST "+base, mw.Auth(http.HandlerFunc(h.add)))
	mux.Handle("GET "+base, mw.Auth(http.HandlerFunc(h.list)))
	mux.Handle("DELETE "+base+"/{courseId}", mw.Auth(http.HandlerFunc(h.remove)))
	mux.Handle("DELETE "+base, mw.Auth(http.HandlerFunc(h.clear)))
}

// add godoc
// @Summary Add a course to the cart or wishlist
// @Tags cart, wishlist
// @Accept json
// @Produce json
// @Param body body dto.CourseRefDTO true "Course"
// @Success 200 {object} response.Envelope{data=[]model.ListItem}
// @Failure 400 {object} response.Envelope "Course already in cart."
// @Failure 404 {object} response.Envelope "Course not found."
// @Security BearerAuth
// @Router /cart [post]
// @Router /wishlist [post]
func (h *ListHandler) add(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	var req dto.CourseRefDTO
	if err := decode(w, r, h.validate, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}
	items, err := h.items.Add(r.Context(), actor.UserID, req.CourseID)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Course added to "+h.name+".", items)
}

// list godoc
// @Summary List the cart or wishlist
// @Tags cart, wishlist
// @Produce json
// @Success 200 {object} response.Envelope{data=[]model.ListItem}
// @Security BearerAuth
// @Router /cart [get]
// @Router /wishlist [get]
func (h *ListHandler) list(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	items, err := h.items.Items(r.Context(), actor.UserID)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, h.label+" fetched successfully", items)
}

// remove godoc
// @Summary Remove a course from the cart or wishlist
// @Tags cart, wishlist
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope{data=[]model.ListItem}
// @Failure 404 {object} response.Envelope "Course not found in cart."
// @Security BearerAuth
// @Router /cart/{courseId} [delete]
// @Router /wishlist/{courseId} [delete]
func (h *ListHandler) remove(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	courseID, err := pathID(r, "courseId")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	items, err := h.items.Remove(r.Context(), actor.UserID, courseID)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Course removed from "+h.name+".", items)
}

// clear godoc
// @Summary Empty the cart or wishlist
// @Tags cart, wishlist
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /cart [delete]
// @Router /wishlist [delete]
func (h *ListHandler) clear(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	if err := h.items.Clear(r.Context(), actor.UserID); err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, h.label+" cleared.", nil)
}

// EngagementHandler handles ratings, reminders and billing addresses
type EngagementHandler struct {
	ratingService   service.RatingService
	reminderService service.ReminderService
	billingService  service.BillingService
	validate        *validator.Validate
	log             zerolog.Logger
}

func NewEngagementHandler(
	ratingService service.RatingService,
	reminderService service.ReminderService,
	billingService service.BillingService,
	validate *validator.Validate,
	logger zerolog.Logger,
) *EngagementHandler {
	return &EngagementHandler{
		ratingService:   ratingService,
		reminderService: reminderService,
		billingService:  billingService,
		validate:        validate,
		log:             logger.With().Str("handler", "EngagementHandler").Logger(),
	}
}

func (h *EngagementHandler) RegisterRoutes(mux *http.ServeMux, mw Middlewares) {
	mux.Handle("POST /api/ratings", mw.Auth(http.HandlerFunc(h.addRating)))
	mux.HandleFunc("GET /api/ratings", h.listRatings)
	mux.Handle("GET /api/ratings/count", mw.Admin(http.HandlerFunc(h.countRatings)))
	mux.HandleFunc("GET /api/ratings/{id}", h.getRating)
	mux.HandleFunc("GET /api/courses/{id}/ratings", h.courseRatings)
	mux.Handle("PATCH /api/ratings/{id}", mw.Auth(http.HandlerFunc(h.updateRating)))
	mux.Handle("DELETE /api/ratings/{id}", mw.Auth(http.HandlerFunc(h.deleteRating)))

	mux.Handle("POST /api/reminders", mw.Auth(http.HandlerFunc(h.createReminder)))
	mux.Handle("GET /api/reminders", mw.Auth(http.HandlerFunc(h.listReminders)))
	mux.Handle("GET /api/reminders/{id}", mw.Auth(http.HandlerFunc(h.getReminder)))
	mux.Handle("PATCH /api/reminders/{id}", mw.Auth(http.HandlerFunc(h.updateReminder)))
	mux.Handle("DELETE /api/reminders/{id}", mw.Auth(http.HandlerFunc(h.deleteReminder)))

	mux.Handle("POST /api/billing-addresses", mw.Auth(http.HandlerFunc(h.createBilling)))
	mux.Handle("GET /api/billing-addresses", mw.Admin(http.HandlerFunc(h.listBilling)))
	mux.Handle("GET /api/billing-addresses/me", mw.Auth(http.HandlerFunc(h.myBilling)))
	mux.Handle("GET /api/billing-addresses/{id}", mw.Auth(http.HandlerFunc(h.getBilling)))
	mux.Handle("PATCH /api/billing-addresses/{id}", mw.Auth(http.HandlerFunc(h.updateBilling)))
	mux.Handle("DELETE /api/billing-addresses/{id}", mw.Auth(http.HandlerFunc(h.deleteBilling)))
}

// addRating godoc
// @Summary Rate a course
// @Tags ratings
// @Accept json
// @Produce json
// @Param body body dto.RatingCreateDTO true "Rating"
// @Success 201 {object} response.Envelope{data=model.Rating}
// @Failure 400 {object} response.Envelope "You have already rated this course."
// @Failure 404 {object} response.Envelope "Course not found."
// @Security BearerAuth
// @Router /ratings [post]
func (h *EngagementHandler) addRating(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	var req dto.RatingCreateDTO
	if err := decode(w, r, h.validate, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}
	rt, err := h.ratingService.Add(r.Context(), actor.UserID, req.CourseID, req.Rate, req.Description)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.Created(w, "Rating added successfully.", rt)
}

// listRatings godoc
// @Summary List all ratings
// @Tags ratings
// @Produce json
// @Success 200 {object} response.Envelope{data=[]model.Rating}
// @Router /ratings [get]
func (h *EngagementHandler) listRatings(w http.ResponseWriter, r *http.Request) {
	ratings, err := h.ratingService.List(r.Context())
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Ratings fetched successfully.", ratings)
}

// countRatings godoc
// @Summary Count all ratings
// @Tags ratings
// @Produce json
// @Success 200 {object} response.Envelope{data=int}
// @Security BearerAuth
// @Router /ratings/count [get]
func (h *EngagementHandler) countRatings(w http.ResponseWriter, r *http.Request) {
	n, err := h.ratingService.Count(r.Context())
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Rating count fetched successfully.", n)
}

// getRating godoc
// @Summary Get a rating
// @Tags ratings
// @Produce json
// @Param id path string true "Rating ID"
// @Success 200 {object} response.Envelope{data=model.Rating}
// @Failure 404 {object} response.Envelope "Rating not found."
// @Router /ratings/{id} [get]
func (h *EngagementHandler) getRating(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	rt, err := h.ratingService.Get(r.Context(), id)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Rating fetched successfully.", rt)
}

// courseRatings godoc
// @Summary Rating summary of a course
// @Description Average rounded to one decimal and the count of each star value.
// @Tags ratings
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope{data=model.CourseRatings}
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/ratings [get]
func (h *EngagementHandler) courseRatings(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	summary, err := h.ratingService.CourseRatings(r.Context(), id)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Course ratings fetched successfully.", summary)
}

// updateRating godoc
// @Summary Update your rating
// @Tags ratings
// @Accept json
// @Produce json
// @Param id path string true "Rating ID"
// @Param body body dto.RatingUpdateDTO true "Fields to change"
// @Success 200 {object} response.Envelope{data=model.Rating}
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /ratings/{id} [patch]
func (h *EngagementHandler) updateRating(w http.ResponseWriter, r *http.Request) {
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
	var req dto.RatingUpdateDTO
	if err := decode(w, r, h.validate, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}
	rt, err := h.ratingService.Update(r.Context(), actor, id, req.Rate, req.Description)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Rating updated successfully.", rt)
}

// deleteRating godoc
// @Summary Delete your rating
// @Tags ratings
// @Produce json
// @Param id path string true "Rating ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /ratings/{id} [delete]
func (h *EngagementHandler) deleteRating(w http.ResponseWriter, r *http.Request) {
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
	if err := h.ratingService.Delete(r.Context(), actor, id); err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Rating deleted successfully.", nil)
}

func reminderFields(req dto.ReminderDTO) service.ReminderFields {
	return service.ReminderFields{Name: req.Name, Time: req.Time, Frequency: req.Frequency}
}

// createReminder godoc
// @Summary Create a learning reminder
// @Tags reminders
// @Accept json
// @Produce json
// @Param body body dto.ReminderDTO true "Reminder"
// @Success 201 {object} response.Envelope{data=model.Reminder}
// @Failure 400 {object} response.Envelope "All fields are required"
// @Security BearerAuth
// @Router /reminders [post]
func (h *EngagementHandler) createReminder(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	var req dto.ReminderDTO
	if err := decode(w, r, h.validate, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}
	rem, err := h.reminderService.Create(r.Context(), actor.UserID, reminderFields(req))
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.Created(w, "Reminder created successfully", rem)
}

// listReminders godoc
// @Summary List your reminders
// @Tags reminders
// @Produce json
// @Success 200 {object} response.Envelope{data=[]model.Reminder}
// @Security BearerAuth
// @Router /reminders [get]
func (h *EngagementHandler) listReminders(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	reminders, err := h.reminderService.List(r.Context(), actor.UserID)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Reminders fetched successfully", reminders)
}

// getReminder godoc
// @Summary Get a reminder
// @Tags reminders
// @Produce json
// @Param id path string true "Reminder ID"
// @Success 200 {object} response.Envelope{data=model.Reminder}
// @Failure 404 {object} response.Envelope "Reminder not found"
// @Security BearerAuth
// @Router /reminders/{id} [get]
func (h *EngagementHandler) getReminder(w http.ResponseWriter, r *http.Request) {
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
	rem, err := h.reminderService.Get(r.Context(), actor, id)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Reminder fetched successfully", rem)
}

// updateReminder godoc
// @Summary Update a reminder
// @Tags reminders
// @Accept json
// @Produce json
// @Param id path string true "Reminder ID"
// @Param body body dto.ReminderDTO true "Fields to change"
// @Success 200 {object} response.Envelope{data=model.Reminder}
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /reminders/{id} [patch]
func (h *EngagementHandler) updateReminder(w http.ResponseWriter, r *http.Request) {
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
	var req dto.ReminderDTO
	if err := decode(w, r, h.validate, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}
	rem, err := h.reminderService.Update(r.Context(), actor, id, reminderFields(req))
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Reminder updated successfully", rem)
}

// deleteReminder godoc
// @Summary Delete a reminder
// @Tags reminders
// @Produce json
// @Param id path string true "Reminder ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /reminders/{id} [delete]
func (h *EngagementHandler) deleteReminder(w http.ResponseWriter, r *http.Request) {
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
	if err := h.reminderService.Delete(r.Context(), actor, id); err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Reminder deleted successfully", nil)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// createBilling godoc
// @Summary Save your billing address
// @Description Each user keeps a single billing address.
// @Tags billing
// @Accept json
// @Produce json
// @Param body body dto.BillingAddressDTO true "Address"
// @Success 201 {object} response.Envelope{data=model.BillingAddress}
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /billing-addresses [post]
func (h *EngagementHandler) createBilling(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	var req dto.BillingAddressDTO
	if err := decode(w, r, h.validate, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}
	b, err := h.billingService.Create(r.Context(), actor.UserID, deref(req.Country), deref(req.State))
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.Created(w, "billingAddress created successfully", b)
}

// listBilling godoc
// @Summary List all billing addresses
// @Tags billing
// @Produce json
// @Success 200 {object} response.Envelope{data=[]model.BillingAddress}
// @Security BearerAuth
// @Router /billing-addresses [get]
func (h *EngagementHandler) listBilling(w http.ResponseWriter, r *http.Request) {
	addresses, err := h.billingService.List(r.Context())
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "billingAddresses fetched successfully", addresses)
}

// myBilling godoc
// @Summary Get your billing address
// @Tags billing
// @Produce json
// @Success 200 {object} response.Envelope{data=model.BillingAddress}
// @Failure 404 {object} response.Envelope "billingAddress not found"
// @Security BearerAuth
// @Router /billing-addresses/me [get]
func (h *EngagementHandler) myBilling(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	b, err := h.billingService.Mine(r.Context(), actor.UserID)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "billingAddress fetched successfully", b)
}

// getBilling godoc
// @Summary Get a billing address
// @Tags billing
// @Produce json
// @Param id path string true "Billing address ID"
// @Success 200 {object} response.Envelope{data=model.BillingAddress}
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /billing-addresses/{id} [get]
func (h *EngagementHandler) getBilling(w http.ResponseWriter, r *http.Request) {
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
	b, err := h.billingService.Get(r.Context(), actor, id)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "billingAddress fetched successfully", b)
}

// updateBilling godoc
// @Summary Update a billing address
// @Tags billing
// @Accept json
// @Produce json
// @Param id path string true "Billing address ID"
// @Param body body dto.BillingAddressDTO true "Fields to change"
// @Success 200 {object} response.Envelope{data=model.BillingAddress}
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /billing-addresses/{id} [patch]
func (h *EngagementHandler) updateBilling(w http.ResponseWriter, r *http.Request) {
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
	var req dto.BillingAddressDTO
	if err := decode(w, r, h.validate, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}
	b, err := h.billingService.Update(r.Context(), actor, id, req.Country, req.State)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "billingAddress updated successfully", b)
}

// deleteBilling godoc
// @Summary Delete a billing address
// @Tags billing
// @Produce json
// @Param id path string true "Billing address ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /billing-addresses/{id} [delete]
func (h *EngagementHandler) deleteBilling(w http.ResponseWriter, r *http.Request) {
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
	if err := h.billingService.Delete(r.Context(), actor, id); err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "billingAddress deleted successfully", nil)
}

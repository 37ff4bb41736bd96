package handler

import (
	"net/http"

	"skillenergy/internal/api/v1/dto"
	"skillenergy/internal/api/v1/response"
	"skillenergy/internal/service"
	"skillenergy/internal/upload"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type UserHandler struct {
	userService   service.UserService
	reasonService service.DeletionReasonService
	uploads       *upload.Resolver
	validate      *validator.Validate
	log           zerolog.Logger
}

func NewUserHandler(
	userService service.UserService,
	reasonService service.DeletionReasonService,
	uploads *upload.Resolver,
	validate *validator.Validate,
	logger zerolog.Logger,
) *UserHandler {
	return &UserHandler{
		userService:   userService,
		reasonService: reasonService,
		uploads:       uploads,
		validate:      validate,
		log:           logger.With().Str("handler", "UserHandler").Logger(),
	}
}

// RegisterRoutes mounts user and account-deletion routes
func (h *UserHandler) RegisterRoutes(mux *http.ServeMux, mw Middlewares) {
	mux.Handle("GET /api/users/me", mw.Auth(http.HandlerFunc(h.getMe)))
	mux.Handle("DELETE /api/users/me", mw.Auth(http.HandlerFunc(h.deleteMyAccount)))
	mux.Handle("GET /api/users", mw.Admin(http.HandlerFunc(h.listUsers)))
	mux.Handle("GET /api/users/{id}", mw.Auth(http.HandlerFunc(h.getUser)))
	mux.Handle("PATCH /api/users/{id}", mw.Auth(http.HandlerFunc(h.updateUser)))
	mux.Handle("DELETE /api/users/{id}", mw.Auth(http.HandlerFunc(h.deleteUser)))

	mux.Handle("GET /api/deletion-reasons", mw.Admin(http.HandlerFunc(h.listReasons)))
	mux.Handle("GET /api/deletion-reasons/{id}", mw.Admin(http.HandlerFunc(h.getReason)))
	mux.Handle("DELETE /api/deletion-reasons/{id}", mw.Admin(http.HandlerFunc(h.deleteReason)))
}

// getMe godoc
// @Summary Get the current user
// @Tags users
// @Produce json
// @Success 200 {object} response.Envelope{data=model.User}
// @Failure 401 {object} response.Envelope
// @Security BearerAuth
// @Router /users/me [get]
func (h *UserHandler) getMe(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	u, err := h.userService.Get(r.Context(), actor, actor.UserID)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "User fetched successfully", u)
}

// listUsers godoc
// @Summary List all users
// @Tags users
// @Produce json
// @Success 200 {object} response.Envelope{data=[]model.User}
// @Failure 403 {object} response.Envelope "Access denied. Not an admin."
// @Security BearerAuth
// @Router /users [get]
func (h *UserHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Users fetched successfully", users)
}

// getUser godoc
// @Summary Get a user
// @Description Users may read their own profile. Admins may read any.
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope{data=model.User}
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /users/{id} [get]
func (h *UserHandler) getUser(w http.ResponseWriter, r *http.Request) {
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
	u, err := h.userService.Get(r.Context(), actor, id)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "User fetched successfully", u)
}

// updateUser godoc
// @Summary Update a user profile
// @Description Multipart form. Fields left out are unchanged. A new image replaces the old one.
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "User ID"
// @Param name formData string false "Name"
// @Param email formData string false "Email"
// @Param phone formData string false "Phone"
// @Param gender formData string false "Gender"
// @Param image formData file false "Profile image"
// @Success 200 {object} response.Envelope{data=model.User}
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /users/{id} [patch]
func (h *UserHandler) updateUser(w http.ResponseWriter, r *http.Request) {
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
	image, err := parseUpload(w, r, h.uploads, "image", "profileImage")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	defer cleanupForm(r)

	u, err := h.userService.UpdateProfile(r.Context(), actor, id, service.ProfilePatch{
		Name:   formValue(r, "name"),
		Email:  formValue(r, "email"),
		Phone:  formValue(r, "phone"),
		Gender: formValue(r, "gender"),
		Image:  image,
	})
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "User updated successfully", u)
}

// deleteUser godoc
// @Summary Delete a user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /users/{id} [delete]
func (h *UserHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
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
	if err := h.userService.Delete(r.Context(), actor, id); err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "User deleted successfully", nil)
}

// deleteMyAccount godoc
// @Summary Close the current account
// @Description Records the reason and deletes the account.
// @Tags users
// @Accept json
// @Produce json
// @Param body body dto.DeleteAccountDTO true "Reason"
// @Success 200 {object} response.Envelope{data=model.DeletionReason}
// @Failure 400 {object} response.Envelope "reasonCancel is required"
// @Security BearerAuth
// @Router /users/me [delete]
func (h *UserHandler) deleteMyAccount(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	var req dto.DeleteAccountDTO
	if err := decode(w, r, h.validate, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}
	reason, err := h.userService.DeleteMyAccount(r.Context(), actor.UserID, req.ReasonCancel)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Account deleted successfully", reason)
}

// listReasons godoc
// @Summary List account deletion reasons
// @Tags users
// @Produce json
// @Success 200 {object} response.Envelope{data=[]model.DeletionReason}
// @Security BearerAuth
// @Router /deletion-reasons [get]
func (h *UserHandler) listReasons(w http.ResponseWriter, r *http.Request) {
	reasons, err := h.reasonService.List(r.Context())
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Deletion reasons fetched successfully", reasons)
}

// getReason godoc
// @Summary Get an account deletion reason
// @Tags users
// @Produce json
// @Param id path string true "Reason ID"
// @Success 200 {object} response.Envelope{data=model.DeletionReason}
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /deletion-reasons/{id} [get]
func (h *UserHandler) getReason(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	reason, err := h.reasonService.Get(r.Context(), id)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Deletion reason fetched successfully", reason)
}

// deleteReason godoc
// @Summary Delete an account deletion reason
// @Tags users
// @Produce json
// @Param id path string true "Reason ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /deletion-reasons/{id} [delete]
func (h *UserHandler) deleteReason(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	if err := h.reasonService.Delete(r.Context(), id); err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Deletion reason deleted successfully", nil)
}

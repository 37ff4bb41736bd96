package handler

import (
	"net/http"
	"time"

	"skillenergy/internal/api/v1/dto"
	"skillenergy/internal/api/v1/response"
	"skillenergy/internal/middleware"
	"skillenergy/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// AuthHandler handles sign-up, sessions and password recovery
type AuthHandler struct {
	authService  service.AuthService
	validate     *validator.Validate
	cookieSecure bool
	log          zerolog.Logger
}

func NewAuthHandler(authService service.AuthService, validate *validator.Validate, cookieSecure bool, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		validate:     validate,
		cookieSecure: cookieSecure,
		log:          logger.With().Str("handler", "AuthHandler").Logger(),
	}
}

// RegisterRoutes mounts auth routes
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, mw Middlewares) {
	mux.HandleFunc("POST /api/auth/register", h.register)
	mux.Handle("POST /api/auth/login", mw.Throttle(http.HandlerFunc(h.login)))
	mux.HandleFunc("POST /api/auth/logout", h.logout)
	mux.Handle("POST /api/auth/forgot-password", mw.Throttle(http.HandlerFunc(h.forgotPassword)))
	mux.Handle("POST /api/auth/verify-otp", mw.Throttle(http.HandlerFunc(h.verifyOTP)))
	mux.HandleFunc("POST /api/auth/reset-password", h.resetPassword)
	mux.Handle("POST /api/auth/change-password", mw.Auth(http.HandlerFunc(h.changePassword)))
}

// register godoc
// @Summary Register a user
// @Tags auth
// @Accept json
// @Produce json
// @Param user body dto.RegisterDTO true "Registration request"
// @Success 201 {object} response.Envelope{data=model.User}
// @Failure 400 {object} response.Envelope "Validation failed or email already registered"
// @Router /auth/register [post]
func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterDTO
	if err := decode(w, r, h.validate, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}
	u, err := h.authService.Register(r.Context(), service.RegisterInput{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Gender:          req.Gender,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Role:            req.Role,
	})
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.Created(w, "User registered successfully", u)
}

// login godoc
// @Summary Log in
// @Description Issues a session token and sets it as the HttpOnly token cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body dto.LoginDTO true "Login request"
// @Success 200 {object} response.Envelope{data=dto.SessionResponseDTO}
// @Failure 401 {object} response.Envelope "Invalid password"
// @Failure 404 {object} response.Envelope "User not found"
// @Failure 429 {object} response.Envelope "Too many requests"
// @Router /auth/login [post]
func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginDTO
	if err := decode(w, r, h.validate, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}
	session, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	http.SetCookie(w, h.cookie(session.Token, session.ExpiresAt))
	response.OK(w, "Login successful", dto.SessionResponseDTO{
		User:      session.User,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	})
}

// logout godoc
// @Summary Log out
// @Tags auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	c := h.cookie("", time.Unix(0, 0))
	c.MaxAge = -1
	http.SetCookie(w, c)
	response.OK(w, "Logged out successfully", nil)
}

func (h *AuthHandler) cookie(value string, expires time.Time) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if h.cookieSecure {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: sameSite,
	}
}

// forgotPassword godoc
// @Summary Request a password reset OTP
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.ForgotPasswordDTO true "Account email"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope "User not found"
// @Router /auth/forgot-password [post]
func (h *AuthHandler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordDTO
	if err := decode(w, r, h.validate, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}
	if err := h.authService.ForgotPassword(r.Context(), req.Email); err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "OTP sent to your email", nil)
}

// verifyOTP godoc
// @Summary Verify a password reset OTP
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.VerifyOTPDTO true "Email and OTP"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope "Invalid or expired OTP"
// @Router /auth/verify-otp [post]
func (h *AuthHandler) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyOTPDTO
	if err := decode(w, r, h.validate, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}
	if err := h.authService.VerifyOTP(r.Context(), req.Email, req.OTP); err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "OTP verified successfully", nil)
}

// resetPassword godoc
// @Summary Reset a password after OTP verification
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.ResetPasswordDTO true "New password"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /auth/reset-password [post]
func (h *AuthHandler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordDTO
	if err := decode(w, r, h.validate, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}
	if err := h.authService.ResetPassword(r.Context(), req.Email, req.NewPassword, req.ConfirmPassword); err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Password reset successfully", nil)
}

// changePassword godoc
// @Summary Change the current user's password
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.ChangePasswordDTO true "Old and new password"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Security BearerAuth
// @Router /auth/change-password [post]
func (h *AuthHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	var req dto.ChangePasswordDTO
	if err := decode(w, r, h.validate, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}
	if err := h.authService.ChangePassword(r.Context(), actor.UserID, req.OldPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Password changed successfully", nil)
}

package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"skillenergy/internal/apperr"
	"skillenergy/internal/auth"
	"skillenergy/internal/model"
	"skillenergy/internal/pubsub"
	"skillenergy/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost = 10
	otpTTL     = 10 * time.Minute

	EventPasswordResetRequested = "password_reset.requested"
)

type RegisterInput struct {
	Name            string
	Email           string
	Phone           string
	Gender          string
	Password        string
	ConfirmPassword string
	Role            string
}

// Session is the result of a successful login.
type Session struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

// AuthService handles registration, login and password recovery.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	ForgotPassword(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, otp string) error
	ResetPassword(ctx context.Context, email, newPassword, confirmPassword string) error
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword, confirmPassword string) error
}

type authService struct {
	users     repository.UserRepository
	tokens    *auth.TokenManager
	publisher pubsub.Publisher
	topic     string
	now       Clock
	log       zerolog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenManager,
	publisher pubsub.Publisher,
	topic string,
	now Clock,
	logger zerolog.Logger,
) AuthService {
	if now == nil {
		now = time.Now
	}
	return &authService{
		users:     users,
		tokens:    tokens,
		publisher: publisher,
		topic:     topic,
		now:       now,
		log:       logger.With().Str("service", "AuthService").Logger(),
	}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", apperr.Wrap(err, "hash password")
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if in.Password != in.ConfirmPassword {
		return nil, apperr.Validation("Password and confirm password do not match")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Wrap(err, "lookup user by email")
	}
	if existing != nil {
		return nil, apperr.Conflict("Email already registered")
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	role := in.Role
	if role != model.RoleAdmin {
		role = model.RoleUser
	}
	u := &model.User{
		Name:         in.Name,
		Email:        email,
		Phone:        in.Phone,
		Gender:       in.Gender,
		PasswordHash: hash,
		Role:         role,
		IsAdmin:      role == model.RoleAdmin,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, conflictOr(err, "Email already registered", "create user")
	}
	s.log.Info().Str("user_id", u.ID).Str("role", u.Role).Msg("User registered")
	return u, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, apperr.Validation("Email and password are required")
	}
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, apperr.Wrap(err, "lookup user by email")
	}
	if u == nil {
		return nil, apperr.NotFound("User not found")
	}
	if !checkPassword(u.PasswordHash, password) {
		return nil, apperr.Auth("Invalid password")
	}
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, apperr.Wrap(err, "issue token")
	}
	return &Session{User: u, Token: token, ExpiresAt: s.now().Add(s.tokens.TTL())}, nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()+1000), nil
}

// ForgotPassword stores a fresh OTP and hands it to the notification pipeline for delivery.
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}
	otp, err := generateOTP()
	if err != nil {
		return apperr.Wrap(err, "generate otp")
	}
	expires := s.now().Add(otpTTL)
	if err := s.users.SetOTP(ctx, u.ID, otp, expires); err != nil {
		return apperr.Wrap(err, "store otp")
	}

	data := map[string]any{"email": u.Email, "name": u.Name, "otp": otp, "expires_at": expires}
	if _, err := pubsub.PublishEvent(ctx, s.publisher, s.topic, EventPasswordResetRequested, data); err != nil {
		return apperr.Wrap(err, "publish password reset notification")
	}
	s.log.Info().Str("user_id", u.ID).Msg("Password reset OTP issued")
	return nil
}

func (s *authService) VerifyOTP(ctx context.Context, email, otp string) error {
	if email == "" || otp == "" {
		return apperr.Validation("Please provide email and OTP.")
	}
	u, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u.ResetOTP == "" || u.OTPExpires == nil {
		return apperr.Validation("No OTP found. Please request a new OTP.")
	}
	if u.ResetOTP != otp {
		return apperr.Validation("Invalid OTP.")
	}
	if u.OTPExpires.Before(s.now()) {
		return apperr.Validation("OTP has expired. Please request a new OTP.")
	}
	if err := s.users.MarkOTPVerified(ctx, u.ID); err != nil {
		return apperr.Wrap(err, "mark otp verified")
	}
	return nil
}

// ResetPassword requires an OTP verified within its validity window.
func (s *authService) ResetPassword(ctx context.Context, email, newPassword, confirmPassword string) error {
	if newPassword == "" || confirmPassword == "" {
		return apperr.Validation("Please provide email, newpassword and confirmpassword.")
	}
	if newPassword != confirmPassword {
		return apperr.Validation("Please check newpassword and confirmpassword.")
	}
	u, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !u.OTPVerified || u.OTPExpires == nil || u.OTPExpires.Before(s.now()) {
		return apperr.Validation("Please verify a valid OTP before resetting the password.")
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.ResetPassword(ctx, u.ID, hash); err != nil {
		return apperr.Wrap(err, "reset password")
	}
	s.log.Info().Str("user_id", u.ID).Msg("Password reset")
	return nil
}

func (s *authService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword, confirmPassword string) error {
	if oldPassword == "" || newPassword == "" || confirmPassword == "" {
		return apperr.Validation("oldPassword, newPassword, and confirmPassword are required.")
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return apperr.Wrap(err, "load user")
	}
	if u == nil {
		return apperr.NotFound("User not found")
	}
	if !checkPassword(u.PasswordHash, oldPassword) {
		return apperr.Validation("Current password is incorrect.")
	}
	if newPassword == oldPassword {
		return apperr.Validation("New password cannot be the same as current password.")
	}
	if newPassword != confirmPassword {
		return apperr.Validation("New password and confirm password do not match.")
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return apperr.Wrap(err, "update password")
	}
	return nil
}

func (s *authService) userByEmail(ctx context.Context, email string) (*model.User, error) {
	if email == "" {
		return nil, apperr.Validation("Email is required")
	}
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, apperr.Wrap(err, "lookup user by email")
	}
	if u == nil {
		return nil, apperr.NotFound("User not found")
	}
	return u, nil
}

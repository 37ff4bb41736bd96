package dto

import (
	"time"

	"skillenergy/internal/model"
)

// RegisterDTO is used for incoming sign-up requests
type RegisterDTO struct {
	Name            string `json:"name" validate:"max=120"`
	Phone           string `json:"phone" validate:"max=20"`
	Gender          string `json:"gender" validate:"max=20"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
	Role            string `json:"role,omitempty"`
}

type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordDTO struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyOTPDTO struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=4,numeric"`
}

type ResetPasswordDTO struct {
	Email           string `json:"email" validate:"required,email"`
	NewPassword     string `json:"newPassword" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type ChangePasswordDTO struct {
	OldPassword     string `json:"oldPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// SessionResponseDTO is returned by login. The token is also set as a cookie.
type SessionResponseDTO struct {
	User      *model.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// DeleteAccountDTO carries the reason a user gives when closing their account
type DeleteAccountDTO struct {
	ReasonCancel string `json:"reasonCancel"`
}

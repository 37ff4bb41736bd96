package model

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents a registered account together with its subscription entitlement.
type User struct {
	ID           string     `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Phone        string     `db:"phone" json:"phone"`
	Email        string     `db:"email" json:"email"`
	Gender       string     `db:"gender" json:"gender,omitempty"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Image        string     `db:"image" json:"image"`
	ImageKey     string     `db:"image_key" json:"-"`
	Role         string     `db:"role" json:"role"`
	IsAdmin      bool       `db:"is_admin" json:"isAdmin"`
	ResetOTP     string     `db:"reset_otp" json:"-"`
	OTPExpires   *time.Time `db:"otp_expires" json:"-"`
	OTPVerified  bool       `db:"otp_verified" json:"-"`
	PlanID       *string    `db:"plan_id" json:"planId"`
	EndDate      *time.Time `db:"end_date" json:"endDate"`
	IsSubscribed bool       `db:"is_subscribed" json:"isSubscribed"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// HasActivePlan reports whether the user holds an unexpired plan at now.
func (u *User) HasActivePlan(now time.Time) bool {
	return u.PlanID != nil && u.EndDate != nil && now.Before(*u.EndDate)
}

// DeletionReason records why a user removed their account.
type DeletionReason struct {
	ID        string    `db:"id" json:"id"`
	UserID    *string   `db:"user_id" json:"userId"`
	Reason    string    `db:"reason" json:"reasonCancel"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// BillingAddress is the single billing address kept per user.
type BillingAddress struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	Country   string    `db:"country" json:"country"`
	State     string    `db:"state" json:"state"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

package dto

import "time"

// CourseRefDTO names the course a cart or wishlist call acts on
type CourseRefDTO struct {
	CourseID string `json:"courseId" validate:"required,uuid"`
}

type RatingCreateDTO struct {
	CourseID    string `json:"courseId" validate:"required,uuid"`
	Rate        int    `json:"rate"`
	Description string `json:"description" validate:"max=2000"`
}

type RatingUpdateDTO struct {
	Rate        *int    `json:"rate,omitempty"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

type ReminderDTO struct {
	Name      *string    `json:"name,omitempty" validate:"omitempty,max=120"`
	Time      *time.Time `json:"time,omitempty"`
	Frequency *string    `json:"frequency,omitempty"`
}

type BillingAddressDTO struct {
	Country *string `json:"country,omitempty" validate:"omitempty,max=80"`
	State   *string `json:"state,omitempty" validate:"omitempty,max=80"`
}

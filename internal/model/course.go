package model

import "time"

// Course is a catalog entry sold to users.
type Course struct {
	ID               string    `db:"id" json:"id"`
	CategoryID       string    `db:"category_id" json:"courseCategoryId"`
	LanguageID       string    `db:"language_id" json:"course_languageId"`
	Title            string    `db:"title" json:"video_title"`
	ShortDescription string    `db:"short_description" json:"short_description"`
	LongDescription  string    `db:"long_description" json:"long_description"`
	Language         string    `db:"language" json:"language"`
	CC               string    `db:"cc" json:"cc"`
	Price            float64   `db:"price" json:"price"`
	WhatAreLearn     []string  `db:"what_are_learn" json:"what_are_learn"`
	Thumbnail        string    `db:"thumbnail" json:"thumbnail"`
	ThumbnailKey     string    `db:"thumbnail_key" json:"-"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`
}

// CourseSummary is a course enriched with rating and enrollment figures.
type CourseSummary struct {
	Course
	CategoryName     string  `db:"category_name" json:"courseCategoryName"`
	AvgRating        float64 `db:"avg_rating" json:"avgRating"`
	TotalRatings     int     `db:"total_ratings" json:"totalRatings"`
	TotalEnrollments int     `db:"total_enrollments" json:"totalEnrollments"`
	IsWishlisted     bool    `db:"-" json:"isWishlisted"`
}

// CourseFilter narrows and orders course listings.
type CourseFilter struct {
	CategoryID string
	Language   string
	SortBy     string // newest, popular or ratings
	MinRating  float64
	Limit      int
}

// CoursePayment records the purchase of a single course.
type CoursePayment struct {
	ID            string    `db:"id" json:"id"`
	TransactionID string    `db:"transaction_id" json:"transactionId"`
	CourseID      string    `db:"course_id" json:"courseId"`
	UserID        string    `db:"user_id" json:"userId"`
	Price         float64   `db:"price" json:"price"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// CourseCategory groups courses.
type CourseCategory struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"courseCategoryName"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Language is a course topic language such as Go or Python.
type Language struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"language"`
	Thumbnail    string    `db:"thumbnail" json:"language_thumbnail"`
	ThumbnailKey string    `db:"thumbnail_key" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type Mentor struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"mentorName"`
	Image     string    `db:"image" json:"mentorImage"`
	ImageKey  string    `db:"image_key" json:"-"`
	Status    string    `db:"status" json:"status"`
	CourseIDs []string  `db:"course_ids" json:"courseIds"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

type Company struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"companyName"`
	Image     string    `db:"image" json:"companyImage"`
	ImageKey  string    `db:"image_key" json:"-"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

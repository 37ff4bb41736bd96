package model

import "time"

// ListItem is a course kept in a user's cart or wishlist.
type ListItem struct {
	CourseID string    `db:"course_id" json:"courseId"`
	Title    string    `db:"title" json:"video_title"`
	Price    float64   `db:"price" json:"price"`
	Image    string    `db:"thumbnail" json:"thumbnail"`
	AddedAt  time.Time `db:"added_at" json:"addedAt"`
}

type Rating struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"userId"`
	UserName    string    `db:"user_name" json:"userName,omitempty"`
	CourseID    string    `db:"course_id" json:"courseId"`
	Rate        int       `db:"rate" json:"rate"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// CourseRatings summarises all ratings of a course.
type CourseRatings struct {
	CourseID   string      `json:"courseId"`
	Average    float64     `json:"averageRating"`
	Total      int         `json:"totalRatings"`
	StarCounts map[int]int `json:"starCounts"`
	Ratings    []Rating    `json:"ratings"`
}

const (
	FrequencyOnce   = "Once"
	FrequencyDaily  = "Daily"
	FrequencyWeekly = "Weekly"
)

type Reminder struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	Name      string    `db:"name" json:"name"`
	Time      time.Time `db:"time" json:"time"`
	Frequency string    `db:"frequency" json:"frequency"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// DashboardStats are the admin headline counts.
type DashboardStats struct {
	Users          int64   `json:"totalUsers"`
	Courses        int64   `json:"totalCourses"`
	Mentors        int64   `json:"totalMentors"`
	Payments       int64   `json:"totalPayments"`
	CoursePayments int64   `json:"totalCoursePayments"`
	Revenue        float64 `json:"totalRevenue"`
}

// MentorRank is a mentor ordered by the courses they teach.
type MentorRank struct {
	Mentor
	CourseCount int `db:"course_count" json:"courseCount"`
}

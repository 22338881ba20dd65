package domain

import (
	"time"
)

// Course represents a scheduled course offering. Capacity is the number
// of remaining seats; only the enrollment path mutates it after creation.
type Course struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Instructor    string    `json:"instructor"`
	Location      string    `json:"location"`
	Category      string    `json:"category,omitempty"`
	Description   string    `json:"description,omitempty"`
	StartTime     time.Time `json:"start_time"`
	Capacity      int       `json:"capacity"`
	Price         float64   `json:"price"`
	DurationHours int       `json:"duration_hours,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasStarted reports whether the course start time has passed.
func (c *Course) HasStarted(now time.Time) bool {
	return !now.Before(c.StartTime)
}

// CourseFilter narrows course listings. Zero values mean "no filter".
type CourseFilter struct {
	Title         string
	Location      string
	Instructor    string
	Category      string
	StartFrom     *time.Time
	StartTo       *time.Time
	OnlyAvailable bool
}

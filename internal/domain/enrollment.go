package domain

import (
	"net/mail"
	"strings"
	"time"
)

// Enrollment records one participant's seat in a course. The participant
// is identified by email and need not be a registered user. CreatedAt is
// set once at insertion and never changes.
type Enrollment struct {
	ID               int64     `json:"id"`
	CourseID         int64     `json:"course_id"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	ParticipantEmail string    `json:"participant_email"`
	CreatedAt        time.Time `json:"created_at"`
}

// Participant is the identity being enrolled into a course.
type Participant struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// Validate checks that all participant fields are present and the email
// is syntactically plausible.
func (p Participant) Validate() error {
	if strings.TrimSpace(p.FirstName) == "" {
		return ErrInvalidParticipant("first name is required")
	}
	if strings.TrimSpace(p.LastName) == "" {
		return ErrInvalidParticipant("last name is required")
	}
	if strings.TrimSpace(p.Email) == "" {
		return ErrInvalidParticipant("email is required")
	}
	if addr, err := mail.ParseAddress(p.Email); err != nil || addr.Address != p.Email {
		return ErrInvalidParticipant("email is not a valid address")
	}
	return nil
}

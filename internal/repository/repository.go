package repository

import (
	"context"
	"time"

	"github.com/lucadeg/Esame-de-gregorio/internal/domain"
	"github.com/lucadeg/Esame-de-gregorio/pkg/pagination"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update modifies an existing user in the store.
	Update(ctx context.Context, user *domain.User) error

	// UpdateLastLogin stamps the user's last successful login time.
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error

	// List returns one page of users with the total count.
	List(ctx context.Context, page pagination.Params) ([]domain.User, int, error)
}

// CourseRepository defines the interface for course persistence
// operations. Remaining capacity is never written here; the enrollment
// repository owns all capacity mutation after creation.
type CourseRepository interface {
	// Create inserts a new course into the store.
	Create(ctx context.Context, course *domain.Course) error

	// GetByID retrieves a course by its identifier.
	GetByID(ctx context.Context, id int64) (*domain.Course, error)

	// List returns one page of courses matching the filter with the
	// total count.
	List(ctx context.Context, filter domain.CourseFilter, page pagination.Params) ([]domain.Course, int, error)

	// ListUpcoming returns courses starting at or after the given time.
	ListUpcoming(ctx context.Context, from time.Time) ([]domain.Course, error)

	// Update modifies an existing course in the store.
	Update(ctx context.Context, course *domain.Course) error

	// Delete removes a course. It fails while enrollments reference it.
	Delete(ctx context.Context, id int64) error
}

// EnrollmentRepository defines the enrollment transaction and its read
// paths. Reserve and Release are the only writers of course capacity.
type EnrollmentRepository interface {
	// Reserve atomically seats a participant: it locks the course row,
	// checks start time, remaining capacity, duplicates, and the
	// optional per-participant quota, then decrements capacity and
	// inserts the enrollment. Either everything commits or nothing does.
	// A nil quota means the participant's enrollment volume is not
	// capped.
	Reserve(ctx context.Context, courseID int64, participant domain.Participant, quota *domain.TierLimits) (*domain.Enrollment, error)

	// Release cancels an enrollment: it deletes the record and restores
	// one seat to the course, refusing once the course has started.
	Release(ctx context.Context, enrollmentID int64) error

	// GetByID retrieves an enrollment by its identifier.
	GetByID(ctx context.Context, id int64) (*domain.Enrollment, error)

	// ListByCourse returns a course's enrollments in insertion order.
	ListByCourse(ctx context.Context, courseID int64) ([]domain.Enrollment, error)

	// ListByParticipant returns the participant's enrollments in
	// insertion order.
	ListByParticipant(ctx context.Context, email string) ([]domain.Enrollment, error)

	// List returns one page of all enrollments with the total count.
	List(ctx context.Context, page pagination.Params) ([]domain.Enrollment, int, error)
}

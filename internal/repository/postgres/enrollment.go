package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lucadeg/Esame-de-gregorio/internal/domain"
	"github.com/lucadeg/Esame-de-gregorio/pkg/database"
	"github.com/lucadeg/Esame-de-gregorio/pkg/pagination"
)

const enrollmentColumns = `id, course_id, first_name, last_name, participant_email, created_at`

// EnrollmentRepository implements repository.EnrollmentRepository using
// PostgreSQL. Reserve and Release are the only writers of courses.capacity.
type EnrollmentRepository struct {
	db database.DBTX
}

// NewEnrollmentRepository creates a new PostgreSQL-backed enrollment repository.
func NewEnrollmentRepository(db database.DBTX) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Reserve seats a participant inside a single transaction. The course row
// is locked with SELECT FOR UPDATE so concurrent attempts serialize on it:
// capacity can never go below zero and every admission is checked against
// the same consistent snapshot. The UNIQUE (course_id, participant_email)
// constraint remains the final arbiter of duplicates.
func (r *EnrollmentRepository) Reserve(ctx context.Context, courseID int64, p domain.Participant, quota *domain.TierLimits) (*domain.Enrollment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin enrollment transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var startTime time.Time
	var capacity int
	lockQuery := `
		SELECT start_time, capacity
		FROM courses
		WHERE id = $1
		FOR UPDATE`

	if err := tx.QueryRow(ctx, lockQuery, courseID).Scan(&startTime, &capacity); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCourseNotFound(courseID)
		}
		return nil, fmt.Errorf("lock course row: %w", err)
	}

	now := time.Now().UTC()
	if !now.Before(startTime) {
		return nil, domain.ErrCourseStarted(courseID)
	}
	if capacity <= 0 {
		return nil, domain.ErrCourseFull(courseID)
	}

	var enrolled bool
	dupQuery := `SELECT EXISTS(SELECT 1 FROM enrollments WHERE course_id = $1 AND participant_email = $2)`
	if err := tx.QueryRow(ctx, dupQuery, courseID, p.Email).Scan(&enrolled); err != nil {
		return nil, fmt.Errorf("check duplicate enrollment: %w", err)
	}
	if enrolled {
		return nil, domain.ErrAlreadyEnrolled(courseID, p.Email)
	}

	if quota != nil {
		// The course row lock does not serialize two enrollments by the
		// same participant into different courses, so the quota count
		// needs its own lock keyed by the email. The xact-scoped advisory
		// lock is released on commit or rollback. It is always taken
		// after the course row lock, keeping the lock order consistent.
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, p.Email); err != nil {
			return nil, fmt.Errorf("lock participant quota: %w", err)
		}

		var count int
		countQuery := `SELECT count(*) FROM enrollments WHERE participant_email = $1`
		if err := tx.QueryRow(ctx, countQuery, p.Email).Scan(&count); err != nil {
			return nil, fmt.Errorf("count participant enrollments: %w", err)
		}
		if count >= quota.MaxCourses {
			return nil, domain.ErrEnrollmentLimitReached(quota.Tier, quota.MaxCourses)
		}
	}

	if _, err := tx.Exec(ctx, `UPDATE courses SET capacity = capacity - 1, updated_at = $1 WHERE id = $2`, now, courseID); err != nil {
		return nil, fmt.Errorf("decrement course capacity: %w", err)
	}

	enrollment := &domain.Enrollment{
		CourseID:         courseID,
		FirstName:        p.FirstName,
		LastName:         p.LastName,
		ParticipantEmail: p.Email,
		CreatedAt:        now,
	}
	insertQuery := `
		INSERT INTO enrollments (course_id, first_name, last_name, participant_email, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	if err := tx.QueryRow(ctx, insertQuery,
		enrollment.CourseID,
		enrollment.FirstName,
		enrollment.LastName,
		enrollment.ParticipantEmail,
		enrollment.CreatedAt,
	).Scan(&enrollment.ID); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrAlreadyEnrolled(courseID, p.Email)
		}
		return nil, fmt.Errorf("insert enrollment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit enrollment: %w", err)
	}

	return enrollment, nil
}

// Release cancels an enrollment and restores one seat, locking the course
// row first so the capacity increment serializes with concurrent reserves.
func (r *EnrollmentRepository) Release(ctx context.Context, enrollmentID int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin cancellation transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var courseID int64
	if err := tx.QueryRow(ctx, `SELECT course_id FROM enrollments WHERE id = $1`, enrollmentID).Scan(&courseID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrEnrollmentNotFound(enrollmentID)
		}
		return fmt.Errorf("get enrollment course: %w", err)
	}

	var startTime time.Time
	if err := tx.QueryRow(ctx, `SELECT start_time FROM courses WHERE id = $1 FOR UPDATE`, courseID).Scan(&startTime); err != nil {
		return fmt.Errorf("lock course row: %w", err)
	}

	now := time.Now().UTC()
	if !now.Before(startTime) {
		return domain.ErrCourseStartedConflict(courseID)
	}

	ct, err := tx.Exec(ctx, `DELETE FROM enrollments WHERE id = $1`, enrollmentID)
	if err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrEnrollmentNotFound(enrollmentID)
	}

	if _, err := tx.Exec(ctx, `UPDATE courses SET capacity = capacity + 1, updated_at = $1 WHERE id = $2`, now, courseID); err != nil {
		return fmt.Errorf("restore course capacity: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit cancellation: %w", err)
	}

	return nil
}

// GetByID retrieves an enrollment by its ID.
func (r *EnrollmentRepository) GetByID(ctx context.Context, id int64) (*domain.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE id = $1`

	var e domain.Enrollment
	err := r.db.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.CourseID, &e.FirstName, &e.LastName, &e.ParticipantEmail, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEnrollmentNotFound(id)
		}
		return nil, fmt.Errorf("get enrollment: %w", err)
	}

	return &e, nil
}

// ListByCourse returns a course's enrollments in insertion order.
func (r *EnrollmentRepository) ListByCourse(ctx context.Context, courseID int64) ([]domain.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE course_id = $1 ORDER BY id`
	return r.queryEnrollments(ctx, query, courseID)
}

// ListByParticipant returns the participant's enrollments in insertion order.
func (r *EnrollmentRepository) ListByParticipant(ctx context.Context, email string) ([]domain.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE participant_email = $1 ORDER BY id`
	return r.queryEnrollments(ctx, query, email)
}

// List returns one page of all enrollments with the total count.
func (r *EnrollmentRepository) List(ctx context.Context, page pagination.Params) ([]domain.Enrollment, int, error) {
	query := `
		SELECT ` + enrollmentColumns + `, count(*) OVER() AS total
		FROM enrollments
		ORDER BY id
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []domain.Enrollment
	var total int
	for rows.Next() {
		var e domain.Enrollment
		if err := rows.Scan(&e.ID, &e.CourseID, &e.FirstName, &e.LastName, &e.ParticipantEmail, &e.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan enrollment row: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate enrollment rows: %w", err)
	}

	return enrollments, total, nil
}

func (r *EnrollmentRepository) queryEnrollments(ctx context.Context, query string, args ...any) ([]domain.Enrollment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []domain.Enrollment
	for rows.Next() {
		var e domain.Enrollment
		if err := rows.Scan(&e.ID, &e.CourseID, &e.FirstName, &e.LastName, &e.ParticipantEmail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan enrollment row: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrollment rows: %w", err)
	}

	return enrollments, nil
}

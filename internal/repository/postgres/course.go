package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lucadeg/Esame-de-gregorio/internal/domain"
	"github.com/lucadeg/Esame-de-gregorio/pkg/database"
	apperrors "github.com/lucadeg/Esame-de-gregorio/pkg/errors"
	"github.com/lucadeg/Esame-de-gregorio/pkg/pagination"
)

const courseColumns = `id, title, instructor, location, category, description, start_time, capacity, price, duration_hours, created_at, updated_at`

// CourseRepository implements repository.CourseRepository using PostgreSQL.
type CourseRepository struct {
	db database.DBTX
}

// NewCourseRepository creates a new PostgreSQL-backed course repository.
func NewCourseRepository(db database.DBTX) *CourseRepository {
	return &CourseRepository{db: db}
}

// Create inserts a new course and fills in its generated ID.
func (r *CourseRepository) Create(ctx context.Context, c *domain.Course) error {
	query := `
		INSERT INTO courses (title, instructor, location, category, description, start_time, capacity, price, duration_hours, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		c.Title,
		c.Instructor,
		c.Location,
		c.Category,
		c.Description,
		c.StartTime,
		c.Capacity,
		c.Price,
		c.DurationHours,
		c.CreatedAt,
		c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("course", "title and start time", c.Title)
		}
		return fmt.Errorf("insert course: %w", err)
	}

	return nil
}

// GetByID retrieves a course by its ID.
func (r *CourseRepository) GetByID(ctx context.Context, id int64) (*domain.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`

	c, err := scanCourseRow(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCourseNotFound(id)
		}
		return nil, fmt.Errorf("get course: %w", err)
	}
	return c, nil
}

// List returns courses matching the filter with the total count, ordered
// by start time.
func (r *CourseRepository) List(ctx context.Context, filter domain.CourseFilter, page pagination.Params) ([]domain.Course, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Title != "" {
		conditions = append(conditions, fmt.Sprintf("title ILIKE $%d", argIndex))
		args = append(args, "%"+filter.Title+"%")
		argIndex++
	}
	if filter.Location != "" {
		conditions = append(conditions, fmt.Sprintf("location ILIKE $%d", argIndex))
		args = append(args, "%"+filter.Location+"%")
		argIndex++
	}
	if filter.Instructor != "" {
		conditions = append(conditions, fmt.Sprintf("instructor ILIKE $%d", argIndex))
		args = append(args, "%"+filter.Instructor+"%")
		argIndex++
	}
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, filter.Category)
		argIndex++
	}
	if filter.StartFrom != nil {
		conditions = append(conditions, fmt.Sprintf("start_time >= $%d", argIndex))
		args = append(args, *filter.StartFrom)
		argIndex++
	}
	if filter.StartTo != nil {
		conditions = append(conditions, fmt.Sprintf("start_time <= $%d", argIndex))
		args = append(args, *filter.StartTo)
		argIndex++
	}
	if filter.OnlyAvailable {
		conditions = append(conditions, "capacity > 0")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT `+courseColumns+`, count(*) OVER() AS total_count
		FROM courses
		%s
		ORDER BY start_time, id
		LIMIT $%d OFFSET $%d`,
		whereClause, argIndex, argIndex+1,
	)
	args = append(args, page.Size, page.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var courses []domain.Course
	var total int
	for rows.Next() {
		var c domain.Course
		if err := rows.Scan(
			&c.ID, &c.Title, &c.Instructor, &c.Location, &c.Category, &c.Description,
			&c.StartTime, &c.Capacity, &c.Price, &c.DurationHours, &c.CreatedAt, &c.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan course row: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate course rows: %w", err)
	}

	return courses, total, nil
}

// ListUpcoming returns courses starting at or after the given time.
func (r *CourseRepository) ListUpcoming(ctx context.Context, from time.Time) ([]domain.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE start_time >= $1 ORDER BY start_time, id`

	rows, err := r.db.Query(ctx, query, from)
	if err != nil {
		return nil, fmt.Errorf("list upcoming courses: %w", err)
	}
	defer rows.Close()

	var courses []domain.Course
	for rows.Next() {
		var c domain.Course
		if err := rows.Scan(
			&c.ID, &c.Title, &c.Instructor, &c.Location, &c.Category, &c.Description,
			&c.StartTime, &c.Capacity, &c.Price, &c.DurationHours, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan course row: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate course rows: %w", err)
	}

	return courses, nil
}

// Update modifies an existing course. Capacity is deliberately absent
// from the column list: remaining seats are owned by the enrollment
// transaction, and writing the value read before the update would
// resurrect seats taken by a concurrent enrollment.
func (r *CourseRepository) Update(ctx context.Context, c *domain.Course) error {
	c.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE courses
		SET title = $1, instructor = $2, location = $3, category = $4, description = $5,
		    start_time = $6, price = $7, duration_hours = $8, updated_at = $9
		WHERE id = $10`

	ct, err := r.db.Exec(ctx, query,
		c.Title,
		c.Instructor,
		c.Location,
		c.Category,
		c.Description,
		c.StartTime,
		c.Price,
		c.DurationHours,
		c.UpdatedAt,
		c.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("course", "title and start time", c.Title)
		}
		return fmt.Errorf("update course: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return domain.ErrCourseNotFound(c.ID)
	}

	return nil
}

// Delete removes a course. The foreign key from enrollments surfaces as
// a conflict while any enrollment still references the course.
func (r *CourseRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM courses WHERE id = $1`

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.Conflict("COURSE_HAS_ENROLLMENTS", fmt.Sprintf("course %d still has enrollments", id))
		}
		return fmt.Errorf("delete course: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return domain.ErrCourseNotFound(id)
	}

	return nil
}

func scanCourseRow(row pgx.Row) (*domain.Course, error) {
	var c domain.Course
	err := row.Scan(
		&c.ID,
		&c.Title,
		&c.Instructor,
		&c.Location,
		&c.Category,
		&c.Description,
		&c.StartTime,
		&c.Capacity,
		&c.Price,
		&c.DurationHours,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// isForeignKeyViolation checks if the error is a PostgreSQL foreign key violation (SQLSTATE 23503).
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23503")
}

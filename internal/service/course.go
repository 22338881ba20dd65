package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lucadeg/Esame-de-gregorio/internal/domain"
	"github.com/lucadeg/Esame-de-gregorio/internal/repository"
	apperrors "github.com/lucadeg/Esame-de-gregorio/pkg/errors"
	"github.com/lucadeg/Esame-de-gregorio/pkg/pagination"
)

// CourseService implements course catalog operations. Remaining
// capacity is set at creation and then owned by the enrollment path.
type CourseService struct {
	courseRepo repository.CourseRepository
	logger     *slog.Logger
	now        func() time.Time
}

// NewCourseService creates a new course service.
func NewCourseService(courseRepo repository.CourseRepository, logger *slog.Logger) *CourseService {
	return &CourseService{
		courseRepo: courseRepo,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateCourseInput holds the parameters for creating a course.
type CreateCourseInput struct {
	Title         string
	Instructor    string
	Location      string
	Category      string
	Description   string
	StartTime     time.Time
	Capacity      int
	Price         float64
	DurationHours int
}

// UpdateCourseInput holds the parameters for updating a course. Nil
// fields are left unchanged.
type UpdateCourseInput struct {
	Title         *string
	Instructor    *string
	Location      *string
	Category      *string
	Description   *string
	StartTime     *time.Time
	Price         *float64
	DurationHours *int
}

// Create validates and persists a new course offering.
func (s *CourseService) Create(ctx context.Context, input CreateCourseInput) (*domain.Course, error) {
	if input.Title == "" {
		return nil, apperrors.InvalidInput("title is required")
	}
	if input.Instructor == "" {
		return nil, apperrors.InvalidInput("instructor is required")
	}
	if input.Location == "" {
		return nil, apperrors.InvalidInput("location is required")
	}
	if input.Capacity < 0 {
		return nil, apperrors.InvalidInput("capacity must not be negative")
	}
	if input.Price < 0 {
		return nil, apperrors.InvalidInput("price must not be negative")
	}
	if !input.StartTime.After(s.now().UTC()) {
		return nil, apperrors.InvalidInput("start time must be in the future")
	}

	now := s.now().UTC()
	course := &domain.Course{
		Title:         input.Title,
		Instructor:    input.Instructor,
		Location:      input.Location,
		Category:      input.Category,
		Description:   input.Description,
		StartTime:     input.StartTime.UTC(),
		Capacity:      input.Capacity,
		Price:         input.Price,
		DurationHours: input.DurationHours,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "course created",
		slog.Int64("course_id", course.ID),
		slog.String("title", course.Title),
	)

	return course, nil
}

// Get retrieves a course by ID.
func (s *CourseService) Get(ctx context.Context, id int64) (*domain.Course, error) {
	return s.courseRepo.GetByID(ctx, id)
}

// List returns one page of courses matching the filter.
func (s *CourseService) List(ctx context.Context, filter domain.CourseFilter, page pagination.Params) (pagination.Page[domain.Course], error) {
	courses, total, err := s.courseRepo.List(ctx, filter, page)
	if err != nil {
		return pagination.Page[domain.Course]{}, fmt.Errorf("list courses: %w", err)
	}
	return pagination.NewPage(courses, total, page), nil
}

// ListUpcoming returns all courses that have not yet started.
func (s *CourseService) ListUpcoming(ctx context.Context) ([]domain.Course, error) {
	return s.courseRepo.ListUpcoming(ctx, s.now().UTC())
}

// Update applies a partial update to an existing course. Capacity is
// not updatable here; only the enrollment path mutates it.
func (s *CourseService) Update(ctx context.Context, id int64, input UpdateCourseInput) (*domain.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, apperrors.InvalidInput("title must not be empty")
		}
		course.Title = *input.Title
	}
	if input.Instructor != nil {
		if *input.Instructor == "" {
			return nil, apperrors.InvalidInput("instructor must not be empty")
		}
		course.Instructor = *input.Instructor
	}
	if input.Location != nil {
		if *input.Location == "" {
			return nil, apperrors.InvalidInput("location must not be empty")
		}
		course.Location = *input.Location
	}
	if input.Category != nil {
		course.Category = *input.Category
	}
	if input.Description != nil {
		course.Description = *input.Description
	}
	if input.StartTime != nil {
		if !input.StartTime.After(s.now().UTC()) {
			return nil, apperrors.InvalidInput("start time must be in the future")
		}
		course.StartTime = input.StartTime.UTC()
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, apperrors.InvalidInput("price must not be negative")
		}
		course.Price = *input.Price
	}
	if input.DurationHours != nil {
		course.DurationHours = *input.DurationHours
	}

	if err := s.courseRepo.Update(ctx, course); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "course updated",
		slog.Int64("course_id", course.ID),
	)

	return course, nil
}

// Delete removes a course. Courses with live enrollments are refused.
func (s *CourseService) Delete(ctx context.Context, id int64) error {
	if err := s.courseRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "course deleted",
		slog.Int64("course_id", id),
	)

	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lucadeg/Esame-de-gregorio/internal/domain"
	"github.com/lucadeg/Esame-de-gregorio/internal/event"
	"github.com/lucadeg/Esame-de-gregorio/internal/repository"
	apperrors "github.com/lucadeg/Esame-de-gregorio/pkg/errors"
	"github.com/lucadeg/Esame-de-gregorio/pkg/pagination"
)

// EnrollmentService implements the enrollment transaction and its read
// paths. The repository owns atomicity; this layer resolves the
// participant's tier quota and publishes the outcome.
type EnrollmentService struct {
	enrollmentRepo repository.EnrollmentRepository
	courseRepo     repository.CourseRepository
	userRepo       repository.UserRepository
	producer       *event.Producer
	logger         *slog.Logger
}

// NewEnrollmentService creates a new enrollment service.
func NewEnrollmentService(
	enrollmentRepo repository.EnrollmentRepository,
	courseRepo repository.CourseRepository,
	userRepo repository.UserRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *EnrollmentService {
	return &EnrollmentService{
		enrollmentRepo: enrollmentRepo,
		courseRepo:     courseRepo,
		userRepo:       userRepo,
		producer:       producer,
		logger:         logger,
	}
}

// Enroll seats a participant in a course. When the participant email
// belongs to a registered account, that account's subscription tier
// caps how many enrollments it may hold; unregistered participants are
// not capped.
func (s *EnrollmentService) Enroll(ctx context.Context, courseID int64, participant domain.Participant) (*domain.Enrollment, error) {
	if courseID <= 0 {
		return nil, apperrors.InvalidInput("course id must be positive")
	}
	if err := participant.Validate(); err != nil {
		return nil, err
	}

	quota, err := s.resolveQuota(ctx, participant.Email)
	if err != nil {
		return nil, err
	}

	enrollment, err := s.enrollmentRepo.Reserve(ctx, courseID, participant, quota)
	if err != nil {
		return nil, err
	}

	course, courseErr := s.courseRepo.GetByID(ctx, courseID)
	if courseErr != nil {
		course = nil
	}

	// Publish enrollment event (non-blocking on failure).
	if err := s.producer.PublishEnrollmentCreated(ctx, enrollment, course); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish enrollment.created event",
			slog.Int64("enrollment_id", enrollment.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "participant enrolled",
		slog.Int64("enrollment_id", enrollment.ID),
		slog.Int64("course_id", courseID),
		slog.String("participant_email", participant.Email),
	)

	return enrollment, nil
}

// Cancel removes an enrollment and restores the seat. Cancellation is
// refused once the course has started.
func (s *EnrollmentService) Cancel(ctx context.Context, enrollmentID int64) error {
	enrollment, err := s.enrollmentRepo.GetByID(ctx, enrollmentID)
	if err != nil {
		return err
	}

	if err := s.enrollmentRepo.Release(ctx, enrollmentID); err != nil {
		return err
	}

	course, courseErr := s.courseRepo.GetByID(ctx, enrollment.CourseID)
	if courseErr != nil {
		course = nil
	}

	// Publish cancellation event (non-blocking on failure).
	if err := s.producer.PublishEnrollmentCancelled(ctx, enrollment, course); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish enrollment.cancelled event",
			slog.Int64("enrollment_id", enrollment.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "enrollment cancelled",
		slog.Int64("enrollment_id", enrollment.ID),
		slog.Int64("course_id", enrollment.CourseID),
	)

	return nil
}

// Get retrieves an enrollment by ID.
func (s *EnrollmentService) Get(ctx context.Context, id int64) (*domain.Enrollment, error) {
	return s.enrollmentRepo.GetByID(ctx, id)
}

// ListByCourse returns a course's enrollments in insertion order. The
// course must exist.
func (s *EnrollmentService) ListByCourse(ctx context.Context, courseID int64) ([]domain.Enrollment, error) {
	if _, err := s.courseRepo.GetByID(ctx, courseID); err != nil {
		return nil, err
	}
	return s.enrollmentRepo.ListByCourse(ctx, courseID)
}

// ListByParticipant returns all enrollments held by the given email.
func (s *EnrollmentService) ListByParticipant(ctx context.Context, email string) ([]domain.Enrollment, error) {
	if email == "" {
		return nil, apperrors.InvalidInput("participant email is required")
	}
	return s.enrollmentRepo.ListByParticipant(ctx, email)
}

// List returns one page of all enrollments.
func (s *EnrollmentService) List(ctx context.Context, page pagination.Params) (pagination.Page[domain.Enrollment], error) {
	enrollments, total, err := s.enrollmentRepo.List(ctx, page)
	if err != nil {
		return pagination.Page[domain.Enrollment]{}, fmt.Errorf("list enrollments: %w", err)
	}
	return pagination.NewPage(enrollments, total, page), nil
}

// resolveQuota maps a participant email to the tier limits of the
// registered account holding it, or nil when no active account does.
func (s *EnrollmentService) resolveQuota(ctx context.Context, email string) (*domain.TierLimits, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve participant account: %w", err)
	}
	if !user.IsActive {
		return nil, nil
	}

	limits, ok := domain.LimitsFor(user.SubscriptionTier)
	if !ok {
		// Unknown tier on a stored row; treat as the free tier floor.
		limits, _ = domain.LimitsFor(domain.TierFree)
	}
	return &limits, nil
}

package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lucadeg/Esame-de-gregorio/internal/auth"
	"github.com/lucadeg/Esame-de-gregorio/internal/domain"
	"github.com/lucadeg/Esame-de-gregorio/internal/event"
	apperrors "github.com/lucadeg/Esame-de-gregorio/pkg/errors"
	pkgkafka "github.com/lucadeg/Esame-de-gregorio/pkg/kafka"
	"github.com/lucadeg/Esame-de-gregorio/pkg/pagination"
)

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *mockUserRepository) List(ctx context.Context, page pagination.Params) ([]domain.User, int, error) {
	args := m.Called(ctx, page)
	return args.Get(0).([]domain.User), args.Int(1), args.Error(2)
}

// --- Mock Course Repository ---

type mockCourseRepository struct {
	mock.Mock
}

func (m *mockCourseRepository) Create(ctx context.Context, course *domain.Course) error {
	args := m.Called(ctx, course)
	return args.Error(0)
}

func (m *mockCourseRepository) GetByID(ctx context.Context, id int64) (*domain.Course, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Course), args.Error(1)
}

func (m *mockCourseRepository) List(ctx context.Context, filter domain.CourseFilter, page pagination.Params) ([]domain.Course, int, error) {
	args := m.Called(ctx, filter, page)
	return args.Get(0).([]domain.Course), args.Int(1), args.Error(2)
}

func (m *mockCourseRepository) ListUpcoming(ctx context.Context, from time.Time) ([]domain.Course, error) {
	args := m.Called(ctx, from)
	return args.Get(0).([]domain.Course), args.Error(1)
}

func (m *mockCourseRepository) Update(ctx context.Context, course *domain.Course) error {
	args := m.Called(ctx, course)
	return args.Error(0)
}

func (m *mockCourseRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Mock Enrollment Repository ---

type mockEnrollmentRepository struct {
	mock.Mock
}

func (m *mockEnrollmentRepository) Reserve(ctx context.Context, courseID int64, participant domain.Participant, quota *domain.TierLimits) (*domain.Enrollment, error) {
	args := m.Called(ctx, courseID, participant, quota)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Enrollment), args.Error(1)
}

func (m *mockEnrollmentRepository) Release(ctx context.Context, enrollmentID int64) error {
	args := m.Called(ctx, enrollmentID)
	return args.Error(0)
}

func (m *mockEnrollmentRepository) GetByID(ctx context.Context, id int64) (*domain.Enrollment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Enrollment), args.Error(1)
}

func (m *mockEnrollmentRepository) ListByCourse(ctx context.Context, courseID int64) ([]domain.Enrollment, error) {
	args := m.Called(ctx, courseID)
	return args.Get(0).([]domain.Enrollment), args.Error(1)
}

func (m *mockEnrollmentRepository) ListByParticipant(ctx context.Context, email string) ([]domain.Enrollment, error) {
	args := m.Called(ctx, email)
	return args.Get(0).([]domain.Enrollment), args.Error(1)
}

func (m *mockEnrollmentRepository) List(ctx context.Context, page pagination.Params) ([]domain.Enrollment, int, error) {
	args := m.Called(ctx, page)
	return args.Get(0).([]domain.Enrollment), args.Int(1), args.Error(2)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestJWTManager() *auth.JWTManager {
	return auth.NewJWTManager("test-secret-key-for-testing", "coursehub-test", 15*time.Minute, 7*24*time.Hour)
}

func newTestEventProducer() *event.Producer {
	logger := newTestLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	return event.NewProducer(kafkaProducer, logger)
}

func strPtr(s string) *string {
	return &s
}

// requireAppCode asserts that err carries the given machine code.
func requireAppCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	require.Equal(t, code, appErr.Code)
}

package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/lucadeg/Esame-de-gregorio/internal/domain"
	pkgkafka "github.com/lucadeg/Esame-de-gregorio/pkg/kafka"
)

// Kafka topic constants for coursehub domain events.
const (
	TopicUserRegistered          = "coursehub.user.registered"
	TopicUserSubscriptionChanged = "coursehub.user.subscription_changed"
	TopicEnrollmentCreated       = "coursehub.enrollment.created"
	TopicEnrollmentCancelled     = "coursehub.enrollment.cancelled"
)

// Aggregate type constants.
const (
	AggregateTypeUser       = "user"
	AggregateTypeEnrollment = "enrollment"
)

// Source identifier for events originating from this service.
const SourceCoursehub = "coursehub"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// SubscriptionChangedData is the payload for a user.subscription_changed event.
type SubscriptionChangedData struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	PreviousTier string `json:"previous_tier"`
	NewTier      string `json:"new_tier"`
	ExpiresAt    string `json:"expires_at,omitempty"`
}

// EnrollmentData is the payload for enrollment.created and
// enrollment.cancelled events.
type EnrollmentData struct {
	EnrollmentID     int64  `json:"enrollment_id"`
	CourseID         int64  `json:"course_id"`
	CourseTitle      string `json:"course_title"`
	ParticipantEmail string `json:"participant_email"`
}

// Producer publishes coursehub domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new domain event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
	}

	event, err := pkgkafka.NewEvent(TopicUserRegistered, user.ID, AggregateTypeUser, SourceCoursehub, data)
	if err != nil {
		return fmt.Errorf("create user.registered event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserRegistered, event); err != nil {
		return fmt.Errorf("publish user.registered event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.registered event",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return nil
}

// PublishSubscriptionChanged publishes a user.subscription_changed event.
func (p *Producer) PublishSubscriptionChanged(ctx context.Context, user *domain.User, previousTier string) error {
	data := SubscriptionChangedData{
		UserID:       user.ID,
		Email:        user.Email,
		PreviousTier: previousTier,
		NewTier:      user.SubscriptionTier,
	}
	if user.SubscriptionExpiresAt != nil {
		data.ExpiresAt = user.SubscriptionExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}

	event, err := pkgkafka.NewEvent(TopicUserSubscriptionChanged, user.ID, AggregateTypeUser, SourceCoursehub, data)
	if err != nil {
		return fmt.Errorf("create user.subscription_changed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserSubscriptionChanged, event); err != nil {
		return fmt.Errorf("publish user.subscription_changed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.subscription_changed event",
		slog.String("user_id", user.ID),
		slog.String("new_tier", user.SubscriptionTier),
	)

	return nil
}

// PublishEnrollmentCreated publishes an enrollment.created event.
func (p *Producer) PublishEnrollmentCreated(ctx context.Context, enrollment *domain.Enrollment, course *domain.Course) error {
	return p.publishEnrollment(ctx, TopicEnrollmentCreated, "enrollment.created", enrollment, course)
}

// PublishEnrollmentCancelled publishes an enrollment.cancelled event.
func (p *Producer) PublishEnrollmentCancelled(ctx context.Context, enrollment *domain.Enrollment, course *domain.Course) error {
	return p.publishEnrollment(ctx, TopicEnrollmentCancelled, "enrollment.cancelled", enrollment, course)
}

func (p *Producer) publishEnrollment(ctx context.Context, topic, name string, enrollment *domain.Enrollment, course *domain.Course) error {
	data := EnrollmentData{
		EnrollmentID:     enrollment.ID,
		CourseID:         enrollment.CourseID,
		ParticipantEmail: enrollment.ParticipantEmail,
	}
	if course != nil {
		data.CourseTitle = course.Title
	}

	aggregateID := strconv.FormatInt(enrollment.ID, 10)

	event, err := pkgkafka.NewEvent(topic, aggregateID, AggregateTypeEnrollment, SourceCoursehub, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", name, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", name, err)
	}

	p.logger.DebugContext(ctx, "published "+name+" event",
		slog.Int64("enrollment_id", enrollment.ID),
		slog.Int64("course_id", enrollment.CourseID),
	)

	return nil
}

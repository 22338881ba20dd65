package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/lucadeg/Esame-de-gregorio/internal/domain"
	"github.com/lucadeg/Esame-de-gregorio/internal/event"
	"github.com/lucadeg/Esame-de-gregorio/internal/repository"
	apperrors "github.com/lucadeg/Esame-de-gregorio/pkg/errors"
)

// subscriptionWindow is how long a paid tier stays active per change.
const subscriptionWindow = 30 * 24 * time.Hour

// SubscriptionService manages subscription tiers as account attributes.
// Billing lives elsewhere; changing tier here only moves the attribute
// and its expiry window.
type SubscriptionService struct {
	userRepo repository.UserRepository
	producer *event.Producer
	logger   *slog.Logger
	now      func() time.Time
}

// NewSubscriptionService creates a new subscription service.
func NewSubscriptionService(userRepo repository.UserRepository, producer *event.Producer, logger *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		userRepo: userRepo,
		producer: producer,
		logger:   logger,
		now:      time.Now,
	}
}

// SubscriptionStatus describes an account's current tier.
type SubscriptionStatus struct {
	Tier      domain.TierLimits `json:"tier"`
	ExpiresAt *time.Time        `json:"expires_at,omitempty"`
}

// Tiers returns the static tier catalog.
func (s *SubscriptionService) Tiers() []domain.TierLimits {
	return domain.AllTiers()
}

// Get returns the account's current subscription status.
func (s *SubscriptionService) Get(ctx context.Context, userID string) (*SubscriptionStatus, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	limits, ok := domain.LimitsFor(user.SubscriptionTier)
	if !ok {
		limits, _ = domain.LimitsFor(domain.TierFree)
	}

	return &SubscriptionStatus{
		Tier:      limits,
		ExpiresAt: user.SubscriptionExpiresAt,
	}, nil
}

// Change moves the account to the given tier. Paid tiers get a 30-day
// expiry window from now; the free tier has no expiry.
func (s *SubscriptionService) Change(ctx context.Context, userID, tier string) (*SubscriptionStatus, error) {
	if !domain.IsValidTier(tier) {
		return nil, apperrors.InvalidInput("unknown subscription tier")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	previousTier := user.SubscriptionTier
	user.SubscriptionTier = tier
	if tier == domain.TierFree {
		user.SubscriptionExpiresAt = nil
	} else {
		expiresAt := s.now().UTC().Add(subscriptionWindow)
		user.SubscriptionExpiresAt = &expiresAt
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	// Publish subscription change event (non-blocking on failure).
	if err := s.producer.PublishSubscriptionChanged(ctx, user, previousTier); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.subscription_changed event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "subscription changed",
		slog.String("user_id", user.ID),
		slog.String("previous_tier", previousTier),
		slog.String("new_tier", tier),
	)

	limits, _ := domain.LimitsFor(tier)
	return &SubscriptionStatus{
		Tier:      limits,
		ExpiresAt: user.SubscriptionExpiresAt,
	}, nil
}

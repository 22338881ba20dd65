package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lucadeg/Esame-de-gregorio/internal/domain"
	apperrors "github.com/lucadeg/Esame-de-gregorio/pkg/errors"
)

func newTestSubscriptionService(userRepo *mockUserRepository) *SubscriptionService {
	svc := NewSubscriptionService(userRepo, newTestEventProducer(), newTestLogger())
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestSubscriptionService_Tiers(t *testing.T) {
	svc := newTestSubscriptionService(new(mockUserRepository))

	tiers := svc.Tiers()

	require.Len(t, tiers, 4)
	byName := make(map[string]domain.TierLimits, len(tiers))
	for _, tier := range tiers {
		byName[tier.Tier] = tier
	}
	assert.Equal(t, 3, byName[domain.TierFree].MaxCourses)
	assert.Equal(t, 10, byName[domain.TierBasic].MaxCourses)
	assert.Equal(t, 25, byName[domain.TierPremium].MaxCourses)
	assert.Equal(t, 100, byName[domain.TierEnterprise].MaxCourses)
}

func TestSubscriptionService_Get(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestSubscriptionService(userRepo)

	expiresAt := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	user := &domain.User{
		ID:                    "uid-1",
		SubscriptionTier:      domain.TierPremium,
		SubscriptionExpiresAt: &expiresAt,
	}
	userRepo.On("GetByID", mock.Anything, "uid-1").Return(user, nil)

	status, err := svc.Get(context.Background(), "uid-1")

	require.NoError(t, err)
	assert.Equal(t, domain.TierPremium, status.Tier.Tier)
	assert.Equal(t, 25, status.Tier.MaxCourses)
	require.NotNil(t, status.ExpiresAt)
	assert.Equal(t, expiresAt, *status.ExpiresAt)
}

func TestSubscriptionService_Change_ToPaidTier(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestSubscriptionService(userRepo)

	user := &domain.User{ID: "uid-1", Email: "mario.rossi@example.com", SubscriptionTier: domain.TierFree}
	userRepo.On("GetByID", mock.Anything, "uid-1").Return(user, nil)
	userRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	status, err := svc.Change(context.Background(), "uid-1", domain.TierPremium)

	require.NoError(t, err)
	assert.Equal(t, domain.TierPremium, status.Tier.Tier)
	require.NotNil(t, status.ExpiresAt)
	assert.Equal(t, time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC), *status.ExpiresAt)
	assert.Equal(t, domain.TierPremium, user.SubscriptionTier)
	userRepo.AssertExpectations(t)
}

func TestSubscriptionService_Change_DowngradeToFree(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestSubscriptionService(userRepo)

	expiresAt := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	user := &domain.User{
		ID:                    "uid-1",
		SubscriptionTier:      domain.TierBasic,
		SubscriptionExpiresAt: &expiresAt,
	}
	userRepo.On("GetByID", mock.Anything, "uid-1").Return(user, nil)
	userRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	status, err := svc.Change(context.Background(), "uid-1", domain.TierFree)

	require.NoError(t, err)
	assert.Nil(t, status.ExpiresAt)
	assert.Nil(t, user.SubscriptionExpiresAt)
	assert.Equal(t, domain.TierFree, user.SubscriptionTier)
}

func TestSubscriptionService_Change_UnknownTier(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestSubscriptionService(userRepo)

	_, err := svc.Change(context.Background(), "uid-1", "PLATINUM")

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	userRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	userRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lucadeg/Esame-de-gregorio/internal/domain"
	apperrors "github.com/lucadeg/Esame-de-gregorio/pkg/errors"
)

// hashForTest creates a bcrypt hash with minimum cost for fast tests.
func hashForTest(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newTestAuthService(userRepo *mockUserRepository) *AuthService {
	return NewAuthService(userRepo, newTestJWTManager(), newTestEventProducer(), newTestLogger())
}

func activeUser(t *testing.T, password string) *domain.User {
	return &domain.User{
		ID:               "5b2acf10-9d11-4c0e-8c3f-2a6d9d3c1f01",
		Email:            "mario.rossi@example.com",
		PasswordHash:     hashForTest(t, password),
		FirstName:        "Mario",
		LastName:         "Rossi",
		Role:             domain.RoleStudent,
		SubscriptionTier: domain.TierFree,
		IsActive:         true,
	}
}

func TestAuthService_Register_Success(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestAuthService(userRepo)

	userRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	user, tokens, err := svc.Register(context.Background(), RegisterInput{
		Email:     "anna.bianchi@example.com",
		Password:  "Sicura123",
		FirstName: "Anna",
		LastName:  "Bianchi",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, domain.RoleStudent, user.Role)
	assert.Equal(t, domain.TierFree, user.SubscriptionTier)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "Sicura123", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("Sicura123")))
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.True(t, tokens.ExpiresAt.After(time.Now()))
	userRepo.AssertExpectations(t)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestAuthService(userRepo)

	userRepo.On("Create", mock.Anything, mock.Anything).
		Return(domain.ErrEmailAlreadyExists("anna.bianchi@example.com"))

	_, _, err := svc.Register(context.Background(), RegisterInput{
		Email:     "anna.bianchi@example.com",
		Password:  "Sicura123",
		FirstName: "Anna",
		LastName:  "Bianchi",
	})

	requireAppCode(t, err, "EMAIL_ALREADY_EXISTS")
}

func TestAuthService_Register_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input RegisterInput
	}{
		{"missing email", RegisterInput{Password: "Sicura123", FirstName: "A", LastName: "B"}},
		{"malformed email", RegisterInput{Email: "not-an-email", Password: "Sicura123", FirstName: "A", LastName: "B"}},
		{"missing first name", RegisterInput{Email: "a@example.com", Password: "Sicura123", LastName: "B"}},
		{"short password", RegisterInput{Email: "a@example.com", Password: "Ab1", FirstName: "A", LastName: "B"}},
		{"weak password", RegisterInput{Email: "a@example.com", Password: "tuttominuscolo", FirstName: "A", LastName: "B"}},
		{"password over bcrypt limit", RegisterInput{Email: "a@example.com", Password: "Ab1" + strings.Repeat("x", 70), FirstName: "A", LastName: "B"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userRepo := new(mockUserRepository)
			svc := newTestAuthService(userRepo)

			_, _, err := svc.Register(context.Background(), tt.input)

			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
			userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestAuthService(userRepo)

	user := activeUser(t, "Sicura123")
	userRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
	userRepo.On("UpdateLastLogin", mock.Anything, user.ID, mock.AnythingOfType("time.Time")).Return(nil)

	got, tokens, err := svc.Login(context.Background(), LoginInput{
		Email:    user.Email,
		Password: "Sicura123",
	})

	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.NotNil(t, got.LastLoginAt)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	userRepo.AssertExpectations(t)
}

// Unknown email and wrong password must fail with the same code so the
// response shape reveals nothing about which accounts exist.
func TestAuthService_Login_ConstantFailureShape(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestAuthService(userRepo)

	user := activeUser(t, "Sicura123")
	userRepo.On("GetByEmail", mock.Anything, "nessuno@example.com").
		Return(nil, apperrors.NotFound("user", "nessuno@example.com"))
	userRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)

	_, _, unknownErr := svc.Login(context.Background(), LoginInput{
		Email:    "nessuno@example.com",
		Password: "Sicura123",
	})
	_, _, wrongPassErr := svc.Login(context.Background(), LoginInput{
		Email:    user.Email,
		Password: "Sbagliata99",
	})

	requireAppCode(t, unknownErr, "INVALID_CREDENTIALS")
	requireAppCode(t, wrongPassErr, "INVALID_CREDENTIALS")
	assert.Equal(t, unknownErr.Error(), wrongPassErr.Error())
}

func TestAuthService_Login_InactiveAccount(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestAuthService(userRepo)

	user := activeUser(t, "Sicura123")
	user.IsActive = false
	userRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)

	_, _, err := svc.Login(context.Background(), LoginInput{
		Email:    user.Email,
		Password: "Sicura123",
	})

	requireAppCode(t, err, "ACCOUNT_INACTIVE")
	userRepo.AssertNotCalled(t, "UpdateLastLogin", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_Login_StorageFailureIsNotCredentialError(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestAuthService(userRepo)

	userRepo.On("GetByEmail", mock.Anything, "mario.rossi@example.com").
		Return(nil, errors.New("dial tcp: connection refused"))

	_, _, err := svc.Login(context.Background(), LoginInput{
		Email:    "mario.rossi@example.com",
		Password: "Sicura123",
	})

	require.Error(t, err)
	var appErr *apperrors.AppError
	assert.False(t, errors.As(err, &appErr), "storage failure must stay an internal error, not a 401")
}

func TestAuthService_RefreshToken_StorageFailureIsNotTokenError(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestAuthService(userRepo)

	user := activeUser(t, "Sicura123")
	refreshToken, _, err := svc.jwtManager.IssueRefreshToken(user)
	require.NoError(t, err)

	userRepo.On("GetByID", mock.Anything, user.ID).
		Return(nil, errors.New("dial tcp: connection refused"))

	_, err = svc.RefreshToken(context.Background(), refreshToken)

	require.Error(t, err)
	var appErr *apperrors.AppError
	assert.False(t, errors.As(err, &appErr), "storage failure must stay an internal error, not a 401")
}

func TestAuthService_ValidateAccessToken_StorageFailureIsNotTokenError(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestAuthService(userRepo)

	user := activeUser(t, "Sicura123")
	accessToken, _, err := svc.jwtManager.IssueAccessToken(user)
	require.NoError(t, err)

	userRepo.On("GetByID", mock.Anything, user.ID).
		Return(nil, errors.New("dial tcp: connection refused"))

	_, err = svc.ValidateAccessToken(context.Background(), accessToken)

	require.Error(t, err)
	var appErr *apperrors.AppError
	assert.False(t, errors.As(err, &appErr), "storage failure must stay an internal error, not a 401")
}

func TestAuthService_RefreshToken_Success(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestAuthService(userRepo)

	user := activeUser(t, "Sicura123")
	refreshToken, _, err := svc.jwtManager.IssueRefreshToken(user)
	require.NoError(t, err)

	userRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	tokens, err := svc.RefreshToken(context.Background(), refreshToken)

	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	userRepo.AssertExpectations(t)
}

func TestAuthService_RefreshToken_AccessTokenRejected(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestAuthService(userRepo)

	user := activeUser(t, "Sicura123")
	accessToken, _, err := svc.jwtManager.IssueAccessToken(user)
	require.NoError(t, err)

	_, err = svc.RefreshToken(context.Background(), accessToken)

	requireAppCode(t, err, "TOKEN_INVALID")
	userRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestAuthService_RefreshToken_DeactivatedAccount(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestAuthService(userRepo)

	user := activeUser(t, "Sicura123")
	refreshToken, _, err := svc.jwtManager.IssueRefreshToken(user)
	require.NoError(t, err)

	deactivated := *user
	deactivated.IsActive = false
	userRepo.On("GetByID", mock.Anything, user.ID).Return(&deactivated, nil)

	_, err = svc.RefreshToken(context.Background(), refreshToken)

	requireAppCode(t, err, "ACCOUNT_INACTIVE")
}

func TestAuthService_ValidateAccessToken(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestAuthService(userRepo)

	user := activeUser(t, "Sicura123")
	accessToken, _, err := svc.jwtManager.IssueAccessToken(user)
	require.NoError(t, err)

	userRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	got, err := svc.ValidateAccessToken(context.Background(), accessToken)

	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, user.Role, got.Role)
}

func TestAuthService_ValidateAccessToken_Garbage(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestAuthService(userRepo)

	_, err := svc.ValidateAccessToken(context.Background(), "non.un.token")

	requireAppCode(t, err, "TOKEN_INVALID")
	userRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestAuthService_ChangePassword_Success(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestAuthService(userRepo)

	user := activeUser(t, "Vecchia123")
	userRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	userRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	err := svc.ChangePassword(context.Background(), user.ID, ChangePasswordInput{
		CurrentPassword: "Vecchia123",
		NewPassword:     "Nuova456AB",
		ConfirmPassword: "Nuova456AB",
	})

	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("Nuova456AB")))
	userRepo.AssertExpectations(t)
}

func TestAuthService_ChangePassword_Failures(t *testing.T) {
	tests := []struct {
		name     string
		input    ChangePasswordInput
		wantCode string
	}{
		{
			"wrong current password",
			ChangePasswordInput{CurrentPassword: "Sbagliata1", NewPassword: "Nuova456AB", ConfirmPassword: "Nuova456AB"},
			"INVALID_CURRENT_PASSWORD",
		},
		{
			"confirmation mismatch",
			ChangePasswordInput{CurrentPassword: "Vecchia123", NewPassword: "Nuova456AB", ConfirmPassword: "Altra789CD"},
			"PASSWORD_MISMATCH",
		},
		{
			"same as current",
			ChangePasswordInput{CurrentPassword: "Vecchia123", NewPassword: "Vecchia123", ConfirmPassword: "Vecchia123"},
			"SAME_PASSWORD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userRepo := new(mockUserRepository)
			svc := newTestAuthService(userRepo)

			user := activeUser(t, "Vecchia123")
			userRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil).Maybe()

			err := svc.ChangePassword(context.Background(), user.ID, tt.input)

			requireAppCode(t, err, tt.wantCode)
			userRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		})
	}
}

func TestAuthService_UpdateProfile(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestAuthService(userRepo)

	user := activeUser(t, "Sicura123")
	userRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	userRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	got, err := svc.UpdateProfile(context.Background(), user.ID, UpdateProfileInput{
		FirstName: strPtr("Maria"),
		Phone:     strPtr("+39 333 1234567"),
	})

	require.NoError(t, err)
	assert.Equal(t, "Maria", got.FirstName)
	assert.Equal(t, "Rossi", got.LastName)
	assert.Equal(t, "+39 333 1234567", got.Phone)
}

func TestAuthService_UpdateProfile_EmptyName(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestAuthService(userRepo)

	user := activeUser(t, "Sicura123")
	userRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	_, err := svc.UpdateProfile(context.Background(), user.ID, UpdateProfileInput{
		FirstName: strPtr(""),
	})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	userRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

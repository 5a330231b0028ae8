package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"housemarket/internal/auth"
	apperrors "housemarket/internal/errors"
	"housemarket/internal/model"
	"housemarket/internal/repository"
)

func newJWT() *auth.JWTService {
	return auth.NewJWTService("test-secret", time.Hour, 24*time.Hour)
}

func TestAuthService_Register(t *testing.T) {
	valid := RegisterInput{
		Username:    "alice",
		Email:       "test@example.com",
		Password:    "password123",
		PhoneNumber: "+15550100",
	}

	tests := []struct {
		name          string
		input         RegisterInput
		setupMock     func(*MockUserRepository)
		expectedError error
		expectedKind  error
	}{
		{
			name:  "successful registration",
			input: valid,
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(nil, repository.ErrNotFound)
				m.On("FindByUsername", mock.Anything, "alice").Return(nil, repository.ErrNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
		},
		{
			name:  "email already registered",
			input: valid,
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(&model.User{Email: "test@example.com"}, nil)
			},
			expectedError: ErrEmailTaken,
			expectedKind:  apperrors.ErrConflict,
		},
		{
			name:  "username already taken",
			input: valid,
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(nil, repository.ErrNotFound)
				m.On("FindByUsername", mock.Anything, "alice").Return(&model.User{Username: "alice"}, nil)
			},
			expectedError: ErrUsernameTaken,
			expectedKind:  apperrors.ErrConflict,
		},
		{
			name:  "lost race on unique index",
			input: valid,
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(nil, repository.ErrNotFound)
				m.On("FindByUsername", mock.Anything, "alice").Return(nil, repository.ErrNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(repository.ErrDuplicate)
			},
			expectedKind: apperrors.ErrConflict,
		},
		{
			name:         "missing required fields",
			input:        RegisterInput{Username: "alice", Email: " "},
			setupMock:    func(m *MockUserRepository) {},
			expectedKind: apperrors.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			service := NewAuthService(mockRepo, newJWT(), new(MockTokenStore), zap.NewNop())
			user, err := service.Register(context.Background(), tt.input)

			if tt.expectedKind != nil {
				assert.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedKind)
				if tt.expectedError != nil {
					assert.Equal(t, tt.expectedError, err)
				}
				assert.Nil(t, user)
			} else {
				assert.NoError(t, err)
				require.NotNil(t, user)
				assert.Equal(t, tt.input.Email, user.Email)
				assert.Equal(t, tt.input.Username, user.Username)
				assert.NotEqual(t, tt.input.Password, user.PasswordHash)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(tt.input.Password)))
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Register_ReportsEveryMissingField(t *testing.T) {
	service := NewAuthService(new(MockUserRepository), newJWT(), new(MockTokenStore), zap.NewNop())

	_, err := service.Register(context.Background(), RegisterInput{Username: "alice"})

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, []string{"email", "password", "phoneNumber"}, appErr.Fields)
}

func TestAuthService_Login(t *testing.T) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := &model.User{
		ID:           "user-1",
		Username:     "alice",
		Email:        "test@example.com",
		PasswordHash: string(hashedPassword),
	}

	tests := []struct {
		name          string
		email         string
		password      string
		setupMock     func(*MockUserRepository, *MockTokenStore)
		expectedError error
	}{
		{
			name:     "successful login",
			email:    "test@example.com",
			password: "password123",
			setupMock: func(mRepo *MockUserRepository, mToken *MockTokenStore) {
				mRepo.On("FindByEmail", mock.Anything, "test@example.com").Return(stored, nil)
				mToken.On("StoreRefreshToken", mock.Anything, mock.AnythingOfType("string"), "user-1", "test@example.com", 24*time.Hour).Return(nil)
			},
		},
		{
			name:     "invalid credentials - user not found",
			email:    "notfound@example.com",
			password: "password123",
			setupMock: func(mRepo *MockUserRepository, mToken *MockTokenStore) {
				mRepo.On("FindByEmail", mock.Anything, "notfound@example.com").Return(nil, repository.ErrNotFound)
			},
			expectedError: ErrInvalidCredentials,
		},
		{
			name:     "invalid credentials - wrong password",
			email:    "test@example.com",
			password: "wrong",
			setupMock: func(mRepo *MockUserRepository, mToken *MockTokenStore) {
				mRepo.On("FindByEmail", mock.Anything, "test@example.com").Return(stored, nil)
			},
			expectedError: ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			mockTokenStore := new(MockTokenStore)
			tt.setupMock(mockRepo, mockTokenStore)

			jwtService := newJWT()
			service := NewAuthService(mockRepo, jwtService, mockTokenStore, zap.NewNop())

			accessToken, refreshToken, user, err := service.Login(context.Background(), tt.email, tt.password)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Equal(t, tt.expectedError, err)
				assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
				assert.Empty(t, accessToken)
				assert.Empty(t, refreshToken)
				assert.Nil(t, user)
			} else {
				assert.NoError(t, err)
				require.NotNil(t, user)
				assert.Equal(t, tt.email, user.Email)
				claims, err := jwtService.ValidateToken(accessToken)
				require.NoError(t, err)
				assert.Equal(t, "user-1", claims.UserID)
				assert.NotEmpty(t, refreshToken)
			}

			mockRepo.AssertExpectations(t)
			mockTokenStore.AssertExpectations(t)
		})
	}
}

func TestAuthService_RefreshToken(t *testing.T) {
	jwtService := newJWT()
	tokenID, refresh, err := jwtService.GenerateRefreshToken("user-1", "a@x.com")
	require.NoError(t, err)

	t.Run("issues a new access token", func(t *testing.T) {
		store := new(MockTokenStore)
		store.On("GetRefreshToken", mock.Anything, tokenID).Return("user-1", "a@x.com", nil)
		service := NewAuthService(new(MockUserRepository), jwtService, store, zap.NewNop())

		access, err := service.RefreshToken(context.Background(), refresh)
		require.NoError(t, err)
		claims, err := jwtService.ValidateToken(access)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
		store.AssertExpectations(t)
	})

	t.Run("revoked refresh token", func(t *testing.T) {
		store := new(MockTokenStore)
		store.On("GetRefreshToken", mock.Anything, tokenID).Return("", "", auth.ErrRefreshTokenNotFound)
		service := NewAuthService(new(MockUserRepository), jwtService, store, zap.NewNop())

		_, err := service.RefreshToken(context.Background(), refresh)
		assert.Equal(t, ErrInvalidRefreshToken, err)
	})

	t.Run("garbage token", func(t *testing.T) {
		service := NewAuthService(new(MockUserRepository), jwtService, new(MockTokenStore), zap.NewNop())

		_, err := service.RefreshToken(context.Background(), "garbage")
		assert.Equal(t, ErrInvalidRefreshToken, err)
	})

	t.Run("access token in place of refresh token", func(t *testing.T) {
		access, err := jwtService.GenerateAccessToken("user-1", "a@x.com")
		require.NoError(t, err)
		store := new(MockTokenStore)
		service := NewAuthService(new(MockUserRepository), jwtService, store, zap.NewNop())

		_, err = service.RefreshToken(context.Background(), access)
		assert.Equal(t, ErrInvalidRefreshToken, err)
		store.AssertNotCalled(t, "GetRefreshToken", mock.Anything, mock.Anything)
	})
}

func TestAuthService_Logout(t *testing.T) {
	jwtService := newJWT()
	access, err := jwtService.GenerateAccessToken("user-1", "a@x.com")
	require.NoError(t, err)
	accessClaims, err := jwtService.ValidateToken(access)
	require.NoError(t, err)
	refreshID, refresh, err := jwtService.GenerateRefreshToken("user-1", "a@x.com")
	require.NoError(t, err)
	_, foreignRefresh, err := jwtService.GenerateRefreshToken("user-2", "b@x.com")
	require.NoError(t, err)

	t.Run("revokes access and refresh tokens", func(t *testing.T) {
		store := new(MockTokenStore)
		store.On("BlacklistAccessToken", mock.Anything, accessClaims.ID, mock.AnythingOfType("time.Duration")).Return(nil)
		store.On("DeleteRefreshToken", mock.Anything, refreshID).Return(nil)
		service := NewAuthService(new(MockUserRepository), jwtService, store, zap.NewNop())

		require.NoError(t, service.Logout(context.Background(), accessClaims, refresh))
		store.AssertExpectations(t)
	})

	t.Run("access token only", func(t *testing.T) {
		store := new(MockTokenStore)
		store.On("BlacklistAccessToken", mock.Anything, accessClaims.ID, mock.AnythingOfType("time.Duration")).Return(nil)
		service := NewAuthService(new(MockUserRepository), jwtService, store, zap.NewNop())

		require.NoError(t, service.Logout(context.Background(), accessClaims, ""))
		store.AssertExpectations(t)
		store.AssertNotCalled(t, "DeleteRefreshToken", mock.Anything, mock.Anything)
	})

	t.Run("refresh token of another user", func(t *testing.T) {
		store := new(MockTokenStore)
		service := NewAuthService(new(MockUserRepository), jwtService, store, zap.NewNop())

		err := service.Logout(context.Background(), accessClaims, foreignRefresh)
		assert.Equal(t, ErrInvalidRefreshToken, err)
		store.AssertNotCalled(t, "BlacklistAccessToken", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("access token in place of refresh token", func(t *testing.T) {
		store := new(MockTokenStore)
		service := NewAuthService(new(MockUserRepository), jwtService, store, zap.NewNop())

		err := service.Logout(context.Background(), accessClaims, access)
		assert.Equal(t, ErrInvalidRefreshToken, err)
		store.AssertNotCalled(t, "BlacklistAccessToken", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("no claims", func(t *testing.T) {
		service := NewAuthService(new(MockUserRepository), jwtService, new(MockTokenStore), zap.NewNop())

		err := service.Logout(context.Background(), nil, "")
		assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	})
}

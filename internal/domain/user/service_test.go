// internal/domain/user/service_test.go
package user

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/retail-backend/internal/config"
	"github.com/your-org/retail-backend/internal/pkg/apperrors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}))

	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret-key-that-is-long-enough-for-hs256"
	cfg.JWT.AccessTokenExpiry = 15 * time.Minute
	cfg.JWT.RefreshTokenExpiry = 24 * time.Hour
	// minimum bcrypt cost keeps the suite fast
	cfg.Security.BcryptCost = 4

	return NewService(db, cfg)
}

func registerRequest() *RegisterRequest {
	return &RegisterRequest{
		Email:           "Owner@Example.com",
		Password:        "Str0ng!pass",
		ConfirmPassword: "Str0ng!pass",
		FirstName:       "Priya",
		LastName:        "Sharma",
		Phone:           "9876543210",
	}
}

func TestRegister(t *testing.T) {
	svc := newTestService(t)

	t.Run("issues tokens and lowercases the email", func(t *testing.T) {
		resp, err := svc.Register(registerRequest())
		require.NoError(t, err)

		assert.Equal(t, "owner@example.com", resp.User.Email)
		assert.True(t, resp.User.IsActive)
		assert.False(t, resp.User.IsAdmin)
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)
		assert.Equal(t, int64(900), resp.ExpiresIn)
		assert.Empty(t, resp.User.Password)
		assert.NotNil(t, resp.User.LastLoginAt)
	})

	t.Run("rejects a duplicate email", func(t *testing.T) {
		_, err := svc.Register(registerRequest())
		var validationErr *apperrors.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Contains(t, err.Error(), "already exists")
	})

	t.Run("rejects mismatched confirmation", func(t *testing.T) {
		req := registerRequest()
		req.Email = "other@example.com"
		req.ConfirmPassword = "Different!1"
		_, err := svc.Register(req)
		var validationErr *apperrors.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Contains(t, err.Error(), "passwords do not match")
	})

	t.Run("rejects a weak password", func(t *testing.T) {
		req := registerRequest()
		req.Email = "other@example.com"
		req.Password = "short"
		req.ConfirmPassword = "short"
		_, err := svc.Register(req)
		var validationErr *apperrors.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})
}

func TestLogin(t *testing.T) {
	svc := newTestService(t)

	registered, err := svc.Register(registerRequest())
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		resp, err := svc.Login(&LoginRequest{Email: "owner@example.com", Password: "Str0ng!pass"})
		require.NoError(t, err)
		assert.Equal(t, registered.User.ID, resp.User.ID)
		assert.NotEmpty(t, resp.AccessToken)
		assert.Empty(t, resp.User.Password)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(&LoginRequest{Email: "owner@example.com", Password: "Wrong!pass1"})
		var validationErr *apperrors.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Contains(t, err.Error(), "invalid email or password")
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(&LoginRequest{Email: "nobody@example.com", Password: "Str0ng!pass"})
		assert.ErrorContains(t, err, "invalid email or password")
	})

	t.Run("deactivated account", func(t *testing.T) {
		require.NoError(t, svc.db.Model(&User{}).
			Where("id = ?", registered.User.ID).
			Update("is_active", false).Error)

		_, err := svc.Login(&LoginRequest{Email: "owner@example.com", Password: "Str0ng!pass"})
		assert.ErrorContains(t, err, "invalid email or password")
	})
}

func TestRefreshToken(t *testing.T) {
	svc := newTestService(t)

	registered, err := svc.Register(registerRequest())
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		resp, err := svc.RefreshToken(registered.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, registered.User.ID, resp.User.ID)
		assert.NotEmpty(t, resp.AccessToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.RefreshToken("not-a-jwt")
		var validationErr *apperrors.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Contains(t, err.Error(), "invalid refresh token")
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		_, err := svc.RefreshToken(registered.AccessToken)
		assert.ErrorContains(t, err, "invalid refresh token")
	})

	t.Run("deactivated account", func(t *testing.T) {
		require.NoError(t, svc.db.Model(&User{}).
			Where("id = ?", registered.User.ID).
			Update("is_active", false).Error)

		_, err := svc.RefreshToken(registered.RefreshToken)
		assert.ErrorContains(t, err, "not found or inactive")
	})
}

func TestGetProfile(t *testing.T) {
	svc := newTestService(t)

	registered, err := svc.Register(registerRequest())
	require.NoError(t, err)

	profile, err := svc.GetProfile(registered.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", profile.Email)
	assert.Empty(t, profile.Password)

	_, err = svc.GetProfile(9999)
	var notFoundErr *apperrors.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
}

func TestUpdateProfile(t *testing.T) {
	svc := newTestService(t)

	registered, err := svc.Register(registerRequest())
	require.NoError(t, err)

	t.Run("partial update keeps the other fields", func(t *testing.T) {
		updated, err := svc.UpdateProfile(registered.User.ID, &UpdateProfileRequest{
			FirstName: "Arjun",
		})
		require.NoError(t, err)
		assert.Equal(t, "Arjun", updated.FirstName)
		assert.Equal(t, "Sharma", updated.LastName)
		assert.Equal(t, "9876543210", updated.Phone)
	})

	t.Run("empty request is a no-op", func(t *testing.T) {
		updated, err := svc.UpdateProfile(registered.User.ID, &UpdateProfileRequest{})
		require.NoError(t, err)
		assert.Equal(t, "Arjun", updated.FirstName)
	})
}

func TestChangePassword(t *testing.T) {
	svc := newTestService(t)

	registered, err := svc.Register(registerRequest())
	require.NoError(t, err)

	t.Run("rejects a wrong current password", func(t *testing.T) {
		err := svc.ChangePassword(registered.User.ID, &ChangePasswordRequest{
			CurrentPassword: "Wrong!pass1",
			NewPassword:     "N3w!secret",
		})
		var validationErr *apperrors.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Contains(t, err.Error(), "current password is incorrect")
	})

	t.Run("rejects a weak new password", func(t *testing.T) {
		err := svc.ChangePassword(registered.User.ID, &ChangePasswordRequest{
			CurrentPassword: "Str0ng!pass",
			NewPassword:     "weak",
		})
		var validationErr *apperrors.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("new password works for login", func(t *testing.T) {
		require.NoError(t, svc.ChangePassword(registered.User.ID, &ChangePasswordRequest{
			CurrentPassword: "Str0ng!pass",
			NewPassword:     "N3w!secret",
		}))

		_, err := svc.Login(&LoginRequest{Email: "owner@example.com", Password: "Str0ng!pass"})
		assert.Error(t, err)
		_, err = svc.Login(&LoginRequest{Email: "owner@example.com", Password: "N3w!secret"})
		assert.NoError(t, err)
	})
}

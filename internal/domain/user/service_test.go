// internal/domain/user/service_test.go
package user_test

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newUserTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(postgres.Models()...))
	return db
}

func newUserService(t *testing.T) *user.Service {
	t.Helper()
	cfg := &config.Config{
		JWT: config.JWTConfig{
			Secret:             "test-jwt-secret",
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: 7 * 24 * time.Hour,
		},
		Security: config.SecurityConfig{BcryptCost: 4},
	}
	return user.NewService(newUserTestDB(t), cfg)
}

func registerRequest() *user.RegisterRequest {
	return &user.RegisterRequest{
		Email:           "Khach.Hang@Example.Com",
		Password:        "matkhau123",
		ConfirmPassword: "matkhau123",
		FirstName:       "Khách",
		LastName:        "Hàng",
		Phone:           "0901234567",
	}
}

func TestRegister(t *testing.T) {
	service := newUserService(t)

	resp, err := service.Register(registerRequest())
	require.NoError(t, err)

	assert.Equal(t, "khach.hang@example.com", resp.User.Email)
	assert.True(t, resp.User.IsActive)
	assert.False(t, resp.User.IsAdmin)
	assert.NotEqual(t, "matkhau123", resp.User.Password)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Greater(t, resp.ExpiresIn, int64(0))
}

func TestRegisterPasswordMismatch(t *testing.T) {
	service := newUserService(t)

	req := registerRequest()
	req.ConfirmPassword = "khac"
	_, err := service.Register(req)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	service := newUserService(t)

	_, err := service.Register(registerRequest())
	require.NoError(t, err)

	// Same address with different casing and whitespace
	req := registerRequest()
	req.Email = "  KHACH.HANG@example.com "
	_, err = service.Register(req)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
}

func TestLogin(t *testing.T) {
	service := newUserService(t)

	_, err := service.Register(registerRequest())
	require.NoError(t, err)

	resp, err := service.Login(&user.LoginRequest{
		Email:    "khach.hang@example.com",
		Password: "matkhau123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)

	profile, err := service.GetProfile(resp.User.ID)
	require.NoError(t, err)
	assert.NotNil(t, profile.LastLoginAt)

	_, err = service.Login(&user.LoginRequest{
		Email:    "khach.hang@example.com",
		Password: "sai-mat-khau",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = service.Login(&user.LoginRequest{
		Email:    "khong.ton.tai@example.com",
		Password: "matkhau123",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestRefreshToken(t *testing.T) {
	service := newUserService(t)

	registered, err := service.Register(registerRequest())
	require.NoError(t, err)

	refreshed, err := service.RefreshToken(registered.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, refreshed.User.ID)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = service.RefreshToken("not-a-token")
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	// An access token is not accepted as a refresh token
	_, err = service.RefreshToken(registered.AccessToken)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestChangePassword(t *testing.T) {
	service := newUserService(t)

	registered, err := service.Register(registerRequest())
	require.NoError(t, err)
	userID := registered.User.ID

	err = service.ChangePassword(userID, "sai-mat-khau", "matkhaumoi456")
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	require.NoError(t, service.ChangePassword(userID, "matkhau123", "matkhaumoi456"))

	_, err = service.Login(&user.LoginRequest{
		Email:    "khach.hang@example.com",
		Password: "matkhau123",
	})
	require.Error(t, err)

	_, err = service.Login(&user.LoginRequest{
		Email:    "khach.hang@example.com",
		Password: "matkhaumoi456",
	})
	require.NoError(t, err)
}

func TestUpdateProfile(t *testing.T) {
	service := newUserService(t)

	registered, err := service.Register(registerRequest())
	require.NoError(t, err)

	name := "Minh"
	phone := "0987654321"
	updated, err := service.UpdateProfile(registered.User.ID, &user.UpdateProfileRequest{
		FirstName: &name,
		Phone:     &phone,
	})
	require.NoError(t, err)
	assert.Equal(t, "Minh", updated.FirstName)
	assert.Equal(t, "Hàng", updated.LastName)
	assert.Equal(t, "0987654321", updated.Phone)

	_, err = service.GetProfile(999)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

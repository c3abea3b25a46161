// internal/domain/user/admin_service.go
package user

import (
	"errors"
	"fmt"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

// AdminService handles admin-side user management
type AdminService struct {
	db     *gorm.DB
	config *config.Config
}

// NewAdminService creates a new admin user service
func NewAdminService(db *gorm.DB, cfg *config.Config) *AdminService {
	return &AdminService{db: db, config: cfg}
}

// UserListRequest represents admin user list query parameters
type UserListRequest struct {
	Page     int    `form:"page,default=1"`
	Limit    int    `form:"limit,default=20"`
	Search   string `form:"search"`
	IsActive *bool  `form:"is_active"`
}

// UserListResponse represents a paginated user listing
type UserListResponse struct {
	Users []User `json:"users"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Total int64  `json:"total"`
}

// ListUsers retrieves users with filtering and pagination
func (s *AdminService) ListUsers(req *UserListRequest) (*UserListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	query := s.db.Model(&User{})
	if req.Search != "" {
		pattern := "%" + req.Search + "%"
		query = query.Where("email ILIKE ? OR first_name ILIKE ? OR last_name ILIKE ?", pattern, pattern, pattern)
	}
	if req.IsActive != nil {
		query = query.Where("is_active = ?", *req.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	var users []User
	offset := (req.Page - 1) * req.Limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(req.Limit).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve users: %w", err)
	}

	return &UserListResponse{
		Users: users,
		Page:  req.Page,
		Limit: req.Limit,
		Total: total,
	}, nil
}

// SetUserActive activates or deactivates an account
func (s *AdminService) SetUserActive(userID uint, active bool) error {
	var target User
	if err := s.db.First(&target, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("user %d not found", userID)
		}
		return fmt.Errorf("failed to retrieve user: %w", err)
	}

	if err := s.db.Model(&target).Update("is_active", active).Error; err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}
	return nil
}

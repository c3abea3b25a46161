// internal/domain/user/address_service.go
package user

import (
	"errors"
	"fmt"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/location"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

// AddressService handles address book business logic
type AddressService struct {
	db              *gorm.DB
	config          *config.Config
	locationService *location.Service
}

// NewAddressService creates a new address service
func NewAddressService(db *gorm.DB, cfg *config.Config) *AddressService {
	return &AddressService{
		db:              db,
		config:          cfg,
		locationService: location.NewService(db),
	}
}

// CreateAddressRequest represents address creation data
type CreateAddressRequest struct {
	ReceiverName string `json:"receiver_name" binding:"required"`
	Phone        string `json:"phone" binding:"required"`
	AddressLine  string `json:"address_line" binding:"required"`
	ProvinceID   uint   `json:"province_id" binding:"required"`
	DistrictID   uint   `json:"district_id" binding:"required"`
	WardID       uint   `json:"ward_id" binding:"required"`
	IsDefault    bool   `json:"is_default"`
}

// UpdateAddressRequest represents address update data
type UpdateAddressRequest struct {
	ReceiverName *string `json:"receiver_name"`
	Phone        *string `json:"phone"`
	AddressLine  *string `json:"address_line"`
	ProvinceID   *uint   `json:"province_id"`
	DistrictID   *uint   `json:"district_id"`
	WardID       *uint   `json:"ward_id"`
	IsDefault    *bool   `json:"is_default"`
}

// GetUserAddresses retrieves all addresses for a user, default first
func (s *AddressService) GetUserAddresses(userID uint) ([]Address, error) {
	var addresses []Address
	err := s.db.
		Preload("Province").Preload("District").Preload("Ward").
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC").
		Find(&addresses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve addresses: %w", err)
	}
	return addresses, nil
}

// GetAddress retrieves a specific address for a user
func (s *AddressService) GetAddress(userID, addressID uint) (*Address, error) {
	var address Address
	result := s.db.
		Preload("Province").Preload("District").Preload("Ward").
		Where("id = ? AND user_id = ?", addressID, userID).
		First(&address)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("address %d not found", addressID)
		}
		return nil, fmt.Errorf("failed to retrieve address: %w", result.Error)
	}
	return &address, nil
}

// CreateAddress creates a new address for a user
func (s *AddressService) CreateAddress(userID uint, req *CreateAddressRequest) (*Address, error) {
	// Validate the hierarchy triple before writing anything
	if _, err := s.locationService.Resolve(req.ProvinceID, req.DistrictID, req.WardID); err != nil {
		return nil, err
	}

	address := Address{
		UserID:       userID,
		ReceiverName: req.ReceiverName,
		Phone:        req.Phone,
		AddressLine:  req.AddressLine,
		ProvinceID:   req.ProvinceID,
		DistrictID:   req.DistrictID,
		WardID:       req.WardID,
		IsDefault:    req.IsDefault,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if req.IsDefault {
			if err := s.unsetDefaultAddresses(tx, userID); err != nil {
				return err
			}
		}
		if err := tx.Create(&address).Error; err != nil {
			return fmt.Errorf("failed to create address: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetAddress(userID, address.ID)
}

// UpdateAddress updates an existing address
func (s *AddressService) UpdateAddress(userID, addressID uint, req *UpdateAddressRequest) (*Address, error) {
	address, err := s.GetAddress(userID, addressID)
	if err != nil {
		return nil, err
	}

	provinceID := address.ProvinceID
	districtID := address.DistrictID
	wardID := address.WardID
	if req.ProvinceID != nil {
		provinceID = *req.ProvinceID
	}
	if req.DistrictID != nil {
		districtID = *req.DistrictID
	}
	if req.WardID != nil {
		wardID = *req.WardID
	}
	if _, err := s.locationService.Resolve(provinceID, districtID, wardID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"province_id": provinceID,
		"district_id": districtID,
		"ward_id":     wardID,
	}
	if req.ReceiverName != nil {
		updates["receiver_name"] = *req.ReceiverName
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.AddressLine != nil {
		updates["address_line"] = *req.AddressLine
	}
	if req.IsDefault != nil {
		updates["is_default"] = *req.IsDefault
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if req.IsDefault != nil && *req.IsDefault {
			if err := s.unsetDefaultAddresses(tx, userID); err != nil {
				return err
			}
		}
		if err := tx.Model(&Address{}).Where("id = ?", addressID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update address: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetAddress(userID, addressID)
}

// DeleteAddress removes an address from the user's address book
func (s *AddressService) DeleteAddress(userID, addressID uint) error {
	if _, err := s.GetAddress(userID, addressID); err != nil {
		return err
	}

	if err := s.db.Where("id = ? AND user_id = ?", addressID, userID).Delete(&Address{}).Error; err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}
	return nil
}

// SetDefaultAddress marks one address as the user's default
func (s *AddressService) SetDefaultAddress(userID, addressID uint) error {
	if _, err := s.GetAddress(userID, addressID); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.unsetDefaultAddresses(tx, userID); err != nil {
			return err
		}
		if err := tx.Model(&Address{}).Where("id = ?", addressID).Update("is_default", true).Error; err != nil {
			return fmt.Errorf("failed to set default address: %w", err)
		}
		return nil
	})
}

func (s *AddressService) unsetDefaultAddresses(tx *gorm.DB, userID uint) error {
	if err := tx.Model(&Address{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error; err != nil {
		return fmt.Errorf("failed to unset default addresses: %w", err)
	}
	return nil
}

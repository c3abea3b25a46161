// internal/domain/location/service.go
package location

import (
	"errors"
	"fmt"

	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

// Service handles address hierarchy lookups
type Service struct {
	db *gorm.DB
}

// NewService creates a new location service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// GetProvinces retrieves all provinces ordered by name
func (s *Service) GetProvinces() ([]Province, error) {
	var provinces []Province
	if err := s.db.Order("name ASC").Find(&provinces).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve provinces: %w", err)
	}
	return provinces, nil
}

// GetDistricts retrieves all districts of a province
func (s *Service) GetDistricts(provinceID uint) ([]District, error) {
	if err := s.ensureExists(&Province{}, provinceID, "province"); err != nil {
		return nil, err
	}

	var districts []District
	if err := s.db.Where("province_id = ?", provinceID).Order("name ASC").Find(&districts).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve districts: %w", err)
	}
	return districts, nil
}

// GetWards retrieves all wards of a district
func (s *Service) GetWards(districtID uint) ([]Ward, error) {
	if err := s.ensureExists(&District{}, districtID, "district"); err != nil {
		return nil, err
	}

	var wards []Ward
	if err := s.db.Where("district_id = ?", districtID).Order("name ASC").Find(&wards).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve wards: %w", err)
	}
	return wards, nil
}

// ResolvedAddress carries the names of one node per hierarchy level
type ResolvedAddress struct {
	ProvinceName string
	DistrictName string
	WardName     string
}

// Resolve loads the names for a province/district/ward triple and verifies
// the ward belongs to the district and the district to the province
func (s *Service) Resolve(provinceID, districtID, wardID uint) (*ResolvedAddress, error) {
	var province Province
	if err := s.db.First(&province, provinceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("province %d not found", provinceID)
		}
		return nil, fmt.Errorf("failed to retrieve province: %w", err)
	}

	var district District
	if err := s.db.Where("id = ? AND province_id = ?", districtID, provinceID).First(&district).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("district %d not found in province %d", districtID, provinceID)
		}
		return nil, fmt.Errorf("failed to retrieve district: %w", err)
	}

	var ward Ward
	if err := s.db.Where("id = ? AND district_id = ?", wardID, districtID).First(&ward).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("ward %d not found in district %d", wardID, districtID)
		}
		return nil, fmt.Errorf("failed to retrieve ward: %w", err)
	}

	return &ResolvedAddress{
		ProvinceName: province.Name,
		DistrictName: district.Name,
		WardName:     ward.Name,
	}, nil
}

func (s *Service) ensureExists(model interface{}, id uint, name string) error {
	if err := s.db.First(model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("%s %d not found", name, id)
		}
		return fmt.Errorf("failed to retrieve %s: %w", name, err)
	}
	return nil
}

// internal/domain/user/address_service_test.go
package user_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/location"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

// seedLocations builds two provinces with one district and ward each so
// cross-province triples can be rejected.
func seedLocations(t *testing.T, db *gorm.DB) {
	t.Helper()

	require.NoError(t, db.Create(&location.Province{ID: 1, Code: "HN", Name: "Hà Nội"}).Error)
	require.NoError(t, db.Create(&location.District{ID: 1, ProvinceID: 1, Code: "HN-BD", Name: "Ba Đình"}).Error)
	require.NoError(t, db.Create(&location.Ward{ID: 1, DistrictID: 1, Code: "HN-BD-PX", Name: "Phúc Xá"}).Error)

	require.NoError(t, db.Create(&location.Province{ID: 2, Code: "HCM", Name: "Hồ Chí Minh"}).Error)
	require.NoError(t, db.Create(&location.District{ID: 2, ProvinceID: 2, Code: "HCM-Q1", Name: "Quận 1"}).Error)
	require.NoError(t, db.Create(&location.Ward{ID: 2, DistrictID: 2, Code: "HCM-Q1-BN", Name: "Bến Nghé"}).Error)
}

func newAddressFixture(t *testing.T) (*user.AddressService, uint) {
	t.Helper()

	db := newUserTestDB(t)
	seedLocations(t, db)

	u := user.User{Email: "dia.chi@example.com", Password: "x", IsActive: true}
	require.NoError(t, db.Create(&u).Error)

	return user.NewAddressService(db, &config.Config{}), u.ID
}

func addressRequest(isDefault bool) *user.CreateAddressRequest {
	return &user.CreateAddressRequest{
		ReceiverName: "Nguyễn Văn A",
		Phone:        "0901234567",
		AddressLine:  "12 Lý Thường Kiệt",
		ProvinceID:   1,
		DistrictID:   1,
		WardID:       1,
		IsDefault:    isDefault,
	}
}

func TestCreateAddress(t *testing.T) {
	service, userID := newAddressFixture(t)

	address, err := service.CreateAddress(userID, addressRequest(true))
	require.NoError(t, err)

	assert.True(t, address.IsDefault)
	assert.Equal(t, "Hà Nội", address.Province.Name)
	assert.Equal(t, "Ba Đình", address.District.Name)
	assert.Equal(t, "Phúc Xá", address.Ward.Name)
}

func TestCreateAddressRejectsMismatchedHierarchy(t *testing.T) {
	service, userID := newAddressFixture(t)

	// District belongs to another province
	req := addressRequest(false)
	req.DistrictID = 2
	_, err := service.CreateAddress(userID, req)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	// Ward belongs to another district
	req = addressRequest(false)
	req.WardID = 2
	_, err = service.CreateAddress(userID, req)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	addresses, err := service.GetUserAddresses(userID)
	require.NoError(t, err)
	assert.Empty(t, addresses)
}

func TestDefaultAddressIsExclusive(t *testing.T) {
	service, userID := newAddressFixture(t)

	first, err := service.CreateAddress(userID, addressRequest(true))
	require.NoError(t, err)

	second, err := service.CreateAddress(userID, addressRequest(true))
	require.NoError(t, err)
	assert.True(t, second.IsDefault)

	// Creating a second default demotes the first
	first, err = service.GetAddress(userID, first.ID)
	require.NoError(t, err)
	assert.False(t, first.IsDefault)

	require.NoError(t, service.SetDefaultAddress(userID, first.ID))

	addresses, err := service.GetUserAddresses(userID)
	require.NoError(t, err)
	require.Len(t, addresses, 2)
	assert.Equal(t, first.ID, addresses[0].ID)
	assert.True(t, addresses[0].IsDefault)
	assert.False(t, addresses[1].IsDefault)
}

func TestUpdateAddressRevalidatesLocation(t *testing.T) {
	service, userID := newAddressFixture(t)

	address, err := service.CreateAddress(userID, addressRequest(false))
	require.NoError(t, err)

	// Moving only the province leaves the old district dangling
	newProvince := uint(2)
	_, err = service.UpdateAddress(userID, address.ID, &user.UpdateAddressRequest{
		ProvinceID: &newProvince,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	// The full triple moves together
	newDistrict := uint(2)
	newWard := uint(2)
	updated, err := service.UpdateAddress(userID, address.ID, &user.UpdateAddressRequest{
		ProvinceID: &newProvince,
		DistrictID: &newDistrict,
		WardID:     &newWard,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hồ Chí Minh", updated.Province.Name)
	assert.Equal(t, "Bến Nghé", updated.Ward.Name)
}

func TestAddressOwnershipAndDelete(t *testing.T) {
	service, userID := newAddressFixture(t)

	address, err := service.CreateAddress(userID, addressRequest(false))
	require.NoError(t, err)

	_, err = service.GetAddress(userID+1, address.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	err = service.DeleteAddress(userID+1, address.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	require.NoError(t, service.DeleteAddress(userID, address.ID))

	addresses, err := service.GetUserAddresses(userID)
	require.NoError(t, err)
	assert.Empty(t, addresses)
}

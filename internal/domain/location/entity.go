// internal/domain/location/entity.go
package location

import "time"

// Province represents the top level of the address hierarchy
type Province struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"uniqueIndex;not null;size:20" json:"code"`
	Name      string    `gorm:"not null;size:100" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Districts []District `gorm:"foreignKey:ProvinceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"districts,omitempty"`
}

// District represents the middle level of the address hierarchy
type District struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProvinceID uint      `gorm:"not null;index" json:"province_id"`
	Code       string    `gorm:"uniqueIndex;not null;size:20" json:"code"`
	Name       string    `gorm:"not null;size:100" json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Relationships
	Wards []Ward `gorm:"foreignKey:DistrictID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"wards,omitempty"`
}

// Ward represents the bottom level of the address hierarchy
type Ward struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DistrictID uint      `gorm:"not null;index" json:"district_id"`
	Code       string    `gorm:"uniqueIndex;not null;size:20" json:"code"`
	Name       string    `gorm:"not null;size:100" json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName overrides
func (Province) TableName() string { return "provinces" }
func (District) TableName() string { return "districts" }
func (Ward) TableName() string     { return "wards" }

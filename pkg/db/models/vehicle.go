package models

import (
	"time"

	"github.com/NICOLA-200/pms-restful/pkg/enums"
)

// Vehicle is an owner-scoped vehicle registration. Plate numbers are unique
// across the whole system, not per owner.
type Vehicle struct {
	ID          int64             `gorm:"column:id;primaryKey;autoIncrement"`
	UserID      int64             `gorm:"column:user_id;not null;index"`
	PlateNumber string            `gorm:"column:plate_number;type:text;not null;uniqueIndex"`
	VehicleType enums.VehicleType `gorm:"column:vehicle_type;type:text;not null"`
	Size        enums.SlotSize    `gorm:"column:size;type:text;not null"`
	Model       *string           `gorm:"column:model"`
	Color       *string           `gorm:"column:color"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`

	Owner *User `gorm:"foreignKey:UserID"`
}

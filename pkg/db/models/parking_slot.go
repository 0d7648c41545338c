package models

import (
	"time"

	"github.com/NICOLA-200/pms-restful/pkg/enums"
)

// ParkingSlot is a physical slot in the lot. Status flips to unavailable while
// an approved reservation holds the slot.
type ParkingSlot struct {
	ID          int64             `gorm:"column:id;primaryKey;autoIncrement"`
	SlotCode    string            `gorm:"column:slot_code;type:text;not null;uniqueIndex"`
	Size        enums.SlotSize    `gorm:"column:size;type:text;not null"`
	VehicleType enums.VehicleType `gorm:"column:vehicle_type;type:text;not null"`
	Location    string            `gorm:"column:location;type:text;not null"`
	Status      enums.SlotStatus  `gorm:"column:status;type:text;not null;default:available"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

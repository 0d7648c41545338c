package models

import (
	"time"

	"github.com/NICOLA-200/pms-restful/pkg/enums"
)

// Reservation links a vehicle to a slot once an admin approves the request.
// SlotID is usually bound at approval, but a slot may be pre-assigned while
// the request is still pending; approval then claims the bound slot.
type Reservation struct {
	ID        int64                   `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    int64                   `gorm:"column:user_id;not null;index"`
	VehicleID int64                   `gorm:"column:vehicle_id;not null;index"`
	SlotID    *int64                  `gorm:"column:slot_id;index"`
	Status    enums.ReservationStatus `gorm:"column:status;type:text;not null;default:PENDING"`
	CreatedAt time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time               `gorm:"column:updated_at;autoUpdateTime"`

	Requester *User        `gorm:"foreignKey:UserID"`
	Vehicle   *Vehicle     `gorm:"foreignKey:VehicleID"`
	Slot      *ParkingSlot `gorm:"foreignKey:SlotID"`
}

package slots

import (
	"time"

	"github.com/NICOLA-200/pms-restful/pkg/db/models"
	"github.com/NICOLA-200/pms-restful/pkg/enums"
)

// SlotDTO is the transport shape for a parking slot.
type SlotDTO struct {
	ID          int64             `json:"id"`
	SlotCode    string            `json:"slot_code"`
	Size        enums.SlotSize    `json:"size"`
	VehicleType enums.VehicleType `json:"vehicle_type"`
	Location    string            `json:"location"`
	Status      enums.SlotStatus  `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// CreateSlotRequest is the payload accepted when registering a slot. Status
// defaults to available when omitted.
type CreateSlotRequest struct {
	SlotCode    string  `json:"slot_code" validate:"required"`
	Size        string  `json:"size" validate:"required"`
	VehicleType string  `json:"vehicle_type" validate:"required"`
	Location    string  `json:"location" validate:"required"`
	Status      *string `json:"status,omitempty"`
}

// UpdateSlotRequest carries the mutable slot fields. Omitted fields are left
// unchanged.
type UpdateSlotRequest struct {
	SlotCode    *string `json:"slot_code,omitempty"`
	Size        *string `json:"size,omitempty"`
	VehicleType *string `json:"vehicle_type,omitempty"`
	Location    *string `json:"location,omitempty"`
}

func FromModel(s *models.ParkingSlot) *SlotDTO {
	if s == nil {
		return nil
	}

	return &SlotDTO{
		ID:          s.ID,
		SlotCode:    s.SlotCode,
		Size:        s.Size,
		VehicleType: s.VehicleType,
		Location:    s.Location,
		Status:      s.Status,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func FromModels(rows []models.ParkingSlot) []SlotDTO {
	out := make([]SlotDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}

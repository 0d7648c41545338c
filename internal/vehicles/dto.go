package vehicles

import (
	"time"

	"github.com/NICOLA-200/pms-restful/pkg/db/models"
	"github.com/NICOLA-200/pms-restful/pkg/enums"
)

// VehicleDTO is the transport shape for a registered vehicle.
type VehicleDTO struct {
	ID          int64             `json:"id"`
	UserID      int64             `json:"user_id"`
	PlateNumber string            `json:"plate_number"`
	VehicleType enums.VehicleType `json:"vehicle_type"`
	Size        enums.SlotSize    `json:"size"`
	Model       *string           `json:"model,omitempty"`
	Color       *string           `json:"color,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// CreateVehicleRequest is the payload accepted when registering a vehicle.
type CreateVehicleRequest struct {
	PlateNumber string  `json:"plate_number" validate:"required"`
	VehicleType string  `json:"vehicle_type" validate:"required"`
	Size        string  `json:"size" validate:"required"`
	Model       *string `json:"model,omitempty"`
	Color       *string `json:"color,omitempty"`
}

// UpdateVehicleRequest carries the mutable vehicle fields. Omitted fields are
// left unchanged.
type UpdateVehicleRequest struct {
	PlateNumber *string `json:"plate_number,omitempty"`
	VehicleType *string `json:"vehicle_type,omitempty"`
	Size        *string `json:"size,omitempty"`
	Model       *string `json:"model,omitempty"`
	Color       *string `json:"color,omitempty"`
}

func FromModel(v *models.Vehicle) *VehicleDTO {
	if v == nil {
		return nil
	}

	return &VehicleDTO{
		ID:          v.ID,
		UserID:      v.UserID,
		PlateNumber: v.PlateNumber,
		VehicleType: v.VehicleType,
		Size:        v.Size,
		Model:       v.Model,
		Color:       v.Color,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

func FromModels(rows []models.Vehicle) []VehicleDTO {
	out := make([]VehicleDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}

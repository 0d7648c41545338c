package reservations

import (
	"time"

	"github.com/NICOLA-200/pms-restful/internal/slots"
	"github.com/NICOLA-200/pms-restful/internal/users"
	"github.com/NICOLA-200/pms-restful/internal/vehicles"
	"github.com/NICOLA-200/pms-restful/pkg/db/models"
	"github.com/NICOLA-200/pms-restful/pkg/enums"
)

// ReservationDTO is the hydrated transport shape for a reservation.
type ReservationDTO struct {
	ID        int64                   `json:"id"`
	UserID    int64                   `json:"user_id"`
	VehicleID int64                   `json:"vehicle_id"`
	SlotID    *int64                  `json:"slot_id,omitempty"`
	Status    enums.ReservationStatus `json:"status"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`

	Vehicle   *vehicles.VehicleDTO `json:"vehicle,omitempty"`
	Slot      *slots.SlotDTO       `json:"slot,omitempty"`
	Requester *users.UserDTO       `json:"requester,omitempty"`
}

// CreateReservationRequest is the payload accepted when requesting a slot.
type CreateReservationRequest struct {
	VehicleID int64 `json:"vehicle_id" validate:"required,gt=0"`
}

// UpdateReservationRequest rebinds a pending reservation to another vehicle.
type UpdateReservationRequest struct {
	VehicleID int64 `json:"vehicle_id" validate:"required,gt=0"`
}

func FromModel(r *models.Reservation) *ReservationDTO {
	if r == nil {
		return nil
	}

	return &ReservationDTO{
		ID:        r.ID,
		UserID:    r.UserID,
		VehicleID: r.VehicleID,
		SlotID:    r.SlotID,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		Vehicle:   vehicles.FromModel(r.Vehicle),
		Slot:      slots.FromModel(r.Slot),
		Requester: users.FromModel(r.Requester),
	}
}

func FromModels(rows []models.Reservation) []ReservationDTO {
	out := make([]ReservationDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}

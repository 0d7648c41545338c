package reservations

import (
	"context"
	"strings"
	"time"

	"github.com/NICOLA-200/pms-restful/pkg/db/models"
	"github.com/NICOLA-200/pms-restful/pkg/enums"
	"github.com/NICOLA-200/pms-restful/pkg/pagination"
	"gorm.io/gorm"
)

// Repository exposes reservation persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a reservations repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebinds the repository to a transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a pending reservation and returns the persisted row.
func (r *Repository) Create(ctx context.Context, reservation *models.Reservation) (*models.Reservation, error) {
	if err := r.db.WithContext(ctx).Create(reservation).Error; err != nil {
		return nil, err
	}
	return reservation, nil
}

// FindByID loads a reservation with its vehicle, slot, and requester hydrated.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.db.WithContext(ctx).
		Preload("Vehicle").
		Preload("Slot").
		Preload("Requester").
		First(&reservation, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// FindOwned loads a reservation scoped to its requester.
func (r *Repository) FindOwned(ctx context.Context, id, userID int64) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.db.WithContext(ctx).
		Preload("Vehicle").
		Preload("Slot").
		Where("id = ? AND user_id = ?", id, userID).
		First(&reservation).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// List returns a page of reservations plus the total row count. Non-admin
// callers only see their own rows. The search key matches the vehicle plate
// or the allocated slot code, case-insensitively. Newest requests first.
func (r *Repository) List(ctx context.Context, userID int64, adminScope bool, params pagination.Params) ([]models.Reservation, int64, error) {
	params = params.Normalize()

	query := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Joins("JOIN vehicles ON vehicles.id = reservations.vehicle_id").
		Joins("LEFT JOIN parking_slots ON parking_slots.id = reservations.slot_id")
	if !adminScope {
		query = query.Where("reservations.user_id = ?", userID)
	}
	if params.SearchKey != "" {
		pattern := "%" + strings.ToLower(params.SearchKey) + "%"
		query = query.Where(
			"LOWER(vehicles.plate_number) LIKE ? OR LOWER(COALESCE(parking_slots.slot_code, '')) LIKE ?",
			pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Reservation
	err := query.
		Preload("Vehicle").
		Preload("Slot").
		Preload("Requester").
		Order("reservations.created_at DESC").
		Order("reservations.id DESC").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// RebindVehicle points the reservation at another vehicle.
func (r *Repository) RebindVehicle(ctx context.Context, id, vehicleID int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"vehicle_id": vehicleID,
			"updated_at": time.Now().UTC(),
		}).Error
}

// Delete removes the reservation row.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Reservation{}, "id = ?", id).Error
}

// TransitionPending moves a PENDING reservation into a terminal status with a
// compare-and-swap on the status column. Returns false when the reservation
// already left PENDING, which makes concurrent decisions lose cleanly.
func (r *Repository) TransitionPending(ctx context.Context, id int64, to enums.ReservationStatus, slotID *int64) (bool, error) {
	fields := map[string]any{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	if slotID != nil {
		fields["slot_id"] = *slotID
	}

	res := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ? AND status = ?", id, enums.ReservationStatusPending).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

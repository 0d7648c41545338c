package slots

import (
	"context"
	"strings"
	"time"

	"github.com/NICOLA-200/pms-restful/pkg/db/models"
	"github.com/NICOLA-200/pms-restful/pkg/enums"
	"github.com/NICOLA-200/pms-restful/pkg/pagination"
	"gorm.io/gorm"
)

// Repository exposes slot persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a slots repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebinds the repository to a transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts the slot and returns the persisted row.
func (r *Repository) Create(ctx context.Context, slot *models.ParkingSlot) (*models.ParkingSlot, error) {
	if err := r.db.WithContext(ctx).Create(slot).Error; err != nil {
		return nil, err
	}
	return slot, nil
}

// FindByID loads a slot by id.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.ParkingSlot, error) {
	var slot models.ParkingSlot
	if err := r.db.WithContext(ctx).First(&slot, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

// List returns a page of slots plus the total row count. The search key
// matches slot code, vehicle type, or size.
func (r *Repository) List(ctx context.Context, params pagination.Params) ([]models.ParkingSlot, int64, error) {
	params = params.Normalize()

	query := r.db.WithContext(ctx).Model(&models.ParkingSlot{})
	if params.SearchKey != "" {
		pattern := "%" + strings.ToLower(params.SearchKey) + "%"
		query = query.Where(
			"LOWER(slot_code) LIKE ? OR LOWER(vehicle_type) LIKE ? OR LOWER(size) LIKE ?",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ParkingSlot
	err := query.
		Order("id ASC").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Update persists the provided column map for the slot.
func (r *Repository) Update(ctx context.Context, id int64, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.ParkingSlot{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// Delete removes the slot row.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.ParkingSlot{}, "id = ?", id).Error
}

// SetStatus flips the slot status unconditionally.
func (r *Repository) SetStatus(ctx context.Context, id int64, status enums.SlotStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.ParkingSlot{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
}

// FindAllocatable returns available slots compatible with the vehicle,
// cheapest-fit first (ascending id).
func (r *Repository) FindAllocatable(ctx context.Context, vehicleType enums.VehicleType, minSize enums.SlotSize) ([]models.ParkingSlot, error) {
	sizes := []enums.SlotSize{}
	for _, candidate := range []enums.SlotSize{enums.SlotSizeSmall, enums.SlotSizeMedium, enums.SlotSizeLarge} {
		if candidate.Fits(minSize) {
			sizes = append(sizes, candidate)
		}
	}

	var rows []models.ParkingSlot
	err := r.db.WithContext(ctx).
		Where("status = ? AND vehicle_type = ? AND size IN ?", enums.SlotStatusAvailable, vehicleType, sizes).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// ClaimAvailable flips the slot to unavailable only while it is still
// available. Returns false when another transaction won the slot.
func (r *Repository) ClaimAvailable(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ParkingSlot{}).
		Where("id = ? AND status = ?", id, enums.SlotStatusAvailable).
		Updates(map[string]any{
			"status":     enums.SlotStatusUnavailable,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CountApprovedReservations returns the approved reservations bound to a slot.
func (r *Repository) CountApprovedReservations(ctx context.Context, slotID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("slot_id = ? AND status = ?", slotID, enums.ReservationStatusApproved).
		Count(&count).Error
	return count, err
}

package vehicles

import (
	"context"
	"strings"

	"github.com/NICOLA-200/pms-restful/pkg/db/models"
	"github.com/NICOLA-200/pms-restful/pkg/pagination"
	"gorm.io/gorm"
)

// Repository exposes vehicle persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a vehicles repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebinds the repository to a transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts the vehicle and returns the persisted row.
func (r *Repository) Create(ctx context.Context, vehicle *models.Vehicle) (*models.Vehicle, error) {
	if err := r.db.WithContext(ctx).Create(vehicle).Error; err != nil {
		return nil, err
	}
	return vehicle, nil
}

// FindByID loads a vehicle by id.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	if err := r.db.WithContext(ctx).First(&vehicle, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// FindOwned loads a vehicle by id scoped to its owner.
func (r *Repository) FindOwned(ctx context.Context, id, userID int64) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&vehicle).Error
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// ListOwned returns a page of the owner's vehicles plus the total row count.
// The search key matches plate number, model, or vehicle type.
func (r *Repository) ListOwned(ctx context.Context, userID int64, params pagination.Params) ([]models.Vehicle, int64, error) {
	params = params.Normalize()

	query := r.db.WithContext(ctx).
		Model(&models.Vehicle{}).
		Where("user_id = ?", userID)
	if params.SearchKey != "" {
		pattern := "%" + strings.ToLower(params.SearchKey) + "%"
		query = query.Where(
			"LOWER(plate_number) LIKE ? OR LOWER(COALESCE(model, '')) LIKE ? OR LOWER(vehicle_type) LIKE ?",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Vehicle
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

// Update persists the provided column map for the vehicle.
func (r *Repository) Update(ctx context.Context, id int64, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Vehicle{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// Delete removes the vehicle row.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Vehicle{}, "id = ?", id).Error
}

// CountBlockingReservations returns the number of reservations that prevent
// deleting the vehicle: pending requests and approved bindings.
func (r *Repository) CountBlockingReservations(ctx context.Context, vehicleID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("vehicle_id = ? AND status IN ?", vehicleID, []string{"PENDING", "APPROVED"}).
		Count(&count).Error
	return count, err
}

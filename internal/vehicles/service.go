package vehicles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	dbpkg "github.com/NICOLA-200/pms-restful/pkg/db"
	"github.com/NICOLA-200/pms-restful/pkg/db/models"
	"github.com/NICOLA-200/pms-restful/pkg/enums"
	pkgerrors "github.com/NICOLA-200/pms-restful/pkg/errors"
	"github.com/NICOLA-200/pms-restful/pkg/pagination"
	"github.com/NICOLA-200/pms-restful/pkg/types"
	"gorm.io/gorm"
)

const plateConflictMessage = "plate number already registered"

// Service defines the behavior needed by the vehicles controller.
type Service interface {
	Create(ctx context.Context, principal types.Principal, req CreateVehicleRequest) (*VehicleDTO, error)
	List(ctx context.Context, principal types.Principal, params pagination.Params) ([]VehicleDTO, *types.PageMeta, error)
	Update(ctx context.Context, principal types.Principal, vehicleID int64, req UpdateVehicleRequest) (*VehicleDTO, error)
	Delete(ctx context.Context, principal types.Principal, vehicleID int64) error
}

type service struct {
	repo *Repository
}

// NewService constructs a vehicles service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vehicles repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, principal types.Principal, req CreateVehicleRequest) (*VehicleDTO, error) {
	plate := strings.ToUpper(strings.TrimSpace(req.PlateNumber))
	if plate == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plate number is required")
	}
	vehicleType, err := enums.ParseVehicleType(req.VehicleType)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	size, err := enums.ParseSlotSize(req.Size)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	vehicle, err := s.repo.Create(ctx, &models.Vehicle{
		UserID:      principal.UserID,
		PlateNumber: plate,
		VehicleType: vehicleType,
		Size:        size,
		Model:       req.Model,
		Color:       req.Color,
	})
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_vehicles_plate_number") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, plateConflictMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create vehicle")
	}
	return FromModel(vehicle), nil
}

func (s *service) List(ctx context.Context, principal types.Principal, params pagination.Params) ([]VehicleDTO, *types.PageMeta, error) {
	params = params.Normalize()
	rows, total, err := s.repo.ListOwned(ctx, principal.UserID, params)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list vehicles")
	}
	meta := &types.PageMeta{
		Page:      params.Page,
		Limit:     params.Limit,
		Total:     total,
		SearchKey: params.SearchKey,
	}
	return FromModels(rows), meta, nil
}

func (s *service) Update(ctx context.Context, principal types.Principal, vehicleID int64, req UpdateVehicleRequest) (*VehicleDTO, error) {
	if vehicleID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle id must be positive")
	}

	if _, err := s.repo.FindOwned(ctx, vehicleID, principal.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load vehicle")
	}

	fields := map[string]any{}
	if req.PlateNumber != nil {
		plate := strings.ToUpper(strings.TrimSpace(*req.PlateNumber))
		if plate == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "plate number cannot be empty")
		}
		fields["plate_number"] = plate
	}
	if req.VehicleType != nil {
		vehicleType, err := enums.ParseVehicleType(*req.VehicleType)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		fields["vehicle_type"] = vehicleType
	}
	if req.Size != nil {
		size, err := enums.ParseSlotSize(*req.Size)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		fields["size"] = size
	}
	if req.Model != nil {
		fields["model"] = *req.Model
	}
	if req.Color != nil {
		fields["color"] = *req.Color
	}

	if len(fields) > 0 {
		if err := s.repo.Update(ctx, vehicleID, fields); err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_vehicles_plate_number") {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, plateConflictMessage)
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update vehicle")
		}
	}

	vehicle, err := s.repo.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload vehicle")
	}
	return FromModel(vehicle), nil
}

func (s *service) Delete(ctx context.Context, principal types.Principal, vehicleID int64) error {
	if vehicleID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "vehicle id must be positive")
	}

	if _, err := s.repo.FindOwned(ctx, vehicleID, principal.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load vehicle")
	}

	blocking, err := s.repo.CountBlockingReservations(ctx, vehicleID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count reservations")
	}
	if blocking > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "vehicle has active reservations")
	}

	if err := s.repo.Delete(ctx, vehicleID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete vehicle")
	}
	return nil
}

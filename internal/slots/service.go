package slots

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

const slotCodeConflictMessage = "slot code already in use"

// Service defines the behavior needed by the slots controller.
type Service interface {
	Create(ctx context.Context, req CreateSlotRequest) (*SlotDTO, error)
	List(ctx context.Context, params pagination.Params) ([]SlotDTO, *types.PageMeta, error)
	Update(ctx context.Context, slotID int64, req UpdateSlotRequest) (*SlotDTO, error)
	Delete(ctx context.Context, slotID int64) error
	MarkAvailable(ctx context.Context, slotID int64) (*SlotDTO, error)
	MarkUnavailable(ctx context.Context, slotID int64) (*SlotDTO, error)
}

type service struct {
	repo *Repository
}

// NewService constructs a slots service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("slots repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, req CreateSlotRequest) (*SlotDTO, error) {
	code := strings.ToUpper(strings.TrimSpace(req.SlotCode))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slot code is required")
	}
	size, err := enums.ParseSlotSize(req.Size)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	vehicleType, err := enums.ParseVehicleType(req.VehicleType)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	location := strings.TrimSpace(req.Location)
	if location == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location is required")
	}
	status := enums.SlotStatusAvailable
	if req.Status != nil {
		parsed, err := enums.ParseSlotStatus(*req.Status)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		status = parsed
	}

	slot, err := s.repo.Create(ctx, &models.ParkingSlot{
		SlotCode:    code,
		Size:        size,
		VehicleType: vehicleType,
		Location:    location,
		Status:      status,
	})
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_parking_slots_slot_code") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, slotCodeConflictMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create slot")
	}
	return FromModel(slot), nil
}

func (s *service) List(ctx context.Context, params pagination.Params) ([]SlotDTO, *types.PageMeta, error) {
	params = params.Normalize()
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list slots")
	}
	meta := &types.PageMeta{
		Page:      params.Page,
		Limit:     params.Limit,
		Total:     total,
		SearchKey: params.SearchKey,
	}
	return FromModels(rows), meta, nil
}

func (s *service) Update(ctx context.Context, slotID int64, req UpdateSlotRequest) (*SlotDTO, error) {
	if slotID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slot id must be positive")
	}

	if _, err := s.repo.FindByID(ctx, slotID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "slot not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load slot")
	}

	fields := map[string]any{}
	if req.SlotCode != nil {
		code := strings.ToUpper(strings.TrimSpace(*req.SlotCode))
		if code == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "slot code cannot be empty")
		}
		fields["slot_code"] = code
	}
	if req.Size != nil {
		size, err := enums.ParseSlotSize(*req.Size)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		fields["size"] = size
	}
	if req.VehicleType != nil {
		vehicleType, err := enums.ParseVehicleType(*req.VehicleType)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		fields["vehicle_type"] = vehicleType
	}
	if req.Location != nil {
		location := strings.TrimSpace(*req.Location)
		if location == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "location cannot be empty")
		}
		fields["location"] = location
	}

	if len(fields) > 0 {
		if err := s.repo.Update(ctx, slotID, fields); err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_parking_slots_slot_code") {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, slotCodeConflictMessage)
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update slot")
		}
	}

	slot, err := s.repo.FindByID(ctx, slotID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload slot")
	}
	return FromModel(slot), nil
}

func (s *service) Delete(ctx context.Context, slotID int64) error {
	if slotID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "slot id must be positive")
	}

	if _, err := s.repo.FindByID(ctx, slotID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "slot not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load slot")
	}

	bound, err := s.repo.CountApprovedReservations(ctx, slotID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count bound reservations")
	}
	if bound > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "slot is bound to an approved reservation")
	}

	if err := s.repo.Delete(ctx, slotID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete slot")
	}
	return nil
}

func (s *service) MarkAvailable(ctx context.Context, slotID int64) (*SlotDTO, error) {
	return s.setStatus(ctx, slotID, enums.SlotStatusAvailable)
}

func (s *service) MarkUnavailable(ctx context.Context, slotID int64) (*SlotDTO, error) {
	return s.setStatus(ctx, slotID, enums.SlotStatusUnavailable)
}

// setStatus is idempotent: flipping to the current status succeeds unchanged.
func (s *service) setStatus(ctx context.Context, slotID int64, status enums.SlotStatus) (*SlotDTO, error) {
	if slotID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slot id must be positive")
	}

	slot, err := s.repo.FindByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "slot not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load slot")
	}
	if slot.Status == status {
		return FromModel(slot), nil
	}

	if err := s.repo.SetStatus(ctx, slotID, status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set slot status")
	}
	slot, err = s.repo.FindByID(ctx, slotID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload slot")
	}
	return FromModel(slot), nil
}

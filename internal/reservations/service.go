package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NICOLA-200/pms-restful/internal/slots"
	"github.com/NICOLA-200/pms-restful/internal/vehicles"
	dbpkg "github.com/NICOLA-200/pms-restful/pkg/db"
	"github.com/NICOLA-200/pms-restful/pkg/db/models"
	"github.com/NICOLA-200/pms-restful/pkg/enums"
	pkgerrors "github.com/NICOLA-200/pms-restful/pkg/errors"
	"github.com/NICOLA-200/pms-restful/pkg/logger"
	"github.com/NICOLA-200/pms-restful/pkg/metrics"
	"github.com/NICOLA-200/pms-restful/pkg/outbox"
	"github.com/NICOLA-200/pms-restful/pkg/pagination"
	"github.com/NICOLA-200/pms-restful/pkg/types"
	"gorm.io/gorm"
)

// Service defines the behavior needed by the reservations controller.
type Service interface {
	Create(ctx context.Context, principal types.Principal, req CreateReservationRequest) (*ReservationDTO, error)
	List(ctx context.Context, principal types.Principal, params pagination.Params) ([]ReservationDTO, *types.PageMeta, error)
	UpdateVehicle(ctx context.Context, principal types.Principal, reservationID int64, req UpdateReservationRequest) (*ReservationDTO, error)
	Cancel(ctx context.Context, principal types.Principal, reservationID int64) error
	Approve(ctx context.Context, principal types.Principal, reservationID int64) (*ReservationDTO, error)
	Reject(ctx context.Context, principal types.Principal, reservationID int64) (*ReservationDTO, error)
}

type service struct {
	db       *dbpkg.Client
	repo     *Repository
	vehicles *vehicles.Repository
	slots    *slots.Repository
	outbox   *outbox.Service
	metrics  *metrics.ReservationMetrics
	logg     *logger.Logger
}

// ServiceParams bundles the dependencies required to build the service.
type ServiceParams struct {
	DB          *dbpkg.Client
	Repo        *Repository
	VehicleRepo *vehicles.Repository
	SlotRepo    *slots.Repository
	Outbox      *outbox.Service
	Metrics     *metrics.ReservationMetrics
	Logger      *logger.Logger
}

// NewService constructs the reservation service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client is required")
	}
	if params.Repo == nil || params.VehicleRepo == nil || params.SlotRepo == nil {
		return nil, fmt.Errorf("reservation, vehicle, and slot repositories are required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service is required")
	}
	return &service{
		db:       params.DB,
		repo:     params.Repo,
		vehicles: params.VehicleRepo,
		slots:    params.SlotRepo,
		outbox:   params.Outbox,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

func (s *service) Create(ctx context.Context, principal types.Principal, req CreateReservationRequest) (*ReservationDTO, error) {
	if req.VehicleID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle id must be positive")
	}

	vehicle, err := s.vehicles.FindOwned(ctx, req.VehicleID, principal.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load vehicle")
	}

	var created *models.Reservation
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		reservation, err := repo.Create(ctx, &models.Reservation{
			UserID:    principal.UserID,
			VehicleID: vehicle.ID,
			Status:    enums.ReservationStatusPending,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create reservation")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventReservationCreated,
			AggregateType: enums.AggregateReservation,
			AggregateID:   reservation.ID,
			Actor:         &outbox.ActorRef{UserID: principal.UserID, Role: principal.Role.String()},
			Data: ReservationEventData{
				ReservationID: reservation.ID,
				Status:        enums.ReservationStatusPending.String(),
				PlateNumber:   vehicle.PlateNumber,
				DecidedAt:     reservation.CreatedAt,
			},
			Version: 1,
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue reservation event")
		}

		created = reservation
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.hydrate(ctx, created.ID)
}

func (s *service) List(ctx context.Context, principal types.Principal, params pagination.Params) ([]ReservationDTO, *types.PageMeta, error) {
	params = params.Normalize()
	rows, total, err := s.repo.List(ctx, principal.UserID, principal.IsAdmin(), params)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reservations")
	}
	meta := &types.PageMeta{
		Page:      params.Page,
		Limit:     params.Limit,
		Total:     total,
		SearchKey: params.SearchKey,
	}
	return FromModels(rows), meta, nil
}

func (s *service) UpdateVehicle(ctx context.Context, principal types.Principal, reservationID int64, req UpdateReservationRequest) (*ReservationDTO, error) {
	if reservationID <= 0 || req.VehicleID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation and vehicle ids must be positive")
	}

	reservation, err := s.repo.FindOwned(ctx, reservationID, principal.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load reservation")
	}
	if reservation.Status != enums.ReservationStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
	}

	if _, err := s.vehicles.FindOwned(ctx, req.VehicleID, principal.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load vehicle")
	}

	if err := s.repo.RebindVehicle(ctx, reservationID, req.VehicleID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rebind vehicle")
	}

	return s.hydrate(ctx, reservationID)
}

func (s *service) Cancel(ctx context.Context, principal types.Principal, reservationID int64) error {
	if reservationID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "reservation id must be positive")
	}

	reservation, err := s.repo.FindOwned(ctx, reservationID, principal.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load reservation")
	}
	if reservation.Status != enums.ReservationStatusPending {
		return pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
	}

	if err := s.repo.Delete(ctx, reservationID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete reservation")
	}
	return nil
}

// Approve runs the allocation engine: inside one transaction it claims the
// cheapest compatible available slot (or the pre-bound slot when one is
// already assigned), flips the reservation PENDING→APPROVED, and queues the
// confirmation event. Every mutation rides the same tx, so a lost CAS rolls
// back the slot claim too.
func (s *service) Approve(ctx context.Context, principal types.Principal, reservationID int64) (*ReservationDTO, error) {
	if !principal.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if reservationID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation id must be positive")
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		slotRepo := s.slots.WithTx(tx)

		reservation, err := repo.FindByID(ctx, reservationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load reservation")
		}
		if reservation.Status != enums.ReservationStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "reservation is not pending")
		}
		if reservation.Vehicle == nil || reservation.Requester == nil {
			return pkgerrors.New(pkgerrors.CodeInternal, "reservation is missing its vehicle or requester")
		}

		var slot *models.ParkingSlot
		if reservation.SlotID != nil {
			slot, err = slotRepo.FindByID(ctx, *reservation.SlotID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load bound slot")
			}
			won, err := slotRepo.ClaimAvailable(ctx, slot.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "claim bound slot")
			}
			if !won {
				return pkgerrors.New(pkgerrors.CodeUnavailable, "bound slot is no longer available").
					WithDetails(map[string]any{"slot_code": slot.SlotCode})
			}
		} else {
			slot, err = s.claimSlot(ctx, slotRepo, reservation.Vehicle)
			if err != nil {
				return err
			}
		}

		ok, err := repo.TransitionPending(ctx, reservationID, enums.ReservationStatusApproved, &slot.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "approve reservation")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "reservation is not pending")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventReservationApproved,
			AggregateType: enums.AggregateReservation,
			AggregateID:   reservationID,
			Actor:         &outbox.ActorRef{UserID: principal.UserID, Role: principal.Role.String()},
			Data: ReservationEventData{
				ReservationID: reservationID,
				Status:        enums.ReservationStatusApproved.String(),
				Email:         reservation.Requester.Email,
				FirstName:     reservation.Requester.FirstName,
				PlateNumber:   reservation.Vehicle.PlateNumber,
				SlotCode:      slot.SlotCode,
				Location:      slot.Location,
				DecidedAt:     time.Now().UTC(),
			},
			Version: 1,
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue approval event")
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeUnavailable {
			s.metrics.IncAllocationFailure()
		}
		return nil, err
	}

	s.metrics.IncDecision("approved")
	if s.logg != nil {
		s.logg.Info(s.logg.WithReservationID(ctx, reservationID), "reservation approved")
	}
	return s.hydrate(ctx, reservationID)
}

func (s *service) Reject(ctx context.Context, principal types.Principal, reservationID int64) (*ReservationDTO, error) {
	if !principal.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if reservationID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation id must be positive")
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		reservation, err := repo.FindByID(ctx, reservationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load reservation")
		}
		if reservation.Status != enums.ReservationStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "reservation is not pending")
		}

		ok, err := repo.TransitionPending(ctx, reservationID, enums.ReservationStatusRejected, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reject reservation")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "reservation is not pending")
		}

		data := ReservationEventData{
			ReservationID: reservationID,
			Status:        enums.ReservationStatusRejected.String(),
			DecidedAt:     time.Now().UTC(),
		}
		if reservation.Requester != nil {
			data.Email = reservation.Requester.Email
			data.FirstName = reservation.Requester.FirstName
		}
		if reservation.Vehicle != nil {
			data.PlateNumber = reservation.Vehicle.PlateNumber
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventReservationRejected,
			AggregateType: enums.AggregateReservation,
			AggregateID:   reservationID,
			Actor:         &outbox.ActorRef{UserID: principal.UserID, Role: principal.Role.String()},
			Data:          data,
			Version:       1,
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue rejection event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncDecision("rejected")
	return s.hydrate(ctx, reservationID)
}

// claimSlot scans compatible available slots in ascending id order and CAS
// claims the first one that is still free.
func (s *service) claimSlot(ctx context.Context, slotRepo *slots.Repository, vehicle *models.Vehicle) (*models.ParkingSlot, error) {
	candidates, err := slotRepo.FindAllocatable(ctx, vehicle.VehicleType, vehicle.Size)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "scan slots")
	}

	for i := range candidates {
		won, err := slotRepo.ClaimAvailable(ctx, candidates[i].ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "claim slot")
		}
		if won {
			return &candidates[i], nil
		}
	}

	return nil, pkgerrors.New(pkgerrors.CodeUnavailable, "no compatible slot available").
		WithDetails(map[string]any{
			"vehicle_type": vehicle.VehicleType,
			"min_size":     vehicle.Size,
		})
}

func (s *service) hydrate(ctx context.Context, reservationID int64) (*ReservationDTO, error) {
	reservation, err := s.repo.FindByID(ctx, reservationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload reservation")
	}
	return FromModel(reservation), nil
}

package reservations

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/NICOLA-200/pms-restful/internal/slots"
	"github.com/NICOLA-200/pms-restful/internal/vehicles"
	dbpkg "github.com/NICOLA-200/pms-restful/pkg/db"
	"github.com/NICOLA-200/pms-restful/pkg/db/models"
	"github.com/NICOLA-200/pms-restful/pkg/enums"
	pkgerrors "github.com/NICOLA-200/pms-restful/pkg/errors"
	"github.com/NICOLA-200/pms-restful/pkg/outbox"
	"github.com/NICOLA-200/pms-restful/pkg/pagination"
	"github.com/NICOLA-200/pms-restful/pkg/types"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:reservations_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Vehicle{},
		&models.ParkingSlot{},
		&models.Reservation{},
		&models.OutboxEvent{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc, err := NewService(ServiceParams{
		DB:          dbpkg.NewFromGorm(db),
		Repo:        NewRepository(db),
		VehicleRepo: vehicles.NewRepository(db),
		SlotRepo:    slots.NewRepository(db),
		Outbox:      outbox.NewService(outbox.NewRepository(db), nil),
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, db
}

func seedUser(t *testing.T, db *gorm.DB, email string, role enums.Role) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		PasswordHash: "x",
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedVehicle(t *testing.T, db *gorm.DB, userID int64, plate string, vt enums.VehicleType, size enums.SlotSize) *models.Vehicle {
	t.Helper()
	vehicle := &models.Vehicle{UserID: userID, PlateNumber: plate, VehicleType: vt, Size: size}
	if err := db.Create(vehicle).Error; err != nil {
		t.Fatalf("seed vehicle: %v", err)
	}
	return vehicle
}

func seedSlot(t *testing.T, db *gorm.DB, code string, vt enums.VehicleType, size enums.SlotSize, status enums.SlotStatus) *models.ParkingSlot {
	t.Helper()
	slot := &models.ParkingSlot{
		SlotCode:    code,
		Size:        size,
		VehicleType: vt,
		Location:    "north",
		Status:      status,
	}
	if err := db.Create(slot).Error; err != nil {
		t.Fatalf("seed slot: %v", err)
	}
	return slot
}

func userPrincipal(u *models.User) types.Principal {
	return types.Principal{UserID: u.ID, Role: u.Role}
}

func TestCreateReservationRequiresOwnedVehicle(t *testing.T) {
	svc, db := newTestService(t)
	owner := seedUser(t, db, "owner@example.com", enums.RoleUser)
	other := seedUser(t, db, "other@example.com", enums.RoleUser)
	vehicle := seedVehicle(t, db, owner.ID, "RAD 452 B", enums.VehicleTypeCar, enums.SlotSizeMedium)

	_, err := svc.Create(context.Background(), userPrincipal(other), CreateReservationRequest{VehicleID: vehicle.ID})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign vehicle, got %v", err)
	}

	dto, err := svc.Create(context.Background(), userPrincipal(owner), CreateReservationRequest{VehicleID: vehicle.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.Status != enums.ReservationStatusPending {
		t.Fatalf("expected pending, got %s", dto.Status)
	}
	if dto.SlotID != nil {
		t.Fatalf("expected no slot bound at creation, got %v", *dto.SlotID)
	}
}

func TestApproveAllocatesLowestCompatibleSlot(t *testing.T) {
	svc, db := newTestService(t)
	owner := seedUser(t, db, "owner@example.com", enums.RoleUser)
	admin := seedUser(t, db, "admin@example.com", enums.RoleAdmin)
	vehicle := seedVehicle(t, db, owner.ID, "RAD 452 B", enums.VehicleTypeCar, enums.SlotSizeMedium)

	seedSlot(t, db, "S-01", enums.VehicleTypeCar, enums.SlotSizeSmall, enums.SlotStatusAvailable)     // too small
	seedSlot(t, db, "M-01", enums.VehicleTypeMotorcycle, enums.SlotSizeLarge, enums.SlotStatusAvailable) // wrong type
	taken := seedSlot(t, db, "C-01", enums.VehicleTypeCar, enums.SlotSizeMedium, enums.SlotStatusUnavailable)
	want := seedSlot(t, db, "C-02", enums.VehicleTypeCar, enums.SlotSizeMedium, enums.SlotStatusAvailable)
	seedSlot(t, db, "C-03", enums.VehicleTypeCar, enums.SlotSizeLarge, enums.SlotStatusAvailable)

	created, err := svc.Create(context.Background(), userPrincipal(owner), CreateReservationRequest{VehicleID: vehicle.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	approved, err := svc.Approve(context.Background(), userPrincipal(admin), created.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != enums.ReservationStatusApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}
	if approved.SlotID == nil || *approved.SlotID != want.ID {
		t.Fatalf("expected slot %d allocated, got %v", want.ID, approved.SlotID)
	}
	if approved.Slot == nil || approved.Slot.SlotCode != "C-02" {
		t.Fatalf("expected hydrated slot C-02, got %+v", approved.Slot)
	}

	var slot models.ParkingSlot
	if err := db.First(&slot, want.ID).Error; err != nil {
		t.Fatalf("reload slot: %v", err)
	}
	if slot.Status != enums.SlotStatusUnavailable {
		t.Fatalf("expected claimed slot unavailable, got %s", slot.Status)
	}

	var untouched models.ParkingSlot
	if err := db.First(&untouched, taken.ID).Error; err != nil {
		t.Fatalf("reload taken slot: %v", err)
	}
	if untouched.Status != enums.SlotStatusUnavailable {
		t.Fatalf("unrelated slot mutated: %s", untouched.Status)
	}
}

func TestApproveWithoutCompatibleSlotLeavesEverythingUntouched(t *testing.T) {
	svc, db := newTestService(t)
	owner := seedUser(t, db, "owner@example.com", enums.RoleUser)
	admin := seedUser(t, db, "admin@example.com", enums.RoleAdmin)
	vehicle := seedVehicle(t, db, owner.ID, "RAD 452 B", enums.VehicleTypeTruck, enums.SlotSizeLarge)

	small := seedSlot(t, db, "S-01", enums.VehicleTypeTruck, enums.SlotSizeSmall, enums.SlotStatusAvailable)
	wrongType := seedSlot(t, db, "C-01", enums.VehicleTypeCar, enums.SlotSizeLarge, enums.SlotStatusAvailable)

	created, err := svc.Create(context.Background(), userPrincipal(owner), CreateReservationRequest{VehicleID: vehicle.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.Approve(context.Background(), userPrincipal(admin), created.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnavailable {
		t.Fatalf("expected slot unavailable, got %v", err)
	}

	var reservation models.Reservation
	if err := db.First(&reservation, created.ID).Error; err != nil {
		t.Fatalf("reload reservation: %v", err)
	}
	if reservation.Status != enums.ReservationStatusPending || reservation.SlotID != nil {
		t.Fatalf("expected untouched pending reservation, got %+v", reservation)
	}

	for _, id := range []int64{small.ID, wrongType.ID} {
		var slot models.ParkingSlot
		if err := db.First(&slot, id).Error; err != nil {
			t.Fatalf("reload slot: %v", err)
		}
		if slot.Status != enums.SlotStatusAvailable {
			t.Fatalf("slot %d mutated on failed approval: %s", id, slot.Status)
		}
	}
}

func TestApproveTwiceStateConflict(t *testing.T) {
	svc, db := newTestService(t)
	owner := seedUser(t, db, "owner@example.com", enums.RoleUser)
	admin := seedUser(t, db, "admin@example.com", enums.RoleAdmin)
	vehicle := seedVehicle(t, db, owner.ID, "RAD 452 B", enums.VehicleTypeCar, enums.SlotSizeSmall)
	seedSlot(t, db, "C-01", enums.VehicleTypeCar, enums.SlotSizeSmall, enums.SlotStatusAvailable)

	created, err := svc.Create(context.Background(), userPrincipal(owner), CreateReservationRequest{VehicleID: vehicle.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Approve(context.Background(), userPrincipal(admin), created.ID); err != nil {
		t.Fatalf("first approve: %v", err)
	}

	_, err = svc.Approve(context.Background(), userPrincipal(admin), created.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict on re-approve, got %v", err)
	}
}

func TestApprovePreBoundSlotClaimsIt(t *testing.T) {
	svc, db := newTestService(t)
	owner := seedUser(t, db, "owner@example.com", enums.RoleUser)
	admin := seedUser(t, db, "admin@example.com", enums.RoleAdmin)
	vehicle := seedVehicle(t, db, owner.ID, "RAD 452 B", enums.VehicleTypeCar, enums.SlotSizeSmall)
	bound := seedSlot(t, db, "C-01", enums.VehicleTypeCar, enums.SlotSizeSmall, enums.SlotStatusAvailable)
	other := seedSlot(t, db, "C-02", enums.VehicleTypeCar, enums.SlotSizeSmall, enums.SlotStatusAvailable)

	created, err := svc.Create(context.Background(), userPrincipal(owner), CreateReservationRequest{VehicleID: vehicle.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := db.Model(&models.Reservation{}).Where("id = ?", created.ID).Update("slot_id", bound.ID).Error; err != nil {
		t.Fatalf("pre-bind slot: %v", err)
	}

	approved, err := svc.Approve(context.Background(), userPrincipal(admin), created.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.SlotID == nil || *approved.SlotID != bound.ID {
		t.Fatalf("expected pre-bound slot %d kept, got %v", bound.ID, approved.SlotID)
	}

	var slot models.ParkingSlot
	if err := db.First(&slot, bound.ID).Error; err != nil {
		t.Fatalf("reload bound slot: %v", err)
	}
	if slot.Status != enums.SlotStatusUnavailable {
		t.Fatalf("expected bound slot claimed, got %s", slot.Status)
	}

	var untouched models.ParkingSlot
	if err := db.First(&untouched, other.ID).Error; err != nil {
		t.Fatalf("reload other slot: %v", err)
	}
	if untouched.Status != enums.SlotStatusAvailable {
		t.Fatalf("allocation ran despite pre-bound slot: %s", untouched.Status)
	}
}

func TestApprovePreBoundSlotAlreadyClaimed(t *testing.T) {
	svc, db := newTestService(t)
	owner := seedUser(t, db, "owner@example.com", enums.RoleUser)
	admin := seedUser(t, db, "admin@example.com", enums.RoleAdmin)
	vehicle := seedVehicle(t, db, owner.ID, "RAD 452 B", enums.VehicleTypeCar, enums.SlotSizeSmall)
	bound := seedSlot(t, db, "C-01", enums.VehicleTypeCar, enums.SlotSizeSmall, enums.SlotStatusUnavailable)

	created, err := svc.Create(context.Background(), userPrincipal(owner), CreateReservationRequest{VehicleID: vehicle.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := db.Model(&models.Reservation{}).Where("id = ?", created.ID).Update("slot_id", bound.ID).Error; err != nil {
		t.Fatalf("pre-bind slot: %v", err)
	}

	_, err = svc.Approve(context.Background(), userPrincipal(admin), created.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnavailable {
		t.Fatalf("expected slot unavailable, got %v", err)
	}

	var reservation models.Reservation
	if err := db.First(&reservation, created.ID).Error; err != nil {
		t.Fatalf("reload reservation: %v", err)
	}
	if reservation.Status != enums.ReservationStatusPending {
		t.Fatalf("expected reservation still pending, got %s", reservation.Status)
	}
}

func TestApproveOneSlotTwoReservations(t *testing.T) {
	svc, db := newTestService(t)
	owner := seedUser(t, db, "owner@example.com", enums.RoleUser)
	admin := seedUser(t, db, "admin@example.com", enums.RoleAdmin)
	first := seedVehicle(t, db, owner.ID, "RAD 111 A", enums.VehicleTypeCar, enums.SlotSizeSmall)
	second := seedVehicle(t, db, owner.ID, "RAD 222 B", enums.VehicleTypeCar, enums.SlotSizeSmall)
	slot := seedSlot(t, db, "C-01", enums.VehicleTypeCar, enums.SlotSizeSmall, enums.SlotStatusAvailable)

	one, err := svc.Create(context.Background(), userPrincipal(owner), CreateReservationRequest{VehicleID: first.ID})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	two, err := svc.Create(context.Background(), userPrincipal(owner), CreateReservationRequest{VehicleID: second.ID})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	approved, err := svc.Approve(context.Background(), userPrincipal(admin), one.ID)
	if err != nil {
		t.Fatalf("approve first: %v", err)
	}
	if approved.SlotID == nil || *approved.SlotID != slot.ID {
		t.Fatalf("expected slot %d won, got %v", slot.ID, approved.SlotID)
	}

	_, err = svc.Approve(context.Background(), userPrincipal(admin), two.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnavailable {
		t.Fatalf("expected loser to see slot unavailable, got %v", err)
	}

	var loser models.Reservation
	if err := db.First(&loser, two.ID).Error; err != nil {
		t.Fatalf("reload loser: %v", err)
	}
	if loser.Status != enums.ReservationStatusPending || loser.SlotID != nil {
		t.Fatalf("expected loser untouched and pending, got %+v", loser)
	}
}

func TestRejectRequiresPending(t *testing.T) {
	svc, db := newTestService(t)
	owner := seedUser(t, db, "owner@example.com", enums.RoleUser)
	admin := seedUser(t, db, "admin@example.com", enums.RoleAdmin)
	vehicle := seedVehicle(t, db, owner.ID, "RAD 452 B", enums.VehicleTypeCar, enums.SlotSizeSmall)

	created, err := svc.Create(context.Background(), userPrincipal(owner), CreateReservationRequest{VehicleID: vehicle.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	rejected, err := svc.Reject(context.Background(), userPrincipal(admin), created.ID)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != enums.ReservationStatusRejected {
		t.Fatalf("expected rejected, got %s", rejected.Status)
	}
	if rejected.SlotID != nil {
		t.Fatalf("expected no slot on rejection, got %v", *rejected.SlotID)
	}

	_, err = svc.Reject(context.Background(), userPrincipal(admin), created.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict on re-reject, got %v", err)
	}
}

func TestDecisionsRequireAdminRole(t *testing.T) {
	svc, db := newTestService(t)
	owner := seedUser(t, db, "owner@example.com", enums.RoleUser)
	vehicle := seedVehicle(t, db, owner.ID, "RAD 452 B", enums.VehicleTypeCar, enums.SlotSizeSmall)

	created, err := svc.Create(context.Background(), userPrincipal(owner), CreateReservationRequest{VehicleID: vehicle.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Approve(context.Background(), userPrincipal(owner), created.ID); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden approve, got %v", err)
	}
	if _, err := svc.Reject(context.Background(), userPrincipal(owner), created.ID); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden reject, got %v", err)
	}
}

func TestApprovalWritesOutboxEventWithEmailDetails(t *testing.T) {
	svc, db := newTestService(t)
	owner := seedUser(t, db, "owner@example.com", enums.RoleUser)
	admin := seedUser(t, db, "admin@example.com", enums.RoleAdmin)
	vehicle := seedVehicle(t, db, owner.ID, "RAD 452 B", enums.VehicleTypeCar, enums.SlotSizeSmall)
	seedSlot(t, db, "C-01", enums.VehicleTypeCar, enums.SlotSizeSmall, enums.SlotStatusAvailable)

	created, err := svc.Create(context.Background(), userPrincipal(owner), CreateReservationRequest{VehicleID: vehicle.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Approve(context.Background(), userPrincipal(admin), created.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	var events []models.OutboxEvent
	if err := db.Where("event_type = ?", enums.EventReservationApproved).Find(&events).Error; err != nil {
		t.Fatalf("load outbox: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 approval event, got %d", len(events))
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(events[0].Payload, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	var data ReservationEventData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		t.Fatalf("decode event data: %v", err)
	}
	if data.Email != "owner@example.com" || data.SlotCode != "C-01" || data.PlateNumber != "RAD 452 B" {
		t.Fatalf("unexpected event data: %+v", data)
	}
	if data.DecidedAt.IsZero() {
		t.Fatal("expected decision timestamp in event")
	}
}

func TestUpdateVehicleOnlyWhilePending(t *testing.T) {
	svc, db := newTestService(t)
	owner := seedUser(t, db, "owner@example.com", enums.RoleUser)
	admin := seedUser(t, db, "admin@example.com", enums.RoleAdmin)
	first := seedVehicle(t, db, owner.ID, "RAD 111 A", enums.VehicleTypeCar, enums.SlotSizeSmall)
	second := seedVehicle(t, db, owner.ID, "RAD 222 B", enums.VehicleTypeCar, enums.SlotSizeSmall)
	seedSlot(t, db, "C-01", enums.VehicleTypeCar, enums.SlotSizeSmall, enums.SlotStatusAvailable)

	created, err := svc.Create(context.Background(), userPrincipal(owner), CreateReservationRequest{VehicleID: first.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.UpdateVehicle(context.Background(), userPrincipal(owner), created.ID, UpdateReservationRequest{VehicleID: second.ID})
	if err != nil {
		t.Fatalf("update vehicle: %v", err)
	}
	if updated.VehicleID != second.ID {
		t.Fatalf("expected rebind to %d, got %d", second.ID, updated.VehicleID)
	}

	if _, err := svc.Approve(context.Background(), userPrincipal(admin), created.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	_, err = svc.UpdateVehicle(context.Background(), userPrincipal(owner), created.ID, UpdateReservationRequest{VehicleID: first.ID})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found after approval, got %v", err)
	}
}

func TestCancelDeletesOwnedPending(t *testing.T) {
	svc, db := newTestService(t)
	owner := seedUser(t, db, "owner@example.com", enums.RoleUser)
	other := seedUser(t, db, "other@example.com", enums.RoleUser)
	vehicle := seedVehicle(t, db, owner.ID, "RAD 452 B", enums.VehicleTypeCar, enums.SlotSizeSmall)

	created, err := svc.Create(context.Background(), userPrincipal(owner), CreateReservationRequest{VehicleID: vehicle.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	err = svc.Cancel(context.Background(), userPrincipal(other), created.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign cancel, got %v", err)
	}

	if err := svc.Cancel(context.Background(), userPrincipal(owner), created.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	var count int64
	if err := db.Model(&models.Reservation{}).Where("id = ?", created.ID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatal("expected reservation deleted")
	}
}

func TestListScopesAndSearches(t *testing.T) {
	svc, db := newTestService(t)
	owner := seedUser(t, db, "owner@example.com", enums.RoleUser)
	other := seedUser(t, db, "other@example.com", enums.RoleUser)
	admin := seedUser(t, db, "admin@example.com", enums.RoleAdmin)

	mine := seedVehicle(t, db, owner.ID, "RAD 452 B", enums.VehicleTypeCar, enums.SlotSizeSmall)
	theirs := seedVehicle(t, db, other.ID, "KGL 777 X", enums.VehicleTypeCar, enums.SlotSizeSmall)

	if _, err := svc.Create(context.Background(), userPrincipal(owner), CreateReservationRequest{VehicleID: mine.ID}); err != nil {
		t.Fatalf("create mine: %v", err)
	}
	if _, err := svc.Create(context.Background(), userPrincipal(other), CreateReservationRequest{VehicleID: theirs.ID}); err != nil {
		t.Fatalf("create theirs: %v", err)
	}

	rows, meta, err := svc.List(context.Background(), userPrincipal(owner), pagination.Params{})
	if err != nil {
		t.Fatalf("list owned: %v", err)
	}
	if len(rows) != 1 || meta.Total != 1 {
		t.Fatalf("expected owner to see 1 reservation, got %d (total %d)", len(rows), meta.Total)
	}

	rows, meta, err = svc.List(context.Background(), userPrincipal(admin), pagination.Params{})
	if err != nil {
		t.Fatalf("list admin: %v", err)
	}
	if len(rows) != 2 || meta.Total != 2 {
		t.Fatalf("expected admin to see 2 reservations, got %d (total %d)", len(rows), meta.Total)
	}

	rows, meta, err = svc.List(context.Background(), userPrincipal(admin), pagination.Params{SearchKey: "kgl"})
	if err != nil {
		t.Fatalf("list search: %v", err)
	}
	if len(rows) != 1 || rows[0].Vehicle == nil || rows[0].Vehicle.PlateNumber != "KGL 777 X" {
		t.Fatalf("expected plate search match, got %+v", rows)
	}
}

package vehicles

import (
	"context"
	"testing"

	"github.com/NICOLA-200/pms-restful/pkg/db/models"
	"github.com/NICOLA-200/pms-restful/pkg/enums"
	pkgerrors "github.com/NICOLA-200/pms-restful/pkg/errors"
	"github.com/NICOLA-200/pms-restful/pkg/pagination"
	"github.com/NICOLA-200/pms-restful/pkg/types"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:vehicles_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Vehicle{}, &models.ParkingSlot{}, &models.Reservation{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, db
}

func seedUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		PasswordHash: "x",
		FirstName:    "Test",
		LastName:     "User",
		Role:         enums.RoleUser,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestCreateVehicleNormalizesPlate(t *testing.T) {
	svc, db := newTestService(t)
	owner := seedUser(t, db, "owner@example.com")
	principal := types.Principal{UserID: owner.ID, Role: enums.RoleUser}

	dto, err := svc.Create(context.Background(), principal, CreateVehicleRequest{
		PlateNumber: " rad 452 b ",
		VehicleType: "car",
		Size:        "medium",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.PlateNumber != "RAD 452 B" {
		t.Fatalf("expected normalized plate, got %q", dto.PlateNumber)
	}
	if dto.UserID != owner.ID {
		t.Fatalf("expected owner %d, got %d", owner.ID, dto.UserID)
	}
}

func TestCreateVehicleDuplicatePlateConflicts(t *testing.T) {
	svc, db := newTestService(t)
	owner := seedUser(t, db, "owner@example.com")
	other := seedUser(t, db, "other@example.com")

	req := CreateVehicleRequest{PlateNumber: "RAD 100 A", VehicleType: "car", Size: "small"}
	if _, err := svc.Create(context.Background(), types.Principal{UserID: owner.ID, Role: enums.RoleUser}, req); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := svc.Create(context.Background(), types.Principal{UserID: other.ID, Role: enums.RoleUser}, req)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict across owners, got %v", err)
	}
}

func TestListVehiclesScopedAndSearched(t *testing.T) {
	svc, db := newTestService(t)
	owner := seedUser(t, db, "owner@example.com")
	other := seedUser(t, db, "other@example.com")
	principal := types.Principal{UserID: owner.ID, Role: enums.RoleUser}

	for _, plate := range []string{"RAD 111 A", "RAD 222 B", "KGL 333 C"} {
		if _, err := svc.Create(context.Background(), principal, CreateVehicleRequest{
			PlateNumber: plate, VehicleType: "car", Size: "small",
		}); err != nil {
			t.Fatalf("seed vehicle %s: %v", plate, err)
		}
	}
	if _, err := svc.Create(context.Background(), types.Principal{UserID: other.ID, Role: enums.RoleUser}, CreateVehicleRequest{
		PlateNumber: "RAD 999 Z", VehicleType: "car", Size: "small",
	}); err != nil {
		t.Fatalf("seed other vehicle: %v", err)
	}

	rows, meta, err := svc.List(context.Background(), principal, pagination.Params{SearchKey: "rad"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 owned matches, got %d", len(rows))
	}
	if meta.Total != 2 {
		t.Fatalf("expected total 2, got %d", meta.Total)
	}
	for _, row := range rows {
		if row.UserID != owner.ID {
			t.Fatalf("leaked vehicle from another owner: %+v", row)
		}
	}
}

func TestUpdateVehicleMergesFields(t *testing.T) {
	svc, db := newTestService(t)
	owner := seedUser(t, db, "owner@example.com")
	principal := types.Principal{UserID: owner.ID, Role: enums.RoleUser}

	model := "Corolla"
	created, err := svc.Create(context.Background(), principal, CreateVehicleRequest{
		PlateNumber: "RAD 452 B", VehicleType: "car", Size: "medium", Model: &model,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newSize := "large"
	updated, err := svc.Update(context.Background(), principal, created.ID, UpdateVehicleRequest{Size: &newSize})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Size != enums.SlotSizeLarge {
		t.Fatalf("expected updated size, got %s", updated.Size)
	}
	if updated.PlateNumber != "RAD 452 B" || updated.Model == nil || *updated.Model != "Corolla" {
		t.Fatalf("expected untouched fields preserved, got %+v", updated)
	}
}

func TestUpdateForeignVehicleNotFound(t *testing.T) {
	svc, db := newTestService(t)
	owner := seedUser(t, db, "owner@example.com")
	other := seedUser(t, db, "other@example.com")

	created, err := svc.Create(context.Background(), types.Principal{UserID: owner.ID, Role: enums.RoleUser}, CreateVehicleRequest{
		PlateNumber: "RAD 452 B", VehicleType: "car", Size: "medium",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	plate := "HACK 1"
	_, err = svc.Update(context.Background(), types.Principal{UserID: other.ID, Role: enums.RoleUser}, created.ID, UpdateVehicleRequest{PlateNumber: &plate})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign vehicle, got %v", err)
	}
}

func TestDeleteVehicleBlockedByReservation(t *testing.T) {
	svc, db := newTestService(t)
	owner := seedUser(t, db, "owner@example.com")
	principal := types.Principal{UserID: owner.ID, Role: enums.RoleUser}

	created, err := svc.Create(context.Background(), principal, CreateVehicleRequest{
		PlateNumber: "RAD 452 B", VehicleType: "car", Size: "medium",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	reservation := &models.Reservation{
		UserID:    owner.ID,
		VehicleID: created.ID,
		Status:    enums.ReservationStatusPending,
	}
	if err := db.Create(reservation).Error; err != nil {
		t.Fatalf("seed reservation: %v", err)
	}

	err = svc.Delete(context.Background(), principal, created.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict while reserved, got %v", err)
	}

	if err := db.Delete(reservation).Error; err != nil {
		t.Fatalf("clear reservation: %v", err)
	}
	if err := svc.Delete(context.Background(), principal, created.ID); err != nil {
		t.Fatalf("delete after clearing reservation: %v", err)
	}
}

package notifications

import (
	"strings"
	"testing"
	"time"

	"github.com/NICOLA-200/pms-restful/internal/reservations"
)

func TestComposeApprovalEmail(t *testing.T) {
	msg, ok := composeDecisionEmail(true, reservations.ReservationEventData{
		ReservationID: 12,
		Status:        "APPROVED",
		Email:         "owner@example.com",
		FirstName:     "Aline",
		PlateNumber:   "RAD 452 B",
		SlotCode:      "C-02",
		Location:      "north wing",
		DecidedAt:     time.Now().UTC(),
	})
	if !ok {
		t.Fatal("expected a composable message")
	}
	if msg.To != "owner@example.com" {
		t.Fatalf("unexpected recipient %q", msg.To)
	}
	if !strings.Contains(msg.Subject, "C-02") {
		t.Fatalf("expected slot code in subject, got %q", msg.Subject)
	}
	for _, want := range []string{"Aline", "RAD 452 B", "C-02", "north wing"} {
		if !strings.Contains(msg.HTML, want) {
			t.Fatalf("expected %q in body, got %q", want, msg.HTML)
		}
	}
}

func TestComposeRejectionEmailOmitsSlot(t *testing.T) {
	msg, ok := composeDecisionEmail(false, reservations.ReservationEventData{
		ReservationID: 12,
		Status:        "REJECTED",
		Email:         "owner@example.com",
		PlateNumber:   "RAD 452 B",
	})
	if !ok {
		t.Fatal("expected a composable message")
	}
	if strings.Contains(msg.Subject, "confirmed") {
		t.Fatalf("rejection subject reads like an approval: %q", msg.Subject)
	}
	if !strings.Contains(msg.HTML, "could not be approved") {
		t.Fatalf("expected rejection wording, got %q", msg.HTML)
	}
	if !strings.Contains(msg.HTML, "driver") {
		t.Fatalf("expected fallback salutation, got %q", msg.HTML)
	}
}

func TestComposeDecisionEmailNoRecipient(t *testing.T) {
	if _, ok := composeDecisionEmail(true, reservations.ReservationEventData{}); ok {
		t.Fatal("expected no message without a recipient")
	}
}

func TestComposeEscapesHTML(t *testing.T) {
	msg, ok := composeDecisionEmail(true, reservations.ReservationEventData{
		Email:       "owner@example.com",
		FirstName:   "<script>",
		PlateNumber: "RAD 452 B",
		SlotCode:    "C-02",
	})
	if !ok {
		t.Fatal("expected a composable message")
	}
	if strings.Contains(msg.HTML, "<script>") {
		t.Fatal("expected name to be escaped")
	}
}

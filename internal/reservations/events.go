package reservations

import "time"

// ReservationEventData is the payload carried by reservation outbox events.
// It holds everything the notification worker needs to compose the email
// without further lookups.
type ReservationEventData struct {
	ReservationID int64     `json:"reservationId"`
	Status        string    `json:"status"`
	Email         string    `json:"email"`
	FirstName     string    `json:"firstName"`
	PlateNumber   string    `json:"plateNumber"`
	SlotCode      string    `json:"slotCode,omitempty"`
	Location      string    `json:"location,omitempty"`
	DecidedAt     time.Time `json:"decidedAt"`
}

package notifications

import (
	"fmt"
	"html"
	"strings"

	"github.com/NICOLA-200/pms-restful/internal/reservations"
	"github.com/NICOLA-200/pms-restful/pkg/mailer"
)

// composeDecisionEmail renders the approval or rejection email for a
// reservation decision. Returns false when the event carries no recipient.
func composeDecisionEmail(approved bool, data reservations.ReservationEventData) (mailer.Message, bool) {
	to := strings.TrimSpace(data.Email)
	if to == "" {
		return mailer.Message{}, false
	}

	name := strings.TrimSpace(data.FirstName)
	if name == "" {
		name = "driver"
	}

	var subject string
	var body strings.Builder
	body.WriteString("<p>Hi " + html.EscapeString(name) + ",</p>")

	if approved {
		subject = fmt.Sprintf("Parking slot %s confirmed", data.SlotCode)
		body.WriteString(fmt.Sprintf(
			"<p>Your reservation for vehicle <strong>%s</strong> has been approved.</p>",
			html.EscapeString(data.PlateNumber),
		))
		body.WriteString(fmt.Sprintf(
			"<p>Slot <strong>%s</strong>", html.EscapeString(data.SlotCode),
		))
		if loc := strings.TrimSpace(data.Location); loc != "" {
			body.WriteString(" (" + html.EscapeString(loc) + ")")
		}
		body.WriteString(" is reserved for you.</p>")
	} else {
		subject = "Parking reservation update"
		body.WriteString(fmt.Sprintf(
			"<p>Your reservation for vehicle <strong>%s</strong> could not be approved at this time.</p>",
			html.EscapeString(data.PlateNumber),
		))
		body.WriteString("<p>You can submit a new request once a compatible slot opens up.</p>")
	}

	body.WriteString("<p>PMS Parking</p>")

	return mailer.Message{
		To:      to,
		Subject: subject,
		HTML:    body.String(),
	}, true
}

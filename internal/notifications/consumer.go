package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/NICOLA-200/pms-restful/internal/reservations"
	"github.com/NICOLA-200/pms-restful/pkg/enums"
	"github.com/NICOLA-200/pms-restful/pkg/logger"
	"github.com/NICOLA-200/pms-restful/pkg/mailer"
	"github.com/NICOLA-200/pms-restful/pkg/outbox"
	"github.com/google/uuid"
)

const processedTTL = 7 * 24 * time.Hour

// dedupeStore marks events as processed so redeliveries don't resend mail.
type dedupeStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

// Consumer watches reservation decision events and emails the requester.
type Consumer struct {
	subscription *pubsub.Subscriber
	sender       mailer.Sender
	dedupe       dedupeStore
	logg         *logger.Logger
}

// NewConsumer builds the reservation notification consumer.
func NewConsumer(subscription *pubsub.Subscriber, sender mailer.Sender, dedupe dedupeStore, logg *logger.Logger) (*Consumer, error) {
	if subscription == nil {
		return nil, fmt.Errorf("reservation subscription required")
	}
	if sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	if dedupe == nil {
		return nil, fmt.Errorf("dedupe store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		subscription: subscription,
		sender:       sender,
		dedupe:       dedupe,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	approved := eventType == string(enums.EventReservationApproved)
	rejected := eventType == string(enums.EventReservationRejected)
	if !approved && !rejected {
		c.logg.Info(logCtx, "skipping non-decision event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	key := processedKey(eventID)
	fresh, err := c.dedupe.SetNX(ctx, key, "1", processedTTL)
	if err != nil {
		c.logg.Error(logCtx, "dedupe check failed", err)
		return processResult{nack: true}
	}
	if !fresh {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	var data reservations.ReservationEventData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.dedupe.Del(ctx, key)
		return processResult{nack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"reservation_id": data.ReservationID,
		"status":         data.Status,
	})

	message, ok := composeDecisionEmail(approved, data)
	if !ok {
		c.logg.Info(logCtx, "event carries no recipient")
		return processResult{ack: true}
	}

	if err := c.sender.Send(ctx, message); err != nil {
		c.logg.Error(logCtx, "sending decision email failed", err)
		_ = c.dedupe.Del(ctx, key)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "requester notified of decision")
	return processResult{ack: true}
}

func processedKey(eventID uuid.UUID) string {
	return "notifications:reservation:" + eventID.String()
}

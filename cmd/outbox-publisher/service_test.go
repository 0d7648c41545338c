package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/NICOLA-200/pms-restful/pkg/config"
	"github.com/NICOLA-200/pms-restful/pkg/db/models"
	"github.com/NICOLA-200/pms-restful/pkg/enums"
	"github.com/NICOLA-200/pms-restful/pkg/logger"
	"github.com/google/uuid"
)

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
}

func (f *fakeRepo) FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	out := f.events
	f.events = nil
	return out, nil
}

func (f *fakeRepo) MarkPublished(id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailed(id uuid.UUID, err error) error {
	f.failed = append(f.failed, id)
	return nil
}

type fakePublisher struct {
	messages []*gcppubsub.Message
	err      error
}

func (f *fakePublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	f.messages = append(f.messages, msg)
	return fakeResult{err: f.err}
}

type fakeResult struct {
	err error
}

func (f fakeResult) Get(ctx context.Context) (string, error) {
	return "server-id", f.err
}

func testConfig() *config.Config {
	return &config.Config{
		Outbox: config.OutboxConfig{BatchSize: 10, PollIntervalMS: 50, MaxAttempts: 3},
	}
}

func testEvent(t *testing.T) models.OutboxEvent {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"version": 1,
		"eventId": uuid.NewString(),
		"data":    map[string]any{"reservationId": 7},
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventReservationApproved,
		AggregateType: enums.AggregateReservation,
		AggregateID:   "7",
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
	}
}

func TestProcessBatchPublishesAndMarks(t *testing.T) {
	event := testEvent(t)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{}

	svc, err := NewService(ServiceParams{
		Config:     testConfig(),
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: repo,
		Publisher:  pub,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !processed {
		t.Fatal("expected batch to be processed")
	}
	if len(pub.messages) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(pub.messages))
	}
	if got := pub.messages[0].Attributes["event_type"]; got != string(enums.EventReservationApproved) {
		t.Fatalf("unexpected event_type attribute %q", got)
	}
	if got := pub.messages[0].Attributes["aggregate_id"]; got != "7" {
		t.Fatalf("unexpected aggregate_id attribute %q", got)
	}
	if len(repo.published) != 1 || repo.published[0] != event.ID {
		t.Fatalf("expected event marked published, got %v", repo.published)
	}
	if len(repo.failed) != 0 {
		t.Fatalf("expected no failures, got %v", repo.failed)
	}
}

func TestProcessBatchMarksFailureAndContinues(t *testing.T) {
	first := testEvent(t)
	second := testEvent(t)
	repo := &fakeRepo{events: []models.OutboxEvent{first, second}}
	pub := &fakePublisher{err: errors.New("broker unavailable")}

	svc, err := NewService(ServiceParams{
		Config:     testConfig(),
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: repo,
		Publisher:  pub,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !processed {
		t.Fatal("expected batch to be processed")
	}
	if len(repo.failed) != 2 {
		t.Fatalf("expected both events marked failed, got %v", repo.failed)
	}
	if len(repo.published) != 0 {
		t.Fatalf("expected no publishes recorded, got %v", repo.published)
	}
}

func TestProcessBatchIdleWhenEmpty(t *testing.T) {
	repo := &fakeRepo{}
	svc, err := NewService(ServiceParams{
		Config:     testConfig(),
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: repo,
		Publisher:  &fakePublisher{},
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if processed {
		t.Fatal("expected idle batch")
	}
}

package kafka

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap/zaptest"

	"github.com/jahid-csedu/iam-system-sub000/internal/core/domain"
	"github.com/jahid-csedu/iam-system-sub000/internal/infra/config"
)

type fakeAsyncProducer struct {
	input  chan *sarama.ProducerMessage
	errors chan *sarama.ProducerError
}

func newFakeAsyncProducer() *fakeAsyncProducer {
	return &fakeAsyncProducer{
		input:  make(chan *sarama.ProducerMessage, 1),
		errors: make(chan *sarama.ProducerError, 1),
	}
}

func (f *fakeAsyncProducer) AsyncClose() {}

func (f *fakeAsyncProducer) Close() error { return nil }

func (f *fakeAsyncProducer) Input() chan<- *sarama.ProducerMessage { return f.input }

func (f *fakeAsyncProducer) Successes() <-chan *sarama.ProducerMessage { return nil }

func (f *fakeAsyncProducer) Errors() <-chan *sarama.ProducerError { return f.errors }

func (f *fakeAsyncProducer) IsTransactional() bool { return false }

func (f *fakeAsyncProducer) BeginTxn() error { return nil }

func (f *fakeAsyncProducer) CommitTxn() error { return nil }

func (f *fakeAsyncProducer) AbortTxn() error { return nil }

func (f *fakeAsyncProducer) AddOffsetsToTxn(offsets map[string][]*sarama.PartitionOffsetMetadata, groupID string) error {
	return nil
}

func (f *fakeAsyncProducer) AddMessageToTxn(msg *sarama.ConsumerMessage, groupID string, metadata *string) error {
	return nil
}

func (f *fakeAsyncProducer) TxnStatus() sarama.ProducerTxnStatusFlag {
	return sarama.ProducerTxnStatusFlag(0)
}

func newTestPublisher(t *testing.T) (*EventPublisher, *fakeAsyncProducer) {
	t.Helper()

	asyncProducer := newFakeAsyncProducer()
	producer := &Producer{
		producer: asyncProducer,
		logger:   zaptest.NewLogger(t),
		cfg: config.KafkaSettings{
			TopicPrefix: "iam",
		},
		errChan: make(chan error, 1),
		done:    make(chan struct{}),
	}

	publisher := NewEventPublisher(producer, config.AppSettings{
		Name: "iam-system",
		Env:  "test",
	}, zaptest.NewLogger(t))

	return publisher, asyncProducer
}

func receiveEnvelope(t *testing.T, asyncProducer *fakeAsyncProducer, wantTopic string) map[string]any {
	t.Helper()

	select {
	case msg := <-asyncProducer.input:
		if msg.Topic != wantTopic {
			t.Fatalf("unexpected topic: %s", msg.Topic)
		}

		bytes, err := msg.Value.Encode()
		if err != nil {
			t.Fatalf("Value.Encode returned error: %v", err)
		}

		var envelope map[string]any
		if err := json.Unmarshal(bytes, &envelope); err != nil {
			t.Fatalf("failed to unmarshal envelope: %v", err)
		}
		return envelope
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message on async producer input channel")
		return nil
	}
}

func TestPublishAccountLocked(t *testing.T) {
	publisher, asyncProducer := newTestPublisher(t)

	lockedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	event := domain.AccountLockedEvent{
		EventID:        "event-123",
		UserID:         "user-789",
		Username:       "alice",
		FailedAttempts: 5,
		LockedAt:       lockedAt,
		LockedUntil:    lockedAt.Add(15 * time.Minute),
	}

	if err := publisher.PublishAccountLocked(context.Background(), event); err != nil {
		t.Fatalf("PublishAccountLocked returned error: %v", err)
	}

	envelope := receiveEnvelope(t, asyncProducer, "iam.user.locked")

	if got := envelope["event_type"]; got != "iam.user.locked" {
		t.Fatalf("unexpected event_type: %v", got)
	}
	if got := envelope["user_id"]; got != event.UserID {
		t.Fatalf("unexpected user_id: %v", got)
	}
	if got := envelope["version"]; got != "1.0" {
		t.Fatalf("unexpected schema version: %v", got)
	}

	payload, ok := envelope["payload"].(map[string]any)
	if !ok {
		t.Fatalf("payload not a map: %T", envelope["payload"])
	}
	if got := payload["username"]; got != "alice" {
		t.Fatalf("unexpected username: %v", got)
	}
	attempts, ok := payload["failed_attempts"].(float64)
	if !ok || int(attempts) != 5 {
		t.Fatalf("unexpected failed_attempts: %v", payload["failed_attempts"])
	}
	lockedUntil, ok := payload["locked_until"].(string)
	if !ok || lockedUntil != event.LockedUntil.Format(time.RFC3339Nano) {
		t.Fatalf("unexpected locked_until: %v", payload["locked_until"])
	}

	metadata, ok := envelope["metadata"].(map[string]any)
	if !ok {
		t.Fatalf("envelope metadata not a map: %T", envelope["metadata"])
	}
	if metadata["service"] != "iam-system" {
		t.Fatalf("unexpected metadata service: %v", metadata["service"])
	}
	if metadata["environment"] != "test" {
		t.Fatalf("unexpected metadata environment: %v", metadata["environment"])
	}
}

func TestPublishPasswordResetRequestedCarriesNoSecrets(t *testing.T) {
	publisher, asyncProducer := newTestPublisher(t)

	requestedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	event := domain.PasswordResetRequestedEvent{
		EventID:           "event-456",
		UserID:            "user-789",
		RequestedAt:       requestedAt,
		MaskedDestination: "a***e@example.com",
		ExpiresAt:         requestedAt.Add(10 * time.Minute),
	}

	if err := publisher.PublishPasswordResetRequested(context.Background(), event); err != nil {
		t.Fatalf("PublishPasswordResetRequested returned error: %v", err)
	}

	envelope := receiveEnvelope(t, asyncProducer, "iam.user.password.reset_requested")

	payload, ok := envelope["payload"].(map[string]any)
	if !ok {
		t.Fatalf("payload not a map: %T", envelope["payload"])
	}
	if got := payload["masked_destination"]; got != event.MaskedDestination {
		t.Fatalf("unexpected masked_destination: %v", got)
	}
	for key := range payload {
		if strings.Contains(key, "otp") || strings.Contains(key, "code") {
			t.Fatalf("payload must not carry the reset code, found field %q", key)
		}
	}
}

func TestPublishPasswordChanged(t *testing.T) {
	publisher, asyncProducer := newTestPublisher(t)

	changedAt := time.Date(2026, 3, 1, 9, 5, 0, 0, time.UTC)
	event := domain.PasswordChangedEvent{
		EventID:   "event-789",
		UserID:    "user-789",
		ChangedAt: changedAt,
		Reason:    "password_reset",
	}

	if err := publisher.PublishPasswordChanged(context.Background(), event); err != nil {
		t.Fatalf("PublishPasswordChanged returned error: %v", err)
	}

	envelope := receiveEnvelope(t, asyncProducer, "iam.user.password.changed")

	payload, ok := envelope["payload"].(map[string]any)
	if !ok {
		t.Fatalf("payload not a map: %T", envelope["payload"])
	}
	if got := payload["reason"]; got != "password_reset" {
		t.Fatalf("unexpected reason: %v", got)
	}
	if got := payload["changed_at"]; got != changedAt.Format(time.RFC3339Nano) {
		t.Fatalf("unexpected changed_at: %v", got)
	}
}

func TestPublishCancelledContext(t *testing.T) {
	publisher, asyncProducer := newTestPublisher(t)

	// Fill the buffered input channel so the publish blocks on send.
	asyncProducer.input <- &sarama.ProducerMessage{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := publisher.PublishPasswordChanged(ctx, domain.PasswordChangedEvent{
		EventID:   "event-000",
		UserID:    "user-789",
		ChangedAt: time.Now(),
		Reason:    "password_reset",
	})
	if err == nil {
		t.Fatal("expected context cancellation to surface as an error")
	}
}

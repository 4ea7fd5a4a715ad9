package processing

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mirthwood/worldevents/pkg/deadletter"
	"github.com/mirthwood/worldevents/pkg/emitter"
	"github.com/mirthwood/worldevents/pkg/events"
	"github.com/mirthwood/worldevents/pkg/idempotency"
	"github.com/mirthwood/worldevents/pkg/telemetry"
)

type memRegistry struct {
	mu      sync.Mutex
	records map[string]idempotency.Record
	getErr  error
	putErr  error
}

func newMemRegistry() *memRegistry {
	return &memRegistry{records: make(map[string]idempotency.Record)}
}

func (r *memRegistry) Get(_ context.Context, key string) (*idempotency.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	record, ok := r.records[key]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (r *memRegistry) CreateIfAbsent(_ context.Context, record idempotency.Record) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.putErr != nil {
		return false, r.putErr
	}
	if _, exists := r.records[record.Key]; exists {
		return false, nil
	}
	r.records[record.Key] = record
	return true, nil
}

type memDeadLetterStore struct {
	mu      sync.Mutex
	records []deadletter.Record
}

func (s *memDeadLetterStore) Append(_ context.Context, record deadletter.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

type memSink struct {
	mu     sync.Mutex
	events []trackedEvent
}

type trackedEvent struct {
	name  string
	props map[string]any
}

func (s *memSink) TrackEvent(_ context.Context, name string, props map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, trackedEvent{name: name, props: props})
}

func (s *memSink) byName(name string) []trackedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []trackedEvent
	for _, e := range s.events {
		if e.name == name {
			matched = append(matched, e)
		}
	}
	return matched
}

type pipeline struct {
	processor *Processor
	registry  *memRegistry
	store     *memDeadLetterStore
	sink      *memSink
	handlers  map[events.EventType]*stubHandler
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()
	log := zap.NewNop()

	registry := newMemRegistry()
	guard := idempotency.NewGuard(idempotency.NewCache(128, time.Minute), registry, log)

	handlers := make(map[events.EventType]*stubHandler)
	handlerList := make([]Handler, 0, len(events.KnownTypes()))
	for _, eventType := range events.KnownTypes() {
		h := &stubHandler{eventType: eventType, result: Succeeded(true, nil)}
		handlers[eventType] = h
		handlerList = append(handlerList, h)
	}
	handlerRegistry, err := NewRegistry(handlerList)
	require.NoError(t, err)

	store := &memDeadLetterStore{}
	sink := &memSink{}

	return &pipeline{
		processor: NewProcessor(guard, handlerRegistry, deadletter.NewRecorder(store, log), sink, log),
		registry:  registry,
		store:     store,
		sink:      sink,
		handlers:  handlers,
	}
}

func validEnvelope(t *testing.T) *events.Envelope {
	t.Helper()
	return &events.Envelope{
		EventID:        uuid.NewString(),
		Type:           events.TypeExitCreate,
		OccurredUTC:    time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Actor:          events.Actor{Kind: events.ActorPlayer, ID: uuid.NewString()},
		CorrelationID:  uuid.NewString(),
		IdempotencyKey: "player:World.Exit.Create:loc:cavern-07:29556206",
		Version:        events.SchemaVersion,
		Payload:        map[string]any{"direction": "north", "toLocationId": "loc-081"},
	}
}

func deliveryFor(t *testing.T, e *events.Envelope) Delivery {
	t.Helper()
	body, err := json.Marshal(e)
	require.NoError(t, err)
	return Delivery{Body: body, PartitionKey: "loc:cavern-07"}
}

func TestProcess_AppliesAndRecordsIdempotency(t *testing.T) {
	p := newPipeline(t)
	envelope := validEnvelope(t)

	err := p.processor.Process(context.Background(), deliveryFor(t, envelope))
	require.NoError(t, err)

	assert.Equal(t, 1, p.handlers[events.TypeExitCreate].calls)
	record, ok := p.registry.records[envelope.IdempotencyKey]
	require.True(t, ok)
	assert.Equal(t, "loc:cavern-07", record.PartitionKey)
	assert.Equal(t, "created", record.Outcome)

	processed := p.sink.byName(telemetry.EventProcessed)
	require.Len(t, processed, 1)
	assert.Equal(t, false, processed[0].props[telemetry.PropDuplicate])
	assert.Equal(t, envelope.CorrelationID, processed[0].props[telemetry.PropCorrelationID])
	assert.Empty(t, p.store.records)
}

func TestProcess_DuplicateDeliverySuppressed(t *testing.T) {
	p := newPipeline(t)
	envelope := validEnvelope(t)
	delivery := deliveryFor(t, envelope)

	require.NoError(t, p.processor.Process(context.Background(), delivery))
	require.NoError(t, p.processor.Process(context.Background(), delivery))

	assert.Equal(t, 1, p.handlers[events.TypeExitCreate].calls, "handler must run once")
	assert.Len(t, p.registry.records, 1)

	processed := p.sink.byName(telemetry.EventProcessed)
	require.Len(t, processed, 2)
	assert.Equal(t, false, processed[0].props[telemetry.PropDuplicate])
	assert.Equal(t, true, processed[1].props[telemetry.PropDuplicate])
}

func TestProcess_UnparseableBodyDeadLettered(t *testing.T) {
	p := newPipeline(t)

	err := p.processor.Process(context.Background(), Delivery{
		Body:         []byte("{not json"),
		PartitionKey: "loc:cavern-07",
		RetryCount:   3,
	})
	require.NoError(t, err, "unparseable bodies must not be redelivered")

	require.Len(t, p.store.records, 1)
	record := p.store.records[0]
	assert.Equal(t, deadletter.CodeJSONParse, record.ErrorCode)
	assert.Equal(t, 3, record.RetryCount)
	assert.Equal(t, map[string]any{"unparsed": true, "byteCount": 9}, record.RedactedEnvelope)

	deadLettered := p.sink.byName(telemetry.EventDeadLettered)
	require.Len(t, deadLettered, 1)
	assert.Equal(t, "json-parse", deadLettered[0].props[telemetry.PropErrorCode])
}

func TestProcess_SchemaInvalidEnvelopeDeadLettered(t *testing.T) {
	p := newPipeline(t)
	envelope := validEnvelope(t)
	envelope.EventID = "not-a-uuid"

	err := p.processor.Process(context.Background(), deliveryFor(t, envelope))
	require.NoError(t, err)

	assert.Zero(t, p.handlers[events.TypeExitCreate].calls)
	require.Len(t, p.store.records, 1)
	record := p.store.records[0]
	assert.Equal(t, deadletter.CodeSchemaValidation, record.ErrorCode)
	assert.Equal(t, "validation", record.Error.Category)
	assert.NotEmpty(t, record.Error.Issues)
}

func TestProcess_InvalidPayloadDeadLettered(t *testing.T) {
	p := newPipeline(t)
	p.handlers[events.TypeExitCreate].result = InvalidPayload(events.Issue{
		Path:    "payload.direction",
		Message: "direction is required",
		Code:    events.CodeRequired,
	})
	envelope := validEnvelope(t)

	err := p.processor.Process(context.Background(), deliveryFor(t, envelope))
	require.NoError(t, err, "payload rejections are terminal, not retryable")

	require.Len(t, p.store.records, 1)
	record := p.store.records[0]
	assert.Equal(t, deadletter.CodeSchemaValidation, record.ErrorCode)
	assert.Equal(t, "payload-validation", record.Error.Category)
	assert.Empty(t, p.registry.records, "rejected events must not be marked processed")
}

func TestProcess_TransientFailurePropagates(t *testing.T) {
	p := newPipeline(t)
	downstream := errors.New("world store timeout")
	p.handlers[events.TypeExitCreate].result = TransientFailure(downstream)
	envelope := validEnvelope(t)

	err := p.processor.Process(context.Background(), deliveryFor(t, envelope))

	require.Error(t, err)
	assert.True(t, IsTransient(err))
	var te *TransientError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ErrCodeHandlerFailure, te.Code)
	assert.ErrorIs(t, err, downstream)

	assert.Empty(t, p.store.records, "transient failures go back to the transport, not the dead-letter store")
	assert.Empty(t, p.registry.records)
}

func TestProcess_RegistryOutageIsTransient(t *testing.T) {
	p := newPipeline(t)
	p.registry.getErr = errors.New("connection reset")
	envelope := validEnvelope(t)

	err := p.processor.Process(context.Background(), deliveryFor(t, envelope))

	require.Error(t, err)
	var te *TransientError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ErrCodeTransportUnavailable, te.Code)
	assert.Zero(t, p.handlers[events.TypeExitCreate].calls, "handler must not run when the duplicate check is unavailable")
}

func TestProcess_MarkProcessedFailureIsTransient(t *testing.T) {
	p := newPipeline(t)
	p.registry.putErr = errors.New("write concern failure")
	envelope := validEnvelope(t)

	err := p.processor.Process(context.Background(), deliveryFor(t, envelope))

	require.Error(t, err)
	var te *TransientError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ErrCodeTransportUnavailable, te.Code)
	assert.Equal(t, 1, p.handlers[events.TypeExitCreate].calls)
}

func TestProcess_UnhandledTypeDeadLettered(t *testing.T) {
	p := newPipeline(t)
	// Simulate an enum member shipped ahead of its handler; the startup
	// completeness check normally prevents this.
	p.processor.registry = &Registry{handlers: map[events.EventType]Handler{}}
	envelope := validEnvelope(t)

	err := p.processor.Process(context.Background(), deliveryFor(t, envelope))
	require.NoError(t, err)

	require.Len(t, p.store.records, 1)
	assert.Equal(t, deadletter.CodeUnknown, p.store.records[0].ErrorCode)
}

// End-to-end over the in-process seams: emit, wrap for transport, then
// deliver the wire bytes twice. One handler invocation, one idempotency
// record, the second delivery reported as a duplicate, and the caller's
// correlation id intact in the envelope, the transport properties and the
// telemetry.
func TestEmitThenProcessTwice(t *testing.T) {
	p := newPipeline(t)
	em := emitter.New(zap.NewNop())
	correlationID := "55555555-5555-4555-8555-555555555555"

	result, err := em.Emit(emitter.Options{
		EventType:     events.TypeExitCreate,
		ScopeKey:      events.LocationScope("cavern-07"),
		Payload:       map[string]any{"direction": "north", "toLocationId": "loc-081"},
		Actor:         events.Actor{Kind: events.ActorPlayer, ID: uuid.NewString()},
		CorrelationID: correlationID,
	})
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)

	message := emitter.PrepareEnqueueMessage(result, nil)
	assert.Equal(t, correlationID, message.CorrelationID)
	assert.Equal(t, correlationID, message.ApplicationProperties[emitter.PropCorrelationID])

	body, err := json.Marshal(message.Body)
	require.NoError(t, err)
	delivery := Delivery{
		Body:         body,
		PartitionKey: message.ApplicationProperties[emitter.PropScopeKey],
	}

	require.NoError(t, p.processor.Process(context.Background(), delivery))
	require.NoError(t, p.processor.Process(context.Background(), delivery))

	handler := p.handlers[events.TypeExitCreate]
	assert.Equal(t, 1, handler.calls)
	require.NotNil(t, handler.lastEnv)
	assert.Equal(t, correlationID, handler.lastEnv.CorrelationID)

	assert.Len(t, p.registry.records, 1)
	record, ok := p.registry.records[result.Envelope.IdempotencyKey]
	require.True(t, ok)
	assert.Equal(t, "loc:cavern-07", record.PartitionKey)

	processed := p.sink.byName(telemetry.EventProcessed)
	require.Len(t, processed, 2)
	assert.Equal(t, false, processed[0].props[telemetry.PropDuplicate])
	assert.Equal(t, true, processed[1].props[telemetry.PropDuplicate])
	assert.Equal(t, correlationID, processed[0].props[telemetry.PropCorrelationID])
	assert.Empty(t, p.store.records)
}

package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"pod-service/internal/logger"
	"pod-service/internal/mocks"
	"pod-service/internal/models"
	"pod-service/internal/observability"
)

func TestMessageCreatedPublishesEnvelope(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := NewEventEmitter(publisher, "pod-service", "test", logger.Nop())

	publisher.On("Publish", mock.Anything, RoutingMessageCreated, mock.AnythingOfType("observability.EventEnvelope"), map[string]string{"x-request-id": "r1"}).
		Return(nil).Once()

	emitter.MessageCreated(context.Background(), models.ChatMessage{ID: 3, PodID: "p1", AuthorID: "u1", Kind: models.MessageKindText}, "r1")

	publisher.AssertExpectations(t)
	envelope := publisher.Calls[0].Arguments.Get(2).(observability.EventEnvelope)
	assert.Equal(t, "message_created", envelope.EventName)
	payload := envelope.Payload.(map[string]interface{})
	require.Equal(t, "p1", payload["pod_id"])
}

func TestPresenceSwallowsPublishError(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := NewEventEmitter(publisher, "pod-service", "test", logger.Nop())
	publisher.On("Publish", mock.Anything, RoutingPresence, mock.Anything, mock.Anything).Return(assert.AnError).Once()

	emitter.Presence(context.Background(), "p1", "u2", models.EventUserLeft, "", "")
	publisher.AssertExpectations(t)
}

func TestPresenceCarriesHandshakeIDs(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := NewEventEmitter(publisher, "pod-service", "test", logger.Nop())
	publisher.On("Publish", mock.Anything, RoutingPresence, mock.AnythingOfType("observability.EventEnvelope"),
		map[string]string{"x-request-id": "req-1", "trace_id": "trace-1"}).Return(nil).Once()

	emitter.Presence(context.Background(), "p1", "u1", models.EventUserJoined, "req-1", "trace-1")

	publisher.AssertExpectations(t)
	envelope := publisher.Calls[0].Arguments.Get(2).(observability.EventEnvelope)
	assert.Equal(t, "user_joined", envelope.EventName)
}

func TestMessageCreatedTakesTraceIDFromContext(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := NewEventEmitter(publisher, "pod-service", "test", logger.Nop())
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: trace.TraceID{0xab}, SpanID: trace.SpanID{0x01}})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	publisher.On("Publish", mock.Anything, RoutingMessageCreated, mock.Anything,
		map[string]string{"x-request-id": "r1", "trace_id": sc.TraceID().String()}).Return(nil).Once()

	emitter.MessageCreated(ctx, models.ChatMessage{ID: 4, PodID: "p1"}, "r1")
	publisher.AssertExpectations(t)
}

func TestNilEmitterIsNoop(t *testing.T) {
	var emitter *EventEmitter
	emitter.Presence(context.Background(), "p1", "u1", models.EventUserJoined, "r", "t")
}

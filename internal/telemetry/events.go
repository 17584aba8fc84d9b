package telemetry

import (
	"context"
	"time"

	"pod-service/internal/logger"
	"pod-service/internal/models"
	"pod-service/internal/observability"
)

const (
	RoutingMessageCreated = "pod_events.message_created"
	RoutingPresence       = "pod_events.presence"
)

// Publisher is the broker side of EventEmitter.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any, headers map[string]string) error
}

// EventEmitter turns pod activity into broker events. A nil emitter is a no-op.
type EventEmitter struct {
	publisher   Publisher
	service     string
	environment string
	log         *logger.Logger
}

func NewEventEmitter(publisher Publisher, service, environment string, log *logger.Logger) *EventEmitter {
	return &EventEmitter{
		publisher:   publisher,
		service:     service,
		environment: environment,
		log:         log.With("component", "events"),
	}
}

// MessageCreated publishes a persisted chat message. The trace id comes from the span in ctx.
func (e *EventEmitter) MessageCreated(ctx context.Context, msg models.ChatMessage, requestID string) {
	e.emit(ctx, RoutingMessageCreated, "message_created", map[string]interface{}{
		"message_id": msg.ID,
		"pod_id":     msg.PodID,
		"author_id":  msg.AuthorID,
		"kind":       msg.Kind,
		"created_at": msg.CreatedAt,
	}, requestID, "")
}

// Presence publishes a join or leave of a pod room. requestID and traceID identify the
// websocket handshake that owns the socket.
func (e *EventEmitter) Presence(ctx context.Context, podID, userID string, eventType models.EventType, requestID, traceID string) {
	e.emit(ctx, RoutingPresence, string(eventType), map[string]interface{}{
		"pod_id":  podID,
		"user_id": userID,
	}, requestID, traceID)
}

func (e *EventEmitter) emit(ctx context.Context, routingKey, name string, payload map[string]interface{}, requestID, traceID string) {
	if e == nil || e.publisher == nil {
		return
	}
	if traceID == "" {
		traceID = observability.TraceID(ctx)
	}
	payload["environment"] = e.environment
	envelope := observability.EventEnvelope{
		EventType:  "pod_events",
		EventName:  name,
		OccurredAt: time.Now().UTC().Format(time.RFC3339Nano),
		Service:    e.service,
		Payload:    payload,
	}
	if err := e.publisher.Publish(ctx, routingKey, envelope, observability.BuildHeaders(requestID, traceID)); err != nil {
		e.log.Warn("event publish failed", "event_name", name, "error", err)
	}
}

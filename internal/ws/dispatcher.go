package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"pod-service/internal/logger"
	"pod-service/internal/models"
	"pod-service/internal/observability"
)

// maxParallelWrites bounds the writer goroutines of a single broadcast.
const maxParallelWrites = 64

// Dispatcher fans events out to the members of a pod room.
type Dispatcher struct {
	registry  *Registry
	writeWait time.Duration
	log       *logger.Logger

	// onWriteFailure runs once per failed recipient, after every write has finished.
	onWriteFailure func(conn *Conn, err error)
}

func NewDispatcher(registry *Registry, writeWait time.Duration, log *logger.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, writeWait: writeWait, log: log.With("component", "dispatcher")}
}

// Broadcast sends event to every member of podID except exclude and returns
// the number of successful deliveries. Members are written in parallel, so a
// stalled socket holds up only itself until its write deadline. A failed write
// does not stop delivery to the remaining members.
func (d *Dispatcher) Broadcast(ctx context.Context, podID string, event models.PodEvent, exclude *Conn) int {
	_, span := observability.Tracer("ws").Start(ctx, "ws.broadcast")
	defer span.End()

	payload, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "encode")
		d.log.Error("encode event", "type", event.Type, "error", err)
		return 0
	}

	members := d.registry.MembersOf(podID)
	type failure struct {
		conn *Conn
		err  error
	}
	var (
		mu        sync.Mutex
		failed    []failure
		delivered int
	)
	var g errgroup.Group
	g.SetLimit(maxParallelWrites)
	for _, conn := range members {
		if conn == exclude {
			continue
		}
		g.Go(func() error {
			err := conn.send(payload, d.writeWait)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, failure{conn: conn, err: err})
			} else {
				delivered++
			}
			return nil
		})
	}
	_ = g.Wait()

	span.SetAttributes(
		attribute.String("pod.id", podID),
		attribute.String("event.type", string(event.Type)),
		attribute.Int("recipients", delivered),
		attribute.Int("failures", len(failed)),
	)

	for _, f := range failed {
		observability.IncBroadcastFailure()
		d.log.Warn("websocket write error", "pod_id", podID, "conn_id", f.conn.ID(), "error", f.err)
		if d.onWriteFailure != nil {
			d.onWriteFailure(f.conn, f.err)
		}
	}
	return delivered
}

package dispatcher

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/domain"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/backplane"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/logging"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/metrics"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/tracing"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/ws"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Hub delivers a broadcast to the clients connected to this instance.
type Hub interface {
	Broadcast(ctx context.Context, b ws.Broadcast) error
}

type Options struct {
	// DedupWindow is how long a broker message id is remembered. Zero turns
	// de-duplication off.
	DedupWindow time.Duration
	// Mirror publishes every local dispatch to the backplane. Leave it off
	// when every instance binds its own queue to the fan-out exchange, since
	// each one already receives every broker message.
	Mirror bool
}

// Dispatcher routes consumed events to local clients and mirrors them to
// peer instances through the backplane.
type Dispatcher struct {
	hub       Hub
	backplane backplane.Backplane
	seen      *ttlcache.Cache[string, struct{}]
	mirror    bool
	tracer    trace.Tracer
	logger    logging.Logger
	metrics   *metrics.Metrics
}

func New(hub Hub, bp backplane.Backplane, logger logging.Logger, m *metrics.Metrics, opts Options) *Dispatcher {
	d := &Dispatcher{
		hub:       hub,
		backplane: bp,
		mirror:    opts.Mirror,
		tracer:    tracing.GetTracer("gateway/dispatcher"),
		logger:    logger,
		metrics:   m,
	}

	if opts.DedupWindow > 0 {
		d.seen = ttlcache.New[string, struct{}](
			ttlcache.WithTTL[string, struct{}](opts.DedupWindow),
			ttlcache.WithDisableTouchOnHit[string, struct{}](),
		)
	}

	return d
}

// Run delivers envelopes from peer instances until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	if d.seen != nil {
		go d.seen.Start()
		defer d.seen.Stop()
	}

	return d.backplane.Subscribe(ctx, func(env backplane.Envelope) {
		d.deliverRemote(ctx, env)
	})
}

// Dispatch delivers event locally and, when mirroring, publishes it to the
// backplane.
func (d *Dispatcher) Dispatch(ctx context.Context, event domain.InboundEvent) error {
	ctx, span := d.tracer.Start(ctx, "dispatcher.Dispatch", trace.WithAttributes(
		attribute.String("event.name", event.Name),
		attribute.StringSlice("event.rooms", event.Rooms),
		attribute.String("messaging.message.id", event.MessageID),
	))
	defer span.End()

	if d.duplicate(event.MessageID) {
		span.SetAttributes(attribute.Bool("event.duplicate", true))
		return nil
	}

	if err := d.hub.Broadcast(ctx, toBroadcast(event)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "local delivery failed")
		return err
	}

	if d.mirror {
		d.publish(ctx, span, event)
	}

	d.logger.Debug(logging.Dispatcher, logging.Broadcast, "event dispatched", map[logging.ExtraKey]any{
		logging.Event:     event.Name,
		logging.Rooms:     event.Rooms,
		logging.MessageID: event.MessageID,
	})
	return nil
}

func (d *Dispatcher) publish(ctx context.Context, span trace.Span, event domain.InboundEvent) {
	err := d.backplane.Publish(ctx, backplane.Envelope{
		MessageID: event.MessageID,
		Event:     event.Name,
		Data:      event.Data,
		Rooms:     event.Rooms,
	})
	if err != nil {
		span.RecordError(err)
		d.logger.Warn(logging.Dispatcher, logging.Publish, "backplane publish failed, delivered locally only", map[logging.ExtraKey]any{
			logging.Event:        event.Name,
			logging.MessageID:    event.MessageID,
			logging.ErrorMessage: err.Error(),
		})
	}
}

func (d *Dispatcher) deliverRemote(ctx context.Context, env backplane.Envelope) {
	if d.duplicate(env.MessageID) {
		return
	}

	err := d.hub.Broadcast(ctx, ws.Broadcast{Event: env.Event, Data: env.Data, Rooms: env.Rooms})
	if err != nil {
		d.logger.Warn(logging.Dispatcher, logging.Broadcast, "dropping peer broadcast", map[logging.ExtraKey]any{
			logging.Event:        env.Event,
			logging.InstanceID:   env.Origin,
			logging.ErrorMessage: err.Error(),
		})
	}
}

// duplicate records id and reports whether it was already seen.
func (d *Dispatcher) duplicate(id string) bool {
	if id == "" || d.seen == nil {
		return false
	}

	if _, found := d.seen.GetOrSet(id, struct{}{}); found {
		d.metrics.EventsDuplicate.Inc()
		d.logger.Debug(logging.Dispatcher, logging.Broadcast, "skipping duplicate event", map[logging.ExtraKey]any{
			logging.MessageID: id,
		})
		return true
	}
	return false
}

func toBroadcast(event domain.InboundEvent) ws.Broadcast {
	return ws.Broadcast{
		Event: event.Name,
		Data:  event.Data,
		Rooms: event.Rooms,
	}
}

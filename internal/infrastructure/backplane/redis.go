package backplane

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/logging"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/metrics"
)

const pingTimeout = 5 * time.Second

// Redis mirrors broadcasts over a pub/sub channel. Publishing and the
// subscription use separate connections.
type Redis struct {
	pub        *redis.Client
	sub        *redis.Client
	channel    string
	instanceID string
	logger     logging.Logger
	metrics    *metrics.Metrics
}

func NewRedis(ctx context.Context, opts Options, logger logging.Logger, m *metrics.Metrics) (*Redis, error) {
	pubOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse url: %v", ErrUnavailable, err)
	}
	subOpts, _ := redis.ParseURL(opts.URL)

	pub := redis.NewClient(pubOpts)
	sub := redis.NewClient(subOpts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := pub.Ping(pingCtx).Err(); err != nil {
		_ = pub.Close()
		_ = sub.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return &Redis{
		pub:        pub,
		sub:        sub,
		channel:    opts.Channel,
		instanceID: opts.InstanceID,
		logger:     logger,
		metrics:    m,
	}, nil
}

func (r *Redis) InstanceID() string {
	return r.instanceID
}

func (r *Redis) Publish(ctx context.Context, env Envelope) error {
	env.Origin = r.instanceID

	payload, err := json.Marshal(env)
	if err != nil {
		r.metrics.BackplaneFailures.WithLabelValues("encode").Inc()
		return fmt.Errorf("encode envelope: %w", err)
	}

	if err := r.pub.Publish(ctx, r.channel, payload).Err(); err != nil {
		r.metrics.BackplaneFailures.WithLabelValues("publish").Inc()
		return fmt.Errorf("publish to %s: %w", r.channel, err)
	}
	return nil
}

func (r *Redis) Subscribe(ctx context.Context, handle Handler) error {
	ps := r.sub.Subscribe(ctx, r.channel)
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to %s: %w", r.channel, err)
	}

	r.logger.Info(logging.Backplane, logging.Subscribe, "subscribed to backplane", map[logging.ExtraKey]any{
		logging.Queue:      r.channel,
		logging.InstanceID: r.instanceID,
	})

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				r.metrics.BackplaneFailures.WithLabelValues("decode").Inc()
				r.logger.Warn(logging.Backplane, logging.Parse, "dropping undecodable envelope", map[logging.ExtraKey]any{
					logging.ErrorMessage: err.Error(),
				})
				continue
			}

			if env.Origin == r.instanceID {
				continue
			}

			r.metrics.BackplaneReceived.Inc()
			handle(env)
		}
	}
}

func (r *Redis) Close() error {
	return errors.Join(r.pub.Close(), r.sub.Close())
}

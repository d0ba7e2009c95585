package backplane

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/logging"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/metrics"
)

var ErrUnavailable = errors.New("backplane unavailable")

// Envelope is a broadcast mirrored between gateway instances.
type Envelope struct {
	Origin    string          `json:"origin"`
	MessageID string          `json:"messageId,omitempty"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data,omitempty"`
	Rooms     []string        `json:"rooms,omitempty"`
}

type Handler func(Envelope)

type Backplane interface {
	InstanceID() string
	Publish(ctx context.Context, env Envelope) error
	// Subscribe delivers envelopes from other instances until ctx is done.
	Subscribe(ctx context.Context, handle Handler) error
	Close() error
}

type Options struct {
	URL        string
	Channel    string
	InstanceID string
}

// New connects to Redis when a URL is configured. A failed connection is not
// fatal: the gateway keeps running single-instance on the Local backplane.
func New(ctx context.Context, opts Options, logger logging.Logger, m *metrics.Metrics) Backplane {
	if opts.URL == "" {
		logger.Info(logging.Backplane, logging.Startup, "no backplane configured, broadcasts stay local", map[logging.ExtraKey]any{
			logging.InstanceID: opts.InstanceID,
		})
		return NewLocal(opts.InstanceID)
	}

	bp, err := NewRedis(ctx, opts, logger, m)
	if err != nil {
		logger.Warn(logging.Backplane, logging.Startup, "backplane unavailable, running single instance", map[logging.ExtraKey]any{
			logging.InstanceID:   opts.InstanceID,
			logging.ErrorMessage: err.Error(),
		})
		return NewLocal(opts.InstanceID)
	}

	logger.Info(logging.Backplane, logging.Startup, "redis backplane connected", map[logging.ExtraKey]any{
		logging.InstanceID: opts.InstanceID,
	})
	return bp
}

package events

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/domain"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/logging"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/messaging"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/metrics"
)

// Dispatcher receives every well-formed event consumed from the exchange.
type Dispatcher interface {
	Dispatch(ctx context.Context, event domain.InboundEvent) error
}

type ConsumerOptions struct {
	messaging.Options
	// ManualAck acks each delivery after dispatch instead of on receipt.
	ManualAck bool
}

// BroadcastConsumer bridges the fan-out exchange to the dispatcher. It owns
// the broker connection and re-establishes it whenever it drops.
type BroadcastConsumer struct {
	opts       ConsumerOptions
	dispatcher Dispatcher
	logger     logging.Logger
	metrics    *metrics.Metrics
}

func NewBroadcastConsumer(opts ConsumerOptions, dispatcher Dispatcher, logger logging.Logger, m *metrics.Metrics) *BroadcastConsumer {
	return &BroadcastConsumer{
		opts:       opts,
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    m,
	}
}

// Listen consumes until ctx is cancelled.
func (c *BroadcastConsumer) Listen(ctx context.Context) error {
	for {
		rmq, err := messaging.Connect(ctx, c.opts.Options, c.logger, c.metrics)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		err = c.consume(ctx, rmq)
		rmq.Close()

		if ctx.Err() != nil {
			c.logger.Info(logging.RabbitMQ, logging.Shutdown, "broadcast consumer stopped", nil)
			return nil
		}

		c.logger.Warn(logging.RabbitMQ, logging.Reconnect, "broker connection lost, reconnecting", map[logging.ExtraKey]any{
			logging.Exchange:     c.opts.Exchange,
			logging.ErrorMessage: err.Error(),
		})
		c.metrics.BrokerReconnects.Inc()
	}
}

func (c *BroadcastConsumer) consume(ctx context.Context, rmq *messaging.RabbitMQ) error {
	closed := rmq.NotifyClose()

	deliveries, queue, err := rmq.ConsumeExchange(!c.opts.ManualAck)
	if err != nil {
		return err
	}

	c.logger.Info(logging.RabbitMQ, logging.Consume, "consuming broadcast events", map[logging.ExtraKey]any{
		logging.Exchange: rmq.Exchange(),
		logging.Queue:    queue,
	})

	for {
		select {
		case <-ctx.Done():
			return nil
		case amqpErr, ok := <-closed:
			if !ok || amqpErr == nil {
				return errors.New("connection closed")
			}
			return fmt.Errorf("connection closed: %w", amqpErr)
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.HandleDelivery(ctx, d)
		}
	}
}

// HandleDelivery parses one broker message and hands it to the dispatcher.
// Malformed messages are logged and dropped; they never stop consumption.
func (c *BroadcastConsumer) HandleDelivery(ctx context.Context, d amqp.Delivery) {
	c.metrics.EventsConsumed.Inc()

	event, err := domain.ParseInboundEvent(d.Body)
	if err != nil {
		c.metrics.EventsMalformed.Inc()
		c.logger.Error(logging.RabbitMQ, logging.Parse, "dropping malformed event", map[logging.ExtraKey]any{
			logging.MessageID:    d.MessageId,
			logging.ErrorMessage: err.Error(),
			logging.BodySize:     len(d.Body),
		})
		c.settle(d, false)
		return
	}
	event.MessageID = d.MessageId

	if err := c.dispatcher.Dispatch(ctx, event); err != nil {
		c.logger.Error(logging.RabbitMQ, logging.Broadcast, "dispatch failed", map[logging.ExtraKey]any{
			logging.Event:        event.Name,
			logging.MessageID:    event.MessageID,
			logging.ErrorMessage: err.Error(),
		})
		c.settle(d, false)
		return
	}

	c.settle(d, true)
}

func (c *BroadcastConsumer) settle(d amqp.Delivery, ok bool) {
	if !c.opts.ManualAck {
		return
	}

	var err error
	if ok {
		err = d.Ack(false)
	} else {
		err = d.Reject(false)
	}
	if err != nil {
		c.logger.Warn(logging.RabbitMQ, logging.Consume, "failed to settle delivery", map[logging.ExtraKey]any{
			logging.MessageID:    d.MessageId,
			logging.ErrorMessage: err.Error(),
		})
	}
}

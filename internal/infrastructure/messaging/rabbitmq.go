package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/logging"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/metrics"
)

const (
	ExchangeKindFanout = "fanout"
	ContentTypeJSON    = "application/json"
)

type Options struct {
	URL        string
	Exchange   string
	MaxBackoff time.Duration
	// MaxTries bounds the dial attempts of one Connect call. Zero retries
	// until the context is cancelled.
	MaxTries uint
}

type RabbitMQ struct {
	conn     *amqp.Connection
	Channel  *amqp.Channel
	exchange string
}

func NewRabbitMQ(uri, exchange string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	rmq := &RabbitMQ{
		conn:     conn,
		Channel:  ch,
		exchange: exchange,
	}

	if err := rmq.declareExchange(); err != nil {
		rmq.Close()
		return nil, err
	}

	return rmq, nil
}

// Connect dials until it succeeds or ctx is cancelled, backing off
// exponentially up to opts.MaxBackoff between attempts.
func Connect(ctx context.Context, opts Options, logger logging.Logger, m *metrics.Metrics) (*RabbitMQ, error) {
	policy := backoff.NewExponentialBackOff()
	if opts.MaxBackoff > 0 {
		policy.MaxInterval = opts.MaxBackoff
		policy.InitialInterval = min(policy.InitialInterval, opts.MaxBackoff)
	}

	attempt := 0
	operation := func() (*RabbitMQ, error) {
		attempt++
		if attempt > 1 {
			m.BrokerReconnects.Inc()
		}
		return NewRabbitMQ(opts.URL, opts.Exchange)
	}

	rmq, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxElapsedTime(0),
		backoff.WithMaxTries(opts.MaxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Warn(logging.RabbitMQ, logging.Reconnect, "broker unavailable, retrying", map[logging.ExtraKey]any{
				logging.Exchange:     opts.Exchange,
				logging.ErrorMessage: err.Error(),
				logging.Attempt:      attempt,
				logging.RetryIn:      next.String(),
			})
		}),
	)
	if err != nil {
		return nil, err
	}

	logger.Info(logging.RabbitMQ, logging.Startup, "connected to broker", map[logging.ExtraKey]any{
		logging.Exchange: opts.Exchange,
	})
	return rmq, nil
}

func (r *RabbitMQ) Close() {
	if r.Channel != nil {
		r.Channel.Close()
	}
	if r.conn != nil {
		r.conn.Close()
	}
}

func (r *RabbitMQ) Exchange() string {
	return r.exchange
}

// NotifyClose reports the connection going away.
func (r *RabbitMQ) NotifyClose() <-chan *amqp.Error {
	return r.conn.NotifyClose(make(chan *amqp.Error, 1))
}

func (r *RabbitMQ) declareExchange() error {
	if err := r.Channel.ExchangeDeclare(
		r.exchange,         // name
		ExchangeKindFanout, // kind
		false,              // durable
		false,              // auto-deleted
		false,              // internal
		false,              // no-wait
		nil,                // arguments
	); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", r.exchange, err)
	}
	return nil
}

// ConsumeExchange binds a private server-named queue to the exchange and
// starts consuming from it. The queue disappears with the connection.
func (r *RabbitMQ) ConsumeExchange(autoAck bool) (<-chan amqp.Delivery, string, error) {
	q, err := r.Channel.QueueDeclare(
		"",    // name
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := r.Channel.QueueBind(
		q.Name,     // queue name
		"",         // routing key
		r.exchange, // exchange
		false,
		nil,
	); err != nil {
		return nil, "", fmt.Errorf("failed to bind queue to %s: %w", r.exchange, err)
	}

	deliveries, err := r.Channel.Consume(
		q.Name,  // queue
		"",      // consumer
		autoAck, // auto-ack
		true,    // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to consume from %s: %w", q.Name, err)
	}

	return deliveries, q.Name, nil
}

func (r *RabbitMQ) PublishMessage(ctx context.Context, messageID string, body []byte) error {
	return r.Channel.PublishWithContext(ctx,
		r.exchange, // exchange
		"",         // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType: ContentTypeJSON,
			MessageId:   messageID,
			Timestamp:   time.Now(),
			Body:        body,
		},
	)
}

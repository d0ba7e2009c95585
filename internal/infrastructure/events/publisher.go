package events

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/messaging"
)

// BroadcastMessage is the body producers publish to the exchange.
type BroadcastMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	Rooms []string        `json:"rooms,omitempty"`
}

type BroadcastPublisher struct {
	rabbitmq *messaging.RabbitMQ
}

func NewBroadcastPublisher(rabbitmq *messaging.RabbitMQ) *BroadcastPublisher {
	return &BroadcastPublisher{
		rabbitmq: rabbitmq,
	}
}

// Publish sends msg with a fresh message id and returns that id.
func (p *BroadcastPublisher) Publish(ctx context.Context, msg BroadcastMessage) (string, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	if err := p.rabbitmq.PublishMessage(ctx, id, body); err != nil {
		return "", err
	}
	return id, nil
}

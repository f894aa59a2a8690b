package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/uyirthuli/donor-match-service/internal/core/ports"
	amqp "github.com/rabbitmq/amqp091-go"
)

var _ ports.AlertPublisher = (*RabbitMQBroker)(nil)

func (rmq *RabbitMQBroker) PublishDonorAlert(ctx context.Context, evt ports.DonorAlertEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return rmq.publish(ctx, ports.EventDonorAlert, body)
}

func (rmq *RabbitMQBroker) PublishMatchAccepted(ctx context.Context, evt ports.MatchAcceptedEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return rmq.publish(ctx, ports.EventMatchAccepted, body)
}

func (rmq *RabbitMQBroker) publish(ctx context.Context, eventType string, body []byte) error {
	// Respect context deadline
	if deadline, ok := ctx.Deadline(); ok {
		if time.Until(deadline) <= 0 {
			return ctx.Err()
		}
	}

	// Use circuit breaker to protect RabbitMQ publish operation
	_, err := rmq.cb.Execute(func() (interface{}, error) {
		err := rmq.ch.PublishWithContext(
			ctx,
			"",            // exchange (default)
			rmq.queueName, // routing key == queue name
			false,         // mandatory
			false,         // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Type:         eventType,
				Body:         body,
			},
		)
		return nil, err
	})
	return err
}

package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"studysync_backend/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher 领域事件的发布方。服务层只依赖这个接口。
type Publisher interface {
	PublishAttemptCompleted(ctx context.Context, e AttemptCompleted) error
	PublishCheckoutCreated(ctx context.Context, e CheckoutCreated) error
	PublishFeedbackCreated(ctx context.Context, e FeedbackCreated) error
	PublishUploadStored(ctx context.Context, e UploadStored) error
}

type EventPublisher struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	enabled      bool
}

// NewEventPublisher URI 为空时返回禁用的发布器，所有发布调用直接跳过
func NewEventPublisher(rabbitURI, exchangeName string) (*EventPublisher, error) {
	if rabbitURI == "" {
		logger.Log.Warn("RabbitMQ URI is empty, event publishing is disabled")
		return &EventPublisher{enabled: false}, nil
	}

	conn, err := amqp091.Dial(rabbitURI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchangeName, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	logger.Log.Info("RabbitMQ publisher ready", zap.String("exchange", exchangeName))
	return &EventPublisher{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		enabled:      true,
	}, nil
}

func (p *EventPublisher) Enabled() bool {
	return p.enabled
}

func (p *EventPublisher) publish(ctx context.Context, t EventType, payload any) error {
	if !p.enabled {
		logger.Log.Debug("event publishing disabled, skipping", zap.String("type", string(t)))
		return nil
	}

	body, err := json.Marshal(newEnvelope(t, payload))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(
		pubCtx,
		p.exchangeName,
		string(t),
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event %s: %w", t, err)
	}

	logger.Log.Debug("published event", zap.String("type", string(t)))
	return nil
}

func (p *EventPublisher) PublishAttemptCompleted(ctx context.Context, e AttemptCompleted) error {
	return p.publish(ctx, EventTypeAttemptCompleted, e)
}

func (p *EventPublisher) PublishCheckoutCreated(ctx context.Context, e CheckoutCreated) error {
	return p.publish(ctx, EventTypeCheckoutCreated, e)
}

func (p *EventPublisher) PublishFeedbackCreated(ctx context.Context, e FeedbackCreated) error {
	return p.publish(ctx, EventTypeFeedbackCreated, e)
}

func (p *EventPublisher) PublishUploadStored(ctx context.Context, e UploadStored) error {
	return p.publish(ctx, EventTypeUploadStored, e)
}

func (p *EventPublisher) Close() error {
	if !p.enabled {
		return nil
	}
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			logger.Log.Warn("Error closing RabbitMQ channel", zap.Error(err))
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("error closing RabbitMQ connection: %w", err)
		}
	}
	return nil
}

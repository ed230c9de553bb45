package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	RoutingKeyLoanSubmitted = "loan.application.submitted"
	RoutingKeyLoanApproved  = "loan.application.approved"
	RoutingKeyLoanCompleted = "loan.completed"
	publisherAppID          = "lora-lending"
)

type EventPublisher interface {
	PublishLoanSubmitted(ctx context.Context, event LoanEvent) error
	PublishLoanApproved(ctx context.Context, event LoanEvent) error
	PublishLoanCompleted(ctx context.Context, event LoanEvent) error
}

// LoanEvent is the payload for every loan lifecycle message. Amount is the
// principal on submission, the net release on approval and the amount paid on
// completion.
type LoanEvent struct {
	LoanID     string    `json:"loanId"`
	BorrowerID int64     `json:"borrowerId"`
	LenderID   int64     `json:"lenderId"`
	Status     string    `json:"status"`
	Amount     string    `json:"amount"`
	Method     string    `json:"method,omitempty"`
	DueDate    string    `json:"dueDate,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

type RabbitMQEventPublisher struct {
	conn         *amqp.Connection
	exchangeName string
	logger       *slog.Logger
}

func NewRabbitMQEventPublisher(conn *amqp.Connection, exchangeName string, logger *slog.Logger) (EventPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("RabbitMQ connection cannot be nil")
	}
	if exchangeName == "" {
		return nil, fmt.Errorf("RabbitMQ exchange name cannot be empty")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open temporary channel for exchange declaration: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(exchangeName, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", exchangeName, err)
	}
	logger.Info("Ensured RabbitMQ exchange exists", "exchange", exchangeName, "type", amqp.ExchangeTopic)

	return &RabbitMQEventPublisher{
		conn:         conn,
		exchangeName: exchangeName,
		logger:       logger.With("component", "RabbitMQEventPublisher", "exchange", exchangeName),
	}, nil
}

func (p *RabbitMQEventPublisher) PublishLoanSubmitted(ctx context.Context, event LoanEvent) error {
	return p.publish(ctx, RoutingKeyLoanSubmitted, event)
}

func (p *RabbitMQEventPublisher) PublishLoanApproved(ctx context.Context, event LoanEvent) error {
	return p.publish(ctx, RoutingKeyLoanApproved, event)
}

func (p *RabbitMQEventPublisher) PublishLoanCompleted(ctx context.Context, event LoanEvent) error {
	return p.publish(ctx, RoutingKeyLoanCompleted, event)
}

func (p *RabbitMQEventPublisher) publish(ctx context.Context, routingKey string, payload any) error {
	logCtx := p.logger.With(slog.String("routingKey", routingKey))

	channel, err := p.conn.Channel()
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to open RabbitMQ channel", slog.Any("error", err))
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer channel.Close()

	body, err := json.Marshal(payload)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to marshal event payload to JSON", slog.Any("error", err))
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = channel.PublishWithContext(ctx, p.exchangeName, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
		AppId:        publisherAppID,
	})
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to publish message to RabbitMQ", slog.Any("error", err))
		return fmt.Errorf("failed to publish message: %w", err)
	}

	logCtx.InfoContext(ctx, "Published loan event", "bodySize", len(body))
	return nil
}

// NoopPublisher drops events. Used when messaging is disabled.
type NoopPublisher struct {
	Logger *slog.Logger
}

func (n NoopPublisher) PublishLoanSubmitted(ctx context.Context, event LoanEvent) error {
	return n.drop(ctx, RoutingKeyLoanSubmitted, event)
}

func (n NoopPublisher) PublishLoanApproved(ctx context.Context, event LoanEvent) error {
	return n.drop(ctx, RoutingKeyLoanApproved, event)
}

func (n NoopPublisher) PublishLoanCompleted(ctx context.Context, event LoanEvent) error {
	return n.drop(ctx, RoutingKeyLoanCompleted, event)
}

func (n NoopPublisher) drop(ctx context.Context, routingKey string, event LoanEvent) error {
	if n.Logger != nil {
		n.Logger.DebugContext(ctx, "Messaging disabled, dropping event", "routingKey", routingKey, "loanID", event.LoanID)
	}
	return nil
}

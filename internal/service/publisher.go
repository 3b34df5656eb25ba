// Package service holds the pieces that sit between the HTTP layer and the
// layout store: event publishing around saves and the editor session
// wiring.
package service

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/venue-seat-layout/internal/queue"
)

// EventPublisher announces accepted saves.
type EventPublisher interface {
	PublishLayoutSaved(ctx context.Context, ev queue.LayoutSavedEvent) error
}

// AMQPPublisher publishes to the durable layout.saved queue.  It dials the
// broker per publish; saves are rare enough that a pooled connection is
// not worth its reconnect handling.
type AMQPPublisher struct {
	URL    string
	Logger *log.Logger
}

// NewAMQPPublisher returns a publisher for url, logging to the standard
// logger.
func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{URL: url, Logger: log.Default()}
}

// PublishLayoutSaved implements EventPublisher.  Errors are logged and
// returned so the caller may ignore them.  Messages are persistent.
func (p *AMQPPublisher) PublishLayoutSaved(ctx context.Context, ev queue.LayoutSavedEvent) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Logger.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Logger.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		queue.LayoutSavedQueue, // name
		true,                   // durable
		false,                  // autoDelete
		false,                  // exclusive
		false,                  // noWait
		nil,                    // args
	); err != nil {
		p.Logger.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		p.Logger.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    ev.LayoutID + "@" + strconv.FormatInt(ev.Version, 10),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue.LayoutSavedQueue, false, false, pub); err != nil {
		p.Logger.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}

// NopPublisher drops every event.  It stands in when no broker is
// configured.
type NopPublisher struct{}

func (NopPublisher) PublishLayoutSaved(context.Context, queue.LayoutSavedEvent) error { return nil }

package events

import (
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange               = "ecommerce.events"
	FarmCartCheckedOutRoutingKey = "farmcart.checkedout.v1"
	EventTypeFarmCartCheckedOut  = "FarmCartCheckedOut"
)

var ErrNoBrokerURL = errors.New("rabbitmq url is empty")

// Dial connects to the broker that receives checkout events.
func Dial(url string) (*amqp.Connection, error) {
	if url == "" {
		return nil, ErrNoBrokerURL
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	return conn, nil
}

type exchangeDeclarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
}

// declareEventsExchange makes sure the durable topic exchange exists.
func declareEventsExchange(ch exchangeDeclarer) error {
	return ch.ExchangeDeclare(EventsExchange, amqp.ExchangeTopic, true, false, false, false, nil)
}

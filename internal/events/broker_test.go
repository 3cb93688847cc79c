package events

import (
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
)

type recordingDeclarer struct {
	name, kind string
	durable    bool
}

func (r *recordingDeclarer) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	r.name, r.kind, r.durable = name, kind, durable
	return nil
}

func TestDialRequiresURL(t *testing.T) {
	_, err := Dial("")
	require.ErrorIs(t, err, ErrNoBrokerURL)
}

func TestDeclareEventsExchange(t *testing.T) {
	d := &recordingDeclarer{}
	require.NoError(t, declareEventsExchange(d))
	require.Equal(t, EventsExchange, d.name)
	require.Equal(t, "topic", d.kind)
	require.True(t, d.durable)
}

package socket

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/application/dispatcher"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/domain"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/backplane"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/events"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/logging"
)

const backplaneChannel = "gateway:broadcast"

func newDispatcher(t *testing.T, g *gateway, bp backplane.Backplane, mirror bool) *dispatcher.Dispatcher {
	t.Helper()

	d := dispatcher.New(g.core, bp, logging.NewNop(), g.metrics, dispatcher.Options{DedupWindow: time.Minute, Mirror: mirror})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = bp.Close()
	})

	return d
}

// newInstances starts two gateways sharing one Redis backplane.
func newInstances(t *testing.T, mirror bool) (*gateway, *dispatcher.Dispatcher, *gateway, *dispatcher.Dispatcher) {
	t.Helper()

	mr := miniredis.RunT(t)
	url := "redis://" + mr.Addr()
	authenticator, _ := newKeyedAuthenticator(t)

	gA := newGateway(t, authenticator)
	bpA := backplane.New(context.Background(), backplane.Options{URL: url, Channel: backplaneChannel, InstanceID: "a"}, logging.NewNop(), gA.metrics)
	require.IsType(t, &backplane.Redis{}, bpA)
	dA := newDispatcher(t, gA, bpA, mirror)

	gB := newGateway(t, authenticator)
	bpB := backplane.New(context.Background(), backplane.Options{URL: url, Channel: backplaneChannel, InstanceID: "b"}, logging.NewNop(), gB.metrics)
	require.IsType(t, &backplane.Redis{}, bpB)
	dB := newDispatcher(t, gB, bpB, mirror)

	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(backplaneChannel)[backplaneChannel] == 2
	}, waitFor, 10*time.Millisecond)

	return gA, dA, gB, dB
}

func TestGateway_MalformedThenValidBrokerMessages(t *testing.T) {
	authenticator, _ := newKeyedAuthenticator(t)
	g := newGateway(t, authenticator)
	d := newDispatcher(t, g, backplane.NewLocal("solo"), false)
	consumer := events.NewBroadcastConsumer(events.ConsumerOptions{}, d, logging.NewNop(), g.metrics)

	conn := g.dial(t, "")
	joinRoom(t, conn, "company_42")

	consumer.HandleDelivery(context.Background(), amqp.Delivery{Body: []byte(`{"event":`)})
	consumer.HandleDelivery(context.Background(), amqp.Delivery{Body: []byte(`{"event":"stock_update","rooms":["company_42"],"data":{"qty":1}}`)})

	frame := read(t, conn)
	assert.Equal(t, "stock_update", frame.Event)
	assert.JSONEq(t, `{"qty":1}`, string(frame.Data))
	assertSilent(t, conn)
}

func TestGateway_MultiInstanceDelivery(t *testing.T) {
	gA, dA, gB, dB := newInstances(t, true)

	onA := gA.dial(t, "")
	joinRoom(t, onA, "company_42")
	onB := gB.dial(t, "")
	joinRoom(t, onB, "company_42")

	event := domain.InboundEvent{Name: "order_created", Rooms: []string{"company_42"}, MessageID: "m-1"}
	require.NoError(t, dA.Dispatch(context.Background(), event))

	assert.Equal(t, "order_created", read(t, onA).Event)
	assert.Equal(t, "order_created", read(t, onB).Event)

	// instance B meets the same broker message after the peer copy
	require.NoError(t, dB.Dispatch(context.Background(), event))
	require.NoError(t, dA.Dispatch(context.Background(), domain.InboundEvent{Name: "marker", Rooms: []string{"company_42"}, MessageID: "m-2"}))

	assert.Equal(t, "marker", read(t, onA).Event)
	assert.Equal(t, "marker", read(t, onB).Event)
}

func TestGateway_FanoutWithoutMirrorDeliversOnce(t *testing.T) {
	gA, dA, gB, dB := newInstances(t, false)

	onA := gA.dial(t, "")
	onB := gB.dial(t, "")

	// each instance consumes its own copy of an id-less broker message
	notice := domain.InboundEvent{Name: "notice"}
	require.NoError(t, dA.Dispatch(context.Background(), notice))
	require.NoError(t, dB.Dispatch(context.Background(), notice))

	marker := domain.InboundEvent{Name: "marker"}
	require.NoError(t, dA.Dispatch(context.Background(), marker))
	require.NoError(t, dB.Dispatch(context.Background(), marker))

	assert.Equal(t, "notice", read(t, onA).Event)
	assert.Equal(t, "marker", read(t, onA).Event)
	assert.Equal(t, "notice", read(t, onB).Event)
	assert.Equal(t, "marker", read(t, onB).Event)
}

package redio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPubSubReceivesPublishedMessage(t *testing.T) {
	p, m := newTestPool(t)

	ps := p.PubSub().Strdecode()
	require.NoError(t, ps.Subscribe("news"))
	t.Cleanup(func() { ps.Close() })

	// Give the subscription a moment to register before publishing,
	// since Subscribe's ack frame is consumed internally rather than
	// awaited explicitly by the caller.
	time.Sleep(20 * time.Millisecond)

	n := m.Publish("news", "hello")
	assert.Equal(t, 1, n)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, err := ps.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Payload)
}

func TestPubSubWithChannelIncludesChannelName(t *testing.T) {
	p, m := newTestPool(t)

	ps := p.PubSub().Strdecode().WithChannel()
	require.NoError(t, ps.Subscribe("alerts"))
	t.Cleanup(func() { ps.Close() })

	time.Sleep(20 * time.Millisecond)
	m.Publish("alerts", "fire")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, err := ps.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alerts", msg.Channel)
	assert.Equal(t, "fire", msg.Payload)
}

func TestPubSubMessagesChannelStopsOnContextCancel(t *testing.T) {
	p, _ := newTestPool(t)

	ps := p.PubSub().Strdecode()
	require.NoError(t, ps.Subscribe("stream"))
	t.Cleanup(func() { ps.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	messages := ps.Messages(ctx)
	cancel()

	select {
	case _, ok := <-messages:
		assert.False(t, ok, "channel should close once context is cancelled")
	case <-time.After(time.Second):
		t.Fatal("Messages channel never closed after cancellation")
	}
}

func TestPubSubAwaitBeforeSubscribeErrors(t *testing.T) {
	p, _ := newTestPool(t)
	ps := p.PubSub()
	_, err := ps.Await(context.Background())
	assert.Error(t, err)
}

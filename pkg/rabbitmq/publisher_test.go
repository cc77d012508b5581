package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/Eursukkul/studio-booking/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	mu   sync.Mutex
	msgs []amqp.Publishing
	keys []string
	err  error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if exchange != ExchangeName {
		return errors.New("wrong exchange")
	}
	f.keys = append(f.keys, key)
	f.msgs = append(f.msgs, msg)
	return nil
}

func TestPublish_EncodesJSON(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{pub: ch, log: logger.Nop()}

	err := p.Publish("booking.created", map[string]any{"user_id": "u-1", "position": 2})
	require.NoError(t, err)

	require.Len(t, ch.msgs, 1)
	assert.Equal(t, "booking.created", ch.keys[0])
	assert.Equal(t, "application/json", ch.msgs[0].ContentType)
	assert.Equal(t, amqp.Persistent, ch.msgs[0].DeliveryMode)

	var body map[string]any
	require.NoError(t, json.Unmarshal(ch.msgs[0].Body, &body))
	assert.Equal(t, "u-1", body["user_id"])
	assert.Equal(t, float64(2), body["position"])
}

func TestPublish_ChannelError(t *testing.T) {
	p := &Publisher{pub: &fakeChannel{err: amqp.ErrClosed}, log: logger.Nop()}

	err := p.Publish("waitlist.promoted", struct{}{})
	assert.ErrorIs(t, err, amqp.ErrClosed)
}

func TestPublish_UnencodablePayload(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{pub: ch, log: logger.Nop()}

	err := p.Publish("booking.created", make(chan int))
	assert.Error(t, err)
	assert.Empty(t, ch.msgs)
}

func TestPublish_Concurrent(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{pub: ch, log: logger.Nop()}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, p.Publish("booking.cancelled", i))
		}()
	}
	wg.Wait()
	assert.Len(t, ch.msgs, 20)
}

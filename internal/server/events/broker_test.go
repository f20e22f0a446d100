package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroker_FanOut(t *testing.T) {
	b := NewBroker(4)
	a, unsubA := b.Subscribe()
	c, unsubC := b.Subscribe()
	defer unsubA()
	defer unsubC()

	e := Event{Kind: PostCreated, PostID: "p-1", AccountID: "acc-1"}
	assert.Equal(t, 2, b.Publish(e))

	assert.Equal(t, e, <-a)
	assert.Equal(t, e, <-c)
}

func TestBroker_PublishDoesNotBlockOnFullSubscriber(t *testing.T) {
	b := NewBroker(1)
	ch, unsub := b.Subscribe()
	defer unsub()

	assert.Equal(t, 1, b.Publish(Event{Kind: PostCreated, PostID: "1"}))
	assert.Equal(t, 0, b.Publish(Event{Kind: PostCreated, PostID: "2"}))

	got := <-ch
	assert.Equal(t, "1", got.PostID)
}

func TestBroker_Unsubscribe(t *testing.T) {
	b := NewBroker(1)
	ch, unsub := b.Subscribe()

	unsub()
	unsub()

	_, ok := <-ch
	assert.False(t, ok, "channel must be closed")
	assert.Equal(t, 0, b.Publish(Event{Kind: PostDeleted}))
}

func TestBroker_Close(t *testing.T) {
	b := NewBroker(1)
	ch, unsub := b.Subscribe()

	b.Close()
	unsub()

	_, ok := <-ch
	assert.False(t, ok)

	late, _ := b.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
}

func TestBroker_ConcurrentPublishAndUnsubscribe(t *testing.T) {
	b := NewBroker(8)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		ch, unsub := b.Subscribe()
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range ch {
			}
		}()
		go func() {
			for j := 0; j < 50; j++ {
				b.Publish(Event{Kind: PostUpdated})
			}
			unsub()
		}()
	}

	wg.Wait()
	require.Equal(t, 0, b.Publish(Event{Kind: PostUpdated}))
}

package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/linkforge/linkforge/internal/interfaces"
)

func TestHubFanout(t *testing.T) {
	hub := NewHub(arbor.NewLogger())

	ch1, cancel1 := hub.Subscribe()
	ch2, cancel2 := hub.Subscribe()
	defer cancel1()
	defer cancel2()

	err := hub.Publish(context.Background(), interfaces.Event{
		Type:    interfaces.EventCampaignEnqueued,
		Payload: map[string]interface{}{"campaign_id": "camp-1"},
	})
	require.NoError(t, err)

	for _, ch := range []<-chan interfaces.Event{ch1, ch2} {
		select {
		case event := <-ch:
			assert.Equal(t, interfaces.EventCampaignEnqueued, event.Type)
			assert.Equal(t, "camp-1", event.Payload["campaign_id"])
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestHubDropsWhenSubscriberFull(t *testing.T) {
	hub := NewHub(arbor.NewLogger())

	_, cancel := hub.Subscribe()
	defer cancel()

	// Publishing past the buffer must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			_ = hub.Publish(context.Background(), interfaces.Event{Type: interfaces.EventCampaignProgress})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub(arbor.NewLogger())

	ch, cancel := hub.Subscribe()
	assert.Equal(t, 1, hub.SubscriberCount())

	cancel()
	assert.Equal(t, 0, hub.SubscriberCount())

	_, open := <-ch
	assert.False(t, open)

	// Cancel is idempotent.
	cancel()
}

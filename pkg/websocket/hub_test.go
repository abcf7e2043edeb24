package websocket

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// newStubClient builds a client without a network connection; the hub
// never touches conn outside the pumps.
func newStubClient(h *Hub, role string, buffer int) *Client {
	return &Client{
		hub:    h,
		send:   make(chan []byte, buffer),
		UserID: primitive.NewObjectID(),
		Role:   role,
		rooms:  make(map[string]bool),
	}
}

func rideStatusMessage() Message {
	return Message{
		Type:      TypeRideStatus,
		Timestamp: time.Now().Unix(),
		Data:      map[string]interface{}{"status": "accepted"},
	}
}

func TestHubEvictsStalledClientFromAllRooms(t *testing.T) {
	h := NewHub()

	// The welcome message fills the one-slot buffer, so the next send
	// finds the client stalled.
	stalled := newStubClient(h, "partner", 1)
	h.registerClient(stalled)

	h.mutex.Lock()
	_, registered := h.clients[stalled]
	h.mutex.Unlock()
	require.True(t, registered)

	h.SendToUser(stalled.UserID, rideStatusMessage())

	h.mutex.Lock()
	_, present := h.clients[stalled]
	_, driversRoom := h.rooms["drivers"]
	_, userRoom := h.rooms["user_"+stalled.UserID.Hex()]
	h.mutex.Unlock()

	assert.False(t, present, "stalled client should be evicted")
	assert.False(t, driversRoom, "eviction should empty the drivers room")
	assert.False(t, userRoom, "eviction should empty the personal room")

	// The send channel closed exactly once.
	<-stalled.send // welcome
	_, open := <-stalled.send
	assert.False(t, open)

	// The connection's own disconnect arrives later; it must be a no-op
	// rather than a second close.
	assert.NotPanics(t, func() { h.unregisterClient(stalled) })

	// Further sends to rooms the client used to be in must not reach
	// the closed channel.
	assert.NotPanics(t, func() { h.SendToUser(stalled.UserID, rideStatusMessage()) })
}

func TestHubConcurrentSendsAndEviction(t *testing.T) {
	h := NewHub()
	rideID := primitive.NewObjectID()

	healthy := newStubClient(h, "user", 1024)
	stalled := newStubClient(h, "partner", 1)
	h.registerClient(healthy)
	h.registerClient(stalled)
	h.JoinRide(healthy, rideID)
	h.JoinRide(stalled, rideID)

	done := make(chan struct{})
	go func() {
		// Keep the healthy client consuming so it is never evicted.
		for {
			select {
			case <-healthy.send:
			case <-done:
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				h.SendRideUpdate(rideID, rideStatusMessage())
				h.SendToUser(stalled.UserID, rideStatusMessage())
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.unregisterClient(stalled)
	}()

	wg.Wait()
	close(done)

	h.mutex.Lock()
	_, healthyPresent := h.clients[healthy]
	_, stalledPresent := h.clients[stalled]
	h.mutex.Unlock()

	assert.True(t, healthyPresent)
	assert.False(t, stalledPresent)
}

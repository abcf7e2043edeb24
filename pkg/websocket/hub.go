package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message types pushed to clients.
const (
	TypeJobOffer       = "job_offer"
	TypeOfferWithdrawn = "offer_withdrawn"
	TypeRideStatus     = "ride_status"
	TypeDriverLocation = "driver_location"
	TypeSettlement     = "settlement"
	TypeEmergency      = "emergency_update"
	TypeGarage         = "garage_update"
)

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	rooms      map[string]map[*Client]bool
	mutex      sync.RWMutex
}

type Message struct {
	Type      string                 `json:"type"`
	RoomID    string                 `json:"room_id,omitempty"`
	UserID    primitive.ObjectID     `json:"user_id,omitempty"`
	Timestamp int64                  `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.clients[client] = true

	// Every connection lives in its personal room; drivers also join
	// the shared drivers room for offer fan-out.
	h.joinRoom(client, "user_"+client.UserID.Hex())
	if client.Role == "partner" {
		h.joinRoom(client, "drivers")
	}

	h.sendToClient(client, Message{
		Type:      "welcome",
		UserID:    client.UserID,
		Timestamp: time.Now().Unix(),
		Data:      map[string]interface{}{"message": "connected"},
	})
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.evictClient(client)
}

// evictClient expects the caller to hold the write lock. The clients
// map guards the channel close, so a slow-consumer eviction followed by
// the connection's own unregister closes the channel exactly once.
func (h *Hub) evictClient(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)

	for roomID, room := range h.rooms {
		if _, exists := room[client]; exists {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
}

func (h *Hub) broadcastMessage(message []byte) {
	var msg Message
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Printf("websocket: error unmarshaling message: %v", err)
		return
	}

	if msg.RoomID != "" {
		h.mutex.Lock()
		h.sendToRoom(msg.RoomID, msg)
		h.mutex.Unlock()
	}
}

// sendToRoom expects the caller to hold the write lock: a client whose
// buffer is full gets evicted, which mutates the client and room maps.
func (h *Hub) sendToRoom(roomID string, message Message) {
	room, exists := h.rooms[roomID]
	if !exists {
		return
	}

	data, _ := json.Marshal(message)
	for client := range room {
		select {
		case client.send <- data:
		default:
			h.evictClient(client)
		}
	}
}

func (h *Hub) sendToClient(client *Client, message Message) {
	data, _ := json.Marshal(message)
	select {
	case client.send <- data:
	default:
		h.evictClient(client)
	}
}

func (h *Hub) SendToUser(userID primitive.ObjectID, message Message) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.sendToRoom("user_"+userID.Hex(), message)
}

func (h *Hub) SendRideUpdate(rideID primitive.ObjectID, message Message) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.sendToRoom("ride_"+rideID.Hex(), message)
}

func (h *Hub) joinRoom(client *Client, roomID string) {
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][client] = true
	client.rooms[roomID] = true
}

func (h *Hub) JoinRide(client *Client, rideID primitive.ObjectID) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.joinRoom(client, "ride_"+rideID.Hex())
}

func (h *Hub) LeaveRoom(client *Client, roomID string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if room, exists := h.rooms[roomID]; exists {
		delete(room, client)
		delete(client.rooms, roomID)
		if len(room) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

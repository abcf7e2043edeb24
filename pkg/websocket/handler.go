package websocket

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Handler struct {
	hub        *Hub
	onLocation func(userID primitive.ObjectID, data map[string]interface{})
}

func NewHandler() *Handler {
	hub := NewHub()
	go hub.Run()

	return &Handler{hub: hub}
}

// OnDriverLocation registers the callback that ingests driver location
// pings arriving over the socket.
func (h *Handler) OnDriverLocation(fn func(userID primitive.ObjectID, data map[string]interface{})) {
	h.onLocation = fn
}

// HandleWebSocket upgrades an authenticated request. The auth
// middleware must have set user_id and role on the gin context.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	role, exists := c.Get("role")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Role not found"})
		return
	}

	userObjectID, ok := userID.(primitive.ObjectID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	roleStr, ok := role.(string)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket: upgrade failed: %v", err)
		return
	}

	client := NewClient(h.hub, conn, userObjectID, roleStr)
	client.onLocation = h.onLocation
	h.hub.register <- client

	go client.writePump()
	go client.readPump()
}

func (h *Handler) SendRideUpdate(rideID primitive.ObjectID, updateType string, data map[string]interface{}) {
	h.hub.SendRideUpdate(rideID, Message{
		Type:      updateType,
		RoomID:    "ride_" + rideID.Hex(),
		Timestamp: time.Now().Unix(),
		Data:      data,
	})
}

func (h *Handler) SendUserNotification(userID primitive.ObjectID, notificationType string, data map[string]interface{}) {
	h.hub.SendToUser(userID, Message{
		Type:      notificationType,
		UserID:    userID,
		Timestamp: time.Now().Unix(),
		Data:      data,
	})
}

func (h *Handler) GetHub() *Hub {
	return h.hub
}

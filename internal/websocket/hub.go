package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/booktime/booktime-backend/internal/app/model"
	"github.com/booktime/booktime-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

const (
	// Rate limiting: messages accepted per client per second
	maxMessagesPerSecond = 10

	EventOrderCreated = "order_created"
	EventOrderPaid    = "order_paid"
)

// Which staff roles hear about each event. Dispatchers only care about
// orders that are ready to ship.
var eventAudience = map[string][]model.AdminRole{
	EventOrderCreated: {model.RoleOwner, model.RoleCentralOffice},
	EventOrderPaid:    {model.RoleOwner, model.RoleCentralOffice, model.RoleDispatcher},
}

// OrderEvent is the JSON pushed to staff dashboards.
type OrderEvent struct {
	Type    string            `json:"type"`
	OrderID uint              `json:"order_id"`
	UserID  uint              `json:"user_id"`
	Status  model.OrderStatus `json:"status"`
	Items   int               `json:"items"`
	Total   decimal.Decimal   `json:"total"`
	At      time.Time         `json:"at"`
}

// ClientMessage is what a dashboard may send; only ping is understood.
type ClientMessage struct {
	Type string `json:"type"`
}

// Client is one dashboard connection. A user may hold several.
type Client struct {
	Hub           *Hub
	Conn          *Conn
	UserID        uint
	Role          model.AdminRole
	Send          chan []byte
	MessageCount  int       // messages received in the current second
	LastResetTime time.Time // start of the current second
	RateMu        sync.Mutex
}

func NewClient(hub *Hub, conn *Conn, userID uint, role model.AdminRole) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		Role:   role,
		Send:   make(chan []byte, 256),
	}
}

type roleMessage struct {
	roles   []model.AdminRole
	message []byte
}

// Hub fans order events out to the connected staff of each role.
type Hub struct {
	// role -> connected clients
	rooms map[model.AdminRole]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *roleMessage
	quit       chan struct{}

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[model.AdminRole]map[*Client]bool),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan *roleMessage, 1024),
		quit:       make(chan struct{}),
	}
}

// Run serves registrations and broadcasts until Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			return

		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.rooms[client.Role]; !ok {
				h.rooms[client.Role] = make(map[*Client]bool)
			}
			h.rooms[client.Role][client] = true
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"user_id": client.UserID,
				"role":    client.Role,
			})

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			var slow []*Client
			h.mu.RLock()
			for _, role := range msg.roles {
				for client := range h.rooms[role] {
					select {
					case client.Send <- msg.message:
					default:
						slow = append(slow, client)
					}
				}
			}
			h.mu.RUnlock()
			for _, client := range slow {
				logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
					"user_id": client.UserID,
				})
				h.remove(client)
			}
		}
	}
}

func (h *Hub) Stop() {
	close(h.quit)
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[client.Role]
	if !ok || !room[client] {
		return
	}
	delete(room, client)
	if len(room) == 0 {
		delete(h.rooms, client.Role)
	}
	close(client.Send)
	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"user_id": client.UserID,
		"role":    client.Role,
	})
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// SendToRoles queues message for every client of the given roles. A full
// queue drops the message; the feed is advisory.
func (h *Hub) SendToRoles(roles []model.AdminRole, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Error("Failed to marshal message", err)
		return err
	}

	select {
	case h.broadcast <- &roleMessage{roles: roles, message: data}:
	default:
		logger.Warn("Broadcast channel full, message dropped", map[string]interface{}{
			"roles": roles,
		})
	}
	return nil
}

// OnlineCount reports connected clients for a role.
func (h *Hub) OnlineCount(role model.AdminRole) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[role])
}

func (h *Hub) publish(eventType string, order *model.Order) {
	event := OrderEvent{
		Type:    eventType,
		OrderID: order.ID,
		UserID:  order.UserID,
		Status:  order.Status,
		Items:   len(order.Items),
		Total:   order.Total(),
		At:      time.Now(),
	}
	if err := h.SendToRoles(eventAudience[eventType], event); err != nil {
		logger.Error("Failed to publish order event", err, map[string]interface{}{
			"order_id": order.ID,
			"type":     eventType,
		})
	}
}

// OrderCreated and OrderPaid let the hub serve as the checkout and admin
// event sink.
func (h *Hub) OrderCreated(order *model.Order) {
	h.publish(EventOrderCreated, order)
}

func (h *Hub) OrderPaid(order *model.Order) {
	h.publish(EventOrderPaid, order)
}

// HandleClientMessage answers pings and drops anything else.
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	client.RateMu.Lock()
	now := time.Now()
	if now.Sub(client.LastResetTime) >= time.Second {
		client.MessageCount = 0
		client.LastResetTime = now
	}
	client.MessageCount++
	count := client.MessageCount
	client.RateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"user_id": client.UserID,
			"count":   count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"user_id": client.UserID,
			"error":   err.Error(),
		})
		return
	}

	if msg.Type == "ping" {
		h.mu.RLock()
		defer h.mu.RUnlock()
		if h.rooms[client.Role][client] {
			select {
			case client.Send <- []byte(`{"type":"pong"}`):
			default:
			}
		}
	}
}

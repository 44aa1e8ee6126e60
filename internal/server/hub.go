package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/notify"
)

// Event types pushed to websocket subscribers.
const (
	EventAuditCreated         = "audit.created"
	EventAuditCreationFailed  = "audit.creation_failed"
	EventAuditListInvalidated = "audit.list_invalidated"
)

const (
	clientSendBufferConstant            = 16
	socketBufferSizeConstant            = 1024
	writeTimeoutConstant                = 10 * time.Second
	subscriberJoinedLogMessageConstant  = "notification subscriber connected"
	subscriberLeftLogMessageConstant    = "notification subscriber disconnected"
	subscriberDroppedLogMessageConstant = "notification subscriber dropped"
	upgradeFailedLogMessageConstant     = "websocket upgrade failed"
	eventEncodeFailedLogMessageConstant = "notification encoding failed"
	logFieldSubscribersConstant         = "subscribers"
	logFieldEventTypeConstant           = "event_type"
)

// Event is one notification frame.
type Event struct {
	Type      string              `json:"type"`
	Audit     *notify.AuditHandle `json:"audit,omitempty"`
	Error     string              `json:"error,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

type hubClient struct {
	connection *websocket.Conn
	send       chan []byte
	closeOnce  sync.Once
}

func (client *hubClient) close() {
	client.closeOnce.Do(func() {
		close(client.send)
	})
}

// Hub fans notifications out to websocket subscribers. It implements notify.Notifier.
type Hub struct {
	mutex    sync.Mutex
	clients  map[*hubClient]struct{}
	upgrader websocket.Upgrader
	logger   *zap.Logger
	now      func() time.Time
}

// NewHub constructs an empty Hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[*hubClient]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  socketBufferSizeConstant,
			WriteBufferSize: socketBufferSizeConstant,
			CheckOrigin: func(request *http.Request) bool {
				return true
			},
		},
		logger: logger,
		now:    time.Now,
	}
}

// ServeWebSocket upgrades the request and streams events until the peer disconnects.
func (hub *Hub) ServeWebSocket(writer http.ResponseWriter, request *http.Request) {
	connection, upgradeError := hub.upgrader.Upgrade(writer, request, nil)
	if upgradeError != nil {
		hub.logger.Warn(upgradeFailedLogMessageConstant, zap.Error(upgradeError))
		return
	}

	client := &hubClient{connection: connection, send: make(chan []byte, clientSendBufferConstant)}
	hub.register(client)
	go hub.writePump(client)

	for {
		if _, _, readError := connection.ReadMessage(); readError != nil {
			break
		}
	}
	hub.unregister(client)
}

// SubscriberCount reports the number of connected subscribers.
func (hub *Hub) SubscriberCount() int {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	return len(hub.clients)
}

// Close disconnects every subscriber.
func (hub *Hub) Close() {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	for client := range hub.clients {
		client.close()
		delete(hub.clients, client)
	}
}

// AuditCreated implements notify.Notifier.
func (hub *Hub) AuditCreated(handle notify.AuditHandle) {
	hub.broadcast(Event{Type: EventAuditCreated, Audit: &handle})
}

// AuditCreationFailed implements notify.Notifier.
func (hub *Hub) AuditCreationFailed(failure error) {
	event := Event{Type: EventAuditCreationFailed}
	if failure != nil {
		event.Error = failure.Error()
	}
	hub.broadcast(event)
}

// AuditListInvalidated implements notify.Notifier.
func (hub *Hub) AuditListInvalidated() {
	hub.broadcast(Event{Type: EventAuditListInvalidated})
}

func (hub *Hub) register(client *hubClient) {
	hub.mutex.Lock()
	hub.clients[client] = struct{}{}
	count := len(hub.clients)
	hub.mutex.Unlock()
	hub.logger.Debug(subscriberJoinedLogMessageConstant, zap.Int(logFieldSubscribersConstant, count))
}

func (hub *Hub) unregister(client *hubClient) {
	hub.mutex.Lock()
	if _, registered := hub.clients[client]; registered {
		delete(hub.clients, client)
		client.close()
	}
	count := len(hub.clients)
	hub.mutex.Unlock()
	hub.logger.Debug(subscriberLeftLogMessageConstant, zap.Int(logFieldSubscribersConstant, count))
}

func (hub *Hub) broadcast(event Event) {
	event.Timestamp = hub.now().UTC()
	payload, encodeError := json.Marshal(event)
	if encodeError != nil {
		hub.logger.Error(eventEncodeFailedLogMessageConstant, zap.String(logFieldEventTypeConstant, event.Type), zap.Error(encodeError))
		return
	}

	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	for client := range hub.clients {
		select {
		case client.send <- payload:
		default:
			delete(hub.clients, client)
			client.close()
			hub.logger.Warn(subscriberDroppedLogMessageConstant, zap.String(logFieldEventTypeConstant, event.Type))
		}
	}
}

func (hub *Hub) writePump(client *hubClient) {
	defer client.connection.Close()
	for payload := range client.send {
		_ = client.connection.SetWriteDeadline(hub.now().Add(writeTimeoutConstant))
		if writeError := client.connection.WriteMessage(websocket.TextMessage, payload); writeError != nil {
			hub.unregister(client)
			return
		}
	}
	_ = client.connection.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

var _ notify.Notifier = (*Hub)(nil)

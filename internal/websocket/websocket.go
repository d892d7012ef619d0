package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"gomoldova-backend/internal/realtime"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 32
)

// Message формат сообщения, уходящего клиенту
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Manager управляет подключениями WebSocket. Каждое подключение подписано на события своего пользователя в Hub
type Manager struct {
	hub           *realtime.Hub
	log           *logrus.Logger
	clientsByUser map[uint]map[*Client]bool
	register      chan *Client
	unregister    chan *Client
	done          chan struct{}
	stopOnce      sync.Once
	mutex         sync.RWMutex
	upgrader      websocket.Upgrader
}

// Client одно подключение пользователя
type Client struct {
	conn        *websocket.Conn
	userID      uint
	clientID    string
	send        chan []byte
	unsubscribe func()
	closeOnce   sync.Once
}

func NewManager(hub *realtime.Hub, log *logrus.Logger) *Manager {
	return &Manager{
		hub:           hub,
		log:           log,
		clientsByUser: make(map[uint]map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		done:          make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // мобильные клиенты не присылают Origin
			},
		},
	}
}

// Start запускает обработку регистраций до вызова Stop
func (m *Manager) Start() {
	m.log.Info("Запуск WebSocket Manager")
	go func() {
		for {
			select {
			case client := <-m.register:
				m.mutex.Lock()
				if _, ok := m.clientsByUser[client.userID]; !ok {
					m.clientsByUser[client.userID] = make(map[*Client]bool)
				}
				m.clientsByUser[client.userID][client] = true
				m.mutex.Unlock()
				m.log.WithFields(logrus.Fields{"user_id": client.userID, "client_id": client.clientID}).Debug("Клиент зарегистрирован")

			case client := <-m.unregister:
				m.remove(client)

			case <-m.done:
				m.closeAll()
				return
			}
		}
	}()
}

// Stop закрывает все подключения
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.done) })
}

func (m *Manager) remove(client *Client) {
	m.mutex.Lock()
	if conns, ok := m.clientsByUser[client.userID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(m.clientsByUser, client.userID)
		}
	}
	m.mutex.Unlock()

	client.close()
	m.log.WithFields(logrus.Fields{"user_id": client.userID, "client_id": client.clientID}).Debug("Клиент отключен")
}

func (m *Manager) closeAll() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for userID, conns := range m.clientsByUser {
		for client := range conns {
			client.close()
		}
		delete(m.clientsByUser, userID)
	}
}

// Connections количество подключений пользователя
func (m *Manager) Connections(userID uint) int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clientsByUser[userID])
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		if c.unsubscribe != nil {
			c.unsubscribe()
		}
		close(c.send)
		_ = c.conn.Close()
	})
}

// deliver не блокирует Hub: медленный клиент теряет события, а не задерживает остальных
func (c *Client) deliver(ev realtime.Event, log *logrus.Logger) {
	data, err := json.Marshal(Message{Type: ev.Type, Payload: ev.Payload})
	if err != nil {
		log.WithError(err).Warn("Ошибка при кодировании сообщения")
		return
	}

	defer func() {
		// send мог быть закрыт параллельным отключением
		_ = recover()
	}()
	select {
	case c.send <- data:
	default:
		log.WithField("user_id", c.userID).Warn("Буфер WebSocket клиента переполнен, событие пропущено")
	}
}

// Handler подключение WebSocket. Требует user_id в контексте (JWTAuth)
func (m *Manager) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("user_id")
		if userID == 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Требуется авторизация"})
			return
		}

		conn, err := m.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			m.log.WithError(err).Warn("Ошибка обновления соединения до WebSocket")
			return
		}

		clientID := c.Query("client_id")
		if clientID == "" {
			clientID = uuid.NewString()
		}

		client := &Client{
			conn:     conn,
			userID:   userID,
			clientID: clientID,
			send:     make(chan []byte, sendBuffer),
		}
		client.unsubscribe = m.hub.Subscribe(realtime.ForUser(userID), func(ev realtime.Event) {
			client.deliver(ev, m.log)
		})

		select {
		case m.register <- client:
		case <-m.done:
			client.close()
			return
		}

		go m.writePump(client)
		go m.readPump(client)
	}
}

// readPump читает входящие сообщения: поддерживается только ping от клиента
func (m *Manager) readPump(client *Client) {
	defer func() {
		select {
		case m.unregister <- client:
		case <-m.done:
		}
	}()

	client.conn.SetReadLimit(4096)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				m.log.WithError(err).WithField("client_id", client.clientID).Debug("Ошибка при чтении сообщения")
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		if msg.Type == "ping" {
			pong, _ := json.Marshal(map[string]interface{}{"type": "pong", "time": time.Now().Unix()})
			client.deliverRaw(pong)
		}
	}
}

func (c *Client) deliverRaw(data []byte) {
	defer func() { _ = recover() }()
	select {
	case c.send <- data:
	default:
	}
}

func (m *Manager) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				m.log.WithError(err).WithField("user_id", client.userID).Debug("Ошибка при отправке сообщения")
				_ = client.conn.Close()
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = client.conn.Close()
				return
			}
		}
	}
}

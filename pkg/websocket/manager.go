package websocket

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Client is one live connection of a user.
type Client struct {
	Username string
	Conn     *websocket.Conn
	Send     chan []byte
}

func NewClient(username string, conn *websocket.Conn) *Client {
	return &Client{Username: username, Conn: conn, Send: make(chan []byte, 256)}
}

// Manager tracks the open connection of each user. A second connection for
// the same user replaces the first.
type Manager struct {
	clients map[string]*Client
	lock    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{clients: make(map[string]*Client)}
}

// AddClient registers client, closing the send queue of any connection it
// replaces.
func (m *Manager) AddClient(client *Client) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if old, ok := m.clients[client.Username]; ok && old != client {
		close(old.Send)
	}
	m.clients[client.Username] = client
}

// RemoveClient unregisters client if it is still the current connection.
func (m *Manager) RemoveClient(client *Client) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if cur, ok := m.clients[client.Username]; ok && cur == client {
		close(cur.Send)
		delete(m.clients, client.Username)
	}
}

// SendToUser queues msg for username. It reports false when the user has no
// connection or the queue is full; nothing is stored for later.
func (m *Manager) SendToUser(username string, msg []byte) bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	client, ok := m.clients[username]
	if !ok {
		return false
	}
	select {
	case client.Send <- msg:
		return true
	default:
		return false
	}
}

// Count returns the number of connected users.
func (m *Manager) Count() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return len(m.clients)
}

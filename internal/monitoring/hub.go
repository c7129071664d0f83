// Package monitoring runs the live dashboard websocket hub.
package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"

	"pos-backend/internal/metrics"
)

const (
	DefaultStatsInterval = 10 * time.Second

	sendBuffer = 32
	writeWait  = 5 * time.Second
)

// Message is the envelope of everything pushed to dashboard clients.
type Message struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

type HostStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsed    string  `json:"memory_used"`
	MemoryTotal   string  `json:"memory_total"`
	DiskPercent   float64 `json:"disk_percent"`
	DiskUsed      string  `json:"disk_used"`
	DiskTotal     string  `json:"disk_total"`
	DBConnections int32   `json:"db_connections"`
	WSClients     int     `json:"ws_clients"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans outbox events and host stats out to connected websockets.
type Hub struct {
	db            *pgxpool.Pool
	logger        *logrus.Logger
	statsInterval time.Duration

	clientsMux sync.Mutex
	clients    map[*client]struct{}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The route is behind token auth
	CheckOrigin: func(r *http.Request) bool { return true },
}

func NewHub(db *pgxpool.Pool, logger *logrus.Logger, statsInterval time.Duration) *Hub {
	if statsInterval <= 0 {
		statsInterval = DefaultStatsInterval
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Hub{
		db:            db,
		logger:        logger,
		statsInterval: statsInterval,
		clients:       make(map[*client]struct{}),
	}
}

func (h *Hub) ClientCount() int {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()
	return len(h.clients)
}

// Broadcast queues a message for every client. A client whose buffer is
// full is dropped.
func (h *Hub) Broadcast(msgType string, data any) {
	payload, err := json.Marshal(Message{Type: msgType, Data: data, Timestamp: time.Now()})
	if err != nil {
		h.logger.WithError(err).WithField("type", msgType).Error("failed to encode hub message")
		return
	}

	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.removeLocked(c)
		}
	}
}

// BroadcastRaw forwards an already encoded payload as the message data.
func (h *Hub) BroadcastRaw(msgType string, data []byte) {
	h.Broadcast(msgType, json.RawMessage(data))
}

func (h *Hub) add(c *client) {
	h.clientsMux.Lock()
	h.clients[c] = struct{}{}
	metrics.ActiveWSClients.Set(float64(len(h.clients)))
	h.clientsMux.Unlock()
}

func (h *Hub) remove(c *client) {
	h.clientsMux.Lock()
	h.removeLocked(c)
	h.clientsMux.Unlock()
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	metrics.ActiveWSClients.Set(float64(len(h.clients)))
}

// ServeWS handles GET /ws/dashboard
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.add(c)
	go h.writePump(c)

	// Clients never send anything we act on; reading only detects close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for payload := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.remove(c)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// Run pushes host stats until ctx is cancelled, then disconnects every
// client.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.clientsMux.Lock()
			for c := range h.clients {
				h.removeLocked(c)
			}
			h.clientsMux.Unlock()
			return
		case <-ticker.C:
			if h.ClientCount() == 0 {
				continue
			}
			h.Broadcast("stats", h.Stats())
		}
	}
}

// Stats samples the host and the connection pool.
func (h *Hub) Stats() HostStats {
	stats := CollectHostStats()
	stats.WSClients = h.ClientCount()
	if h.db != nil {
		stats.DBConnections = h.db.Stat().AcquiredConns()
	}
	return stats
}

// CollectHostStats reads CPU, memory and disk usage. Failed probes leave
// their fields zero.
func CollectHostStats() HostStats {
	var stats HostStats

	if cpuPercents, err := cpu.Percent(0, false); err == nil && len(cpuPercents) > 0 {
		stats.CPUPercent = cpuPercents[0]
	}
	if memStats, err := mem.VirtualMemory(); err == nil {
		stats.MemoryPercent = memStats.UsedPercent
		stats.MemoryUsed = formatBytes(memStats.Used)
		stats.MemoryTotal = formatBytes(memStats.Total)
	}
	if diskStats, err := disk.Usage("/"); err == nil {
		stats.DiskPercent = diskStats.UsedPercent
		stats.DiskUsed = formatBytes(diskStats.Used)
		stats.DiskTotal = formatBytes(diskStats.Total)
	}
	return stats
}

func formatBytes(bytes uint64) string {
	gb := float64(bytes) / (1024 * 1024 * 1024)
	if gb < 1 {
		mb := float64(bytes) / (1024 * 1024)
		return fmt.Sprintf("%.1f MB", mb)
	}
	return fmt.Sprintf("%.1f GB", gb)
}

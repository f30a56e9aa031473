package canvas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ersonp/famtree-core/internal/domain/ports"
)

const writeTimeout = 5 * time.Second

// Dispatcher handles messages received from canvas clients.
// Dispatch is called from each client's read loop in arrival order and
// must not block on the row store.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message)
}

// Config holds server configuration.
type Config struct {
	// Addr to listen on. ":0" picks a free port.
	Addr string

	Logger *slog.Logger

	// Registry receives the server metrics and is served on /metrics.
	// A private registry is used when nil.
	Registry *prometheus.Registry
}

// Server manages WebSocket connections to canvas clients.
type Server struct {
	addr     string
	listener net.Listener
	server   *http.Server
	registry *prometheus.Registry

	clients   map[*websocket.Conn]bool
	clientsMu sync.RWMutex

	broadcast chan Message
	register  chan *websocket.Conn

	// The newest graph snapshot replaces any unsent one.
	graphMu    sync.Mutex
	graph      *Message
	graphDirty chan struct{}

	dispatcher Dispatcher

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger  *slog.Logger
	metrics *serverMetrics
}

type serverMetrics struct {
	clients  prometheus.Gauge
	received *prometheus.CounterVec
	sent     *prometheus.CounterVec
	dropped  prometheus.Counter
}

func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	m := &serverMetrics{
		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "famtree",
			Subsystem: "canvas",
			Name:      "clients",
			Help:      "Connected canvas clients.",
		}),
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "famtree",
			Subsystem: "canvas",
			Name:      "messages_received_total",
			Help:      "Messages received from canvas clients by type.",
		}, []string{"type"}),
		sent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "famtree",
			Subsystem: "canvas",
			Name:      "messages_sent_total",
			Help:      "Messages broadcast to canvas clients by type.",
		}, []string{"type"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "famtree",
			Subsystem: "canvas",
			Name:      "messages_dropped_total",
			Help:      "Broadcasts dropped because the queue was full.",
		}),
	}
	reg.MustRegister(m.clients, m.received, m.sent, m.dropped)
	return m
}

// NewServer creates a new canvas server.
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		addr:       cfg.Addr,
		registry:   cfg.Registry,
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan Message, 100),
		register:   make(chan *websocket.Conn),
		graphDirty: make(chan struct{}, 1),
		ctx:        ctx,
		cancel:     cancel,
		logger:     cfg.Logger,
		metrics:    newServerMetrics(cfg.Registry),
	}
}

// Start begins serving and routes inbound messages to d.
func (s *Server) Start(d Dispatcher) error {
	s.dispatcher = d

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.wg.Add(1)
	go s.broadcastLoop()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Info("canvas server listening", "addr", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("canvas server error", "error", err)
		}
	}()

	return nil
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return mux
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	s.logger.Info("stopping canvas server")

	s.cancel()

	s.clientsMu.Lock()
	for conn := range s.clients {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		delete(s.clients, conn)
	}
	s.metrics.clients.Set(0)
	s.clientsMu.Unlock()

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
	}

	s.wg.Wait()
	return nil
}

// Broadcast queues a message for all connected clients.
func (s *Server) Broadcast(msg Message) {
	select {
	case s.broadcast <- msg:
	case <-s.ctx.Done():
	default:
		s.metrics.dropped.Inc()
		s.logger.Warn("broadcast queue full, dropping message", "type", msg.Type)
	}
}

// PublishGraph replaces the pending graph snapshot. Only the newest snapshot
// is sent; it is also what newly connected clients receive first.
func (s *Server) PublishGraph(msg Message) {
	s.graphMu.Lock()
	s.graph = &msg
	s.graphMu.Unlock()

	select {
	case s.graphDirty <- struct{}{}:
	default:
	}
}

// Notify implements ports.Notifier by broadcasting a notification message.
func (s *Server) Notify(_ context.Context, n ports.Notification) {
	msg, err := NewMessage(MessageTypeNotification, n)
	if err != nil {
		s.logger.Error("marshaling notification", "error", err)
		return
	}
	s.Broadcast(msg)
}

// OpenFamilyMemberDialog implements ports.DialogOpener.
func (s *Server) OpenFamilyMemberDialog(_ context.Context, id string) {
	s.openDialog(DialogFamilyMember, id)
}

// OpenRelationshipDialog implements ports.DialogOpener.
func (s *Server) OpenRelationshipDialog(_ context.Context, id string) {
	s.openDialog(DialogRelationship, id)
}

func (s *Server) openDialog(kind, id string) {
	msg, err := NewMessage(MessageTypeOpenDialog, DialogData{Kind: kind, ID: id})
	if err != nil {
		s.logger.Error("marshaling dialog request", "error", err)
		return
	}
	s.Broadcast(msg)
}

func (s *Server) broadcastLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return

		case conn := <-s.register:
			s.addClient(conn)

		case msg := <-s.broadcast:
			s.send(msg)

		case <-s.graphDirty:
			s.graphMu.Lock()
			msg := s.graph
			s.graphMu.Unlock()
			if msg != nil {
				s.send(*msg)
			}
		}
	}
}

func (s *Server) send(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("marshaling message", "type", msg.Type, "error", err)
		return
	}

	s.clientsMu.RLock()
	clients := make([]*websocket.Conn, 0, len(s.clients))
	for conn := range s.clients {
		clients = append(clients, conn)
	}
	s.clientsMu.RUnlock()

	for _, conn := range clients {
		if err := write(s.ctx, conn, data); err != nil {
			s.logger.Warn("sending to client", "error", err)
			s.removeClient(conn)
		}
	}
	s.metrics.sent.WithLabelValues(string(msg.Type)).Inc()
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	select {
	case s.register <- conn:
	case <-s.ctx.Done():
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	s.readLoop(conn)
}

// addClient sends the current graph to conn and joins it to the broadcast set.
// It runs on the broadcast loop so no newer snapshot can overtake the first one.
func (s *Server) addClient(conn *websocket.Conn) {
	s.graphMu.Lock()
	current := s.graph
	s.graphMu.Unlock()

	if current != nil {
		data, err := json.Marshal(current)
		if err == nil {
			err = write(s.ctx, conn, data)
		}
		if err != nil {
			s.logger.Warn("sending initial graph", "error", err)
			_ = conn.Close(websocket.StatusInternalError, "initial graph failed")
			return
		}
	}

	s.clientsMu.Lock()
	s.clients[conn] = true
	clientCount := len(s.clients)
	s.metrics.clients.Set(float64(clientCount))
	s.clientsMu.Unlock()

	s.logger.Info("canvas client connected", "clients", clientCount)
}

func (s *Server) readLoop(conn *websocket.Conn) {
	defer s.removeClient(conn)

	for {
		_, data, err := conn.Read(s.ctx)
		if err != nil {
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Warn("malformed canvas message", "error", err)
			continue
		}
		s.metrics.received.WithLabelValues(string(msg.Type)).Inc()

		if s.dispatcher != nil {
			s.dispatcher.Dispatch(s.ctx, msg)
		}
	}
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	if _, exists := s.clients[conn]; exists {
		delete(s.clients, conn)
		clientCount := len(s.clients)
		s.metrics.clients.Set(float64(clientCount))
		s.clientsMu.Unlock()

		_ = conn.Close(websocket.StatusNormalClosure, "")
		s.logger.Info("canvas client disconnected", "clients", clientCount)
	} else {
		s.clientsMu.Unlock()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"clients": s.ClientCount(),
	})
}

// Addr returns the server's listening address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// ClientCount returns the current number of connected clients.
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

func write(ctx context.Context, conn *websocket.Conn, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}

var (
	_ ports.Notifier     = (*Server)(nil)
	_ ports.DialogOpener = (*Server)(nil)
)

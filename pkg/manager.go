package pkg

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Manager wires the room components together and serves the HTTP surface.
type Manager struct {
	config     *Config
	state      *RoomState
	registry   *Registry
	dispatcher *Dispatcher
	upgrader   websocket.Upgrader
}

func NewManager(config *Config) *Manager {
	state := NewRoomState(config.ChatHistoryLimit)
	registry := NewRegistry(config.MaxClients)

	return &Manager{
		config:     config,
		state:      state,
		registry:   registry,
		dispatcher: NewDispatcher(state, registry, NewCodec()),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (m *Manager) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
}

func (m *Manager) StatsHandler(w http.ResponseWriter, r *http.Request) {
	chatLen, counterValue, openStrokes := m.state.Totals()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int64{
		"clients":      int64(m.registry.Count()),
		"chatMessages": int64(chatLen),
		"counterValue": counterValue,
		"openStrokes":  int64(openStrokes),
	})
}

func (m *Manager) SocketHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")

	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Failed to upgrade connection: ", err)
		return
	}

	session := NewSession(uuid.New().String(), conn, m.dispatcher, m.config)

	if err := m.dispatcher.Join(session); err != nil {
		if errors.Is(err, ErrCapacityExceeded) {
			log.Warn("Refused connection: ", err)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server full"),
				time.Now().Add(m.config.WriteTimeout))
		} else {
			log.Error("Failed to join session: ", err)
		}
		conn.Close()
		return
	}

	defer m.dispatcher.Leave(session)

	logFields := log.Fields{
		"client": session.ID(),
		"remote": r.RemoteAddr,
	}

	log.WithFields(logFields).Info("New session")

	// Read frames from the connection
	go session.read()

	// Write frames to the connection
	session.write()

	log.WithFields(logFields).Info("Closed session")
}

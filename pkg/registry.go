package pkg

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Connection is a registered client connection. The registry owns the only
// reference used for fan-out; Send must never block.
type Connection interface {
	ID() string
	Send(data []byte) error
	Close() error
}

// Registry tracks live client connections and fans frames out to them.
type Registry struct {
	mu         sync.RWMutex
	conns      map[string]Connection
	maxClients int
}

func NewRegistry(maxClients int) *Registry {
	return &Registry{
		conns:      make(map[string]Connection),
		maxClients: maxClients,
	}
}

func (r *Registry) Register(conn Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.conns) >= r.maxClients {
		return fmt.Errorf("%w: %d clients connected", ErrCapacityExceeded, len(r.conns))
	}
	if _, ok := r.conns[conn.ID()]; ok {
		return fmt.Errorf("client %s already registered", conn.ID())
	}

	r.conns[conn.ID()] = conn
	CollabClientsGauge.Inc()
	return nil
}

// Unregister is idempotent; removing an unknown id is a no-op.
func (r *Registry) Unregister(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[clientID]; !ok {
		return
	}
	delete(r.conns, clientID)
	CollabClientsGauge.Dec()
}

// Broadcast sends the frame to every registered connection except
// excludeID (empty string excludes nobody). Delivery is best-effort per
// connection: a failed send is logged and never affects the others.
func (r *Registry) Broadcast(frame []byte, excludeID string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, conn := range r.conns {
		if id == excludeID {
			continue
		}
		if err := conn.Send(frame); err != nil {
			log.WithFields(log.Fields{
				"client": id,
			}).Debug("Dropped frame for client: ", err)
		}
	}

	CollabBroadcastsCounter.Inc()
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

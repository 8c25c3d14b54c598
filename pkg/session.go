package pkg

import (
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Session owns one client's websocket connection. Inbound frames go to the
// dispatcher; outbound frames are enqueued on the send channel and written
// by the write pump. Closing the connection tears down only this session;
// applied room state stays as it is.
type Session struct {
	id         string
	conn       *websocket.Conn
	send       chan []byte
	done       chan struct{}
	dispatcher *Dispatcher
	config     *Config
}

func NewSession(id string, conn *websocket.Conn, dispatcher *Dispatcher, config *Config) *Session {
	return &Session{
		id:         id,
		conn:       conn,
		send:       make(chan []byte, config.SendBufferSize),
		done:       make(chan struct{}),
		dispatcher: dispatcher,
		config:     config,
	}
}

func (s *Session) ID() string {
	return s.id
}

// Send enqueues a frame for the write pump. It never blocks and never
// panics: a session past teardown, or with a full buffer, just drops the
// frame. The send channel is never closed; the done channel carries the
// teardown signal so a broadcast racing a disconnect fails silently.
func (s *Session) Send(data []byte) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}

	select {
	case s.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (s *Session) Close() error {
	return s.conn.Close()
}

// read pumps frames from the connection into the dispatcher. The read
// deadline doubles as the heartbeat timeout: any inbound traffic,
// protocol pongs included, pushes it forward.
func (s *Session) read() {
	defer close(s.done)

	s.conn.SetReadLimit(s.config.MaxFrameSize)
	s.resetHeartbeat()
	s.conn.SetPongHandler(func(string) error {
		s.resetHeartbeat()
		return nil
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway) {
				log.WithFields(log.Fields{
					"client": s.id,
				}).Debug("Read failed: ", err)
			}
			return
		}

		s.resetHeartbeat()
		s.dispatcher.HandleFrame(s, message)
	}
}

func (s *Session) resetHeartbeat() {
	_ = s.conn.SetReadDeadline(time.Now().Add(s.config.HeartbeatTimeout))
}

// write drains the send channel to the connection and keeps the peer alive
// with protocol pings. It returns when the read pump signals done or a
// write fails.
func (s *Session) write() {
	ticker := time.NewTicker(s.config.PingPeriod())
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case message := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.WithFields(log.Fields{
					"client": s.id,
				}).Debug("Write failed: ", err)
				return
			}
		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

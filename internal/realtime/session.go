package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// State is the session connection state.
type State string

const (
	StateDisconnected State = "DISCONNECTED"
	StateConnecting   State = "CONNECTING"
	StateConnected    State = "CONNECTED"
	StateJoined       State = "JOINED"
)

// Handler receives the raw payload of one event.
type Handler func(data json.RawMessage)

// Session maintains one connection to the hub on behalf of a client.
// After a successful connect it re-sends the join frame for its user,
// because the hub forgets room membership on every disconnect. Events
// published while the session is down are lost; consumers are expected
// to refetch, not to rely on replay.
type Session struct {
	url    string
	userID string
	logger *zap.Logger

	mu       sync.RWMutex
	handlers map[string][]Handler
	state    State
	conn     *websocket.Conn

	reconnect    bool
	dialer       *websocket.Dialer
	initialDelay time.Duration
	maxDelay     time.Duration

	done      chan struct{}
	closeOnce sync.Once
}

// NewSession builds a session for url. userID may be empty for an
// anonymous subscriber that only wants broadcast events; such a session
// connects but never joins a room.
func NewSession(url, userID string, logger *zap.Logger) *Session {
	return &Session{
		url:          url,
		userID:       userID,
		logger:       logger,
		handlers:     make(map[string][]Handler),
		state:        StateDisconnected,
		reconnect:    true,
		dialer:       &websocket.Dialer{HandshakeTimeout: 5 * time.Second},
		initialDelay: 250 * time.Millisecond,
		maxDelay:     10 * time.Second,
		done:         make(chan struct{}),
	}
}

// DisableReconnect makes the session give up after the first disconnect.
func (s *Session) DisableReconnect() {
	s.mu.Lock()
	s.reconnect = false
	s.mu.Unlock()
}

// On registers a handler for an event name. Handlers run on the read
// goroutine; slow work should be handed off by the handler itself.
func (s *Session) On(event string, h Handler) {
	s.mu.Lock()
	s.handlers[event] = append(s.handlers[event], h)
	s.mu.Unlock()
}

// State reports the current connection state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Start runs the connect/read/reconnect loop in the background.
func (s *Session) Start() {
	go s.run()
}

func (s *Session) run() {
	delay := s.initialDelay

	for {
		select {
		case <-s.done:
			return
		default:
		}

		s.setState(StateConnecting)
		conn, _, err := s.dialer.Dial(s.url, nil)
		if err != nil {
			s.setState(StateDisconnected)
			s.logger.Warn("Dial failed", zap.Error(err), zap.Duration("retry_in", delay))
			if !s.retryAfter(delay) {
				return
			}
			delay = min(delay*2, s.maxDelay)
			continue
		}
		delay = s.initialDelay

		s.mu.Lock()
		s.conn = conn
		s.state = StateConnected
		s.mu.Unlock()

		if s.userID != "" {
			// Membership is not remembered across reconnects; join
			// every time.
			if err := s.sendJoin(conn); err != nil {
				s.logger.Warn("Join send failed", zap.Error(err))
				conn.Close()
				s.setState(StateDisconnected)
				continue
			}
			s.setState(StateJoined)
		}

		s.readLoop(conn)

		s.mu.Lock()
		s.conn = nil
		s.state = StateDisconnected
		stop := !s.reconnect
		s.mu.Unlock()

		select {
		case <-s.done:
			return
		default:
		}
		if stop {
			return
		}
	}
}

func (s *Session) retryAfter(delay time.Duration) bool {
	s.mu.RLock()
	reconnect := s.reconnect
	s.mu.RUnlock()
	if !reconnect {
		return false
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-s.done:
		return false
	case <-timer.C:
		return true
	}
}

func (s *Session) sendJoin(conn *websocket.Conn) error {
	data, err := json.Marshal(s.userID)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(Frame{Event: "join", Data: data})
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, frame)
}

func (s *Session) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			return
		}

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			s.logger.Warn("Dropping malformed frame", zap.Error(err))
			continue
		}
		s.dispatch(frame)
	}
}

func (s *Session) dispatch(frame Frame) {
	s.mu.RLock()
	handlers := append([]Handler(nil), s.handlers[frame.Event]...)
	s.mu.RUnlock()

	for _, h := range handlers {
		h(frame.Data)
	}
}

// Close tears the session down and disables reconnection.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})

	s.mu.Lock()
	s.reconnect = false
	conn := s.conn
	s.conn = nil
	s.state = StateDisconnected
	s.mu.Unlock()

	if conn != nil {
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		conn.Close()
	}
}

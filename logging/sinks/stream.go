package sinks

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"agentmind/core/logging"
)

// Stream broadcasts diagnostics events to websocket subscribers. Observers
// attach through the HTTP handler; the sink is strictly one-way and nothing a
// subscriber sends feeds back into the simulation.
type Stream struct {
	cfg      logging.StreamConfig
	logger   *log.Logger
	upgrader websocket.Upgrader

	mu          sync.Mutex
	subscribers map[*streamSubscriber]struct{}
	closed      bool
}

type streamSubscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func NewStream(cfg logging.StreamConfig, logger *log.Logger) *Stream {
	if logger == nil {
		logger = log.Default()
	}
	return &Stream{
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		subscribers: make(map[*streamSubscriber]struct{}),
	}
}

// Handler upgrades observer connections and registers them for the feed.
func (s *Stream) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.Printf("diagnostics upgrade failed: %v", err)
			return
		}
		sub := &streamSubscriber{conn: conn}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.subscribers[sub] = struct{}{}
		s.mu.Unlock()

		// Reader loop exists only to notice disconnects; inbound payloads
		// are discarded.
		go func() {
			defer s.detach(sub)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}

// SubscriberCount reports the number of attached observers.
func (s *Stream) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

// Write satisfies logging.Sink.
func (s *Stream) Write(event logging.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	s.mu.Lock()
	subs := make([]*streamSubscriber, 0, len(s.subscribers))
	for sub := range s.subscribers {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	timeout := s.cfg.SendTimeout
	if timeout <= 0 {
		timeout = time.Second
	}
	for _, sub := range subs {
		sub.mu.Lock()
		sub.conn.SetWriteDeadline(time.Now().Add(timeout))
		err := sub.conn.WriteMessage(websocket.TextMessage, data)
		sub.mu.Unlock()
		if err != nil {
			s.detach(sub)
		}
	}
	return nil
}

func (s *Stream) detach(sub *streamSubscriber) {
	s.mu.Lock()
	_, present := s.subscribers[sub]
	delete(s.subscribers, sub)
	s.mu.Unlock()
	if present {
		sub.conn.Close()
	}
}

// Close disconnects every subscriber.
func (s *Stream) Close(context.Context) error {
	s.mu.Lock()
	s.closed = true
	subs := make([]*streamSubscriber, 0, len(s.subscribers))
	for sub := range s.subscribers {
		subs = append(subs, sub)
	}
	s.subscribers = make(map[*streamSubscriber]struct{})
	s.mu.Unlock()

	for _, sub := range subs {
		message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "diagnostics stream closing")
		sub.mu.Lock()
		sub.conn.WriteMessage(websocket.CloseMessage, message)
		sub.mu.Unlock()
		sub.conn.Close()
	}
	return nil
}

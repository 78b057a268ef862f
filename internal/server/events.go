package server

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/caskdeck/caskdeck/internal/event"
	"github.com/caskdeck/caskdeck/internal/status"
	"github.com/caskdeck/caskdeck/internal/task"
)

// Message types sent on /ws/events.
const (
	MessageSnapshot     = "snapshot"
	MessageState        = event.TypeTaskState
	MessageProgress     = event.TypeTaskProgress
	MessageNotification = event.TypeNotification
)

// Message is one JSON frame on the event stream.
type Message struct {
	Type      string           `json:"type"`
	TaskID    string           `json:"task_id,omitempty"`
	Task      *task.Task       `json:"task,omitempty"`
	State     task.State       `json:"state,omitempty"`
	Message   string           `json:"message,omitempty"`
	Outcome   task.Outcome     `json:"outcome,omitempty"`
	Progress  *task.Progress   `json:"progress,omitempty"`
	Title     string           `json:"title,omitempty"`
	Body      string           `json:"body,omitempty"`
	Snapshot  *status.Snapshot `json:"snapshot,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewMessage converts a bus event to its wire form.
func NewMessage(e event.Event) (Message, bool) {
	switch ev := e.(type) {
	case event.TaskStateEvent:
		t := ev.Task
		return Message{
			Type:      MessageState,
			TaskID:    t.ID,
			Task:      &t,
			State:     ev.State,
			Message:   ev.Message,
			Outcome:   ev.Outcome,
			Timestamp: ev.Timestamp(),
		}, true
	case event.TaskProgressEvent:
		p := ev.Progress
		return Message{
			Type:      MessageProgress,
			TaskID:    ev.Task.ID,
			Progress:  &p,
			Timestamp: ev.Timestamp(),
		}, true
	case event.NotificationEvent:
		return Message{
			Type:      MessageNotification,
			TaskID:    ev.TaskID,
			Title:     ev.Title,
			Body:      ev.Body,
			Timestamp: ev.Timestamp(),
		}, true
	}
	return Message{}, false
}

// client is one websocket subscriber. Events are queued on a bounded
// channel; when it is full new events are dropped for that client only.
type client struct {
	ch      chan Message
	done    chan struct{}
	once    sync.Once
	dropped atomic.Uint64
}

func newClient(buffer int) *client {
	return &client{
		ch:   make(chan Message, buffer),
		done: make(chan struct{}),
	}
}

func (cl *client) offer(m Message) bool {
	select {
	case <-cl.done:
		return false
	default:
	}
	select {
	case cl.ch <- m:
		return true
	default:
		cl.dropped.Add(1)
		return false
	}
}

func (cl *client) close() {
	cl.once.Do(func() { close(cl.done) })
}

type clientSet struct {
	mu      sync.Mutex
	clients map[*client]struct{}
}

func newClientSet() *clientSet {
	return &clientSet{clients: make(map[*client]struct{})}
}

func (s *clientSet) add(cl *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[cl] = struct{}{}
}

func (s *clientSet) remove(cl *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, cl)
}

func (s *clientSet) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *clientSet) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for cl := range s.clients {
		cl.close()
	}
}

// streamEvents sends a snapshot of the board followed by every later
// event until the client disconnects. Events already in the snapshot are
// not sent again.
func (s *Server) streamEvents(c *websocket.Conn) {
	cl := newClient(s.buffer)
	s.clients.add(cl)
	defer s.clients.remove(cl)

	snap, stop := s.board.Watch(func(e event.Event) {
		if m, ok := NewMessage(e); ok {
			cl.offer(m)
		}
	})
	defer stop()

	s.logger.Info("event client connected", "remote", c.RemoteAddr().String())
	defer func() {
		s.logger.Info("event client disconnected",
			"remote", c.RemoteAddr().String(), "dropped", cl.dropped.Load())
	}()

	if err := c.WriteJSON(Message{Type: MessageSnapshot, Snapshot: &snap, Timestamp: time.Now()}); err != nil {
		return
	}

	go func() {
		defer cl.close()
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-cl.done:
			return
		case m := <-cl.ch:
			if err := c.WriteJSON(m); err != nil {
				s.logger.Debug("event write failed", "error", err)
				return
			}
		}
	}
}

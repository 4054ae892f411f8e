// Package feedback holds the process-wide notification queue and the panel
// visibility flags shown by the CLI.
package feedback

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long a notification lives when no ttl is given.
const DefaultTTL = 5000 * time.Millisecond

// Severity classifies a notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// String returns the severity name.
func (s Severity) String() string {
	return string(s)
}

// Notification is one queued message.
type Notification struct {
	ID        string
	Severity  Severity
	Text      string
	TTL       time.Duration
	CreatedAt time.Time
}

// String renders the notification as a single terminal line.
func (n Notification) String() string {
	return fmt.Sprintf("[%s] %s", n.Severity, n.Text)
}

// Sink observes every enqueued notification.
type Sink func(Notification)

// Store is safe for concurrent use. Construct it with New.
type Store struct {
	mu      sync.Mutex
	items   []Notification
	timers  map[string]*time.Timer
	sink    Sink
	sidebar bool
	busy    bool
	closed  bool
}

// New creates an empty store with the sidebar open. sink may be nil.
func New(sink Sink) *Store {
	return &Store{
		timers:  make(map[string]*time.Timer),
		sink:    sink,
		sidebar: true,
	}
}

// Notify enqueues a notification and schedules its removal after ttl.
// A ttl of zero or less means DefaultTTL. It returns the notification id.
func (s *Store) Notify(sev Severity, text string, ttl time.Duration) string {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	n := Notification{
		ID:        uuid.New().String(),
		Severity:  sev,
		Text:      text,
		TTL:       ttl,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return n.ID
	}
	s.items = append(s.items, n)
	id := n.ID
	s.timers[id] = time.AfterFunc(ttl, func() { s.expire(id) })
	sink := s.sink
	s.mu.Unlock()

	if sink != nil {
		sink(n)
	}
	return n.ID
}

func (s *Store) Success(text string) string { return s.Notify(SeveritySuccess, text, 0) }
func (s *Store) Error(text string) string { return s.Notify(SeverityError, text, 0) }
func (s *Store) Warning(text string) string { return s.Notify(SeverityWarning, text, 0) }
func (s *Store) Info(text string) string { return s.Notify(SeverityInfo, text, 0) }

// Dismiss removes the notification now. Unknown ids are ignored, so a timer
// that fires after a dismissal is harmless.
func (s *Store) Dismiss(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
	s.remove(id)
}

func (s *Store) expire(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, id)
	s.remove(id)
}

// remove must be called with mu held.
func (s *Store) remove(id string) {
	for i, n := range s.items {
		if n.ID == id {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			return
		}
	}
}

// Notifications returns the live notifications in insertion order.
func (s *Store) Notifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, len(s.items))
	copy(out, s.items)
	return out
}

// Toggle flips the sidebar and returns the new value.
func (s *Store) Toggle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sidebar = !s.sidebar
	return s.sidebar
}

func (s *Store) SetOpen(open bool) {
	s.mu.Lock()
	s.sidebar = open
	s.mu.Unlock()
}

func (s *Store) SidebarOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sidebar
}

// SetBusy sets the global loading flag.
func (s *Store) SetBusy(busy bool) {
	s.mu.Lock()
	s.busy = busy
	s.mu.Unlock()
}

func (s *Store) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Close stops every pending timer and drops the queue. Later Notify calls
// are ignored.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.items = nil
	s.closed = true
}

package route

import (
	"sync"

	"github.com/me/acadeval/internal/session"
)

// Navigator moves the application to a location.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// History records the current location and the protected location an
// anonymous visitor last tried to reach.
type History struct {
	mu      sync.Mutex
	current string
	from    string
	visited []string
}

// NewHistory starts at start.
func NewHistory(start string) *History {
	return &History{current: start, visited: []string{start}}
}

// Navigate implements Navigator.
func (h *History) Navigate(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = path
	h.visited = append(h.visited, path)
}

// Go evaluates path against t and moves to it, or to the redirect target.
func (h *History) Go(t *Table, state session.State, path string) Decision {
	d := t.Authorize(state, path)
	target := path
	if !d.Render {
		target = d.Redirect
	}

	h.mu.Lock()
	if d.From != "" {
		h.from = d.From
	}
	h.mu.Unlock()
	h.Navigate(target)
	return d
}

// Resume returns where to go after a login: the remembered location when the
// new session may reach it, else the default route. The memory is cleared.
func (h *History) Resume(t *Table, state session.State) string {
	h.mu.Lock()
	from := h.from
	h.from = ""
	h.mu.Unlock()

	if from != "" && t.Authorize(state, from).Render {
		return from
	}
	return DefaultRoute(state)
}

func (h *History) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// From returns the remembered location, "" when none.
func (h *History) From() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.from
}

// Visited returns every location navigated to, oldest first.
func (h *History) Visited() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.visited...)
}

package route

import (
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/me/acadeval/internal/session"
	"github.com/me/acadeval/pkg/model"
)

// Rule is the access rule of a location.
type Rule struct {
	Public  bool
	Allowed []model.Role
}

// Table maps locations to rules using chi's pattern matching.
type Table struct {
	mu    sync.RWMutex
	mux   *chi.Mux
	rules map[string]Rule
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{mux: chi.NewRouter(), rules: make(map[string]Rule)}
}

// DefaultTable returns the application's routes.
func DefaultTable() *Table {
	t := NewTable()
	t.Public(LoginPath)
	t.Public(CandidaturePath)
	t.Protect(StudentPath, model.RoleStudent, model.RoleAdmin)
	t.Protect(ProfessorPath, model.RoleProfessor, model.RoleAdmin)
	t.Protect(AdminPath, model.RoleAdmin)
	return t
}

// Public registers a location anyone may reach.
func (t *Table) Public(path string) {
	t.add(path, Rule{Public: true})
}

// Protect registers prefix and everything below it for the given roles.
func (t *Table) Protect(prefix string, roles ...model.Role) {
	rule := Rule{Allowed: roles}
	t.add(prefix, rule)
	t.add(strings.TrimRight(prefix, "/")+"/*", rule)
}

func (t *Table) add(pattern string, rule Rule) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rules[pattern] = rule
	t.mux.Get(pattern, http.NotFound)
}

// Resolve returns the rule for path. ok is false for unknown locations.
func (t *Table) Resolve(path string) (rule Rule, ok bool) {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		path = "/"
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	rctx := chi.NewRouteContext()
	if !t.mux.Match(rctx, http.MethodGet, path) {
		return Rule{}, false
	}
	rule, ok = t.rules[rctx.RoutePattern()]
	return rule, ok
}

// Authorize evaluates path against the table. Unknown locations redirect to
// the session's default route.
func (t *Table) Authorize(state session.State, path string) Decision {
	rule, ok := t.Resolve(path)
	switch {
	case !ok:
		return Decision{Redirect: DefaultRoute(state)}
	case rule.Public:
		return Decision{Render: true}
	default:
		return Authorize(state, rule.Allowed, path)
	}
}

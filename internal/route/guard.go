// Package route decides which locations the current session may reach.
package route

import (
	"slices"

	"github.com/me/acadeval/internal/session"
	"github.com/me/acadeval/pkg/model"
)

// Well-known locations.
const (
	LoginPath       = "/login"
	CandidaturePath = "/candidature"
	StudentPath     = "/student"
	ProfessorPath   = "/professor"
	AdminPath       = "/admin"
)

// Decision is the outcome of a guard evaluation. When Render is false the
// caller goes to Redirect. From is set when the attempted location should be
// remembered (anonymous access to a protected location).
type Decision struct {
	Render   bool
	Redirect string
	From     string
}

// Authorize is a pure function of the session, the allow-list and the
// requested location. A nil allow-list admits every authenticated role.
func Authorize(state session.State, allowed []model.Role, requested string) Decision {
	if !state.Authenticated() {
		return Decision{Redirect: LoginPath, From: requested}
	}
	role := state.Role()
	if allowed != nil && !slices.Contains(allowed, role) {
		return Decision{Redirect: role.HomeRoute()}
	}
	return Decision{Render: true}
}

// DefaultRoute is the landing location for the session: the login page when
// anonymous, the role's home otherwise.
func DefaultRoute(state session.State) string {
	if !state.Authenticated() {
		return LoginPath
	}
	return state.Role().HomeRoute()
}

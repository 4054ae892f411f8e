package route

import (
	"slices"
	"testing"

	"github.com/me/acadeval/internal/session"
	"github.com/me/acadeval/pkg/model"
)

func stateFor(role model.Role) session.State {
	return session.State{
		Identity: &model.User{Username: "u-" + string(role), Role: role},
		Token:    "tok",
	}
}

func TestAuthorize(t *testing.T) {
	staff := []model.Role{model.RoleProfessor, model.RoleAdmin}
	tests := []struct {
		name    string
		state   session.State
		allowed []model.Role
		path    string
		want    Decision
	}{
		{"anonymous remembers location", session.State{}, staff, "/professor/reports",
			Decision{Redirect: LoginPath, From: "/professor/reports"}},
		{"identity without token is anonymous", session.State{Identity: &model.User{Role: model.RoleAdmin}}, staff, "/admin",
			Decision{Redirect: LoginPath, From: "/admin"}},
		{"student denied staff page", stateFor(model.RoleStudent), staff, "/professor",
			Decision{Redirect: StudentPath}},
		{"professor denied admin page", stateFor(model.RoleProfessor), []model.Role{model.RoleAdmin}, "/admin/users",
			Decision{Redirect: ProfessorPath}},
		{"admin denied student-only page", stateFor(model.RoleAdmin), []model.Role{model.RoleStudent}, "/x",
			Decision{Redirect: AdminPath}},
		{"unknown role goes to login", stateFor(model.Role("janitor")), staff, "/professor",
			Decision{Redirect: LoginPath}},
		{"allowed renders", stateFor(model.RoleProfessor), staff, "/professor",
			Decision{Render: true}},
		{"nil allow-list renders", stateFor(model.RoleStudent), nil, "/anything",
			Decision{Render: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Authorize(tt.state, tt.allowed, tt.path); got != tt.want {
				t.Errorf("Authorize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAuthorize_StudentNeverRendersStaffPages(t *testing.T) {
	st := stateFor(model.RoleStudent)
	for _, p := range []string{"/professor", "/professor/copies", "/admin", "/x"} {
		d := Authorize(st, []model.Role{model.RoleProfessor, model.RoleAdmin}, p)
		if d.Render || d.Redirect != StudentPath {
			t.Errorf("%s: %+v", p, d)
		}
	}
}

func TestDefaultRoute(t *testing.T) {
	tests := []struct {
		state session.State
		want  string
	}{
		{session.State{}, LoginPath},
		{stateFor(model.RoleStudent), StudentPath},
		{stateFor(model.RoleProfessor), ProfessorPath},
		{stateFor(model.RoleAdmin), AdminPath},
		{stateFor(model.Role("guest")), LoginPath},
	}
	for _, tt := range tests {
		if got := DefaultRoute(tt.state); got != tt.want {
			t.Errorf("DefaultRoute(%q) = %q, want %q", tt.state.Role(), got, tt.want)
		}
	}
}

func TestTable_Resolve(t *testing.T) {
	table := DefaultTable()
	tests := []struct {
		path    string
		ok      bool
		public  bool
		allowed []model.Role
	}{
		{"/login", true, true, nil},
		{"/candidature", true, true, nil},
		{"/student", true, false, []model.Role{model.RoleStudent, model.RoleAdmin}},
		{"/student/exams", true, false, []model.Role{model.RoleStudent, model.RoleAdmin}},
		{"/professor/evaluations/new?draft=1", true, false, []model.Role{model.RoleProfessor, model.RoleAdmin}},
		{"/admin/candidatures", true, false, []model.Role{model.RoleAdmin}},
		{"/", false, false, nil},
		{"/nowhere", false, false, nil},
	}
	for _, tt := range tests {
		rule, ok := table.Resolve(tt.path)
		if ok != tt.ok {
			t.Errorf("Resolve(%q) ok = %v, want %v", tt.path, ok, tt.ok)
			continue
		}
		if rule.Public != tt.public || !slices.Equal(rule.Allowed, tt.allowed) {
			t.Errorf("Resolve(%q) = %+v", tt.path, rule)
		}
	}
}

func TestTable_Authorize(t *testing.T) {
	table := DefaultTable()
	tests := []struct {
		name  string
		state session.State
		path  string
		want  Decision
	}{
		{"public while anonymous", session.State{}, "/candidature", Decision{Render: true}},
		{"protected while anonymous", session.State{}, "/student/results", Decision{Redirect: LoginPath, From: "/student/results"}},
		{"admin reaches student pages", stateFor(model.RoleAdmin), "/student/submit", Decision{Render: true}},
		{"student bounced from admin", stateFor(model.RoleStudent), "/admin/users", Decision{Redirect: StudentPath}},
		{"unknown location", stateFor(model.RoleProfessor), "/settings", Decision{Redirect: ProfessorPath}},
		{"root while anonymous", session.State{}, "/", Decision{Redirect: LoginPath}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.Authorize(tt.state, tt.path); got != tt.want {
				t.Errorf("Authorize(%q) = %+v, want %+v", tt.path, got, tt.want)
			}
		})
	}
}

func TestHistory_GoAndResume(t *testing.T) {
	table := DefaultTable()
	h := NewHistory(LoginPath)

	d := h.Go(table, session.State{}, "/professor/reports")
	if d.Render || h.Current() != LoginPath || h.From() != "/professor/reports" {
		t.Fatalf("anonymous Go: decision=%+v current=%q from=%q", d, h.Current(), h.From())
	}

	prof := stateFor(model.RoleProfessor)
	if got := h.Resume(table, prof); got != "/professor/reports" {
		t.Errorf("Resume = %q, want remembered location", got)
	}
	if h.From() != "" {
		t.Error("Resume should clear the remembered location")
	}

	h.Go(table, session.State{}, "/admin/users")
	if got := h.Resume(table, prof); got != ProfessorPath {
		t.Errorf("Resume to forbidden location = %q, want %q", got, ProfessorPath)
	}

	h.Go(table, prof, "/professor/copies")
	if h.Current() != "/professor/copies" {
		t.Errorf("Current = %q", h.Current())
	}
	want := []string{LoginPath, LoginPath, LoginPath, "/professor/copies"}
	if got := h.Visited(); !slices.Equal(got, want) {
		t.Errorf("Visited = %v, want %v", got, want)
	}
}

func TestNavigatorFunc(t *testing.T) {
	var got string
	var nav Navigator = NavigatorFunc(func(p string) { got = p })
	nav.Navigate(LoginPath)
	if got != LoginPath {
		t.Errorf("navigated to %q", got)
	}
}

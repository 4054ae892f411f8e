package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/me/acadeval/internal/route"
	"github.com/me/acadeval/pkg/model"
)

// collaborator is an in-process stand-in for the evaluation API.
type collaborator struct {
	mu         sync.Mutex
	revoked    bool
	hits       map[string]int
	candidates []record
}

// record is the form fields of one received candidature.
type record = map[string]string

var accounts = map[string]struct {
	password string
	token    string
	user     model.User
}{
	"prof":  {"secret", "tok-prof", model.User{Username: "prof", FullName: "Marie Curie", Role: model.RoleProfessor}},
	"admin": {"secret", "tok-admin", model.User{Username: "admin", FullName: "Root Admin", Role: model.RoleAdmin}},
}

func (c *collaborator) hit(name string) {
	c.mu.Lock()
	c.hits[name]++
	c.mu.Unlock()
}

func (c *collaborator) count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits[name]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (c *collaborator) handler() http.Handler {
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", func(w http.ResponseWriter, req *http.Request) {
			c.hit("login")
			var body model.LoginRequest
			json.NewDecoder(req.Body).Decode(&body)
			acct, ok := accounts[body.Username]
			if !ok || acct.password != body.Password {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Identifiants incorrects"})
				return
			}
			writeJSON(w, http.StatusOK, model.TokenResponse{
				AccessToken: acct.token, TokenType: "bearer", ExpiresIn: 3600, User: acct.user,
			})
		})
		r.Post("/auth/logout", func(w http.ResponseWriter, req *http.Request) {
			c.hit("logout")
			w.WriteHeader(http.StatusNoContent)
		})
		r.Post("/auth/login/student", func(w http.ResponseWriter, req *http.Request) {
			c.hit("student-login")
			var body model.StudentLoginRequest
			json.NewDecoder(req.Body).Decode(&body)
			writeJSON(w, http.StatusOK, model.TokenResponse{
				AccessToken: "tok-student", TokenType: "bearer", ExpiresIn: 3600,
				User: model.User{
					Username: body.StudentNumber, Role: model.RoleStudent, StudentNumber: body.StudentNumber,
					LastName: body.LastName, FirstName: body.FirstName,
				},
			})
		})
		r.Get("/users", func(w http.ResponseWriter, req *http.Request) {
			c.hit("users")
			c.mu.Lock()
			revoked := c.revoked
			c.mu.Unlock()
			if revoked || req.Header.Get("Authorization") != "Bearer tok-admin" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token invalide"})
				return
			}
			writeJSON(w, http.StatusOK, []model.Account{
				{Username: "alice", FullName: "Alice Martin", Role: model.RoleStudent, IsActive: true},
				{Username: "bob", FullName: "Bob Durand", Role: model.RoleProfessor, IsActive: false},
			})
		})
		r.Post("/candidatures", func(w http.ResponseWriter, req *http.Request) {
			c.hit("candidatures")
			if err := req.ParseMultipartForm(1 << 20); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			c.mu.Lock()
			c.candidates = append(c.candidates, record{
				"nom":         req.FormValue("nom"),
				"grades_json": req.FormValue("grades_json"),
				"auth":        req.Header.Get("Authorization"),
				"files":       strings.Repeat("x", len(req.MultipartForm.File["files"])),
			})
			c.mu.Unlock()
			writeJSON(w, http.StatusCreated, map[string]any{"id": "cand-1", "statut": "en_attente"})
		})
		r.Post("/submissions", func(w http.ResponseWriter, req *http.Request) {
			c.hit("submissions")
			writeJSON(w, http.StatusCreated, map[string]any{"id": "sub-1"})
		})
	})
	return r
}

type harness struct {
	t       *testing.T
	server  string
	session string
	collab  *collaborator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	for _, kv := range os.Environ() {
		if k, _, _ := strings.Cut(kv, "="); strings.HasPrefix(k, "ACADEVAL_") {
			t.Setenv(k, "")
		}
	}
	t.Chdir(dir)

	c := &collaborator{hits: map[string]int{}}
	ts := httptest.NewServer(c.handler())
	t.Cleanup(ts.Close)
	return &harness{
		t:       t,
		server:  ts.URL + "/api/v1",
		session: filepath.Join(dir, "session.json"),
		collab:  c,
	}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	root := NewRootCmd()

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(append(args,
		"--server="+h.server,
		"--session-backend=file",
		"--session-path="+h.session,
	))

	err := root.Execute()
	return buf.String(), err
}

func (h *harness) login(username string) {
	h.t.Helper()
	if out, err := h.run("login", "-u", username, "-p", "secret"); err != nil {
		h.t.Fatalf("login %s: %v\n%s", username, err, out)
	}
}

func TestLoginAndWhoami(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("login", "-u", "prof", "-p", "secret")
	if err != nil {
		t.Fatalf("login: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Logged in as Marie Curie (professor)") {
		t.Errorf("login output = %q", out)
	}
	if !strings.Contains(out, "Home: /professor") {
		t.Errorf("login output missing home route: %q", out)
	}
	if _, err := os.Stat(h.session); err != nil {
		t.Fatalf("session not persisted: %v", err)
	}

	out, err = h.run("whoami")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if !strings.Contains(out, "Role:     professor") {
		t.Errorf("whoami output = %q", out)
	}
	if h.collab.count("login") != 1 {
		t.Errorf("login calls = %d, want 1 (restore must not hit the server)", h.collab.count("login"))
	}

	if _, err := h.run("logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	out, _ = h.run("whoami")
	if !strings.Contains(out, "Not logged in") {
		t.Errorf("whoami after logout = %q", out)
	}
	if _, err := h.run("logout"); err != nil {
		t.Fatalf("second logout: %v", err)
	}
	if n := h.collab.count("logout"); n != 1 {
		t.Errorf("server logout calls = %d, want 1", n)
	}
}

func TestLoginFailure(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("login", "-u", "prof", "-p", "wrong")
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "Identifiants incorrects" {
		t.Errorf("error = %q, want server detail", err)
	}
	out, _ := h.run("whoami")
	if !strings.Contains(out, "Not logged in") {
		t.Errorf("whoami = %q", out)
	}
}

func TestStudentLogin(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("login", "--student", "--number", "E123", "--last-name", "Doe", "--first-name", "Jane")
	if err != nil {
		t.Fatalf("login: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Logged in as Jane Doe (student)") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "Home: /student") {
		t.Errorf("output = %q", out)
	}
}

func TestGuard(t *testing.T) {
	tests := []struct {
		name    string
		as      string
		args    []string
		wantErr error
		wantMsg string
	}{
		{"anonymous", "", []string{"users", "list"}, ErrLoginRequired, ""},
		{"professor on admin page", "prof", []string{"users", "list"}, ErrForbidden, "home is /professor"},
		{"admin allowed", "admin", []string{"users", "list"}, nil, "alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			if tt.as != "" {
				h.login(tt.as)
			}
			out, err := h.run(tt.args...)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v\n%s", err, out)
				}
				if !strings.Contains(out, tt.wantMsg) {
					t.Errorf("output = %q, want %q", out, tt.wantMsg)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want it to mention %q", err, tt.wantMsg)
			}
			if h.collab.count("users") != 0 {
				t.Errorf("refused command reached the server")
			}
		})
	}
}

func TestUsersListFilters(t *testing.T) {
	h := newHarness(t)
	h.login("admin")

	tests := []struct {
		args    []string
		want    string
		notWant string
	}{
		{[]string{"--search", "ALI"}, "alice", "bob"},
		{[]string{"--status", "inactive"}, "bob", "alice"},
		{[]string{"--search", "nobody"}, "No users found.", "alice"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			out, err := h.run(append([]string{"users", "list"}, tt.args...)...)
			if err != nil {
				t.Fatalf("users list: %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out)
			}
			if strings.Contains(out, tt.notWant) {
				t.Errorf("output should not contain %q:\n%s", tt.notWant, out)
			}
		})
	}
}

func TestRejectedTokenEvictsSession(t *testing.T) {
	h := newHarness(t)
	h.login("admin")

	h.collab.mu.Lock()
	h.collab.revoked = true
	h.collab.mu.Unlock()

	out, err := h.run("users", "list")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(out, "session expired, please log in again") {
		t.Errorf("missing eviction warning:\n%s", out)
	}
	if _, err := os.Stat(h.session); !os.IsNotExist(err) {
		t.Errorf("session file still present: %v", err)
	}
	if out, _ := h.run("whoami"); !strings.Contains(out, "Not logged in") {
		t.Errorf("whoami = %q", out)
	}
}

func TestApplyFromFile(t *testing.T) {
	h := newHarness(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "releve.pdf"), []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc := `last_name: Doe
first_name: Jane
email: jane@example.com
study_level: L3
grades:
  - subject: Maths
    score: 14
    weight: 2
  - subject: Physique
    score: 11
    weight: 1
  - subject: ""
    score: 0
files:
  - releve.pdf
`
	path := filepath.Join(dir, "candidature.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := h.run("apply", "--from", path, "-y")
	if err != nil {
		t.Fatalf("apply: %v\n%s", err, out)
	}
	for _, want := range []string{"13.00", "Candidature cand-1 received (status en_attente)", "candidature submitted", "Next: /login"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	h.collab.mu.Lock()
	defer h.collab.mu.Unlock()
	if len(h.collab.candidates) != 1 {
		t.Fatalf("candidatures received = %d, want 1", len(h.collab.candidates))
	}
	got := h.collab.candidates[0]
	if got["nom"] != "Doe" {
		t.Errorf("nom = %q", got["nom"])
	}
	if got["auth"] != "" {
		t.Errorf("candidature sent with Authorization %q", got["auth"])
	}
	if len(got["files"]) != 1 {
		t.Errorf("files uploaded = %d, want 1", len(got["files"]))
	}
	var grades []model.Grade
	if err := json.Unmarshal([]byte(got["grades_json"]), &grades); err != nil {
		t.Fatalf("grades_json: %v", err)
	}
	if len(grades) != 2 {
		t.Errorf("grades sent = %d, want 2 (empty rows dropped)", len(grades))
	}
}

func TestApplyIncompleteFile(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "candidature.yaml")
	if err := os.WriteFile(path, []byte("first_name: Jane\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := h.run("apply", "--from", path, "-y")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "last_name") {
		t.Errorf("error = %q, want it to name last_name", err)
	}
	if h.collab.count("candidatures") != 0 {
		t.Error("incomplete candidature reached the server")
	}
}

func TestSubmitValidation(t *testing.T) {
	h := newHarness(t)
	if out, err := h.run("login", "--student", "--number", "E123", "--last-name", "Doe", "--first-name", "Jane"); err != nil {
		t.Fatalf("login: %v\n%s", err, out)
	}

	tests := []struct {
		name string
		args []string
	}{
		{"no files", []string{"submit", "-e", "eval-1"}},
		{"typed without answer", []string{"submit", "-e", "eval-1", "-t", "numerique"}},
		{"missing evaluation", []string{"submit", "-t", "numerique", "--answer", "42"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.run(tt.args...)
			var verr *model.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
		})
	}
	if h.collab.count("submissions") != 0 {
		t.Error("invalid submission reached the server")
	}

	if _, err := h.run("submit", "-e", "eval-1", "--type", "bogus"); err == nil ||
		!strings.Contains(err.Error(), "unknown submission type") {
		t.Errorf("bogus type error = %v", err)
	}
}

func TestResourcesReleasedAfterRun(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
		fails   bool
	}{
		{name: "success", args: []string{"whoami"}},
		{name: "guard refusal", args: []string{"users", "list"}, wantErr: ErrLoginRequired, fails: true},
		{name: "command failure", args: []string{"login", "-u", "prof", "-p", "wrong"}, fails: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			a := &app{table: route.DefaultTable()}
			root := newRootCmd(a)
			var buf bytes.Buffer
			root.SetOut(&buf)
			root.SetErr(&buf)
			root.SetArgs(append(tt.args,
				"--server="+h.server,
				"--session-backend=sqlite",
				"--session-path="+filepath.Join(t.TempDir(), "session.db"),
			))

			err := root.Execute()
			if tt.fails != (err != nil) {
				t.Fatalf("error = %v, want failure %v\n%s", err, tt.fails, buf.String())
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if a.closers != nil {
				t.Errorf("session database left open: %d closers", len(a.closers))
			}
			if a.notes == nil {
				t.Fatal("feedback queue never created")
			}
			a.notes.Info("late")
			if n := len(a.notes.Notifications()); n != 0 {
				t.Errorf("feedback queue still accepting notifications: %d", n)
			}
		})
	}
}

package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/me/acadeval/internal/api"
	"github.com/me/acadeval/pkg/model"
)

// fakeAuth answers logins from a canned response. When block is set,
// exchanges wait until it is closed.
type fakeAuth struct {
	mu      sync.Mutex
	resp    *model.TokenResponse
	err     error
	block   chan struct{}
	started chan struct{}
	calls   int

	refreshResp   *model.TokenResponse
	refreshErr    error
	refreshedWith []string
}

func (f *fakeAuth) exchange() (*model.TokenResponse, error) {
	f.mu.Lock()
	f.calls++
	block, started := f.block, f.started
	resp, err := f.resp, f.err
	f.mu.Unlock()
	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		<-block
	}
	return resp, err
}

func (f *fakeAuth) Login(ctx context.Context, username, password string) (*model.TokenResponse, error) {
	return f.exchange()
}

func (f *fakeAuth) StudentLogin(ctx context.Context, num, last, first string) (*model.TokenResponse, error) {
	return f.exchange()
}

func (f *fakeAuth) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshedWith = append(f.refreshedWith, refreshToken)
	return f.refreshResp, f.refreshErr
}

func (f *fakeAuth) refreshCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.refreshedWith...)
}

// userAuth answers each username with its own response. Logins for a
// username with a gate wait until the gate is closed.
type userAuth struct {
	resps   map[string]*model.TokenResponse
	gates   map[string]chan struct{}
	started chan string
}

func (u *userAuth) Login(ctx context.Context, username, password string) (*model.TokenResponse, error) {
	if u.started != nil {
		u.started <- username
	}
	if gate, ok := u.gates[username]; ok {
		<-gate
	}
	return u.resps[username], nil
}

func (u *userAuth) StudentLogin(ctx context.Context, num, last, first string) (*model.TokenResponse, error) {
	return u.Login(ctx, num, "")
}

func (u *userAuth) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	return nil, errors.New("no refresh")
}

func adminResponse() *model.TokenResponse {
	return &model.TokenResponse{
		AccessToken: "tok-admin",
		TokenType:   "bearer",
		ExpiresIn:   3600,
		User:        model.User{Username: "admin", FullName: "Administrateur", Role: model.RoleAdmin},
	}
}

func profResponse() *model.TokenResponse {
	return &model.TokenResponse{
		AccessToken: "tok-prof",
		TokenType:   "bearer",
		ExpiresIn:   3600,
		User:        model.User{Username: "prof", FullName: "Professeur Martin", Role: model.RoleProfessor},
	}
}

func checkInvariant(t *testing.T, st *Store) {
	t.Helper()
	s := st.Snapshot()
	if s.Authenticated() != (s.Identity != nil && s.Token != "") {
		t.Fatalf("authenticated invariant broken: %+v", s)
	}
	if (s.Identity == nil) != (s.Token == "") {
		t.Fatalf("identity and token out of step: identity=%v token=%q", s.Identity, s.Token)
	}
}

func TestStore_LoginSuccess(t *testing.T) {
	p := NewMemoryPersistence()
	st := NewStore(&fakeAuth{resp: profResponse()}, p, nil)
	ctx := context.Background()

	if got := st.Snapshot().Phase(); got != PhaseAnonymous {
		t.Fatalf("initial phase = %s, want anonymous", got)
	}
	if err := st.Login(ctx, "prof", "prof123"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	checkInvariant(t, st)

	s := st.Snapshot()
	if !s.Authenticated() || s.Phase() != PhaseAuthenticated {
		t.Fatalf("expected authenticated, got %+v", s)
	}
	if s.Identity.Role != model.RoleProfessor {
		t.Errorf("Role = %q", s.Identity.Role)
	}
	if st.Token() != "tok-prof" {
		t.Errorf("Token = %q", st.Token())
	}
	if exp := st.ExpiresAt(); time.Until(exp) < 59*time.Minute {
		t.Errorf("ExpiresAt = %v, want about an hour from now", exp)
	}

	rec, _ := p.Load(ctx)
	if rec == nil || rec.Token != "tok-prof" || rec.User.Username != "prof" {
		t.Errorf("persisted record = %+v", rec)
	}
}

func TestStore_LoginFailuresNeverAuthenticate(t *testing.T) {
	failures := []error{
		&api.Error{StatusCode: http.StatusUnauthorized, Detail: "Identifiants incorrects"},
		errors.New("request failed: connection refused"),
		&api.Error{StatusCode: http.StatusInternalServerError},
	}
	wantMsgs := []string{"Identifiants incorrects", DefaultLoginError, DefaultLoginError}

	auth := &fakeAuth{}
	p := NewMemoryPersistence()
	st := NewStore(auth, p, nil)
	ctx := context.Background()

	for i, failure := range failures {
		auth.err = failure
		err := st.Login(ctx, "prof", "wrong")
		if !errors.Is(err, failure) {
			t.Errorf("attempt %d: error = %v, want %v", i, err, failure)
		}
		checkInvariant(t, st)
		s := st.Snapshot()
		if s.Authenticated() || s.Identity != nil || s.Token != "" {
			t.Fatalf("attempt %d: failed login left state %+v", i, s)
		}
		if s.LastError != wantMsgs[i] {
			t.Errorf("attempt %d: LastError = %q, want %q", i, s.LastError, wantMsgs[i])
		}
		if s.Phase() != PhaseErrored {
			t.Errorf("attempt %d: phase = %s, want errored", i, s.Phase())
		}
	}
	if rec, _ := p.Load(ctx); rec != nil {
		t.Errorf("failed logins persisted %+v", rec)
	}

	st.ClearError()
	if s := st.Snapshot(); s.LastError != "" || s.Phase() != PhaseAnonymous {
		t.Errorf("after ClearError: %+v", s)
	}
}

func TestStore_EmptyTokenIsFailure(t *testing.T) {
	st := NewStore(&fakeAuth{resp: &model.TokenResponse{User: model.User{Username: "x"}}}, nil, nil)
	err := st.StudentLogin(context.Background(), "E001", "Diallo", "Awa")
	if !errors.Is(err, ErrEmptyToken) {
		t.Fatalf("error = %v, want ErrEmptyToken", err)
	}
	checkInvariant(t, st)
	if st.Snapshot().Authenticated() {
		t.Error("empty token must not authenticate")
	}
}

func TestStore_ConcurrentLoginRejected(t *testing.T) {
	auth := &fakeAuth{resp: profResponse(), block: make(chan struct{}), started: make(chan struct{}, 1)}
	st := NewStore(auth, nil, nil)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- st.Login(ctx, "prof", "prof123") }()
	<-auth.started

	if s := st.Snapshot(); !s.Pending || s.Phase() != PhaseAuthenticating {
		t.Fatalf("expected authenticating, got %+v", s)
	}
	if err := st.Login(ctx, "prof", "prof123"); !errors.Is(err, ErrLoginPending) {
		t.Fatalf("second login error = %v, want ErrLoginPending", err)
	}

	close(auth.block)
	if err := <-done; err != nil {
		t.Fatalf("first login: %v", err)
	}
	if auth.calls != 1 {
		t.Errorf("exchange calls = %d, want 1", auth.calls)
	}
	checkInvariant(t, st)
}

func TestStore_LogoutDuringLoginDiscardsResponse(t *testing.T) {
	auth := &fakeAuth{resp: profResponse(), block: make(chan struct{}), started: make(chan struct{}, 1)}
	p := NewMemoryPersistence()
	st := NewStore(auth, p, nil)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- st.Login(ctx, "prof", "prof123") }()
	<-auth.started

	if err := st.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	close(auth.block)

	if err := <-done; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("stale login error = %v, want ErrSuperseded", err)
	}
	checkInvariant(t, st)
	if st.Snapshot().Authenticated() {
		t.Error("stale response must not authenticate")
	}
	if rec, _ := p.Load(ctx); rec != nil {
		t.Errorf("stale response persisted %+v", rec)
	}
}

func TestStore_Logout(t *testing.T) {
	p := NewMemoryPersistence()
	st := NewStore(&fakeAuth{resp: profResponse()}, p, nil)
	ctx := context.Background()

	if err := st.Login(ctx, "prof", "prof123"); err != nil {
		t.Fatal(err)
	}
	if err := st.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	checkInvariant(t, st)
	if s := st.Snapshot(); s.Authenticated() || s.Phase() != PhaseAnonymous {
		t.Errorf("after logout: %+v", s)
	}
	if rec, _ := p.Load(ctx); rec != nil {
		t.Errorf("logout left persisted session %+v", rec)
	}
}

func TestStore_RestoreFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	ctx := context.Background()

	first := NewStore(&fakeAuth{resp: profResponse()}, NewFilePersistence(path), nil)
	if err := first.Login(ctx, "prof", "prof123"); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("session file not written: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("session file mode = %v, want 0600", info.Mode().Perm())
	}

	// A new process restores without any exchange.
	auth := &fakeAuth{}
	second := NewStore(auth, NewFilePersistence(path), nil)
	if err := second.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	s := second.Snapshot()
	if !s.Authenticated() || s.Identity.Username != "prof" {
		t.Fatalf("restored state = %+v", s)
	}
	if auth.calls != 0 {
		t.Errorf("restore performed %d exchanges", auth.calls)
	}
}

func TestStore_RestoreDiscardsBadRecords(t *testing.T) {
	tests := []struct {
		name string
		rec  *model.Session
	}{
		{"missing user", &model.Session{Token: "tok"}},
		{"missing token", &model.Session{User: &model.User{Username: "prof", Role: model.RoleProfessor}}},
		{"expired", &model.Session{
			Token:     "tok",
			User:      &model.User{Username: "prof", Role: model.RoleProfessor},
			ExpiresAt: time.Now().Add(-time.Minute),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			p := NewMemoryPersistence()
			p.Save(ctx, tt.rec)

			st := NewStore(&fakeAuth{}, p, nil)
			if err := st.Restore(ctx); err != nil {
				t.Fatalf("Restore: %v", err)
			}
			checkInvariant(t, st)
			if st.Snapshot().Authenticated() {
				t.Error("bad record restored as authenticated")
			}
			if rec, _ := p.Load(ctx); rec != nil {
				t.Errorf("bad record not cleared: %+v", rec)
			}
		})
	}
}

func TestStore_EvictOn401(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"tok-1","token_type":"bearer","expires_in":3600,"user":{"username":"admin","full_name":"Administrateur","role":"admin"}}`))
	})
	r.Get("/api/v1/users", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Token invalide ou expire"}`))
	})
	ts := httptest.NewServer(r)
	defer ts.Close()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	client := api.NewClient(ts.URL+"/api/v1", nil)
	st := NewStore(client.Auth(), NewFilePersistence(path), nil)
	client.SetTokenSource(st)
	client.SetUnauthorizedHandler(func() { st.Evict(ctx) })

	if err := st.Login(ctx, "admin", "admin123"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("token not persisted: %v", err)
	}

	_, err := client.Users().List(ctx, "", model.DefaultListOptions())
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("expected 401, got %v", err)
	}
	checkInvariant(t, st)
	if st.Snapshot().Authenticated() {
		t.Error("store still authenticated after 401")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("session file still present after 401: %v", err)
	}
}

func TestStore_StaleLoginAfterReloginIsNotPersisted(t *testing.T) {
	auth := &userAuth{
		resps:   map[string]*model.TokenResponse{"admin": adminResponse(), "prof": profResponse()},
		gates:   map[string]chan struct{}{"admin": make(chan struct{})},
		started: make(chan string, 2),
	}
	p := NewFilePersistence(filepath.Join(t.TempDir(), "session.json"))
	st := NewStore(auth, p, nil)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- st.Login(ctx, "admin", "admin123") }()
	<-auth.started

	if err := st.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if err := st.Login(ctx, "prof", "prof123"); err != nil {
		t.Fatalf("Login prof: %v", err)
	}
	<-auth.started
	close(auth.gates["admin"])

	if err := <-done; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("late admin login error = %v, want ErrSuperseded", err)
	}
	checkInvariant(t, st)
	if got := st.Token(); got != "tok-prof" {
		t.Errorf("memory token = %q, want tok-prof", got)
	}
	rec, err := p.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec == nil || rec.Token != "tok-prof" {
		t.Fatalf("persisted session = %+v, want tok-prof", rec)
	}

	again := NewStore(auth, p, nil)
	if err := again.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if role := again.Snapshot().Role(); role != model.RoleProfessor {
		t.Errorf("restored role = %q, want professor", role)
	}
}

func TestStore_RestoreRefreshesExpiredSession(t *testing.T) {
	ctx := context.Background()
	prof := profResponse().User
	expired := &model.Session{
		Token:        "tok-old",
		RefreshToken: "rt-1",
		User:         &prof,
		ExpiresAt:    time.Now().Add(-time.Minute),
		SavedAt:      time.Now().Add(-time.Hour),
	}

	tests := []struct {
		name      string
		rec       *model.Session
		auth      *fakeAuth
		wantToken string
		wantCalls int
	}{
		{
			name: "renewed",
			rec:  expired,
			auth: &fakeAuth{refreshResp: &model.TokenResponse{
				AccessToken: "tok-new", RefreshToken: "rt-2", ExpiresIn: 3600,
			}},
			wantToken: "tok-new",
			wantCalls: 1,
		},
		{
			name:      "refresh rejected",
			rec:       expired,
			auth:      &fakeAuth{refreshErr: &api.Error{StatusCode: http.StatusUnauthorized}},
			wantCalls: 1,
		},
		{
			name:      "refresh without token",
			rec:       expired,
			auth:      &fakeAuth{refreshResp: &model.TokenResponse{}},
			wantCalls: 1,
		},
		{
			name: "expired without refresh token",
			rec: &model.Session{
				Token: "tok-old", User: &prof, ExpiresAt: time.Now().Add(-time.Minute),
			},
			auth: &fakeAuth{},
		},
		{
			name: "valid record is not refreshed",
			rec: &model.Session{
				Token: "tok-live", RefreshToken: "rt-1", User: &prof, ExpiresAt: time.Now().Add(time.Hour),
			},
			auth:      &fakeAuth{},
			wantToken: "tok-live",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewMemoryPersistence()
			if err := p.Save(ctx, tt.rec); err != nil {
				t.Fatal(err)
			}
			st := NewStore(tt.auth, p, nil)
			if err := st.Restore(ctx); err != nil {
				t.Fatalf("Restore: %v", err)
			}
			checkInvariant(t, st)

			if calls := tt.auth.refreshCalls(); len(calls) != tt.wantCalls {
				t.Errorf("refresh calls = %v, want %d", calls, tt.wantCalls)
			} else if len(calls) == 1 && calls[0] != "rt-1" {
				t.Errorf("refreshed with %q, want rt-1", calls[0])
			}
			if got := st.Token(); got != tt.wantToken {
				t.Errorf("token = %q, want %q", got, tt.wantToken)
			}

			rec, _ := p.Load(ctx)
			if tt.wantToken == "" {
				if rec != nil {
					t.Errorf("expired session kept: %+v", rec)
				}
				return
			}
			if rec == nil || rec.Token != tt.wantToken {
				t.Fatalf("persisted = %+v, want token %q", rec, tt.wantToken)
			}
			if st.Snapshot().Role() != model.RoleProfessor {
				t.Errorf("identity lost across refresh: %+v", st.Snapshot())
			}
			if tt.name == "renewed" && rec.RefreshToken != "rt-2" {
				t.Errorf("refresh token = %q, want rt-2", rec.RefreshToken)
			}
		})
	}
}

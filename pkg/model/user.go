package model

import "strings"

// Role is the closed set of account roles known to the platform.
type Role string

const (
	// RoleStudent submits copies and reads published results.
	RoleStudent Role = "student"
	// RoleProfessor creates evaluations and launches corrections.
	RoleProfessor Role = "professor"
	// RoleAdmin manages candidatures and users.
	RoleAdmin Role = "admin"
)

// Roles lists every known role in display order.
var Roles = []Role{RoleStudent, RoleProfessor, RoleAdmin}

// String returns the wire representation of the role.
func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleProfessor, RoleAdmin:
		return true
	}
	return false
}

// HomeRoute returns the landing path of the role. Unknown roles land on the
// login page.
func (r Role) HomeRoute() string {
	switch r {
	case RoleStudent:
		return "/student"
	case RoleProfessor:
		return "/professor"
	case RoleAdmin:
		return "/admin"
	default:
		return "/login"
	}
}

// ParseRole converts a wire role into a Role. ok is false for unknown values.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// User is the identity carried by an authenticated session.
type User struct {
	Username      string `json:"username"`
	Email         string `json:"email,omitempty"`
	FullName      string `json:"full_name"`
	Role          Role   `json:"role"`
	StudentNumber string `json:"numero_etudiant,omitempty"`
	LastName      string `json:"nom,omitempty"`
	FirstName     string `json:"prenom,omitempty"`
}

// DisplayName returns the best human-readable name for the user.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return u.Username
}

// LoginRequest is the password credential shape of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// StudentLoginRequest is the name-based credential shape of POST /auth/login/student.
type StudentLoginRequest struct {
	StudentNumber string `json:"numero_etudiant"`
	LastName      string `json:"nom"`
	FirstName     string `json:"prenom"`
}

// TokenResponse is the token envelope returned by every login endpoint.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	User         User   `json:"user"`
}

// Account is a user record as listed by the admin users endpoints.
type Account struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Role      Role   `json:"role"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

// AccountUpdate carries the optional fields of PUT /users/{username}.
type AccountUpdate struct {
	FullName string
	Email    string
	IsActive *bool
}

package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/me/acadeval/pkg/model"
)

// UserService wraps the admin /users endpoints.
type UserService struct{ c *Client }

// Users returns the user administration endpoints.
func (c *Client) Users() UserService { return UserService{c} }

// List returns accounts, optionally filtered by role.
func (s UserService) List(ctx context.Context, role model.Role, opts model.ListOptions) ([]model.Account, error) {
	params := opts.Params()
	params["role"] = string(role)
	var out []model.Account
	if err := s.c.Get(ctx, "/users", &out, Query(params)); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one account.
func (s UserService) Get(ctx context.Context, username string) (*model.Account, error) {
	var out model.Account
	if err := s.c.Get(ctx, "/users/"+url.PathEscape(username), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update changes the optional fields of an account. The collaborator reads
// them from the query string.
func (s UserService) Update(ctx context.Context, username string, upd model.AccountUpdate) (*model.Message, error) {
	params := map[string]string{
		"full_name": upd.FullName,
		"email":     upd.Email,
	}
	if upd.IsActive != nil {
		params["is_active"] = strconv.FormatBool(*upd.IsActive)
	}
	var out model.Message
	if err := s.c.Put(ctx, "/users/"+url.PathEscape(username), nil, &out, Query(params)); err != nil {
		return nil, err
	}
	return &out, nil
}

// Deactivate disables an account.
func (s UserService) Deactivate(ctx context.Context, username string) (*model.Message, error) {
	var out model.Message
	if err := s.c.Delete(ctx, "/users/"+url.PathEscape(username), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

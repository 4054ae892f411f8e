package model

import "strconv"

// Message is the {"message": ...} acknowledgement most mutating endpoints return.
type Message struct {
	Message string `json:"message"`
	Status  string `json:"statut,omitempty"`
}

// ListOptions configures skip/limit pagination on list endpoints.
type ListOptions struct {
	Skip  int
	Limit int
}

// DefaultListOptions returns sensible defaults.
func DefaultListOptions() ListOptions {
	return ListOptions{Skip: 0, Limit: 100}
}

// Clamp enforces limits (max 100, min 1).
func (o *ListOptions) Clamp() {
	if o.Limit <= 0 {
		o.Limit = 100
	}
	if o.Limit > 100 {
		o.Limit = 100
	}
	if o.Skip < 0 {
		o.Skip = 0
	}
}

// Params renders the options as query parameters.
func (o ListOptions) Params() map[string]string {
	o.Clamp()
	return map[string]string{
		"skip":  strconv.Itoa(o.Skip),
		"limit": strconv.Itoa(o.Limit),
	}
}

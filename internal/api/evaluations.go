package api

import (
	"context"
	"net/url"

	"github.com/me/acadeval/pkg/model"
)

// EvaluationService wraps the /evaluations endpoints.
type EvaluationService struct{ c *Client }

// Evaluations returns the evaluation endpoints.
func (c *Client) Evaluations() EvaluationService { return EvaluationService{c} }

// EvaluationFilter narrows List results server-side.
type EvaluationFilter struct {
	Subject string
	Status  model.EvaluationStatus
	model.ListOptions
}

// List returns evaluations matching the filter.
func (s EvaluationService) List(ctx context.Context, f EvaluationFilter) ([]model.Evaluation, error) {
	params := f.ListOptions.Params()
	params["matiere"] = f.Subject
	params["statut"] = string(f.Status)
	var out []model.Evaluation
	if err := s.c.Get(ctx, "/evaluations", &out, Query(params)); err != nil {
		return nil, err
	}
	return out, nil
}

// Available returns the evaluations currently open to students.
func (s EvaluationService) Available(ctx context.Context) ([]model.Evaluation, error) {
	var out []model.Evaluation
	if err := s.c.Get(ctx, "/evaluations/available", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one evaluation.
func (s EvaluationService) Get(ctx context.Context, id string) (*model.Evaluation, error) {
	var out model.Evaluation
	if err := s.c.Get(ctx, "/evaluations/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create defines a new evaluation.
func (s EvaluationService) Create(ctx context.Context, req model.EvaluationCreate) (*model.Evaluation, error) {
	var out model.Evaluation
	if err := s.c.Post(ctx, "/evaluations", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update applies a partial update; fields maps wire names to values.
func (s EvaluationService) Update(ctx context.Context, id string, fields map[string]any) (*model.Evaluation, error) {
	var out model.Evaluation
	if err := s.c.Put(ctx, "/evaluations/"+url.PathEscape(id), fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Open starts accepting submissions.
func (s EvaluationService) Open(ctx context.Context, id string) (*model.Message, error) {
	return s.action(ctx, id, "open", nil)
}

// Close stops accepting submissions.
func (s EvaluationService) Close(ctx context.Context, id string) (*model.Message, error) {
	return s.action(ctx, id, "close", nil)
}

// Publish makes results visible to students.
func (s EvaluationService) Publish(ctx context.Context, id string, opts model.PublishOptions) (*model.Message, error) {
	return s.action(ctx, id, "publish", opts)
}

// Unpublish hides results again.
func (s EvaluationService) Unpublish(ctx context.Context, id string) (*model.Message, error) {
	return s.action(ctx, id, "unpublish", nil)
}

// Delete removes an evaluation.
func (s EvaluationService) Delete(ctx context.Context, id string) (*model.Message, error) {
	var out model.Message
	if err := s.c.Delete(ctx, "/evaluations/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s EvaluationService) action(ctx context.Context, id, verb string, body any) (*model.Message, error) {
	var out model.Message
	if err := s.c.Post(ctx, "/evaluations/"+url.PathEscape(id)+"/"+verb, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

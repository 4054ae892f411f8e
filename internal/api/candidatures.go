package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/me/acadeval/pkg/model"
)

// CandidatureService wraps the /candidatures endpoints.
type CandidatureService struct{ c *Client }

// Candidatures returns the candidature endpoints.
func (c *Client) Candidatures() CandidatureService { return CandidatureService{c} }

// List returns candidatures, optionally filtered by status.
func (s CandidatureService) List(ctx context.Context, status model.ValidationStatus, opts model.ListOptions) ([]model.Candidature, error) {
	params := opts.Params()
	params["statut"] = string(status)
	var out []model.Candidature
	if err := s.c.Get(ctx, "/candidatures", &out, Query(params)); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one candidature.
func (s CandidatureService) Get(ctx context.Context, id string) (*model.Candidature, error) {
	var out model.Candidature
	if err := s.c.Get(ctx, "/candidatures/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create submits a new candidature as one anonymous multipart call.
func (s CandidatureService) Create(ctx context.Context, req model.CandidatureCreate) (*model.Candidature, error) {
	grades := req.Grades
	if grades == nil {
		grades = []model.Grade{}
	}
	gradesJSON, err := json.Marshal(grades)
	if err != nil {
		return nil, fmt.Errorf("marshal grades: %w", err)
	}

	form := NewForm().
		Set("nom", req.LastName).
		Set("prenom", req.FirstName).
		Set("email", req.Email).
		Set("niveau_etude", req.StudyLevel).
		SetOptional("telephone", req.Phone).
		Set("grades_json", string(gradesJSON))
	for _, path := range req.Files {
		form.AttachPath("files", path)
	}

	var out model.Candidature
	if err := s.c.Upload(ctx, "/candidatures", form, &out, Public()); err != nil {
		return nil, err
	}
	return &out, nil
}

// Validate records an administrator's decision.
func (s CandidatureService) Validate(ctx context.Context, id string, req model.CandidatureValidation) (*model.Message, error) {
	var out model.Message
	if err := s.c.Post(ctx, "/candidatures/"+url.PathEscape(id)+"/validate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Verify launches document verification on the server.
func (s CandidatureService) Verify(ctx context.Context, id string) (*model.Message, error) {
	var out model.Message
	if err := s.c.Post(ctx, "/candidatures/"+url.PathEscape(id)+"/verify", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateGrades replaces a candidature's grade list.
func (s CandidatureService) UpdateGrades(ctx context.Context, id string, grades []model.Grade) (*model.Candidature, error) {
	var out model.Candidature
	if err := s.c.Put(ctx, "/candidatures/"+url.PathEscape(id)+"/grades", grades, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a candidature.
func (s CandidatureService) Delete(ctx context.Context, id string) (*model.Message, error) {
	var out model.Message
	if err := s.c.Delete(ctx, "/candidatures/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

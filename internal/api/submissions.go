package api

import (
	"context"
	"net/url"

	"github.com/me/acadeval/pkg/model"
)

// SubmissionService wraps the /submissions endpoints.
type SubmissionService struct{ c *Client }

// Submissions returns the submission endpoints.
func (c *Client) Submissions() SubmissionService { return SubmissionService{c} }

// Create uploads a copy as one multipart call.
func (s SubmissionService) Create(ctx context.Context, req model.SubmissionCreate) (*model.Submission, error) {
	form := NewForm().
		Set("evaluation_id", req.EvaluationID).
		Set("nom", req.LastName).
		Set("prenom", req.FirstName).
		Set("type_soumission", string(req.Type)).
		SetOptional("numero_etudiant", req.StudentNumber).
		SetOptional("reponse_numerique", req.Answer)
	for _, path := range req.Files {
		form.AttachPath("files", path)
	}

	var out model.Submission
	if err := s.c.Upload(ctx, "/submissions", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListByEvaluation returns every copy submitted for an evaluation.
func (s SubmissionService) ListByEvaluation(ctx context.Context, evalID string) ([]model.Submission, error) {
	var out []model.Submission
	if err := s.c.Get(ctx, "/submissions/evaluation/"+url.PathEscape(evalID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Check reports whether the named student already submitted.
func (s SubmissionService) Check(ctx context.Context, evalID, lastName, firstName string) (*model.SubmissionCheck, error) {
	var out model.SubmissionCheck
	q := Query(map[string]string{"nom": lastName, "prenom": firstName})
	if err := s.c.Get(ctx, "/submissions/check/"+url.PathEscape(evalID), &out, q); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get returns one submission.
func (s SubmissionService) Get(ctx context.Context, id, evalID string) (*model.Submission, error) {
	var out model.Submission
	q := Query(map[string]string{"eval_id": evalID})
	if err := s.c.Get(ctx, "/submissions/"+url.PathEscape(id), &out, q); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a submission.
func (s SubmissionService) Delete(ctx context.Context, id, evalID string) (*model.Message, error) {
	var out model.Message
	q := Query(map[string]string{"eval_id": evalID})
	if err := s.c.Delete(ctx, "/submissions/"+url.PathEscape(id), &out, q); err != nil {
		return nil, err
	}
	return &out, nil
}

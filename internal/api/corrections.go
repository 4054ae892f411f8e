package api

import (
	"context"
	"net/url"

	"github.com/me/acadeval/pkg/model"
)

// CorrectionService wraps the /corrections endpoints.
type CorrectionService struct{ c *Client }

// Corrections returns the correction endpoints.
func (c *Client) Corrections() CorrectionService { return CorrectionService{c} }

// Process launches automated correction of an evaluation's copies.
func (s CorrectionService) Process(ctx context.Context, req model.CorrectionRequest) (*model.CorrectionProgress, error) {
	var out model.CorrectionProgress
	if err := s.c.Post(ctx, "/corrections/process", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Results returns every correction result of an evaluation.
func (s CorrectionService) Results(ctx context.Context, evalID string) ([]model.CorrectionResult, error) {
	var out []model.CorrectionResult
	if err := s.c.Get(ctx, "/corrections/evaluation/"+url.PathEscape(evalID)+"/results", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Statistics returns the class statistics of an evaluation.
func (s CorrectionService) Statistics(ctx context.Context, evalID string) (*model.ClassStatistics, error) {
	var out model.ClassStatistics
	if err := s.c.Get(ctx, "/corrections/evaluation/"+url.PathEscape(evalID)+"/statistics", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StudentResult returns the result of one named student.
func (s CorrectionService) StudentResult(ctx context.Context, evalID, lastName, firstName string) (*model.CorrectionResult, error) {
	var out model.CorrectionResult
	q := Query(map[string]string{"nom": lastName, "prenom": firstName})
	if err := s.c.Get(ctx, "/corrections/student/"+url.PathEscape(evalID), &out, q); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveResult stores a manually adjusted result.
func (s CorrectionService) SaveResult(ctx context.Context, evalID string, result model.CorrectionResult) (*model.Message, error) {
	var out model.Message
	if err := s.c.Post(ctx, "/corrections/evaluation/"+url.PathEscape(evalID)+"/result", result, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

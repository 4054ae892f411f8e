package api

import (
	"context"
	"net/url"

	"github.com/me/acadeval/pkg/model"
)

// ReportService wraps the /reports endpoints.
type ReportService struct{ c *Client }

// Reports returns the report endpoints.
func (c *Client) Reports() ReportService { return ReportService{c} }

// ListByEvaluation returns the generated reports of an evaluation.
func (s ReportService) ListByEvaluation(ctx context.Context, evalID string) ([]model.ReportInfo, error) {
	var out []model.ReportInfo
	if err := s.c.Get(ctx, "/reports/evaluation/"+url.PathEscape(evalID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StudentReport downloads the PDF report of one student.
func (s ReportService) StudentReport(ctx context.Context, evalID, studentName string) ([]byte, error) {
	data, _, err := s.c.Download(ctx, "/reports/evaluation/"+url.PathEscape(evalID)+"/student/"+url.PathEscape(studentName))
	return data, err
}

// Generate asks the server to build reports in the given format.
func (s ReportService) Generate(ctx context.Context, evalID string, format model.ReportFormat) (*model.Message, error) {
	if format == "" {
		format = model.ReportPDF
	}
	var out model.Message
	q := Query(map[string]string{"format": string(format)})
	if err := s.c.Post(ctx, "/reports/evaluation/"+url.PathEscape(evalID)+"/generate", nil, &out, q); err != nil {
		return nil, err
	}
	return &out, nil
}

// Export downloads the results of an evaluation in the given format.
func (s ReportService) Export(ctx context.Context, evalID string, format model.ExportFormat) ([]byte, string, error) {
	if format == "" {
		format = model.ExportXLSX
	}
	q := Query(map[string]string{"format": string(format)})
	return s.c.Download(ctx, "/reports/evaluation/"+url.PathEscape(evalID)+"/export", q)
}

// Mine returns the published results of the logged-in student.
func (s ReportService) Mine(ctx context.Context) ([]model.StudentReport, error) {
	var out []model.StudentReport
	if err := s.c.Get(ctx, "/reports/student/my-reports", &out); err != nil {
		return nil, err
	}
	return out, nil
}

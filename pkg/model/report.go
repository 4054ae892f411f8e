package model

// ReportFormat is a format the collaborator can generate reports in.
type ReportFormat string

const (
	ReportPDF  ReportFormat = "pdf"
	ReportXLSX ReportFormat = "xlsx"
	ReportJSON ReportFormat = "json"
)

// ExportFormat is a format results can be exported in.
type ExportFormat string

const (
	ExportXLSX ExportFormat = "xlsx"
	ExportCSV  ExportFormat = "csv"
	ExportJSON ExportFormat = "json"
)

// ReportInfo describes a generated report file.
type ReportInfo struct {
	Filename string `json:"filename"`
	Type     string `json:"type"`
	Size     int64  `json:"size"`
	Created  string `json:"created"`
}

// StudentReport is a published result visible to the student it belongs to.
type StudentReport struct {
	EvaluationID    string  `json:"evaluation_id"`
	EvaluationTitle string  `json:"evaluation_titre"`
	Subject         string  `json:"matiere"`
	Score           float64 `json:"note"`
	MaxScore        float64 `json:"note_max"`
	CorrectedAt     string  `json:"date_correction"`
	HasPDF          bool    `json:"has_pdf"`
}

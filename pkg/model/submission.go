package model

// SubmissionType is how a copy was produced.
type SubmissionType string

const (
	SubmissionScanned SubmissionType = "fichier_scanne"
	SubmissionPhoto   SubmissionType = "photo"
	SubmissionDigital SubmissionType = "numerique"
)

// ParseSubmissionType validates a wire submission type.
func ParseSubmissionType(s string) (SubmissionType, bool) {
	switch t := SubmissionType(s); t {
	case SubmissionScanned, SubmissionPhoto, SubmissionDigital:
		return t, true
	}
	return "", false
}

// SubmittedFile describes one uploaded page of a copy.
type SubmittedFile struct {
	OriginalName string `json:"nom_original"`
	StoredName   string `json:"nom_sauvegarde"`
	Size         int64  `json:"taille"`
	FileType     string `json:"type_fichier"`
	UploadedAt   string `json:"date_upload"`
}

// Submission is a student's answer to an evaluation.
type Submission struct {
	ID            string           `json:"id"`
	EvaluationID  string           `json:"evaluation_id"`
	LastName      string           `json:"etudiant_nom"`
	FirstName     string           `json:"etudiant_prenom"`
	StudentNumber string           `json:"numero_etudiant,omitempty"`
	Type          SubmissionType   `json:"type_soumission"`
	SubmittedAt   string           `json:"date_soumission"`
	Status        SubmissionStatus `json:"statut"`
	Files         []SubmittedFile  `json:"fichiers_soumis"`
	FileCount     int              `json:"nombre_fichiers"`
	TotalSize     int64            `json:"taille_totale"`
	DigitalAnswer bool             `json:"reponse_numerique,omitempty"`
	FinalGrade    *float64         `json:"note_finale,omitempty"`
	Corrected     bool             `json:"corrige"`
	CorrectedAt   string           `json:"date_correction,omitempty"`
}

// SubmissionCreate carries the fields of the multipart submission call.
// Digital submissions need an answer; the other types need at least one file.
type SubmissionCreate struct {
	EvaluationID  string         `validate:"required"`
	LastName      string         `validate:"required"`
	FirstName     string         `validate:"required"`
	StudentNumber string
	Type          SubmissionType `validate:"required,oneof=fichier_scanne photo numerique"`
	Answer        string         `validate:"required_if=Type numerique"`
	Files         []string       `validate:"required_unless=Type numerique"`
}

// SubmissionCheck reports whether a student already submitted a copy.
type SubmissionCheck struct {
	HasSubmitted bool   `json:"has_submitted"`
	SubmissionID string `json:"submission_id,omitempty"`
	SubmittedAt  string `json:"date_soumission,omitempty"`
	CanModify    bool   `json:"can_modify"`
}

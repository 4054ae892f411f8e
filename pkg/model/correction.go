package model

// CorrectionProfile is a named quality/speed preset for automated grading.
type CorrectionProfile string

const (
	ProfileExcellence CorrectionProfile = "excellence"
	ProfileBalanced   CorrectionProfile = "equilibre"
	ProfileFast       CorrectionProfile = "rapide"
)

// ParseCorrectionProfile validates a wire profile name.
func ParseCorrectionProfile(s string) (CorrectionProfile, bool) {
	switch p := CorrectionProfile(s); p {
	case ProfileExcellence, ProfileBalanced, ProfileFast:
		return p, true
	}
	return "", false
}

// CorrectionRequest is the body of POST /corrections/process.
type CorrectionRequest struct {
	EvaluationID string            `json:"evaluation_id"`
	Profile      CorrectionProfile `json:"profile"`
	Copies       []string          `json:"copies_to_correct,omitempty"`
}

// CorrectionProgress reports how far a correction run has got.
type CorrectionProgress struct {
	EvaluationID string  `json:"evaluation_id"`
	TotalCopies  int     `json:"total_copies"`
	Processed    int     `json:"copies_traitees"`
	Succeeded    int     `json:"copies_reussies"`
	Failed       int     `json:"copies_en_erreur"`
	Percent      float64 `json:"pourcentage_progression"`
	Status       string  `json:"statut"`
	ElapsedMs    int64   `json:"temps_ecoule_ms"`
}

// QuestionCorrection is the per-question part of a correction result.
type QuestionCorrection struct {
	QuestionID     string   `json:"question_id"`
	QuestionNumber int      `json:"numero_question"`
	Score          float64  `json:"note_obtenue"`
	MaxScore       float64  `json:"note_max"`
	Percent        float64  `json:"pourcentage"`
	Comment        string   `json:"commentaire_intelligent"`
	Advice         string   `json:"conseil_personnalise"`
	Errors         []string `json:"erreurs_identifiees"`
	Strengths      []string `json:"points_forts"`
	Improvements   []string `json:"points_amelioration"`
}

// CorrectionResult is the externally computed grading of one submission.
type CorrectionResult struct {
	ID                string               `json:"id"`
	EvaluationID      string               `json:"evaluation_id"`
	SubmissionID      string               `json:"submission_id"`
	LastName          string               `json:"etudiant_nom"`
	FirstName         string               `json:"etudiant_prenom"`
	Score             float64              `json:"note_globale"`
	MaxScore          float64              `json:"note_max"`
	Percent           float64              `json:"pourcentage"`
	Rank              *int                 `json:"rang,omitempty"`
	Performance       string               `json:"performance"`
	Questions         []QuestionCorrection `json:"notes_par_question"`
	Criteria          map[string]float64   `json:"notes_par_critere"`
	Comments          []string             `json:"commentaires_generaux"`
	Suggestions       []string             `json:"suggestions_globales"`
	Strengths         []string             `json:"points_forts"`
	Improvements      []string             `json:"points_amelioration"`
	RevisionAdvice    []string             `json:"conseils_revision"`
	CorrectedAt       string               `json:"date_correction"`
	PublicationStatus string               `json:"statut_publication"`
}

// ClassStatistics summarises the results of one evaluation.
type ClassStatistics struct {
	EvaluationID   string         `json:"evaluation_id"`
	CopyCount      int            `json:"nombre_copies"`
	CorrectedCount int            `json:"nombre_corriges"`
	Mean           float64        `json:"moyenne_generale"`
	Median         float64        `json:"mediane"`
	StdDev         float64        `json:"ecart_type"`
	Min            float64        `json:"note_min"`
	Max            float64        `json:"note_max"`
	PassRate       float64        `json:"taux_reussite"`
	Distribution   map[string]int `json:"distribution_notes"`
	ComputedAt     string         `json:"date_calcul"`
}

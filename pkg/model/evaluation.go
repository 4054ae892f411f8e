package model

// Question is one graded item of an evaluation.
type Question struct {
	ID             string             `json:"id" yaml:"id"`
	Number         int                `json:"numero" yaml:"number" validate:"gte=1"`
	Text           string             `json:"texte" yaml:"text" validate:"required"`
	Points         float64            `json:"points" yaml:"points" validate:"gte=0"`
	Type           string             `json:"type_question" yaml:"type"`
	Criteria       map[string]float64 `json:"criteres,omitempty" yaml:"criteria,omitempty"`
	ExpectedAnswer string             `json:"reponse_attendue,omitempty" yaml:"expected_answer,omitempty"`
}

// Evaluation is an exam or assignment definition.
type Evaluation struct {
	ID                string            `json:"id"`
	Title             string            `json:"titre"`
	Subject           string            `json:"matiere"`
	Class             string            `json:"classe"`
	Kind              string            `json:"type_epreuve"`
	DurationMinutes   int               `json:"duree_minutes"`
	ExamDate          string            `json:"date_examen,omitempty"`
	StartTime         string            `json:"heure_debut,omitempty"`
	Teacher           string            `json:"enseignant,omitempty"`
	School            string            `json:"etablissement,omitempty"`
	Instructions      string            `json:"consignes_specifiques,omitempty"`
	Questions         []Question        `json:"questions"`
	TotalPoints       float64           `json:"note_totale"`
	Status            EvaluationStatus  `json:"statut"`
	PublicationStatus PublicationStatus `json:"statut_publication"`
	CreatedAt         string            `json:"date_creation"`
	PublishedAt       string            `json:"date_publication,omitempty"`
	Folder            string            `json:"dossier"`
	CopyCount         int               `json:"nombre_copies"`
	CorrectedCount    int               `json:"nombre_corriges"`
}

// EvaluationCreate is the body of POST /evaluations. The validate tags mirror
// the constraints the collaborator enforces so errors surface before sending.
type EvaluationCreate struct {
	Title           string     `json:"titre" yaml:"title" validate:"required,min=3,max=200"`
	Subject         string     `json:"matiere" yaml:"subject" validate:"required,min=2,max=100"`
	Class           string     `json:"classe" yaml:"class" validate:"required,min=2,max=50"`
	Kind            string     `json:"type_epreuve" yaml:"kind"`
	DurationMinutes int        `json:"duree_minutes" yaml:"duration_minutes" validate:"gte=15,lte=480"`
	ExamDate        string     `json:"date_examen,omitempty" yaml:"exam_date,omitempty"`
	StartTime       string     `json:"heure_debut,omitempty" yaml:"start_time,omitempty"`
	Teacher         string     `json:"enseignant,omitempty" yaml:"teacher,omitempty"`
	Questions       []Question `json:"questions" yaml:"questions" validate:"dive"`
	TotalPoints     float64    `json:"note_totale" yaml:"total_points" validate:"gte=1"`
}

// ApplyDefaults fills the optional fields the collaborator would default.
func (e *EvaluationCreate) ApplyDefaults() {
	if e.Kind == "" {
		e.Kind = "examen"
	}
	if e.DurationMinutes == 0 {
		e.DurationMinutes = 120
	}
	if e.TotalPoints == 0 {
		e.TotalPoints = 20
	}
	for i := range e.Questions {
		if e.Questions[i].Number == 0 {
			e.Questions[i].Number = i + 1
		}
		if e.Questions[i].Type == "" {
			e.Questions[i].Type = "redaction"
		}
	}
}

// PublishOptions is the body of POST /evaluations/{id}/publish.
type PublishOptions struct {
	NotifyStudents bool   `json:"notify_students"`
	Message        string `json:"message,omitempty"`
}

package model

// ValidationStatus is the review state of a candidature.
type ValidationStatus string

const (
	ValidationPending   ValidationStatus = "en_attente"
	ValidationAccepted  ValidationStatus = "validee"
	ValidationRejected  ValidationStatus = "rejetee"
	ValidationVerifying ValidationStatus = "en_cours_verification"
)

// String returns the wire representation of the status.
func (s ValidationStatus) String() string {
	return string(s)
}

// IsDecided returns true once an administrator has accepted or rejected.
func (s ValidationStatus) IsDecided() bool {
	switch s {
	case ValidationAccepted, ValidationRejected:
		return true
	}
	return false
}

// EvaluationStatus is the submission window state of an evaluation.
type EvaluationStatus string

const (
	EvaluationDraft   EvaluationStatus = "brouillon"
	EvaluationOpen    EvaluationStatus = "ouvert"
	EvaluationClosed  EvaluationStatus = "ferme"
	EvaluationExpired EvaluationStatus = "expire"
)

// String returns the wire representation of the status.
func (s EvaluationStatus) String() string {
	return string(s)
}

// AcceptsSubmissions reports whether students may submit copies.
func (s EvaluationStatus) AcceptsSubmissions() bool {
	return s == EvaluationOpen
}

// PublicationStatus is the result publication state of an evaluation.
type PublicationStatus string

const (
	PublicationDraft       PublicationStatus = "brouillon"
	PublicationPublished   PublicationStatus = "publie"
	PublicationUnpublished PublicationStatus = "depublie"
)

// String returns the wire representation of the status.
func (s PublicationStatus) String() string {
	return string(s)
}

// SubmissionStatus is the processing state of a submitted copy.
type SubmissionStatus string

const (
	SubmissionPending    SubmissionStatus = "en_attente"
	SubmissionReceived   SubmissionStatus = "recu"
	SubmissionProcessing SubmissionStatus = "en_traitement"
	SubmissionCorrected  SubmissionStatus = "corrige"
	SubmissionError      SubmissionStatus = "erreur"
)

// String returns the wire representation of the status.
func (s SubmissionStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the submission will not change state again.
func (s SubmissionStatus) IsTerminal() bool {
	switch s {
	case SubmissionCorrected, SubmissionError:
		return true
	}
	return false
}

package wizard

// Step is a position in the application form. Steps are ordered.
type Step int

const (
	StepPersonal Step = iota
	StepGrades
	StepDocuments
	StepReview
)

// Steps lists every step in order.
var Steps = []Step{StepPersonal, StepGrades, StepDocuments, StepReview}

func (s Step) String() string {
	switch s {
	case StepPersonal:
		return "personal"
	case StepGrades:
		return "grades"
	case StepDocuments:
		return "documents"
	case StepReview:
		return "review"
	default:
		return "unknown"
	}
}

// Label is the heading shown for the step.
func (s Step) Label() string {
	switch s {
	case StepPersonal:
		return "Personal information"
	case StepGrades:
		return "Grades"
	case StepDocuments:
		return "Documents"
	case StepReview:
		return "Review"
	default:
		return ""
	}
}

// IsLast reports whether s is the final step.
func (s Step) IsLast() bool {
	return s == StepReview
}

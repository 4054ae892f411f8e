// Package wizard implements the stepped candidature application form.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/me/acadeval/internal/api"
	"github.com/me/acadeval/internal/logging"
	"github.com/me/acadeval/internal/route"
	"github.com/me/acadeval/pkg/model"
)

var (
	ErrStepIncomplete = errors.New("step incomplete")
	ErrSubmitting     = errors.New("submission already in progress")
	ErrInvalidGrade   = errors.New("invalid grade")
	ErrNotAtReview    = errors.New("submit is only available from the review step")
)

// Default notification texts.
const (
	SubmitSuccessMessage = "candidature submitted"
	DefaultSubmitError   = "submission failed"
)

// Score and weight bounds of a grade entry.
const (
	MinScore  = 0
	MaxScore  = 20
	MinWeight = 1
)

// Creator performs the candidature create call. api.CandidatureService implements it.
type Creator interface {
	Create(ctx context.Context, req model.CandidatureCreate) (*model.Candidature, error)
}

// Notifier surfaces outcomes to the user. feedback.Store implements it.
type Notifier interface {
	Success(text string) string
	Error(text string) string
}

// Wizard holds one form session. It is safe for concurrent use.
type Wizard struct {
	creator Creator
	notify  Notifier
	nav     route.Navigator
	logger  *slog.Logger

	mu         sync.Mutex
	step       Step
	draft      Draft
	submitting bool
}

// New creates a wizard at the personal step with one empty grade entry.
func New(creator Creator, notify Notifier, nav route.Navigator, logger *slog.Logger) *Wizard {
	return &Wizard{
		creator: creator,
		notify:  notify,
		nav:     nav,
		logger:  logging.Component(logger, "wizard"),
		draft:   newDraft(),
	}
}

// Current returns the current step.
func (w *Wizard) Current() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Draft returns a copy of the form state.
func (w *Wizard) Draft() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft.clone()
}

// CanProceed reports whether the current step's completeness predicate holds.
func (w *Wizard) CanProceed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.missing()) == 0
}

// Missing names what the current step still needs.
func (w *Wizard) Missing() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.missing()
}

func (w *Wizard) missing() []string {
	switch w.step {
	case StepPersonal:
		err := model.Validate(w.draft.Personal)
		var verr *model.ValidationError
		if !errors.As(err, &verr) {
			return nil
		}
		fields := make([]string, 0, len(verr.Details))
		for _, d := range verr.Details {
			fields = append(fields, d.Field)
		}
		return fields
	case StepGrades:
		if len(w.draft.SubmittableGrades()) == 0 {
			return []string{"grades"}
		}
	}
	return nil
}

// Next advances one step when the current step is complete. At review it
// does nothing.
func (w *Wizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step.IsLast() {
		return nil
	}
	if missing := w.missing(); len(missing) > 0 {
		return fmt.Errorf("%w: %s needs %s", ErrStepIncomplete, w.step, strings.Join(missing, ", "))
	}
	w.step++
	w.logger.Debug("step advanced", "step", w.step)
	return nil
}

// Back retreats one step. It is always allowed.
func (w *Wizard) Back() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step > StepPersonal {
		w.step--
	}
}

// SetPersonal replaces the identity block.
func (w *Wizard) SetPersonal(p Personal) {
	w.mu.Lock()
	w.draft.Personal = p
	w.mu.Unlock()
}

// AddGrade appends an empty entry with weight 1.
func (w *Wizard) AddGrade() {
	w.mu.Lock()
	w.draft.Grades = append(slices.Clone(w.draft.Grades), newGrade())
	w.mu.Unlock()
}

// RemoveGrade removes entry i. The list never becomes empty: removing the
// only entry, or an index out of range, does nothing.
func (w *Wizard) RemoveGrade(i int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.draft.Grades) <= 1 || i < 0 || i >= len(w.draft.Grades) {
		return
	}
	w.draft.Grades = slices.Delete(slices.Clone(w.draft.Grades), i, i+1)
}

// UpdateGrade sets one field of entry i. Fields are subject, score, weight,
// period and year (or their wire names matiere, note, coefficient, periode
// and annee).
func (w *Wizard) UpdateGrade(i int, field, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if i < 0 || i >= len(w.draft.Grades) {
		return fmt.Errorf("%w: no entry %d", ErrInvalidGrade, i)
	}
	g := w.draft.Grades[i]
	value = strings.TrimSpace(value)

	switch strings.ToLower(field) {
	case "subject", "matiere":
		g.Subject = value
	case "score", "note":
		n, err := parseNumber(value)
		if err != nil || n < MinScore || n > MaxScore {
			return fmt.Errorf("%w: score %q must be between %d and %d", ErrInvalidGrade, value, MinScore, MaxScore)
		}
		g.Score = n
	case "weight", "coefficient":
		n, err := parseNumber(value)
		if err != nil || n < MinWeight {
			return fmt.Errorf("%w: weight %q must be at least %d", ErrInvalidGrade, value, MinWeight)
		}
		g.Weight = n
	case "period", "periode":
		g.Period = value
	case "year", "annee":
		g.Year = value
	default:
		return fmt.Errorf("%w: unknown field %q", ErrInvalidGrade, field)
	}

	grades := slices.Clone(w.draft.Grades)
	grades[i] = g
	w.draft.Grades = grades
	return nil
}

// parseNumber accepts both "12.5" and "12,5".
func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
}

// Attach adds a file to the draft. Files form a set.
func (w *Wizard) Attach(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if path == "" || slices.Contains(w.draft.Files, path) {
		return
	}
	w.draft.Files = append(slices.Clone(w.draft.Files), path)
}

// Detach removes a file from the draft.
func (w *Wizard) Detach(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.Files = slices.DeleteFunc(slices.Clone(w.draft.Files), func(f string) bool { return f == path })
}

// Files returns the attached files, sorted.
func (w *Wizard) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	files := slices.Clone(w.draft.Files)
	slices.Sort(files)
	return files
}

// Grades returns a copy of the grade entries.
func (w *Wizard) Grades() []model.Grade {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.draft.Grades)
}

// Average is the weighted mean of the current grade entries.
func (w *Wizard) Average() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Average(w.draft.Grades)
}

// Reset discards the draft and returns to the personal step.
func (w *Wizard) Reset() {
	w.mu.Lock()
	w.step = StepPersonal
	w.draft = newDraft()
	w.mu.Unlock()
}

// Load replaces the draft with app and returns to the personal step. Entries
// outside the score and weight bounds are rejected.
func (w *Wizard) Load(app Application) error {
	grades := slices.Clone(app.Grades)
	for i := range grades {
		if grades[i].Weight == 0 {
			grades[i].Weight = 1
		}
		g := grades[i]
		if g.Score < MinScore || g.Score > MaxScore || g.Weight < MinWeight {
			return fmt.Errorf("%w: entry %d (%s): score %.2f weight %.2f", ErrInvalidGrade, i, g.Subject, g.Score, g.Weight)
		}
	}
	if len(grades) == 0 {
		grades = []model.Grade{newGrade()}
	}

	d := Draft{Personal: app.Personal, Grades: grades}
	for _, f := range app.Files {
		if f != "" && !slices.Contains(d.Files, f) {
			d.Files = append(d.Files, f)
		}
	}

	w.mu.Lock()
	w.step = StepPersonal
	w.draft = d
	w.mu.Unlock()
	return nil
}

// Submit sends the draft in one create call. On success the draft is
// discarded and the wizard navigates to the login page. On failure the
// error is notified and the draft is kept for a retry.
func (w *Wizard) Submit(ctx context.Context) (*model.Candidature, error) {
	w.mu.Lock()
	if w.step != StepReview {
		w.mu.Unlock()
		return nil, ErrNotAtReview
	}
	if w.submitting {
		w.mu.Unlock()
		return nil, ErrSubmitting
	}
	w.submitting = true
	d := w.draft.clone()
	w.mu.Unlock()

	files := slices.Clone(d.Files)
	slices.Sort(files)
	req := model.CandidatureCreate{
		LastName:   d.Personal.LastName,
		FirstName:  d.Personal.FirstName,
		Email:      d.Personal.Email,
		StudyLevel: d.Personal.StudyLevel,
		Phone:      d.Personal.Phone,
		Grades:     d.SubmittableGrades(),
		Files:      files,
	}
	w.logger.Info("submitting candidature", "grades", len(req.Grades), "files", len(req.Files))

	cand, err := w.creator.Create(ctx, req)

	w.mu.Lock()
	w.submitting = false
	if err == nil {
		w.step = StepPersonal
		w.draft = newDraft()
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.Warn("candidature rejected", "error", err)
		w.notify.Error(api.DetailOr(err, DefaultSubmitError))
		return nil, err
	}
	w.notify.Success(SubmitSuccessMessage)
	w.nav.Navigate(route.LoginPath)
	return cand, nil
}

// Submitting reports whether a submission is in flight.
func (w *Wizard) Submitting() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitting
}

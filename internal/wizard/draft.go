package wizard

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/me/acadeval/pkg/model"
	"gopkg.in/yaml.v3"
)

// Personal is the identity block of the form. Phone is optional.
type Personal struct {
	LastName   string `yaml:"last_name" validate:"required"`
	FirstName  string `yaml:"first_name" validate:"required"`
	Email      string `yaml:"email" validate:"required"`
	Phone      string `yaml:"phone,omitempty"`
	StudyLevel string `yaml:"study_level" validate:"required"`
}

// Draft is the state of one form session.
type Draft struct {
	Personal Personal
	Grades   []model.Grade
	Files    []string
}

func newGrade() model.Grade {
	return model.Grade{Weight: 1}
}

func newDraft() Draft {
	return Draft{Grades: []model.Grade{newGrade()}}
}

func (d Draft) clone() Draft {
	c := d
	c.Grades = slices.Clone(d.Grades)
	c.Files = slices.Clone(d.Files)
	return c
}

// SubmittableGrades returns the entries that carry a subject and a score.
func (d Draft) SubmittableGrades() []model.Grade {
	var out []model.Grade
	for _, g := range d.Grades {
		if g.Filled() {
			out = append(out, g)
		}
	}
	return out
}

// Average is the weighted mean of the grades that count. Zero when none do.
func Average(grades []model.Grade) float64 {
	var total, weights float64
	for _, g := range grades {
		if !g.Counts() {
			continue
		}
		total += g.Score * g.Weight
		weights += g.Weight
	}
	if weights == 0 {
		return 0
	}
	return total / weights
}

// FormatAverage renders an average with two decimals.
func FormatAverage(avg float64) string {
	return fmt.Sprintf("%.2f", avg)
}

// Application is the YAML form of a complete draft, used by `apply --from`.
type Application struct {
	Personal `yaml:",inline"`
	Grades   []model.Grade `yaml:"grades"`
	Files    []string      `yaml:"files,omitempty"`
}

// LoadApplication reads an application file. Relative file paths are
// resolved against the file's directory.
func LoadApplication(path string) (*Application, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read application: %w", err)
	}
	var app Application
	if err := yaml.Unmarshal(data, &app); err != nil {
		return nil, fmt.Errorf("parse application %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for i, f := range app.Files {
		if !filepath.IsAbs(f) {
			app.Files[i] = filepath.Join(dir, f)
		}
	}
	return &app, nil
}

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/me/acadeval/internal/route"
	"github.com/me/acadeval/internal/wizard"
	"github.com/me/acadeval/pkg/model"
	"github.com/spf13/cobra"
)

func newApplyCmd(a *app) *cobra.Command {
	var (
		from string
		yes  bool
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Submit a candidature",
		Long: "Fill in and submit a candidature. Without --from the form is\n" +
			"interactive: personal information, grades, documents, then review.",
		RunE: func(cmd *cobra.Command, args []string) error {
			wz := wizard.New(a.client.Candidatures(), a.notes, a.history, a.logger)
			p := newPrompter(cmd)
			out := cmd.OutOrStdout()

			if from != "" {
				form, err := wizard.LoadApplication(from)
				if err != nil {
					return err
				}
				if err := wz.Load(*form); err != nil {
					return err
				}
				for !wz.Current().IsLast() {
					if err := wz.Next(); err != nil {
						return err
					}
				}
			} else if err := fillInteractively(wz, p, cmd.ErrOrStderr()); err != nil {
				return err
			}

			printReview(out, wz.Draft())
			if !yes && !p.confirm("Submit this candidature?") {
				wz.Reset()
				return errors.New("candidature not submitted")
			}

			cand, err := wz.Submit(cmd.Context())
			if err != nil {
				return fmt.Errorf("candidature not submitted: %w", err)
			}
			fmt.Fprintf(out, "Candidature %s received (status %s)\n", cand.ID, cand.Status)
			fmt.Fprintf(out, "Next: %s\n", a.history.Current())
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Read the candidature from a YAML file")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Submit without confirmation")
	return at(route.CandidaturePath, cmd)
}

// fillInteractively walks the wizard up to the review step.
func fillInteractively(wz *wizard.Wizard, p *prompter, msg io.Writer) error {
	for !wz.Current().IsLast() {
		step := wz.Current()
		fmt.Fprintf(msg, "\n== %s ==\n", step.Label())

		switch step {
		case wizard.StepPersonal:
			cur := wz.Draft().Personal
			levels := make([]string, len(model.StudyLevels))
			for i, l := range model.StudyLevels {
				levels[i] = string(l)
			}
			wz.SetPersonal(wizard.Personal{
				LastName:   askKeep(p, "Last name", cur.LastName),
				FirstName:  askKeep(p, "First name", cur.FirstName),
				Email:      askKeep(p, "Email", cur.Email),
				Phone:      askKeep(p, "Phone (optional)", cur.Phone),
				StudyLevel: askKeep(p, "Study level ("+strings.Join(levels, ", ")+")", cur.StudyLevel),
			})
		case wizard.StepGrades:
			if err := askGrades(wz, p, msg); err != nil {
				return err
			}
		case wizard.StepDocuments:
			for {
				path := p.ask("File to attach (empty to continue)")
				if path == "" {
					break
				}
				if _, err := os.Stat(path); err != nil {
					fmt.Fprintf(msg, "  cannot attach %s: %v\n", path, err)
					continue
				}
				wz.Attach(path)
			}
		}

		if err := wz.Next(); err != nil {
			if errors.Is(err, wizard.ErrStepIncomplete) {
				fmt.Fprintf(msg, "  %v\n", err)
				if !p.more() {
					return err
				}
				continue
			}
			return err
		}
	}
	return nil
}

func askKeep(p *prompter, label, cur string) string {
	if cur != "" {
		return p.askDefault(label, cur)
	}
	return p.ask(label)
}

func askGrades(wz *wizard.Wizard, p *prompter, msg io.Writer) error {
	i := len(wz.Grades()) - 1
	if g := wz.Grades()[i]; g.Subject != "" {
		wz.AddGrade()
		i++
	}
	for {
		subject := p.ask(fmt.Sprintf("Grade %d subject (empty to continue)", i+1))
		if subject == "" {
			break
		}
		wz.UpdateGrade(i, "subject", subject)
		for _, f := range []struct{ field, label, def string }{
			{"score", "Score (0-20)", ""},
			{"weight", "Weight", "1"},
			{"period", "Period", ""},
			{"year", "Year", ""},
		} {
			for {
				var v string
				if f.def != "" {
					v = p.askDefault(f.label, f.def)
				} else {
					v = p.ask(f.label)
				}
				if v == "" && (f.field == "period" || f.field == "year") {
					break
				}
				err := wz.UpdateGrade(i, f.field, v)
				if err == nil {
					break
				}
				fmt.Fprintf(msg, "  %v\n", err)
				if !p.more() {
					return err
				}
			}
		}
		wz.AddGrade()
		i++
	}
	// Drop the trailing blank entry.
	if len(wz.Grades()) > 1 && wz.Grades()[i].Subject == "" {
		wz.RemoveGrade(i)
	}
	fmt.Fprintf(msg, "  average: %s\n", wizard.FormatAverage(wz.Average()))
	return nil
}

func printReview(w io.Writer, d wizard.Draft) {
	fmt.Fprintf(w, "Candidate:    %s %s <%s>\n", d.Personal.FirstName, d.Personal.LastName, d.Personal.Email)
	if d.Personal.Phone != "" {
		fmt.Fprintf(w, "Phone:        %s\n", d.Personal.Phone)
	}
	fmt.Fprintf(w, "Study level:  %s\n", d.Personal.StudyLevel)

	grades := d.SubmittableGrades()
	fmt.Fprintf(w, "Grades:       %d\n", len(grades))
	for _, g := range grades {
		fmt.Fprintf(w, "  %-20s %5.2f x%-4g %s %s\n", g.Subject, g.Score, g.Weight, g.Period, g.Year)
	}
	fmt.Fprintf(w, "Average:      %s\n", wizard.FormatAverage(wizard.Average(d.Grades)))
	fmt.Fprintf(w, "Documents:    %d\n", len(d.Files))
	for _, f := range d.Files {
		fmt.Fprintf(w, "  %s\n", f)
	}
}

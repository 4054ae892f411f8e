package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/me/acadeval/internal/route"
	"github.com/me/acadeval/pkg/model"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const candidaturesRoute = route.AdminPath + "/candidatures"

func newCandidaturesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "candidatures",
		Aliases: []string{"cand"},
		Short:   "Review candidatures (admin)",
	}
	cmd.AddCommand(
		at(candidaturesRoute, newCandidaturesListCmd(a)),
		at(candidaturesRoute, newCandidaturesShowCmd(a)),
		at(candidaturesRoute, newCandidatureDecisionCmd(a, "validate", model.ValidationAccepted)),
		at(candidaturesRoute, newCandidatureDecisionCmd(a, "reject", model.ValidationRejected)),
		at(candidaturesRoute, newCandidaturesVerifyCmd(a)),
		at(candidaturesRoute, newCandidaturesGradesCmd(a)),
		at(candidaturesRoute, newCandidaturesDeleteCmd(a)),
	)
	return cmd
}

func newCandidaturesListCmd(a *app) *cobra.Command {
	var (
		f    listFilter
		opts = model.DefaultListOptions()
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List candidatures",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.client.Candidatures().List(cmd.Context(), "", opts)
			if err != nil {
				return fmt.Errorf("list candidatures: %w", err)
			}
			list = filterSlice(list, func(c model.Candidature) bool {
				pi := c.PersonalInfo
				return f.match(string(c.Status), "", pi.LastName, pi.FirstName, pi.Email, c.ID)
			})

			w := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(w, "No candidatures found.")
				return nil
			}
			fmt.Fprintf(w, "%-24s  %-28s  %-9s  %-22s  %7s  %s\n", "ID", "NAME", "LEVEL", "STATUS", "AVERAGE", "SUBMITTED")
			fmt.Fprintf(w, "%-24s  %-28s  %-9s  %-22s  %7s  %s\n", "--", "----", "-----", "------", "-------", "---------")
			for _, c := range list {
				avg := "-"
				if c.Average != nil {
					avg = fmt.Sprintf("%.2f", *c.Average)
				}
				name := c.PersonalInfo.FirstName + " " + c.PersonalInfo.LastName
				fmt.Fprintf(w, "%-24s  %-28s  %-9s  %-22s  %7s  %s\n",
					c.ID, truncate(name, 28), c.PersonalInfo.StudyLevel, c.Status, avg, when(c.SubmittedAt))
			}
			return nil
		},
	}
	f.register(cmd, false)
	cmd.Flags().IntVar(&opts.Skip, "skip", opts.Skip, "Entries to skip")
	cmd.Flags().IntVar(&opts.Limit, "limit", opts.Limit, "Maximum entries (max 100)")
	return cmd
}

func newCandidaturesShowCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one candidature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client.Candidatures().Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get candidature: %w", err)
			}
			w := cmd.OutOrStdout()
			if asJSON {
				return printJSON(w, c)
			}

			pi := c.PersonalInfo
			fmt.Fprintf(w, "Candidature: %s\n", c.ID)
			fmt.Fprintf(w, "  Name:      %s %s\n", pi.FirstName, pi.LastName)
			fmt.Fprintf(w, "  Email:     %s\n", pi.Email)
			fmt.Fprintf(w, "  Phone:     %s\n", orDash(pi.Phone))
			fmt.Fprintf(w, "  Level:     %s\n", pi.StudyLevel)
			fmt.Fprintf(w, "  Status:    %s\n", c.Status)
			fmt.Fprintf(w, "  Submitted: %s\n", when(c.SubmittedAt))
			fmt.Fprintf(w, "  Complete:  %.0f%%\n", c.CompletionPercentage)
			if c.Average != nil {
				fmt.Fprintf(w, "  Average:   %.2f\n", *c.Average)
			}
			if len(c.Grades) > 0 {
				fmt.Fprintln(w, "  Grades:")
				for _, g := range c.Grades {
					fmt.Fprintf(w, "    - %-18s %5.2f x%g  %s %s\n", g.Subject, g.Score, g.Weight, g.Period, g.Year)
				}
			}
			if len(c.Documents) > 0 {
				fmt.Fprintln(w, "  Documents:")
				for _, d := range c.Documents {
					fmt.Fprintf(w, "    - %s (%s)\n", d.OriginalFilename, size(d.Size))
				}
			}
			for _, cm := range c.AdminComments {
				fmt.Fprintf(w, "  Comment by %s, %s: %s\n", cm.Author, when(cm.Date), cm.Comment)
			}
			if c.Status.IsDecided() {
				fmt.Fprintf(w, "  Decided:   %s by %s\n", when(c.ValidatedAt), orDash(c.ValidatedBy))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw record")
	return cmd
}

func newCandidatureDecisionCmd(a *app, verb string, decision model.ValidationStatus) *cobra.Command {
	var (
		comment string
		notify  bool
	)
	cmd := &cobra.Command{
		Use:   verb + " <id>",
		Short: fmt.Sprintf("Mark a candidature as %s", decision),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := a.client.Candidatures().Validate(cmd.Context(), args[0], model.CandidatureValidation{
				Decision:        decision,
				Comment:         comment,
				NotifyCandidate: notify,
			})
			if err != nil {
				return fmt.Errorf("%s candidature: %w", verb, err)
			}
			a.ack(msg, "candidature "+string(decision))
			return nil
		},
	}
	cmd.Flags().StringVarP(&comment, "comment", "m", "", "Comment recorded with the decision")
	cmd.Flags().BoolVar(&notify, "notify", true, "Email the candidate")
	return cmd
}

func newCandidaturesVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <id>",
		Short: "Run document verification on a candidature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := a.client.Candidatures().Verify(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("verify candidature: %w", err)
			}
			a.ack(msg, "verification started")
			return nil
		},
	}
}

func newCandidaturesGradesCmd(a *app) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "grades <id> --from grades.yml",
		Short: "Replace the grades of a candidature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if from == "" {
				return errors.New("--from is required")
			}
			data, err := os.ReadFile(from)
			if err != nil {
				return fmt.Errorf("read grades: %w", err)
			}
			var grades []model.Grade
			if err := yaml.Unmarshal(data, &grades); err != nil {
				return fmt.Errorf("parse grades %s: %w", from, err)
			}
			c, err := a.client.Candidatures().UpdateGrades(cmd.Context(), args[0], grades)
			if err != nil {
				return fmt.Errorf("update grades: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Candidature %s now has %d grades\n", c.ID, len(c.Grades))
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "YAML list of grades (subject, score, weight, period, year)")
	return cmd
}

func newCandidaturesDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a candidature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !newPrompter(cmd).confirm("Delete candidature "+args[0]+"?") {
				return errors.New("aborted")
			}
			msg, err := a.client.Candidatures().Delete(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("delete candidature: %w", err)
			}
			a.ack(msg, "candidature deleted")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

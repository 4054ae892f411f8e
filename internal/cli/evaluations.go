package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/me/acadeval/internal/api"
	"github.com/me/acadeval/internal/route"
	"github.com/me/acadeval/pkg/model"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	evaluationsRoute   = route.ProfessorPath + "/evaluations"
	newEvaluationRoute = route.ProfessorPath + "/evaluations/new"
	examsRoute         = route.StudentPath + "/exams"
)

func newEvaluationsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "evaluations",
		Aliases: []string{"eval"},
		Short:   "Manage evaluations",
	}
	cmd.AddCommand(
		at(evaluationsRoute, newEvaluationsListCmd(a)),
		at(examsRoute, newEvaluationsAvailableCmd(a)),
		at(evaluationsRoute, newEvaluationsShowCmd(a)),
		at(newEvaluationRoute, newEvaluationsCreateCmd(a)),
		at(evaluationsRoute, newEvaluationActionCmd(a, "open", "Open an evaluation for submissions",
			api.EvaluationService.Open)),
		at(evaluationsRoute, newEvaluationActionCmd(a, "close", "Stop accepting submissions",
			api.EvaluationService.Close)),
		at(evaluationsRoute, newEvaluationsPublishCmd(a)),
		at(evaluationsRoute, newEvaluationActionCmd(a, "unpublish", "Withdraw published results",
			api.EvaluationService.Unpublish)),
		at(evaluationsRoute, newEvaluationActionCmd(a, "delete", "Delete an evaluation",
			api.EvaluationService.Delete)),
	)
	return cmd
}

func printEvaluations(w io.Writer, list []model.Evaluation) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No evaluations found.")
		return
	}
	fmt.Fprintf(w, "%-24s  %-30s  %-16s  %-10s  %-10s  %6s  %s\n", "ID", "TITLE", "SUBJECT", "CLASS", "STATUS", "COPIES", "DATE")
	fmt.Fprintf(w, "%-24s  %-30s  %-16s  %-10s  %-10s  %6s  %s\n", "--", "-----", "-------", "-----", "------", "------", "----")
	for _, e := range list {
		fmt.Fprintf(w, "%-24s  %-30s  %-16s  %-10s  %-10s  %6d  %s\n",
			e.ID, truncate(e.Title, 30), truncate(e.Subject, 16), truncate(e.Class, 10), e.Status, e.CopyCount, orDash(e.ExamDate))
	}
}

func newEvaluationsListCmd(a *app) *cobra.Command {
	var (
		f    listFilter
		opts = model.DefaultListOptions()
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List evaluations",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.client.Evaluations().List(cmd.Context(), api.EvaluationFilter{ListOptions: opts})
			if err != nil {
				return fmt.Errorf("list evaluations: %w", err)
			}
			printEvaluations(cmd.OutOrStdout(), filterSlice(list, func(e model.Evaluation) bool {
				return f.match(string(e.Status), e.Subject, e.Title, e.Class, e.Teacher, e.ID)
			}))
			return nil
		},
	}
	f.register(cmd, true)
	cmd.Flags().IntVar(&opts.Skip, "skip", opts.Skip, "Entries to skip")
	cmd.Flags().IntVar(&opts.Limit, "limit", opts.Limit, "Maximum entries (max 100)")
	return cmd
}

func newEvaluationsAvailableCmd(a *app) *cobra.Command {
	var f listFilter
	cmd := &cobra.Command{
		Use:   "available",
		Short: "List the evaluations open for submission",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.client.Evaluations().Available(cmd.Context())
			if err != nil {
				return fmt.Errorf("list available evaluations: %w", err)
			}
			printEvaluations(cmd.OutOrStdout(), filterSlice(list, func(e model.Evaluation) bool {
				return f.match(string(e.Status), e.Subject, e.Title, e.Class)
			}))
			return nil
		},
	}
	f.register(cmd, true)
	return cmd
}

func newEvaluationsShowCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one evaluation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.client.Evaluations().Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get evaluation: %w", err)
			}
			w := cmd.OutOrStdout()
			if asJSON {
				return printJSON(w, e)
			}
			fmt.Fprintf(w, "Evaluation: %s\n", e.ID)
			fmt.Fprintf(w, "  Title:     %s\n", e.Title)
			fmt.Fprintf(w, "  Subject:   %s (%s)\n", e.Subject, e.Class)
			fmt.Fprintf(w, "  Kind:      %s, %d min\n", e.Kind, e.DurationMinutes)
			fmt.Fprintf(w, "  Date:      %s %s\n", orDash(e.ExamDate), e.StartTime)
			fmt.Fprintf(w, "  Status:    %s (results %s)\n", e.Status, orDash(string(e.PublicationStatus)))
			fmt.Fprintf(w, "  Copies:    %d submitted, %d corrected\n", e.CopyCount, e.CorrectedCount)
			fmt.Fprintf(w, "  Total:     %g points\n", e.TotalPoints)
			if len(e.Questions) > 0 {
				fmt.Fprintln(w, "  Questions:")
				for _, q := range e.Questions {
					fmt.Fprintf(w, "    %d. %s (%g pts)\n", q.Number, truncate(q.Text, 60), q.Points)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw record")
	return cmd
}

func newEvaluationsCreateCmd(a *app) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "create --from evaluation.yml",
		Short: "Create an evaluation from a YAML definition",
		RunE: func(cmd *cobra.Command, args []string) error {
			if from == "" {
				return errors.New("--from is required")
			}
			data, err := os.ReadFile(from)
			if err != nil {
				return fmt.Errorf("read evaluation: %w", err)
			}
			var req model.EvaluationCreate
			if err := yaml.Unmarshal(data, &req); err != nil {
				return fmt.Errorf("parse evaluation %s: %w", from, err)
			}
			req.ApplyDefaults()
			if err := model.Validate(req); err != nil {
				return err
			}

			e, err := a.client.Evaluations().Create(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("create evaluation: %w", err)
			}
			a.notes.Success("evaluation created")
			fmt.Fprintf(cmd.OutOrStdout(), "Evaluation %s created (%s)\n", e.ID, e.Status)
			return nil
		},
	}
	cmd.Flags().StringVarP(&from, "from", "f", "", "YAML evaluation definition")
	return cmd
}

// newEvaluationActionCmd builds a command that runs one state change on an evaluation.
func newEvaluationActionCmd(a *app, verb, short string, do func(api.EvaluationService, context.Context, string) (*model.Message, error)) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := do(a.client.Evaluations(), cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("%s evaluation: %w", verb, err)
			}
			a.ack(msg, "evaluation "+args[0]+": "+verb+" done")
			return nil
		},
	}
}

func newEvaluationsPublishCmd(a *app) *cobra.Command {
	var opts model.PublishOptions
	cmd := &cobra.Command{
		Use:   "publish <id>",
		Short: "Publish the results of an evaluation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := a.client.Evaluations().Publish(cmd.Context(), args[0], opts)
			if err != nil {
				return fmt.Errorf("publish evaluation: %w", err)
			}
			a.ack(msg, "results published")
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.NotifyStudents, "notify", true, "Notify students")
	cmd.Flags().StringVarP(&opts.Message, "message", "m", "", "Message sent with the notification")
	return cmd
}

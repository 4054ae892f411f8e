package cli

import (
	"fmt"
	"os"

	"github.com/me/acadeval/internal/route"
	"github.com/me/acadeval/pkg/model"
	"github.com/spf13/cobra"
)

const (
	submitRoute        = route.StudentPath + "/submit"
	mySubmissionsRoute = route.StudentPath + "/submissions"
	copiesRoute        = route.ProfessorPath + "/copies"
)

func newSubmitCmd(a *app) *cobra.Command {
	var (
		req        model.SubmissionCreate
		kind       string
		answerFile string
	)

	cmd := &cobra.Command{
		Use:   "submit --evaluation <id> [files...]",
		Short: "Submit a copy for an evaluation",
		Long: "Upload the pages of a copy (--type fichier_scanne or photo), or a typed\n" +
			"answer with --type numerique and --answer or --answer-file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, ok := model.ParseSubmissionType(kind)
			if !ok {
				return fmt.Errorf("unknown submission type %q (want fichier_scanne, photo or numerique)", kind)
			}
			req.Type = t
			if len(args) > 0 {
				req.Files = args
			}
			if answerFile != "" {
				data, err := os.ReadFile(answerFile)
				if err != nil {
					return fmt.Errorf("read answer: %w", err)
				}
				req.Answer = string(data)
			}

			// Students submit under their own identity unless told otherwise.
			if u := a.session.Snapshot().Identity; u != nil {
				if req.LastName == "" {
					req.LastName = u.LastName
				}
				if req.FirstName == "" {
					req.FirstName = u.FirstName
				}
				if req.StudentNumber == "" {
					req.StudentNumber = u.StudentNumber
				}
			}
			for _, f := range req.Files {
				if _, err := os.Stat(f); err != nil {
					return fmt.Errorf("cannot attach %s: %w", f, err)
				}
			}
			if err := model.Validate(req); err != nil {
				return err
			}

			sub, err := a.client.Submissions().Create(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("submit copy: %w", err)
			}
			a.notes.Success("copy submitted")
			fmt.Fprintf(cmd.OutOrStdout(), "Submission %s: %d file(s), %s, status %s\n",
				sub.ID, sub.FileCount, size(sub.TotalSize), sub.Status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.EvaluationID, "evaluation", "e", "", "Evaluation ID")
	cmd.Flags().StringVarP(&kind, "type", "t", string(model.SubmissionScanned), "Submission type (fichier_scanne, photo, numerique)")
	cmd.Flags().StringVar(&req.Answer, "answer", "", "Typed answer for numerique submissions")
	cmd.Flags().StringVar(&answerFile, "answer-file", "", "Read the typed answer from a file")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "Student last name (default: from the session)")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "Student first name (default: from the session)")
	cmd.Flags().StringVar(&req.StudentNumber, "number", "", "Student number (default: from the session)")
	return at(submitRoute, cmd)
}

func newSubmissionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "submissions",
		Aliases: []string{"subs"},
		Short:   "Inspect submitted copies",
	}
	cmd.AddCommand(
		at(copiesRoute, newSubmissionsListCmd(a)),
		at(copiesRoute, newSubmissionsShowCmd(a)),
		at(mySubmissionsRoute, newSubmissionsCheckCmd(a)),
		at(copiesRoute, newSubmissionsDeleteCmd(a)),
	)
	return cmd
}

func newSubmissionsListCmd(a *app) *cobra.Command {
	var f listFilter
	cmd := &cobra.Command{
		Use:   "list <evaluation-id>",
		Short: "List the copies submitted for an evaluation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.client.Submissions().ListByEvaluation(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("list submissions: %w", err)
			}
			list = filterSlice(list, func(s model.Submission) bool {
				return f.match(string(s.Status), "", s.LastName, s.FirstName, s.StudentNumber, s.ID)
			})

			w := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(w, "No submissions found.")
				return nil
			}
			fmt.Fprintf(w, "%-24s  %-28s  %-14s  %-13s  %5s  %8s  %5s  %s\n", "ID", "STUDENT", "TYPE", "STATUS", "FILES", "SIZE", "GRADE", "SUBMITTED")
			fmt.Fprintf(w, "%-24s  %-28s  %-14s  %-13s  %5s  %8s  %5s  %s\n", "--", "-------", "----", "------", "-----", "----", "-----", "---------")
			for _, s := range list {
				grade := "-"
				if s.FinalGrade != nil {
					grade = fmt.Sprintf("%.2f", *s.FinalGrade)
				}
				fmt.Fprintf(w, "%-24s  %-28s  %-14s  %-13s  %5d  %8s  %5s  %s\n",
					s.ID, truncate(s.FirstName+" "+s.LastName, 28), s.Type, s.Status, s.FileCount, size(s.TotalSize), grade, when(s.SubmittedAt))
			}
			return nil
		},
	}
	f.register(cmd, false)
	return cmd
}

func newSubmissionsShowCmd(a *app) *cobra.Command {
	var evalID string
	cmd := &cobra.Command{
		Use:   "show <id> --evaluation <id>",
		Short: "Show one submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.client.Submissions().Get(cmd.Context(), args[0], evalID)
			if err != nil {
				return fmt.Errorf("get submission: %w", err)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Submission: %s\n", s.ID)
			fmt.Fprintf(w, "  Student:   %s %s (%s)\n", s.FirstName, s.LastName, orDash(s.StudentNumber))
			fmt.Fprintf(w, "  Type:      %s\n", s.Type)
			fmt.Fprintf(w, "  Status:    %s\n", s.Status)
			fmt.Fprintf(w, "  Submitted: %s\n", when(s.SubmittedAt))
			for _, f := range s.Files {
				fmt.Fprintf(w, "    - %s (%s)\n", f.OriginalName, size(f.Size))
			}
			if s.Status.IsTerminal() && s.FinalGrade != nil {
				fmt.Fprintf(w, "  Grade:     %.2f (%s)\n", *s.FinalGrade, when(s.CorrectedAt))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&evalID, "evaluation", "e", "", "Evaluation ID")
	cmd.MarkFlagRequired("evaluation")
	return cmd
}

func newSubmissionsCheckCmd(a *app) *cobra.Command {
	var lastName, firstName string
	cmd := &cobra.Command{
		Use:   "check <evaluation-id>",
		Short: "Check whether a copy was already submitted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if u := a.session.Snapshot().Identity; u != nil {
				if lastName == "" {
					lastName = u.LastName
				}
				if firstName == "" {
					firstName = u.FirstName
				}
			}
			chk, err := a.client.Submissions().Check(cmd.Context(), args[0], lastName, firstName)
			if err != nil {
				return fmt.Errorf("check submission: %w", err)
			}
			w := cmd.OutOrStdout()
			if !chk.HasSubmitted {
				fmt.Fprintln(w, "No copy submitted yet.")
				return nil
			}
			fmt.Fprintf(w, "Submitted %s as %s", when(chk.SubmittedAt), chk.SubmissionID)
			if chk.CanModify {
				fmt.Fprint(w, " (can still be replaced)")
			}
			fmt.Fprintln(w)
			return nil
		},
	}
	cmd.Flags().StringVar(&lastName, "last-name", "", "Student last name (default: from the session)")
	cmd.Flags().StringVar(&firstName, "first-name", "", "Student first name (default: from the session)")
	return cmd
}

func newSubmissionsDeleteCmd(a *app) *cobra.Command {
	var (
		evalID string
		yes    bool
	)
	cmd := &cobra.Command{
		Use:   "delete <id> --evaluation <id>",
		Short: "Delete a submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !newPrompter(cmd).confirm("Delete submission "+args[0]+"?") {
				return fmt.Errorf("aborted")
			}
			msg, err := a.client.Submissions().Delete(cmd.Context(), args[0], evalID)
			if err != nil {
				return fmt.Errorf("delete submission: %w", err)
			}
			a.ack(msg, "submission deleted")
			return nil
		},
	}
	cmd.Flags().StringVarP(&evalID, "evaluation", "e", "", "Evaluation ID")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	cmd.MarkFlagRequired("evaluation")
	return cmd
}

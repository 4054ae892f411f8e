package cli

import (
	"fmt"
	"mime"

	"github.com/me/acadeval/internal/route"
	"github.com/me/acadeval/pkg/model"
	"github.com/spf13/cobra"
)

const (
	reportsRoute = route.ProfessorPath + "/reports"
	resultsRoute = route.StudentPath + "/results"
)

func newReportsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Generate and download reports",
	}
	cmd.AddCommand(
		at(reportsRoute, newReportsListCmd(a)),
		at(reportsRoute, newReportsGenerateCmd(a)),
		at(reportsRoute, newReportsExportCmd(a)),
		at(resultsRoute, newReportsDownloadCmd(a)),
		at(resultsRoute, newReportsMineCmd(a)),
	)
	return cmd
}

func newReportsListCmd(a *app) *cobra.Command {
	var f listFilter
	cmd := &cobra.Command{
		Use:   "list <evaluation-id>",
		Short: "List the generated reports of an evaluation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.client.Reports().ListByEvaluation(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("list reports: %w", err)
			}
			list = filterSlice(list, func(r model.ReportInfo) bool {
				return f.match("", "", r.Filename, r.Type)
			})
			w := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(w, "No reports found.")
				return nil
			}
			fmt.Fprintf(w, "%-48s  %-6s  %9s  %s\n", "FILE", "TYPE", "SIZE", "CREATED")
			fmt.Fprintf(w, "%-48s  %-6s  %9s  %s\n", "----", "----", "----", "-------")
			for _, r := range list {
				fmt.Fprintf(w, "%-48s  %-6s  %9s  %s\n", truncate(r.Filename, 48), r.Type, size(r.Size), when(r.Created))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&f.search, "search", "", "Case-insensitive text search")
	return cmd
}

func newReportsGenerateCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "generate <evaluation-id>",
		Short: "Build the reports of an evaluation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := a.client.Reports().Generate(cmd.Context(), args[0], model.ReportFormat(format))
			if err != nil {
				return fmt.Errorf("generate reports: %w", err)
			}
			a.ack(msg, "reports generated")
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", string(model.ReportPDF), "Report format (pdf, xlsx, json)")
	return cmd
}

func newReportsExportCmd(a *app) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export <evaluation-id>",
		Short: "Download the results of an evaluation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, ctype, err := a.client.Reports().Export(cmd.Context(), args[0], model.ExportFormat(format))
			if err != nil {
				return fmt.Errorf("export results: %w", err)
			}
			a.logger.Debug("export downloaded", "content_type", ctype, "bytes", len(data))
			return writeBlob(cmd.OutOrStdout(), output, exportName(args[0], format, ctype), data)
		},
	}
	cmd.Flags().StringVar(&format, "format", string(model.ExportXLSX), "Export format (xlsx, csv, json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (- for stdout)")
	return cmd
}

// exportName picks a file name from the requested format, falling back to
// the content type.
func exportName(evalID, format, ctype string) string {
	ext := "." + format
	if format == "" {
		ext = ".bin"
		if mt, _, err := mime.ParseMediaType(ctype); err == nil {
			if exts, _ := mime.ExtensionsByType(mt); len(exts) > 0 {
				ext = exts[0]
			}
		}
	}
	return "resultats_" + evalID + ext
}

func newReportsDownloadCmd(a *app) *cobra.Command {
	var student, output string
	cmd := &cobra.Command{
		Use:   "download <evaluation-id>",
		Short: "Download a student's PDF report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if student == "" {
				if u := a.session.Snapshot().Identity; u != nil {
					student = u.DisplayName()
				}
			}
			data, err := a.client.Reports().StudentReport(cmd.Context(), args[0], student)
			if err != nil {
				return fmt.Errorf("download report: %w", err)
			}
			return writeBlob(cmd.OutOrStdout(), output, "rapport_"+args[0]+".pdf", data)
		},
	}
	cmd.Flags().StringVar(&student, "student", "", "Student name (default: from the session)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (- for stdout)")
	return cmd
}

func newReportsMineCmd(a *app) *cobra.Command {
	var f listFilter
	cmd := &cobra.Command{
		Use:   "mine",
		Short: "List my published results",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.client.Reports().Mine(cmd.Context())
			if err != nil {
				return fmt.Errorf("list my results: %w", err)
			}
			list = filterSlice(list, func(r model.StudentReport) bool {
				return f.match("", r.Subject, r.EvaluationTitle, r.EvaluationID)
			})
			w := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(w, "No published results yet.")
				return nil
			}
			fmt.Fprintf(w, "%-24s  %-30s  %-16s  %11s  %-3s  %s\n", "EVALUATION", "TITLE", "SUBJECT", "SCORE", "PDF", "CORRECTED")
			fmt.Fprintf(w, "%-24s  %-30s  %-16s  %11s  %-3s  %s\n", "----------", "-----", "-------", "-----", "---", "---------")
			for _, r := range list {
				pdf := "no"
				if r.HasPDF {
					pdf = "yes"
				}
				fmt.Fprintf(w, "%-24s  %-30s  %-16s  %5.2f/%-5g  %-3s  %s\n",
					r.EvaluationID, truncate(r.EvaluationTitle, 30), truncate(r.Subject, 16), r.Score, r.MaxScore, pdf, when(r.CorrectedAt))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&f.subject, "subject", "", "Only show results for this subject")
	cmd.Flags().StringVar(&f.search, "search", "", "Case-insensitive text search")
	return cmd
}

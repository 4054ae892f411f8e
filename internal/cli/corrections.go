package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/me/acadeval/internal/route"
	"github.com/me/acadeval/pkg/model"
	"github.com/spf13/cobra"
)

const correctionRoute = route.ProfessorPath + "/correction"

func newCorrectionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corrections",
		Short: "Launch and review automated corrections (professor)",
	}
	cmd.AddCommand(
		at(correctionRoute, newCorrectionsProcessCmd(a)),
		at(correctionRoute, newCorrectionsResultsCmd(a)),
		at(correctionRoute, newCorrectionsStatsCmd(a)),
	)
	return cmd
}

func newCorrectionsProcessCmd(a *app) *cobra.Command {
	var (
		profile string
		copies  []string
	)
	cmd := &cobra.Command{
		Use:   "process <evaluation-id>",
		Short: "Correct the submitted copies of an evaluation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ok := model.ParseCorrectionProfile(profile)
			if !ok {
				return fmt.Errorf("unknown profile %q (want excellence, equilibre or rapide)", profile)
			}
			prog, err := a.client.Corrections().Process(cmd.Context(), model.CorrectionRequest{
				EvaluationID: args[0],
				Profile:      p,
				Copies:       copies,
			})
			if err != nil {
				return fmt.Errorf("launch correction: %w", err)
			}
			a.notes.Info("correction launched with profile " + string(p))
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Correction: %s\n", prog.Status)
			fmt.Fprintf(w, "  Copies:    %d/%d processed (%d ok, %d failed)\n", prog.Processed, prog.TotalCopies, prog.Succeeded, prog.Failed)
			fmt.Fprintf(w, "  Progress:  %.0f%%\n", prog.Percent)
			return nil
		},
	}
	cmd.Flags().StringVarP(&profile, "profile", "P", string(model.ProfileBalanced), "Correction profile (excellence, equilibre, rapide)")
	cmd.Flags().StringSliceVar(&copies, "copy", nil, "Only correct these submission IDs")
	return cmd
}

func newCorrectionsResultsCmd(a *app) *cobra.Command {
	var f listFilter
	cmd := &cobra.Command{
		Use:   "results <evaluation-id>",
		Short: "List the correction results of an evaluation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.client.Corrections().Results(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get results: %w", err)
			}
			list = filterSlice(list, func(r model.CorrectionResult) bool {
				return f.match(r.PublicationStatus, "", r.LastName, r.FirstName, r.SubmissionID)
			})

			w := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(w, "No results found.")
				return nil
			}
			fmt.Fprintf(w, "%4s  %-28s  %11s  %6s  %-14s  %s\n", "RANK", "STUDENT", "SCORE", "%", "PERFORMANCE", "CORRECTED")
			fmt.Fprintf(w, "%4s  %-28s  %11s  %6s  %-14s  %s\n", "----", "-------", "-----", "-", "-----------", "---------")
			for _, r := range list {
				rank := "-"
				if r.Rank != nil {
					rank = fmt.Sprint(*r.Rank)
				}
				fmt.Fprintf(w, "%4s  %-28s  %5.2f/%-5g  %5.1f%%  %-14s  %s\n",
					rank, truncate(r.FirstName+" "+r.LastName, 28), r.Score, r.MaxScore, r.Percent, r.Performance, when(r.CorrectedAt))
			}
			return nil
		},
	}
	f.register(cmd, false)
	return cmd
}

func newCorrectionsStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <evaluation-id>",
		Short: "Show the class statistics of an evaluation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.client.Corrections().Statistics(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get statistics: %w", err)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Statistics: %s\n", st.EvaluationID)
			fmt.Fprintf(w, "  Copies:    %d (%d corrected)\n", st.CopyCount, st.CorrectedCount)
			fmt.Fprintf(w, "  Mean:      %.2f\n", st.Mean)
			fmt.Fprintf(w, "  Median:    %.2f\n", st.Median)
			fmt.Fprintf(w, "  Std dev:   %.2f\n", st.StdDev)
			fmt.Fprintf(w, "  Range:     %.2f - %.2f\n", st.Min, st.Max)
			fmt.Fprintf(w, "  Pass rate: %.1f%%\n", st.PassRate)
			if len(st.Distribution) > 0 {
				buckets := make([]string, 0, len(st.Distribution))
				for b := range st.Distribution {
					buckets = append(buckets, b)
				}
				sort.Strings(buckets)
				fmt.Fprintln(w, "  Distribution:")
				for _, b := range buckets {
					n := st.Distribution[b]
					fmt.Fprintf(w, "    %-8s %3d %s\n", b, n, strings.Repeat("#", n))
				}
			}
			return nil
		},
	}
}

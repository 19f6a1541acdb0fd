package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/MannanGupta05/buildplanwizard/internal/model"
	"github.com/MannanGupta05/buildplanwizard/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect archived validation runs",
	Long:  "Commands for listing, viewing, and summarizing archived validation runs.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List validation runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		building, _ := cmd.Flags().GetString("building")
		verdict, _ := cmd.Flags().GetString("verdict")
		source, _ := cmd.Flags().GetString("source")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		runs, err := st.ListRuns(ctx, store.RunFilter{
			BuildingID: building,
			Verdict:    model.Verdict(verdict),
			Source:     source,
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show full details of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		if transcript, _ := cmd.Flags().GetBool("transcript"); transcript {
			_, err := fmt.Fprintln(os.Stdout, run.Report.Transcript())
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

// -- runs stats --

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate verdict and rule failure counts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		source, _ := cmd.Flags().GetString("source")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, store.RunFilter{Source: source, Limit: limit})
		if err != nil {
			return eris.Wrap(err, "runs stats")
		}

		formatRunStats(os.Stdout, computeRunStats(runs))
		return nil
	},
}

func init() {
	runsListCmd.Flags().String("building", "", "filter by building id")
	runsListCmd.Flags().String("verdict", "", "filter by verdict (approved, rejected)")
	runsListCmd.Flags().String("source", "", "filter by input source")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")
	runsListCmd.Flags().Int("offset", 0, "number of runs to skip")

	runsShowCmd.Flags().Bool("transcript", false, "print the validation transcript instead of JSON")

	runsStatsCmd.Flags().String("source", "", "only count runs from this source")
	runsStatsCmd.Flags().Int("limit", 10000, "max number of recent runs to include")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsStatsCmd)
	rootCmd.AddCommand(runsCmd)
}

// runStats holds aggregate statistics computed from a set of runs.
type runStats struct {
	Total       int
	Approved    int
	Rejected    int
	RuleFails   map[string]int
	AvgPassRate float64
}

// computeRunStats computes aggregate statistics from a list of runs.
func computeRunStats(runs []model.Run) runStats {
	s := runStats{Total: len(runs), RuleFails: make(map[string]int)}

	var rateSum float64
	var rated int

	for _, r := range runs {
		switch r.Verdict {
		case model.VerdictApproved:
			s.Approved++
		case model.VerdictRejected:
			s.Rejected++
		}
		for _, rule := range r.Report.Rules {
			if !rule.Passed {
				s.RuleFails[rule.Key()]++
			}
		}
		if r.RulesTotal > 0 {
			rateSum += float64(r.RulesPassed) / float64(r.RulesTotal)
			rated++
		}
	}

	if rated > 0 {
		s.AvgPassRate = rateSum / float64(rated)
	}
	return s
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tBUILDING\tVERDICT\tRULES\tSOURCE\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t--------\t-------\t-----\t------\t-------")

	for _, r := range runs {
		source := r.Source
		if len(source) > 30 {
			source = "..." + source[len(source)-27:]
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\t%s\n",
			truncateID(r.ID),
			r.BuildingID,
			r.Verdict,
			r.RulesPassed,
			r.RulesTotal,
			source,
			r.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// formatRunStats writes aggregate stats to w. Rules are listed by failure
// count, most frequent first.
func formatRunStats(out io.Writer, s runStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total runs:\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "Approved:\t%d\n", s.Approved)
	_, _ = fmt.Fprintf(w, "Rejected:\t%d\n", s.Rejected)
	if s.Total > 0 {
		_, _ = fmt.Fprintf(w, "Avg rules passed:\t%.1f%%\n", s.AvgPassRate*100)
	}

	keys := make([]string, 0, len(s.RuleFails))
	for k := range s.RuleFails {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if s.RuleFails[keys[i]] != s.RuleFails[keys[j]] {
			return s.RuleFails[keys[i]] > s.RuleFails[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > 0 {
		_, _ = fmt.Fprintln(w, "Failures by rule:\t")
		for _, k := range keys {
			_, _ = fmt.Fprintf(w, "  %s\t%d\n", k, s.RuleFails[k])
		}
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

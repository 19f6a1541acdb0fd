package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/MannanGupta05/buildplanwizard/internal/adapter"
	"github.com/MannanGupta05/buildplanwizard/internal/model"
	"github.com/MannanGupta05/buildplanwizard/internal/pipeline"
	"github.com/MannanGupta05/buildplanwizard/internal/report"
	"github.com/MannanGupta05/buildplanwizard/internal/store"
)

const (
	formatJSON    = "json"
	formatText    = "text"
	formatSummary = "summary"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|glob>...",
	Short: "Validate staged extraction files",
	Long: "Reads extraction JSON (a building map or a flat variable dict), checks every building against the rule set " +
		"and prints the combined logs and structured outcomes.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("validate"); err != nil {
			return err
		}

		flat, _ := cmd.Flags().GetBool("flat")
		rulesFile, _ := cmd.Flags().GetString("rules")
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		xlsxPath, _ := cmd.Flags().GetString("xlsx")
		save, _ := cmd.Flags().GetBool("save")
		strict, _ := cmd.Flags().GetBool("strict")

		if err := checkFormat(format); err != nil {
			return err
		}

		paths, err := expandInputs(args)
		if err != nil {
			return err
		}

		engine, err := initEngine(rulesFile)
		if err != nil {
			return err
		}

		var st store.Store
		if save {
			if st, err = openStore(ctx); err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
		}

		p := pipeline.New(engine, st, nil)
		results, failed := validateFiles(ctx, p, paths, flat, save, cfg.Batch.MaxConcurrentFiles)
		reports := pipeline.Merge(results...)

		out := io.Writer(os.Stdout)
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return eris.Wrapf(err, "validate: create %s", output)
			}
			defer f.Close() //nolint:errcheck
			out = f
		}

		diags := pipeline.Diagnostics(results...)
		if err := writeReports(out, format, reports, diags, strings.Join(paths, ", ")); err != nil {
			return err
		}

		if xlsxPath != "" {
			if err := report.WriteXLSX(xlsxPath, reports); err != nil {
				return err
			}
			zap.L().Info("wrote xlsx report", zap.String("path", xlsxPath))
		}

		if failed > 0 {
			return eris.Errorf("validate: %d of %d files failed", failed, len(paths))
		}
		if strict {
			if n := countRejected(reports); n > 0 {
				return eris.Errorf("validate: %d building(s) rejected", n)
			}
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().Bool("flat", false, "read every input as a single flat variable dict")
	validateCmd.Flags().String("rules", "", "rule set YAML file (default from config, else built-in)")
	validateCmd.Flags().String("format", formatJSON, "output format: json, text or summary")
	validateCmd.Flags().StringP("output", "o", "", "write output to file instead of stdout")
	validateCmd.Flags().String("xlsx", "", "also write an XLSX compliance report")
	validateCmd.Flags().Bool("save", false, "archive each validated building in the run store")
	validateCmd.Flags().Bool("strict", false, "exit non-zero when any building is rejected")
	rootCmd.AddCommand(validateCmd)
}

func checkFormat(format string) error {
	switch format {
	case formatJSON, formatText, formatSummary:
		return nil
	default:
		return eris.Errorf("validate: unknown format %q (json, text, summary)", format)
	}
}

// expandInputs resolves glob patterns (including **) and removes
// duplicates, keeping first-seen order.
func expandInputs(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			add(arg)
			continue
		}
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, eris.Wrapf(err, "validate: bad pattern %s", arg)
		}
		if len(matches) == 0 {
			return nil, eris.Errorf("validate: no files match %s", arg)
		}
		for _, m := range matches {
			add(m)
		}
	}
	return paths, nil
}

// validateFiles processes paths concurrently. Results keep the input
// order so later files win on duplicate building ids; failed files are
// logged and leave a nil slot.
func validateFiles(ctx context.Context, p *pipeline.Pipeline, paths []string, flat, save bool, concurrency int) ([]*pipeline.Result, int) {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]*pipeline.Result, len(paths))
	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, path := range paths {
		g.Go(func() error {
			res, err := p.ValidateFile(gctx, path, flat, save)
			if err != nil {
				failed.Add(1)
				zap.L().Error("validation failed", zap.String("file", path), zap.Error(err))
				if res == nil {
					return nil
				}
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	zap.L().Info("validation complete",
		zap.Int("files", len(paths)),
		zap.Int64("failed", failed.Load()),
	)
	return results, int(failed.Load())
}

func writeReports(w io.Writer, format string, reports []model.ValidationReport, diags []adapter.Diagnostic, source string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(model.NewResult(reports)), "validate: encode json")
	case formatText:
		for i, r := range reports {
			if i > 0 {
				if _, err := fmt.Fprintln(w); err != nil {
					return eris.Wrap(err, "validate: write text")
				}
			}
			if _, err := fmt.Fprintln(w, r.Transcript()); err != nil {
				return eris.Wrap(err, "validate: write text")
			}
		}
		return nil
	case formatSummary:
		if err := report.RenderText(w, report.SummarizeAll(reports), report.TextOptions{
			Source:      source,
			GeneratedAt: time.Now(),
		}); err != nil {
			return err
		}
		return writeDiagnostics(w, diags)
	default:
		return checkFormat(format)
	}
}

// writeDiagnostics lists input the adapter dropped, if any.
func writeDiagnostics(w io.Writer, diags []adapter.Diagnostic) error {
	if len(diags) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "\nInput diagnostics (%d):\n", len(diags)); err != nil {
		return eris.Wrap(err, "validate: write diagnostics")
	}
	for _, d := range diags {
		if _, err := fmt.Fprintf(w, "  %s\n", d); err != nil {
			return eris.Wrap(err, "validate: write diagnostics")
		}
	}
	return nil
}

func countRejected(reports []model.ValidationReport) int {
	n := 0
	for _, r := range reports {
		if !r.Passed {
			n++
		}
	}
	return n
}

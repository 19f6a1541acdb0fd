package main

import (
	"context"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MannanGupta05/buildplanwizard/internal/pipeline"
	"github.com/MannanGupta05/buildplanwizard/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Validate extraction files as they land in the staging directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
			cfg.Watch.Dir = dir
		}
		if err := cfg.Validate("watch"); err != nil {
			return err
		}

		rulesFile, _ := cmd.Flags().GetString("rules")
		flat, _ := cmd.Flags().GetBool("flat")
		noSave, _ := cmd.Flags().GetBool("no-save")
		initial, _ := cmd.Flags().GetBool("initial")

		engine, err := initEngine(rulesFile)
		if err != nil {
			return err
		}

		p := pipeline.New(engine, nil, nil)
		if !noSave {
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			p = pipeline.New(engine, st, nil)
		}

		handle := fileHandler(p, flat, !noSave)
		w, err := watch.New(watch.Options{
			Dir:        cfg.Watch.Dir,
			Debounce:   cfg.Watch.Debounce,
			Extensions: cfg.Watch.Extensions,
		}, handle)
		if err != nil {
			return err
		}

		if initial {
			existing, err := stagedFiles(cfg.Watch.Dir, cfg.Watch.Extensions)
			if err != nil {
				return err
			}
			for _, path := range existing {
				_ = handle(ctx, path)
			}
		}

		return w.Run(ctx)
	},
}

func init() {
	watchCmd.Flags().String("dir", "", "staging directory (default from config)")
	watchCmd.Flags().String("rules", "", "rule set YAML file (default from config, else built-in)")
	watchCmd.Flags().Bool("flat", false, "read every file as a single flat variable dict")
	watchCmd.Flags().Bool("no-save", false, "validate without archiving runs")
	watchCmd.Flags().Bool("initial", false, "validate files already in the directory before watching")
	rootCmd.AddCommand(watchCmd)
}

func fileHandler(p *pipeline.Pipeline, flat, save bool) watch.Handler {
	return func(ctx context.Context, path string) error {
		res, err := p.ValidateFile(ctx, path, flat, save)
		if err != nil {
			zap.L().Error("watch: validation failed", zap.String("file", path), zap.Error(err))
			return err
		}
		rejected := countRejected(res.Reports)
		zap.L().Info("watch: file validated",
			zap.String("file", path),
			zap.Int("buildings", len(res.Reports)),
			zap.Int("rejected", rejected),
			zap.Strings("run_ids", res.RunIDs),
		)
		return nil
	}
}

// stagedFiles lists the files directly under dir with one of exts.
func stagedFiles(dir string, exts []string) ([]string, error) {
	if len(exts) == 0 {
		exts = []string{".json"}
	}
	var out []string
	for _, ext := range exts {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		pattern := filepath.Join(dir, "*"+ext)
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, eris.Wrapf(err, "watch: glob %s", pattern)
		}
		out = append(out, matches...)
	}
	return out, nil
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MannanGupta05/buildplanwizard/internal/api"
	"github.com/MannanGupta05/buildplanwizard/internal/metrics"
	"github.com/MannanGupta05/buildplanwizard/internal/pipeline"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the validation API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		rulesFile, _ := cmd.Flags().GetString("rules")
		noArchive, _ := cmd.Flags().GetBool("no-archive")

		engine, err := initEngine(rulesFile)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		rec := metrics.NewRecorder()
		srv := api.NewServer(pipeline.New(engine, st, rec), rec, api.Options{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			RateLimitRPS:   cfg.Server.RateLimitRPS,
			RateBurst:      cfg.Server.RateBurst,
			MaxBodyBytes:   cfg.Server.MaxBodyBytes,
			Archive:        !noArchive,
		})

		httpSrv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server",
			zap.Int("port", cfg.Server.Port),
			zap.String("location", engine.Config().Location),
		)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().String("rules", "", "rule set YAML file (default from config, else built-in)")
	serveCmd.Flags().Bool("no-archive", false, "do not archive validations received over HTTP")
	rootCmd.AddCommand(serveCmd)
}

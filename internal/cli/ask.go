package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/docqa/internal/models"
	"github.com/hyperjump/docqa/internal/pipeline"
	"github.com/hyperjump/docqa/pkg/utils"
)

func newAskCmd(opts *globalOptions) *cobra.Command {
	var (
		questions []string
		verbose   bool
		debug     bool
	)
	cmd := &cobra.Command{
		Use:   "ask <file|url>",
		Short: "Answer questions about a local file or URL without a server",
		Example: `  docqa ask policy.pdf -q "What is the grace period?"
  docqa ask https://example.com/policy.docx -q "Is maternity covered?" -q "What is the waiting period?" --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := ParseFormat(opts.format)
			if err != nil {
				return err
			}
			req := &models.ProcessingRequest{Documents: args[0], Questions: questions}
			if err := req.Validate(); err != nil {
				return err
			}

			cfg, _, err := loadConfig(opts.configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			var logger *zap.Logger
			if debug {
				if logger, err = utils.NewLogger(true); err != nil {
					return err
				}
				defer func() { _ = logger.Sync() }()
			}

			var reporter pipeline.StatusReporter
			if verbose {
				errOut := cmd.ErrOrStderr()
				reporter = pipeline.ReporterFunc(func(_ context.Context, _ string, st models.ProcessingStatus) {
					fmt.Fprintf(errOut, "[%3d%%] %s\n", st.Progress, st.Message)
				})
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			engine, err := newEngine(ctx, cfg, logger, reporter)
			if err != nil {
				return err
			}
			defer engine.Close()

			var load pipeline.Loader
			if isURL(req.Documents) {
				load = engine.Loader.FromURL(req.Documents)
			} else {
				load = engine.Loader.FromFile(req.Documents)
			}

			runCtx := ctx
			if cfg.Pipeline.JobTimeout > 0 {
				var cancel context.CancelFunc
				runCtx, cancel = context.WithTimeout(ctx, cfg.Pipeline.JobTimeout)
				defer cancel()
			}
			result, runErr := engine.Orchestrator.Run(runCtx, uuid.NewString(), load, req.Questions)
			if result == nil {
				return runErr
			}
			if err := WriteResult(cmd.OutOrStdout(), result, format); err != nil {
				return err
			}
			if runErr != nil && !errors.Is(runErr, context.Canceled) {
				return runErr
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&questions, "question", "q", nil, "question to answer (repeatable)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print progress to stderr")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	_ = cmd.MarkFlagRequired("question")
	return cmd
}

func isURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

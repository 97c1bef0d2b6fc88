package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newStatusCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show the status of a job on a running server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := ParseFormat(opts.format)
			if err != nil {
				return err
			}
			st, err := NewClient(opts.serverURL, opts.token).Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return WriteStatus(cmd.OutOrStdout(), args[0], st, format)
		},
	}
}

func newResultCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "result <job-id>",
		Short: "Show the answers of a finished job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := ParseFormat(opts.format)
			if err != nil {
				return err
			}
			result, err := NewClient(opts.serverURL, opts.token).Result(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return WriteResult(cmd.OutOrStdout(), result, format)
		},
	}
}

func newHistoryCmd(opts *globalOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [query...]",
		Short: "Search previously answered questions",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := ParseFormat(opts.format)
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")
			hits, err := NewClient(opts.serverURL, opts.token).SearchHistory(cmd.Context(), query, limit)
			if err != nil {
				return err
			}
			return WriteHistory(cmd.OutOrStdout(), query, hits, format)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum number of hits")
	return cmd
}

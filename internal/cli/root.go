package cli

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// globalOptions are persistent flags shared by every command.
type globalOptions struct {
	configPath string
	serverURL  string
	token      string
	format     string
}

// NewRootCmd builds the docqa command tree.
func NewRootCmd(version string) *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:   "docqa",
		Short: "Answer questions about documents",
		Long: `docqa answers natural-language questions about a document.

Documents are downloaded or read from disk, split into chunks, embedded into a
per-job vector index, and each question is answered by a language model from
the most similar chunks.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
			if opts.token == "" {
				opts.token = os.Getenv("DOCQA_API_TOKEN")
			}
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", DefaultConfigPath, "config file path")
	pf.StringVar(&opts.serverURL, "server", "http://localhost:8080", "server URL for status, result and history")
	pf.StringVar(&opts.token, "token", "", "API token (default $DOCQA_API_TOKEN)")
	pf.StringVar(&opts.format, "format", "text", "output format: text or json")

	cmd.AddCommand(
		newServerCmd(opts),
		newAskCmd(opts),
		newStatusCmd(opts),
		newResultCmd(opts),
		newHistoryCmd(opts),
		newVersionCmd(version),
	)
	return cmd
}

// Execute runs the root command.
func Execute(version string) error {
	return NewRootCmd(version).Execute()
}

package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/voiceforge/internal"
	"github.com/spf13/cobra"
)

var (
	verbose     bool
	archivePath string
	optionsPath string
	version     string = "dev"
	commit      string = "unknown"
	date        string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "voiceforge",
	Short: "Turn your message archive into personal-voice training data",
	Long: `voiceforge converts a MessageHub archive (chats, email, posts) into
token-budgeted JSONL training examples for fine-tuning a personal-voice model.

Messages you authored become assistant turns; everyone else's become user
turns. Threads are packed into sessions under a token budget, serialized one
JSON object per line, and sharded into size-bounded files.

Quick Start:
  voiceforge threads                        # Rank threads by voice quality
  voiceforge score <thread-id>              # Show one thread's score breakdown
  voiceforge synthesize --top 20 -o out/    # Build a dataset from the best 20

The archive database is produced by the MessageHub ingester; point --db at it.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&archivePath, "db", "messagehub.db", "Path to the archive database")
	rootCmd.PersistentFlags().StringVar(&optionsPath, "options", "", "Path to a YAML synthesis options file")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

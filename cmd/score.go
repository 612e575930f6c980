package cmd

import (
	"fmt"
	"time"

	"github.com/iksnae/voiceforge/internal"
	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score <thread-id>",
	Short: "Show the quality score breakdown for one thread",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := internal.OpenStore(archivePath)
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		defer store.Close()

		ctx := cmd.Context()
		identities, err := store.OwnerIdentities(ctx)
		if err != nil {
			return fmt.Errorf("failed to load identities: %w", err)
		}

		thread, err := store.Thread(ctx, identities, args[0])
		if err != nil {
			return fmt.Errorf("failed to load thread: %w", err)
		}

		score := internal.ScoreThread(thread, time.Now())
		title := thread.Title
		if title == "" {
			title = "(untitled)"
		}

		fmt.Printf("%s [%s]\n", titleStyle.Render(title), thread.Platform.DisplayName())
		fmt.Printf("  messages: %d total, %d owned (avg owned length %.0f chars)\n",
			thread.MessageCount, thread.OwnerMessageCount, thread.AvgOwnerMsgLength)
		fmt.Printf("  recency:        %5.1f / 20\n", score.Recency)
		fmt.Printf("  participation:  %5.1f / 30\n", score.Participation)
		fmt.Printf("  substance:      %5.1f / 25\n", score.Substance)
		fmt.Printf("  volume:         %5.1f / 25\n", score.Volume)
		fmt.Printf("  final:          %s\n", scoreStyle.Render(fmt.Sprintf("%.1f / 100", score.Final)))
		if thread.OwnerMessageCount < 5 {
			internal.PrintWarning("Fewer than 5 owned messages; score floors to 0")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}

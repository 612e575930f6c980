package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/voiceforge/internal"
	"github.com/spf13/cobra"
)

var threadsLimit int

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	scoreStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

var threadsCmd = &cobra.Command{
	Use:   "threads",
	Short: "List threads ranked by voice quality",
	Long: `List every thread in the archive with its quality score, best first.

The score rewards recent activity, balanced participation, substantive owner
messages and volume. It is a ranking aid for choosing synthesis candidates;
it does not by itself include or exclude anything.`,
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
		if len(identities) == 0 {
			internal.PrintWarning("No owner identities in archive; every message will rank as unowned")
		}

		threads, err := store.Threads(ctx, identities)
		if err != nil {
			return fmt.Errorf("failed to load threads: %w", err)
		}

		ranked := internal.RankThreads(threads, time.Now())
		if threadsLimit > 0 && len(ranked) > threadsLimit {
			ranked = ranked[:threadsLimit]
		}

		if len(ranked) == 0 {
			internal.PrintWarning("No threads found in archive")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, headerStyle.Render("SCORE")+"\t"+headerStyle.Render("THREAD")+"\t"+headerStyle.Render("PLATFORM")+"\t"+headerStyle.Render("MSGS")+"\t"+headerStyle.Render("OWNED")+"\t"+headerStyle.Render("LAST ACTIVITY")+"\t"+headerStyle.Render("ID"))
		for _, r := range ranked {
			title := r.Thread.Title
			if title == "" {
				title = "(untitled)"
			}
			last := time.Unix(0, r.Thread.LastActivityMs*int64(time.Millisecond))
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
				scoreStyle.Render(fmt.Sprintf("%5.1f", r.Score.Final)),
				titleStyle.Render(truncate(title, 40)),
				r.Thread.Platform.DisplayName(),
				r.Thread.MessageCount,
				r.Thread.OwnerMessageCount,
				dateStyle.Render(last.Format("2006-01-02")),
				idStyle.Render(r.Thread.ID),
			)
		}
		return w.Flush()
	},
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

func init() {
	threadsCmd.Flags().IntVar(&threadsLimit, "limit", 0, "Show only the top N threads (0 = all)")
	rootCmd.AddCommand(threadsCmd)
}

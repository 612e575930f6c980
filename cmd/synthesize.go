package cmd

import (
	"fmt"
	"time"

	"github.com/iksnae/voiceforge/internal"
	"github.com/spf13/cobra"
)

var (
	synthOut       string
	synthZip       string
	synthThreadIDs []string
	synthTop       int
	synthAll       bool

	synthMaxTokens    int
	synthMaxFileBytes int
	synthMerge        bool
	synthSpeakers     bool
	synthReactions    bool
	synthRedactPII    bool
	synthRedactTrack  bool
	synthKnowledge    bool
	synthPersona      string
	synthInstructions string
)

var synthesizeCmd = &cobra.Command{
	Use:   "synthesize",
	Short: "Build a training dataset from selected threads",
	Long: `Build token-budgeted JSONL training examples from the archive.

Select threads explicitly with --thread (repeatable), take the best N by
quality score with --top, or process everything with --all. Output is sharded
into size-bounded .jsonl files written to a directory (--out) or streamed
into a single zip archive (--archive).

Options may also be set in a YAML file (--options); flags win over the file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := internal.LoadOptions(optionsPath)
		if err != nil {
			return err
		}
		applyOptionFlags(cmd, &opts)

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

		all, err := store.Threads(ctx, identities)
		if err != nil {
			return fmt.Errorf("failed to load threads: %w", err)
		}

		selected, err := selectThreads(all)
		if err != nil {
			return err
		}

		sink, err := openSink()
		if err != nil {
			return err
		}

		jobs := internal.NewJobStore()
		job := jobs.Create()
		progress := internal.TerminalProgress("synthesizing")

		orch := internal.NewOrchestrator(store, opts, nil)
		orch.SetProgress(func(processed, total int) {
			jobs.SetProgress(job.ID, processed, total)
			progress(processed, total)
		})

		runErr := orch.Run(ctx, selected, sink.WritePart)
		if closeErr := sink.Close(); runErr == nil {
			runErr = closeErr
		}
		if runErr != nil {
			jobs.Fail(job.ID, runErr.Error())
			return runErr
		}

		jobs.Complete(job.ID)
		internal.PrintSuccess(fmt.Sprintf("Dataset written from %d thread(s)", len(selected)))
		return nil
	},
}

// selectThreads resolves the user's selection flags against the archive.
func selectThreads(all []internal.Thread) ([]internal.Thread, error) {
	switch {
	case len(synthThreadIDs) > 0:
		byID := make(map[string]internal.Thread, len(all))
		for _, t := range all {
			byID[t.ID] = t
		}
		var selected []internal.Thread
		for _, id := range synthThreadIDs {
			t, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("thread %s not found in archive", id)
			}
			selected = append(selected, t)
		}
		return selected, nil
	case synthTop > 0:
		ranked := internal.RankThreads(all, time.Now())
		if len(ranked) > synthTop {
			ranked = ranked[:synthTop]
		}
		selected := make([]internal.Thread, 0, len(ranked))
		for _, r := range ranked {
			selected = append(selected, r.Thread)
		}
		return selected, nil
	case synthAll:
		return all, nil
	default:
		return nil, fmt.Errorf("nothing selected: use --thread, --top or --all")
	}
}

func openSink() (internal.ArchiveSink, error) {
	if synthZip != "" {
		return internal.NewZipSink(synthZip)
	}
	return internal.NewDirSink(synthOut)
}

// applyOptionFlags overlays explicitly set flags onto options loaded from the
// YAML file.
func applyOptionFlags(cmd *cobra.Command, opts *internal.Options) {
	f := cmd.Flags()
	if f.Changed("max-tokens") {
		opts.MaxTokensPerSession = synthMaxTokens
	}
	if f.Changed("max-file-bytes") {
		opts.MaxFileBytes = synthMaxFileBytes
	}
	if f.Changed("merge-sequential") {
		opts.MergeSequential = synthMerge
	}
	if f.Changed("speaker-names") {
		opts.IncludeSpeakerNames = synthSpeakers
	}
	if f.Changed("impute-reactions") {
		opts.ImputeReactions = synthReactions
	}
	if f.Changed("redact-pii") {
		opts.RedactPII = synthRedactPII
	}
	if f.Changed("redact-tracking") {
		opts.RedactTracking = synthRedactTrack
	}
	if f.Changed("knowledge") {
		opts.KnowledgeMode = synthKnowledge
	}
	if f.Changed("persona") {
		opts.PersonaTag = synthPersona
	}
	if f.Changed("instructions") {
		opts.CustomInstructions = synthInstructions
	}
	*opts = opts.Normalize()
}

func init() {
	synthesizeCmd.Flags().StringVarP(&synthOut, "out", "o", "dataset", "Output directory for shard files")
	synthesizeCmd.Flags().StringVar(&synthZip, "archive", "", "Write shards into a single zip archive instead of a directory")
	synthesizeCmd.Flags().StringArrayVar(&synthThreadIDs, "thread", nil, "Thread ID to include (repeatable)")
	synthesizeCmd.Flags().IntVar(&synthTop, "top", 0, "Include the top N threads by quality score")
	synthesizeCmd.Flags().BoolVar(&synthAll, "all", false, "Include every thread")

	synthesizeCmd.Flags().IntVar(&synthMaxTokens, "max-tokens", 0, "Token budget per session")
	synthesizeCmd.Flags().IntVar(&synthMaxFileBytes, "max-file-bytes", 0, "Byte budget per output shard")
	synthesizeCmd.Flags().BoolVar(&synthMerge, "merge-sequential", false, "Collapse consecutive same-role turns")
	synthesizeCmd.Flags().BoolVar(&synthSpeakers, "speaker-names", false, "Prefix user turns with the sender name in group threads")
	synthesizeCmd.Flags().BoolVar(&synthReactions, "impute-reactions", false, "Synthesize assistant turns from your emoji reactions")
	synthesizeCmd.Flags().BoolVar(&synthRedactPII, "redact-pii", false, "Redact emails, phone numbers and IDs")
	synthesizeCmd.Flags().BoolVar(&synthRedactTrack, "redact-tracking", false, "Redact carrier tracking numbers")
	synthesizeCmd.Flags().BoolVar(&synthKnowledge, "knowledge", false, "Flatten sessions into narrative assistant turns")
	synthesizeCmd.Flags().StringVar(&synthPersona, "persona", "", "Persona folded into the system turn")
	synthesizeCmd.Flags().StringVar(&synthInstructions, "instructions", "", "Extra instructions folded into the system turn")

	rootCmd.AddCommand(synthesizeCmd)
}

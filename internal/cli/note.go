package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MimeLyc/video-notemaker/internal/pipeline"
	"github.com/MimeLyc/video-notemaker/internal/video"
)

var (
	noteLanguage string
	noteMode     string
	noteFormat   string
	noteOutput   string
)

// noteCmd processes a single video
var noteCmd = &cobra.Command{
	Use:   "note [URL or video ID]",
	Short: "Generate notes for a single video",
	Long: `Generate notes for one video: resolve metadata, obtain the transcript
(from cache when possible), and write a notes file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		language := noteLanguage
		if language == "" {
			language = a.cfg.Extract.Language
		}
		mode := a.cfg.Mode()
		if noteMode != "" {
			if mode, err = video.ParseMode(noteMode); err != nil {
				return err
			}
		}

		refs, err := parseRefArgs(args, language, mode)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		outcome := a.orchestrator.Process(ctx, refs[0])
		if outcome.Status == pipeline.StatusFailed {
			return fmt.Errorf("failed to process %s: %w", refs[0].ID, outcome.Err)
		}

		output := noteOutput
		if output == "" {
			output = a.cfg.Batch.OutputDir
		}
		path, err := writeOutcome(outcome, output, noteFormat)
		if err != nil {
			return err
		}

		if outcome.Status == pipeline.StatusPartial {
			fmt.Printf("transcript written to %s (note generation failed: %v)\n", path, outcome.Err)
			return nil
		}
		fmt.Printf("notes written to %s\n", path)
		return nil
	},
}

func init() {
	noteCmd.Flags().StringVarP(&noteLanguage, "language", "l", "", "transcript language (default from config)")
	noteCmd.Flags().StringVarP(&noteMode, "mode", "m", "", "extraction mode: auto, captions, audio")
	noteCmd.Flags().StringVarP(&noteFormat, "format", "f", "markdown", "output format: markdown, json")
	noteCmd.Flags().StringVarP(&noteOutput, "output", "o", "", "output directory (default from config)")
	rootCmd.AddCommand(noteCmd)
}

package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MimeLyc/video-notemaker/internal/batch"
	"github.com/MimeLyc/video-notemaker/internal/pipeline"
	"github.com/MimeLyc/video-notemaker/internal/video"
	"github.com/MimeLyc/video-notemaker/internal/watch"
	"github.com/MimeLyc/video-notemaker/pkg/log"
)

const timeRounding = 100 * time.Millisecond

var (
	batchFile   string
	batchFormat string
	batchOutput string
)

// batchCmd processes many videos concurrently
var batchCmd = &cobra.Command{
	Use:   "batch [URL or video ID...]",
	Short: "Generate notes for many videos",
	Long: `Process multiple videos concurrently. References come from the
arguments, or from a URL-list file via --file (one URL or ID per line,
'#' starts a comment). Interrupting the run cancels outstanding work;
finished videos keep their notes.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		var refs []video.Ref
		if batchFile != "" {
			refs, err = watch.ReadListFile(batchFile, a.cfg.Extract.Language, a.cfg.Mode())
			if err != nil {
				return err
			}
		}
		argRefs, err := parseRefArgs(args, a.cfg.Extract.Language, a.cfg.Mode())
		if err != nil {
			return err
		}
		refs = append(refs, argRefs...)
		if len(refs) == 0 {
			return fmt.Errorf("no video references given (arguments or --file)")
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		run := a.coordinator.Process(ctx, refs)
		return finishRun(a, run)
	},
}

// batchPlaylistCmd expands a playlist and processes its members
var batchPlaylistCmd = &cobra.Command{
	Use:   "playlist [URL or playlist ID]",
	Short: "Generate notes for every video in a playlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		playlistID := args[0]
		if id, ok := video.ExtractPlaylistID(args[0]); ok {
			playlistID = id
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		run, err := a.coordinator.ProcessPlaylist(ctx, playlistID)
		if err != nil {
			return err
		}
		return finishRun(a, run)
	},
}

// finishRun exports successful outcomes and reports the final tally.
func finishRun(a *app, run batch.Run) error {
	output := batchOutput
	if output == "" {
		output = a.cfg.Batch.OutputDir
	}

	for _, outcome := range run.Outcomes {
		if outcome.Status == pipeline.StatusFailed {
			continue
		}
		if _, err := writeOutcome(outcome, output, batchFormat); err != nil {
			log.Error("failed to export %s: %v", outcome.Ref.ID, err)
		}
	}

	fmt.Printf("%d succeeded, %d partial, %d failed (%d cache hits) in %s\n",
		run.Summary.Succeeded, run.Summary.Partial, run.Summary.Failed,
		run.Summary.CacheHits, run.Summary.Duration.Round(timeRounding))

	if run.Cancelled {
		return fmt.Errorf("batch cancelled before completion")
	}
	if run.Summary.Failed > 0 {
		return fmt.Errorf("%d of %d videos failed", run.Summary.Failed, run.Summary.Total)
	}
	return nil
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "URL-list file to read references from")
	batchCmd.PersistentFlags().StringVarP(&batchFormat, "format", "f", "markdown", "output format: markdown, json")
	batchCmd.PersistentFlags().StringVarP(&batchOutput, "output", "o", "", "output directory (default from config)")
	batchCmd.AddCommand(batchPlaylistCmd)
	rootCmd.AddCommand(batchCmd)
}

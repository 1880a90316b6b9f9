package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/MimeLyc/video-notemaker/internal/batch"
	"github.com/MimeLyc/video-notemaker/internal/cache"
	"github.com/MimeLyc/video-notemaker/internal/pipeline"
	"github.com/MimeLyc/video-notemaker/internal/watch"
	"github.com/MimeLyc/video-notemaker/pkg/log"
)

var watchInbox string

// watchCmd runs the daemon mode: monitor an inbox for URL-list files and
// sweep expired cache entries on a schedule.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch an inbox directory for URL-list files",
	Long: `Run continuously: every .txt file dropped into the inbox directory is
read as a URL list and processed as a batch. Processed files move to the
done/ subdirectory. Expired cache entries are swept on the configured
cron schedule.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		inbox := watchInbox
		if inbox == "" {
			inbox = a.cfg.Batch.InboxDir
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		sweeper := startSweep(ctx, a.store, a.cfg.Cache.SweepCron)
		if sweeper != nil {
			defer sweeper.Stop()
		}

		watcher, err := watch.NewWatcher(a.coordinator, func(ctx context.Context, path string, run batch.Run) {
			for _, outcome := range run.Outcomes {
				if outcome.Status == pipeline.StatusFailed {
					continue
				}
				if _, err := writeOutcome(outcome, a.cfg.Batch.OutputDir, batchFormat); err != nil {
					log.Error("failed to export %s: %v", outcome.Ref.ID, err)
				}
			}
		}, watch.Config{
			InboxDir: inbox,
			Language: a.cfg.Extract.Language,
			Mode:     a.cfg.Mode(),
		})
		if err != nil {
			return err
		}
		defer watcher.Stop()

		fmt.Printf("watching %s (Ctrl-C to stop)\n", inbox)
		if err := watcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

// startSweep schedules periodic removal of expired cache entries. A store
// without sweep support or a bad cron expression disables the sweep.
func startSweep(ctx context.Context, store cache.Store, expr string) *cron.Cron {
	sweeper, ok := store.(interface {
		DeleteExpired(ctx context.Context) (int64, error)
	})
	if !ok {
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(expr, func() {
		removed, err := sweeper.DeleteExpired(ctx)
		if err != nil {
			log.Error("cache sweep failed: %v", err)
			return
		}
		if removed > 0 {
			log.Info("cache sweep removed %d expired entries", removed)
		}
	})
	if err != nil {
		log.Warn("invalid sweep cron expression %q, sweep disabled: %v", expr, err)
		return nil
	}
	c.Start()
	return c
}

func init() {
	watchCmd.Flags().StringVar(&watchInbox, "inbox", "", "inbox directory (default from config)")
	rootCmd.AddCommand(watchCmd)
}

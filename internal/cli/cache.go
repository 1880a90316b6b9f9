package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/MimeLyc/video-notemaker/internal/cache"
	"github.com/MimeLyc/video-notemaker/internal/video"
)

var (
	clearVideo   string
	clearMode    string
	clearExpired bool
)

// cacheCmd groups cache maintenance operations
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Transcript cache operations",
}

// cacheStatsCmd reports cache contents
var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache entry count, size, and age",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.store.Stats(context.Background())
		if err != nil {
			return err
		}

		fmt.Printf("entries: %d\n", stats.EntryCount)
		fmt.Printf("size:    %s\n", humanize.Bytes(uint64(stats.TotalSizeBytes)))
		if stats.EntryCount > 0 {
			fmt.Printf("oldest:  %s\n", humanize.Time(time.Now().Add(-stats.OldestEntryAge)))
		}
		return nil
	},
}

// cacheClearCmd removes cache entries
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cache entries",
	Long: `Remove cache entries. Without flags the whole cache is cleared;
--video, --mode, and --expired narrow the removal.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		filter := &cache.ClearFilter{
			VideoID:     clearVideo,
			ExpiredOnly: clearExpired,
		}
		if clearMode != "" {
			mode, err := video.ParseMode(clearMode)
			if err != nil {
				return err
			}
			filter.Mode = mode
		}

		removed, err := a.store.Clear(context.Background(), filter)
		if err != nil {
			return err
		}
		fmt.Printf("removed %d entries\n", removed)
		return nil
	},
}

func init() {
	cacheClearCmd.Flags().StringVar(&clearVideo, "video", "", "only clear entries for this video ID")
	cacheClearCmd.Flags().StringVar(&clearMode, "mode", "", "only clear entries from this extraction mode")
	cacheClearCmd.Flags().BoolVar(&clearExpired, "expired", false, "only clear entries past their TTL")
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

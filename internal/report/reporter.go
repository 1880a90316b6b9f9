// Package report implements progress reporting for batch runs.
package report

import (
	"sync/atomic"
	"time"

	"github.com/MimeLyc/video-notemaker/internal/batch"
	"github.com/MimeLyc/video-notemaker/internal/pipeline"
	"github.com/MimeLyc/video-notemaker/internal/video"
	"github.com/MimeLyc/video-notemaker/pkg/log"
)

const timeUnit = 100 * time.Millisecond

// LogReporter writes batch progress to the application log. One instance
// may serve several concurrent runs (watch mode dispatches each list file
// through the same coordinator), so the counters accumulate across runs
// instead of resetting.
type LogReporter struct {
	total     atomic.Int64
	completed atomic.Int64
}

func NewLogReporter() *LogReporter {
	return &LogReporter{}
}

func (r *LogReporter) BatchStarted(total int) {
	r.total.Add(int64(total))
	log.Info("batch started: %d videos", total)
}

func (r *LogReporter) ItemStarted(index int, ref video.Ref) {
	log.Info("[%d/%d] processing %s", index+1, r.total.Load(), ref.ID)
}

func (r *LogReporter) ItemFinished(index int, outcome pipeline.Outcome) {
	done := r.completed.Add(1)
	total := r.total.Load()
	switch outcome.Status {
	case pipeline.StatusSuccess:
		hit := ""
		if outcome.CacheHit {
			hit = " (cached)"
		}
		log.Info("[%d/%d] %s done in %s%s", done, total, outcome.Ref.ID, outcome.Duration.Round(timeUnit), hit)
	case pipeline.StatusPartial:
		log.Warn("[%d/%d] %s transcript ready, notes failed: %v", done, total, outcome.Ref.ID, outcome.Err)
	default:
		log.Error("[%d/%d] %s failed: %v", done, total, outcome.Ref.ID, outcome.Err)
	}
}

func (r *LogReporter) BatchFinished(summary batch.Summary) {
	log.Info("batch finished in %s: %d succeeded, %d partial, %d failed, %d cache hits",
		summary.Duration.Round(timeUnit),
		summary.Succeeded, summary.Partial, summary.Failed, summary.CacheHits)
}

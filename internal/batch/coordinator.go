// Package batch processes many videos concurrently through the pipeline
// with a bounded worker count. One video's failure never aborts the
// batch; every input position gets exactly one terminal outcome.
package batch

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MimeLyc/video-notemaker/internal/pipeline"
	"github.com/MimeLyc/video-notemaker/internal/video"
	"github.com/MimeLyc/video-notemaker/pkg/log"
)

// Processor runs the single-video pipeline.
type Processor interface {
	Process(ctx context.Context, ref video.Ref) pipeline.Outcome
}

// PlaylistExpander resolves a playlist into ordered video references.
type PlaylistExpander interface {
	Expand(ctx context.Context, playlistID string) ([]video.Ref, error)
}

// Reporter receives progress events during a batch run. Implementations
// must tolerate concurrent calls.
type Reporter interface {
	BatchStarted(total int)
	ItemStarted(index int, ref video.Ref)
	ItemFinished(index int, outcome pipeline.Outcome)
	BatchFinished(summary Summary)
}

// Summary aggregates a finished run.
type Summary struct {
	Total     int
	Succeeded int
	Partial   int
	Failed    int
	CacheHits int
	Duration  time.Duration
}

// Run holds the results of one batch, with Outcomes parallel to the
// input slice: Outcomes[i] belongs to the i-th requested reference,
// duplicates included.
type Run struct {
	Items     []video.Ref
	Outcomes  []pipeline.Outcome
	Summary   Summary
	Cancelled bool
}

type Config struct {
	// Concurrency bounds the number of videos processed at once.
	Concurrency int
}

func (c Config) withDefaults() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = 3
	}
	return c
}

type Coordinator struct {
	processor Processor
	playlists PlaylistExpander
	reporter  Reporter
	cfg       Config
}

// NewCoordinator wires a coordinator. playlists may be nil when playlist
// expansion is not needed; reporter may be nil for silent runs.
func NewCoordinator(processor Processor, playlists PlaylistExpander, reporter Reporter, cfg Config) *Coordinator {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &Coordinator{
		processor: processor,
		playlists: playlists,
		reporter:  reporter,
		cfg:       cfg.withDefaults(),
	}
}

// Process runs every reference through the pipeline with bounded
// concurrency. Cancellation stops dispatching new work; already-running
// extractions finish via their own context checks, and unstarted items
// receive cancelled outcomes. Process itself never returns an error.
func (c *Coordinator) Process(ctx context.Context, refs []video.Ref) Run {
	started := time.Now()
	run := Run{
		Items:    refs,
		Outcomes: make([]pipeline.Outcome, len(refs)),
	}

	c.reporter.BatchStarted(len(refs))
	log.Info("starting batch of %d videos with concurrency %d", len(refs), c.cfg.Concurrency)

	g := new(errgroup.Group)
	g.SetLimit(c.cfg.Concurrency)
	for i, ref := range refs {
		g.Go(func() error {
			c.reporter.ItemStarted(i, ref)
			outcome := c.processor.Process(ctx, ref)
			run.Outcomes[i] = outcome
			c.reporter.ItemFinished(i, outcome)
			return nil
		})
	}
	g.Wait()

	run.Cancelled = ctx.Err() != nil
	run.Summary = summarize(run.Outcomes, time.Since(started))
	c.reporter.BatchFinished(run.Summary)
	return run
}

// ProcessPlaylist expands a playlist and processes its members. An
// expansion failure is the only error this method can return; member
// failures land in their outcomes.
func (c *Coordinator) ProcessPlaylist(ctx context.Context, playlistID string) (Run, error) {
	refs, err := c.playlists.Expand(ctx, playlistID)
	if err != nil {
		return Run{}, err
	}
	return c.Process(ctx, refs), nil
}

func summarize(outcomes []pipeline.Outcome, duration time.Duration) Summary {
	summary := Summary{Total: len(outcomes), Duration: duration}
	for _, outcome := range outcomes {
		switch outcome.Status {
		case pipeline.StatusSuccess:
			summary.Succeeded++
		case pipeline.StatusPartial:
			summary.Partial++
		default:
			summary.Failed++
		}
		if outcome.CacheHit {
			summary.CacheHits++
		}
	}
	return summary
}

// NopReporter discards all events.
type NopReporter struct{}

func (NopReporter) BatchStarted(int)                   {}
func (NopReporter) ItemStarted(int, video.Ref)         {}
func (NopReporter) ItemFinished(int, pipeline.Outcome) {}
func (NopReporter) BatchFinished(Summary)              {}

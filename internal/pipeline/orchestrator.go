// Package pipeline runs the end-to-end flow for a single video: resolve
// metadata, hit the transcript cache, extract on miss, post-process the
// text, and generate notes. Every video ends in a terminal Outcome; the
// orchestrator never returns an error to its caller.
package pipeline

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/MimeLyc/video-notemaker/internal/ai"
	"github.com/MimeLyc/video-notemaker/internal/cache"
	"github.com/MimeLyc/video-notemaker/internal/noteerr"
	"github.com/MimeLyc/video-notemaker/internal/textproc"
	"github.com/MimeLyc/video-notemaker/internal/video"
	"github.com/MimeLyc/video-notemaker/pkg/log"
)

// MetadataResolver resolves a video ID into its public metadata.
type MetadataResolver interface {
	Resolve(ctx context.Context, videoID string) (*video.Metadata, error)
}

// Extractor produces a transcript for a video reference.
type Extractor interface {
	Extract(ctx context.Context, ref video.Ref) (*video.Transcript, error)
}

// Status is the terminal state of a processed video.
type Status string

const (
	// StatusSuccess means transcript and notes were both produced.
	StatusSuccess Status = "SUCCESS"
	// StatusPartial means the transcript was produced but note
	// generation failed; the transcript is still usable.
	StatusPartial Status = "PARTIAL"
	// StatusFailed means no transcript could be produced.
	StatusFailed Status = "FAILED"
)

// Notes is the AI-generated layer of the output.
type Notes struct {
	Summary   string
	KeyPoints []string
	Questions []string
	Sentiment string
}

// Outcome is the terminal result for one video. Err is set for PARTIAL
// and FAILED outcomes and carries the error kind of the first failure.
type Outcome struct {
	Ref        video.Ref
	Status     Status
	Meta       *video.Metadata
	Transcript *video.Transcript
	Text       *textproc.Result
	Notes      *Notes
	CacheHit   bool
	Duration   time.Duration
	Err        error
}

type Config struct {
	// MetadataTimeout bounds the metadata lookup.
	MetadataTimeout time.Duration
	// ExtractTimeout bounds a full extraction including the audio
	// fallback. Audio transcription of long videos is slow, so this
	// default is generous.
	ExtractTimeout time.Duration
	// NotesTimeout bounds each note-generation call.
	NotesTimeout time.Duration
	// Textproc configures transcript post-processing.
	Textproc textproc.Config
}

func (c Config) withDefaults() Config {
	if c.MetadataTimeout <= 0 {
		c.MetadataTimeout = 30 * time.Second
	}
	if c.ExtractTimeout <= 0 {
		c.ExtractTimeout = 30 * time.Minute
	}
	if c.NotesTimeout <= 0 {
		c.NotesTimeout = 2 * time.Minute
	}
	return c
}

type Orchestrator struct {
	metadata   MetadataResolver
	extractor  Extractor
	store      cache.Store
	processor  *textproc.Processor
	summarizer ai.Summarizer
	cfg        Config

	// flight collapses concurrent extractions of the same cache key so
	// a batch with duplicate references extracts once.
	flight singleflight.Group
}

// NewOrchestrator wires the pipeline. summarizer may be nil, in which
// case outcomes carry the processed transcript without notes.
func NewOrchestrator(
	metadata MetadataResolver,
	extractor Extractor,
	store cache.Store,
	summarizer ai.Summarizer,
	cfg Config,
) *Orchestrator {
	cfg = cfg.withDefaults()
	return &Orchestrator{
		metadata:   metadata,
		extractor:  extractor,
		store:      store,
		summarizer: summarizer,
		processor:  textproc.NewProcessor(cfg.Textproc),
		cfg:        cfg,
	}
}

// Process runs the full pipeline for one video and always returns a
// terminal Outcome.
func (o *Orchestrator) Process(ctx context.Context, ref video.Ref) (outcome Outcome) {
	started := time.Now()
	outcome = Outcome{Ref: ref}
	defer func() { outcome.Duration = time.Since(started) }()

	fail := func(err error) Outcome {
		outcome.Status = StatusFailed
		outcome.Err = err
		log.Error("pipeline failed for %s: %v", ref.ID, err)
		return outcome
	}

	if ctx.Err() != nil {
		return fail(noteerr.Wrap(ctx.Err(), noteerr.KindCancelled, "processing cancelled"))
	}

	meta, err := o.resolveMetadata(ctx, ref.ID)
	if err != nil {
		return fail(err)
	}
	outcome.Meta = meta

	transcript, cacheHit, err := o.obtainTranscript(ctx, ref)
	if err != nil {
		return fail(err)
	}
	outcome.Transcript = transcript
	outcome.CacheHit = cacheHit

	result, err := o.processor.Process(transcript)
	if err != nil {
		// The transcript is still usable without processed text.
		outcome.Status = StatusPartial
		outcome.Err = noteerr.Wrap(err, noteerr.KindExtraction, "transcript post-processing failed")
		log.Warn("post-processing failed for %s: %v", ref.ID, err)
		return outcome
	}
	outcome.Text = result

	if o.summarizer == nil {
		outcome.Status = StatusSuccess
		return outcome
	}

	notes, err := o.generateNotes(ctx, meta, result)
	outcome.Notes = notes
	if err != nil {
		if noteerr.IsKind(err, noteerr.KindCancelled) {
			return fail(err)
		}
		// The transcript survives a note-generation failure.
		outcome.Status = StatusPartial
		outcome.Err = err
		log.Warn("note generation failed for %s: %v", ref.ID, err)
		return outcome
	}

	outcome.Status = StatusSuccess
	return outcome
}

func (o *Orchestrator) resolveMetadata(ctx context.Context, videoID string) (*video.Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.MetadataTimeout)
	defer cancel()
	return o.metadata.Resolve(ctx, videoID)
}

// obtainTranscript consults the cache before extracting. A broken cache
// store degrades to extraction without caching rather than failing the
// video.
func (o *Orchestrator) obtainTranscript(ctx context.Context, ref video.Ref) (*video.Transcript, bool, error) {
	key := cache.NewKey(ref)

	cacheUp := true
	entry, err := o.store.Get(ctx, key)
	if err != nil {
		log.Warn("cache read failed for %s, bypassing cache: %v", ref.ID, err)
		cacheUp = false
	}
	// The SQLite store filters expired rows itself; the TTL check here
	// guards against Store implementations that do not.
	if entry != nil && entry.Valid(time.Now()) {
		log.Debug("cache hit for %s (%s)", ref.ID, key.String())
		transcript := entry.Transcript
		return &transcript, true, nil
	}

	value, err, _ := o.flight.Do(key.String(), func() (interface{}, error) {
		extractCtx, cancel := context.WithTimeout(ctx, o.cfg.ExtractTimeout)
		defer cancel()

		transcript, err := o.extractor.Extract(extractCtx, ref)
		if err != nil {
			return nil, err
		}
		if cacheUp {
			if _, err := o.store.Put(ctx, key, *transcript); err != nil {
				log.Warn("cache write failed for %s: %v", ref.ID, err)
			}
		}
		return transcript, nil
	})
	if err != nil {
		return nil, false, err
	}
	return value.(*video.Transcript), false, nil
}

// generateNotes runs the note-generation calls in sequence. The first
// failure aborts the rest; partial notes produced before it are kept.
func (o *Orchestrator) generateNotes(ctx context.Context, meta *video.Metadata, text *textproc.Result) (*Notes, error) {
	notes := &Notes{}

	call := func(fn func(context.Context) error) error {
		callCtx, cancel := context.WithTimeout(ctx, o.cfg.NotesTimeout)
		defer cancel()
		return fn(callCtx)
	}

	if err := call(func(ctx context.Context) error {
		summary, err := o.summarizer.Summarize(ctx, meta.Title, text.Text)
		notes.Summary = summary
		return err
	}); err != nil {
		return notes, err
	}

	if err := call(func(ctx context.Context) error {
		points, err := o.summarizer.ExtractKeyPoints(ctx, text.Text)
		notes.KeyPoints = points
		return err
	}); err != nil {
		return notes, err
	}

	if err := call(func(ctx context.Context) error {
		questions, err := o.summarizer.GenerateQuestions(ctx, text.Text)
		notes.Questions = questions
		return err
	}); err != nil {
		return notes, err
	}

	if err := call(func(ctx context.Context) error {
		sentiment, err := o.summarizer.AnalyzeSentiment(ctx, text.Text)
		notes.Sentiment = sentiment
		return err
	}); err != nil {
		return notes, err
	}

	return notes, nil
}

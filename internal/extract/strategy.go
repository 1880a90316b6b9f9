// Package extract decides how a transcript is obtained for a single video:
// captions first, full audio transcription as fallback. The two methods are
// explicit states with retry/backoff policy attached per transition, not
// nested error handling.
package extract

import (
	"context"
	"time"

	"github.com/MimeLyc/video-notemaker/internal/noteerr"
	"github.com/MimeLyc/video-notemaker/internal/video"
	"github.com/MimeLyc/video-notemaker/pkg/log"
)

// CaptionSource retrieves uploader or auto-generated captions.
type CaptionSource interface {
	Fetch(ctx context.Context, ref video.Ref) (*video.Transcript, error)
}

// AudioTranscriber produces a transcript by downloading the audio track and
// running speech-to-text over it. This is the most expensive operation in
// the system.
type AudioTranscriber interface {
	Transcribe(ctx context.Context, ref video.Ref, modelSize string) (*video.Transcript, error)
}

type Config struct {
	// ModelSize selects the speech-to-text model (tiny..large).
	ModelSize string
	// MaxAttempts bounds retries per method for transient failures.
	MaxAttempts int
	// BaseDelay is the first backoff delay; it doubles per attempt.
	BaseDelay time.Duration
}

func (c Config) withDefaults() Config {
	if c.ModelSize == "" {
		c.ModelSize = "base"
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 500 * time.Millisecond
	}
	return c
}

type Strategy struct {
	captions CaptionSource
	audio    AudioTranscriber
	cfg      Config
}

func NewStrategy(captions CaptionSource, audio AudioTranscriber, cfg Config) *Strategy {
	return &Strategy{
		captions: captions,
		audio:    audio,
		cfg:      cfg.withDefaults(),
	}
}

// Extract runs the two-state machine for one video. The returned transcript
// records which method produced it in Source.
func (s *Strategy) Extract(ctx context.Context, ref video.Ref) (*video.Transcript, error) {
	mode := ref.Mode
	if mode == "" {
		mode = video.ModeAuto
	}

	if mode == video.ModeAudio {
		return s.attemptAudio(ctx, ref)
	}

	transcript, err := s.attemptCaptions(ctx, ref)
	if err == nil {
		return transcript, nil
	}
	if noteerr.IsKind(err, noteerr.KindCancelled) {
		return nil, err
	}

	if mode == video.ModeCaptions {
		// Caller pinned captions: no silent fallback.
		return nil, noteerr.Wrap(err, noteerr.KindExtraction, "caption extraction failed and fallback is disabled").
			WithContext("video", ref.ID)
	}

	if noteerr.IsKind(err, noteerr.KindNoCaptions) {
		log.Info("No captions for %s, falling back to audio transcription", ref.ID)
	} else {
		log.Warn("Caption extraction for %s failed (%v), falling back to audio transcription", ref.ID, err)
	}
	return s.attemptAudio(ctx, ref)
}

func (s *Strategy) attemptCaptions(ctx context.Context, ref video.Ref) (*video.Transcript, error) {
	transcript, err := s.withRetry(ctx, func(ctx context.Context) (*video.Transcript, error) {
		return s.captions.Fetch(ctx, ref)
	})
	if err != nil {
		return nil, err
	}
	return s.accept(transcript, video.ModeCaptions, ref)
}

func (s *Strategy) attemptAudio(ctx context.Context, ref video.Ref) (*video.Transcript, error) {
	transcript, err := s.withRetry(ctx, func(ctx context.Context) (*video.Transcript, error) {
		return s.audio.Transcribe(ctx, ref, s.cfg.ModelSize)
	})
	if err != nil {
		if noteerr.KindOf(err) == noteerr.KindCancelled {
			return nil, err
		}
		return nil, noteerr.Wrap(err, noteerr.KindExtraction, "audio transcription failed").
			WithContext("video", ref.ID).
			WithContext("model", s.cfg.ModelSize)
	}
	return s.accept(transcript, video.ModeAudio, ref)
}

// accept stamps the source mode and checks the segment ordering invariant.
func (s *Strategy) accept(transcript *video.Transcript, source video.Mode, ref video.Ref) (*video.Transcript, error) {
	transcript.Source = source
	if err := transcript.Validate(); err != nil {
		return nil, noteerr.Wrap(err, noteerr.KindExtraction, "malformed transcript segments").
			WithContext("video", ref.ID)
	}
	return transcript, nil
}

// withRetry runs op up to MaxAttempts times, backing off exponentially
// between transient failures. Non-transient errors return immediately.
func (s *Strategy) withRetry(ctx context.Context, op func(context.Context) (*video.Transcript, error)) (*video.Transcript, error) {
	var lastErr error
	delay := s.cfg.BaseDelay

	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		transcript, err := op(ctx)
		if err == nil {
			return transcript, nil
		}
		lastErr = err

		if !noteerr.IsTransient(err) || attempt == s.cfg.MaxAttempts {
			break
		}

		log.Debug("Transient failure (attempt %d/%d), retrying in %v: %v", attempt, s.cfg.MaxAttempts, delay, err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, noteerr.Wrap(ctx.Err(), noteerr.KindCancelled, "extraction cancelled")
		}
		delay *= 2
	}

	return nil, lastErr
}

package extract

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/video-notemaker/internal/noteerr"
	"github.com/MimeLyc/video-notemaker/internal/video"
)

type stubCaptions struct {
	calls   int
	errs    []error
	result  *video.Transcript
}

func (s *stubCaptions) Fetch(_ context.Context, _ video.Ref) (*video.Transcript, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	if s.result != nil {
		return s.result, nil
	}
	return &video.Transcript{
		Segments: []video.Segment{{Start: 0, End: 1, Text: "from captions"}},
		Language: "en",
	}, nil
}

type stubAudio struct {
	calls     int
	err       error
	lastModel string
}

func (s *stubAudio) Transcribe(_ context.Context, _ video.Ref, modelSize string) (*video.Transcript, error) {
	s.calls++
	s.lastModel = modelSize
	if s.err != nil {
		return nil, s.err
	}
	return &video.Transcript{
		Segments: []video.Segment{{Start: 0, End: 1, Text: "from audio"}},
		Language: "en",
	}, nil
}

func fastConfig() Config {
	return Config{ModelSize: "base", MaxAttempts: 3, BaseDelay: time.Millisecond}
}

func TestExtract_CaptionsSucceed(t *testing.T) {
	captions := &stubCaptions{}
	audio := &stubAudio{}
	s := NewStrategy(captions, audio, fastConfig())

	got, err := s.Extract(context.Background(), video.NewRef("abc123def45", "", video.ModeAuto))
	require.NoError(t, err)
	assert.Equal(t, video.ModeCaptions, got.Source)
	assert.Equal(t, 1, captions.calls)
	assert.Equal(t, 0, audio.calls)
}

func TestExtract_NoCaptionsFallsBackToAudio(t *testing.T) {
	captions := &stubCaptions{errs: []error{noteerr.New(noteerr.KindNoCaptions, "captions disabled")}}
	audio := &stubAudio{}
	s := NewStrategy(captions, audio, fastConfig())

	got, err := s.Extract(context.Background(), video.NewRef("abc123def45", "", video.ModeAuto))
	require.NoError(t, err)
	assert.Equal(t, video.ModeAudio, got.Source)
	assert.Equal(t, 1, captions.calls)
	assert.Equal(t, 1, audio.calls)
	assert.Equal(t, "base", audio.lastModel)
}

func TestExtract_TransientCaptionErrorsRetriedThenFallback(t *testing.T) {
	captions := &stubCaptions{errs: []error{
		noteerr.New(noteerr.KindNetwork, "reset"),
		noteerr.New(noteerr.KindTimeout, "deadline"),
		noteerr.New(noteerr.KindNetwork, "reset again"),
	}}
	audio := &stubAudio{}
	s := NewStrategy(captions, audio, fastConfig())

	got, err := s.Extract(context.Background(), video.NewRef("abc123def45", "", video.ModeAuto))
	require.NoError(t, err)
	// Three bounded attempts, then the audio fallback.
	assert.Equal(t, 3, captions.calls)
	assert.Equal(t, 1, audio.calls)
	assert.Equal(t, video.ModeAudio, got.Source)
}

func TestExtract_TransientThenCaptionSuccessSkipsAudio(t *testing.T) {
	captions := &stubCaptions{errs: []error{noteerr.New(noteerr.KindNetwork, "reset"), nil}}
	audio := &stubAudio{}
	s := NewStrategy(captions, audio, fastConfig())

	got, err := s.Extract(context.Background(), video.NewRef("abc123def45", "", video.ModeAuto))
	require.NoError(t, err)
	assert.Equal(t, video.ModeCaptions, got.Source)
	assert.Equal(t, 2, captions.calls)
	assert.Equal(t, 0, audio.calls)
}

func TestExtract_PinnedCaptionsDoesNotFallBack(t *testing.T) {
	captions := &stubCaptions{errs: []error{noteerr.New(noteerr.KindNoCaptions, "captions disabled")}}
	audio := &stubAudio{}
	s := NewStrategy(captions, audio, fastConfig())

	ref := video.Ref{ID: "abc123def45", Mode: video.ModeCaptions}
	_, err := s.Extract(context.Background(), ref)
	require.Error(t, err)
	assert.Equal(t, noteerr.KindExtraction, noteerr.KindOf(err))
	assert.Equal(t, 0, audio.calls)
}

func TestExtract_PinnedAudioSkipsCaptions(t *testing.T) {
	captions := &stubCaptions{}
	audio := &stubAudio{}
	s := NewStrategy(captions, audio, fastConfig())

	ref := video.Ref{ID: "abc123def45", Mode: video.ModeAudio}
	got, err := s.Extract(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, video.ModeAudio, got.Source)
	assert.Equal(t, 0, captions.calls)
}

func TestExtract_AudioFailureWrapsAsExtractionFailed(t *testing.T) {
	captions := &stubCaptions{errs: []error{noteerr.New(noteerr.KindNoCaptions, "captions disabled")}}
	cause := noteerr.New(noteerr.KindResourceExhausted, "model needs 10GB")
	audio := &stubAudio{err: cause}
	s := NewStrategy(captions, audio, fastConfig())

	_, err := s.Extract(context.Background(), video.NewRef("abc123def45", "", video.ModeAuto))
	require.Error(t, err)
	assert.Equal(t, noteerr.KindExtraction, noteerr.KindOf(err))
	require.ErrorIs(t, err, cause)
	// ResourceExhausted is not transient: a single attempt only.
	assert.Equal(t, 1, audio.calls)
}

func TestExtract_MalformedSegmentsRejected(t *testing.T) {
	captions := &stubCaptions{result: &video.Transcript{
		Segments: []video.Segment{
			{Start: 0, End: 3, Text: "a"},
			{Start: 2, End: 4, Text: "overlaps"},
		},
	}}
	s := NewStrategy(captions, &stubAudio{}, fastConfig())

	ref := video.Ref{ID: "abc123def45", Mode: video.ModeCaptions}
	_, err := s.Extract(context.Background(), ref)
	require.Error(t, err)
	assert.Equal(t, noteerr.KindExtraction, noteerr.KindOf(err))
}

func TestExtract_CancelledDuringBackoff(t *testing.T) {
	captions := &stubCaptions{errs: []error{
		noteerr.New(noteerr.KindNetwork, "reset"),
		noteerr.New(noteerr.KindNetwork, "reset"),
	}}
	s := NewStrategy(captions, &stubAudio{}, Config{MaxAttempts: 3, BaseDelay: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := s.Extract(ctx, video.NewRef("abc123def45", "", video.ModeAuto))
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Equal(t, noteerr.KindCancelled, noteerr.KindOf(err))
	case <-time.After(2 * time.Second):
		t.Fatal("extraction did not observe cancellation")
	}
}

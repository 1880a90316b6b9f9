package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/video-notemaker/internal/cache"
	"github.com/MimeLyc/video-notemaker/internal/noteerr"
	"github.com/MimeLyc/video-notemaker/internal/video"
)

type stubMetadata struct {
	err error
}

func (s *stubMetadata) Resolve(ctx context.Context, videoID string) (*video.Metadata, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &video.Metadata{ID: videoID, Title: "Title for " + videoID}, nil
}

type stubExtractor struct {
	calls   atomic.Int64
	err     error
	block   chan struct{}
	started chan struct{}
	once    sync.Once
}

func (s *stubExtractor) Extract(ctx context.Context, ref video.Ref) (*video.Transcript, error) {
	s.calls.Add(1)
	if s.started != nil {
		s.once.Do(func() { close(s.started) })
	}
	if s.block != nil {
		<-s.block
	}
	if s.err != nil {
		return nil, s.err
	}
	return &video.Transcript{
		Segments: []video.Segment{
			{Start: 0, End: 2, Text: "transcripts are neat"},
			{Start: 5, End: 7, Text: "and this one keeps going"},
		},
		Source:   video.ModeCaptions,
		Language: "en",
	}, nil
}

type stubSummarizer struct {
	err error
}

func (s *stubSummarizer) Summarize(ctx context.Context, title, text string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "a summary of " + title, nil
}

func (s *stubSummarizer) ExtractKeyPoints(ctx context.Context, text string) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []string{"point one", "point two"}, nil
}

func (s *stubSummarizer) GenerateQuestions(ctx context.Context, text string) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []string{"what was point one?"}, nil
}

func (s *stubSummarizer) AnalyzeSentiment(ctx context.Context, text string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "neutral", nil
}

func newTestStore(t *testing.T) cache.Store {
	t.Helper()
	store, err := cache.NewSQLiteStore(t.TempDir() + "/cache.db")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// failingStore simulates an unusable storage medium.
type failingStore struct{}

func (failingStore) Get(ctx context.Context, key cache.Key) (*cache.Entry, error) {
	return nil, noteerr.New(noteerr.KindStorageUnavailable, "disk on fire")
}

func (failingStore) Put(ctx context.Context, key cache.Key, transcript video.Transcript) (*cache.Entry, error) {
	return nil, noteerr.New(noteerr.KindStorageUnavailable, "disk on fire")
}

func (failingStore) Stats(ctx context.Context) (cache.Stats, error) {
	return cache.Stats{}, noteerr.New(noteerr.KindStorageUnavailable, "disk on fire")
}

func (failingStore) Clear(ctx context.Context, filter *cache.ClearFilter) (int64, error) {
	return 0, noteerr.New(noteerr.KindStorageUnavailable, "disk on fire")
}

func (failingStore) Close() error { return nil }

// staleStore hands back an entry past its TTL, as a Store implementation
// without server-side expiry filtering might.
type staleStore struct {
	failingStore
}

func (staleStore) Get(ctx context.Context, key cache.Key) (*cache.Entry, error) {
	return &cache.Entry{
		Key: key,
		Transcript: video.Transcript{
			Segments: []video.Segment{{Start: 0, End: 1, Text: "stale"}},
			Source:   video.ModeCaptions,
		},
		CreatedAt: time.Now().Add(-31 * 24 * time.Hour),
		ExpiresAt: time.Now().Add(-24 * time.Hour),
	}, nil
}

func TestProcessSuccess(t *testing.T) {
	extractor := &stubExtractor{}
	o := NewOrchestrator(&stubMetadata{}, extractor, newTestStore(t), &stubSummarizer{}, Config{})

	outcome := o.Process(context.Background(), video.NewRef("abc123def45", "en", video.ModeAuto))

	assert.Equal(t, StatusSuccess, outcome.Status)
	assert.NoError(t, outcome.Err)
	assert.False(t, outcome.CacheHit)
	require.NotNil(t, outcome.Transcript)
	require.NotNil(t, outcome.Notes)
	assert.Equal(t, "a summary of Title for abc123def45", outcome.Notes.Summary)
	assert.Len(t, outcome.Notes.KeyPoints, 2)
	require.NotNil(t, outcome.Text)
	assert.NotEmpty(t, outcome.Text.Text)
}

func TestProcessSecondRunHitsCache(t *testing.T) {
	extractor := &stubExtractor{}
	o := NewOrchestrator(&stubMetadata{}, extractor, newTestStore(t), &stubSummarizer{}, Config{})
	ref := video.NewRef("abc123def45", "en", video.ModeAuto)

	first := o.Process(context.Background(), ref)
	require.Equal(t, StatusSuccess, first.Status)
	assert.False(t, first.CacheHit)

	second := o.Process(context.Background(), ref)
	require.Equal(t, StatusSuccess, second.Status)
	assert.True(t, second.CacheHit)
	assert.Equal(t, int64(1), extractor.calls.Load(), "cache hit must not extract again")
	assert.Equal(t, first.Transcript.FullText(), second.Transcript.FullText())
}

func TestProcessConcurrentSameKeyExtractsOnce(t *testing.T) {
	extractor := &stubExtractor{
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	o := NewOrchestrator(&stubMetadata{}, extractor, newTestStore(t), nil, Config{})
	ref := video.NewRef("abc123def45", "en", video.ModeAuto)

	var wg sync.WaitGroup
	outcomes := make([]Outcome, 2)
	for i := range outcomes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = o.Process(context.Background(), ref)
		}(i)
	}

	// Release the extraction once both goroutines are in flight.
	<-extractor.started
	time.Sleep(50 * time.Millisecond)
	close(extractor.block)
	wg.Wait()

	for _, outcome := range outcomes {
		assert.Equal(t, StatusSuccess, outcome.Status)
	}
	assert.Equal(t, int64(1), extractor.calls.Load(), "concurrent requests for one key must share the extraction")
}

func TestProcessMetadataFailure(t *testing.T) {
	metaErr := noteerr.New(noteerr.KindNotFound, "video unavailable")
	extractor := &stubExtractor{}
	o := NewOrchestrator(&stubMetadata{err: metaErr}, extractor, newTestStore(t), &stubSummarizer{}, Config{})

	outcome := o.Process(context.Background(), video.NewRef("abc123def45", "en", video.ModeAuto))

	assert.Equal(t, StatusFailed, outcome.Status)
	assert.True(t, noteerr.IsKind(outcome.Err, noteerr.KindNotFound))
	assert.Nil(t, outcome.Transcript)
	assert.Equal(t, int64(0), extractor.calls.Load())
}

func TestProcessExtractionFailure(t *testing.T) {
	extractor := &stubExtractor{err: noteerr.New(noteerr.KindNoCaptions, "nothing to extract")}
	o := NewOrchestrator(&stubMetadata{}, extractor, newTestStore(t), &stubSummarizer{}, Config{})

	outcome := o.Process(context.Background(), video.NewRef("abc123def45", "en", video.ModeCaptions))

	assert.Equal(t, StatusFailed, outcome.Status)
	assert.True(t, noteerr.IsKind(outcome.Err, noteerr.KindNoCaptions))
}

func TestProcessNotesFailureIsPartial(t *testing.T) {
	summarizer := &stubSummarizer{err: noteerr.New(noteerr.KindQuotaExceeded, "quota exhausted")}
	o := NewOrchestrator(&stubMetadata{}, &stubExtractor{}, newTestStore(t), summarizer, Config{})

	outcome := o.Process(context.Background(), video.NewRef("abc123def45", "en", video.ModeAuto))

	assert.Equal(t, StatusPartial, outcome.Status)
	assert.True(t, noteerr.IsKind(outcome.Err, noteerr.KindQuotaExceeded))
	require.NotNil(t, outcome.Transcript, "transcript survives note failure")
	require.NotNil(t, outcome.Text)
}

func TestProcessBrokenCacheDegrades(t *testing.T) {
	extractor := &stubExtractor{}
	o := NewOrchestrator(&stubMetadata{}, extractor, failingStore{}, nil, Config{})
	ref := video.NewRef("abc123def45", "en", video.ModeAuto)

	outcome := o.Process(context.Background(), ref)
	assert.Equal(t, StatusSuccess, outcome.Status, "broken cache must not fail the video")
	assert.False(t, outcome.CacheHit)

	// Without a working cache every run extracts again.
	o.Process(context.Background(), ref)
	assert.Equal(t, int64(2), extractor.calls.Load())
}

func TestProcessExpiredEntryExtracts(t *testing.T) {
	extractor := &stubExtractor{}
	o := NewOrchestrator(&stubMetadata{}, extractor, staleStore{}, nil, Config{})

	outcome := o.Process(context.Background(), video.NewRef("abc123def45", "en", video.ModeAuto))
	assert.Equal(t, StatusSuccess, outcome.Status)
	assert.False(t, outcome.CacheHit, "an entry past its TTL is not a hit")
	assert.Equal(t, int64(1), extractor.calls.Load())
	assert.NotEqual(t, "stale", outcome.Transcript.Segments[0].Text)
}

func TestProcessCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := NewOrchestrator(&stubMetadata{}, &stubExtractor{}, newTestStore(t), nil, Config{})
	outcome := o.Process(ctx, video.NewRef("abc123def45", "en", video.ModeAuto))

	assert.Equal(t, StatusFailed, outcome.Status)
	assert.True(t, noteerr.IsKind(outcome.Err, noteerr.KindCancelled))
}

func TestProcessWithoutSummarizer(t *testing.T) {
	o := NewOrchestrator(&stubMetadata{}, &stubExtractor{}, newTestStore(t), nil, Config{})

	outcome := o.Process(context.Background(), video.NewRef("abc123def45", "en", video.ModeAuto))

	assert.Equal(t, StatusSuccess, outcome.Status)
	assert.Nil(t, outcome.Notes)
	require.NotNil(t, outcome.Text)
}

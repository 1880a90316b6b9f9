package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/MimeLyc/video-notemaker/internal/ai"
	"github.com/MimeLyc/video-notemaker/internal/batch"
	"github.com/MimeLyc/video-notemaker/internal/cache"
	"github.com/MimeLyc/video-notemaker/internal/config"
	"github.com/MimeLyc/video-notemaker/internal/export"
	"github.com/MimeLyc/video-notemaker/internal/extract"
	"github.com/MimeLyc/video-notemaker/internal/llm"
	"github.com/MimeLyc/video-notemaker/internal/noteerr"
	"github.com/MimeLyc/video-notemaker/internal/pipeline"
	"github.com/MimeLyc/video-notemaker/internal/report"
	"github.com/MimeLyc/video-notemaker/internal/video"
	"github.com/MimeLyc/video-notemaker/internal/ytdlp"
	"github.com/MimeLyc/video-notemaker/pkg/log"
)

// app bundles the wired application for command handlers.
type app struct {
	cfg          *config.Config
	store        cache.Store
	orchestrator *pipeline.Orchestrator
	coordinator  *batch.Coordinator
	playlists    *ytdlp.PlaylistService
}

// newApp loads configuration and wires every component.
func newApp() (*app, error) {
	var opts []config.Option
	if configFile != "" {
		opts = append(opts, config.WithFile(configFile))
	}
	cfg, err := config.NewFromEnv(opts...)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Cache.Path), 0755); err != nil {
		return nil, noteerr.Wrap(err, noteerr.KindConfig, "failed to create cache directory")
	}
	store, err := cache.NewSQLiteStore(cfg.Cache.Path)
	if err != nil {
		return nil, err
	}

	summarizer, err := buildSummarizer(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	runner := ytdlp.NewCmdRunner()
	metadata := ytdlp.NewMetadataService(runner)
	captions := ytdlp.NewCaptionService(runner, cfg.Extract.WorkDir)
	audio := ytdlp.NewTranscribeService(runner, cfg.Extract.WorkDir)
	strategy := extract.NewStrategy(captions, audio, extract.Config{
		ModelSize: cfg.Extract.WhisperModel,
	})

	orchestrator := pipeline.NewOrchestrator(metadata, strategy, store, summarizer, pipeline.Config{})
	playlists := ytdlp.NewPlaylistService(runner)
	coordinator := batch.NewCoordinator(
		orchestrator,
		&playlistExpander{svc: playlists, language: cfg.Extract.Language, mode: cfg.Mode()},
		report.NewLogReporter(),
		batch.Config{Concurrency: cfg.Batch.Concurrency},
	)

	return &app{
		cfg:          cfg,
		store:        store,
		orchestrator: orchestrator,
		coordinator:  coordinator,
		playlists:    playlists,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		log.Warn("failed to close cache store: %v", err)
	}
}

func buildSummarizer(cfg *config.Config) (ai.Summarizer, error) {
	switch strings.ToLower(cfg.Provider.Name) {
	case "openai":
		return ai.NewOpenAIProvider(&llm.Config{
			APIKey:      cfg.Provider.APIKey,
			APIURL:      cfg.Provider.APIURL,
			Model:       cfg.Provider.Model,
			MaxTokens:   cfg.Provider.MaxTokens,
			Temperature: cfg.Provider.Temperature,
			Timeout:     cfg.Provider.Timeout,
			AppName:     "video-notemaker",
		})
	case "gemini":
		return ai.NewGeminiProvider(cfg.Provider.GeminiAPIKeys, cfg.Provider.GeminiModel)
	default:
		// "none": transcripts and keywords only.
		return nil, nil
	}
}

// playlistExpander adapts the yt-dlp playlist service to the batch
// coordinator, stamping the configured language and mode on every entry.
type playlistExpander struct {
	svc      *ytdlp.PlaylistService
	language string
	mode     video.Mode
}

func (p *playlistExpander) Expand(ctx context.Context, playlistID string) ([]video.Ref, error) {
	entries, err := p.svc.Expand(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	refs := make([]video.Ref, len(entries))
	for i, entry := range entries {
		refs[i] = video.NewRef(entry.VideoID, p.language, p.mode)
	}
	return refs, nil
}

// writeOutcome exports one outcome into the output directory and returns
// the written path.
func writeOutcome(outcome pipeline.Outcome, dir, format string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", noteerr.Wrap(err, noteerr.KindConfig, "failed to create output directory")
	}

	var (
		data []byte
		ext  string
	)
	switch format {
	case "json":
		ext = ".json"
		encoded, err := export.JSON(outcome)
		if err != nil {
			return "", err
		}
		data = encoded
	case "markdown", "md", "":
		ext = ".md"
		rendered, err := export.Markdown(outcome)
		if err != nil {
			return "", err
		}
		data = []byte(rendered)
	default:
		return "", noteerr.Newf(noteerr.KindValidation, "unsupported output format %q", format)
	}

	path := filepath.Join(dir, outcome.Ref.ID+ext)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", noteerr.Wrap(err, noteerr.KindConfig, "failed to write notes file")
	}
	return path, nil
}

// parseRefArgs turns command arguments (URLs or bare IDs) into refs.
func parseRefArgs(args []string, language string, mode video.Mode) ([]video.Ref, error) {
	refs := make([]video.Ref, 0, len(args))
	for _, arg := range args {
		id, ok := video.ExtractVideoID(arg)
		if !ok {
			return nil, noteerr.New(noteerr.KindValidation, "unrecognized video reference").
				WithContext("input", arg)
		}
		refs = append(refs, video.NewRef(id, language, mode))
	}
	return refs, nil
}

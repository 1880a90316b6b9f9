package ytdlp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/MimeLyc/video-notemaker/internal/noteerr"
	"github.com/MimeLyc/video-notemaker/internal/video"
)

// MetadataService fetches video metadata via `yt-dlp -J`.
type MetadataService struct {
	runner CmdRunner
	binary string
}

func NewMetadataService(runner CmdRunner) *MetadataService {
	return &MetadataService{runner: runner, binary: "yt-dlp"}
}

func (s *MetadataService) Resolve(ctx context.Context, videoID string) (*video.Metadata, error) {
	out, err := s.runner.Run(ctx, s.binary,
		"-J",
		"--no-playlist",
		video.WatchURL(videoID),
	)
	if err != nil {
		return nil, classifyRunError(ctx, err, videoID)
	}
	meta, err := parseVideoJSON(out)
	if err != nil {
		return nil, noteerr.Wrap(err, noteerr.KindExtraction, "failed to parse video metadata").
			WithContext("video", videoID)
	}
	return meta, nil
}

// rawVideo mirrors the subset of yt-dlp's single-video JSON we consume.
type rawVideo struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Uploader    string       `json:"uploader"`
	ChannelID   string       `json:"channel_id"`
	UploadDate  string       `json:"upload_date"`
	Duration    float64      `json:"duration"`
	ViewCount   int64        `json:"view_count"`
	LikeCount   int64        `json:"like_count"`
	Description string       `json:"description"`
	Thumbnail   string       `json:"thumbnail"`
	Tags        []string     `json:"tags"`
	Chapters    []rawChapter `json:"chapters"`
}

type rawChapter struct {
	Title     string  `json:"title"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

func parseVideoJSON(data []byte) (*video.Metadata, error) {
	var raw rawVideo
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	meta := &video.Metadata{
		ID:          raw.ID,
		Title:       raw.Title,
		Channel:     raw.Uploader,
		ChannelID:   raw.ChannelID,
		Duration:    raw.Duration,
		ViewCount:   raw.ViewCount,
		LikeCount:   raw.LikeCount,
		Description: raw.Description,
		Thumbnail:   raw.Thumbnail,
		Tags:        raw.Tags,
	}
	if raw.UploadDate != "" {
		if t, err := time.Parse("20060102", raw.UploadDate); err == nil {
			meta.PublishedAt = t
		}
	}
	for _, ch := range raw.Chapters {
		meta.Chapters = append(meta.Chapters, video.Chapter{
			Title: ch.Title,
			Start: ch.StartTime,
			End:   ch.EndTime,
		})
	}
	return meta, nil
}

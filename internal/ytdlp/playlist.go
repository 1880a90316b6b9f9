package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/MimeLyc/video-notemaker/internal/noteerr"
	"github.com/MimeLyc/video-notemaker/pkg/log"
)

// PlaylistService expands a playlist into its member videos using
// `yt-dlp --flat-playlist --dump-json`, which emits one JSON object
// per line without resolving each video.
type PlaylistService struct {
	runner CmdRunner
	binary string
}

func NewPlaylistService(runner CmdRunner) *PlaylistService {
	return &PlaylistService{runner: runner, binary: "yt-dlp"}
}

// PlaylistEntry is one member of an expanded playlist. Private or
// deleted entries are kept so callers can report them individually.
type PlaylistEntry struct {
	VideoID string
	Title   string
}

// Expand resolves a playlist ID into its entries in playlist order.
func (s *PlaylistService) Expand(ctx context.Context, playlistID string) ([]PlaylistEntry, error) {
	out, err := s.runner.Run(ctx, s.binary,
		"--flat-playlist",
		"--dump-json",
		"https://www.youtube.com/playlist?list="+playlistID,
	)
	if err != nil {
		msg := err.Error()
		if containsAny(msg, "does not exist", "Playlist does not exist", "The playlist is private", "404") {
			return nil, noteerr.Wrap(err, noteerr.KindPlaylistResolution, "playlist cannot be resolved").
				WithContext("playlist", playlistID)
		}
		return nil, classifyRunError(ctx, err, playlistID)
	}

	entries, err := parsePlaylistJSON(out)
	if err != nil {
		return nil, noteerr.Wrap(err, noteerr.KindPlaylistResolution, "failed to parse playlist listing").
			WithContext("playlist", playlistID)
	}
	if len(entries) == 0 {
		return nil, noteerr.New(noteerr.KindPlaylistResolution, "playlist has no entries").
			WithContext("playlist", playlistID)
	}
	log.Info("expanded playlist %s into %d entries", playlistID, len(entries))
	return entries, nil
}

// rawPlaylistEntry mirrors the subset of yt-dlp's flat-playlist JSON
// lines we consume.
type rawPlaylistEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// parsePlaylistJSON parses the newline-delimited JSON objects emitted
// by --dump-json. Private videos appear with a placeholder title; they
// are kept so the batch can report them as individual failures.
func parsePlaylistJSON(data []byte) ([]PlaylistEntry, error) {
	var entries []PlaylistEntry

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var raw rawPlaylistEntry
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			return nil, err
		}
		if raw.ID == "" {
			continue
		}
		entries = append(entries, PlaylistEntry{VideoID: raw.ID, Title: raw.Title})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

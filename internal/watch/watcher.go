// Package watch monitors an inbox directory for URL-list files and runs
// each one through the batch coordinator as it arrives. A list file is a
// plain .txt file with one video URL or ID per line; lines starting with
// '#' are comments.
package watch

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/MimeLyc/video-notemaker/internal/batch"
	"github.com/MimeLyc/video-notemaker/internal/noteerr"
	"github.com/MimeLyc/video-notemaker/internal/video"
	"github.com/MimeLyc/video-notemaker/pkg/log"
)

// Runner executes one batch of references. Satisfied by batch.Coordinator.
type Runner interface {
	Process(ctx context.Context, refs []video.Ref) batch.Run
}

// ResultHandler receives the finished run for one list file.
type ResultHandler func(ctx context.Context, listPath string, run batch.Run)

type Config struct {
	// InboxDir is the directory to monitor for .txt list files.
	InboxDir string
	// DoneDir receives processed list files; defaults to InboxDir/done.
	DoneDir string
	// Language and Mode apply to every reference read from a list.
	Language string
	Mode     video.Mode
	// SettleDelay gives the writer time to finish the file after the
	// create event fires.
	SettleDelay time.Duration
}

func (c Config) withDefaults() Config {
	if c.DoneDir == "" {
		c.DoneDir = filepath.Join(c.InboxDir, "done")
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 500 * time.Millisecond
	}
	if c.Mode == "" {
		c.Mode = video.ModeAuto
	}
	return c
}

type Watcher struct {
	runner  Runner
	handler ResultHandler
	cfg     Config
	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
}

func NewWatcher(runner Runner, handler ResultHandler, cfg Config) (*Watcher, error) {
	if cfg.InboxDir == "" {
		return nil, noteerr.New(noteerr.KindConfig, "inbox directory is required")
	}
	cfg = cfg.withDefaults()

	if err := os.MkdirAll(cfg.InboxDir, 0755); err != nil {
		return nil, noteerr.Wrap(err, noteerr.KindConfig, "failed to create inbox directory")
	}
	if err := os.MkdirAll(cfg.DoneDir, 0755); err != nil {
		return nil, noteerr.Wrap(err, noteerr.KindConfig, "failed to create done directory")
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, noteerr.Wrap(err, noteerr.KindConfig, "failed to create file watcher")
	}
	if err := fsWatcher.Add(cfg.InboxDir); err != nil {
		fsWatcher.Close()
		return nil, noteerr.Wrap(err, noteerr.KindConfig, "failed to watch inbox directory")
	}

	return &Watcher{
		runner:  runner,
		handler: handler,
		cfg:     cfg,
		watcher: fsWatcher,
	}, nil
}

// Start blocks processing list files until ctx is cancelled. Files
// already present in the inbox are processed before watching begins.
func (w *Watcher) Start(ctx context.Context) error {
	log.Info("watching %s for URL list files", w.cfg.InboxDir)

	w.processExisting(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info("waiting for in-flight batches to finish")
			w.wg.Wait()
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return noteerr.New(noteerr.KindExtraction, "watcher events channel closed")
			}
			if event.Op&fsnotify.Create != fsnotify.Create {
				continue
			}
			if !isListFile(event.Name) {
				log.Debug("ignoring non-list file: %s", event.Name)
				continue
			}
			w.dispatch(ctx, event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return noteerr.New(noteerr.KindExtraction, "watcher errors channel closed")
			}
			log.Error("watcher error: %v", err)
		}
	}
}

func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) processExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.cfg.InboxDir)
	if err != nil {
		log.Error("failed to scan inbox: %v", err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !isListFile(entry.Name()) {
			continue
		}
		w.dispatch(ctx, filepath.Join(w.cfg.InboxDir, entry.Name()))
	}
}

func (w *Watcher) dispatch(ctx context.Context, path string) {
	log.Info("list file detected: %s", path)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		// Give the writer time to finish before reading.
		select {
		case <-time.After(w.cfg.SettleDelay):
		case <-ctx.Done():
			return
		}

		refs, err := ReadListFile(path, w.cfg.Language, w.cfg.Mode)
		if err != nil {
			log.Error("failed to read %s: %v", path, err)
			return
		}
		if len(refs) == 0 {
			log.Warn("list file %s contains no valid references", path)
			w.moveToDone(path)
			return
		}

		run := w.runner.Process(ctx, refs)
		if w.handler != nil {
			w.handler(ctx, path, run)
		}
		if !run.Cancelled {
			w.moveToDone(path)
		}
	}()
}

// moveToDone moves a processed list file out of the inbox so it is not
// picked up again on restart.
func (w *Watcher) moveToDone(path string) {
	dest := filepath.Join(w.cfg.DoneDir, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		log.Warn("failed to move %s to done: %v", path, err)
	}
}

func isListFile(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".txt"
}

// ReadListFile parses a URL-list file into references. Unparseable lines
// are skipped with a warning rather than failing the whole file.
func ReadListFile(path, language string, mode video.Mode) ([]video.Ref, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, noteerr.Wrap(err, noteerr.KindValidation, "failed to open list file")
	}
	defer file.Close()

	var refs []video.Ref
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		id, ok := video.ExtractVideoID(line)
		if !ok {
			log.Warn("skipping unrecognized reference %q in %s", line, path)
			continue
		}
		refs = append(refs, video.NewRef(id, language, mode))
	}
	if err := scanner.Err(); err != nil {
		return nil, noteerr.Wrap(err, noteerr.KindValidation, "failed to read list file")
	}
	return refs, nil
}

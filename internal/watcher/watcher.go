// Package watcher follows a pipeline log file and hands each new line to a
// handler, so a tracker can run alongside an analysis in another process.
package watcher

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/Iron-Ham/stagewatch/internal/logging"
)

// ErrStop may be returned by a LineHandler to end Run or Scan without error.
var ErrStop = errors.New("watcher: stop")

// LineHandler receives one complete line, without its line terminator.
type LineHandler func(line string) error

// maxLineSize bounds a single status line.
const maxLineSize = 1024 * 1024

// Options configures a Follower.
type Options struct {
	// SkipExisting starts at the end of the file instead of replaying
	// what is already there.
	SkipExisting bool
	// Logger receives watch errors and lifecycle messages.
	// Default: logging.NopLogger()
	Logger *logging.Logger
}

// Follower tails one file. All handler calls happen on the goroutine that
// called Run.
type Follower struct {
	path    string
	handler LineHandler
	opts    Options
	logger  *logging.Logger

	file    *os.File
	reader  *bufio.Reader
	offset  int64
	partial strings.Builder
}

// New creates a Follower for path.
func New(path string, handler LineHandler, opts Options) *Follower {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Follower{
		path:    filepath.Clean(path),
		handler: handler,
		opts:    opts,
		logger:  logger.With("path", path),
	}
}

// Run reads the file and then waits for appended lines. It returns nil when
// the handler returns ErrStop or the file is removed, and ctx.Err() when the
// context is cancelled.
func (f *Follower) Run(ctx context.Context) error {
	if err := f.open(); err != nil {
		return err
	}
	defer func() { _ = f.file.Close() }()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	// Watch the directory so removal and rename of the file are seen.
	if err := w.Add(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(f.path), err)
	}

	if stop, err := f.drain(); stop || err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != f.path {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Write|fsnotify.Create) != 0:
				if stop, err := f.drain(); stop || err != nil {
					return err
				}
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				f.logger.Info("log file removed, stopping")
				_, err := f.flush()
				return err
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			f.logger.Warn("watch error", "error", err.Error())
		}
	}
}

func (f *Follower) open() error {
	file, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}

	if f.opts.SkipExisting {
		offset, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			_ = file.Close()
			return fmt.Errorf("seek log: %w", err)
		}
		f.offset = offset
	}

	f.file = file
	f.reader = bufio.NewReader(file)
	return nil
}

// drain reads every complete line currently available. The boolean is true
// when the handler asked to stop.
func (f *Follower) drain() (bool, error) {
	if err := f.checkTruncated(); err != nil {
		return false, err
	}

	for {
		chunk, err := f.reader.ReadString('\n')
		f.offset += int64(len(chunk))

		if err != nil {
			// Keep the incomplete tail until its newline arrives.
			f.partial.WriteString(chunk)
			if f.partial.Len() > maxLineSize {
				f.logger.Warn("discarding oversized line", "bytes", f.partial.Len())
				f.partial.Reset()
			}
			if errors.Is(err, io.EOF) {
				return false, nil
			}
			return false, fmt.Errorf("read log: %w", err)
		}

		if f.partial.Len() > 0 {
			f.partial.WriteString(chunk)
			chunk = f.partial.String()
			f.partial.Reset()
		}

		if stop, err := f.deliver(chunk); stop || err != nil {
			return stop, err
		}
	}
}

// flush delivers a trailing line that never got its newline.
func (f *Follower) flush() (bool, error) {
	if stop, err := f.drain(); stop || err != nil {
		return stop, err
	}
	if f.partial.Len() == 0 {
		return false, nil
	}
	line := f.partial.String()
	f.partial.Reset()
	return f.deliver(line)
}

// checkTruncated rewinds when the file shrank, as happens on log rotation
// by copy-truncate.
func (f *Follower) checkTruncated() error {
	info, err := f.file.Stat()
	if err != nil {
		return fmt.Errorf("stat log: %w", err)
	}
	if info.Size() >= f.offset {
		return nil
	}

	f.logger.Info("log file truncated, rewinding", "old_offset", f.offset, "size", info.Size())
	if _, err := f.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek log: %w", err)
	}
	f.reader.Reset(f.file)
	f.offset = 0
	f.partial.Reset()
	return nil
}

func (f *Follower) deliver(raw string) (bool, error) {
	line := strings.TrimRight(raw, "\r\n")
	if strings.TrimSpace(line) == "" {
		return false, nil
	}
	if err := f.handler(line); err != nil {
		if errors.Is(err, ErrStop) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}

// Scan feeds every line of r to handler. It returns nil at end of input or
// when the handler returns ErrStop.
func Scan(r io.Reader, handler LineHandler) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := handler(line); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read log: %w", err)
	}
	return nil
}

package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// TailOptions selects the window of the log file to return. A negative
// Offset asks for the last Limit lines; a non-negative Offset resumes a
// previous read from that byte position. Follow with a positive Wait
// blocks until new lines land or the wait elapses.
type TailOptions struct {
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
}

// TailResult carries the lines read and the offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
}

const (
	maxLineBytes = 1 << 20
	followPoll   = 250 * time.Millisecond
)

// Tail reads a window of the log file at path. A missing file is not an
// error: the result is empty with offset zero so callers can poll again
// once the daemon creates the file.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TailResult{}, nil
		}
		return TailResult{Offset: opts.Offset}, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return TailResult{Offset: opts.Offset}, fmt.Errorf("log path %q is a directory", path)
	}

	wait := opts.Wait
	if wait < 0 {
		wait = 0
	}

	var result TailResult
	if opts.Offset < 0 {
		result, err = tailLast(path, opts.Limit)
	} else {
		offset := opts.Offset
		if offset > info.Size() {
			offset = info.Size()
		}
		result, err = readSegment(path, offset)
	}
	if err != nil {
		return result, err
	}

	if opts.Follow && wait > 0 && len(result.Lines) == 0 {
		return pollForLines(ctx, path, result.Offset, wait)
	}
	return result, nil
}

// tailLast returns the final limit lines of the file and the end offset.
// A limit of zero skips reading and just reports the end of the file, so
// follow mode can start at the tail without replaying history.
func tailLast(path string, limit int) (TailResult, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TailResult{}, nil
		}
		return TailResult{}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return TailResult{}, fmt.Errorf("seek log file: %w", err)
		}
		return TailResult{Offset: end}, nil
	}

	// Single forward pass keeping only the trailing window. Log files are
	// bounded by the retention sweep, so this stays cheap without the
	// complexity of scanning backwards.
	window := make([]string, 0, limit)
	scanner := newLineScanner(file)
	for scanner.Scan() {
		if len(window) == limit {
			copy(window, window[1:])
			window = window[:limit-1]
		}
		window = append(window, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return TailResult{}, fmt.Errorf("read log file: %w", err)
	}

	end, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return TailResult{}, fmt.Errorf("seek log file: %w", err)
	}
	return TailResult{Lines: window, Offset: end}, nil
}

// readSegment returns every complete line from offset to the current end
// of the file, along with the offset just past the last line consumed.
func readSegment(path string, offset int64) (TailResult, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TailResult{}, nil
		}
		return TailResult{Offset: offset}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return TailResult{Offset: offset}, fmt.Errorf("seek log file: %w", err)
	}

	var lines []string
	scanner := newLineScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return TailResult{Offset: offset}, fmt.Errorf("read log file: %w", err)
	}

	end, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return TailResult{Offset: offset}, fmt.Errorf("determine log offset: %w", err)
	}
	return TailResult{Lines: lines, Offset: end}, nil
}

// pollForLines re-reads from offset until lines appear, the wait elapses,
// or ctx is cancelled. The final offset is always reported so the caller
// can resume even from an empty poll.
func pollForLines(ctx context.Context, path string, offset int64, wait time.Duration) (TailResult, error) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(followPoll)
	defer ticker.Stop()

	for {
		result, err := readSegment(path, offset)
		if err != nil {
			return result, err
		}
		if len(result.Lines) > 0 || time.Now().After(deadline) {
			return result, nil
		}
		offset = result.Offset

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-ticker.C:
		}
	}
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return scanner
}

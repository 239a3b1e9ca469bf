package logutil

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

const (
	LogFileName  = "xshot_debug.log"
	maxSizeBytes = 10 * 1024 * 1024 // 10 MB
	maxArchives  = 3
)

type Options struct {
	// FileLogging writes to Dir/xshot_debug.log with size-based rotation.
	FileLogging bool
	// Dir defaults to the working directory.
	Dir string
	// Stderr mirrors log output to stderr; without it and without file
	// logging, logs are discarded to keep the terminal clean.
	Stderr bool
}

// Setup configures the standard logger. The returned closer flushes and
// closes the log file; it is never nil.
func Setup(opts Options) io.Closer {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var outputs []io.Writer
	var closer io.Closer = nopCloser{}
	if opts.FileLogging {
		w, err := openRotating(filepath.Join(opts.Dir, LogFileName), maxSizeBytes)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		} else {
			outputs = append(outputs, w)
			closer = w
		}
	}
	if opts.Stderr {
		outputs = append(outputs, os.Stderr)
	}

	switch len(outputs) {
	case 0:
		log.SetOutput(io.Discard)
	case 1:
		log.SetOutput(outputs[0])
	default:
		log.SetOutput(io.MultiWriter(outputs...))
	}
	return closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// rotatingWriter keeps path under limit bytes by shifting it to .1, .2, .3
// (oldest discarded).
type rotatingWriter struct {
	mu    sync.Mutex
	path  string
	limit int64
	f     *os.File
}

func openRotating(path string, limit int64) (*rotatingWriter, error) {
	w := &rotatingWriter{path: path, limit: limit}
	w.rotateIfNeeded(0)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, err
	}
	w.f = f
	return w, nil
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return 0, os.ErrClosed
	}
	// naive rotation check per write
	if st, err := w.f.Stat(); err == nil && st.Size()+int64(len(p)) > w.limit {
		_ = w.f.Close()
		w.rotateIfNeeded(int64(len(p)))
		nf, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			w.f = nil
			return 0, err
		}
		w.f = nf
	}
	return w.f.Write(p)
}

func (w *rotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}

func (w *rotatingWriter) rotateIfNeeded(pending int64) {
	st, err := os.Stat(w.path)
	if err != nil || st.Size()+pending <= w.limit {
		return
	}
	_ = os.Remove(w.archiveName(maxArchives))
	for i := maxArchives - 1; i >= 1; i-- {
		_ = os.Rename(w.archiveName(i), w.archiveName(i+1))
	}
	_ = os.Rename(w.path, w.archiveName(1))
}

func (w *rotatingWriter) archiveName(n int) string { return fmt.Sprintf("%s.%d", w.path, n) }

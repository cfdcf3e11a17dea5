package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"sync"
)

const defaultMaxLogSize = 2 * 1024 * 1024 // 2MB

type RotatingWriter struct {
	mu      sync.Mutex
	file    *os.File
	path    string
	size    int64
	maxSize int64
	backups int
}

// Setup tees the standard logger to stdout and a size-rotated file.
// LOG_MAX_BYTES and LOG_BACKUPS override the defaults.
func Setup(logPath string) (*RotatingWriter, error) {
	maxSize := int64(envInt("LOG_MAX_BYTES", defaultMaxLogSize))
	backups := envInt("LOG_BACKUPS", 1)

	rw, err := NewRotatingWriter(logPath, maxSize, backups)
	if err != nil {
		return nil, err
	}

	multi := io.MultiWriter(os.Stdout, rw)
	log.SetOutput(multi)

	return rw, nil
}

func NewRotatingWriter(logPath string, maxSize int64, backups int) (*RotatingWriter, error) {
	if backups < 1 {
		backups = 1
	}

	// Truncate if too large on startup
	if info, err := os.Stat(logPath); err == nil && info.Size() > maxSize {
		os.Truncate(logPath, 0)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	info, _ := f.Stat()
	size := int64(0)
	if info != nil {
		size = info.Size()
	}

	return &RotatingWriter{
		file:    f,
		path:    logPath,
		size:    size,
		maxSize: maxSize,
		backups: backups,
	}, nil
}

func (w *RotatingWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err = w.file.Write(p)
	w.size += int64(n)

	if w.size > w.maxSize {
		w.rotate()
	}

	return n, err
}

// rotate shifts path.N-1 -> path.N down to path -> path.1.
func (w *RotatingWriter) rotate() {
	w.file.Close()

	os.Remove(w.backupName(w.backups))
	for i := w.backups - 1; i >= 1; i-- {
		os.Rename(w.backupName(i), w.backupName(i+1))
	}
	os.Rename(w.path, w.backupName(1))

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return
	}

	w.file = f
	w.size = 0
}

func (w *RotatingWriter) backupName(i int) string {
	return fmt.Sprintf("%s.%d", w.path, i)
}

func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return def
}

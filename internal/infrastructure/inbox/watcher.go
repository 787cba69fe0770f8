package inbox

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kirillkom/compliance-navigator/internal/core/domain"
)

// DefaultExtensions are the file types the extractor understands.
var DefaultExtensions = []string{".pdf", ".png", ".jpg", ".jpeg", ".txt"}

// Watcher emits files dropped into a directory once they stop changing.
type Watcher struct {
	dir        string
	extensions map[string]struct{}
	settle     time.Duration
	maxBytes   int64
	logger     *slog.Logger
}

type Option func(*Watcher)

func WithExtensions(exts ...string) Option {
	return func(w *Watcher) {
		w.extensions = make(map[string]struct{}, len(exts))
		for _, ext := range exts {
			w.extensions[strings.ToLower(ext)] = struct{}{}
		}
	}
}

// WithSettle sets how long a file must be quiet before it is emitted.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

func WithMaxBytes(n int64) Option {
	return func(w *Watcher) {
		if n > 0 {
			w.maxBytes = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func New(dir string, opts ...Option) *Watcher {
	w := &Watcher{
		dir:      dir,
		settle:   500 * time.Millisecond,
		maxBytes: 10 << 20,
		logger:   slog.Default(),
	}
	WithExtensions(DefaultExtensions...)(w)
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch starts watching the directory. The returned channel is closed when
// ctx is cancelled or the underlying watcher fails.
func (w *Watcher) Watch(ctx context.Context) (<-chan domain.UploadedFile, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(w.dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", w.dir, err)
	}

	out := make(chan domain.UploadedFile, 16)
	go w.loop(ctx, fsw, out)
	return out, nil
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, out chan<- domain.UploadedFile) {
	defer close(out)
	defer fsw.Close()

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !w.accepts(event.Name) {
				continue
			}
			pending[event.Name] = time.Now()
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("inbox.watch.error", "dir", w.dir, "error", err)
		case now := <-ticker.C:
			for path, seen := range pending {
				if now.Sub(seen) < w.settle {
					continue
				}
				delete(pending, path)
				file, err := w.load(path)
				if err != nil {
					w.logger.Warn("inbox.file.skipped", "path", path, "error", err)
					continue
				}
				select {
				case out <- file:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

func (w *Watcher) accepts(path string) bool {
	_, ok := w.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

func (w *Watcher) load(path string) (domain.UploadedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.UploadedFile{}, err
	}
	if info.IsDir() {
		return domain.UploadedFile{}, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > w.maxBytes {
		return domain.UploadedFile{}, domain.WrapError(domain.ErrFileTooLarge, "inbox.load", fmt.Errorf("%d bytes", info.Size()))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.UploadedFile{}, err
	}
	return domain.UploadedFile{
		Name:     filepath.Base(path),
		Size:     int64(len(data)),
		MimeType: mimeType(path, data),
		Data:     data,
	}, nil
}

func mimeType(path string, data []byte) string {
	t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if t == "" {
		t = http.DetectContentType(data)
	}
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	return t
}

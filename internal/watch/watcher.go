// Package watch reports changes in a build context so the pipeline can rerun.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Change is one debounced burst of file system events.
type Change struct {
	Paths []string
	At    time.Time
}

// Config contains configuration for the watcher.
type Config struct {
	// Dir is the root directory to watch, usually the build context.
	Dir string

	// Extra are single files outside Dir that also trigger a change, such as
	// a build-file or compose descriptor kept elsewhere.
	Extra []string

	// Ignore are base-name patterns skipped anywhere below Dir.
	Ignore []string

	// Debounce is how long the watcher waits for events to settle.
	Debounce time.Duration
}

// DefaultConfig returns a configuration ignoring VCS and editor noise and
// the output directory, whose writes would otherwise retrigger the build.
func DefaultConfig(dir, outputDir string) *Config {
	ignore := []string{".git", ".idea", ".vscode", "node_modules", "*.swp", "*~", ".#*"}
	if outputDir != "" {
		ignore = append(ignore, filepath.Base(filepath.Clean(outputDir)))
	}
	return &Config{
		Dir:      dir,
		Ignore:   ignore,
		Debounce: 500 * time.Millisecond,
	}
}

// Watcher watches a directory tree for changes.
type Watcher struct {
	config  *Config
	watcher *fsnotify.Watcher
	changes chan Change
	errors  chan error

	mu      sync.Mutex
	pending map[string]bool
	timer   *time.Timer
}

// New creates a watcher and registers every directory below config.Dir.
func New(config *Config) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		config:  config,
		watcher: fsWatcher,
		changes: make(chan Change, 1),
		errors:  make(chan error, 10),
		pending: make(map[string]bool),
	}

	if err := w.addRecursive(config.Dir); err != nil {
		fsWatcher.Close()
		return nil, err
	}
	for _, f := range config.Extra {
		// The parent directory is watched; events are filtered to the file.
		if err := fsWatcher.Add(filepath.Dir(f)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			fsWatcher.Close()
			return nil, err
		}
	}
	return w, nil
}

// Run processes events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

// Changes returns the channel of debounced changes. A burst arriving while
// the previous change is still unread is merged into the next one.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Errors returns the channel of watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// addRecursive adds a directory and all subdirectories to the watcher.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.ignored(d.Name()) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return
	}
	if !w.relevant(event.Name) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = w.addRecursive(event.Name)
		}
	}

	w.debounce(event.Name)
}

// debounce collects paths and emits them once no event arrived for the
// configured interval.
func (w *Watcher) debounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[path] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.config.Debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	clear(w.pending)
	w.mu.Unlock()

	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)

	select {
	case w.changes <- Change{Paths: paths, At: time.Now()}:
	default:
		// A change is already queued; the rebuild it triggers covers these.
	}
}

// relevant reports whether path is inside the watched tree and not ignored,
// or is one of the extra files.
func (w *Watcher) relevant(path string) bool {
	clean := filepath.Clean(path)
	for _, f := range w.config.Extra {
		if filepath.Clean(f) == clean {
			return true
		}
	}

	rel, err := filepath.Rel(w.config.Dir, clean)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if w.ignored(part) {
			return false
		}
	}
	return true
}

func (w *Watcher) ignored(name string) bool {
	for _, pattern := range w.config.Ignore {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

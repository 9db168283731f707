package theme

import (
	"log/slog"
	"sync"
	"time"

	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/monolog/internal/config"
	"github.com/jmylchreest/monolog/internal/watch"
)

// Loader owns the application CSS provider. All methods except
// UpdateConfig must be called on the GTK main thread.
type Loader struct {
	mu        sync.Mutex
	logger    *slog.Logger
	provider  *gtk.CSSProvider
	name      string
	theme     *Theme
	durations []time.Duration
	watcher   *watch.FileWatcher
}

// NewLoader creates a theme loader. GTK must be initialised.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger:   logger,
		provider: gtk.NewCSSProvider(),
	}
}

// Load resolves a theme by name or path and installs it. An unknown theme
// installs the default and returns the lookup error.
func (l *Loader) Load(name string) error {
	t, err := Resolve(name)
	if err != nil {
		l.logger.Warn("theme not found, using default", "theme", name, "error", err)
	}

	l.mu.Lock()
	l.name = name
	l.theme = t
	l.mu.Unlock()

	l.reload()
	l.logger.Info("loaded theme", "name", t.Name, "path", t.Path)
	return err
}

// Apply installs the provider on a display, the default display if nil.
func (l *Loader) Apply(display *gdk.Display) {
	if display == nil {
		display = gdk.DisplayGetDefault()
	}
	if display == nil {
		l.logger.Warn("no display available, cannot apply theme")
		return
	}

	gtk.StyleContextAddProviderForDisplay(display, l.provider, gtk.STYLE_PROVIDER_PRIORITY_APPLICATION)
	l.logger.Debug("applied theme to display", "name", l.CurrentTheme())
}

// Require ensures a rule exists for d and returns the class that selects it.
func (l *Loader) Require(d time.Duration) string {
	class := DurationClass(d)

	l.mu.Lock()
	for _, have := range l.durations {
		if have.Milliseconds() == d.Milliseconds() {
			l.mu.Unlock()
			return class
		}
	}
	l.durations = append(l.durations, d)
	l.mu.Unlock()

	l.reload()
	return class
}

func (l *Loader) reload() {
	l.mu.Lock()
	css := Stylesheet(l.theme, l.durations)
	l.mu.Unlock()

	l.provider.LoadFromString(css)
}

// StartHotReload watches a file-backed theme and reapplies it on change.
func (l *Loader) StartHotReload() error {
	l.mu.Lock()
	t := l.theme
	l.mu.Unlock()

	if t == nil || t.Path == "" {
		l.logger.Debug("not starting hot-reload for bundled theme")
		return nil
	}

	w, err := watch.NewFileWatcher(t.Path, func([]byte) {
		glib.IdleAdd(func() {
			changed, err := t.Reload()
			if err != nil {
				l.logger.Warn("failed to reload theme", "path", t.Path, "error", err)
				return
			}
			if changed {
				l.reload()
				l.logger.Info("hot-reloaded theme", "name", t.Name)
			}
		})
	}, l.logger)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}

	l.StopHotReload()
	l.mu.Lock()
	l.watcher = w
	l.mu.Unlock()
	return nil
}

// StopHotReload stops watching the theme file.
func (l *Loader) StopHotReload() {
	l.mu.Lock()
	w := l.watcher
	l.watcher = nil
	l.mu.Unlock()

	if w != nil {
		_ = w.Stop()
	}
}

// UpdateConfig switches theme when the configured one changes.
// Safe to call from any goroutine.
func (l *Loader) UpdateConfig(cfg *config.Config) {
	l.mu.Lock()
	same := cfg.Display.Theme == l.name
	l.mu.Unlock()
	if same {
		return
	}

	glib.IdleAdd(func() {
		_ = l.Load(cfg.Display.Theme)
		if err := l.StartHotReload(); err != nil {
			l.logger.Warn("failed to watch theme", "error", err)
		}
	})
}

// Provider returns the underlying CSS provider.
func (l *Loader) Provider() *gtk.CSSProvider {
	return l.provider
}

// CurrentTheme returns the name of the loaded theme.
func (l *Loader) CurrentTheme() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.theme == nil {
		return ""
	}
	return l.theme.Name
}

package daemon

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/monolog/internal/clock"
	"github.com/jmylchreest/monolog/internal/dbus"
)

// DefaultMinInterval is how long the same internal notice is suppressed for.
const DefaultMinInterval = 5 * time.Second

// internalTimeout is the expire timeout given to internal notices, in ms.
const internalTimeout = 3000

// InternalNotifier shows notices about the daemon itself through the overlay.
// Repeats of the same key are rate limited.
type InternalNotifier struct {
	mu     sync.Mutex
	logger *slog.Logger
	clock  clock.Clock

	handler dbus.NoticeHandler

	lastNotify  map[string]time.Time
	minInterval time.Duration

	enabled bool
}

// NewInternalNotifier creates a new InternalNotifier.
func NewInternalNotifier(clk clock.Clock, logger *slog.Logger) *InternalNotifier {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &InternalNotifier{
		logger:      logger,
		clock:       clk,
		lastNotify:  make(map[string]time.Time),
		minInterval: DefaultMinInterval,
		enabled:     true,
	}
}

// SetHandler sets where internal notices are delivered, normally Presenter.Notify.
func (n *InternalNotifier) SetHandler(handler dbus.NoticeHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handler = handler
}

// SetEnabled enables or disables internal notices.
func (n *InternalNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between notices with the same key.
func (n *InternalNotifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Notify delivers a notice unless one with the same key was sent within
// the minimum interval. Reports whether it was delivered.
func (n *InternalNotifier) Notify(key, summary, body string) bool {
	n.mu.Lock()
	if !n.enabled {
		n.mu.Unlock()
		return false
	}
	if n.handler == nil {
		n.mu.Unlock()
		n.logger.Debug("internal notice skipped: no handler", "summary", summary)
		return false
	}

	now := n.clock.Now()
	if last, ok := n.lastNotify[key]; ok && now.Sub(last) < n.minInterval {
		n.mu.Unlock()
		n.logger.Debug("internal notice rate-limited", "key", key)
		return false
	}
	n.lastNotify[key] = now
	handler := n.handler
	n.mu.Unlock()

	n.logger.Debug("sending internal notice", "key", key, "summary", summary)
	handler(dbus.Notice{
		AppName:       "monologd",
		Summary:       summary,
		Body:          body,
		ExpireTimeout: internalTimeout,
	})
	return true
}

// NotifyConfigReloaded reports a successful config reload.
func (n *InternalNotifier) NotifyConfigReloaded() {
	n.Notify("config-reload", "Configuration Reloaded", "monolog configuration has been reloaded.")
}

// NotifyConfigError reports a config file that failed to load.
func (n *InternalNotifier) NotifyConfigError(err error) {
	n.Notify("config-error", "Configuration Error", "Failed to reload configuration: "+err.Error())
}

// NotifyAudioError reports a chime that could not be loaded.
func (n *InternalNotifier) NotifyAudioError(err error) {
	n.Notify("audio-error", "Audio Error", "Failed to load chime: "+err.Error())
}

// NotifyStartup announces the daemon.
func (n *InternalNotifier) NotifyStartup(version string) {
	n.Notify("startup", "monologd Started", "Overlay daemon v"+version+" is now running.")
}

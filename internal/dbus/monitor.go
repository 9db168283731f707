package dbus

import (
	"fmt"
	"hash/fnv"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

// Monitor passively observes Notify calls without claiming the bus name,
// so it can run alongside another notification daemon.
type Monitor struct {
	conn   *dbus.Conn
	logger *slog.Logger

	onNotice NoticeHandler
}

// NewMonitor creates a new notification monitor.
func NewMonitor(logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		logger: logger,
	}
}

// SetNoticeHandler sets the callback for observed notices.
func (m *Monitor) SetNoticeHandler(handler NoticeHandler) {
	m.onNotice = handler
}

// Start connects to the session bus and begins monitoring.
func (m *Monitor) Start() error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	m.conn = conn

	rules := []string{
		"type='method_call',interface='org.freedesktop.Notifications',member='Notify'",
	}

	err = conn.BusObject().Call(
		"org.freedesktop.DBus.Monitoring.BecomeMonitor",
		0,
		rules,
		uint32(0),
	).Err
	if err != nil {
		// Older buses lack BecomeMonitor; fall back to eavesdropping
		m.logger.Warn("BecomeMonitor not available, trying AddMatch", "error", err)
		err = conn.BusObject().Call(
			"org.freedesktop.DBus.AddMatch",
			0,
			rules[0]+",eavesdrop='true'",
		).Err
		if err != nil {
			_ = conn.Close()
			return fmt.Errorf("failed to add match rule (eavesdrop may require permissions): %w", err)
		}
	}

	m.logger.Info("started D-Bus notification monitor")
	go m.processMessages()
	return nil
}

// processMessages reads eavesdropped messages until the connection closes.
func (m *Monitor) processMessages() {
	ch := make(chan *dbus.Message, 100)
	m.conn.Eavesdrop(ch)

	for msg := range ch {
		m.handleMessage(msg)
	}
}

func (m *Monitor) handleMessage(msg *dbus.Message) {
	if msg.Type != dbus.TypeMethodCall {
		return
	}
	if iface, ok := msg.Headers[dbus.FieldInterface]; !ok || iface.Value() != DBusInterface {
		return
	}
	if member, ok := msg.Headers[dbus.FieldMember]; !ok || member.Value() != "Notify" {
		return
	}

	n, err := parseNotify(msg.Body)
	if err != nil {
		m.logger.Warn("ignoring Notify call", "error", err)
		return
	}
	if n.ID == 0 {
		// The server's reply carrying the real ID is not observed
		n.ID = monitorID(n)
	}

	m.logger.Debug("captured notification", "app", n.AppName, "summary", n.Summary, "id", n.ID)
	if m.onNotice != nil {
		m.onNotice(n)
	}
}

// monitorID derives a stable pseudo-ID from the notice content.
func monitorID(n Notice) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(n.AppName))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(n.Summary))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(n.Body))
	return h.Sum32()
}

// Stop closes the monitoring connection.
func (m *Monitor) Stop() error {
	if m.conn != nil {
		return m.conn.Close()
	}
	return nil
}

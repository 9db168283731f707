package dbus

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

// CloseHandler is called when CloseNotification is requested.
type CloseHandler func(id uint32)

// NotificationServer serves org.freedesktop.Notifications, routing every
// Notify call to a single overlay.
type NotificationServer struct {
	conn   *dbus.Conn
	logger *slog.Logger

	nextID atomic.Uint32

	onNotice NoticeHandler
	onClose  CloseHandler

	mu      sync.RWMutex
	active  map[uint32]bool
	info    ServerInfo
	running bool
}

// NewNotificationServer creates a new NotificationServer.
func NewNotificationServer(logger *slog.Logger) *NotificationServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationServer{
		logger: logger,
		active: make(map[uint32]bool),
		info:   DefaultServerInfo(),
	}
}

// SetNoticeHandler sets the handler called for each Notify call.
func (s *NotificationServer) SetNoticeHandler(handler NoticeHandler) {
	s.onNotice = handler
}

// SetCloseHandler sets the handler called when CloseNotification is requested.
func (s *NotificationServer) SetCloseHandler(handler CloseHandler) {
	s.onClose = handler
}

// Start connects to the session bus, exports the service and claims the name.
func (s *NotificationServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("server already running")
	}

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	if err := conn.Export(s, DBusPath, DBusInterface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: DBusPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    DBusInterface,
				Methods: introspect.Methods(s),
				Signals: []introspect.Signal{
					{
						Name: "NotificationClosed",
						Args: []introspect.Arg{
							{Name: "id", Type: "u"},
							{Name: "reason", Type: "u"},
						},
					},
				},
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), DBusPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(DBusBusName, dbus.NameFlagDoNotQueue|dbus.NameFlagReplaceExisting)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", DBusBusName)
	}

	s.conn = conn
	s.running = true
	s.logger.Info("D-Bus notification server started", "interface", DBusInterface, "path", DBusPath)
	return nil
}

// Stop releases the bus name. The shared session connection stays open.
func (s *NotificationServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if _, err := s.conn.ReleaseName(DBusBusName); err != nil {
		s.logger.Warn("failed to release bus name", "error", err)
	}
	s.logger.Info("D-Bus notification server stopped")
	return nil
}

// GetCapabilities implements the D-Bus method GetCapabilities() -> as.
func (s *NotificationServer) GetCapabilities() ([]string, *dbus.Error) {
	return ServerCapabilities, nil
}

// GetServerInformation implements GetServerInformation() -> (ssss).
func (s *NotificationServer) GetServerInformation() (string, string, string, string, *dbus.Error) {
	return s.info.Name, s.info.Vendor, s.info.Version, s.info.SpecVersion, nil
}

// Notify implements Notify(susssasa{sv}i) -> u.
func (s *NotificationServer) Notify(
	appName string,
	replacesID uint32,
	appIcon string,
	summary string,
	body string,
	actions []string,
	hints map[string]dbus.Variant,
	expireTimeout int32,
) (uint32, *dbus.Error) {
	id := replacesID
	if id == 0 {
		id = s.nextID.Add(1)
	}

	s.mu.Lock()
	s.active[id] = true
	s.mu.Unlock()

	s.logger.Debug("Notify called", "app_name", appName, "summary", summary, "id", id)
	if s.onNotice != nil {
		s.onNotice(Notice{
			ID:            id,
			AppName:       appName,
			Summary:       summary,
			Body:          body,
			ExpireTimeout: expireTimeout,
		})
	}
	return id, nil
}

// CloseNotification implements CloseNotification(u).
func (s *NotificationServer) CloseNotification(id uint32) *dbus.Error {
	if !s.release(id) {
		return nil
	}
	if s.onClose != nil {
		s.onClose(id)
	}
	if err := s.emitClosed(id, CloseReasonClosed); err != nil {
		s.logger.Warn("failed to emit NotificationClosed", "id", id, "error", err)
	}
	return nil
}

// Closed reports that the overlay finished closing notice id.
func (s *NotificationServer) Closed(id uint32, reason CloseReason) {
	if !s.release(id) {
		return
	}
	if err := s.emitClosed(id, reason); err != nil {
		s.logger.Warn("failed to emit NotificationClosed", "id", id, "error", err)
	}
}

// IsActive returns true if the notification ID is currently active.
func (s *NotificationServer) IsActive(id uint32) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active[id]
}

func (s *NotificationServer) release(id uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active[id] {
		return false
	}
	delete(s.active, id)
	return true
}

func (s *NotificationServer) emitClosed(id uint32, reason CloseReason) error {
	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()
	if conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}

	s.logger.Debug("emitting NotificationClosed", "id", id, "reason", reason.String())
	return conn.Emit(DBusPath, DBusInterface+".NotificationClosed", id, uint32(reason))
}

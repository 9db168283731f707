package dbus

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DBusInterface is the notification interface name.
	DBusInterface = "org.freedesktop.Notifications"
	// DBusPath is the notification object path.
	DBusPath = "/org/freedesktop/Notifications"
	// DBusBusName is the bus name to claim.
	DBusBusName = "org.freedesktop.Notifications"
)

// CloseReason represents the reason for closing a notification.
// These values are defined by the freedesktop.org notification specification.
type CloseReason uint32

const (
	// CloseReasonExpired indicates the notification expired (timeout reached).
	CloseReasonExpired CloseReason = 1
	// CloseReasonDismissed indicates the user dismissed the notification.
	CloseReasonDismissed CloseReason = 2
	// CloseReasonClosed indicates the notification was closed via CloseNotification.
	CloseReasonClosed CloseReason = 3
	// CloseReasonUndefined covers notices replaced on screen by another.
	CloseReasonUndefined CloseReason = 4
)

// String returns the string representation of the close reason.
func (r CloseReason) String() string {
	switch r {
	case CloseReasonExpired:
		return "expired"
	case CloseReasonDismissed:
		return "dismissed"
	case CloseReasonClosed:
		return "closed"
	case CloseReasonUndefined:
		return "undefined"
	default:
		return "unknown"
	}
}

// Notice is the part of a Notify call an overlay displays.
type Notice struct {
	ID            uint32
	AppName       string
	Summary       string
	Body          string
	ExpireTimeout int32 // -1 = server default, 0 = never expire, otherwise ms
}

// NoticeHandler is called for every received notice.
type NoticeHandler func(n Notice)

// Content renders the notice for the overlay's content slot.
func (n Notice) Content() string {
	summary := strings.TrimSpace(n.Summary)
	body := strings.TrimSpace(n.Body)
	switch {
	case summary == "":
		return body
	case body == "":
		return summary
	default:
		return summary + "\n" + body
	}
}

// Linger returns how long the notice should stay visible.
// Zero means until dismissed.
func (n Notice) Linger(serverDefault time.Duration) time.Duration {
	switch {
	case n.ExpireTimeout < 0:
		return serverDefault
	case n.ExpireTimeout == 0:
		return 0
	default:
		return time.Duration(n.ExpireTimeout) * time.Millisecond
	}
}

// parseNotify converts the arguments of a Notify call:
// Notify(app_name, replaces_id, app_icon, summary, body, actions, hints, expire_timeout).
func parseNotify(body []interface{}) (Notice, error) {
	if len(body) < 8 {
		return Notice{}, fmt.Errorf("malformed Notify call: %d arguments", len(body))
	}

	var (
		n  Notice
		ok bool
	)
	if n.AppName, ok = body[0].(string); !ok {
		return Notice{}, fmt.Errorf("invalid app_name type %T", body[0])
	}
	if n.ID, ok = body[1].(uint32); !ok {
		return Notice{}, fmt.Errorf("invalid replaces_id type %T", body[1])
	}
	if n.Summary, ok = body[3].(string); !ok {
		return Notice{}, fmt.Errorf("invalid summary type %T", body[3])
	}
	if n.Body, ok = body[4].(string); !ok {
		return Notice{}, fmt.Errorf("invalid body type %T", body[4])
	}
	if timeout, ok := body[7].(int32); ok {
		n.ExpireTimeout = timeout
	} else {
		n.ExpireTimeout = -1
	}
	return n, nil
}

// ServerCapabilities lists the capabilities advertised when serving.
var ServerCapabilities = []string{"body"}

// ServerInfo holds the values returned by GetServerInformation.
type ServerInfo struct {
	Name        string
	Vendor      string
	Version     string
	SpecVersion string
}

// DefaultServerInfo returns the server information for monolog.
func DefaultServerInfo() ServerInfo {
	return ServerInfo{
		Name:        "monolog",
		Vendor:      "monolog",
		Version:     "dev",
		SpecVersion: "1.2",
	}
}

// Package dbus receives desktop notifications from the session bus, either by
// passively monitoring org.freedesktop.Notifications traffic or by serving the
// interface, and turns them into notices for an overlay.
package dbus

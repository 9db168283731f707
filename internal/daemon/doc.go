// Package daemon drives a single overlay from a stream of notices.
// It ties together notice intake, the linger timer, the opening chime,
// lifecycle event recording and configuration hot-reload.
package daemon

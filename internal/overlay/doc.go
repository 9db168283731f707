// Package overlay implements a floating notification panel with timed,
// cancelable fade transitions and symmetric open/close semantics.
package overlay

package events

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Formatter writes events to an output.
type Formatter interface {
	Format(w io.Writer, events []Event) error
}

// FormatType represents an event log format.
type FormatType string

const (
	FormatPlain FormatType = "plain"
	FormatJSON  FormatType = "json"
	FormatYAML  FormatType = "yaml"
)

// NewFormatter creates a formatter for the format type. Unknown types
// fall back to plain text.
func NewFormatter(format FormatType) Formatter {
	switch format {
	case FormatJSON:
		return JSONFormatter{}
	case FormatYAML:
		return YAMLFormatter{}
	default:
		return PlainFormatter{Now: time.Now}
	}
}

// JSONFormatter writes one JSON object per line.
type JSONFormatter struct{}

// Format writes events as JSON lines.
func (JSONFormatter) Format(w io.Writer, events []Event) error {
	encoder := json.NewEncoder(w)
	for _, e := range events {
		if err := encoder.Encode(e); err != nil {
			return err
		}
	}
	return nil
}

// YAMLFormatter writes events as a YAML sequence.
type YAMLFormatter struct{}

// Format writes events as YAML.
func (YAMLFormatter) Format(w io.Writer, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	encoder := yaml.NewEncoder(w)
	defer func() { _ = encoder.Close() }()
	return encoder.Encode(events)
}

// PlainFormatter writes one human-readable line per event.
type PlainFormatter struct {
	Now func() time.Time
}

// Format writes events as plain text with relative times.
func (f PlainFormatter) Format(w io.Writer, events []Event) error {
	for _, e := range events {
		if _, err := fmt.Fprintln(w, f.Line(e)); err != nil {
			return err
		}
	}
	return nil
}

// Line renders a single event.
func (f PlainFormatter) Line(e Event) string {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	return fmt.Sprintf("%-8s %-8s %s", e.Widget, e.Kind, humanize.RelTime(e.At, now(), "ago", "from now"))
}

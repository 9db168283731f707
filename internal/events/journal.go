package events

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// JournalSchemaVersion is the current journal schema version.
const JournalSchemaVersion = 1

// ErrJournalClosed is returned when operations are attempted on a closed journal.
var ErrJournalClosed = errors.New("journal is closed")

// journalHeader is the first line of the JSONL file.
type journalHeader struct {
	MonologSchemaVersion int   `json:"monolog_schema_version"`
	CreatedAt            int64 `json:"created_at"`
}

// Journal is an append-only JSONL file of lifecycle events.
type Journal struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	closed bool
}

// OpenJournal opens or creates the journal at path.
func OpenJournal(path string) (*Journal, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal %s: %w", path, err)
	}

	j := &Journal{path: path, file: file}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if info.Size() == 0 {
		if err := j.writeHeader(); err != nil {
			_ = file.Close()
			return nil, err
		}
	}
	return j, nil
}

func (j *Journal) writeHeader() error {
	data, err := json.Marshal(journalHeader{
		MonologSchemaVersion: JournalSchemaVersion,
		CreatedAt:            time.Now().Unix(),
	})
	if err != nil {
		return err
	}
	_, err = j.file.Write(append(data, '\n'))
	return err
}

// Path returns the journal file path.
func (j *Journal) Path() string {
	return j.path
}

// Append writes one event.
func (j *Journal) Append(e Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return ErrJournalClosed
	}

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = j.file.Write(append(data, '\n'))
	return err
}

// Record returns a Recorder notify function that appends each event.
// Write errors are passed to errs if it is non-nil.
func (j *Journal) Record(errs func(error)) func(Event) {
	return func(e Event) {
		if err := j.Append(e); err != nil && errs != nil {
			errs(err)
		}
	}
}

// Close releases the file handle.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	j.closed = true
	return j.file.Close()
}

// ReadJournal reads every event from the journal at path. Malformed lines
// are skipped. A missing file yields no events.
func ReadJournal(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return readJournal(f)
}

func readJournal(r io.Reader) ([]Event, error) {
	var events []Event
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		if lineNum == 1 {
			var header journalHeader
			if err := json.Unmarshal(line, &header); err == nil && header.MonologSchemaVersion > 0 {
				if header.MonologSchemaVersion > JournalSchemaVersion {
					return nil, fmt.Errorf("unsupported schema version %d (max: %d)",
						header.MonologSchemaVersion, JournalSchemaVersion)
				}
				continue
			}
		}

		var e Event
		if err := json.Unmarshal(line, &e); err != nil || e.Kind == "" {
			continue
		}
		events = append(events, e)
	}

	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("error reading journal: %w", err)
	}
	return events, nil
}

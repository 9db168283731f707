package events

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/monolog/internal/clock"
)

func TestJournal_AppendAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "events.jsonl")

	j, err := OpenJournal(path)
	require.NoError(t, err)
	assert.Equal(t, path, j.Path())

	for _, e := range sampleEvents() {
		require.NoError(t, j.Append(e))
	}
	require.NoError(t, j.Close())

	got, err := ReadJournal(path)
	require.NoError(t, err)
	require.Len(t, got, len(sampleEvents()))
	assert.Equal(t, KindOpening, got[0].Kind)
	assert.True(t, sampleEvents()[0].At.Equal(got[0].At))
}

func TestJournal_ReopenKeepsEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	j, err := OpenJournal(path)
	require.NoError(t, err)
	require.NoError(t, j.Append(sampleEvents()[0]))
	require.NoError(t, j.Close())

	j, err = OpenJournal(path)
	require.NoError(t, err)
	require.NoError(t, j.Append(sampleEvents()[1]))
	require.NoError(t, j.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "monolog_schema_version"))

	got, err := ReadJournal(path)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestJournal_AppendAfterClose(t *testing.T) {
	j, err := OpenJournal(filepath.Join(t.TempDir(), "events.jsonl"))
	require.NoError(t, err)
	require.NoError(t, j.Close())
	require.NoError(t, j.Close())

	assert.ErrorIs(t, j.Append(sampleEvents()[0]), ErrJournalClosed)
}

func TestJournal_RecordFromRecorder(t *testing.T) {
	j, err := OpenJournal(filepath.Join(t.TempDir(), "events.jsonl"))
	require.NoError(t, err)

	rec := NewRecorder(clock.NewFake(time.Unix(1700000000, 0)), 0)
	rec.SetNotify(j.Record(nil))
	rec.Record("presenter", KindOpening)
	rec.Record("presenter", KindOpened)
	require.NoError(t, j.Close())

	var errs []error
	rec.SetNotify(j.Record(func(err error) { errs = append(errs, err) }))
	rec.Record("presenter", KindClosing)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrJournalClosed)

	got, err := ReadJournal(j.Path())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "presenter", got[1].Widget)
	assert.Equal(t, KindOpened, got[1].Kind)
}

func TestReadJournal(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
		wantErr bool
	}{
		{"header only", `{"monolog_schema_version":1,"created_at":1}` + "\n", 0, false},
		{"skips malformed", `{"monolog_schema_version":1,"created_at":1}` + "\nnot json\n" +
			`{"id":"a","widget":"w","kind":"opened","at":"2023-11-14T22:13:20Z"}` + "\n\n", 1, false},
		{"no header", `{"id":"a","widget":"w","kind":"closed","at":"2023-11-14T22:13:20Z"}` + "\n", 1, false},
		{"future schema", `{"monolog_schema_version":99,"created_at":1}` + "\n", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "events.jsonl")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0600))

			got, err := ReadJournal(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestReadJournal_Missing(t *testing.T) {
	got, err := ReadJournal(filepath.Join(t.TempDir(), "nope.jsonl"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

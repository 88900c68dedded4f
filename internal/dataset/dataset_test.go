package dataset_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/winlist/internal/batch"
	"github.com/rshade/winlist/internal/dataset"
)

func TestColumns(t *testing.T) {
	records := []dataset.Record{
		{"name": "a", "id": 1},
		{"value": 2.5, "category": "x"},
	}
	assert.Equal(t, []string{"id", "category", "name", "value"}, dataset.Columns(records))
	assert.Empty(t, dataset.Columns(nil))
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{name: "nil", input: nil, want: ""},
		{name: "string", input: "abc", want: "abc"},
		{name: "float", input: 12.5, want: "12.5"},
		{name: "whole float", input: 3.0, want: "3"},
		{name: "int64", input: int64(-7), want: "-7"},
		{name: "bool", input: true, want: "true"},
		{name: "time", input: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), want: "2024-01-02T03:04:05Z"},
		{name: "slice", input: []int{1, 2}, want: "[1 2]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dataset.FormatValue(tt.input))
		})
	}
}

func TestFilter(t *testing.T) {
	records := []dataset.Record{
		{"id": "1", "name": "Compute Node"},
		{"id": "2", "name": "bucket", "category": "STORAGE"},
		{"id": "3", "value": 42.0},
	}

	assert.Len(t, dataset.Filter(records, ""), 3)
	assert.Len(t, dataset.Filter(records, "  "), 3)

	got := dataset.Filter(records, "storage")
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0]["id"])

	got = dataset.Filter(records, "42")
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0]["id"])

	assert.Empty(t, dataset.Filter(records, "nope"))
	assert.Len(t, records, 3, "input is not modified")
}

func TestLoad_Formats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "json array", file: "data.json", content: `[{"id":"a","v":1},{"id":"b","v":2}]`},
		{name: "ndjson", file: "data.ndjson", content: "{\"id\":\"a\",\"v\":1}\n\n{\"id\":\"b\",\"v\":2}\n"},
		{name: "jsonl", file: "data.jsonl", content: "{\"id\":\"a\",\"v\":1}\n{\"id\":\"b\",\"v\":2}"},
		{name: "yaml", file: "data.yml", content: "- id: a\n  v: 1\n- id: b\n  v: 2\n"},
		{name: "toml", file: "data.toml", content: "[[records]]\nid = \"a\"\nv = 1\n\n[[records]]\nid = \"b\"\nv = 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0600))

			records, err := dataset.Load(path)
			require.NoError(t, err)
			require.Len(t, records, 2)
			assert.Equal(t, "a", records[0]["id"])
			assert.Equal(t, "b", records[1]["id"])
			assert.Equal(t, "2", dataset.FormatValue(records[1]["v"]))
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := dataset.Load(filepath.Join(dir, "data.csv"))
	require.ErrorIs(t, err, dataset.ErrUnsupportedFormat)

	_, err = dataset.Load(filepath.Join(dir, "missing.json"))
	require.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.ndjson")
	require.NoError(t, os.WriteFile(bad, []byte("{\"id\":1}\n{oops\n"), 0600))
	_, err = dataset.Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestDecode_EmptyYAML(t *testing.T) {
	records, err := dataset.Decode(strings.NewReader(""), dataset.FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()

	a, err := dataset.Generate(ctx, 1234, dataset.GenerateOptions{Seed: 7, BatchSize: 100})
	require.NoError(t, err)
	require.Len(t, a, 1234)

	b, err := dataset.Generate(ctx, 1234, dataset.GenerateOptions{Seed: 7, BatchSize: 100, Concurrency: 1})
	require.NoError(t, err)
	assert.Equal(t, a, b, "same seed and batch size give the same records regardless of concurrency")

	ids := make(map[string]struct{}, len(a))
	for i, r := range a {
		id, ok := r["id"].(string)
		require.True(t, ok)
		assert.Len(t, id, 26)
		ids[id] = struct{}{}
		assert.Equal(t, fmt.Sprintf("item-%08d", i), r["name"])
	}
	assert.Len(t, ids, len(a), "ids are unique")
	assert.Less(t, a[0]["id"], a[1233]["id"], "ulids sort by creation time")
}

func TestGenerate_UUID(t *testing.T) {
	records, err := dataset.Generate(context.Background(), 3, dataset.GenerateOptions{IDFormat: dataset.IDFormatUUID})
	require.NoError(t, err)
	for _, r := range records {
		assert.Len(t, r["id"], 36)
	}
}

func TestGenerate_Errors(t *testing.T) {
	_, err := dataset.Generate(context.Background(), -1, dataset.GenerateOptions{})
	require.ErrorIs(t, err, dataset.ErrInvalidCount)

	_, err = dataset.Generate(context.Background(), 1, dataset.GenerateOptions{IDFormat: "serial"})
	require.ErrorIs(t, err, dataset.ErrUnsupportedFormat)

	empty, err := dataset.Generate(context.Background(), 0, dataset.GenerateOptions{})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestWriteNDJSON(t *testing.T) {
	records, err := dataset.Generate(context.Background(), 25, dataset.GenerateOptions{Seed: 1})
	require.NoError(t, err)

	var buf bytes.Buffer
	var last batch.Snapshot
	require.NoError(t, dataset.WriteNDJSON(context.Background(), &buf, records, 10, func(s batch.Snapshot) { last = s }))

	assert.True(t, last.Done())
	assert.Equal(t, 3, last.ProcessedBatches)

	back, err := dataset.Decode(&buf, dataset.FormatNDJSON)
	require.NoError(t, err)
	require.Len(t, back, 25)
	assert.Equal(t, records[24]["id"], back[24]["id"])
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteNDJSON_WriteError(t *testing.T) {
	records := []dataset.Record{{"id": "x"}}
	err := dataset.WriteNDJSON(context.Background(), failingWriter{}, records, 1, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	_, err = dataset.Generate(context.Background(), 1, dataset.GenerateOptions{BatchSize: -1})
	require.ErrorIs(t, err, batch.ErrInvalidBatchSize)
}

func TestFingerprint(t *testing.T) {
	a := []dataset.Record{{"id": "1", "name": "x"}, {"id": "2"}}
	b := []dataset.Record{{"name": "x", "id": "1"}, {"id": "2"}}
	c := []dataset.Record{{"id": "1", "name": "y"}, {"id": "2"}}

	assert.Equal(t, dataset.Fingerprint(a), dataset.Fingerprint(b))
	assert.NotEqual(t, dataset.Fingerprint(a), dataset.Fingerprint(c))
	assert.NotEqual(t, dataset.Fingerprint(nil), dataset.Fingerprint(a[:1]))
}

package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntry(t *testing.T) {
	entry := NewEntry("k", json.RawMessage(`{"a":1}`), time.Minute)
	assert.False(t, entry.Expired())
	assert.Greater(t, entry.Remaining(), 50*time.Second)
	assert.Less(t, entry.Age(), time.Second)

	entry.ExpiresAt = time.Now().Add(-time.Second)
	assert.True(t, entry.Expired())
	assert.Zero(t, entry.Remaining())
}

func TestGenerateKey(t *testing.T) {
	type query struct {
		Page   int    `json:"page"`
		Filter string `json:"filter"`
	}

	a, err := GenerateKey("page", query{Page: 1, Filter: "x"})
	require.NoError(t, err)
	b, err := GenerateKey("page", query{Page: 1, Filter: "x"})
	require.NoError(t, err)
	c, err := GenerateKey("page", query{Page: 2, Filter: "x"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, len("page-")+32)

	m1, err := GenerateKey("m", map[string]int{"b": 2, "a": 1})
	require.NoError(t, err)
	m2, err := GenerateKey("m", map[string]int{"a": 1, "b": 2})
	require.NoError(t, err)
	assert.Equal(t, m1, m2)

	_, err = GenerateKey("bad", func() {})
	require.Error(t, err)
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	store, err := NewFileStore(dir, true, time.Minute)
	require.NoError(t, err)
	assert.True(t, store.Enabled())
	assert.Equal(t, dir, store.Directory())
	assert.Equal(t, time.Minute, store.TTL())

	data := json.RawMessage(`{"hello":"world"}`)

	t.Run("SetAndGet", func(t *testing.T) {
		require.NoError(t, store.Set("a/b:c", data))

		entry, err := store.Get("a/b:c")
		require.NoError(t, err)
		assert.JSONEq(t, string(data), string(entry.Data))

		count, err := store.Count()
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := store.Get("nope")
		require.ErrorIs(t, err, ErrCacheNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete("a/b:c"))
		require.NoError(t, store.Delete("a/b:c"))
		_, err := store.Get("a/b:c")
		require.ErrorIs(t, err, ErrCacheNotFound)
	})

	t.Run("EmptyKey", func(t *testing.T) {
		require.ErrorIs(t, store.Set("", data), ErrInvalidCacheKey)
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, store.Set("k1", data))
		require.NoError(t, store.Set("k2", data))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), nil, 0600))

		require.NoError(t, store.Clear())
		count, err := store.Count()
		require.NoError(t, err)
		assert.Zero(t, count)
		assert.FileExists(t, filepath.Join(dir, "keep.txt"))
	})

	t.Run("Expired", func(t *testing.T) {
		short, err := NewFileStore(dir, true, -time.Second)
		require.NoError(t, err)
		require.NoError(t, short.Set("old", data))

		_, err = short.Get("old")
		require.ErrorIs(t, err, ErrCacheExpired)
		assert.NoFileExists(t, filepath.Join(dir, "old.json"))
	})

	t.Run("CleanupExpired", func(t *testing.T) {
		short, err := NewFileStore(dir, true, -time.Second)
		require.NoError(t, err)
		require.NoError(t, short.Set("stale", data))
		require.NoError(t, store.Set("fresh", data))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "corrupt.json"), []byte("{"), 0600))

		require.NoError(t, store.CleanupExpired())
		count, err := store.Count()
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("Disabled", func(t *testing.T) {
		disabled, err := NewFileStore("", false, time.Minute)
		require.NoError(t, err)
		assert.False(t, disabled.Enabled())
		require.ErrorIs(t, disabled.Set("k", data), ErrCacheDisabled)
		_, err = disabled.Get("k")
		require.ErrorIs(t, err, ErrCacheDisabled)
		require.ErrorIs(t, disabled.Clear(), ErrCacheDisabled)
	})
}

func TestJSONHelpers(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), true, time.Minute)
	require.NoError(t, err)

	type page struct {
		Rows  []string `json:"rows"`
		Total int      `json:"total"`
	}
	require.NoError(t, SetJSON(store, "p1", page{Rows: []string{"a"}, Total: 9}))

	got, entry, err := GetJSON[page](store, "p1")
	require.NoError(t, err)
	assert.Equal(t, page{Rows: []string{"a"}, Total: 9}, got)
	assert.Equal(t, "p1", entry.Key)

	require.NoError(t, store.Set("bad", json.RawMessage(`"string"`)))
	_, _, err = GetJSON[page](store, "bad")
	require.Error(t, err)
}

func TestSettings(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvCacheEnabled, "false")
	t.Setenv(EnvCacheDir, dir)
	t.Setenv(EnvTTLSeconds, "90")

	s := Settings{Enabled: true, TTL: time.Hour}.ApplyEnv()
	assert.False(t, s.Enabled)
	assert.Equal(t, dir, s.Directory)
	assert.Equal(t, 90*time.Second, s.TTL)

	store, err := s.Open()
	require.NoError(t, err)
	assert.False(t, store.Enabled())

	t.Setenv(EnvTTLSeconds, "forever")
	assert.Equal(t, time.Hour, Settings{TTL: time.Hour}.ApplyEnv().TTL)
}

func TestParseTTL(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{input: "300", want: 5 * time.Minute},
		{input: "1h30m", want: 90 * time.Minute},
		{input: "0", wantErr: true},
		{input: "9999h", wantErr: true},
		{input: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTTL(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "30s", FormatDuration(30*time.Second))
	assert.Equal(t, "5m", FormatDuration(5*time.Minute))
	assert.Equal(t, "2h", FormatDuration(2*time.Hour))
	assert.Equal(t, "2h30m", FormatDuration(2*time.Hour+30*time.Minute))
	assert.Equal(t, "3d", FormatDuration(72*time.Hour))
	assert.Equal(t, "3d2h", FormatDuration(74*time.Hour))
}

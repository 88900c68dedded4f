package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/winlist/internal/config"
	"github.com/rshade/winlist/internal/logging"
)

// isolate points the config directory at a temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.EnvHome, dir)
	for _, env := range []string{
		config.EnvConfigPath, config.EnvLogLevel, config.EnvLogFormat, config.EnvLogFile,
		config.EnvItemHeight, config.EnvBufferItems, config.EnvContainerHeight,
	} {
		t.Setenv(env, "")
	}
	config.ResetGlobalConfigForTest()
	t.Cleanup(config.ResetGlobalConfigForTest)
	return dir
}

func TestNew_DefaultsAreValid(t *testing.T) {
	cfg := config.New()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, config.CurrentVersion, cfg.Version)
	assert.Equal(t, 5, cfg.List.BufferItems)
	assert.Equal(t, "id", cfg.List.KeyField)
	assert.Equal(t, "100%", cfg.List.ContainerHeight)
	assert.Equal(t, 200, cfg.List.ResizeDebounceMs)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := config.Load(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.New().List, cfg.List)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`version: "1.2.0"
list:
  item_height: 3
  container_height: "50%"
  buffer_items: 2
  key_field: sku
logging:
  level: warn
`), 0600))

	t.Setenv(config.EnvBufferItems, "7")
	t.Setenv(config.EnvLogFormat, "json")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path())
	assert.Equal(t, 3, cfg.List.ItemHeight)
	assert.Equal(t, "50%", cfg.List.ContainerHeight)
	assert.Equal(t, 7, cfg.List.BufferItems)
	assert.Equal(t, "sku", cfg.List.KeyField)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
		wantErr error
	}{
		{name: "future major version", content: "version: 2.0.0\n", wantErr: config.ErrIncompatibleVersion},
		{name: "old version", content: "version: 0.9.0\n", wantErr: config.ErrIncompatibleVersion},
		{name: "garbage version", content: "version: banana\n", wantErr: config.ErrIncompatibleVersion},
		{name: "bad item height env", content: "", env: map[string]string{config.EnvItemHeight: "tall"}, wantErr: config.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := filepath.Join(dir, "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0600))

			_, err := config.Load(path)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("list: [unclosed"), 0600))

	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestSaveRoundTrip(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := config.New()
	cfg.Table.Sort = "value:desc"
	require.NoError(t, cfg.Save(path))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "value:desc", loaded.Table.Sort)
	assert.Equal(t, cfg.List, loaded.List)
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := config.New()
	cfg.List.ItemHeight = 0
	cfg.List.BufferItems = -1
	cfg.List.ContainerHeight = "tall"
	cfg.Table.PageSize = 0
	cfg.Table.Sort = "value:sideways"
	cfg.Logging.Level = "loud"
	cfg.Cache.TTLSeconds = -5

	err := cfg.Validate()
	require.ErrorIs(t, err, config.ErrInvalidConfig)
	for _, fragment := range []string{
		"list.item_height", "list.buffer_items", "list.container_height",
		"table.page_size", "table.sort", "logging.level", "cache.ttl_seconds",
	} {
		assert.Contains(t, err.Error(), fragment)
	}
}

func TestResolvePath(t *testing.T) {
	dir := isolate(t)

	path, err := config.ResolvePath("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), path)

	t.Setenv(config.EnvConfigPath, "/etc/winlist.yaml")
	path, err = config.ResolvePath("")
	require.NoError(t, err)
	assert.Equal(t, "/etc/winlist.yaml", path)

	path, err = config.ResolvePath("./local.yaml")
	require.NoError(t, err)
	assert.Equal(t, "./local.yaml", path)
}

func TestGlobalConfig(t *testing.T) {
	isolate(t)
	t.Setenv(config.EnvLogLevel, "debug")

	cfg := config.GetGlobalConfig()
	require.NotNil(t, cfg)
	assert.Same(t, cfg, config.GetGlobalConfig())
	assert.Equal(t, "debug", config.GetLogLevel())

	replacement := config.New()
	replacement.List.ResizeDebounceMs = 50
	config.SetGlobalConfig(replacement)
	assert.Equal(t, int64(50), config.GetResizeDebounce().Milliseconds())

	config.ResetGlobalConfigForTest()
	assert.NotSame(t, replacement, config.GetGlobalConfig())
}

func TestEnsureDirs(t *testing.T) {
	dir := isolate(t)

	require.NoError(t, config.EnsureConfigDir())
	stat, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, stat.IsDir())

	cfg := config.GetGlobalConfig()
	cfg.Logging.File = filepath.Join(dir, "logs", "sub", "winlist.log")
	require.NoError(t, config.EnsureLogDir())
	_, err = os.Stat(filepath.Join(dir, "logs", "sub"))
	require.NoError(t, err)

	cacheDir, err := config.GetCacheDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cache"), cacheDir)
}

func TestEnsureLogDir_FailsUnderAFile(t *testing.T) {
	dir := isolate(t)
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))

	config.GetGlobalConfig().Logging.File = filepath.Join(blocker, "sub", "winlist.log")
	assert.Error(t, config.EnsureLogDir())
}

func TestToLoggingConfig(t *testing.T) {
	lc := config.LoggingConfig{Level: "info", Format: "json"}
	out := lc.ToLoggingConfig(false)
	assert.Equal(t, logging.OutputStderr, out.Output)
	assert.Equal(t, "info", out.Level)

	lc.File = "/tmp/winlist.log"
	out = lc.ToLoggingConfig(true)
	assert.Equal(t, logging.OutputFile, out.Output)
	assert.Equal(t, "debug", out.Level)
	assert.True(t, out.Caller)
}

func TestGlobalConfig_WarnsAndFallsBack(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		env       map[string]string
		expectMsg string
		expectOp  string
	}{
		{
			name:      "malformed file",
			file:      "list: [unclosed\n",
			expectMsg: "failed to load config, using defaults",
			expectOp:  "load_config",
		},
		{
			name:      "bad env override",
			env:       map[string]string{config.EnvItemHeight: "tall"},
			expectMsg: "ignoring invalid environment overrides",
			expectOp:  "apply_env_overrides",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			if tt.file != "" {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(tt.file), 0o600))
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			var buf bytes.Buffer
			config.SetLoadLogger(zerolog.New(&buf))
			t.Cleanup(func() { config.SetLoadLogger(zerolog.Nop()) })

			cfg := config.GetGlobalConfig()
			require.NotNil(t, cfg)
			assert.Equal(t, config.New().List.ItemHeight, cfg.List.ItemHeight)
			assert.Contains(t, buf.String(), tt.expectMsg)
			assert.Contains(t, buf.String(), `"level":"warn"`)
			assert.Contains(t, buf.String(), `"component":"config"`)
			assert.Contains(t, buf.String(), tt.expectOp)
		})
	}
}

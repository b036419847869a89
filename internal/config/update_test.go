package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ConfigFileName)

	require.NoError(t, WriteDefault(path, DefaultConfig(), false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# What the probe measures.")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg, "written file should load back as the defaults")
}

func TestWriteDefault_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0644))

	err := WriteDefault(path, DefaultConfig(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, WriteDefault(path, DefaultConfig(), true))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "socket_url:")
}

func TestRenderDefault_QuotesCommands(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Probe.Commands = []string{`set "quoted" 1`, "get: colon"}

	out := RenderDefault(cfg)

	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(out), 0644))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Probe.Commands, loaded.Probe.Commands)
}

func TestUpdateProbe(t *testing.T) {
	tests := []struct {
		name     string
		initial  string
		contains []string
	}{
		{
			name: "replaces existing keys and keeps comments",
			initial: `# top comment
socket_url: ws://localhost:1337
probe:
  # which redis
  target_url: redis://old:6379/0
  interval: 500 # ms
  commands:
    - get test
`,
			contains: []string{"# top comment", "# which redis", "# ms", "socket_url: ws://localhost:1337"},
		},
		{
			name:    "creates probe section",
			initial: "socket_url: ws://localhost:1337\n",
		},
		{
			name:    "fills missing keys",
			initial: "probe:\n  target_url: redis://old:6379/0\n",
		},
		{
			name:    "empty file",
			initial: "",
		},
	}

	probe := ProbeConfig{
		TargetURL: "redis://new:6380/1",
		Interval:  250,
		Commands:  []string{"ping", "get a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ConfigFileName)
			require.NoError(t, os.WriteFile(path, []byte(tt.initial), 0644))

			require.NoError(t, UpdateProbe(path, probe))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, string(data), s)
			}

			cfg, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, probe, cfg.Probe)
		})
	}
}

func TestUpdateProbe_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		err := UpdateProbe(filepath.Join(t.TempDir(), "nope.yaml"), ProbeConfig{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read")
	})

	t.Run("probe is not a mapping", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ConfigFileName)
		require.NoError(t, os.WriteFile(path, []byte("probe: [1, 2]\n"), 0644))

		err := UpdateProbe(path, ProbeConfig{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be a mapping")
	})
}

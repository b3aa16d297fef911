package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Url     string `json:"url"`
	Retries int    `json:"retries"`
	Nested  struct {
		DataDir string `json:"data_dir"`
	} `json:"nested"`
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "config.json5")

	err := os.WriteFile(name, []byte(`{
		// comments are allowed
		url: "https://example.com",
		retries: 3,
		nested: { data_dir: "data" },
	}`), 0644)
	require.NoError(t, err)

	{
		config, err := ReadConfig[testConfig](name)
		require.NoError(t, err)
		require.Equal(t, "https://example.com", config.Url)
		require.Equal(t, 3, config.Retries)
		require.Equal(t, "data", config.Nested.DataDir)
	}

	{
		err = os.WriteFile(
			filepath.Join(dir, "config.local.json5"),
			[]byte(`{retries: 5}`),
			0644,
		)
		require.NoError(t, err)

		config, err := ReadConfig[testConfig](name)
		require.NoError(t, err)
		require.Equal(t, 5, config.Retries)
		require.Equal(t, "https://example.com", config.Url)
	}
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "nonexistent.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

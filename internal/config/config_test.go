package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/souschef-dev/souschef/internal/config"
)

func validConfig() config.Config {
	return config.Config{
		Convert: config.ConvertConfig{Hosts: "all"},
		Scan:    config.ScanConfig{MaxFileSize: 1024},
		MCP:     config.MCPConfig{MaxInputBytes: 1024},
		Output:  config.OutputConfig{Format: "table"},
	}
}

func TestValidate_OK(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidate_EmptyHosts(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Convert.Hosts = ""

	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidHosts)
}

func TestValidate_MaxFileSize(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Scan.MaxFileSize = 0

	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidMaxFileSize)
}

func TestValidate_MaxInputBytes(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.MCP.MaxInputBytes = -1

	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidMaxInputBytes)
}

func TestValidate_OutputFormat(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Output.Format = "xml"

	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidOutputFormat)

	cfg.Output.Format = "json"
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err, "explicit missing file is an error")

	cfg, err = config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, config.DefaultConvertHosts, cfg.Convert.Hosts)
	assert.Equal(t, config.DefaultConvertBecome, cfg.Convert.Become)
	assert.Equal(t, config.DefaultScanMaxFileSize, cfg.Scan.MaxFileSize)
	assert.Equal(t, config.DefaultMCPMaxInputBytes, cfg.MCP.MaxInputBytes)
	assert.Equal(t, config.DefaultOutputFormat, cfg.Output.Format)
}

func TestLoadConfig_File(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "souschef.yaml")
	body := []byte("convert:\n  hosts: webservers\n  become: false\noutput:\n  format: json\n")
	require.NoError(t, os.WriteFile(path, body, 0o600))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "webservers", cfg.Convert.Hosts)
	assert.False(t, cfg.Convert.Become)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, config.DefaultScanMaxFileSize, cfg.Scan.MaxFileSize, "unset keys keep defaults")
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "souschef.yaml")
	require.NoError(t, os.WriteFile(path, []byte("convert:\n  hosts: ''\n"), 0o600))

	_, err := config.LoadConfig(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidHosts)
}

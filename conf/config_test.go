package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadParsesJSONCWithComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tsc.jsonc")
	contents := `{
		// mount point of the removable media under test
		"mount_root": "/mnt/usb",
		"capacity_to_test_bytes": 1048576,
		"stop_on_first_error": true,
		"delete_temp_files": true,
		"write_log_file": true,
	}`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/mnt/usb", cfg.MountRoot)
	assert.Equal(t, uint64(1048576), cfg.CapacityToTestBytes)
	assert.True(t, cfg.StopOnFirstError)
	assert.True(t, cfg.DeleteTempFiles)
	assert.True(t, cfg.WriteLogFile)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.jsonc"))
	assert.Error(t, err)
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tsc.jsonc")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestDefaultValues(t *testing.T) {
	d := Default()
	assert.True(t, d.StopOnFirstError)
	assert.False(t, d.DeleteTempFiles)
	assert.False(t, d.WriteLogFile)
}

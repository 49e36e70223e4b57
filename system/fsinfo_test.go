package system

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskSpaceOnTempDir(t *testing.T) {
	dir := t.TempDir()

	total, free, err := DiskSpace(dir)
	require.NoError(t, err)
	assert.Greater(t, total, uint64(0))
	assert.LessOrEqual(t, free, total)
}

func TestDataBlockSizeOnTempDir(t *testing.T) {
	dir := t.TempDir()

	blockSize, err := DataBlockSize(dir)
	require.NoError(t, err)
	assert.Greater(t, blockSize, uint64(0))
}

func TestIsDriveFull(t *testing.T) {
	dir := t.TempDir()

	total, _, err := DiskSpace(dir)
	require.NoError(t, err)

	assert.False(t, IsDriveFull(dir, total*2))
	assert.True(t, IsDriveFull(filepath.Join(dir, "does-not-exist"), 1))
}

func TestIsDiskEmpty(t *testing.T) {
	dir := t.TempDir()

	assert.True(t, IsDiskEmpty(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.bin"), []byte("x"), 0o644))
	assert.False(t, IsDiskEmpty(dir))
}

func TestIsDiskEmptyIgnoresSystemVolumeInformation(t *testing.T) {
	dir := t.TempDir()

	svDir := filepath.Join(dir, "System Volume Information")
	require.NoError(t, os.Mkdir(svDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(svDir, "tracking.dat"), []byte("x"), 0o644))

	assert.True(t, IsDiskEmpty(dir))
}

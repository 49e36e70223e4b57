package blockio

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")

	f, err := CreateForWrite(path)
	require.NoError(t, err)

	want := []byte("truestoragecheck")
	n, err := f.WriteAt(want, 0)
	require.NoError(t, err)
	assert.Equal(t, len(want), n)
	require.NoError(t, f.Sync())
	require.NoError(t, f.Close())

	rf, err := OpenForRead(path)
	require.NoError(t, err)
	defer rf.Close()

	got := make([]byte, len(want))
	n, err = rf.ReadAt(got, 0)
	require.NoError(t, err)
	assert.Equal(t, len(want), n)
	assert.Equal(t, want, got)
}

func TestCreateForWriteRejectsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")

	f, err := CreateForWrite(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = CreateForWrite(path)
	assert.Error(t, err)
}

func TestReopenPreservesWrittenData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")

	f, err := CreateForWrite(path)
	require.NoError(t, err)

	want := []byte("reopen-me")
	_, err = f.WriteAt(want, 0)
	require.NoError(t, err)
	require.NoError(t, f.Sync())

	require.NoError(t, f.Reopen())

	got := make([]byte, len(want))
	_, err = f.ReadAt(got, 0)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	more := []byte("-and-continue")
	_, err = f.WriteAt(more, int64(len(want)))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	rf, err := OpenForRead(path)
	require.NoError(t, err)
	defer rf.Close()

	full := make([]byte, len(want)+len(more))
	_, err = rf.ReadAt(full, 0)
	require.NoError(t, err)
	assert.Equal(t, append(append([]byte{}, want...), more...), full)
}

func TestOpenForReadMissingFile(t *testing.T) {
	_, err := OpenForRead(filepath.Join(t.TempDir(), "missing.bin"))
	assert.Error(t, err)
}

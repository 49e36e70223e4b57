package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlignDown(t *testing.T) {
	assert.Equal(t, uint64(4096), alignDown(4100, 4096))
	assert.Equal(t, uint64(0), alignDown(100, 4096))
	assert.Equal(t, uint64(8192), alignDown(8192, 4096))
	assert.Equal(t, uint64(10), alignDown(10, 0))
}

func TestMinU64(t *testing.T) {
	assert.Equal(t, uint64(3), minU64(3, 9))
	assert.Equal(t, uint64(3), minU64(9, 3))
	assert.Equal(t, uint64(5), minU64(5, 5))
}

func TestFirstMismatchIndex(t *testing.T) {
	assert.Equal(t, 3, firstMismatchIndex([]byte("abcd"), []byte("abcX")))
	assert.Equal(t, 4, firstMismatchIndex([]byte("abcd"), []byte("abcd")))
	assert.Equal(t, 0, firstMismatchIndex([]byte("abcd"), []byte("Xbcd")))
}

func TestGenKeyIncludesSegment(t *testing.T) {
	k0 := genKey("/mnt/usb/file.tsc", 0)
	k1 := genKey("/mnt/usb/file.tsc", 1)
	assert.NotEqual(t, k0, k1)
	assert.True(t, strings.HasPrefix(k0, "/mnt/usb/file.tsc"))
}

func TestGenerateTestFileNameVaries(t *testing.T) {
	names := make(map[string]bool)
	for i := 0; i < 50; i++ {
		names[generateTestFileName()] = true
	}
	assert.True(t, strings.HasSuffix(generateTestFileName(), ".tsc"))
	// Not a strict uniqueness guarantee (the suffix is only 3 digits), but
	// 50 draws all landing in a single bucket would be a strong signal the
	// random suffix generator is broken.
	assert.Greater(t, len(names), 1)
}

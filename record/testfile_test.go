package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRecordsPathAndSize(t *testing.T) {
	r := New("/mnt/usb/tsc_000001.tmp", 4096)
	assert.Equal(t, "/mnt/usb/tsc_000001.tmp", r.Path)
	assert.Equal(t, uint64(4096), r.TotalSizeBytes)
}

func TestWitnessRoundTrip(t *testing.T) {
	r := New("/mnt/usb/tsc_000001.tmp", 4096)

	data := []byte{1, 2, 3, 4}
	r.SetWitness(data)

	got, size := r.Witness()
	assert.Equal(t, data, got)
	assert.Equal(t, uint64(4), size)

	// Mutating the caller's slice afterwards must not affect the stored copy.
	data[0] = 0xFF
	got2, _ := r.Witness()
	assert.Equal(t, byte(1), got2[0])
}

func TestWitnessBeforeSetIsEmpty(t *testing.T) {
	r := New("/mnt/usb/tsc_000001.tmp", 4096)

	got, size := r.Witness()
	assert.Empty(t, got)
	assert.Equal(t, uint64(0), size)
}

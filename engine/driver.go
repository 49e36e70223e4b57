// Copyright 2024 Northern.tech AS
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

// Package engine implements the write/verify test driver (component D):
// fill-and-verify orchestration, the state machine, progress and speed
// accounting, and cooperative cancellation, built on top of the blockio,
// generator, record, and system packages.
package engine

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/Mywk/TrueStorageCheck/blockio"
	"github.com/Mywk/TrueStorageCheck/generator"
	"github.com/Mywk/TrueStorageCheck/internal/log"
	"github.com/Mywk/TrueStorageCheck/record"
	"github.com/Mywk/TrueStorageCheck/system"
)

// Driver orchestrates one write/verify test run against a mounted
// filesystem. Construct with NewDriver, run at most once with PerformTest,
// and release with Close. All counters are word-sized atomics so progress
// and speed observers never block the run goroutine.
type Driver struct {
	cfg Config

	state   atomicState
	running atomic.Bool
	closed  atomic.Bool

	maxCapacityBytes    atomic.Uint64
	dataBlockSizeBytes  atomic.Uint64
	capacityToTestBytes atomic.Uint64
	bytesToVerify       atomic.Uint64

	bytesWritten         atomic.Uint64
	bytesVerified        atomic.Uint64
	realBytesVerified    atomic.Uint64
	lastVerifiedPosition atomic.Uint64

	totalWriteDurationMs atomic.Uint64
	totalReadDurationMs  atomic.Uint64

	avgReadMBs  atomicFloat64
	avgWriteMBs atomicFloat64

	workDir string

	filesMu   sync.RWMutex
	testFiles []*record.File
}

// NewDriver validates cfg and returns a Driver ready for one call to
// PerformTest. Construction fails immediately if MountRoot denotes the
// protected system volume.
func NewDriver(cfg Config) (*Driver, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.ProgressSink == nil {
		cfg.ProgressSink = NopProgressSink{}
	}
	d := &Driver{cfg: cfg, workDir: filepath.Join(cfg.MountRoot, workingDirName)}
	d.state.store(StateWaiting)
	return d, nil
}

// PerformTest starts the fill-and-verify sequence and blocks until the run
// reaches a terminal state; if setup fails, it returns false and the state
// stays Waiting. It returns true iff the device accurately
// stored every byte written. Re-entry is rejected: if a run is already in
// flight, or this instance already left the Waiting state, it returns false
// immediately without side effects.
func (d *Driver) PerformTest() bool {
	if d.state.load() != StateWaiting {
		return false
	}
	if !d.running.CompareAndSwap(false, true) {
		return false
	}

	capacityToTest, err := d.setup()
	if err != nil {
		log.Errorf("tsc: setup failed: %v", err)
		d.running.Store(false)
		// Per spec §8 scenario 4, a setup failure (e.g. a zero cluster
		// size report) leaves state at Waiting with no transition — a
		// wart inherited from the source, preserved deliberately.
		return false
	}

	d.capacityToTestBytes.Store(capacityToTest)
	d.state.compareAndSwap(StateWaiting, StateInProgress)

	success := d.fillPhase(capacityToTest)
	if success && d.state.load() != StateAborted {
		d.state.store(StateVerification)
		success = d.verificationPhase()
	}

	if d.state.load() != StateAborted {
		if success {
			d.state.store(StateSuccess)
		} else {
			d.state.store(StateError)
		}
	}

	if d.cfg.DeleteTempFiles {
		if err := os.RemoveAll(d.workDir); err != nil {
			log.Warnf("tsc: removing working directory: %v", err)
		}
		if d.cfg.WriteLogFile {
			if err := d.writeLogFile(); err != nil {
				log.Warnf("tsc: writing result log: %v", err)
			}
		}
	}

	d.running.Store(false)
	d.emitProgress()
	return d.state.load() == StateSuccess
}

// ForceStop requests cancellation. It has effect only while a run is in
// flight; the write and verify loops observe it at the next chunk boundary
// and unwind. It returns true iff it actually transitioned a running test
// to Aborted.
func (d *Driver) ForceStop() bool {
	if !d.running.CompareAndSwap(true, false) {
		return false
	}
	log.Infof("tsc: %v", ErrCancelled)
	d.state.store(StateAborted)
	return true
}

// Close releases all Test File Records held by this Driver. A Driver must
// not be used again after Close.
func (d *Driver) Close() error {
	d.closed.Store(true)
	d.filesMu.Lock()
	d.testFiles = nil
	d.filesMu.Unlock()
	return nil
}

// GetState returns the Driver's current lifecycle stage.
func (d *Driver) GetState() State { return d.state.load() }

// GetProgress returns 0-100, per §4.6's calc_progress.
func (d *Driver) GetProgress() int {
	written := d.bytesWritten.Load()
	verified := d.bytesVerified.Load()
	if written == 0 || verified == 0 {
		return 0
	}
	denom := d.capacityToTestBytes.Load() + d.bytesToVerify.Load()
	if denom == 0 {
		return 0
	}
	return int(100 * (written + verified) / denom)
}

// GetAvgReadMBs returns the current moving-average read speed in MB/s.
func (d *Driver) GetAvgReadMBs() float64 { return d.avgReadMBs.load() }

// GetAvgWriteMBs returns the current moving-average write speed in MB/s.
func (d *Driver) GetAvgWriteMBs() float64 { return d.avgWriteMBs.load() }

// GetLastVerifiedPosition returns the byte offset, within the file most
// recently read back in full, through which verification has progressed.
// Both the first-file seed read and the final verification pass update it.
func (d *Driver) GetLastVerifiedPosition() uint64 { return d.lastVerifiedPosition.Load() }

// GetRealBytesVerified returns the count of truly unique device bytes
// confirmed so far (populated during the final verification pass, or by an
// early-detection failure's coarse offset).
func (d *Driver) GetRealBytesVerified() uint64 { return d.realBytesVerified.Load() }

// GetBytesWritten returns the cumulative bytes written so far.
func (d *Driver) GetBytesWritten() uint64 { return d.bytesWritten.Load() }

// GetTimeRemainingS estimates seconds remaining per §4.6.
func (d *Driver) GetTimeRemainingS() uint64 {
	capacity := d.capacityToTestBytes.Load()
	written := d.bytesWritten.Load()
	verified := d.bytesVerified.Load()

	writeRemainMB := float64(0)
	if capacity > written {
		writeRemainMB = float64(capacity-written) / (1 << 20)
	}
	readRemainMB := float64(0)
	total := capacity + d.bytesToVerify.Load()
	if total > verified {
		readRemainMB = float64(total-verified) / (1 << 20)
	}

	avgWrite := d.avgWriteMBs.load()
	avgRead := d.avgReadMBs.load()

	var writeTerm, readTerm float64
	if avgWrite > 0 {
		writeTerm = writeRemainMB / avgWrite
	}
	if avgRead > 0 {
		readTerm = readRemainMB / avgRead
	} else if avgWrite > 0 {
		readTerm = (float64(capacity) / (1 << 20)) / (2 * avgWrite)
	}
	return uint64(writeTerm + readTerm)
}

// IsDriveFull reports whether the target filesystem has already consumed
// its reported total capacity.
func (d *Driver) IsDriveFull() bool {
	return system.IsDriveFull(d.cfg.MountRoot, d.maxCapacityBytes.Load())
}

// IsDiskEmpty reports whether the mount root contains no user data.
func (d *Driver) IsDiskEmpty() bool {
	return system.IsDiskEmpty(d.cfg.MountRoot)
}

// setup performs §4.4 fill-phase steps 2-5: (re)create the working
// directory, query geometry and capacity, and compute bytes_to_verify. It
// deliberately runs before any state transition so a setup failure leaves
// the Driver at StateWaiting.
func (d *Driver) setup() (uint64, error) {
	if err := recreateWorkingDir(d.workDir); err != nil {
		return 0, errors.Wrapf(ErrWorkingDirectoryUnavailable, "%v", err)
	}

	total, free, err := system.DiskSpace(d.cfg.MountRoot)
	if err != nil {
		return 0, errors.Wrapf(ErrFilesystemQueryFailed, "%v", err)
	}
	d.maxCapacityBytes.Store(total)

	blockSize, err := system.DataBlockSize(d.cfg.MountRoot)
	if err != nil {
		return 0, errors.Wrapf(ErrFilesystemQueryFailed, "%v", err)
	}
	if blockSize == 0 {
		return 0, ErrZeroBlockSize
	}
	d.dataBlockSizeBytes.Store(blockSize)

	capacityToTest := d.cfg.CapacityToTestBytes
	if capacityToTest == 0 {
		capacityToTest = free
	}
	if free < capacityToTest {
		return 0, ErrInsufficientFreeSpace
	}

	var bytesToVerify uint64
	if d.cfg.StopOnFirstError {
		bytesToVerify = 2*capacityToTest + (capacityToTest/WriteChunk)*blockSize
	} else {
		bytesToVerify = capacityToTest + 3*WriteChunk
	}
	d.bytesToVerify.Store(bytesToVerify)

	return capacityToTest, nil
}

// fillPhase implements §4.4 step 6: repeatedly write files until capacity
// is reached, the device reports full, or cancellation is observed.
func (d *Driver) fillPhase(capacityToTest uint64) bool {
	verifiedFirstFile := false

	for d.running.Load() {
		written := d.bytesWritten.Load()
		if written >= capacityToTest {
			break
		}
		if d.IsDriveFull() {
			break
		}

		size := minU64(capacityToTest-written, WriteChunk)
		path := filepath.Join(d.workDir, generateTestFileName())
		rec := record.New(path, size)

		dataWritten, ok := d.writeAndVerifyFile(rec, size)
		d.appendTestFile(rec)

		if !ok || dataWritten < size {
			d.bytesVerified.Store(dataWritten)
			return false
		}

		if !verifiedFirstFile {
			d.verifyFile(rec, false)
			verifiedFirstFile = true
		}

		if d.cfg.StopOnFirstError {
			if !d.earlyDetectionSweep() {
				return false
			}
		}
	}

	return d.running.Load()
}

// verificationPhase implements §4.4 step 7: a full re-read of every file,
// accumulating real_bytes_verified.
func (d *Driver) verificationPhase() bool {
	for _, rec := range d.snapshotTestFiles() {
		if !d.running.Load() {
			return false
		}
		if !d.verifyFile(rec, true) {
			return false
		}
	}
	return true
}

// writeAndVerifyFile implements §4.5's write_and_verify_file.
func (d *Driver) writeAndVerifyFile(rec *record.File, fileSize uint64) (uint64, bool) {
	f, err := blockio.CreateForWrite(rec.Path)
	if err != nil {
		log.Errorf("tsc: %v: open %s for write: %v", ErrIOFailed, rec.Path, err)
		return 0, false
	}

	blockSize := d.dataBlockSizeBytes.Load()
	remaining := fileSize
	var writtenHere uint64
	seg := 0
	earlyDetect := d.cfg.StopOnFirstError
	first := true

	bufSize := alignDown(minU64(remaining, MaxGenBuffer), blockSize)
	if bufSize == 0 {
		f.Close()
		return 0, false
	}
	buf := generator.Generate(int(bufSize), genKey(rec.Path, seg))

	for remaining > 0 && d.running.Load() {
		chunkSize := alignDown(minU64(remaining, uint64(len(buf))), blockSize)
		if chunkSize == 0 {
			break
		}
		chunk := buf[:chunkSize]

		start := time.Now()
		n, werr := f.WriteAt(chunk, int64(writtenHere))
		d.totalWriteDurationMs.Add(uint64(time.Since(start).Milliseconds()))
		if werr != nil {
			log.Errorf("tsc: %v: write %s: %v", ErrIOFailed, rec.Path, werr)
			f.Close()
			return writtenHere, false
		}
		d.bytesWritten.Add(uint64(n))
		writtenHere += uint64(n)

		if err := f.Sync(); err != nil {
			log.Errorf("tsc: %v: sync %s: %v", ErrIOFailed, rec.Path, err)
			f.Close()
			return writtenHere, false
		}

		if earlyDetect {
			if first {
				rec.SetWitness(chunk[:minU64(blockSize, uint64(n))])
				first = false
			}
			witness, witnessSize := rec.Witness()

			if err := f.Reopen(); err != nil {
				log.Errorf("tsc: %v: reopen %s: %v", ErrIOFailed, rec.Path, err)
				return writtenHere, false
			}
			readBack := make([]byte, witnessSize)
			if _, err := f.ReadAt(readBack, 0); err != nil {
				log.Errorf("tsc: %v: read back %s: %v", ErrIOFailed, rec.Path, err)
				f.Close()
				return writtenHere, false
			}
			if !bytes.Equal(readBack, witness) {
				idx := firstMismatchIndex(readBack, witness)
				log.Errorf("tsc: %v: %s diverges at witness offset %d", ErrDataMismatch, rec.Path, idx)
				d.realBytesVerified.Store(d.bytesWritten.Load() + uint64(idx))
				f.Close()
				return writtenHere, false
			}
			d.bytesVerified.Add(witnessSize)
		}

		remaining -= uint64(n)
		d.recalcSpeeds()
		d.emitProgress()

		if remaining > 0 {
			seg++
			nextSize := alignDown(minU64(remaining, MaxGenBuffer), blockSize)
			if nextSize == 0 {
				break
			}
			buf = generator.Generate(int(nextSize), genKey(rec.Path, seg))
		}
	}

	f.Close()
	return writtenHere, true
}

// verifyFile implements §4.5's verify_file with witness = none: a full
// re-read of rec, regenerating and comparing every chunk including the
// first. The stored witness is reserved for earlyDetectionSweep's fast
// single-cluster check; splicing it into this full pass would let
// chunkSize-minus-one-cluster worth of bytes count toward
// real_bytes_verified without ever actually being compared.
func (d *Driver) verifyFile(rec *record.File, updateReal bool) bool {
	f, err := blockio.OpenForRead(rec.Path)
	if err != nil {
		log.Errorf("tsc: %v: open %s for verify: %v", ErrIOFailed, rec.Path, err)
		return false
	}
	defer f.Close()

	blockSize := d.dataBlockSizeBytes.Load()
	remaining := rec.TotalSizeBytes

	var offset uint64
	seg := 0

	for remaining > 0 && d.running.Load() {
		chunkSize := alignDown(minU64(remaining, MaxGenBuffer), blockSize)
		if chunkSize == 0 {
			break
		}

		buf := make([]byte, chunkSize)
		start := time.Now()
		n, rerr := f.ReadAt(buf, int64(offset))
		dur := time.Since(start)
		if rerr != nil || uint64(n) < chunkSize {
			log.Errorf("tsc: %v: short read verifying %s: %v", ErrIOFailed, rec.Path, rerr)
			return false
		}
		d.totalReadDurationMs.Add(uint64(dur.Milliseconds()))

		want := generator.Generate(int(chunkSize), genKey(rec.Path, seg))

		if !bytes.Equal(buf, want) {
			idx := firstMismatchIndex(buf, want)
			log.Errorf("tsc: %v: %s diverges at offset %d", ErrDataMismatch, rec.Path, offset+uint64(idx))
			d.bytesVerified.Add(uint64(idx))
			if updateReal {
				d.realBytesVerified.Add(uint64(idx))
			}
			return false
		}

		d.bytesVerified.Add(chunkSize)
		if updateReal {
			d.realBytesVerified.Add(chunkSize)
		}
		d.lastVerifiedPosition.Store(offset + chunkSize)

		offset += chunkSize
		remaining -= chunkSize
		seg++

		d.recalcSpeeds()
		d.emitProgress()
	}

	return remaining == 0
}

// earlyDetectionSweep re-reads the first block of every file recorded so
// far and compares it against that file's witness, per §4.4 step 6's
// fast-path corruption check.
func (d *Driver) earlyDetectionSweep() bool {
	for _, rec := range d.snapshotTestFiles() {
		witness, witnessSize := rec.Witness()
		if witnessSize == 0 {
			continue
		}

		f, err := blockio.OpenForRead(rec.Path)
		if err != nil {
			log.Errorf("tsc: %v: open %s for sweep: %v", ErrIOFailed, rec.Path, err)
			return false
		}
		buf := make([]byte, witnessSize)
		n, err := f.ReadAt(buf, 0)
		f.Close()
		if err != nil || uint64(n) < witnessSize {
			log.Errorf("tsc: %v: short read in sweep of %s: %v", ErrIOFailed, rec.Path, err)
			return false
		}

		if !bytes.Equal(buf, witness) {
			idx := firstMismatchIndex(buf, witness)
			log.Errorf("tsc: %v: %s diverges at sweep offset %d", ErrDataMismatch, rec.Path, idx)
			d.realBytesVerified.Store(d.bytesWritten.Load() + uint64(idx))
			return false
		}
		d.bytesVerified.Add(witnessSize)
	}
	return true
}

// recalcSpeeds implements §4.6's recalc_speeds: exponential smoothing with
// weight 1/2 over the instantaneous throughput since the run began.
func (d *Driver) recalcSpeeds() {
	const mib = float64(1 << 20)

	if writeMs := d.totalWriteDurationMs.Load(); writeMs > 0 {
		now := (float64(d.bytesWritten.Load()) / (float64(writeMs) / 1000)) / mib
		avg := d.avgWriteMBs.load()
		if avg == 0 {
			d.avgWriteMBs.store(now)
		} else {
			d.avgWriteMBs.store((avg + now) / 2)
		}
	}

	readMs := d.totalReadDurationMs.Load()
	verified := d.bytesVerified.Load()
	if readMs > 0 && verified > 0 {
		now := (float64(verified) / (float64(readMs) / 1000)) / mib
		avg := d.avgReadMBs.load()
		if avg == 0 {
			d.avgReadMBs.store(now)
		} else {
			d.avgReadMBs.store((avg + now) / 2)
		}
	}
}

// emitProgress notifies the configured ProgressSink with the current
// snapshot.
func (d *Driver) emitProgress() {
	d.cfg.ProgressSink.Notify(ProgressEvent{
		State:            d.state.load(),
		Percent:          d.GetProgress(),
		MegabytesWritten: int64(d.bytesWritten.Load() / (1 << 20)),
	})
}

func (d *Driver) appendTestFile(rec *record.File) {
	d.filesMu.Lock()
	d.testFiles = append(d.testFiles, rec)
	d.filesMu.Unlock()
}

func (d *Driver) snapshotTestFiles() []*record.File {
	d.filesMu.RLock()
	defer d.filesMu.RUnlock()
	out := make([]*record.File, len(d.testFiles))
	copy(out, d.testFiles)
	return out
}

// recreateWorkingDir removes and recreates dir, making up to three attempts
// with a 100ms sleep between them, per §4.4 step 2: some removable-media stacks briefly
// refuse directory creation immediately after a prior remove.
func recreateWorkingDir(dir string) error {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			time.Sleep(100 * time.Millisecond)
		}
		_ = os.RemoveAll(dir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return errors.Wrapf(lastErr, "create working directory %q after retries", dir)
}

// generateTestFileName returns a name unique within one run: local time as
// YYYYMDHMS plus a three-digit decimal random suffix, per §6.
func generateTestFileName() string {
	now := time.Now()
	return fmt.Sprintf("%d%d%d%d%d%d%03d.tsc",
		now.Year(), int(now.Month()), now.Day(),
		now.Hour(), now.Minute(), now.Second(),
		rand.Intn(1000))
}

// genKey builds the Data Generator key for segment seg of path, per §4.5's
// "key = path || seg".
func genKey(path string, seg int) string {
	return path + strconv.Itoa(seg)
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

// alignDown rounds n down to the nearest multiple of align.
func alignDown(n, align uint64) uint64 {
	if align == 0 {
		return n
	}
	return n - (n % align)
}

// firstMismatchIndex returns the index of the first byte at which a and b
// differ, or the length of the shorter slice if they agree throughout.
func firstMismatchIndex(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

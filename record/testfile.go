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

// Package record holds the bookkeeping the driver keeps for each test file
// it writes: where it lives, how large it is supposed to be, and a small
// "witness" slice of the first block written, kept around so a later sweep
// can cheaply re-check that the file hasn't silently reverted to stale data.
package record

import "sync"

// File describes one test file written during a run.
type File struct {
	Path           string
	TotalSizeBytes uint64

	mu               sync.Mutex
	witness          []byte
	witnessSizeBytes uint64
}

// New returns a record for a file at path with the given intended total
// size. The size is recorded up front; it may turn out smaller if the
// device fills before the file is complete.
func New(path string, totalSize uint64) *File {
	return &File{Path: path, TotalSizeBytes: totalSize}
}

// SetWitness records a copy of data as the witness block for this file.
// witness_size_bytes is simply the witness's length; it starts at 0 before
// the first call.
func (f *File) SetWitness(data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.witness = cp
	f.witnessSizeBytes = uint64(len(cp))
}

// Witness returns a copy of the recorded witness block and its length in
// bytes (0 before SetWitness is called).
func (f *File) Witness() ([]byte, uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(f.witness))
	copy(cp, f.witness)
	return cp, f.witnessSizeBytes
}

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

// Package blockio opens files in a mode that bypasses the host page cache,
// so that reads and writes actually interrogate the device under test
// instead of being served out of RAM. This is the one piece of this module
// that genuinely cannot be a no-op on a well-behaved filesystem: without it,
// a counterfeit device's silent wraparound would be masked by the kernel's
// own cache.
package blockio

import (
	"os"

	"github.com/pkg/errors"
)

// File wraps an *os.File opened with cache-bypass flags. All reads and
// writes go through ReadAt/WriteAt (pread/pwrite) rather than the implicit
// file position, so no seek bookkeeping is needed across Reopen calls.
type File struct {
	f    *os.File
	path string
}

// CreateForWrite truncates-or-creates path exclusively for read+write, with
// no host-side buffering and write-through semantics. If the filesystem
// doesn't support O_DIRECT (common on tmpfs and some removable-media
// stacks), it transparently falls back to O_SYNC alone.
func CreateForWrite(path string) (*File, error) {
	flags := os.O_RDWR | os.O_CREATE | os.O_EXCL | os.O_TRUNC | os.O_SYNC | directFlag()
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil && directFlag() != 0 {
		f, err = os.OpenFile(path, flags&^directFlag(), 0o644)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "create %q for unbuffered write", path)
	}
	return &File{f: f, path: path}, nil
}

// OpenForRead opens an existing file read-only, bypassing the host cache.
func OpenForRead(path string) (*File, error) {
	flags := os.O_RDONLY | directFlag()
	f, err := os.OpenFile(path, flags, 0)
	if err != nil && directFlag() != 0 {
		f, err = os.OpenFile(path, flags&^directFlag(), 0)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open %q for unbuffered read", path)
	}
	return &File{f: f, path: path}, nil
}

// WriteAt writes b at offset off and returns the number of bytes written.
func (bf *File) WriteAt(b []byte, off int64) (int, error) {
	n, err := bf.f.WriteAt(b, off)
	if err != nil {
		return n, errors.Wrapf(err, "write %q", bf.path)
	}
	return n, nil
}

// ReadAt reads into b starting at offset off.
func (bf *File) ReadAt(b []byte, off int64) (int, error) {
	n, err := bf.f.ReadAt(b, off)
	if err != nil {
		return n, errors.Wrapf(err, "read %q", bf.path)
	}
	return n, nil
}

// Sync flushes any data the OS is still holding for this handle through to
// the device.
func (bf *File) Sync() error {
	if err := bf.f.Sync(); err != nil {
		return errors.Wrapf(err, "sync %q", bf.path)
	}
	return nil
}

// Close releases the handle.
func (bf *File) Close() error {
	return bf.f.Close()
}

// Reopen closes the current handle and opens a fresh read+write handle to
// the same path. Some counterfeit controllers serve recently-written data
// from internal SRAM for as long as the original descriptor stays open;
// closing and reopening defeats that behavior and forces a real device
// round trip.
func (bf *File) Reopen() error {
	if err := bf.f.Close(); err != nil {
		return errors.Wrapf(err, "close %q before reopen", bf.path)
	}

	flags := os.O_RDWR | os.O_SYNC | directFlag()
	f, err := os.OpenFile(bf.path, flags, 0o644)
	if err != nil && directFlag() != 0 {
		f, err = os.OpenFile(bf.path, flags&^directFlag(), 0o644)
	}
	if err != nil {
		return errors.Wrapf(err, "reopen %q", bf.path)
	}
	bf.f = f
	return nil
}

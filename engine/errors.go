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

package engine

import "github.com/pkg/errors"

// Sentinel errors returned from construction and internal plumbing. None of
// these ever reach PerformTest's caller directly — per the observer-only
// error policy, they are logged and folded into a terminal State instead.
var (
	// ErrSystemVolumeProtected is returned by NewDriver when asked to test
	// the system drive.
	ErrSystemVolumeProtected = errors.New("engine: refusing to test the protected system volume")

	// ErrInsufficientFreeSpace means the filesystem has less free space
	// than the requested capacity to test.
	ErrInsufficientFreeSpace = errors.New("engine: insufficient free space for requested capacity")

	// ErrFilesystemQueryFailed wraps a failed statfs-style geometry query.
	ErrFilesystemQueryFailed = errors.New("engine: filesystem geometry query failed")

	// ErrZeroBlockSize means introspection reported a zero cluster size.
	ErrZeroBlockSize = errors.New("engine: filesystem reports a zero data block size")

	// ErrWorkingDirectoryUnavailable means TSC_Files could not be
	// (re)created after retries.
	ErrWorkingDirectoryUnavailable = errors.New("engine: working directory unavailable")

	// ErrIOFailed covers any open/read/write/flush/seek failure.
	ErrIOFailed = errors.New("engine: unbuffered I/O failed")

	// ErrDataMismatch is the diagnostic outcome of a completed comparison
	// that found divergent bytes. It is not a failure to run the test; it
	// IS the test's (negative) result.
	ErrDataMismatch = errors.New("engine: readback diverged from written data")

	// ErrCancelled marks a run that ended via ForceStop rather than a
	// fill/verify failure.
	ErrCancelled = errors.New("engine: test run cancelled")
)

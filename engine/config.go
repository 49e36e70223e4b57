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

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	// WriteChunk is the upper bound on a single write_and_verify_file
	// write: 512 MiB.
	WriteChunk uint64 = 512 << 20

	// MaxGenBuffer is the upper bound on a single Data Generator call:
	// 64 MiB.
	MaxGenBuffer uint64 = 64 << 20

	// workingDirName is the name of the per-run scratch directory created
	// under MountRoot.
	workingDirName = "TSC_Files"
)

// Config is the Driver's immutable test configuration, fixed at
// construction time.
type Config struct {
	// MountRoot is the path to the mounted filesystem under test. Must
	// not denote the protected system volume.
	MountRoot string

	// CapacityToTestBytes is the total payload to write; zero means "as
	// much free space as exists at start".
	CapacityToTestBytes uint64

	// StopOnFirstError enables interleaved early-detection reads of each
	// file's first block after every written chunk.
	StopOnFirstError bool

	// DeleteTempFiles removes the working directory on completion.
	DeleteTempFiles bool

	// WriteLogFile emits a human-readable result summary to the device on
	// completion (only takes effect when DeleteTempFiles is also true,
	// per §6).
	WriteLogFile bool

	// ProgressSink receives progress events. A nil sink is replaced with
	// NopProgressSink by NewDriver.
	ProgressSink ProgressSink
}

// validate enforces the construction-time invariants from §3: the mount
// root may not be the protected system drive.
func (c Config) validate() error {
	root := strings.TrimSpace(c.MountRoot)
	if root == "" {
		return errors.New("engine: empty mount root")
	}
	if root[0] == 'C' || root[0] == 'c' {
		return ErrSystemVolumeProtected
	}
	return nil
}

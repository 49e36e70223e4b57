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

// Package system introspects the filesystem mounted at a given path: its
// total and free space, its block size (the I/O alignment unit the rest of
// the module rounds every read/write to), and whether it looks empty. The
// platform-specific geometry query lives in fsinfo_unix.go / fsinfo_other.go.
package system

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// systemVolumeInformation is excluded when deciding whether a mount root is
// "empty" — Windows recovery metadata lives there and isn't user data.
const systemVolumeInformation = "System Volume Information"

// DiskSpace reports the total and free space, in bytes, of the filesystem
// mounted at path.
func DiskSpace(path string) (total uint64, free uint64, err error) {
	return diskSpace(path)
}

// DataBlockSize reports the filesystem's block size in bytes — the unit
// every read/write offset and length must be a multiple of. It returns 0 if
// the query fails.
func DataBlockSize(path string) (uint64, error) {
	return dataBlockSize(path)
}

// IsDriveFull reports whether the filesystem mounted at path has already
// consumed at least maxCapacity bytes of its total size. A failed space
// query is treated conservatively as "full".
func IsDriveFull(path string, maxCapacity uint64) bool {
	total, free, err := DiskSpace(path)
	if err != nil {
		return true
	}
	return total-free >= maxCapacity
}

// IsDiskEmpty reports whether mountRoot contains no file (as opposed to
// directory) outside of a "System Volume Information" entry.
func IsDiskEmpty(mountRoot string) bool {
	empty := true
	_ = filepath.WalkDir(mountRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == mountRoot || d.IsDir() {
			return nil
		}
		if !strings.Contains(path, systemVolumeInformation) {
			empty = false
			return filepath.SkipAll
		}
		return nil
	})
	return empty
}

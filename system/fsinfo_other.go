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

//go:build windows

package system

import "github.com/pkg/errors"

// Windows geometry queries (GetDiskFreeSpaceEx / GetDiskFreeSpace in the
// original tool) are not implemented here; this module targets mounted
// POSIX filesystems on the removable-media hosts it actually runs on.
var errUnsupportedPlatform = errors.New("filesystem geometry query not supported on this platform")

func diskSpace(path string) (uint64, uint64, error) {
	return 0, 0, errUnsupportedPlatform
}

func dataBlockSize(path string) (uint64, error) {
	return 0, errUnsupportedPlatform
}

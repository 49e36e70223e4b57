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
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"
)

// logResult maps a terminal State to the three words the result log (and
// nothing else) ever records. Failed covers Error, per §7: the log is not
// the place to distinguish error kinds, only outcomes.
func logResult(s State) string {
	switch s {
	case StateSuccess:
		return "Success"
	case StateAborted:
		return "Aborted"
	default:
		return "Failed"
	}
}

// writeLogFile emits the three-line, tab-aligned result summary described
// in §6 to <mount_root>/TSC_Log_<YYYYMD_HMS>.txt. The write is atomic —
// via a temp-file-then-rename — so a crash mid-write never leaves a
// half-written result log on the device under test.
func (d *Driver) writeLogFile() error {
	now := time.Now()
	name := fmt.Sprintf("TSC_Log_%d%d%d_%d%d%d.txt",
		now.Year(), int(now.Month()), now.Day(),
		now.Hour(), now.Minute(), now.Second())
	path := filepath.Join(d.cfg.MountRoot, name)

	var b strings.Builder
	fmt.Fprintf(&b, "Total Capacity:\t\t%d\n", d.maxCapacityBytes.Load())
	fmt.Fprintf(&b, "Verified Capacity:\t%d\n", d.realBytesVerified.Load())
	fmt.Fprintf(&b, "Result:\t\t\t\t%s\n", logResult(d.state.load()))

	return atomic.WriteFile(path, strings.NewReader(b.String()))
}

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

import "github.com/mendersoftware/progressbar"

// ProgressEvent is one snapshot handed to a ProgressSink. It mirrors the
// external progress callback's (state, percent, megabytes_written) tuple.
type ProgressEvent struct {
	State            State
	Percent          int
	MegabytesWritten int64
}

// ProgressSink is a one-way notifier for progress events. The core never
// calls back into anything richer than this; an FFI wrapper outside the
// core would adapt this to a raw function pointer.
type ProgressSink interface {
	Notify(ProgressEvent)
}

// NopProgressSink discards every event. It is the default sink when a
// caller doesn't supply one, so the Driver never needs a nil check on its
// hot path.
type NopProgressSink struct{}

// Notify implements ProgressSink.
func (NopProgressSink) Notify(ProgressEvent) {}

// TerminalProgressSink renders progress as a terminal bar, the way
// cmd/tsc's demo entrypoint does. The bar's scale is fixed at construction
// and it advances only by the megabytes written reported in each event.
type TerminalProgressSink struct {
	bar      *progressbar.Bar
	lastMB   int64
	finished bool
}

// NewTerminalProgressSink returns a sink driving a progress bar sized for
// totalMB megabytes of expected work.
func NewTerminalProgressSink(totalMB int64) *TerminalProgressSink {
	return &TerminalProgressSink{bar: progressbar.New(totalMB)}
}

// Notify implements ProgressSink. It ticks the bar by the delta in
// megabytes written since the previous event and finishes it once a
// terminal state is reached.
func (t *TerminalProgressSink) Notify(ev ProgressEvent) {
	if t.bar == nil || t.finished {
		return
	}
	if delta := ev.MegabytesWritten - t.lastMB; delta > 0 {
		t.bar.Tick(delta)
		t.lastMB = ev.MegabytesWritten
	}
	if ev.State.IsTerminal() {
		t.bar.Finish()
		t.finished = true
	}
}

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingSink struct {
	events []ProgressEvent
}

func (r *recordingSink) Notify(ev ProgressEvent) {
	r.events = append(r.events, ev)
}

func TestNopProgressSinkDiscardsEvents(t *testing.T) {
	var sink NopProgressSink
	assert.NotPanics(t, func() {
		sink.Notify(ProgressEvent{State: StateInProgress, Percent: 50})
	})
}

func TestRecordingSinkCapturesEvents(t *testing.T) {
	sink := &recordingSink{}
	sink.Notify(ProgressEvent{State: StateInProgress, Percent: 10, MegabytesWritten: 1})
	sink.Notify(ProgressEvent{State: StateSuccess, Percent: 100, MegabytesWritten: 10})

	assert.Len(t, sink.events, 2)
	assert.Equal(t, StateSuccess, sink.events[1].State)
}

func TestTerminalProgressSinkFinishesOnTerminalState(t *testing.T) {
	sink := NewTerminalProgressSink(10)
	sink.Notify(ProgressEvent{State: StateInProgress, MegabytesWritten: 5})
	assert.False(t, sink.finished)

	sink.Notify(ProgressEvent{State: StateSuccess, MegabytesWritten: 10})
	assert.True(t, sink.finished)
}

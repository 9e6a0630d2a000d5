package service

import (
	"time"

	"github.com/aruvell/marksub/internal/translator"
)

// Event types carried by RunEvent.Type.
const (
	EventRunStarted       = "run_started"
	EventRunFinished      = "run_finished"
	EventRunFailed        = "run_failed"
	EventBatchStarted     = "batch_started"
	EventBatchTranslated  = "batch_translated"
	EventBatchFailed      = "batch_failed"
	EventCheckpointFailed = "checkpoint_failed"
)

// RunEvent is one progress notification from a translation run. Batch
// numbers are 1-based; fields that do not apply to an event type are
// left zero and omitted from the JSON encoding.
type RunEvent struct {
	Type    string    `json:"type"`
	RunID   string    `json:"run_id,omitempty"`
	Path    string    `json:"path,omitempty"`
	Batch   int       `json:"batch,omitempty"`
	Batches int       `json:"batches,omitempty"`
	Items   int       `json:"items,omitempty"`
	Error   string    `json:"error,omitempty"`
	Time    time.Time `json:"time"`
}

// EventSink receives run events. Publish is called synchronously on the
// translation path, so implementations must not block.
type EventSink interface {
	Publish(event RunEvent)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Publish(RunEvent) {}

// sinkReporter adapts an EventSink into a pipeline reporter, stamping
// every event with the run it belongs to.
type sinkReporter struct {
	sink  EventSink
	runID string
	path  string
}

func (r sinkReporter) BatchStarted(index, total, size int) {
	r.publish(RunEvent{Type: EventBatchStarted, Batch: index + 1, Batches: total, Items: size})
}

func (r sinkReporter) BatchTranslated(index, total, matched int) {
	r.publish(RunEvent{Type: EventBatchTranslated, Batch: index + 1, Batches: total, Items: matched})
}

func (r sinkReporter) BatchFailed(index, total int, err error) {
	r.publish(RunEvent{Type: EventBatchFailed, Batch: index + 1, Batches: total, Error: err.Error()})
}

func (r sinkReporter) CheckpointFailed(index int, err error) {
	r.publish(RunEvent{Type: EventCheckpointFailed, Batch: index + 1, Error: err.Error()})
}

func (r sinkReporter) publish(event RunEvent) {
	event.RunID = r.runID
	event.Path = r.path
	event.Time = time.Now()
	r.sink.Publish(event)
}

// multiReporter fans pipeline progress out to every member.
type multiReporter []translator.Reporter

func (m multiReporter) BatchStarted(index, total, size int) {
	for _, r := range m {
		r.BatchStarted(index, total, size)
	}
}

func (m multiReporter) BatchTranslated(index, total, matched int) {
	for _, r := range m {
		r.BatchTranslated(index, total, matched)
	}
}

func (m multiReporter) BatchFailed(index, total int, err error) {
	for _, r := range m {
		r.BatchFailed(index, total, err)
	}
}

func (m multiReporter) CheckpointFailed(index int, err error) {
	for _, r := range m {
		r.CheckpointFailed(index, err)
	}
}

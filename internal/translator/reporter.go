package translator

import (
	"github.com/aruvell/marksub/pkg/log"
)

// Reporter receives pipeline progress events. The pipeline invokes it
// synchronously between its pure transformation steps, so implementations
// must be cheap and must not block.
type Reporter interface {
	BatchStarted(index, total, size int)
	BatchTranslated(index, total, matched int)
	BatchFailed(index, total int, err error)
	CheckpointFailed(index int, err error)
}

// NopReporter discards all progress events.
type NopReporter struct{}

func (NopReporter) BatchStarted(index, total, size int)       {}
func (NopReporter) BatchTranslated(index, total, matched int) {}
func (NopReporter) BatchFailed(index, total int, err error)   {}
func (NopReporter) CheckpointFailed(index int, err error)     {}

// LogReporter writes progress through the package logger.
type LogReporter struct{}

func (LogReporter) BatchStarted(index, total, size int) {
	log.Info("translating batch %d/%d (%d items)", index+1, total, size)
}

func (LogReporter) BatchTranslated(index, total, matched int) {
	log.Info("batch %d/%d merged, %d items recovered", index+1, total, matched)
}

func (LogReporter) BatchFailed(index, total int, err error) {
	log.Warn("batch %d/%d failed, keeping original text: %v", index+1, total, err)
}

func (LogReporter) CheckpointFailed(index int, err error) {
	log.Warn("checkpoint for batch %d not saved: %v", index+1, err)
}

//go:build trace

package tracing

import (
	"context"
	"os"
	"runtime/trace"
	"time"
)

var traceFile *os.File

// Enabled reports whether the binary was built with runtime tracing.
const Enabled = true

// Start enables runtime tracing and writes trace data to path.
func Start(path string) error {
	var err error
	traceFile, err = os.Create(path)
	if err != nil {
		return err
	}
	if err := trace.Start(traceFile); err != nil {
		traceFile.Close()
		traceFile = nil
		return err
	}
	return nil
}

// Stop stops runtime tracing and closes the trace file.
func Stop() {
	trace.Stop()
	if traceFile != nil {
		traceFile.Close()
		traceFile = nil
	}
}

// StartTask begins a trace task and returns the derived context and a function
// to end the task.
func StartTask(ctx context.Context, name string) (context.Context, func()) {
	ctx, task := trace.NewTask(ctx, name)
	return ctx, task.End
}

// StartRegion marks the beginning of a region in the trace and returns a
// function that ends the region when invoked.
func StartRegion(ctx context.Context, name string) func() {
	region := trace.StartRegion(ctx, name)
	return region.End
}

// Log adds a trace event with the provided category and message.
func Log(ctx context.Context, category, message string) {
	trace.Log(ctx, category, message)
}

// StartFlightRecorder enables the in-memory flight recorder.
func StartFlightRecorder(maxBytes uint64, minAge time.Duration) error {
	return startFlightRecorder(maxBytes, minAge)
}

// StopFlightRecorder stops the flight recorder if it is running.
func StopFlightRecorder() {
	stopFlightRecorder()
}

// WriteFlightRecorder writes the current flight recorder window to path.
func WriteFlightRecorder(path string) error {
	return writeFlightRecorder(path)
}

package internal

import "fmt"

// SelectionError reports an unusable selection (no threads, or no owner
// identities to classify roles with). Surfaced before any processing starts.
type SelectionError struct {
	Reason string
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("selection error: %s", e.Reason)
}

// NoTrainableDataError means every selected thread yielded zero entries. An
// empty archive is a terminal failure, not a success with no output.
type NoTrainableDataError struct {
	ThreadCount int
}

func (e *NoTrainableDataError) Error() string {
	return fmt.Sprintf("no trainable data: %d thread(s) produced no dataset entries", e.ThreadCount)
}

// StoreError represents a failure reading the message archive.
type StoreError struct {
	Op  string // "open", "query", "scan"
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// SinkError wraps a failure of the downstream archive writer. The run stops
// and the job is marked failed.
type SinkError struct {
	FileName string
	Err      error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink error writing %s: %v", e.FileName, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

package mmapio

import "sync"

// ErrorSink receives errors that stop a file. Reporting an error marks the
// enclosing job failed.
type ErrorSink interface {
	ReportError(op string, err error)
}

// JobErrors is an ErrorSink that keeps the first error of a job.
// It is safe for use by all threads of the job.
type JobErrors struct {
	mu    sync.Mutex
	op    string
	first error
	count int
}

// ReportError implements ErrorSink.
func (j *JobErrors) ReportError(op string, err error) {
	if err == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.first == nil {
		j.op = op
		j.first = err
	}
	j.count++
}

// Failed reports whether any error was reported.
func (j *JobErrors) Failed() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.first != nil
}

// Err returns the first reported error and its operation tag.
func (j *JobErrors) Err() (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.op, j.first
}

// Count returns the number of reported errors.
func (j *JobErrors) Count() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.count
}

type discardSink struct{}

func (discardSink) ReportError(string, error) {}

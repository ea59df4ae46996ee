package scanner

import (
	"context"
	"errors"
	"sync"

	"github.com/bakerlabs/baker/pkg/baker/types"
)

// State is a scan job's lifecycle state.
type State string

// Job states. A job moves Idle -> Scanning -> one of the terminal
// states and never leaves a terminal state.
const (
	StateIdle      State = "idle"
	StateScanning  State = "scanning"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
	StateErrored   State = "errored"
)

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateErrored
}

// EventType labels a scan notification.
type EventType string

// Event types emitted on a job's event channel.
const (
	EventProgress  EventType = "progress"
	EventDiscovery EventType = "discovery"
	EventCompleted EventType = "completed"
	EventCancelled EventType = "cancelled"
	EventErrored   EventType = "errored"
)

// Event is one notification from a running scan job. Every event
// carries the job id so consumers can discard notifications from
// superseded jobs.
type Event struct {
	JobID    string
	Type     EventType
	Progress *types.ScanProgress
	Project  *types.ProjectRecord
	Err      *types.ScanError
}

// Sentinel errors for job control.
var (
	ErrScanInProgress = errors.New("a scan is already in progress")
	ErrUnknownJob     = errors.New("unknown scan job")
	ErrNotScanning    = errors.New("scan job is not running")
)

// job holds one scan job's mutable state. All access goes through mu.
type job struct {
	id     string
	state  State
	result types.ScanResult
	cancel context.CancelFunc
	events chan Event
	mu     sync.Mutex
}

// snapshot returns a copy of the job's result and state.
func (j *job) snapshot() (types.ScanResult, State) {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := j.result
	out.Errors = append([]types.ScanError(nil), j.result.Errors...)
	out.Projects = append([]types.ProjectRecord(nil), j.result.Projects...)
	if j.result.EndTime != nil {
		end := *j.result.EndTime
		out.EndTime = &end
	}
	return out, j.state
}

// emit delivers an event without blocking the scan. Slow consumers lose
// intermediate progress events; terminal events are delivered by the
// channel close in finish.
func (j *job) emit(e Event) {
	select {
	case j.events <- e:
	default:
	}
}

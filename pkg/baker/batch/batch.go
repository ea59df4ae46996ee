// Package batch applies manifest updates across many project folders in
// one pass. Each path succeeds or fails on its own; one bad folder never
// aborts the rest. A file lock keeps concurrent baker processes from
// rewriting the same manifests.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/gofrs/flock"

	"github.com/bakerlabs/baker/pkg/baker/logging"
	"github.com/bakerlabs/baker/pkg/baker/manifest"
	"github.com/bakerlabs/baker/pkg/baker/preview"
	"github.com/bakerlabs/baker/pkg/baker/types"
)

// Sentinel errors for batch control.
var (
	ErrNoPaths         = errors.New("no project paths given")
	ErrBatchInProgress = errors.New("a batch update is already in progress")
	ErrLocked          = errors.New("another process is updating manifests")
)

// Failure records one path that could not be updated.
type Failure struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Outcome is the per-path accounting of one batch run. Created and
// Updated partition Successful by whether a manifest existed before the
// run. Skipped paths had no manifest and createMissing was off; they are
// neither successes nor failures.
type Outcome struct {
	StartTime  time.Time `json:"startTime"`
	EndTime    time.Time `json:"endTime"`
	Successful []string  `json:"successful"`
	Failed     []Failure `json:"failed"`
	Created    []string  `json:"created"`
	Updated    []string  `json:"updated"`
	Skipped    []string  `json:"skipped"`
}

// Executor runs batch manifest updates.
type Executor struct {
	gen  *preview.Generator
	lock *flock.Flock

	running atomic.Bool
}

// New returns an Executor guarding writes with a file lock at lockPath.
func New(lockPath string) *Executor {
	return &Executor{
		gen:  preview.NewGenerator(),
		lock: flock.New(lockPath),
	}
}

// Apply rewrites the manifest in every given project folder and returns
// the per-path outcome. The paths list must be non-empty; an empty list
// fails before any filesystem work. Only one batch may run per process,
// and the file lock extends that to one per machine.
func (e *Executor) Apply(ctx context.Context, paths []string, opts types.ScanOptions) (*Outcome, error) {
	if len(paths) == 0 {
		return nil, ErrNoPaths
	}

	if !e.running.CompareAndSwap(false, true) {
		return nil, ErrBatchInProgress
	}
	defer e.running.Store(false)

	ok, err := e.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire update lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	defer func() { _ = e.lock.Unlock() }()

	log := logging.Get("batch")
	log.Info("batch update started", "paths", len(paths),
		"createMissing", opts.CreateMissing, "backup", opts.BackupOriginals)

	outcome := &Outcome{StartTime: time.Now().UTC()}
	for _, path := range paths {
		if ctx.Err() != nil {
			outcome.EndTime = time.Now().UTC()
			return outcome, ctx.Err()
		}
		e.applyOne(path, opts, outcome, log)
	}
	outcome.EndTime = time.Now().UTC()

	log.Info("batch update finished",
		"successful", len(outcome.Successful),
		"failed", len(outcome.Failed),
		"skipped", len(outcome.Skipped))
	return outcome, nil
}

// applyOne updates a single project folder and files the result into
// the outcome. Failures are recorded, never propagated.
func (e *Executor) applyOne(path string, opts types.ScanOptions, outcome *Outcome, log *charmlog.Logger) {
	existed := manifest.Exists(path)

	current, err := manifest.Read(path)
	switch {
	case errors.Is(err, manifest.ErrCorrupt):
		// Unreadable manifests are rebuilt from the live folder rather
		// than left broken.
		log.Warn("manifest corrupt, rebuilding", "path", path)
		current = nil
	case err != nil:
		outcome.Failed = append(outcome.Failed, Failure{Path: path, Message: err.Error()})
		return
	}

	if current == nil && !existed && !opts.CreateMissing {
		outcome.Skipped = append(outcome.Skipped, path)
		return
	}

	if opts.BackupOriginals && existed {
		if err := manifest.Backup(path); err != nil {
			outcome.Failed = append(outcome.Failed, Failure{Path: path, Message: fmt.Sprintf("backup: %v", err)})
			return
		}
	}

	bundle := e.gen.Generate(current, path)
	if err := manifest.Write(path, bundle.Updated); err != nil {
		outcome.Failed = append(outcome.Failed, Failure{Path: path, Message: err.Error()})
		return
	}

	outcome.Successful = append(outcome.Successful, path)
	if existed {
		outcome.Updated = append(outcome.Updated, path)
	} else {
		outcome.Created = append(outcome.Created, path)
	}
	log.Debug("manifest written", "path", path, "created", !existed)
}

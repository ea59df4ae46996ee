// Package scanner runs scan jobs over a folder tree, discovering
// project folders and evaluating each one's manifest. Jobs are tracked
// in an explicit registry keyed by job id; only one scan runs at a
// time.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/google/uuid"

	"github.com/bakerlabs/baker/pkg/baker/logging"
	"github.com/bakerlabs/baker/pkg/baker/manifest"
	"github.com/bakerlabs/baker/pkg/baker/project"
	"github.com/bakerlabs/baker/pkg/baker/types"
)

// skipNames are folder names never descended into. They show up inside
// project trees (node_modules under Scripts, .git anywhere) and would
// dominate the walk if followed.
var skipNames = map[string]struct{}{
	"node_modules": {},
	".git":         {},
	".svn":         {},
	".hg":          {},
	"vendor":       {},
	"build":        {},
	"dist":         {},
	"target":       {},
	".cache":       {},
	"tmp":          {},
	"temp":         {},
	"__pycache__":  {},
}

// progressInterval throttles progress events.
const progressInterval = 100 * time.Millisecond

// eventBuffer is the per-job event channel capacity.
const eventBuffer = 64

// Sizer resolves a project folder's size in bytes. *sizecache.Cache
// satisfies it; a nil Sizer falls back to walking the folder.
type Sizer interface {
	Size(projectPath string) (int64, error)
}

// Orchestrator starts, tracks, and cancels scan jobs.
type Orchestrator struct {
	sizer Sizer

	mu     sync.Mutex // guards jobs
	jobs   map[string]*job
	active atomic.Bool
}

// New returns an Orchestrator. sizer may be nil.
func New(sizer Sizer) *Orchestrator {
	return &Orchestrator{
		sizer: sizer,
		jobs:  make(map[string]*job),
	}
}

// StartScan launches a scan job rooted at rootPath and returns the job
// id and its event channel. The channel is closed when the job reaches
// a terminal state. Exactly one scan may run at a time; a second
// StartScan fails with ErrScanInProgress.
func (o *Orchestrator) StartScan(ctx context.Context, rootPath string, opts types.ScanOptions) (string, <-chan Event, error) {
	root, err := filepath.Abs(rootPath)
	if err != nil {
		return "", nil, fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", nil, fmt.Errorf("scan root: %w", err)
	}
	if !info.IsDir() {
		return "", nil, fmt.Errorf("scan root is not a directory: %s", root)
	}
	if opts.MaxDepth < 1 {
		return "", nil, fmt.Errorf("maxDepth must be >= 1, got %d", opts.MaxDepth)
	}

	if !o.active.CompareAndSwap(false, true) {
		return "", nil, ErrScanInProgress
	}

	jobCtx, cancel := context.WithCancel(ctx)
	j := &job{
		id:     uuid.NewString(),
		state:  StateScanning,
		cancel: cancel,
		events: make(chan Event, eventBuffer),
		result: types.ScanResult{
			StartTime: time.Now().UTC(),
			RootPath:  root,
		},
	}

	o.mu.Lock()
	o.jobs[j.id] = j
	o.mu.Unlock()

	logging.Get("scanner").Info("scan started", "jobId", j.id, "root", root, "maxDepth", opts.MaxDepth)
	go o.run(jobCtx, j, root, opts)
	return j.id, j.events, nil
}

// Status returns a snapshot of a job's result and state.
func (o *Orchestrator) Status(jobID string) (types.ScanResult, State, error) {
	o.mu.Lock()
	j, ok := o.jobs[jobID]
	o.mu.Unlock()
	if !ok {
		return types.ScanResult{}, StateIdle, ErrUnknownJob
	}
	result, state := j.snapshot()
	return result, state, nil
}

// Cancel requests cooperative cancellation of a running job. The job
// keeps everything discovered so far; its EndTime stays unset.
func (o *Orchestrator) Cancel(jobID string) error {
	o.mu.Lock()
	j, ok := o.jobs[jobID]
	o.mu.Unlock()
	if !ok {
		return ErrUnknownJob
	}

	j.mu.Lock()
	running := j.state == StateScanning
	j.mu.Unlock()
	if !running {
		return ErrNotScanning
	}

	j.cancel()
	return nil
}

// run drives one scan job to a terminal state.
func (o *Orchestrator) run(ctx context.Context, j *job, root string, opts types.ScanOptions) {
	defer o.active.Store(false)
	defer j.cancel()

	w := &walker{
		orch: o,
		job:  j,
		root: root,
		opts: opts,
		ctx:  ctx,
	}

	// The root folder itself is evaluated before any recursion: a scan
	// pointed directly at a project folder must find it, and has nothing
	// below it worth walking.
	var err error
	if !w.visit(root, 0) {
		err = w.walk()
	}

	switch {
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		o.finish(j, StateCancelled, nil)
	case err != nil:
		o.finish(j, StateErrored, err)
	default:
		o.finish(j, StateCompleted, nil)
	}
}

// finish moves a job to a terminal state and closes its event channel.
// Completed and Errored jobs get an EndTime; cancelled jobs do not,
// marking the result as partial.
func (o *Orchestrator) finish(j *job, state State, cause error) {
	j.mu.Lock()
	j.state = state
	if state != StateCancelled {
		end := time.Now().UTC()
		j.result.EndTime = &end
	}
	folders := j.result.TotalFolders
	projects := len(j.result.Projects)
	j.mu.Unlock()

	log := logging.Get("scanner")
	var event Event
	switch state {
	case StateCancelled:
		log.Warn("scan cancelled", "jobId", j.id, "folders", folders, "projects", projects)
		event = Event{JobID: j.id, Type: EventCancelled}
	case StateErrored:
		log.Error("scan failed", "jobId", j.id, "error", cause)
		event = Event{JobID: j.id, Type: EventErrored, Err: &types.ScanError{
			Path:      j.result.RootPath,
			Type:      types.ErrorFilesystem,
			Message:   cause.Error(),
			Timestamp: time.Now().UTC(),
		}}
	default:
		log.Info("scan completed", "jobId", j.id, "folders", folders, "projects", projects)
		event = Event{JobID: j.id, Type: EventCompleted}
	}

	// The close below signals termination even if this send is dropped.
	j.emit(event)
	close(j.events)
}

// walker carries one job's walk state.
type walker struct {
	orch *Orchestrator
	job  *job
	root string
	opts types.ScanOptions
	ctx  context.Context

	lastProgress atomic.Int64 // unix nanos of last progress event
}

// walk enumerates folders below the root with fastwalk. Folders that
// are projects (or contain partial project structure) are evaluated and
// not descended into; everything else is recursed up to MaxDepth.
func (w *walker) walk() error {
	conf := fastwalk.Config{
		Follow: false,
	}

	err := fastwalk.Walk(&conf, w.root, func(path string, d fs.DirEntry, err error) error {
		if w.ctx.Err() != nil {
			return context.Canceled
		}
		if err != nil {
			w.addError(path, classify(err), err.Error())
			return nil
		}
		if !d.IsDir() || path == w.root {
			return nil
		}

		name := d.Name()
		if !w.opts.IncludeHidden && strings.HasPrefix(name, ".") {
			return fastwalk.SkipDir
		}
		if _, skip := skipNames[name]; skip {
			return fastwalk.SkipDir
		}

		depth := w.depth(path)
		if depth > w.opts.MaxDepth {
			return fastwalk.SkipDir
		}

		if w.visit(path, depth) {
			// Project folder (or partial one): its internals are footage
			// and render output, not more projects.
			return fastwalk.SkipDir
		}
		return nil
	})
	if errors.Is(err, context.Canceled) {
		return context.Canceled
	}
	return err
}

// depth counts path separators below the root; direct children are 1.
func (w *walker) depth(path string) int {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

// visit evaluates one folder and reports whether recursion should stop
// below it. Recursion stops at project folders and at folders with
// partial project structure (a Footage or Graphics subfolder).
func (w *walker) visit(path string, depth int) bool {
	j := w.job

	j.mu.Lock()
	j.result.TotalFolders++
	j.mu.Unlock()
	w.reportProgress(path)

	record, scanErr := w.evaluate(path)
	if scanErr != nil {
		w.addError(path, scanErr.Type, scanErr.Message)
	}

	if record != nil {
		j.mu.Lock()
		j.result.Projects = append(j.result.Projects, *record)
		if record.IsValid {
			j.result.ValidProjects++
		}
		j.mu.Unlock()

		j.emit(Event{JobID: j.id, Type: EventDiscovery, Project: record})
		w.accumulateSize(path)
		return true
	}

	return depth > 0 && hasPartialStructure(path)
}

// evaluate builds a ProjectRecord for a folder, or nil when the folder
// is neither a valid project nor carries a manifest.
func (w *walker) evaluate(path string) (*types.ProjectRecord, *types.ScanError) {
	valid, validationErrs, cameraCount := project.Validate(path)

	rec, err := manifest.Read(path)
	corrupt := false
	var scanErr *types.ScanError
	switch {
	case errors.Is(err, manifest.ErrCorrupt):
		corrupt = true
		scanErr = &types.ScanError{
			Path:      path,
			Type:      types.ErrorCorruption,
			Message:   err.Error(),
			Timestamp: time.Now().UTC(),
		}
	case err != nil:
		scanErr = &types.ScanError{
			Path:      path,
			Type:      classify(err),
			Message:   err.Error(),
			Timestamp: time.Now().UTC(),
		}
	}

	hasManifest := rec != nil
	if !valid && !hasManifest && !corrupt {
		return nil, scanErr
	}

	stale := false
	if hasManifest {
		stale, _ = project.IsStale(path, rec)
	}

	return &types.ProjectRecord{
		Path:             path,
		Name:             filepath.Base(path),
		IsValid:          valid,
		HasManifest:      hasManifest,
		ManifestCorrupt:  corrupt,
		IsManifestStale:  stale,
		CameraCount:      cameraCount,
		LastScanned:      time.Now().UTC(),
		ValidationErrors: validationErrs,
	}, scanErr
}

// accumulateSize adds a project's folder size to the running total.
// Size failures are logged, not recorded: sizes are advisory.
func (w *walker) accumulateSize(path string) {
	var (
		size int64
		err  error
	)
	if w.orch.sizer != nil {
		size, err = w.orch.sizer.Size(path)
	} else {
		size, err = project.FolderSize(path)
	}
	if err != nil {
		logging.Get("scanner").Warn("folder size unavailable", "path", path, "error", err)
		return
	}

	w.job.mu.Lock()
	w.job.result.TotalFolderSize += size
	w.job.mu.Unlock()
}

// addError appends a non-fatal error to the job result.
func (w *walker) addError(path string, errType types.ErrorType, msg string) {
	j := w.job
	j.mu.Lock()
	j.result.Errors = append(j.result.Errors, types.ScanError{
		Path:      path,
		Type:      errType,
		Message:   msg,
		Timestamp: time.Now().UTC(),
	})
	j.mu.Unlock()
}

// reportProgress emits a throttled progress event.
func (w *walker) reportProgress(currentPath string) {
	now := time.Now().UnixNano()
	last := w.lastProgress.Load()
	if now-last < int64(progressInterval) || !w.lastProgress.CompareAndSwap(last, now) {
		return
	}

	j := w.job
	j.mu.Lock()
	progress := types.ScanProgress{
		JobID:          j.id,
		FoldersScanned: j.result.TotalFolders,
		TotalFolders:   j.result.TotalFolders,
		CurrentPath:    currentPath,
		ProjectsFound:  len(j.result.Projects),
	}
	j.mu.Unlock()

	j.emit(Event{JobID: j.id, Type: EventProgress, Progress: &progress})
}

// hasPartialStructure reports whether a folder has begun the project
// layout. Such folders are in-progress projects, not containers of
// further projects.
func hasPartialStructure(path string) bool {
	for _, name := range []string{project.FootageDir, "Graphics"} {
		if info, err := os.Stat(filepath.Join(path, name)); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

// classify maps a filesystem error onto the scan error taxonomy.
func classify(err error) types.ErrorType {
	switch {
	case os.IsPermission(err):
		return types.ErrorPermission
	case os.IsNotExist(err):
		return types.ErrorStructure
	default:
		return types.ErrorFilesystem
	}
}

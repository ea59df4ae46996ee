package scanner

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bakerlabs/baker/pkg/baker/manifest"
	"github.com/bakerlabs/baker/pkg/baker/project"
	"github.com/bakerlabs/baker/pkg/baker/types"
)

// makeProjectAt builds a valid project folder named name under parent,
// with the given files per camera index.
func makeProjectAt(t *testing.T, parent, name string, cameras map[int][]string) string {
	t.Helper()
	dir := filepath.Join(parent, name)
	for _, sub := range project.RequiredSubfolders {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	for cam, names := range cameras {
		camDir := filepath.Join(dir, project.FootageDir, project.CameraPrefix+strconv.Itoa(cam))
		if err := os.MkdirAll(camDir, 0o755); err != nil {
			t.Fatal(err)
		}
		for _, n := range names {
			if err := os.WriteFile(filepath.Join(camDir, n), []byte("footage"), 0o644); err != nil {
				t.Fatal(err)
			}
		}
	}
	return dir
}

func writeManifest(t *testing.T, dir string, rec *manifest.Record) {
	t.Helper()
	require.NoError(t, manifest.Write(dir, rec))
}

func defaultOpts() types.ScanOptions {
	return types.ScanOptions{MaxDepth: 5}
}

// runScan starts a scan, drains its events, and returns the final
// result, state, and collected events.
func runScan(t *testing.T, o *Orchestrator, root string, opts types.ScanOptions) (types.ScanResult, State, []Event) {
	t.Helper()
	jobID, events, err := o.StartScan(context.Background(), root, opts)
	require.NoError(t, err)

	collected := drain(t, events)
	result, state, err := o.Status(jobID)
	require.NoError(t, err)
	return result, state, collected
}

// drain collects events until the channel closes.
func drain(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var collected []Event
	timeout := time.After(30 * time.Second)
	for {
		select {
		case e, ok := <-events:
			if !ok {
				return collected
			}
			collected = append(collected, e)
		case <-timeout:
			t.Fatal("scan did not finish")
		}
	}
}

func findProject(result types.ScanResult, path string) *types.ProjectRecord {
	for i := range result.Projects {
		if result.Projects[i].Path == path {
			return &result.Projects[i]
		}
	}
	return nil
}

func TestStartScanValidation(t *testing.T) {
	t.Parallel()
	o := New(nil)

	t.Run("missing root", func(t *testing.T) {
		_, _, err := o.StartScan(context.Background(), filepath.Join(t.TempDir(), "gone"), defaultOpts())
		assert.Error(t, err)
	})

	t.Run("root is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "f")
		require.NoError(t, os.WriteFile(file, nil, 0o644))
		_, _, err := o.StartScan(context.Background(), file, defaultOpts())
		assert.Error(t, err)
	})

	t.Run("zero max depth", func(t *testing.T) {
		_, _, err := o.StartScan(context.Background(), t.TempDir(), types.ScanOptions{})
		assert.ErrorContains(t, err, "maxDepth")
	})
}

func TestScanDiscoversProjects(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	valid := makeProjectAt(t, root, "Harbor Tour", map[int][]string{1: {"a.mp4"}})
	writeManifest(t, valid, &manifest.Record{
		ProjectTitle:    "Harbor Tour",
		NumberOfCameras: 1,
		Files:           []manifest.FileEntry{{Camera: 1, Name: "a.mp4", Path: "Footage/Camera 1/a.mp4"}},
	})

	// A folder with a manifest but a broken layout is still reported.
	invalid := filepath.Join(root, "Half Finished")
	require.NoError(t, os.MkdirAll(invalid, 0o755))
	writeManifest(t, invalid, &manifest.Record{ProjectTitle: "Half Finished"})

	// Plain folders without manifest or layout are containers, not
	// projects.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "misc", "notes"), 0o755))

	result, state, events := runScan(t, New(nil), root, defaultOpts())

	assert.Equal(t, StateCompleted, state)
	require.NotNil(t, result.EndTime)
	assert.Len(t, result.Projects, 2)
	assert.Equal(t, 1, result.ValidProjects)

	rec := findProject(result, valid)
	require.NotNil(t, rec)
	assert.True(t, rec.IsValid)
	assert.True(t, rec.HasManifest)
	assert.False(t, rec.IsManifestStale)
	assert.Equal(t, 1, rec.CameraCount)

	inv := findProject(result, invalid)
	require.NotNil(t, inv)
	assert.False(t, inv.IsValid)
	assert.True(t, inv.HasManifest)
	assert.NotEmpty(t, inv.ValidationErrors)

	var sawDiscovery, sawCompleted bool
	for _, e := range events {
		switch e.Type {
		case EventDiscovery:
			sawDiscovery = true
		case EventCompleted:
			sawCompleted = true
		}
	}
	assert.True(t, sawDiscovery, "no discovery events")
	assert.True(t, sawCompleted, "no completed event")
}

func TestScanRootIsProject(t *testing.T) {
	t.Parallel()

	parent := t.TempDir()
	root := makeProjectAt(t, parent, "Solo", map[int][]string{1: {"a.mp4"}})

	result, state, _ := runScan(t, New(nil), root, defaultOpts())

	assert.Equal(t, StateCompleted, state)
	require.Len(t, result.Projects, 1)
	assert.Equal(t, root, result.Projects[0].Path)
	assert.Equal(t, 1, result.TotalFolders, "project internals are not separate folders")
}

func TestScanDetectsStaleManifest(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dir := makeProjectAt(t, root, "Stale", map[int][]string{
		1: {"a.mp4", "b.mp4", "c.mp4"},
		2: {"d.mp4", "e.mp4"},
	})
	// Manifest recorded before cameras 1 and 2 gained files.
	writeManifest(t, dir, &manifest.Record{
		ProjectTitle:    "Stale",
		NumberOfCameras: 2,
		Files: []manifest.FileEntry{
			{Camera: 1, Name: "a.mp4", Path: "Footage/Camera 1/a.mp4"},
			{Camera: 1, Name: "b.mp4", Path: "Footage/Camera 1/b.mp4"},
			{Camera: 2, Name: "d.mp4", Path: "Footage/Camera 2/d.mp4"},
		},
	})

	result, _, _ := runScan(t, New(nil), root, defaultOpts())

	rec := findProject(result, dir)
	require.NotNil(t, rec)
	assert.True(t, rec.IsManifestStale)
}

func TestScanReportsCorruptManifest(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dir := makeProjectAt(t, root, "Broken", map[int][]string{1: {"a.mp4"}})
	require.NoError(t, os.WriteFile(filepath.Join(dir, manifest.Filename), []byte("{not json"), 0o644))

	result, state, _ := runScan(t, New(nil), root, defaultOpts())

	assert.Equal(t, StateCompleted, state, "corruption is non-fatal")

	rec := findProject(result, dir)
	require.NotNil(t, rec)
	assert.True(t, rec.ManifestCorrupt)
	assert.False(t, rec.HasManifest)

	require.NotEmpty(t, result.Errors)
	assert.Equal(t, types.ErrorCorruption, result.Errors[0].Type)
	assert.Equal(t, dir, result.Errors[0].Path)
}

func TestScanDepthLimit(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	deep := makeProjectAt(t, nested, "Deep", map[int][]string{1: {"a.mp4"}})

	shallow, _, _ := runScan(t, New(nil), root, types.ScanOptions{MaxDepth: 2})
	assert.Nil(t, findProject(shallow, deep), "depth 3 project found at maxDepth 2")

	full, _, _ := runScan(t, New(nil), root, types.ScanOptions{MaxDepth: 3})
	assert.NotNil(t, findProject(full, deep))
}

func TestScanSkipsNoiseFolders(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules"), 0o755))
	makeProjectAt(t, filepath.Join(root, "node_modules"), "Fake", map[int][]string{1: {"a.mp4"}})
	hiddenProject := makeProjectAt(t, filepath.Join(root, ".archive"), "Hidden", map[int][]string{1: {"a.mp4"}})

	result, _, _ := runScan(t, New(nil), root, defaultOpts())
	assert.Empty(t, result.Projects)

	withHidden, _, _ := runScan(t, New(nil), root, types.ScanOptions{MaxDepth: 5, IncludeHidden: true})
	assert.NotNil(t, findProject(withHidden, hiddenProject))
	assert.Nil(t, findProject(withHidden, filepath.Join(root, "node_modules", "Fake")),
		"node_modules is skipped even with hidden folders included")
}

// blockingSizer parks the scan inside a project evaluation until
// released, making in-flight assertions deterministic.
type blockingSizer struct {
	entered chan struct{}
	release chan struct{}
}

func newBlockingSizer() *blockingSizer {
	return &blockingSizer{entered: make(chan struct{}, 1), release: make(chan struct{})}
}

func (s *blockingSizer) Size(string) (int64, error) {
	select {
	case s.entered <- struct{}{}:
	default:
	}
	<-s.release
	return 0, nil
}

func TestSecondScanRejected(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	makeProjectAt(t, root, "P", map[int][]string{1: {"a.mp4"}})

	sizer := newBlockingSizer()
	o := New(sizer)

	jobID, events, err := o.StartScan(context.Background(), root, defaultOpts())
	require.NoError(t, err)
	<-sizer.entered

	_, _, err = o.StartScan(context.Background(), root, defaultOpts())
	assert.ErrorIs(t, err, ErrScanInProgress)

	close(sizer.release)
	drain(t, events)

	_, state, err := o.Status(jobID)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, state)

	// The slot frees up once the job is terminal.
	_, events2, err := o.StartScan(context.Background(), root, types.ScanOptions{MaxDepth: 5})
	require.NoError(t, err)
	drain(t, events2)
}

func TestCancelKeepsPartialResults(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	found := makeProjectAt(t, root, "Found", map[int][]string{1: {"a.mp4"}})

	sizer := newBlockingSizer()
	o := New(sizer)

	jobID, events, err := o.StartScan(context.Background(), root, defaultOpts())
	require.NoError(t, err)
	<-sizer.entered

	require.NoError(t, o.Cancel(jobID))
	close(sizer.release)
	collected := drain(t, events)

	result, state, err := o.Status(jobID)
	require.NoError(t, err)
	assert.Equal(t, StateCancelled, state)
	assert.Nil(t, result.EndTime, "cancelled jobs keep EndTime unset")
	assert.NotNil(t, findProject(result, found), "partial results retained")

	last := collected[len(collected)-1]
	assert.Equal(t, EventCancelled, last.Type)
	assert.Equal(t, jobID, last.JobID)

	// A terminal job cannot be cancelled again.
	assert.ErrorIs(t, o.Cancel(jobID), ErrNotScanning)
}

func TestStatusUnknownJob(t *testing.T) {
	t.Parallel()

	o := New(nil)
	_, _, err := o.Status("nope")
	assert.ErrorIs(t, err, ErrUnknownJob)
	assert.ErrorIs(t, o.Cancel("nope"), ErrUnknownJob)
}

func TestResultSnapshotIsIndependent(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	makeProjectAt(t, root, "P", map[int][]string{1: {"a.mp4"}})

	o := New(nil)
	result, _, _ := runScan(t, o, root, defaultOpts())

	// Mutating the snapshot must not reach the registry.
	require.NotEmpty(t, result.Projects)
	result.Projects[0].Name = "mutated"

	jobID := ""
	o.mu.Lock()
	for id := range o.jobs {
		jobID = id
	}
	o.mu.Unlock()

	fresh, _, err := o.Status(jobID)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", fresh.Projects[0].Name)
}

func TestProgressEventsCarryJobID(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for i := 0; i < 3; i++ {
		makeProjectAt(t, root, "P"+strconv.Itoa(i), map[int][]string{1: {"a.mp4"}})
	}

	o := New(nil)
	jobID, events, err := o.StartScan(context.Background(), root, defaultOpts())
	require.NoError(t, err)

	for _, e := range drain(t, events) {
		assert.Equal(t, jobID, e.JobID)
	}
}

func TestScanResultJSONShape(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	makeProjectAt(t, root, "P", map[int][]string{1: {"a.mp4"}})

	result, _, _ := runScan(t, New(nil), root, defaultOpts())

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "rootPath")
	assert.Contains(t, decoded, "validProjects")
	assert.Contains(t, decoded, "endTime")
}

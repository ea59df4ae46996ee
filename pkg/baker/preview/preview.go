// Package preview synthesizes candidate manifest updates and the diffs
// an operator reviews before any write happens.
package preview

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bakerlabs/baker/pkg/baker/diff"
	"github.com/bakerlabs/baker/pkg/baker/logging"
	"github.com/bakerlabs/baker/pkg/baker/manifest"
	"github.com/bakerlabs/baker/pkg/baker/project"
)

// Observation is what a live scan of a project folder saw.
type Observation struct {
	Files       []manifest.FileEntry
	CameraCount int
}

// Bundle pairs the current manifest (nil when absent) with the
// synthesized update and both diff variants. Bundles are transient:
// recomputed on request, never persisted.
type Bundle struct {
	Current        *manifest.Record `json:"current"`
	Updated        *manifest.Record `json:"updated"`
	Diff           diff.Diff        `json:"diff"`
	MeaningfulDiff diff.Diff        `json:"meaningfulDiff"`
}

// Generator builds preview bundles. The zero value is not usable; call
// NewGenerator.
type Generator struct {
	identity string
	now      func() time.Time

	// scanFiles and validate are swappable for tests.
	scanFiles func(string) ([]manifest.FileEntry, error)
	validate  func(string) (bool, []string, int)
}

// NewGenerator returns a Generator using the tool identity and real
// filesystem observation.
func NewGenerator() *Generator {
	return &Generator{
		identity:  diff.ToolName,
		now:       time.Now,
		scanFiles: project.ScanFiles,
		validate:  project.Validate,
	}
}

// Generate observes the project folder live and returns a preview
// bundle. Generation never fails outright: if the live scan errors, it
// falls back to the manifest's recorded file list, and failing that to a
// placeholder list with one file per camera, so the operator always sees
// a preview instead of a silent blank.
func (g *Generator) Generate(current *manifest.Record, projectPath string) *Bundle {
	obs := g.observe(current, projectPath)
	return g.Bundle(current, projectPath, obs)
}

// Bundle synthesizes the updated manifest from an observation and runs
// both diff passes. Pure computation; safe to fan out across projects.
func (g *Generator) Bundle(current *manifest.Record, projectPath string, obs Observation) *Bundle {
	updated := g.Synthesize(current, projectPath, obs)
	return &Bundle{
		Current:        current,
		Updated:        updated,
		Diff:           diff.Compare(current, updated, true),
		MeaningfulDiff: diff.FilterMeaningful(current, updated),
	}
}

// Synthesize builds the candidate updated manifest.
//
// For a missing manifest it creates a fresh record with tool defaults.
// For an existing one it copies the record, overwrites the observed
// fields, stamps maintenance markers, and preserves folderSizeBytes
// (size is computed lazily elsewhere when absent).
func (g *Generator) Synthesize(current *manifest.Record, projectPath string, obs Observation) *manifest.Record {
	now := g.now().UTC().Format(time.RFC3339)
	identity := g.identity
	cameras := obs.CameraCount
	if maxIdx := maxCameraIndex(obs.Files); maxIdx > cameras {
		cameras = maxIdx
	}

	if current == nil {
		return &manifest.Record{
			ProjectTitle:     filepath.Base(projectPath),
			NumberOfCameras:  cameras,
			Files:            obs.Files,
			ParentFolder:     filepath.Dir(projectPath),
			CreatedBy:        identity,
			CreationDateTime: now,
			LastModified:     &now,
			ScannedBy:        &identity,
		}
	}

	updated := current.Clone()
	updated.Files = obs.Files
	updated.NumberOfCameras = cameras
	if !strings.HasSuffix(updated.CreatedBy, diff.MaintenanceSuffix) {
		updated.CreatedBy += diff.MaintenanceSuffix
	}
	updated.LastModified = &now
	updated.ScannedBy = &identity
	return updated
}

// observe runs the live scan with the fallback chain.
func (g *Generator) observe(current *manifest.Record, projectPath string) Observation {
	_, _, cameraCount := g.validate(projectPath)

	files, err := g.scanFiles(projectPath)
	if err == nil {
		return Observation{Files: files, CameraCount: cameraCount}
	}
	logging.Get("preview").Warn("live scan failed, falling back",
		"path", projectPath, "error", err)

	if current != nil && len(current.Files) > 0 {
		return Observation{
			Files:       append([]manifest.FileEntry(nil), current.Files...),
			CameraCount: current.NumberOfCameras,
		}
	}

	if cameraCount < 1 {
		cameraCount = 1
	}
	return Observation{Files: placeholderFiles(cameraCount), CameraCount: cameraCount}
}

// placeholderFiles builds a one-file-per-camera stand-in list.
func placeholderFiles(cameras int) []manifest.FileEntry {
	files := make([]manifest.FileEntry, 0, cameras)
	for cam := 1; cam <= cameras; cam++ {
		name := fmt.Sprintf("camera-%d-placeholder", cam)
		files = append(files, manifest.FileEntry{
			Camera: cam,
			Name:   name,
			Path:   fmt.Sprintf("%s/%s%d/%s", project.FootageDir, project.CameraPrefix, cam, name),
		})
	}
	return files
}

func maxCameraIndex(files []manifest.FileEntry) int {
	maxCam := 0
	for _, f := range files {
		if f.Camera > maxCam {
			maxCam = f.Camera
		}
	}
	return maxCam
}

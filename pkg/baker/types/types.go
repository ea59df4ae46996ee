// Package types provides core data types for the baker manifest
// reconciliation engine: scan observations, scan job results, and the
// error taxonomy shared by the scanner and batch executor.
package types

import "time"

// ErrorType classifies scan and update failures.
type ErrorType string

// Error taxonomy. Scan-time errors are non-fatal: they attach to the
// affected folder and the scan continues.
const (
	ErrorPermission ErrorType = "permission"
	ErrorStructure  ErrorType = "structure"
	ErrorFilesystem ErrorType = "filesystem"
	ErrorCorruption ErrorType = "corruption"
)

// ProjectRecord is a scan-time observation of a candidate project
// folder. Records are created fresh on every scan and never persisted;
// the next scan of the same path supersedes them.
type ProjectRecord struct {
	// Path is the absolute path of the project folder.
	Path string `json:"path"`

	// Name is the folder's base name.
	Name string `json:"name"`

	// IsValid reports whether the folder satisfies the required
	// project layout.
	IsValid bool `json:"isValid"`

	// HasManifest reports whether a parseable manifest is present.
	HasManifest bool `json:"hasManifest"`

	// ManifestCorrupt reports a manifest that exists but cannot be
	// parsed. Such folders are reported, not skipped, so operators can
	// remediate.
	ManifestCorrupt bool `json:"manifestCorrupt"`

	// IsManifestStale reports that the manifest's recorded file list
	// disagrees with the live folder contents.
	IsManifestStale bool `json:"isManifestStale"`

	// CameraCount is the number of camera folders observed live.
	CameraCount int `json:"cameraCount"`

	// LastScanned is when this observation was taken.
	LastScanned time.Time `json:"lastScanned"`

	// ValidationErrors lists layout problems for invalid folders.
	ValidationErrors []string `json:"validationErrors"`
}

// ScanError is one non-fatal failure attached to a folder during a scan.
type ScanError struct {
	Path      string    `json:"path"`
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ScanOptions configures a scan job.
type ScanOptions struct {
	// MaxDepth bounds folder recursion below the root. Must be >= 1.
	MaxDepth int `json:"maxDepth"`

	// IncludeHidden includes dot-folders in enumeration.
	IncludeHidden bool `json:"includeHidden"`

	// CreateMissing marks the scan's intent to create manifests for
	// valid projects that lack one; the batch executor honors it.
	CreateMissing bool `json:"createMissing"`

	// BackupOriginals requests a backup before each manifest rewrite.
	BackupOriginals bool `json:"backupOriginals"`
}

// ScanResult is the accumulated outcome of one scan job. While the job
// is running it reflects progress so far; EndTime is set only when the
// job reaches Completed or Errored. A cancelled job keeps EndTime unset
// but retains everything discovered before cancellation.
type ScanResult struct {
	StartTime       time.Time       `json:"startTime"`
	EndTime         *time.Time      `json:"endTime,omitempty"`
	RootPath        string          `json:"rootPath"`
	TotalFolders    int             `json:"totalFolders"`
	ValidProjects   int             `json:"validProjects"`
	TotalFolderSize int64           `json:"totalFolderSize"`
	Errors          []ScanError     `json:"errors"`
	Projects        []ProjectRecord `json:"projects"`
}

// ScanProgress is an incremental report for a running scan job.
// Events carry the job id so consumers can discard notifications from
// superseded jobs.
type ScanProgress struct {
	JobID          string `json:"jobId"`
	FoldersScanned int    `json:"foldersScanned"`
	TotalFolders   int    `json:"totalFolders"`
	CurrentPath    string `json:"currentPath"`
	ProjectsFound  int    `json:"projectsFound"`
}

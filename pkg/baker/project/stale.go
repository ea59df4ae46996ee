package project

import (
	"sort"

	"github.com/bakerlabs/baker/pkg/baker/manifest"
)

// StaleSizeThresholdBytes is the minimum folder-size drift before a
// recorded folderSizeBytes alone marks a manifest stale. Small drift is
// expected (sidecar files, filesystem noise) and not worth a prompt.
const StaleSizeThresholdBytes = 1024

// IsStale reports whether a manifest disagrees with the live folder.
// A manifest is stale when its recorded file list differs from the live
// scan by identity (camera and name, not just count), or when the
// recorded folder size drifts beyond StaleSizeThresholdBytes.
// A nil record is never stale; it is simply absent.
func IsStale(projectPath string, rec *manifest.Record) (bool, error) {
	if rec == nil {
		return false, nil
	}

	live, err := ScanFiles(projectPath)
	if err != nil {
		return false, err
	}
	if !sameFiles(rec.Files, live) {
		return true, nil
	}

	if rec.FolderSizeBytes != nil {
		current, err := FolderSize(projectPath)
		if err != nil {
			return false, err
		}
		drift := current - *rec.FolderSizeBytes
		if drift < 0 {
			drift = -drift
		}
		if drift >= StaleSizeThresholdBytes {
			return true, nil
		}
	}

	return false, nil
}

// sameFiles compares two file lists by camera and name, order
// insensitive.
func sameFiles(recorded, live []manifest.FileEntry) bool {
	if len(recorded) != len(live) {
		return false
	}

	a := append([]manifest.FileEntry(nil), recorded...)
	b := append([]manifest.FileEntry(nil), live...)
	byIdentity := func(files []manifest.FileEntry) func(i, j int) bool {
		return func(i, j int) bool {
			if files[i].Camera != files[j].Camera {
				return files[i].Camera < files[j].Camera
			}
			return files[i].Name < files[j].Name
		}
	}
	sort.Slice(a, byIdentity(a))
	sort.Slice(b, byIdentity(b))

	for i := range a {
		if a[i].Camera != b[i].Camera || a[i].Name != b[i].Name {
			return false
		}
	}
	return true
}

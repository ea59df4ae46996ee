// Package project knows what a valid project folder looks like on disk:
// the required subfolder layout, camera folder naming, and how to
// enumerate the media files a manifest should record.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bakerlabs/baker/pkg/baker/manifest"
)

// FootageDir is the subfolder holding camera folders.
const FootageDir = "Footage"

// CameraPrefix names camera folders inside FootageDir ("Camera 1", ...).
const CameraPrefix = "Camera "

// RequiredSubfolders must all exist for a folder to be a valid project.
var RequiredSubfolders = []string{FootageDir, "Graphics", "Renders", "Projects", "Scripts"}

// Validate checks a folder against the required project layout.
// It returns whether the layout is satisfied, the list of problems when
// it is not, and the number of camera folders found.
func Validate(path string) (bool, []string, int) {
	var errs []string

	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		return false, []string{"folder does not exist"}, 0
	}

	for _, name := range RequiredSubfolders {
		sub := filepath.Join(path, name)
		if info, err := os.Stat(sub); err != nil || !info.IsDir() {
			errs = append(errs, fmt.Sprintf("missing required subfolder: %s", name))
		}
	}

	cameraCount := countCameraFolders(path)
	if cameraCount == 0 {
		errs = append(errs, "no camera folders found in Footage directory")
	}

	return len(errs) == 0, errs, cameraCount
}

// countCameraFolders counts "Camera N" directories under Footage.
func countCameraFolders(path string) int {
	entries, err := os.ReadDir(filepath.Join(path, FootageDir))
	if err != nil {
		return 0
	}
	count := 0
	for _, e := range entries {
		if e.IsDir() && parseCameraIndex(e.Name()) > 0 {
			count++
		}
	}
	return count
}

// parseCameraIndex extracts N from "Camera N", or 0 if the name does not
// match.
func parseCameraIndex(name string) int {
	rest, ok := strings.CutPrefix(name, CameraPrefix)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// ScanFiles enumerates media files under the project's camera folders,
// sorted by camera index then name. Hidden files (.DS_Store and
// friends) are skipped. Paths are recorded relative to the project
// folder using forward slashes, matching the manifest convention.
func ScanFiles(path string) ([]manifest.FileEntry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("project folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project path is not a directory: %s", path)
	}

	var files []manifest.FileEntry
	entries, err := os.ReadDir(filepath.Join(path, FootageDir))
	if err != nil {
		if os.IsNotExist(err) {
			return files, nil
		}
		return nil, fmt.Errorf("read footage folder: %w", err)
	}

	for _, cameraDir := range entries {
		camera := parseCameraIndex(cameraDir.Name())
		if camera == 0 || !cameraDir.IsDir() {
			continue
		}

		cameraFiles, err := os.ReadDir(filepath.Join(path, FootageDir, cameraDir.Name()))
		if err != nil {
			continue // Unreadable camera folder; the rest still count.
		}
		for _, f := range cameraFiles {
			if f.IsDir() || strings.HasPrefix(f.Name(), ".") {
				continue
			}
			files = append(files, manifest.FileEntry{
				Camera: camera,
				Name:   f.Name(),
				Path:   FootageDir + "/" + cameraDir.Name() + "/" + f.Name(),
			})
		}
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].Camera != files[j].Camera {
			return files[i].Camera < files[j].Camera
		}
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// FolderSize walks the folder tree and sums file sizes in bytes.
// Unreadable entries are skipped rather than failing the whole walk.
func FolderSize(path string) (int64, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("folder size: %w", err)
	}

	var total int64
	err := filepath.WalkDir(path, func(_ string, d os.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("folder size: %w", err)
	}
	return total, nil
}

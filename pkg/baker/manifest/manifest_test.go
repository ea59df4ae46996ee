package manifest

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sampleRecord() *Record {
	size := int64(4096)
	modified := "2024-06-15T10:30:00Z"
	scanned := "Baker"
	return &Record{
		ProjectTitle:    "Spring Launch",
		NumberOfCameras: 2,
		Files: []FileEntry{
			{Camera: 1, Name: "A001.mp4", Path: "Footage/Camera 1/A001.mp4"},
			{Camera: 2, Name: "B001.mp4", Path: "Footage/Camera 2/B001.mp4"},
		},
		ParentFolder:     "/media/projects",
		CreatedBy:        "Alice",
		CreationDateTime: "2024-06-01T09:00:00Z",
		FolderSizeBytes:  &size,
		LastModified:     &modified,
		ScannedBy:        &scanned,
	}
}

func TestReadWrite(t *testing.T) {
	t.Parallel()

	t.Run("round trips a record", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()

		if err := Write(dir, sampleRecord()); err != nil {
			t.Fatalf("Write() error = %v", err)
		}

		got, err := Read(dir)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if got == nil {
			t.Fatal("Read() returned nil record")
		}
		if got.ProjectTitle != "Spring Launch" {
			t.Errorf("ProjectTitle = %q, want %q", got.ProjectTitle, "Spring Launch")
		}
		if len(got.Files) != 2 {
			t.Errorf("len(Files) = %d, want 2", len(got.Files))
		}
		if got.FolderSizeBytes == nil || *got.FolderSizeBytes != 4096 {
			t.Errorf("FolderSizeBytes = %v, want 4096", got.FolderSizeBytes)
		}
	})

	t.Run("returns nil for missing manifest", func(t *testing.T) {
		t.Parallel()

		got, err := Read(t.TempDir())
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if got != nil {
			t.Errorf("Read() = %+v, want nil", got)
		}
	})

	t.Run("wraps ErrCorrupt for unparseable manifest", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()

		if err := os.WriteFile(Path(dir), []byte("{not json"), 0o644); err != nil {
			t.Fatal(err)
		}

		_, err := Read(dir)
		if !errors.Is(err, ErrCorrupt) {
			t.Errorf("Read() error = %v, want ErrCorrupt", err)
		}
	})

	t.Run("leaves no temp file behind", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()

		if err := Write(dir, sampleRecord()); err != nil {
			t.Fatalf("Write() error = %v", err)
		}

		if _, err := os.Stat(Path(dir) + ".tmp"); !os.IsNotExist(err) {
			t.Error("temp file still present after Write()")
		}
	})
}

func TestUnknownFieldsRoundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	doc := `{
  "projectTitle": "Legacy",
  "numberOfCameras": 1,
  "files": [],
  "parentFolder": "/media",
  "createdBy": "Alice",
  "creationDateTime": "2024-01-01T00:00:00Z",
  "colorPipeline": {"lut": "rec709.cube"},
  "reviewStatus": "pending"
}`
	if err := os.WriteFile(Path(dir), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	rec, err := Read(dir)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(rec.Extra) != 2 {
		t.Fatalf("len(Extra) = %d, want 2", len(rec.Extra))
	}

	if err := Write(dir, rec); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	data, err := os.ReadFile(Path(dir))
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("rewritten manifest is not valid JSON: %v", err)
	}
	if string(raw["reviewStatus"]) != `"pending"` {
		t.Errorf("reviewStatus = %s, want %q", raw["reviewStatus"], "pending")
	}
	if !strings.Contains(string(raw["colorPipeline"]), "rec709.cube") {
		t.Errorf("colorPipeline lost: %s", raw["colorPipeline"])
	}
}

func TestBackup(t *testing.T) {
	t.Parallel()

	t.Run("copies current manifest", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()

		if err := Write(dir, sampleRecord()); err != nil {
			t.Fatal(err)
		}
		original, err := os.ReadFile(Path(dir))
		if err != nil {
			t.Fatal(err)
		}

		if err := Backup(dir); err != nil {
			t.Fatalf("Backup() error = %v", err)
		}

		copied, err := os.ReadFile(BackupPath(dir))
		if err != nil {
			t.Fatalf("backup not written: %v", err)
		}
		if string(copied) != string(original) {
			t.Error("backup content differs from original")
		}
	})

	t.Run("no-op when manifest absent", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()

		if err := Backup(dir); err != nil {
			t.Fatalf("Backup() error = %v", err)
		}
		if _, err := os.Stat(BackupPath(dir)); !os.IsNotExist(err) {
			t.Error("backup file created for missing manifest")
		}
	})
}

func TestClone(t *testing.T) {
	t.Parallel()

	rec := sampleRecord()
	rec.Extra = map[string]json.RawMessage{"custom": json.RawMessage(`1`)}

	dup := rec.Clone()
	dup.Files[0].Name = "changed.mp4"
	*dup.FolderSizeBytes = 1
	dup.Extra["custom"] = json.RawMessage(`2`)

	if rec.Files[0].Name != "A001.mp4" {
		t.Error("Clone() shares Files backing array")
	}
	if *rec.FolderSizeBytes != 4096 {
		t.Error("Clone() shares FolderSizeBytes pointer")
	}
	if string(rec.Extra["custom"]) != "1" {
		t.Error("Clone() shares Extra map")
	}
}

func TestMaxCameraIndex(t *testing.T) {
	t.Parallel()

	rec := &Record{Files: []FileEntry{{Camera: 3}, {Camera: 1}}}
	if got := rec.MaxCameraIndex(); got != 3 {
		t.Errorf("MaxCameraIndex() = %d, want 3", got)
	}

	empty := &Record{}
	if got := empty.MaxCameraIndex(); got != 0 {
		t.Errorf("MaxCameraIndex() = %d, want 0", got)
	}
}

func TestExists(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	if Exists(dir) {
		t.Error("Exists() = true for empty folder")
	}
	if err := Write(dir, sampleRecord()); err != nil {
		t.Fatal(err)
	}
	if !Exists(dir) {
		t.Error("Exists() = false after Write()")
	}
}

func TestPath(t *testing.T) {
	t.Parallel()

	got := Path("/media/projects/demo")
	want := filepath.Join("/media/projects/demo", Filename)
	if got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

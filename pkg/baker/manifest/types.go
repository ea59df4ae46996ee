// Package manifest reads and writes per-project breadcrumbs documents.
package manifest

import "encoding/json"

// Filename is the manifest file name inside a project folder.
const Filename = "breadcrumbs.json"

// BackupSuffix is appended to Filename when a backup is written.
const BackupSuffix = ".bak"

// Known manifest field names as they appear in the persisted document.
// The diff engine keys changes by these names.
const (
	FieldProjectTitle         = "projectTitle"
	FieldNumberOfCameras      = "numberOfCameras"
	FieldFiles                = "files"
	FieldParentFolder         = "parentFolder"
	FieldCreatedBy            = "createdBy"
	FieldCreationDateTime     = "creationDateTime"
	FieldFolderSizeBytes      = "folderSizeBytes"
	FieldLastModified         = "lastModified"
	FieldScannedBy            = "scannedBy"
	FieldExternalReferenceURL = "externalReferenceUrl"
)

// FileEntry describes a single media file recorded in a manifest.
type FileEntry struct {
	Camera int    `json:"camera"`
	Name   string `json:"name"`
	Path   string `json:"path"`
}

// Card links a manifest to a card in an external tracking system.
// Fetching card details is the tracking collaborator's job; the manifest
// only persists what was fetched.
type Card struct {
	URL         string  `json:"url"`
	CardID      string  `json:"cardId"`
	Title       string  `json:"title"`
	BoardName   *string `json:"boardName,omitempty"`
	LastFetched *string `json:"lastFetched,omitempty"`
}

// VideoLink links a manifest to a hosted video.
type VideoLink struct {
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	AddedAt *string `json:"addedAt,omitempty"`
}

// Record is the persisted per-project manifest document.
//
// Optional fields are pointers so that "field absent" is distinguishable
// from a zero value. Unrecognized keys are kept in Extra and written back
// unchanged, so documents produced by newer tools round-trip unharmed.
type Record struct {
	ProjectTitle         string
	NumberOfCameras      int
	Files                []FileEntry
	ParentFolder         string
	CreatedBy            string
	CreationDateTime     string
	FolderSizeBytes      *int64
	LastModified         *string
	ScannedBy            *string
	ExternalReferenceURL *string
	Cards                []Card
	VideoLinks           []VideoLink

	// Extra holds unknown fields verbatim.
	Extra map[string]json.RawMessage
}

// knownKeys are the JSON keys owned by typed Record fields.
var knownKeys = map[string]bool{
	FieldProjectTitle:         true,
	FieldNumberOfCameras:      true,
	FieldFiles:                true,
	FieldParentFolder:         true,
	FieldCreatedBy:            true,
	FieldCreationDateTime:     true,
	FieldFolderSizeBytes:      true,
	FieldLastModified:         true,
	FieldScannedBy:            true,
	FieldExternalReferenceURL: true,
	"trackingCards":           true,
	"videoLinks":              true,
}

// recordJSON mirrors Record for (un)marshalling the known fields.
type recordJSON struct {
	ProjectTitle         string      `json:"projectTitle"`
	NumberOfCameras      int         `json:"numberOfCameras"`
	Files                []FileEntry `json:"files"`
	ParentFolder         string      `json:"parentFolder"`
	CreatedBy            string      `json:"createdBy"`
	CreationDateTime     string      `json:"creationDateTime"`
	FolderSizeBytes      *int64      `json:"folderSizeBytes,omitempty"`
	LastModified         *string     `json:"lastModified,omitempty"`
	ScannedBy            *string     `json:"scannedBy,omitempty"`
	ExternalReferenceURL *string     `json:"externalReferenceUrl,omitempty"`
	Cards                []Card      `json:"trackingCards,omitempty"`
	VideoLinks           []VideoLink `json:"videoLinks,omitempty"`
}

// MarshalJSON merges the typed fields with any Extra keys.
func (r Record) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(recordJSON{
		ProjectTitle:         r.ProjectTitle,
		NumberOfCameras:      r.NumberOfCameras,
		Files:                r.Files,
		ParentFolder:         r.ParentFolder,
		CreatedBy:            r.CreatedBy,
		CreationDateTime:     r.CreationDateTime,
		FolderSizeBytes:      r.FolderSizeBytes,
		LastModified:         r.LastModified,
		ScannedBy:            r.ScannedBy,
		ExternalReferenceURL: r.ExternalReferenceURL,
		Cards:                r.Cards,
		VideoLinks:           r.VideoLinks,
	})
	if err != nil {
		return nil, err
	}

	if len(r.Extra) == 0 {
		return known, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, err
	}
	for k, v := range r.Extra {
		if knownKeys[k] {
			continue // Typed fields win over stale Extra entries.
		}
		merged[k] = v
	}
	return json.Marshal(merged)
}

// UnmarshalJSON splits the document into typed fields and Extra.
func (r *Record) UnmarshalJSON(data []byte) error {
	var known recordJSON
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = Record{
		ProjectTitle:         known.ProjectTitle,
		NumberOfCameras:      known.NumberOfCameras,
		Files:                known.Files,
		ParentFolder:         known.ParentFolder,
		CreatedBy:            known.CreatedBy,
		CreationDateTime:     known.CreationDateTime,
		FolderSizeBytes:      known.FolderSizeBytes,
		LastModified:         known.LastModified,
		ScannedBy:            known.ScannedBy,
		ExternalReferenceURL: known.ExternalReferenceURL,
		Cards:                known.Cards,
		VideoLinks:           known.VideoLinks,
	}

	for k := range raw {
		if knownKeys[k] {
			continue
		}
		if r.Extra == nil {
			r.Extra = make(map[string]json.RawMessage)
		}
		r.Extra[k] = raw[k]
	}
	return nil
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	dup := *r
	dup.Files = append([]FileEntry(nil), r.Files...)
	dup.Cards = append([]Card(nil), r.Cards...)
	dup.VideoLinks = append([]VideoLink(nil), r.VideoLinks...)
	if r.FolderSizeBytes != nil {
		v := *r.FolderSizeBytes
		dup.FolderSizeBytes = &v
	}
	if r.LastModified != nil {
		v := *r.LastModified
		dup.LastModified = &v
	}
	if r.ScannedBy != nil {
		v := *r.ScannedBy
		dup.ScannedBy = &v
	}
	if r.ExternalReferenceURL != nil {
		v := *r.ExternalReferenceURL
		dup.ExternalReferenceURL = &v
	}
	if r.Extra != nil {
		dup.Extra = make(map[string]json.RawMessage, len(r.Extra))
		for k, v := range r.Extra {
			dup.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return &dup
}

// MaxCameraIndex returns the highest camera index recorded in Files,
// or 0 when no files are recorded.
func (r *Record) MaxCameraIndex() int {
	maxCam := 0
	for _, f := range r.Files {
		if f.Camera > maxCam {
			maxCam = f.Camera
		}
	}
	return maxCam
}

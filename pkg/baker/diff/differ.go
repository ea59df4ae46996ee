package diff

import (
	"bytes"
	"encoding/json"
	"reflect"
	"sort"

	"github.com/bakerlabs/baker/pkg/baker/manifest"
)

// ChangeType labels a single field delta.
type ChangeType string

// Change types.
const (
	Added     ChangeType = "added"
	Modified  ChangeType = "modified"
	Removed   ChangeType = "removed"
	Unchanged ChangeType = "unchanged"
)

// FieldChange is one field's delta between two manifest snapshots.
// Old and New are nil when the field is absent on that side.
type FieldChange struct {
	Type  ChangeType `json:"type"`
	Field string     `json:"field"`
	Old   any        `json:"oldValue,omitempty"`
	New   any        `json:"newValue,omitempty"`
}

// Summary counts changes by type.
type Summary struct {
	Added     int `json:"added"`
	Modified  int `json:"modified"`
	Removed   int `json:"removed"`
	Unchanged int `json:"unchanged"`
}

// Diff is the result of comparing two manifest snapshots.
type Diff struct {
	HasChanges bool          `json:"hasChanges"`
	Changes    []FieldChange `json:"changes"`
	Summary    Summary       `json:"summary"`
}

// fieldValue is one field extracted from a record for comparison.
type fieldValue struct {
	name    string
	value   any
	defined bool
}

// contentFields are always part of the comparison set, in display order.
var contentFields = []string{
	manifest.FieldProjectTitle,
	manifest.FieldNumberOfCameras,
	manifest.FieldFiles,
	manifest.FieldParentFolder,
	manifest.FieldCreatedBy,
	manifest.FieldCreationDateTime,
	manifest.FieldFolderSizeBytes,
	manifest.FieldExternalReferenceURL,
	"trackingCards",
	"videoLinks",
}

// maintenanceFields are compared only when includeMaintenance is set.
var maintenanceFields = []string{
	manifest.FieldLastModified,
	manifest.FieldScannedBy,
}

// Compare produces the full change list between current and updated.
// A nil current means the manifest does not exist yet: every defined
// field of updated is reported as added.
func Compare(current, updated *manifest.Record, includeMaintenance bool) Diff {
	fields := contentFields
	if includeMaintenance {
		fields = append(append([]string{}, contentFields...), maintenanceFields...)
	}

	var changes []FieldChange
	for _, name := range fields {
		changes = appendChange(changes, name, extract(current, name), extract(updated, name))
	}
	for _, name := range extraKeys(current, updated) {
		changes = appendChange(changes, name, extractExtra(current, name), extractExtra(updated, name))
	}

	return build(changes)
}

// appendChange classifies one field and appends the resulting change.
// Fields absent on both sides produce no entry.
func appendChange(changes []FieldChange, name string, old, updated fieldValue) []FieldChange {
	switch {
	case !old.defined && !updated.defined:
		return changes
	case !old.defined:
		return append(changes, FieldChange{Type: Added, Field: name, New: updated.value})
	case !updated.defined:
		return append(changes, FieldChange{Type: Removed, Field: name, Old: old.value})
	case equalValue(old.value, updated.value):
		return append(changes, FieldChange{Type: Unchanged, Field: name, Old: old.value, New: updated.value})
	default:
		return append(changes, FieldChange{Type: Modified, Field: name, Old: old.value, New: updated.value})
	}
}

// build derives the summary from a change list.
func build(changes []FieldChange) Diff {
	var s Summary
	for _, c := range changes {
		switch c.Type {
		case Added:
			s.Added++
		case Modified:
			s.Modified++
		case Removed:
			s.Removed++
		case Unchanged:
			s.Unchanged++
		}
	}
	return Diff{
		HasChanges: s.Added+s.Modified+s.Removed > 0,
		Changes:    changes,
		Summary:    s,
	}
}

// extract pulls a named field off a record. A nil record defines nothing.
func extract(r *manifest.Record, name string) fieldValue {
	if r == nil {
		return fieldValue{name: name}
	}
	switch name {
	case manifest.FieldProjectTitle:
		return fieldValue{name, r.ProjectTitle, true}
	case manifest.FieldNumberOfCameras:
		return fieldValue{name, r.NumberOfCameras, true}
	case manifest.FieldFiles:
		return fieldValue{name, r.Files, true}
	case manifest.FieldParentFolder:
		return fieldValue{name, r.ParentFolder, true}
	case manifest.FieldCreatedBy:
		return fieldValue{name, r.CreatedBy, true}
	case manifest.FieldCreationDateTime:
		return fieldValue{name, r.CreationDateTime, true}
	case manifest.FieldFolderSizeBytes:
		if r.FolderSizeBytes == nil {
			return fieldValue{name: name}
		}
		return fieldValue{name, *r.FolderSizeBytes, true}
	case manifest.FieldExternalReferenceURL:
		if r.ExternalReferenceURL == nil {
			return fieldValue{name: name}
		}
		return fieldValue{name, *r.ExternalReferenceURL, true}
	case manifest.FieldLastModified:
		if r.LastModified == nil {
			return fieldValue{name: name}
		}
		return fieldValue{name, *r.LastModified, true}
	case manifest.FieldScannedBy:
		if r.ScannedBy == nil {
			return fieldValue{name: name}
		}
		return fieldValue{name, *r.ScannedBy, true}
	case "trackingCards":
		if len(r.Cards) == 0 {
			return fieldValue{name: name}
		}
		return fieldValue{name, r.Cards, true}
	case "videoLinks":
		if len(r.VideoLinks) == 0 {
			return fieldValue{name: name}
		}
		return fieldValue{name, r.VideoLinks, true}
	}
	return fieldValue{name: name}
}

// extractExtra pulls an unknown field off a record's Extra map.
func extractExtra(r *manifest.Record, name string) fieldValue {
	if r == nil || r.Extra == nil {
		return fieldValue{name: name}
	}
	raw, ok := r.Extra[name]
	if !ok {
		return fieldValue{name: name}
	}
	return fieldValue{name, raw, true}
}

// extraKeys returns the sorted union of unknown field names across both
// records, so fields added or dropped by other tools show up in the diff.
func extraKeys(current, updated *manifest.Record) []string {
	seen := map[string]bool{}
	for _, r := range []*manifest.Record{current, updated} {
		if r == nil {
			continue
		}
		for k := range r.Extra {
			seen[k] = true
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// equalValue performs deep structural equality on field values.
// Slices of differing length are unequal; raw JSON compares by bytes.
func equalValue(a, b any) bool {
	switch av := a.(type) {
	case []manifest.FileEntry:
		bv, ok := b.([]manifest.FileEntry)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	case json.RawMessage:
		bv, ok := b.(json.RawMessage)
		return ok && bytes.Equal(av, bv)
	default:
		return reflect.DeepEqual(a, b)
	}
}

// Package diff compares manifest snapshots and classifies the result.
//
// The engine runs in three passes: Compare produces the raw change list,
// FilterMeaningful strips tool-generated bookkeeping, and Categorize
// enriches what remains for operator display.
package diff

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/bakerlabs/baker/pkg/baker/logging"
	"github.com/bakerlabs/baker/pkg/baker/manifest"
)

// Category groups manifest fields by what a change to them means.
type Category string

// Field categories.
const (
	CategoryContent     Category = "content"
	CategoryMetadata    Category = "metadata"
	CategoryMaintenance Category = "maintenance"
)

// Impact ranks how much operator attention a field change deserves.
type Impact string

// Impact levels.
const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// fieldSpec is the registry entry for one manifest field.
type fieldSpec struct {
	displayName string
	category    Category
	impact      Impact
	format      func(any) string
}

var registry = map[string]fieldSpec{
	manifest.FieldProjectTitle:         {"Project Title", CategoryContent, ImpactHigh, nil},
	manifest.FieldNumberOfCameras:      {"Number of Cameras", CategoryContent, ImpactHigh, nil},
	manifest.FieldFiles:                {"Files", CategoryContent, ImpactHigh, formatFiles},
	manifest.FieldParentFolder:         {"Parent Folder", CategoryContent, ImpactMedium, nil},
	manifest.FieldCreatedBy:            {"Created By", CategoryMetadata, ImpactMedium, nil},
	manifest.FieldCreationDateTime:     {"Creation Date", CategoryMetadata, ImpactLow, nil},
	manifest.FieldFolderSizeBytes:      {"Folder Size", CategoryMetadata, ImpactLow, formatSize},
	manifest.FieldExternalReferenceURL: {"External Reference", CategoryMetadata, ImpactMedium, nil},
	manifest.FieldLastModified:         {"Last Modified", CategoryMaintenance, ImpactLow, nil},
	manifest.FieldScannedBy:            {"Scanned By", CategoryMaintenance, ImpactLow, nil},
	"trackingCards":                    {"Tracking Cards", CategoryMetadata, ImpactMedium, formatCount},
	"videoLinks":                       {"Video Links", CategoryMetadata, ImpactMedium, formatCount},
}

// Classify returns the category and impact for a field. Unknown fields
// are treated conservatively as medium-impact metadata so documents from
// newer tools degrade gracefully instead of failing.
func Classify(field string) (Category, Impact) {
	if spec, ok := registry[field]; ok {
		return spec.category, spec.impact
	}
	logging.Get("diff").Warn("unknown manifest field, classifying as metadata", "field", field)
	return CategoryMetadata, ImpactMedium
}

// DisplayName returns the human label for a field.
func DisplayName(field string) string {
	if spec, ok := registry[field]; ok {
		return spec.displayName
	}
	return field
}

// FormatValue renders a field value for operator display.
func FormatValue(field string, value any) string {
	if value == nil {
		return "(not set)"
	}
	if spec, ok := registry[field]; ok && spec.format != nil {
		return spec.format(value)
	}
	return fmt.Sprintf("%v", value)
}

func formatFiles(v any) string {
	files, ok := v.([]manifest.FileEntry)
	if !ok {
		return fmt.Sprintf("%v", v)
	}
	if len(files) == 1 {
		return "1 file"
	}
	return fmt.Sprintf("%d files", len(files))
}

func formatSize(v any) string {
	size, ok := v.(int64)
	if !ok {
		return fmt.Sprintf("%v", v)
	}
	return humanize.IBytes(uint64(size))
}

func formatCount(v any) string {
	switch items := v.(type) {
	case []manifest.Card:
		return fmt.Sprintf("%d cards", len(items))
	case []manifest.VideoLink:
		return fmt.Sprintf("%d links", len(items))
	default:
		return fmt.Sprintf("%v", v)
	}
}

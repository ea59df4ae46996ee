package diff

import (
	"fmt"
	"strings"
	"time"

	"github.com/bakerlabs/baker/pkg/baker/manifest"
)

// ToolName identifies this tool in scannedBy stamps.
const ToolName = "Baker"

// MaintenanceSuffix is appended to createdBy when the tool updates a
// manifest it did not create. A createdBy change that only adds this
// suffix is bookkeeping, not an ownership change.
const MaintenanceSuffix = " - updated by " + ToolName

// FilterMeaningful compares current and updated including maintenance
// fields, then suppresses changes that are pure bookkeeping. The result
// drives the "does the operator need to confirm this?" decision.
//
// Suppression rules, applied in order:
//  1. scannedBy changes are always maintenance.
//  2. lastModified changes are maintenance unless newly added or the
//     prior value is not a valid timestamp (fixing bad data matters).
//  3. createdBy modifications that only append MaintenanceSuffix are
//     maintenance; any other createdBy change is a real ownership change.
//  4. folderSizeBytes is meaningful only when added or modified.
//  5. Everything else is meaningful.
func FilterMeaningful(current, updated *manifest.Record) Diff {
	full := Compare(current, updated, true)

	kept := make([]FieldChange, 0, len(full.Changes))
	for _, c := range full.Changes {
		if isMeaningful(c) {
			kept = append(kept, c)
		}
	}
	return build(kept)
}

// isMeaningful applies the suppression rules to a single change.
func isMeaningful(c FieldChange) bool {
	switch c.Field {
	case manifest.FieldScannedBy:
		return false
	case manifest.FieldLastModified:
		if c.Type == Added {
			return true
		}
		return !validTimestamp(c.Old)
	case manifest.FieldCreatedBy:
		if c.Type != Modified {
			return true
		}
		return !isSuffixStamp(c.Old, c.New)
	case manifest.FieldFolderSizeBytes:
		return c.Type == Added || c.Type == Modified
	default:
		return true
	}
}

// isSuffixStamp reports whether new is exactly old plus the maintenance
// suffix, i.e. an auto-stamped edit rather than a genuine change.
func isSuffixStamp(oldVal, newVal any) bool {
	oldStr, newStr := asString(oldVal), asString(newVal)
	return strings.HasSuffix(newStr, MaintenanceSuffix) &&
		strings.TrimSuffix(newStr, MaintenanceSuffix) == oldStr
}

// validTimestamp reports whether a field value parses as RFC 3339.
func validTimestamp(v any) bool {
	s := asString(v)
	if s == "" {
		return false
	}
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

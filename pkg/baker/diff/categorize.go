package diff

import "path/filepath"

// DetailedFieldChange is a FieldChange enriched with display metadata
// from the field registry. Derived for rendering, never persisted.
type DetailedFieldChange struct {
	FieldChange
	DisplayName  string   `json:"displayName"`
	FormattedOld string   `json:"formattedOldValue"`
	FormattedNew string   `json:"formattedNewValue"`
	Category     Category `json:"category"`
	Impact       Impact   `json:"impact"`
}

// CategorySummary tallies changes per category.
type CategorySummary struct {
	Content     int `json:"content"`
	Metadata    int `json:"metadata"`
	Maintenance int `json:"maintenance"`
	Total       int `json:"total"`
}

// CategorizedChanges groups a project's diff into category buckets for
// operator review.
type CategorizedChanges struct {
	ProjectName string                `json:"projectName"`
	HasChanges  bool                  `json:"hasChanges"`
	Content     []DetailedFieldChange `json:"content"`
	Metadata    []DetailedFieldChange `json:"metadata"`
	Maintenance []DetailedFieldChange `json:"maintenance"`
	Summary     CategorySummary       `json:"summary"`
}

// Categorize partitions a diff's changes by field category, dropping
// unchanged entries. Pure function of its inputs.
func Categorize(projectPath string, d Diff) CategorizedChanges {
	out := CategorizedChanges{
		ProjectName: filepath.Base(projectPath),
		HasChanges:  d.HasChanges,
	}

	for _, c := range d.Changes {
		if c.Type == Unchanged {
			continue
		}
		detailed := Detail(c)
		switch detailed.Category {
		case CategoryContent:
			out.Content = append(out.Content, detailed)
			out.Summary.Content++
		case CategoryMaintenance:
			out.Maintenance = append(out.Maintenance, detailed)
			out.Summary.Maintenance++
		default:
			out.Metadata = append(out.Metadata, detailed)
			out.Summary.Metadata++
		}
		out.Summary.Total++
	}
	return out
}

// Detail enriches a single change with registry metadata.
func Detail(c FieldChange) DetailedFieldChange {
	category, impact := Classify(c.Field)
	return DetailedFieldChange{
		FieldChange:  c,
		DisplayName:  DisplayName(c.Field),
		FormattedOld: FormatValue(c.Field, c.Old),
		FormattedNew: FormatValue(c.Field, c.New),
		Category:     category,
		Impact:       impact,
	}
}

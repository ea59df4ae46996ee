package output

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/bakerlabs/baker/pkg/baker/batch"
	"github.com/bakerlabs/baker/pkg/baker/diff"
	"github.com/bakerlabs/baker/pkg/baker/types"
)

// PrettyFormatter renders the report with colors, boxes, and tables for
// interactive terminal use.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Report) error {
	if r.Scan != nil {
		f.formatScan(w, r.Scan)
	}
	if r.Batch != nil {
		f.formatBatch(w, r.Batch)
	}
	if r.Preview != nil {
		f.formatPreview(w, r.Preview)
	}
	return nil
}

func (f *PrettyFormatter) formatScan(w *bytes.Buffer, s *types.ScanResult) {
	duration := "(still running)"
	switch {
	case s.EndTime != nil:
		duration = s.EndTime.Sub(s.StartTime).Round(10 * time.Millisecond).String()
	case len(s.Projects) > 0 || s.TotalFolders > 0:
		duration = "(cancelled)"
	}

	header := TitleStyle.Render("Scan Results") + "\n" +
		LabelStyle.Render("Root:     ") + s.RootPath + "\n" +
		LabelStyle.Render("Folders:  ") + strconv.Itoa(s.TotalFolders) + "\n" +
		LabelStyle.Render("Projects: ") + fmt.Sprintf("%d (%d valid)", len(s.Projects), s.ValidProjects) + "\n" +
		LabelStyle.Render("Size:     ") + humanize.IBytes(uint64(s.TotalFolderSize)) + "\n" +
		LabelStyle.Render("Duration: ") + duration
	w.WriteString(HeaderBox.Render(header))
	w.WriteString("\n")

	if len(s.Projects) > 0 {
		rows := make([][]string, 0, len(s.Projects))
		for _, p := range s.Projects {
			rows = append(rows, []string{
				p.Name,
				yesNo(p.IsValid),
				manifestStatus(p),
				strconv.Itoa(p.CameraCount),
			})
		}
		w.WriteString(renderTable(
			[]string{"PROJECT", "VALID", "MANIFEST", "CAMERAS"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
		))
		w.WriteString("\n")
	}

	for _, e := range s.Errors {
		w.WriteString(ErrorStyle.Render(fmt.Sprintf("error [%s] %s: %s", e.Type, e.Path, e.Message)))
		w.WriteString("\n")
	}
}

func (f *PrettyFormatter) formatBatch(w *bytes.Buffer, b *batch.Outcome) {
	header := TitleStyle.Render("Batch Update") + "\n" +
		LabelStyle.Render("Successful: ") + SuccessStyle.Render(strconv.Itoa(len(b.Successful))) +
		fmt.Sprintf(" (%d created, %d updated)", len(b.Created), len(b.Updated)) + "\n" +
		LabelStyle.Render("Skipped:    ") + strconv.Itoa(len(b.Skipped)) + "\n" +
		LabelStyle.Render("Failed:     ") + failedCount(len(b.Failed)) + "\n" +
		LabelStyle.Render("Duration:   ") + b.EndTime.Sub(b.StartTime).Round(10*time.Millisecond).String()
	w.WriteString(HeaderBox.Render(header))
	w.WriteString("\n")

	if len(b.Failed) > 0 {
		rows := make([][]string, 0, len(b.Failed))
		for _, failure := range b.Failed {
			rows = append(rows, []string{failure.Path, failure.Message})
		}
		w.WriteString(renderTable(
			[]string{"PATH", "ERROR"},
			rows,
			[]columnAlignment{alignLeft, alignLeft},
		))
		w.WriteString("\n")
	}
}

func failedCount(n int) string {
	if n == 0 {
		return SuccessStyle.Render("0")
	}
	return ErrorStyle.Render(strconv.Itoa(n))
}

func yesNo(b bool) string {
	if b {
		return SuccessStyle.Render("yes")
	}
	return ErrorStyle.Render("no")
}

func manifestStatus(p types.ProjectRecord) string {
	switch {
	case p.ManifestCorrupt:
		return ErrorStyle.Render("corrupt")
	case !p.HasManifest:
		return MutedStyle.Render("missing")
	case p.IsManifestStale:
		return WarningStyle.Render("stale")
	default:
		return SuccessStyle.Render("ok")
	}
}

func (f *PrettyFormatter) formatPreview(w *bytes.Buffer, p *diff.CategorizedChanges) {
	w.WriteString(TitleStyle.Render("Preview: " + p.ProjectName))
	w.WriteString("\n")
	if !p.HasChanges || p.Summary.Total == 0 {
		w.WriteString(MutedStyle.Render("No changes."))
		w.WriteString("\n")
		return
	}

	sections := []struct {
		title   string
		changes []diff.DetailedFieldChange
	}{
		{"Content", p.Content},
		{"Metadata", p.Metadata},
		{"Maintenance", p.Maintenance},
	}
	for _, section := range sections {
		if len(section.changes) == 0 {
			continue
		}
		w.WriteString(LabelStyle.Render(section.title))
		w.WriteString("\n")
		for _, c := range section.changes {
			style, ok := impactStyle[string(c.Impact)]
			if !ok {
				style = MutedStyle
			}
			line := fmt.Sprintf("  %s %s: %s -> %s",
				style.Render("["+string(c.Type)+"]"),
				c.DisplayName, c.FormattedOld, c.FormattedNew)
			w.WriteString(line)
			w.WriteString("\n")
		}
	}
	w.WriteString(MutedStyle.Render(fmt.Sprintf("%d change(s): %d content, %d metadata, %d maintenance",
		p.Summary.Total, p.Summary.Content, p.Summary.Metadata, p.Summary.Maintenance)))
	w.WriteString("\n")
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)

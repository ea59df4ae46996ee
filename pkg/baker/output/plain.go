package output

import (
	"bytes"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/bakerlabs/baker/pkg/baker/diff"
)

// PlainFormatter formats the report as simple tab-separated text.
// It produces plain output suitable for scripting and piping.
// No colors or styling are applied.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if r.Scan != nil {
		fmt.Fprintf(tw, "root\t%s\n", r.Scan.RootPath)
		fmt.Fprintf(tw, "folders\t%d\n", r.Scan.TotalFolders)
		fmt.Fprintf(tw, "projects\t%d\n", len(r.Scan.Projects))
		fmt.Fprintf(tw, "valid\t%d\n", r.Scan.ValidProjects)
		fmt.Fprintf(tw, "size\t%s\n", humanize.IBytes(uint64(r.Scan.TotalFolderSize)))
		for _, p := range r.Scan.Projects {
			fmt.Fprintf(tw, "project\t%s\tvalid=%s\tmanifest=%s\tstale=%s\tcameras=%d\n",
				p.Path, strconv.FormatBool(p.IsValid), strconv.FormatBool(p.HasManifest),
				strconv.FormatBool(p.IsManifestStale), p.CameraCount)
		}
		for _, e := range r.Scan.Errors {
			fmt.Fprintf(tw, "error\t%s\t%s\t%s\n", e.Type, e.Path, e.Message)
		}
	}

	if r.Batch != nil {
		fmt.Fprintf(tw, "successful\t%d\n", len(r.Batch.Successful))
		fmt.Fprintf(tw, "created\t%d\n", len(r.Batch.Created))
		fmt.Fprintf(tw, "updated\t%d\n", len(r.Batch.Updated))
		fmt.Fprintf(tw, "skipped\t%d\n", len(r.Batch.Skipped))
		fmt.Fprintf(tw, "failed\t%d\n", len(r.Batch.Failed))
		for _, failure := range r.Batch.Failed {
			fmt.Fprintf(tw, "failure\t%s\t%s\n", failure.Path, failure.Message)
		}
	}

	if r.Preview != nil {
		for _, bucket := range [][]diff.DetailedFieldChange{
			r.Preview.Content, r.Preview.Metadata, r.Preview.Maintenance,
		} {
			for _, c := range bucket {
				fmt.Fprintf(tw, "change\t%s\t%s\t%s\t%s -> %s\n",
					c.Category, c.Type, c.Field, c.FormattedOld, c.FormattedNew)
			}
		}
	}

	return tw.Flush()
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)

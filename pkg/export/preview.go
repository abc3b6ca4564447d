package export

import (
	"fmt"
	"io"

	"github.com/Sternrassler/screener-export/pkg/dataset"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// RenderPreview renders the first limit rows of ds as a console table.
func RenderPreview(ds *dataset.Dataset, limit int) string {
	header := table.Row{""}
	for _, h := range ds.Header() {
		header = append(header, h)
	}

	rows := ds.Rows()
	if limit >= 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	t := table.NewWriter()
	t.AppendHeader(header)
	for i, row := range rows {
		r := table.Row{i + 1}
		for _, cell := range row {
			r = append(r, cell)
		}
		t.AppendRow(r)
	}
	if hidden := ds.Len() - len(rows); hidden > 0 {
		t.AppendFooter(table.Row{"", fmt.Sprintf("... %d more rows", hidden)})
	}

	t.SetStyle(table.StyleLight)
	t.Style().Format = table.FormatOptions{
		Footer: text.FormatDefault,
		Header: text.FormatDefault,
		Row:    text.FormatDefault,
	}
	t.Style().Options.DrawBorder = false
	t.SuppressTrailingSpaces()
	return t.Render()
}

// PreviewExporter prints a short preview of every dataset after the wrapped exporter wrote it.
type PreviewExporter struct {
	next  Exporter
	out   io.Writer
	limit int
}

// Exporter matches collect.Exporter.
type Exporter interface {
	Export(name string, ds *dataset.Dataset) (string, error)
}

// WithPreview wraps next so that each exported dataset is previewed on out.
func WithPreview(next Exporter, out io.Writer, limit int) *PreviewExporter {
	return &PreviewExporter{next: next, out: out, limit: limit}
}

// Export writes ds through the wrapped exporter, then prints the preview.
func (p *PreviewExporter) Export(name string, ds *dataset.Dataset) (string, error) {
	path, err := p.next.Export(name, ds)
	if err != nil {
		return "", err
	}
	if _, err := fmt.Fprintf(p.out, "%s (%d rows)\n%s\n\n", path, ds.Len(), RenderPreview(ds, p.limit)); err != nil {
		return path, fmt.Errorf("write preview: %w", err)
	}
	return path, nil
}

// Package export writes finished datasets: CSV files for downstream tools and
// a short console table for humans.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Sternrassler/screener-export/pkg/dataset"
	"github.com/Sternrassler/screener-export/pkg/logging"
	"github.com/rs/zerolog"
)

// WriteCSV writes the dataset header and rows to w.
func WriteCSV(w io.Writer, ds *dataset.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Header()); err != nil {
		return err
	}
	if err := cw.WriteAll(ds.Rows()); err != nil {
		return err
	}
	return cw.Error()
}

// CSVWriter writes datasets as CSV files in a directory.
// Files are written to a temporary name and renamed into place, so a failed
// write never leaves a partial file behind.
type CSVWriter struct {
	dir    string
	logger zerolog.Logger
}

// NewCSVWriter creates a writer for dir ("" = current directory).
func NewCSVWriter(dir string) *CSVWriter {
	if dir == "" {
		dir = "."
	}
	return &CSVWriter{
		dir:    dir,
		logger: logging.NewLogger("export"),
	}
}

// Export writes ds to name inside the writer's directory and returns the file path.
func (cw *CSVWriter) Export(name string, ds *dataset.Dataset) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("invalid output name %q", name)
	}

	if err := os.MkdirAll(cw.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(cw.dir, name)
	tmp, err := os.CreateTemp(cw.dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := writeFile(tmp, ds); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write %s: %w", name, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close %s: %w", name, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("rename %s: %w", name, err)
	}

	cw.logger.Debug().
		Str("path", path).
		Int("rows", ds.Len()).
		Int("columns", len(ds.Header())).
		Msg("Wrote csv")

	return path, nil
}

func writeFile(f *os.File, ds *dataset.Dataset) error {
	if err := WriteCSV(f, ds); err != nil {
		return err
	}
	if err := f.Chmod(0o644); err != nil {
		return err
	}
	return f.Sync()
}

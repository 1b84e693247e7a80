package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tmc/langchaingo/documentloaders"
)

// Dataset is the runtime handle bound into variables memory when a session's
// file is loaded for the first time.
type Dataset struct {
	URI     string
	Columns []string
	Rows    []map[string]string
}

// Loader resolves a storage URI into a dataset handle.
type Loader interface {
	Load(ctx context.Context, uri string) (*Dataset, error)
}

// FileLoader reads CSV datasets from the local filesystem or a mounted
// storage path.
type FileLoader struct{}

func NewFileLoader() *FileLoader { return &FileLoader{} }

func (l *FileLoader) Load(ctx context.Context, uri string) (*Dataset, error) {
	f, err := os.Open(uri)
	if err != nil {
		return nil, fmt.Errorf("opening dataset %s: %w", uri, err)
	}
	defer f.Close()

	docs, err := documentloaders.NewCSV(f).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading dataset %s: %w", uri, err)
	}

	ds := &Dataset{URI: uri}
	for _, doc := range docs {
		row := map[string]string{}
		for _, line := range strings.Split(doc.PageContent, "\n") {
			col, val, found := strings.Cut(line, ":")
			if !found {
				continue
			}
			row[strings.TrimSpace(col)] = strings.TrimSpace(val)
		}
		if len(ds.Columns) == 0 {
			for col := range row {
				ds.Columns = append(ds.Columns, col)
			}
			sort.Strings(ds.Columns)
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

// Frame returns the dataset in the column-oriented shape exposed to the code
// sandbox, where generated snippets assert it back to map[string][]string.
func (d *Dataset) Frame() map[string][]string {
	frame := make(map[string][]string, len(d.Columns))
	for _, col := range d.Columns {
		values := make([]string, 0, len(d.Rows))
		for _, row := range d.Rows {
			values = append(values, row[col])
		}
		frame[col] = values
	}
	return frame
}

// Profile is a short textual description embedded in prompts.
func (d *Dataset) Profile() string {
	name := filepath.Base(d.URI)
	return fmt.Sprintf("%s: %d rows, columns: %s", name, len(d.Rows), strings.Join(d.Columns, ", "))
}

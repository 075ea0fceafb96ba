// Package exporter writes a project's tasks or task runs to a zipped CSV
// file on disk. Exports run in the background; the file in the export
// directory is replaced wholesale on each run.
package exporter

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/crowdlab/crowdlab/internal/domain"
	"github.com/crowdlab/crowdlab/internal/store"
)

// Kind selects what an export contains.
type Kind string

// Export kinds, matching the type query parameter of the export
// endpoint.
const (
	KindTask    Kind = "task"
	KindTaskRun Kind = "task_run"
)

// Valid reports whether k names a supported export kind.
func (k Kind) Valid() bool { return k == KindTask || k == KindTaskRun }

// pageSize is how many rows each store query fetches while streaming an
// export.
const pageSize = 100

// Exporter produces the zipped CSV files.
type Exporter struct {
	tasks  store.TaskStore
	runs   store.TaskRunStore
	dir    string
	logger *slog.Logger
}

// New creates an exporter writing into dir.
func New(tasks store.TaskStore, runs store.TaskRunStore, dir string, logger *slog.Logger) *Exporter {
	return &Exporter{
		tasks:  tasks,
		runs:   runs,
		dir:    dir,
		logger: logger.With(slog.String("component", "exporter")),
	}
}

// Export writes the zip for the given project and kind and returns its
// path.
func (e *Exporter) Export(ctx context.Context, project *domain.Project, kind Kind) (string, error) {
	var table *csvTable
	var err error
	switch kind {
	case KindTask:
		table, err = e.taskTable(ctx, project.ID)
	case KindTaskRun:
		table, err = e.taskRunTable(ctx, project.ID)
	default:
		return "", fmt.Errorf("unknown export kind %q", kind)
	}
	if err != nil {
		return "", fmt.Errorf("collecting %s rows: %w", kind, err)
	}

	zipPath := filepath.Join(e.dir, fmt.Sprintf("%s_%s_csv.zip", project.ShortName, kind))
	csvName := fmt.Sprintf("%s_%s.csv", project.ShortName, kind)
	if err := writeZip(zipPath, csvName, table); err != nil {
		return "", err
	}

	e.logger.Info("export written",
		slog.String("project", project.ShortName),
		slog.String("kind", string(kind)),
		slog.String("path", zipPath),
		slog.Int("rows", len(table.rows)))
	return zipPath, nil
}

// taskTable streams all tasks of the project into a flattened table.
func (e *Exporter) taskTable(ctx context.Context, projectID int) (*csvTable, error) {
	table := newCSVTable("task")
	lastID := 0
	for {
		q := store.ListQuery{
			Limit:   pageSize,
			LastID:  lastID,
			Filters: map[string]any{"project_id": projectID},
		}
		page, err := e.tasks.Filter(ctx, q)
		if err != nil {
			return nil, err
		}
		for _, t := range page {
			table.add(t, t.Info)
			lastID = t.ID
		}
		if len(page) < pageSize {
			return table, nil
		}
	}
}

// taskRunTable streams all task runs of the project into a flattened
// table.
func (e *Exporter) taskRunTable(ctx context.Context, projectID int) (*csvTable, error) {
	table := newCSVTable("taskrun")
	lastID := 0
	for {
		q := store.ListQuery{
			Limit:   pageSize,
			LastID:  lastID,
			Filters: map[string]any{"project_id": projectID},
		}
		page, err := e.runs.Filter(ctx, q)
		if err != nil {
			return nil, err
		}
		for _, r := range page {
			table.add(r, r.Info)
			lastID = r.ID
		}
		if len(page) < pageSize {
			return table, nil
		}
	}
}

// writeZip writes the table as a single CSV entry inside a fresh zip
// file at path.
func writeZip(path, csvName string, table *csvTable) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	zw := zip.NewWriter(f)
	entry, err := zw.Create(csvName)
	if err != nil {
		return fmt.Errorf("creating zip entry: %w", err)
	}
	if err := writeCSV(entry, table); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finishing zip: %w", err)
	}
	return nil
}

// writeCSV renders the flattened table.
func writeCSV(w io.Writer, table *csvTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.headers()); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, row := range table.materialize() {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

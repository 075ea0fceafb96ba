package exporter

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdlab/crowdlab/internal/domain"
	"github.com/crowdlab/crowdlab/internal/mocks"
)

func TestTableHeadersArePrefixedAndSorted(t *testing.T) {
	t.Parallel()

	table := newCSVTable("task")
	table.add(
		&domain.Task{ID: 1, ProjectID: 2},
		domain.Info{"url": "http://example.com/1.jpg", "answer": nil},
	)

	headers := table.headers()
	require.NotEmpty(t, headers)

	var entity, info []string
	for _, h := range headers {
		if strings.HasPrefix(h, "taskinfo__") {
			info = append(info, h)
		} else {
			entity = append(entity, h)
			assert.True(t, strings.HasPrefix(h, "task__"), h)
		}
	}
	assert.Equal(t, []string{"taskinfo__answer", "taskinfo__url"}, info)
	assert.True(t, sort.StringsAreSorted(entity))
	assert.Contains(t, entity, "task__id")
	assert.NotContains(t, headers, "task__info", "info is flattened, not a column")
}

func TestTableColumnUnionAcrossRows(t *testing.T) {
	t.Parallel()

	table := newCSVTable("taskrun")
	table.add(&domain.TaskRun{ID: 1}, domain.Info{"answer": "yes"})
	table.add(&domain.TaskRun{ID: 2}, domain.Info{"comment": "blurry"})

	headers := table.headers()
	assert.Contains(t, headers, "taskruninfo__answer")
	assert.Contains(t, headers, "taskruninfo__comment")

	rows := table.materialize()
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Len(t, row, len(headers), "every row renders the full column set")
	}
}

func TestCellRendering(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", cell(nil))
	assert.Equal(t, "hello", cell("hello"))
	assert.Equal(t, "true", cell(true))
	assert.Equal(t, "42", cell(float64(42)), "integral floats drop the decimal point")
	assert.Equal(t, "1.5", cell(1.5))
	assert.Equal(t, `["a","b"]`, cell([]any{"a", "b"}), "composites stay JSON")
}

func TestExportWritesZippedCSV(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	runs := mocks.NewTaskRunStore()
	tasks := mocks.NewTaskStore()
	tasks.Runs = runs

	project := &domain.Project{ID: 7, ShortName: "birds"}
	for i := 0; i < 3; i++ {
		task := &domain.Task{ProjectID: project.ID, Info: domain.Info{"url": "http://example.com/img.jpg"}}
		require.NoError(t, tasks.Create(ctx, task))
	}
	// A task of another project must not leak into the export.
	require.NoError(t, tasks.Create(ctx, &domain.Task{ProjectID: 99}))

	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := New(tasks, runs, dir, logger)

	path, err := e.Export(ctx, project, KindTask)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "birds_task_csv.zip"), path)

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	require.Len(t, zr.File, 1)
	assert.Equal(t, "birds_task.csv", zr.File[0].Name)

	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()

	records, err := csv.NewReader(rc).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4, "header plus three tasks")
	assert.Contains(t, records[0], "task__id")
	assert.Contains(t, records[0], "taskinfo__url")
}

func TestExportRejectsUnknownKind(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := New(mocks.NewTaskStore(), mocks.NewTaskRunStore(), t.TempDir(), logger)

	_, err := e.Export(context.Background(), &domain.Project{ShortName: "x"}, Kind("everything"))
	assert.Error(t, err)
}

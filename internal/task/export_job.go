package task

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/crowdlab/crowdlab/internal/domain"
	"github.com/crowdlab/crowdlab/internal/exporter"
)

// JobTypeExport identifies project export jobs.
const JobTypeExport = "project_export"

// ExportJob writes a project's zipped CSV export.
type ExportJob struct {
	id       uuid.UUID
	project  *domain.Project
	kind     exporter.Kind
	exporter *exporter.Exporter
}

// NewExportJob creates an export job for the project and kind.
func NewExportJob(project *domain.Project, kind exporter.Kind, exp *exporter.Exporter) *ExportJob {
	return &ExportJob{
		id:       uuid.New(),
		project:  project,
		kind:     kind,
		exporter: exp,
	}
}

// ID implements Job.
func (j *ExportJob) ID() uuid.UUID { return j.id }

// Type implements Job.
func (j *ExportJob) Type() string { return JobTypeExport }

// Execute implements Job.
func (j *ExportJob) Execute(ctx context.Context) error {
	if _, err := j.exporter.Export(ctx, j.project, j.kind); err != nil {
		return fmt.Errorf("exporting %s of project %q: %w", j.kind, j.project.ShortName, err)
	}
	return nil
}

package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/clae-hq/admissions-api/internal/models"
	appErrors "github.com/clae-hq/admissions-api/pkg/errors"
	"github.com/clae-hq/admissions-api/pkg/export"
)

// ExportFile is a rendered download.
type ExportFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

type applicationLister interface {
	List(ctx context.Context, claims *models.SessionClaims, filter models.ApplicationFilter) ([]models.Application, error)
}

// ExportService renders staff application listings as CSV or PDF downloads.
type ExportService struct {
	apps   applicationLister
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewExportService constructs an ExportService instance.
func NewExportService(apps applicationLister, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		apps:   apps,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

var exportHeaders = []string{
	"Tracking Code", "Student", "Grade", "Status", "Parent", "Parent Email", "Parent Phone", "Submitted",
}

// Applications renders the caller's application listing in the requested
// format, honoring the same filters as the dashboard list.
func (s *ExportService) Applications(ctx context.Context, claims *models.SessionClaims, filter models.ApplicationFilter, format string) (*ExportFile, error) {
	apps, err := s.apps.List(ctx, claims, filter)
	if err != nil {
		return nil, err
	}

	table := export.Table{Headers: exportHeaders, Rows: make([]map[string]string, 0, len(apps))}
	for _, app := range apps {
		table.Rows = append(table.Rows, map[string]string{
			"Tracking Code": app.TrackingCode,
			"Student":       app.StudentName,
			"Grade":         app.StudentGrade,
			"Status":        string(app.Status),
			"Parent":        app.ParentName,
			"Parent Email":  app.ParentEmail,
			"Parent Phone":  app.ParentPhone,
			"Submitted":     app.CreatedAt.Format("2006-01-02"),
		})
	}

	stamp := time.Now().UTC().Format("20060102")
	switch format {
	case "csv":
		content, err := s.csv.Render(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportFile{
			FileName:    fmt.Sprintf("applications-%s.csv", stamp),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case "pdf":
		content, err := s.pdf.Render(table, "Enrollment Applications")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportFile{
			FileName:    fmt.Sprintf("applications-%s.pdf", stamp),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

// Package controller implements the core business logic (service layer)
// of the roster service: ingesting uploaded employee files and listing the
// stored employees with their company names.
package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gartstein/roster/internal/employees/db"
	e "github.com/gartstein/roster/internal/employees/errors"
	"github.com/gartstein/roster/internal/employees/events"
	"github.com/gartstein/roster/internal/employees/metrics"
	"github.com/gartstein/roster/internal/employees/models"
	"github.com/gartstein/roster/internal/employees/tabular"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EventProducer interface {
	Produce(event events.Event)
}

// Repository defines the storage interface used by the service.
type Repository interface {
	ListEmployees(ctx context.Context) ([]models.EmployeeView, error)
	WithTransaction(ctx context.Context, fn func(repo *db.Repository) error) error
	Close() error
}

// EmployeeService ingests employee files into the repository and lists
// the stored employees.
type EmployeeService struct {
	repo     Repository
	producer EventProducer
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewEmployeeService constructs an EmployeeService. m may be nil.
func NewEmployeeService(repo Repository, producer EventProducer, m *metrics.Metrics, logger *zap.Logger) *EmployeeService {
	return &EmployeeService{
		repo:     repo,
		producer: producer,
		metrics:  m,
		logger:   logger.Named("employee_service"),
	}
}

// Ingest parses an uploaded file and stores its companies and employees.
// The content is not read when the file name has an unsupported extension.
// Either every row is stored or none is.
func (s *EmployeeService) Ingest(ctx context.Context, filename string, content io.Reader) (*models.IngestResult, error) {
	result, err := s.ingest(ctx, filename, content)
	switch {
	case err == nil:
		s.metrics.ObserveIngestion(metrics.StatusSuccess, result.CompaniesCreated, result.EmployeesCreated)
	case isClientError(err):
		s.metrics.ObserveIngestion(metrics.StatusRejected, 0, 0)
		s.logger.Info("Upload rejected", zap.String("filename", filename), zap.Error(err))
	default:
		s.metrics.ObserveIngestion(metrics.StatusFailed, 0, 0)
		s.logger.Error("Upload failed", zap.String("filename", filename), zap.Error(err))
	}
	return result, err
}

func (s *EmployeeService) ingest(ctx context.Context, filename string, content io.Reader) (*models.IngestResult, error) {
	format, err := tabular.FormatFromFilename(filename)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", e.ErrParse, err)
	}
	table, err := tabular.Parse(format, data)
	if err != nil {
		return nil, err
	}

	if missing := table.Missing(models.RequiredColumns...); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", e.ErrMissingColumns, strings.Join(missing, ", "))
	}

	employees, problems := buildEmployees(table)
	if len(problems) > 0 {
		return nil, problems
	}
	names := companyNames(employees)

	var created int
	err = s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		var err error
		created, err = tx.EnsureCompanies(ctx, names)
		if err != nil {
			return fmt.Errorf("failed to create companies: %w", err)
		}

		ids, err := tx.CompanyIDsByName(ctx, names)
		if err != nil {
			return fmt.Errorf("failed to resolve companies: %w", err)
		}
		for i := range employees {
			id, ok := ids[employees[i].CompanyName]
			if !ok {
				return fmt.Errorf("%w: company %q", e.ErrNotFound, employees[i].CompanyName)
			}
			employees[i].CompanyID = id
		}

		if err := tx.CreateEmployees(ctx, employees); err != nil {
			return fmt.Errorf("failed to create employees: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &models.IngestResult{
		CompaniesCreated: created,
		EmployeesCreated: len(employees),
		CompanyNames:     names,
	}
	event := events.Event{
		Type:             events.EmployeesIngested,
		IngestionID:      uuid.New(),
		Filename:         filename,
		CompaniesCreated: result.CompaniesCreated,
		EmployeesCreated: result.EmployeesCreated,
		CompanyNames:     names,
		OccurredAt:       time.Now().UTC(),
	}
	s.logger.Info("Upload ingested",
		zap.String("ingestion_id", event.IngestionID.String()),
		zap.String("filename", filename),
		zap.Int("companies_created", result.CompaniesCreated),
		zap.Int("employees_created", result.EmployeesCreated),
	)
	go func() {
		s.producer.Produce(event)
	}()
	return result, nil
}

// ListEmployees returns every stored employee with its company name.
func (s *EmployeeService) ListEmployees(ctx context.Context) ([]models.EmployeeView, error) {
	employees, err := s.repo.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return employees, nil
}

// isClientError reports whether err was caused by the uploaded file itself.
func isClientError(err error) bool {
	return errors.Is(err, e.ErrUnsupportedFormat) ||
		errors.Is(err, e.ErrParse) ||
		errors.Is(err, e.ErrMissingColumns) ||
		errors.Is(err, e.ErrInvalidInput)
}

package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gartstein/roster/internal/employees/db/models"
	e "github.com/gartstein/roster/internal/employees/errors"
	domain "github.com/gartstein/roster/internal/employees/models"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	defaultBatchSize = 500
)

type Repository struct {
	db        *gorm.DB
	batchSize int
}

type Config struct {
	Driver string
	// Path is the sqlite database file, ":memory:" for a private in-memory store.
	Path     string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	// BatchSize bounds the rows per INSERT statement when creating employees.
	BatchSize int
	// ConnectTimeout bounds the retries made while the database is unreachable.
	ConnectTimeout time.Duration
	LogLevel       logger.LogLevel
}

func NewRepository(cfg *Config) (*Repository, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	logLevel := cfg.LogLevel
	if logLevel == 0 {
		logLevel = logger.Warn
	}

	var db *gorm.DB
	retry := backoff.NewExponentialBackOff()
	retry.MaxElapsedTime = cfg.ConnectTimeout
	if cfg.ConnectTimeout == 0 {
		retry.MaxElapsedTime = 30 * time.Second
	}
	err = backoff.Retry(func() error {
		var openErr error
		db, openErr = gorm.Open(dialector, &gorm.Config{
			TranslateError: true,
			Logger:         logger.Default.LogMode(logLevel),
		})
		return openErr
	}, retry)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver == DriverSQLite || cfg.Driver == "" {
		// sqlite allows one writer; a single connection serializes requests
		// and keeps an in-memory database alive for the repository lifetime.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to configure database: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&models.Company{}, &models.Employee{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Repository{db: db, batchSize: batchSize}, nil
}

func dialectorFor(cfg *Config) (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		path := cfg.Path
		if path == "" {
			path = "roster.db"
		}
		return sqlite.Open(path + "?_foreign_keys=on&_busy_timeout=5000"), nil
	case DriverPostgres:
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// EnsureCompanies inserts every name not yet stored and returns how many rows
// were created. Existing names are left untouched by the unique index.
func (r *Repository) EnsureCompanies(ctx context.Context, names []string) (int, error) {
	if len(names) == 0 {
		return 0, nil
	}
	records := make([]models.Company, len(names))
	for i, name := range names {
		records[i] = models.Company{CompanyName: name}
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "company_name"}},
			DoNothing: true,
		}).
		Create(&records)
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

// CompanyIDsByName maps each stored name in names to its company id.
func (r *Repository) CompanyIDsByName(ctx context.Context, names []string) (map[string]uint, error) {
	ids := make(map[string]uint, len(names))
	if len(names) == 0 {
		return ids, nil
	}
	var companies []models.Company
	result := r.db.WithContext(ctx).
		Where("company_name IN ?", names).
		Find(&companies)
	if result.Error != nil {
		return nil, result.Error
	}
	for _, c := range companies {
		ids[c.CompanyName] = c.ID
	}
	return ids, nil
}

func (r *Repository) GetCompanyByName(ctx context.Context, name string) (*domain.Company, error) {
	var company models.Company
	result := r.db.WithContext(ctx).First(&company, "company_name = ?", name)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &domain.Company{ID: company.ID, Name: company.CompanyName}, nil
}

// CreateEmployees bulk-inserts employees. Every employee must carry a resolved CompanyID.
func (r *Repository) CreateEmployees(ctx context.Context, employees []domain.Employee) error {
	if len(employees) == 0 {
		return nil
	}
	records := make([]models.Employee, len(employees))
	for i, emp := range employees {
		records[i] = models.Employee{
			EmployeeID:   emp.EmployeeID,
			FirstName:    emp.FirstName,
			LastName:     emp.LastName,
			PhoneNumber:  emp.PhoneNumber,
			Salary:       emp.Salary,
			ManagerID:    emp.ManagerID,
			DepartmentID: emp.DepartmentID,
			CompanyID:    emp.CompanyID,
		}
	}
	result := r.db.WithContext(ctx).
		Omit(clause.Associations).
		CreateInBatches(&records, r.batchSize)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %v", e.ErrDuplicateEmployee, result.Error)
		}
		return result.Error
	}
	for i := range employees {
		employees[i].ID = records[i].ID
	}
	return nil
}

type employeeRow struct {
	EmployeeID   int64
	FirstName    string
	LastName     string
	PhoneNumber  string
	Salary       decimal.Decimal
	ManagerID    *int64
	DepartmentID *int64
	CompanyName  *string
}

// ListEmployees returns every employee joined with its company name,
// in store order.
func (r *Repository) ListEmployees(ctx context.Context) ([]domain.EmployeeView, error) {
	var rows []employeeRow
	result := r.db.WithContext(ctx).
		Table("employees").
		Select("employees.employee_id, employees.first_name, employees.last_name, " +
			"employees.phone_number, employees.salary, employees.manager_id, " +
			"employees.department_id, companies.company_name").
		Joins("LEFT JOIN companies ON companies.id = employees.company_id").
		Order("employees.id").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	views := make([]domain.EmployeeView, len(rows))
	for i, row := range rows {
		views[i] = domain.EmployeeView{
			EmployeeID:   row.EmployeeID,
			FirstName:    row.FirstName,
			LastName:     row.LastName,
			PhoneNumber:  row.PhoneNumber,
			Salary:       row.Salary,
			ManagerID:    row.ManagerID,
			DepartmentID: row.DepartmentID,
			CompanyName:  row.CompanyName,
		}
	}
	return views, nil
}

func (r *Repository) CountCompanies(ctx context.Context) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Company{}).Count(&count)
	return count, result.Error
}

func (r *Repository) CountEmployees(ctx context.Context) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Employee{}).Count(&count)
	return count, result.Error
}

func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx, batchSize: r.batchSize})
	})
}

func (r *Repository) Exec(ctx context.Context, query string, params ...interface{}) error {
	result := r.db.WithContext(ctx).Exec(query, params...)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

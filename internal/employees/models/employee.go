package models

import "github.com/shopspring/decimal"

// Column names every uploaded file must carry. Matching is case-sensitive.
const (
	ColumnEmployeeID   = "EMPLOYEE_ID"
	ColumnFirstName    = "FIRST_NAME"
	ColumnLastName     = "LAST_NAME"
	ColumnPhoneNumber  = "PHONE_NUMBER"
	ColumnCompanyName  = "COMPANY_NAME"
	ColumnSalary       = "SALARY"
	ColumnManagerID    = "MANAGER_ID"
	ColumnDepartmentID = "DEPARTMENT_ID"
)

// RequiredColumns lists the upload columns in their canonical order.
var RequiredColumns = []string{
	ColumnEmployeeID,
	ColumnFirstName,
	ColumnLastName,
	ColumnPhoneNumber,
	ColumnCompanyName,
	ColumnSalary,
	ColumnManagerID,
	ColumnDepartmentID,
}

// Employee defines the domain model for an employee record.
type Employee struct {
	// ID is the store-assigned identifier.
	ID uint
	// EmployeeID is the externally supplied employee number.
	EmployeeID  int64
	FirstName   string
	LastName    string
	PhoneNumber string
	Salary      decimal.Decimal
	// ManagerID and DepartmentID are bare numbers; nil means absent.
	ManagerID    *int64
	DepartmentID *int64
	// CompanyName is the raw name from the upload, used to resolve CompanyID.
	CompanyName string
	CompanyID   uint
}

// EmployeeView is an employee enriched with its company's name.
type EmployeeView struct {
	EmployeeID   int64
	FirstName    string
	LastName     string
	PhoneNumber  string
	Salary       decimal.Decimal
	ManagerID    *int64
	DepartmentID *int64
	// CompanyName is nil when the company reference cannot be resolved.
	CompanyName *string
}

// IngestResult reports the outcome of a successful ingestion.
type IngestResult struct {
	CompaniesCreated int
	EmployeesCreated int
	// CompanyNames holds the distinct names in order of first appearance.
	CompanyNames []string
}

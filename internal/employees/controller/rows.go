package controller

import (
	"fmt"
	"strings"

	e "github.com/gartstein/roster/internal/employees/errors"
	"github.com/gartstein/roster/internal/employees/models"
	"github.com/gartstein/roster/internal/employees/tabular"
	"github.com/gartstein/roster/internal/pkg/utils"
	"github.com/shopspring/decimal"
)

// buildEmployees converts every row of table into an employee candidate.
// It returns all row problems at once instead of stopping at the first.
func buildEmployees(table *tabular.Table) ([]models.Employee, e.RowErrors) {
	var (
		employees = make([]models.Employee, 0, table.Len())
		problems  e.RowErrors
		seen      = make(map[int64]int, table.Len())
	)

	for i := 0; i < table.Len(); i++ {
		row := table.Row(i)
		fail := func(column, message string) {
			problems = append(problems, e.RowError{
				Row:     row.Line,
				Column:  column,
				Value:   row.Get(column),
				Message: message,
			})
		}

		emp := models.Employee{
			FirstName:   row.Get(models.ColumnFirstName),
			LastName:    row.Get(models.ColumnLastName),
			PhoneNumber: row.Get(models.ColumnPhoneNumber),
			CompanyName: row.Get(models.ColumnCompanyName),
		}
		valid := true

		id, err := parseInteger(row.Get(models.ColumnEmployeeID))
		switch {
		case err != nil:
			fail(models.ColumnEmployeeID, err.Error())
			valid = false
		case id == nil:
			fail(models.ColumnEmployeeID, "value is required")
			valid = false
		default:
			if first, dup := seen[*id]; dup {
				fail(models.ColumnEmployeeID, fmt.Sprintf("duplicates the employee id on row %d", first))
				valid = false
			} else {
				seen[*id] = row.Line
			}
			emp.EmployeeID = *id
		}

		if emp.CompanyName == "" {
			fail(models.ColumnCompanyName, "value is required")
			valid = false
		}

		salary := strings.TrimSpace(row.Get(models.ColumnSalary))
		if salary == "" {
			fail(models.ColumnSalary, "value is required")
			valid = false
		} else if d, err := parseSalary(salary); err != nil {
			fail(models.ColumnSalary, err.Error())
			valid = false
		} else {
			emp.Salary = d
		}

		if emp.ManagerID, err = parseInteger(row.Get(models.ColumnManagerID)); err != nil {
			fail(models.ColumnManagerID, err.Error())
			valid = false
		}
		if emp.DepartmentID, err = parseInteger(row.Get(models.ColumnDepartmentID)); err != nil {
			fail(models.ColumnDepartmentID, err.Error())
			valid = false
		}

		if valid {
			employees = append(employees, emp)
		}
	}

	if len(problems) > 0 {
		return nil, problems
	}
	return employees, nil
}

// maxSalary is the exclusive bound of a decimal(14,2) column.
var maxSalary = decimal.New(1, 12)

// parseSalary reads a salary that fits the stored decimal(14,2) column.
func parseSalary(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("not a number")
	}
	if d.Abs().Cmp(maxSalary) >= 0 {
		return decimal.Decimal{}, fmt.Errorf("out of range")
	}
	if !d.Round(2).Equal(d) {
		return decimal.Decimal{}, fmt.Errorf("more than 2 decimal places")
	}
	return d, nil
}

// parseInteger reads an optional integer cell. Spreadsheet exports often
// write integers as floats, so integral values such as "7.0" are accepted.
// An empty cell yields nil.
func parseInteger(raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("not an integer")
	}
	if !d.IsInteger() {
		return nil, fmt.Errorf("not an integer")
	}
	if !d.BigInt().IsInt64() {
		return nil, fmt.Errorf("out of range")
	}
	return utils.Ptr(d.IntPart()), nil
}

// companyNames returns the distinct company names in order of first appearance.
func companyNames(employees []models.Employee) []string {
	seen := make(map[string]struct{}, len(employees))
	var names []string
	for _, emp := range employees {
		if _, ok := seen[emp.CompanyName]; ok {
			continue
		}
		seen[emp.CompanyName] = struct{}{}
		names = append(names, emp.CompanyName)
	}
	return names
}

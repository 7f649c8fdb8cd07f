package controller

import (
	"testing"

	e "github.com/gartstein/roster/internal/employees/errors"
	"github.com/gartstein/roster/internal/employees/models"
	"github.com/gartstein/roster/internal/employees/tabular"
	"github.com/gartstein/roster/internal/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInteger(t *testing.T) {
	tests := []struct {
		raw     string
		want    *int64
		wantErr bool
	}{
		{raw: "", want: nil},
		{raw: "   ", want: nil},
		{raw: "42", want: utils.Ptr[int64](42)},
		{raw: " 42 ", want: utils.Ptr[int64](42)},
		{raw: "7.0", want: utils.Ptr[int64](7)},
		{raw: "-3", want: utils.Ptr[int64](-3)},
		{raw: "2.5", wantErr: true},
		{raw: "abc", wantErr: true},
		{raw: "99999999999999999999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseInteger(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSalary(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr string
	}{
		{raw: "1500.50", want: "1500.5"},
		{raw: "0", want: "0"},
		{raw: "-12.25", want: "-12.25"},
		{raw: "999999999999.99", want: "999999999999.99"},
		{raw: "1e3", want: "1000"},
		{raw: "1e400", wantErr: "out of range"},
		{raw: "1000000000000", wantErr: "out of range"},
		{raw: "-1000000000000", wantErr: "out of range"},
		{raw: "1234.567", wantErr: "more than 2 decimal places"},
		{raw: "1e-3", wantErr: "more than 2 decimal places"},
		{raw: "lots", wantErr: "not a number"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseSalary(tt.raw)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestBuildEmployeesRejectsSalaryOutsideColumn(t *testing.T) {
	table, err := tabular.Parse(tabular.CSV, []byte(header+
		"1,Ada,Lovelace,555,Acme,1e400,,\n"+
		"2,Grace,Hopper,555,Acme,1234.567,,\n"))
	require.NoError(t, err)

	employees, problems := buildEmployees(table)

	assert.Nil(t, employees)
	assert.Equal(t, e.RowErrors{
		{Row: 2, Column: models.ColumnSalary, Value: "1e400", Message: "out of range"},
		{Row: 3, Column: models.ColumnSalary, Value: "1234.567", Message: "more than 2 decimal places"},
	}, problems)
}

func TestBuildEmployees(t *testing.T) {
	table, err := tabular.Parse(tabular.CSV, []byte(header+
		"1,Ada,Lovelace,555-0100,Acme,1500.50,,10\n"+
		"2.0,Grace,Hopper,555-0101,acme,2000,1,\n"))
	require.NoError(t, err)

	employees, problems := buildEmployees(table)
	require.Empty(t, problems)
	require.Len(t, employees, 2)

	assert.Equal(t, int64(1), employees[0].EmployeeID)
	assert.Equal(t, "Ada", employees[0].FirstName)
	assert.Equal(t, "555-0100", employees[0].PhoneNumber)
	assert.Equal(t, "1500.5", employees[0].Salary.String())
	assert.Nil(t, employees[0].ManagerID)
	assert.Equal(t, utils.Ptr[int64](10), employees[0].DepartmentID)

	assert.Equal(t, int64(2), employees[1].EmployeeID)
	assert.Equal(t, utils.Ptr[int64](1), employees[1].ManagerID)
	assert.Nil(t, employees[1].DepartmentID)

	assert.Equal(t, []string{"Acme", "acme"}, companyNames(employees), "names are case-sensitive")
}

func TestCompanyNamesFirstAppearance(t *testing.T) {
	employees := []models.Employee{
		{CompanyName: "Globex"},
		{CompanyName: "Acme"},
		{CompanyName: "Globex"},
		{CompanyName: "Initech"},
	}
	assert.Equal(t, []string{"Globex", "Acme", "Initech"}, companyNames(employees))
}

// Package models contains the persistence models of the roster service,
// configured to work using GORM as the ORM.
package models

import (
	"github.com/shopspring/decimal"
)

// Company is a row of the companies table.
type Company struct {
	ID          uint   `gorm:"primaryKey"`
	CompanyName string `gorm:"uniqueIndex;not null"`
}

func (Company) TableName() string {
	return "companies"
}

// Employee is a row of the employees table.
// ManagerID and DepartmentID are plain numbers with no foreign key.
type Employee struct {
	ID           uint            `gorm:"primaryKey"`
	EmployeeID   int64           `gorm:"uniqueIndex;not null"`
	FirstName    string          `gorm:"not null"`
	LastName     string          `gorm:"not null"`
	PhoneNumber  string          `gorm:"not null"`
	Salary       decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	ManagerID    *int64
	DepartmentID *int64
	CompanyID    uint    `gorm:"not null;index"`
	Company      Company `gorm:"foreignKey:CompanyID"`
}

func (Employee) TableName() string {
	return "employees"
}

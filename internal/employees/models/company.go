// Package models defines the core domain models of the roster service:
// companies, employees, and the results of an ingestion run.
package models

// Company defines the domain model for a company entity.
type Company struct {
	// ID is the store-assigned identifier.
	ID uint
	// Name is the company's name, unique across the store.
	Name string
}

// Package models contains GORM persistence models that map to the store's tables.
// These models are separate from domain entities to keep the domain layer free
// from ORM concerns.
//
// Every model carries both gorm and json tags: the GORM gateway scans rows into
// them and the REST gateway decodes PostgREST responses into the same structs,
// so json names must equal column names.
//
// TableName returns the canonical table name used by AutoMigrate in tests; at
// runtime repositories pass the configured table name to the gateway.
package models

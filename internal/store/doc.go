// Package store is the repository layer over the committee schema.
//
// It wraps a *gorm.DB with the lookups the importer needs (acronym bindings,
// meeting slots, activity resolution, document source-ID checks) and a scoped
// Transaction helper. Each top-level import operation runs inside one such
// transaction: all of its mutations commit together or roll back together.
package store

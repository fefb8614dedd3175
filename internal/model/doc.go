// Package model defines the persisted entities for parliamentary committee
// data: committees and their session-scoped acronym bindings, studies
// (activities), meetings, and evidence documents.
//
// Source-assigned identifiers (SourceID fields) are the external keys used
// for idempotent reconciliation across importer runs; slugs and acronyms are
// load-bearing for downstream consumers and must stay stable across
// re-imports.
package model

// Package cli wires the importer into a cobra command tree.
//
// The import subcommand opens the database, migrates the schema, resolves
// the session row for the requested parliament/session pair, and runs the
// committee directory import followed by per-committee meeting imports.
package cli

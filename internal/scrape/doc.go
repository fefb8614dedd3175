// Package scrape turns fetched committee pages into structured values.
//
// Everything here is a pure function over a goquery document or a text
// fragment: committee list blocks, meeting rows, activity titles, document
// IDs, 12-hour clock strings, and long-form dates. Reconciliation against the
// store happens in the importer package; this package never touches the
// network or the database.
package scrape

// Package fetch provides HTTP fetching of parliamentary web pages as
// goquery document trees.
//
// The Fetcher interface is the seam between the importer and the live site:
// production code uses Client, tests substitute fixture-backed fakes.
package fetch

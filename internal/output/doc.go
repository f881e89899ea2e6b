// Package output delivers rendered styles.
//
// Writers (writer.go) send a document to stdout or replace a file, directly
// or through a temporary file and rename. Diffs (diff.go) compare two
// renders of the same style. Validation (validator.go) checks a rendered
// Mapnik document before it is written.
package output

// Package history persists a summary of every optimizer run so past plans can
// be listed and audited. Records are stored either as JSON lines (optionally
// rotated) or in a SQLite database.
package history
